// Package statement expone el estado de cuenta de clientes (cartera) sobre el libro
// construido por domain/ledger.
package statement

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/ledger"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

// UseCase consultas de solo lectura: no toma candados ni abre transacciones.
type UseCase struct {
	customerRepo repository.CustomerRepository
	invoiceRepo  repository.InvoiceRepository
	paymentRepo  repository.PaymentRepository
	creditRepo   repository.CreditNoteRepository
	renderer     PDFRenderer
	parallelism  int
	log          *logger.Logger
}

// NewUseCase construye el caso de uso. renderer puede ser nil si no se exporta PDF.
func NewUseCase(
	customerRepo repository.CustomerRepository,
	invoiceRepo repository.InvoiceRepository,
	paymentRepo repository.PaymentRepository,
	creditRepo repository.CreditNoteRepository,
	renderer PDFRenderer,
	parallelism int,
	log *logger.Logger,
) *UseCase {
	if parallelism < 1 {
		parallelism = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		creditRepo:   creditRepo,
		renderer:     renderer,
		parallelism:  parallelism,
		log:          log.Component("statement"),
	}
}

// GetStatement estado de cuenta del cliente en [from, to].
func (uc *UseCase) GetStatement(ctx context.Context, companyID, customerID string, from, to time.Time) (*dto.StatementResponse, error) {
	customer, st, err := uc.build(ctx, companyID, customerID, from, to)
	if err != nil {
		return nil, err
	}
	return ToStatementResponse(customer, st), nil
}

// GetStatements calcula varios estados de cuenta en paralelo, acotado por la configuración.
// El resultado conserva el orden de customerIDs; el primer error cancela el resto.
func (uc *UseCase) GetStatements(ctx context.Context, companyID string, customerIDs []string, from, to time.Time) ([]*dto.StatementResponse, error) {
	if err := ledger.ValidateRange(from, to); err != nil {
		return nil, err
	}
	out := make([]*dto.StatementResponse, len(customerIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.parallelism)
	for i, id := range customerIDs {
		g.Go(func() error {
			res, err := uc.GetStatement(gctx, companyID, id, from, to)
			if err != nil {
				return fmt.Errorf("cliente %s: %w", id, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StatementPDF genera el PDF del estado de cuenta.
//
// Retorna (pdfBytes, filename, nil) o los mismos errores que GetStatement.
func (uc *UseCase) StatementPDF(ctx context.Context, companyID, customerID string, from, to time.Time) ([]byte, string, error) {
	if uc.renderer == nil {
		return nil, "", fmt.Errorf("%w: exportación PDF no configurada", domain.ErrInvalidInput)
	}
	customer, st, err := uc.build(ctx, companyID, customerID, from, to)
	if err != nil {
		return nil, "", err
	}
	pdfBytes, err := uc.renderer.RenderStatement(ctx, customer, ToStatementResponse(customer, st))
	if err != nil {
		return nil, "", fmt.Errorf("estado de cuenta: generación PDF fallida: %w", err)
	}
	filename := fmt.Sprintf("estado_cuenta_%s_%s_%s.pdf", customer.ID, st.From.Format("20060102"), st.To.Format("20060102"))
	return pdfBytes, filename, nil
}

// build valida el cliente, carga su historial hasta to y arma el libro.
func (uc *UseCase) build(ctx context.Context, companyID, customerID string, from, to time.Time) (*entity.Customer, ledger.Statement, error) {
	if err := ledger.ValidateRange(from, to); err != nil {
		return nil, ledger.Statement{}, err
	}

	customer, err := uc.customerRepo.GetByID(ctx, customerID)
	if err != nil {
		return nil, ledger.Statement{}, fmt.Errorf("estado de cuenta: obtener cliente: %w", err)
	}
	if customer == nil {
		return nil, ledger.Statement{}, domain.ErrNotFound
	}
	if customer.CompanyID != companyID {
		return nil, ledger.Statement{}, domain.ErrForbidden
	}

	h, err := uc.history(ctx, customerID, ledger.EndOfDay(to))
	if err != nil {
		return nil, ledger.Statement{}, err
	}
	st, err := ledger.Build(customerID, from, to, h)
	if err != nil {
		return nil, ledger.Statement{}, err
	}
	for _, rec := range st.Reconciliations {
		uc.log.Warn().
			Str("reconciliation", "paid_invoice_without_payments").
			Str("customer_id", customerID).
			Str("invoice_id", rec.InvoiceID).
			Str("reference", rec.Reference).
			Str("total", rec.Total.String()).
			Str("matched", rec.Matched.String()).
			Str("shortfall", rec.Shortfall.String()).
			Msg("factura pagada sin abonos suficientes; se generó un abono sintético")
	}
	return customer, st, nil
}

// history carga facturas, abonos y notas crédito del cliente en paralelo.
func (uc *UseCase) history(ctx context.Context, customerID string, until time.Time) (ledger.History, error) {
	var h ledger.History
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		invoices, err := uc.invoiceRepo.ListByCustomerUntil(gctx, customerID, until)
		if err != nil {
			return fmt.Errorf("estado de cuenta: listar facturas: %w", err)
		}
		h.Invoices = invoices
		return nil
	})
	g.Go(func() error {
		payments, err := uc.paymentRepo.ListByCustomerUntil(gctx, customerID, until)
		if err != nil {
			return fmt.Errorf("estado de cuenta: listar abonos: %w", err)
		}
		h.Payments = payments
		return nil
	})
	g.Go(func() error {
		credits, err := uc.creditRepo.ListByCustomerUntil(gctx, customerID, until)
		if err != nil {
			return fmt.Errorf("estado de cuenta: listar notas crédito: %w", err)
		}
		h.CreditNotes = credits
		return nil
	})
	return h, g.Wait()
}
