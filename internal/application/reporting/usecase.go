// Package reporting expone los reportes netos de ventas (por período, producto, vendedor y
// cliente) y sus exportaciones CSV/XLSX.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/ledger"
	"github.com/jhoicas/Cartera-api/internal/domain/reports"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	"github.com/jhoicas/Cartera-api/pkg/logger"
)

// Claves de reporte publicadas en /api/reports/:key.
const (
	KeyNetSales  = "net-sales"
	KeyProducts  = "products"
	KeySalesReps = "sales-reps"
	KeyCustomers = "customers"
)

var dimensionByKey = map[string]reports.Dimension{
	KeyProducts:  reports.DimensionProduct,
	KeySalesReps: reports.DimensionSalesRep,
	KeyCustomers: reports.DimensionCustomer,
}

// Keys claves de reporte disponibles, en orden de presentación.
func Keys() []string {
	return []string{KeyNetSales, KeyProducts, KeySalesReps, KeyCustomers}
}

// XLSXExporter serializa un reporte a un libro de Excel.
type XLSXExporter interface {
	ExportReport(ctx context.Context, r *dto.ReportResponse) ([]byte, error)
}

// UseCase calcula reportes sobre una instantánea del período. Pedidos idénticos en vuelo
// (misma empresa, clave, rango y granularidad) comparten un solo cálculo; no hay caché de resultados.
type UseCase struct {
	invoiceRepo repository.InvoiceRepository
	creditRepo  repository.CreditNoteRepository
	paymentRepo repository.PaymentRepository
	xlsx        XLSXExporter
	inflight    singleflight.Group
	log         *logger.Logger
}

// NewUseCase construye el caso de uso. xlsx puede ser nil si no se exporta a Excel.
func NewUseCase(
	invoiceRepo repository.InvoiceRepository,
	creditRepo repository.CreditNoteRepository,
	paymentRepo repository.PaymentRepository,
	xlsx XLSXExporter,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		invoiceRepo: invoiceRepo,
		creditRepo:  creditRepo,
		paymentRepo: paymentRepo,
		xlsx:        xlsx,
		log:         log.Component("reports"),
	}
}

// Run calcula el reporte key para la empresa.
//
// Errores: domain.ErrNotFound si la clave no existe, domain.ErrInvalidInput o
// domain.ErrInvalidDateRange si el rango o la granularidad no son válidos.
func (uc *UseCase) Run(ctx context.Context, companyID, key string, q dto.ReportQuery) (*dto.ReportResponse, error) {
	if !validKey(key) {
		return nil, fmt.Errorf("%w: reporte %q", domain.ErrNotFound, key)
	}
	from, to, err := ledger.ParseWindow(q.From, q.To)
	if err != nil {
		return nil, err
	}
	g, err := reports.ParseGranularity(q.Granularity)
	if err != nil {
		return nil, err
	}

	flightKey := strings.Join([]string{companyID, key, q.From, q.To, string(g)}, "|")
	// el cálculo compartido no se cancela con el pedido que lo inició: otros pueden estar esperando
	shared := context.WithoutCancel(ctx)
	ch := uc.inflight.DoChan(flightKey, func() (interface{}, error) {
		return uc.compute(shared, companyID, key, from, to, g)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			uc.log.Debug().Str("report", key).Str("company_id", companyID).Msg("reporte compartido con un pedido en vuelo")
		}
		return res.Val.(*dto.ReportResponse), nil
	}
}

// Export calcula el reporte y lo serializa en q.Format (csv o xlsx).
// Retorna (bytes, filename, contentType, nil).
func (uc *UseCase) Export(ctx context.Context, companyID, key string, q dto.ReportQuery) ([]byte, string, string, error) {
	format := strings.ToLower(q.Format)
	if format != "csv" && format != "xlsx" {
		return nil, "", "", fmt.Errorf("%w: formato de exportación %q", domain.ErrInvalidInput, q.Format)
	}
	if format == "xlsx" && uc.xlsx == nil {
		return nil, "", "", fmt.Errorf("%w: exportación XLSX no configurada", domain.ErrInvalidInput)
	}
	r, err := uc.Run(ctx, companyID, key, q)
	if err != nil {
		return nil, "", "", err
	}
	base := fmt.Sprintf("reporte_%s_%s_%s", key, strings.ReplaceAll(r.From, "-", ""), strings.ReplaceAll(r.To, "-", ""))

	if format == "xlsx" {
		data, err := uc.xlsx.ExportReport(ctx, r)
		if err != nil {
			return nil, "", "", fmt.Errorf("reporte: generación XLSX fallida: %w", err)
		}
		return data, base + ".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", nil
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, r, q.Charset); err != nil {
		return nil, "", "", fmt.Errorf("reporte: generación CSV fallida: %w", err)
	}
	contentType := "text/csv; charset=utf-8"
	if isWindows1252(q.Charset) {
		contentType = "text/csv; charset=windows-1252"
	}
	return []byte(sb.String()), base + ".csv", contentType, nil
}

func (uc *UseCase) compute(ctx context.Context, companyID, key string, from, to time.Time, g reports.Granularity) (*dto.ReportResponse, error) {
	start := time.Now()
	in, err := uc.load(ctx, companyID, ledger.Day(from), ledger.EndOfDay(to))
	if err != nil {
		return nil, err
	}
	agg := reports.NewAggregator(g)
	out := &dto.ReportResponse{
		Key:         key,
		Granularity: string(agg.Granularity()),
		From:        from.Format(time.DateOnly),
		To:          to.Format(time.DateOnly),
	}
	if key == KeyNetSales {
		out.Periods = toPeriodResponses(agg.Periods(in))
	} else {
		rollups, err := agg.Dimension(dimensionByKey[key], in)
		if err != nil {
			return nil, err
		}
		out.Rollups = toRollupResponses(rollups)
	}
	uc.log.Info().
		Str("report", key).
		Str("company_id", companyID).
		Int("invoices", len(in.Invoices)).
		Int("credit_notes", len(in.CreditNotes)).
		Dur("elapsed", time.Since(start)).
		Msg("reporte calculado")
	return out, nil
}

// load arma la instantánea del período: documentos, sus líneas, los abonos de esas facturas
// y las facturas vinculadas a notas crédito que caen fuera del período.
func (uc *UseCase) load(ctx context.Context, companyID string, from, to time.Time) (reports.Input, error) {
	var in reports.Input

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		invoices, err := uc.invoiceRepo.ListByPeriod(gctx, companyID, from, to)
		if err != nil {
			return fmt.Errorf("reporte: listar facturas: %w", err)
		}
		in.Invoices = invoices
		return nil
	})
	g.Go(func() error {
		credits, err := uc.creditRepo.ListByPeriod(gctx, companyID, from, to)
		if err != nil {
			return fmt.Errorf("reporte: listar notas crédito: %w", err)
		}
		in.CreditNotes = credits
		return nil
	})
	if err := g.Wait(); err != nil {
		return reports.Input{}, err
	}

	invoiceIDs := make([]string, 0, len(in.Invoices))
	inPeriod := make(map[string]bool, len(in.Invoices))
	for i := range in.Invoices {
		invoiceIDs = append(invoiceIDs, in.Invoices[i].ID)
		inPeriod[in.Invoices[i].ID] = true
	}
	creditIDs := make([]string, 0, len(in.CreditNotes))
	var linkedIDs []string
	for i := range in.CreditNotes {
		creditIDs = append(creditIDs, in.CreditNotes[i].ID)
		if id := in.CreditNotes[i].LinkedInvoiceID; id != "" && !inPeriod[id] {
			linkedIDs = append(linkedIDs, id)
			inPeriod[id] = true
		}
	}

	g, gctx = errgroup.WithContext(ctx)
	if len(invoiceIDs) > 0 {
		g.Go(func() error {
			lines, err := uc.invoiceRepo.ListLinesByInvoiceIDs(gctx, invoiceIDs)
			if err != nil {
				return fmt.Errorf("reporte: líneas de facturas: %w", err)
			}
			in.InvoiceLines = lines
			return nil
		})
		g.Go(func() error {
			payments, err := uc.paymentRepo.ListByInvoiceIDs(gctx, invoiceIDs)
			if err != nil {
				return fmt.Errorf("reporte: abonos: %w", err)
			}
			in.Payments = payments
			return nil
		})
	}
	if len(creditIDs) > 0 {
		g.Go(func() error {
			lines, err := uc.creditRepo.ListLinesByCreditNoteIDs(gctx, creditIDs)
			if err != nil {
				return fmt.Errorf("reporte: líneas de notas crédito: %w", err)
			}
			in.CreditNoteLines = lines
			return nil
		})
	}
	if len(linkedIDs) > 0 {
		g.Go(func() error {
			linked, err := uc.invoiceRepo.ListByIDs(gctx, linkedIDs)
			if err != nil {
				return fmt.Errorf("reporte: facturas vinculadas: %w", err)
			}
			in.LinkedInvoices = onlyCompany(linked, companyID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports.Input{}, err
	}
	return in, nil
}

func onlyCompany(invoices []entity.Invoice, companyID string) []entity.Invoice {
	out := invoices[:0]
	for _, inv := range invoices {
		if inv.CompanyID == companyID {
			out = append(out, inv)
		}
	}
	return out
}

func validKey(key string) bool {
	if key == KeyNetSales {
		return true
	}
	_, ok := dimensionByKey[key]
	return ok
}
