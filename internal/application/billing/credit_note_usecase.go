package billing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	"github.com/jhoicas/Cartera-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// CreditNoteUseCase líneas, emisión y anulación de notas crédito.
// Emitir o anular una nota con factura vinculada mueve CreditsApplied de esa factura
// bajo el candado de ambos documentos.
type CreditNoteUseCase struct {
	txRunner   BillingTxRunner
	locker     InvoiceLocker
	creditRepo repository.CreditNoteRepository
	pricer     *pricing.LinePricer
	defaultVAT decimal.Decimal
	log        *logger.Logger
	now        func() time.Time
}

// NewCreditNoteUseCase construye el caso de uso. defaultVAT se usa en notas sin factura vinculada.
func NewCreditNoteUseCase(
	txRunner BillingTxRunner,
	locker InvoiceLocker,
	creditRepo repository.CreditNoteRepository,
	pricer *pricing.LinePricer,
	defaultVAT decimal.Decimal,
	log *logger.Logger,
) *CreditNoteUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CreditNoteUseCase{
		txRunner:   txRunner,
		locker:     locker,
		creditRepo: creditRepo,
		pricer:     pricer,
		defaultVAT: defaultVAT,
		log:        log.Component("credit-notes"),
		now:        time.Now,
	}
}

// AddLine agrega una línea a una nota crédito en borrador y recalcula sus totales.
func (uc *CreditNoteUseCase) AddLine(ctx context.Context, companyID, creditNoteID string, in dto.LineRequest) (*dto.CreditNoteResponse, error) {
	input, err := LineInputFrom(in)
	if err != nil {
		return nil, err
	}
	var (
		out   *entity.CreditNote
		lines []entity.LineItem
	)
	err = uc.mutate(ctx, companyID, creditNoteID, func(r Repos, cn *entity.CreditNote, linked *entity.Invoice) error {
		if cn.Status != entity.CreditNoteStatusDraft {
			return fmt.Errorf("%w: la nota crédito está en estado %s", domain.ErrInvalidTransition, cn.Status)
		}
		product, err := r.Products.GetByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product != nil && product.CompanyID != companyID {
			return domain.ErrForbidden
		}
		rate := uc.defaultVAT
		if linked != nil {
			rate = linked.VATPercent
		}
		line, err := uc.pricer.Build(product, input, rate)
		if err != nil {
			return err
		}
		existing, err := r.CreditNotes.ListLines(ctx, cn.ID)
		if err != nil {
			return err
		}
		line.ID = uuid.New().String()
		line.DocumentID = cn.ID
		line.Position = nextPosition(existing)
		if err := r.CreditNotes.CreateLine(ctx, &line); err != nil {
			return err
		}
		lines = append(existing, line)
		out = cn
		return uc.writeTotals(ctx, r, cn, lines)
	})
	if err != nil {
		return nil, err
	}
	return ToCreditNoteResponse(out, lines), nil
}

// Issue emite la nota: recalcula totales, la marca ISSUED y suma su total a los créditos
// aplicados de la factura vinculada, actualizando saldo y estado de esa factura.
func (uc *CreditNoteUseCase) Issue(ctx context.Context, companyID, creditNoteID string) (*dto.CreditNoteResponse, error) {
	var (
		out   *entity.CreditNote
		lines []entity.LineItem
	)
	err := uc.mutate(ctx, companyID, creditNoteID, func(r Repos, cn *entity.CreditNote, linked *entity.Invoice) error {
		if cn.Status != entity.CreditNoteStatusDraft {
			return fmt.Errorf("%w: %s → ISSUED", domain.ErrInvalidTransition, cn.Status)
		}
		var err error
		lines, err = r.CreditNotes.ListLines(ctx, cn.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("%w: la nota crédito no tiene líneas", domain.ErrInvalidInput)
		}
		if err := uc.writeTotals(ctx, r, cn, lines); err != nil {
			return err
		}
		if err := r.CreditNotes.UpdateStatus(ctx, cn.ID, entity.CreditNoteStatusIssued); err != nil {
			return err
		}
		cn.Status = entity.CreditNoteStatusIssued
		out = cn

		if linked == nil {
			return nil
		}
		if linked.Status == entity.InvoiceStatusVoid || linked.Status == entity.InvoiceStatusDraft {
			return fmt.Errorf("%w: la factura vinculada está en estado %s", domain.ErrInvalidTransition, linked.Status)
		}
		credits := money.Round2(linked.CreditsApplied.Add(cn.Total))
		return settleInvoice(ctx, r, linked, linked.AmountPaid, credits, uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("credit_note_id", creditNoteID).Str("total", out.Total.String()).Str("linked_invoice_id", out.LinkedInvoiceID).Msg("nota crédito emitida")
	return ToCreditNoteResponse(out, lines), nil
}

// Void anula la nota. Si estaba emitida, libera su crédito de la factura vinculada.
// Se rechaza si la factura quedó PAID gracias a ese crédito.
func (uc *CreditNoteUseCase) Void(ctx context.Context, companyID, creditNoteID string) (*dto.CreditNoteResponse, error) {
	var out *entity.CreditNote
	err := uc.mutate(ctx, companyID, creditNoteID, func(r Repos, cn *entity.CreditNote, linked *entity.Invoice) error {
		if cn.Status == entity.CreditNoteStatusVoid {
			return fmt.Errorf("%w: la nota crédito ya está anulada", domain.ErrInvalidTransition)
		}
		releases := cn.Status == entity.CreditNoteStatusIssued && linked != nil && linked.Status != entity.InvoiceStatusVoid
		var credits decimal.Decimal
		if releases {
			credits = money.Round2(money.NonNegative(linked.CreditsApplied.Sub(cn.Total)))
			// PAID no retrocede: quitar el crédito dejaría una factura pagada con saldo
			if linked.Status == entity.InvoiceStatusPaid &&
				pricing.BalanceRemaining(linked.GrossTotal, linked.AmountPaid, credits).IsPositive() {
				return fmt.Errorf("%w: la nota crédito salda la factura %s; registre un ajuste en su lugar", domain.ErrInvalidTransition, linked.Reference())
			}
		}
		if err := r.CreditNotes.UpdateStatus(ctx, cn.ID, entity.CreditNoteStatusVoid); err != nil {
			return err
		}
		cn.Status = entity.CreditNoteStatusVoid
		out = cn

		if !releases {
			return nil
		}
		return settleInvoice(ctx, r, linked, linked.AmountPaid, credits, uc.now())
	})
	if err != nil {
		return nil, err
	}
	uc.log.Warn().Str("credit_note_id", creditNoteID).Msg("nota crédito anulada")
	return ToCreditNoteResponse(out, nil), nil
}

// mutate bloquea la nota y, si la tiene, su factura vinculada (en orden de clave para no
// cruzarse con otra operación), abre la transacción y lee ambos documentos FOR UPDATE.
func (uc *CreditNoteUseCase) mutate(ctx context.Context, companyID, id string, fn func(r Repos, cn *entity.CreditNote, linked *entity.Invoice) error) error {
	current, err := uc.creditRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return domain.ErrNotFound
	}
	if current.CompanyID != companyID {
		return domain.ErrForbidden
	}

	keys := []string{CreditNoteLockKey(id)}
	if current.LinkedInvoiceID != "" {
		keys = append(keys, InvoiceLockKey(current.LinkedInvoiceID))
	}
	sort.Strings(keys)
	for _, key := range keys {
		unlock, err := uc.locker.Lock(ctx, key)
		if err != nil {
			return err
		}
		defer unlock()
	}

	return uc.txRunner.RunBilling(ctx, func(r Repos) error {
		cn, err := r.CreditNotes.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if cn == nil {
			return domain.ErrNotFound
		}
		var linked *entity.Invoice
		if cn.LinkedInvoiceID != "" {
			linked, err = r.Invoices.GetForUpdate(ctx, cn.LinkedInvoiceID)
			if err != nil {
				return err
			}
			if linked != nil && linked.CompanyID != companyID {
				return domain.ErrForbidden
			}
		}
		return fn(r, cn, linked)
	})
}

// writeTotals: las notas crédito no llevan descuento, siempre modo base.
func (uc *CreditNoteUseCase) writeTotals(ctx context.Context, r Repos, cn *entity.CreditNote, lines []entity.LineItem) error {
	pricing.RecomputeBase(lines, pricing.Balances{}).ApplyToCreditNote(cn)
	cn.UpdatedAt = uc.now()
	return r.CreditNotes.UpdateTotals(ctx, cn)
}
