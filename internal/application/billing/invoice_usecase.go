package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
	"github.com/jhoicas/Cartera-api/pkg/logger"
	"github.com/shopspring/decimal"
)

// InvoiceUseCase casos de uso que modifican una factura: recálculo de totales, descuento,
// IVA del documento, líneas, abonos y anulación.
//
// Toda mutación sigue el mismo orden: candado por factura → transacción → SELECT FOR UPDATE
// → leer líneas → calcular → escribir cabecera → commit → liberar candado.
type InvoiceUseCase struct {
	txRunner    BillingTxRunner
	locker      InvoiceLocker
	invoiceRepo repository.InvoiceRepository
	pricer      *pricing.LinePricer
	log         *logger.Logger
	now         func() time.Time
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	txRunner BillingTxRunner,
	locker InvoiceLocker,
	invoiceRepo repository.InvoiceRepository,
	pricer *pricing.LinePricer,
	log *logger.Logger,
) *InvoiceUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &InvoiceUseCase{
		txRunner:    txRunner,
		locker:      locker,
		invoiceRepo: invoiceRepo,
		pricer:      pricer,
		log:         log.Component("billing"),
		now:         time.Now,
	}
}

// GetInvoice devuelve la factura con sus líneas (solo lectura, sin candado).
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	lines, err := uc.invoiceRepo.ListLines(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv, lines), nil
}

// Recompute recalcula los totales de la cabecera con el modo indicado.
//
// BaseRecompute re-deriva cada línea (las líneas son la fuente de verdad) y suma; si la
// factura tiene un descuento distinto de cero, se vuelve a repartir con ProportionalDiscount.
// ProportionalDiscount solo reparte el descuento vigente sin tocar las líneas.
func (uc *InvoiceUseCase) Recompute(ctx context.Context, companyID, id string, mode pricing.RecomputeMode) (*dto.InvoiceResponse, error) {
	var (
		out   *entity.Invoice
		lines []entity.LineItem
	)
	err := uc.mutate(ctx, companyID, id, func(r Repos, inv *entity.Invoice) error {
		if inv.Status == entity.InvoiceStatusVoid {
			return fmt.Errorf("%w: la factura está anulada", domain.ErrInvalidTransition)
		}
		var err error
		switch mode {
		case pricing.BaseRecompute:
			lines, err = uc.recomputeFromLines(ctx, r, inv, nil)
		case pricing.ProportionalDiscount:
			lines, err = uc.applyDiscount(ctx, r, inv, inv.DiscountPercent)
		default:
			err = fmt.Errorf("%w: modo de recálculo %d", domain.ErrInvalidInput, int(mode))
		}
		out = inv
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", id).Str("mode", mode.String()).Str("total", out.Total.String()).Msg("totales recalculados")
	return ToInvoiceResponse(out, lines), nil
}

// ApplyDiscount fija el descuento del documento y lo reparte proporcionalmente.
// Con autoRecalc=true primero recalcula desde las líneas; sin él las líneas no se tocan.
// Un descuento de 0 es la única forma de quitar el descuento.
func (uc *InvoiceUseCase) ApplyDiscount(ctx context.Context, companyID, id string, discountPct decimal.Decimal, autoRecalc bool) (*dto.InvoiceResponse, error) {
	if discountPct.IsNegative() || discountPct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: descuento %s%% fuera de [0, 100]", domain.ErrInvalidInput, discountPct.String())
	}
	var (
		out   *entity.Invoice
		lines []entity.LineItem
	)
	err := uc.mutate(ctx, companyID, id, func(r Repos, inv *entity.Invoice) error {
		if err := requireEditable(inv); err != nil {
			return err
		}
		inv.DiscountPercent = discountPct
		var err error
		if autoRecalc {
			lines, err = uc.recomputeFromLines(ctx, r, inv, nil)
		} else {
			lines, err = uc.applyDiscount(ctx, r, inv, discountPct)
		}
		out = inv
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", id).Str("discount_percent", discountPct.String()).Bool("auto_recalc", autoRecalc).Msg("descuento aplicado")
	return ToInvoiceResponse(out, lines), nil
}

// SetVATPercent cambia la tasa del documento. Las líneas que seguían la tasa anterior se
// re-valorizan con la nueva; las que tienen una tasa explícita distinta la conservan.
// Siempre dispara un recálculo base.
func (uc *InvoiceUseCase) SetVATPercent(ctx context.Context, companyID, id string, vatPct decimal.Decimal) (*dto.InvoiceResponse, error) {
	if vatPct.IsNegative() || vatPct.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: IVA %s%% fuera de [0, 100]", domain.ErrInvalidInput, vatPct.String())
	}
	var (
		out   *entity.Invoice
		lines []entity.LineItem
	)
	err := uc.mutate(ctx, companyID, id, func(r Repos, inv *entity.Invoice) error {
		if err := requireEditable(inv); err != nil {
			return err
		}
		oldRate := inv.VATPercent
		inv.VATPercent = vatPct
		var err error
		lines, err = uc.recomputeFromLines(ctx, r, inv, func(l entity.LineItem) entity.LineItem {
			if l.VATRate.Equal(oldRate) {
				return pricing.Reprice(l, vatPct)
			}
			return l
		})
		out = inv
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", id).Str("vat_percent", vatPct.String()).Msg("IVA del documento actualizado")
	return ToInvoiceResponse(out, lines), nil
}

// VoidInvoice anula la factura. VOID es terminal y saca la factura de cartera y reportes.
func (uc *InvoiceUseCase) VoidInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	var out *entity.Invoice
	err := uc.mutate(ctx, companyID, id, func(r Repos, inv *entity.Invoice) error {
		if !inv.Status.CanTransitionTo(entity.InvoiceStatusVoid) {
			return fmt.Errorf("%w: %s → VOID", domain.ErrInvalidTransition, inv.Status)
		}
		inv.Status = entity.InvoiceStatusVoid
		out = inv
		return r.Invoices.UpdateStatus(ctx, inv.ID, entity.InvoiceStatusVoid)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Warn().Str("invoice_id", id).Msg("factura anulada")
	return ToInvoiceResponse(out, nil), nil
}

// ── internos ─────────────────────────────────────────────────────────────────

// mutate toma el candado de la factura, abre la transacción y bloquea la fila.
func (uc *InvoiceUseCase) mutate(ctx context.Context, companyID, id string, fn func(r Repos, inv *entity.Invoice) error) error {
	unlock, err := uc.locker.Lock(ctx, InvoiceLockKey(id))
	if err != nil {
		return err
	}
	defer unlock()

	return uc.txRunner.RunBilling(ctx, func(r Repos) error {
		inv, err := r.Invoices.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv == nil {
			return domain.ErrNotFound
		}
		if inv.CompanyID != companyID {
			return domain.ErrForbidden
		}
		return fn(r, inv)
	})
}

// recomputeFromLines re-deriva las líneas (opcionalmente transformadas), persiste las que
// cambiaron y escribe la cabecera. Un descuento vigente se vuelve a repartir.
func (uc *InvoiceUseCase) recomputeFromLines(ctx context.Context, r Repos, inv *entity.Invoice, transform func(entity.LineItem) entity.LineItem) ([]entity.LineItem, error) {
	lines, err := r.Invoices.ListLines(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		next := lines[i]
		if transform != nil {
			next = transform(next)
		}
		next = pricing.Price(next)
		if lineChanged(lines[i], next) {
			if err := r.Invoices.UpdateLine(ctx, &next); err != nil {
				return nil, err
			}
		}
		lines[i] = next
	}

	mode := pricing.BaseRecompute
	if inv.DiscountPercent.IsPositive() {
		mode = pricing.ProportionalDiscount
	}
	totals, err := pricing.Recompute(mode, lines, inv.DiscountPercent, pricing.BalancesOf(inv))
	if err != nil {
		return nil, err
	}
	return lines, uc.writeTotals(ctx, r, inv, totals)
}

// applyDiscount reparte el descuento sobre las líneas actuales sin modificarlas.
func (uc *InvoiceUseCase) applyDiscount(ctx context.Context, r Repos, inv *entity.Invoice, discountPct decimal.Decimal) ([]entity.LineItem, error) {
	lines, err := r.Invoices.ListLines(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	totals, err := pricing.ApplyProportionalDiscount(lines, discountPct, pricing.BalancesOf(inv))
	if err != nil {
		return nil, err
	}
	return lines, uc.writeTotals(ctx, r, inv, totals)
}

func (uc *InvoiceUseCase) writeTotals(ctx context.Context, r Repos, inv *entity.Invoice, totals pricing.Totals) error {
	totals.ApplyTo(inv)
	inv.UpdatedAt = uc.now()
	return r.Invoices.UpdateTotals(ctx, inv)
}

// requireEditable: solo borradores y facturas emitidas sin abonos admiten cambios de líneas o tasas.
func requireEditable(inv *entity.Invoice) error {
	switch inv.Status {
	case entity.InvoiceStatusDraft, entity.InvoiceStatusIssued:
		return nil
	}
	return fmt.Errorf("%w: la factura está en estado %s", domain.ErrInvalidTransition, inv.Status)
}

func lineChanged(a, b entity.LineItem) bool {
	return !a.VATRate.Equal(b.VATRate) ||
		!a.UnitVAT.Equal(b.UnitVAT) ||
		!a.UnitPriceInclVAT.Equal(b.UnitPriceInclVAT) ||
		!a.LineTotal.Equal(b.LineTotal)
}
