package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
	"github.com/shopspring/decimal"
)

// RecordPayment registra un abono contra la factura, actualiza AmountPaid y el saldo
// y deriva el estado (ISSUED → PARTIALLY_PAID → PAID). Borradores y anuladas no reciben abonos.
func (uc *InvoiceUseCase) RecordPayment(ctx context.Context, companyID, invoiceID string, in dto.PaymentRequest) (*dto.PaymentResponse, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: el abono debe ser mayor que cero", domain.ErrInvalidInput)
	}
	date := uc.now()
	if in.Date != "" {
		d, err := time.Parse(time.DateOnly, in.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: fecha %q", domain.ErrInvalidInput, in.Date)
		}
		date = d
	}
	method := strings.ToUpper(in.Method)
	if method == "" {
		method = entity.PaymentMethodCash
	}

	var (
		out     *entity.Invoice
		payment *entity.Payment
	)
	err := uc.mutate(ctx, companyID, invoiceID, func(r Repos, inv *entity.Invoice) error {
		if inv.Status == entity.InvoiceStatusDraft || inv.Status == entity.InvoiceStatusVoid {
			return fmt.Errorf("%w: no se reciben abonos en estado %s", domain.ErrInvalidTransition, inv.Status)
		}
		payment = &entity.Payment{
			ID:         uuid.New().String(),
			CompanyID:  inv.CompanyID,
			InvoiceID:  inv.ID,
			CustomerID: inv.CustomerID,
			Date:       date,
			Amount:     money.Round2(in.Amount),
			Method:     method,
			Reference:  in.Reference,
			CreatedAt:  uc.now(),
		}
		if err := r.Payments.Create(ctx, payment); err != nil {
			return err
		}
		paid, err := r.Payments.SumByInvoice(ctx, inv.ID)
		if err != nil {
			return err
		}
		out = inv
		return uc.settle(ctx, r, inv, paid, inv.CreditsApplied)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("payment_id", payment.ID).
		Str("amount", payment.Amount.String()).
		Str("balance_remaining", out.BalanceRemaining.String()).
		Str("status", string(out.Status)).
		Msg("abono registrado")

	return &dto.PaymentResponse{
		ID:        payment.ID,
		InvoiceID: payment.InvoiceID,
		Date:      payment.Date.Format(time.DateOnly),
		Amount:    payment.Amount,
		Method:    payment.Method,
		Reference: payment.Reference,
		Invoice:   ToInvoiceResponse(out, nil),
	}, nil
}

// settle recalcula los saldos con pagos y créditos dados, escribe la cabecera y avanza el
// estado cuando corresponde. El estado nunca retrocede.
func (uc *InvoiceUseCase) settle(ctx context.Context, r Repos, inv *entity.Invoice, paid, credits decimal.Decimal) error {
	return settleInvoice(ctx, r, inv, paid, credits, uc.now())
}

func settleInvoice(ctx context.Context, r Repos, inv *entity.Invoice, paid, credits decimal.Decimal, now time.Time) error {
	pricing.TotalsOf(inv).WithPayments(paid, credits).ApplyTo(inv)
	inv.UpdatedAt = now
	if err := r.Invoices.UpdateTotals(ctx, inv); err != nil {
		return err
	}
	next := DeriveStatus(inv)
	if next != inv.Status && inv.Status.CanTransitionTo(next) {
		if err := r.Invoices.UpdateStatus(ctx, inv.ID, next); err != nil {
			return err
		}
		inv.Status = next
	}
	return nil
}

// DeriveStatus estado que corresponde a los saldos actuales de una factura ya emitida.
func DeriveStatus(inv *entity.Invoice) entity.InvoiceStatus {
	switch inv.Status {
	case entity.InvoiceStatusDraft, entity.InvoiceStatusVoid:
		return inv.Status
	}
	if !inv.BalanceRemaining.IsPositive() && inv.GrossTotal.IsPositive() {
		return entity.InvoiceStatusPaid
	}
	if inv.AmountPaid.Add(inv.CreditsApplied).IsPositive() {
		return entity.InvoiceStatusPartiallyPaid
	}
	return entity.InvoiceStatusIssued
}
