package billing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cartera-api/internal/application/billing"
	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
)

func (f *fixture) creditNote(id, linkedInvoiceID string) {
	f.store.creditNotes[id] = entity.CreditNote{
		ID: id, CompanyID: company, CustomerID: "cust-1", Number: "NC-" + id,
		LinkedInvoiceID: linkedInvoiceID,
		Date:            time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
		Status:          entity.CreditNoteStatusDraft,
	}
}

// 1000 + saldo anterior 200, abono 500, nota crédito 100 → saldo 600.
func TestCreditNote_EmitirYAnularMuevenCreditos(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.invoice("inv-1", entity.InvoiceStatusIssued, "0")
	inv := f.store.invoices["inv-1"]
	inv.PreviousBalance = dec("200")
	f.store.invoices["inv-1"] = inv
	f.line("inv-1", "l1", 1, "1", "1000", "0")
	_, err := f.invoices.Recompute(ctx, company, "inv-1", pricing.BaseRecompute)
	require.NoError(t, err)
	_, err = f.invoices.RecordPayment(ctx, company, "inv-1", dto.PaymentRequest{Amount: dec("500")})
	require.NoError(t, err)
	assertDec(t, "700.00", f.store.invoices["inv-1"].BalanceRemaining)

	f.creditNote("cn-1", "inv-1")
	cn, err := f.credits.AddLine(ctx, company, "cn-1", dto.LineRequest{ProductID: "p-soap", Quantity: dec("10")})
	require.NoError(t, err)
	assertDec(t, "0", cn.Lines[0].VATRate, "toma la tasa de la factura vinculada")
	assertDec(t, "100.00", cn.Total)

	f.locker.acquired = nil
	cn, err = f.credits.Issue(ctx, company, "cn-1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.CreditNoteStatusIssued), cn.Status)
	assert.Equal(t, []string{billing.CreditNoteLockKey("cn-1"), billing.InvoiceLockKey("inv-1")}, f.locker.acquired)

	stored := f.store.invoices["inv-1"]
	assertDec(t, "1200.00", stored.GrossTotal)
	assertDec(t, "500", stored.AmountPaid)
	assertDec(t, "100.00", stored.CreditsApplied)
	assertDec(t, "600.00", stored.BalanceRemaining)
	assert.Equal(t, entity.InvoiceStatusPartiallyPaid, stored.Status)

	_, err = f.credits.Issue(ctx, company, "cn-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	cn, err = f.credits.Void(ctx, company, "cn-1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.CreditNoteStatusVoid), cn.Status)
	stored = f.store.invoices["inv-1"]
	assertDec(t, "0", stored.CreditsApplied)
	assertDec(t, "700.00", stored.BalanceRemaining)
	assert.Equal(t, entity.InvoiceStatusPartiallyPaid, stored.Status, "el estado nunca retrocede")
	assert.Empty(t, f.locker.held)

	_, err = f.credits.Void(ctx, company, "cn-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCreditNote_EmitirSaldaLaFactura(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.invoice("inv-1", entity.InvoiceStatusIssued, "15")
	f.line("inv-1", "l1", 1, "2", "10", "15")
	_, err := f.invoices.Recompute(ctx, company, "inv-1", pricing.BaseRecompute)
	require.NoError(t, err)

	f.creditNote("cn-1", "inv-1")
	_, err = f.credits.AddLine(ctx, company, "cn-1", dto.LineRequest{ProductID: "p-soap", Quantity: dec("2")})
	require.NoError(t, err)
	_, err = f.credits.Issue(ctx, company, "cn-1")
	require.NoError(t, err)

	stored := f.store.invoices["inv-1"]
	assertDec(t, "23.00", stored.CreditsApplied)
	assertDec(t, "0", stored.BalanceRemaining)
	assert.Equal(t, entity.InvoiceStatusPaid, stored.Status)
}

func TestCreditNote_AnularRechazadaSiFacturaQuedaPagadaConSaldo(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.invoice("inv-1", entity.InvoiceStatusIssued, "15")
	f.line("inv-1", "l1", 1, "2", "10", "15")
	_, err := f.invoices.Recompute(ctx, company, "inv-1", pricing.BaseRecompute)
	require.NoError(t, err)
	f.creditNote("cn-1", "inv-1")
	_, err = f.credits.AddLine(ctx, company, "cn-1", dto.LineRequest{ProductID: "p-soap", Quantity: dec("2")})
	require.NoError(t, err)
	_, err = f.credits.Issue(ctx, company, "cn-1")
	require.NoError(t, err)
	require.Equal(t, entity.InvoiceStatusPaid, f.store.invoices["inv-1"].Status)

	_, err = f.credits.Void(ctx, company, "cn-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, entity.CreditNoteStatusIssued, f.store.creditNotes["cn-1"].Status)
	stored := f.store.invoices["inv-1"]
	assert.Equal(t, entity.InvoiceStatusPaid, stored.Status)
	assertDec(t, "23.00", stored.CreditsApplied)
	assertDec(t, "0", stored.BalanceRemaining)
	assert.Empty(t, f.locker.held)
}

// Con el pago completo la nota no es la que salda: anularla sí procede.
func TestCreditNote_AnularConFacturaPagadaPorAbonos(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.invoice("inv-1", entity.InvoiceStatusIssued, "15")
	f.line("inv-1", "l1", 1, "2", "10", "15")
	_, err := f.invoices.Recompute(ctx, company, "inv-1", pricing.BaseRecompute)
	require.NoError(t, err)
	f.creditNote("cn-1", "inv-1")
	_, err = f.credits.AddLine(ctx, company, "cn-1", dto.LineRequest{ProductID: "p-soap", Quantity: dec("1")})
	require.NoError(t, err)
	_, err = f.credits.Issue(ctx, company, "cn-1")
	require.NoError(t, err)
	_, err = f.invoices.RecordPayment(ctx, company, "inv-1", dto.PaymentRequest{Amount: dec("23")})
	require.NoError(t, err)
	require.Equal(t, entity.InvoiceStatusPaid, f.store.invoices["inv-1"].Status)

	_, err = f.credits.Void(ctx, company, "cn-1")
	require.NoError(t, err)
	stored := f.store.invoices["inv-1"]
	assertDec(t, "0", stored.CreditsApplied)
	assertDec(t, "0", stored.BalanceRemaining)
	assert.Equal(t, entity.InvoiceStatusPaid, stored.Status)
}

func TestCreditNote_SinFacturaUsaIVAPorDefecto(t *testing.T) {
	f := newFixture()
	f.creditNote("cn-1", "")

	cn, err := f.credits.AddLine(context.Background(), company, "cn-1", dto.LineRequest{ProductID: "p-soap", Quantity: dec("2")})
	require.NoError(t, err)
	assertDec(t, "19", cn.Lines[0].VATRate)
	assertDec(t, "23.80", cn.Lines[0].LineTotal)
	assertDec(t, "20.00", cn.Subtotal)
	assertDec(t, "3.80", cn.VATAmount)
	assertDec(t, "23.80", cn.Total)

	cn, err = f.credits.Issue(context.Background(), company, "cn-1")
	require.NoError(t, err)
	assert.Equal(t, string(entity.CreditNoteStatusIssued), cn.Status)
}

func TestCreditNote_Errores(t *testing.T) {
	ctx := context.Background()

	t.Run("sin líneas", func(t *testing.T) {
		f := newFixture()
		f.creditNote("cn-1", "")
		_, err := f.credits.Issue(ctx, company, "cn-1")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Equal(t, entity.CreditNoteStatusDraft, f.store.creditNotes["cn-1"].Status)
	})
	t.Run("factura vinculada anulada hace rollback", func(t *testing.T) {
		f := newFixture()
		f.invoice("inv-1", entity.InvoiceStatusVoid, "15")
		f.creditNote("cn-1", "inv-1")
		f.line("cn-1", "l1", 1, "1", "10", "15")
		_, err := f.credits.Issue(ctx, company, "cn-1")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		stored := f.store.creditNotes["cn-1"]
		assert.Equal(t, entity.CreditNoteStatusDraft, stored.Status)
		assert.True(t, stored.Total.IsZero())
	})
	t.Run("línea sobre nota emitida", func(t *testing.T) {
		f := newFixture()
		f.creditNote("cn-1", "")
		cn := f.store.creditNotes["cn-1"]
		cn.Status = entity.CreditNoteStatusIssued
		f.store.creditNotes["cn-1"] = cn
		_, err := f.credits.AddLine(ctx, company, "cn-1", dto.LineRequest{ProductID: "p-soap", Quantity: dec("1")})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
	t.Run("otra empresa", func(t *testing.T) {
		f := newFixture()
		f.creditNote("cn-1", "")
		_, err := f.credits.Issue(ctx, "co-2", "cn-1")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		assert.Empty(t, f.locker.acquired)
	})
	t.Run("inexistente", func(t *testing.T) {
		f := newFixture()
		_, err := f.credits.Void(ctx, company, "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestCreditNote_AnularBorradorNoTocaLaFactura(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.invoice("inv-1", entity.InvoiceStatusIssued, "15")
	inv := f.store.invoices["inv-1"]
	inv.CreditsApplied = dec("5")
	f.store.invoices["inv-1"] = inv
	f.creditNote("cn-1", "inv-1")

	_, err := f.credits.Void(ctx, company, "cn-1")
	require.NoError(t, err)
	assertDec(t, "5", f.store.invoices["inv-1"].CreditsApplied)
	assert.Equal(t, entity.CreditNoteStatusVoid, f.store.creditNotes["cn-1"].Status)
}
