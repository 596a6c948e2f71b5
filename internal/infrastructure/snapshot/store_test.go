package snapshot_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Cartera-api/internal/application/billing"
	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
	"github.com/jhoicas/Cartera-api/internal/infrastructure/lock"
	"github.com/jhoicas/Cartera-api/internal/infrastructure/snapshot"
)

const fixture = `{
  "customers": [{"id": "cli-1", "company_id": "co-1", "name": "Agropecuaria El Llano"}],
  "products": [{"id": "p-1", "company_id": "co-1", "name": "Concentrado", "selling_price": "100", "units_per_box": "0", "kg_per_bag": "25"}],
  "invoices": [
    {"id": "fv-2", "company_id": "co-1", "customer_id": "cli-1", "number": "FV-2", "date": "2024-02-10", "status": "ISSUED",
     "vat_percent": "15", "discount_percent": "0",
     "subtotal_before_discount": "0", "subtotal": "0", "vat_amount": "0", "discount_amount": "0", "total": "0",
     "previous_balance": "0", "gross_total": "0", "amount_paid": "0", "credits_applied": "0", "balance_remaining": "0",
     "lines": [
       {"id": "l-2", "product_id": "p-1", "unit": "pcs", "entered_quantity": "1", "factor": "1", "quantity": "1",
        "unit_price_excl_vat": "50", "vat_rate": "15", "unit_vat": "0", "unit_price_incl_vat": "0", "line_total": "0", "position": 2},
       {"id": "l-1", "product_id": "p-1", "unit": "pcs", "entered_quantity": "2", "factor": "1", "quantity": "2",
        "unit_price_excl_vat": "100", "vat_rate": "15", "unit_vat": "0", "unit_price_incl_vat": "0", "line_total": "0", "position": 1}
     ]},
    {"id": "fv-1", "company_id": "co-1", "customer_id": "cli-1", "number": "FV-1", "date": "2024-01-05", "status": "PAID",
     "vat_percent": "15", "discount_percent": "0",
     "subtotal_before_discount": "100", "subtotal": "100", "vat_amount": "15", "discount_amount": "0", "total": "115",
     "previous_balance": "0", "gross_total": "115", "amount_paid": "115", "credits_applied": "0", "balance_remaining": "0",
     "lines": []}
  ],
  "credit_notes": [
    {"id": "nc-1", "company_id": "co-1", "customer_id": "cli-1", "number": "NC-1", "date": "2024-02-12",
     "subtotal": "10", "vat_amount": "1.5", "total": "11.5", "lines": []}
  ],
  "payments": [
    {"id": "ab-1", "company_id": "co-1", "invoice_id": "fv-1", "customer_id": "cli-1", "date": "2024-01-20", "amount": "115", "method": "CASH"}
  ]
}`

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func load(t *testing.T) *snapshot.Store {
	t.Helper()
	s, err := snapshot.Load(strings.NewReader(fixture))
	require.NoError(t, err)
	return s
}

func TestLoad_CampoDesconocido(t *testing.T) {
	_, err := snapshot.Load(strings.NewReader(`{"customers": [], "extra": 1}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_EstadoInvalido(t *testing.T) {
	_, err := snapshot.Load(strings.NewReader(`{"invoices": [{"id": "x", "date": "2024-01-01", "status": "PENDING"}]}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLoad_FechaInvalida(t *testing.T) {
	_, err := snapshot.Load(strings.NewReader(`{"payments": [{"id": "x", "date": "05/01/2024"}]}`))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRepos_LecturasOrdenadas(t *testing.T) {
	s := load(t)
	r := s.Repos()
	ctx := context.Background()

	invs, err := r.Invoices.ListByCustomerUntil(ctx, "cli-1", time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, invs, 2)
	assert.Equal(t, "fv-1", invs[0].ID)
	assert.Equal(t, "fv-2", invs[1].ID)

	invs, err = r.Invoices.ListByCustomerUntil(ctx, "cli-1", time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, invs, 1)

	lines, err := r.Invoices.ListLines(ctx, "fv-2")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "l-1", lines[0].ID)
	assert.Equal(t, entity.UnitPcs, lines[0].Unit)

	cn, err := r.CreditNotes.GetByID(ctx, "nc-1")
	require.NoError(t, err)
	require.NotNil(t, cn)
	assert.Equal(t, entity.CreditNoteStatusIssued, cn.Status)

	sum, err := r.Payments.SumByInvoice(ctx, "fv-1")
	require.NoError(t, err)
	assert.True(t, dec("115").Equal(sum))

	missing, err := r.Customers.GetByID(ctx, "no-existe")
	require.NoError(t, err)
	assert.Nil(t, missing)

	assert.Equal(t, []string{"cli-1"}, s.CustomerIDs("co-1"))
	assert.Empty(t, s.CustomerIDs("co-2"))
}

func TestRunBilling_RestauraAnteError(t *testing.T) {
	s := load(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunBilling(ctx, func(r billing.Repos) error {
		require.NoError(t, r.Invoices.UpdateStatus(ctx, "fv-2", entity.InvoiceStatusVoid))
		require.NoError(t, r.Payments.Create(ctx, &entity.Payment{InvoiceID: "fv-2", CustomerID: "cli-1", Amount: dec("10")}))
		require.NoError(t, r.Invoices.DeleteLine(ctx, "fv-2", "l-1"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	r := s.Repos()
	inv, err := r.Invoices.GetByID(ctx, "fv-2")
	require.NoError(t, err)
	assert.Equal(t, entity.InvoiceStatusIssued, inv.Status)
	sum, err := r.Payments.SumByInvoice(ctx, "fv-2")
	require.NoError(t, err)
	assert.True(t, sum.IsZero())
	lines, err := r.Invoices.ListLines(ctx, "fv-2")
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestRecompute_SobreSnapshotYGuardado(t *testing.T) {
	s := load(t)
	repos := s.Repos()
	uc := billing.NewInvoiceUseCase(s, lock.NewLocalLocker(), repos.Invoices,
		pricing.NewLinePricer(pricing.NewUnitConverter(dec("25"))), nil)

	out, err := uc.Recompute(context.Background(), "co-1", "fv-2", pricing.BaseRecompute)
	require.NoError(t, err)
	assert.True(t, dec("250").Equal(out.Subtotal), out.Subtotal.String())
	assert.True(t, dec("37.5").Equal(out.VATAmount), out.VATAmount.String())
	assert.True(t, dec("287.5").Equal(out.Total), out.Total.String())

	var buf bytes.Buffer
	require.NoError(t, s.Save(&buf))

	again, err := snapshot.Load(&buf)
	require.NoError(t, err)
	inv, err := again.Repos().Invoices.GetByID(context.Background(), "fv-2")
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.True(t, dec("287.5").Equal(inv.BalanceRemaining), inv.BalanceRemaining.String())

	lines, err := again.Repos().Invoices.ListLines(context.Background(), "fv-2")
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.True(t, dec("230").Equal(lines[0].LineTotal), lines[0].LineTotal.String())
	assert.Equal(t, 1, lines[0].Position)
}

func TestRecompute_EmpresaAjena(t *testing.T) {
	s := load(t)
	uc := billing.NewInvoiceUseCase(s, lock.NewLocalLocker(), s.Repos().Invoices,
		pricing.NewLinePricer(pricing.NewUnitConverter(dec("25"))), nil)

	_, err := uc.Recompute(context.Background(), "co-2", "fv-2", pricing.BaseRecompute)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// Líneas y descuento sobre la misma factura en paralelo terminan igual que aplicados en serie.
func TestRunBilling_EdicionesConcurrentesSeSerializan(t *testing.T) {
	ctx := context.Background()
	newUC := func(s *snapshot.Store) *billing.InvoiceUseCase {
		return billing.NewInvoiceUseCase(s, lock.NewLocalLocker(), s.Repos().Invoices,
			pricing.NewLinePricer(pricing.NewUnitConverter(dec("25"))), nil)
	}
	req := dto.LineRequest{ProductID: "p-1", Unit: "pcs", Quantity: dec("1")}
	const adds = 4

	serial := load(t)
	uc := newUC(serial)
	for i := 0; i < adds; i++ {
		_, err := uc.AddLine(ctx, "co-1", "fv-2", req)
		require.NoError(t, err)
	}
	_, err := uc.ApplyDiscount(ctx, "co-1", "fv-2", dec("10"), true)
	require.NoError(t, err)
	want, err := serial.Repos().Invoices.GetByID(ctx, "fv-2")
	require.NoError(t, err)

	parallel := load(t)
	uc = newUC(parallel)
	var g errgroup.Group
	for i := 0; i < adds; i++ {
		g.Go(func() error {
			_, err := uc.AddLine(ctx, "co-1", "fv-2", req)
			return err
		})
	}
	g.Go(func() error {
		_, err := uc.ApplyDiscount(ctx, "co-1", "fv-2", dec("10"), true)
		return err
	})
	require.NoError(t, g.Wait())

	got, err := parallel.Repos().Invoices.GetByID(ctx, "fv-2")
	require.NoError(t, err)
	for name, pair := range map[string][2]decimal.Decimal{
		"subtotal_before_discount": {want.SubtotalBeforeDiscount, got.SubtotalBeforeDiscount},
		"discount_amount":          {want.DiscountAmount, got.DiscountAmount},
		"subtotal":                 {want.Subtotal, got.Subtotal},
		"vat_amount":               {want.VATAmount, got.VATAmount},
		"total":                    {want.Total, got.Total},
		"balance_remaining":        {want.BalanceRemaining, got.BalanceRemaining},
	} {
		assert.True(t, pair[0].Equal(pair[1]), "%s: serie %s, paralelo %s", name, pair[0], pair[1])
	}
	assert.True(t, dec("650").Equal(got.SubtotalBeforeDiscount), got.SubtotalBeforeDiscount.String())

	lines, err := parallel.Repos().Invoices.ListLines(ctx, "fv-2")
	require.NoError(t, err)
	require.Len(t, lines, 2+adds)
	seen := map[int]bool{}
	for _, l := range lines {
		assert.False(t, seen[l.Position], "posición repetida %d", l.Position)
		seen[l.Position] = true
	}
}
