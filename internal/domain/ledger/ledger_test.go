package ledger_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/ledger"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func invoice(id, number, date, total string, status entity.InvoiceStatus) entity.Invoice {
	return entity.Invoice{ID: id, CustomerID: "c1", Number: number, Date: day(date), Total: dec(total), Status: status}
}

func payment(id, invoiceID, date, amount string) entity.Payment {
	return entity.Payment{ID: id, InvoiceID: invoiceID, CustomerID: "c1", Date: day(date), Amount: dec(amount), Reference: id}
}

// ── Conciliación ─────────────────────────────────────────────────────────────

func TestStatement_FacturaPagadaSinAbonos(t *testing.T) {
	h := ledger.History{
		Invoices: []entity.Invoice{invoice("inv-a", "A", "2024-01-05", "500", entity.InvoiceStatusPaid)},
	}
	st, err := ledger.Build("c1", day("2024-01-01"), day("2024-01-31"), h)
	require.NoError(t, err)

	require.Len(t, st.Lines, 3)
	assert.Equal(t, ledger.KindOpening, st.Lines[0].Kind)
	assert.Equal(t, ledger.KindInvoice, st.Lines[1].Kind)
	assert.True(t, st.Lines[1].Balance.Equal(dec("500")))

	pay := st.Lines[2]
	assert.Equal(t, ledger.KindPayment, pay.Kind)
	assert.True(t, pay.Synthetic)
	assert.Equal(t, "AUTO-A", pay.Reference)
	assert.Equal(t, day("2024-01-05"), pay.Date)
	assert.True(t, pay.Amount.Equal(dec("-500")))
	assert.True(t, pay.Balance.IsZero(), "el saldo después del abono sintético debe ser 0")
	assert.True(t, st.ClosingBalance.IsZero())

	require.Len(t, st.Reconciliations, 1)
	assert.True(t, st.Reconciliations[0].Shortfall.Equal(dec("500")))
}

func TestReconcile_SoloElFaltante(t *testing.T) {
	invs := []entity.Invoice{invoice("inv-a", "A", "2024-01-05", "500", entity.InvoiceStatusPaid)}
	pays := []entity.Payment{payment("p1", "inv-a", "2024-01-20", "320.50")}

	events, recs := ledger.ReconcilePaidInvoices(invs, pays, nil)
	require.Len(t, events, 1)
	assert.True(t, events[0].Amount.Equal(dec("-179.50")))
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Matched.Equal(dec("320.50")))
}

func TestReconcile_NoAplicaANoPagadasNiCompletas(t *testing.T) {
	invs := []entity.Invoice{
		invoice("inv-a", "A", "2024-01-05", "500", entity.InvoiceStatusPaid),
		invoice("inv-b", "B", "2024-01-06", "300", entity.InvoiceStatusPartiallyPaid),
		invoice("inv-c", "C", "2024-01-07", "100", entity.InvoiceStatusIssued),
	}
	pays := []entity.Payment{
		payment("p1", "inv-a", "2024-01-10", "500"),
		payment("p2", "inv-b", "2024-01-10", "100"),
	}
	events, recs := ledger.ReconcilePaidInvoices(invs, pays, nil)
	assert.Empty(t, events)
	assert.Empty(t, recs)
}

func TestReconcile_NotaCreditoVinculadaCuentaComoAbono(t *testing.T) {
	invs := []entity.Invoice{invoice("inv-a", "A", "2024-01-05", "1000", entity.InvoiceStatusPaid)}
	pays := []entity.Payment{payment("p1", "inv-a", "2024-01-10", "800")}
	notes := []entity.CreditNote{
		{ID: "n1", Number: "NC-1", CustomerID: "c1", LinkedInvoiceID: "inv-a", Date: day("2024-01-12"), Total: dec("200"), Status: entity.CreditNoteStatusIssued},
		{ID: "n2", Number: "NC-2", CustomerID: "c1", LinkedInvoiceID: "inv-a", Date: day("2024-01-13"), Total: dec("150"), Status: entity.CreditNoteStatusVoid},
	}

	events, recs := ledger.ReconcilePaidInvoices(invs, pays, notes)
	assert.Empty(t, events)
	assert.Empty(t, recs)

	// sin la nota emitida sí falta
	events, recs = ledger.ReconcilePaidInvoices(invs, pays, notes[1:])
	require.Len(t, events, 1)
	assert.True(t, events[0].Amount.Equal(dec("-200")))
	require.Len(t, recs, 1)
}

func TestStatement_FacturaSaldadaConNotaCredito(t *testing.T) {
	h := ledger.History{
		Invoices: []entity.Invoice{invoice("inv-a", "A", "2024-01-05", "1000", entity.InvoiceStatusPaid)},
		Payments: []entity.Payment{payment("p1", "inv-a", "2024-01-10", "800")},
		CreditNotes: []entity.CreditNote{
			{ID: "n1", Number: "NC-1", CustomerID: "c1", LinkedInvoiceID: "inv-a", Date: day("2024-01-12"), Total: dec("200"), Status: entity.CreditNoteStatusIssued},
		},
	}
	st, err := ledger.Build("c1", day("2024-01-01"), day("2024-01-31"), h)
	require.NoError(t, err)

	assert.True(t, st.ClosingBalance.IsZero(), "cierre %s", st.ClosingBalance)
	assert.Empty(t, st.Reconciliations)
	for _, l := range st.Lines {
		assert.False(t, l.Synthetic, "no debe haber abono sintético: %s", l.Reference)
	}
}

// ── Orden y ventana ──────────────────────────────────────────────────────────

func TestStatement_OrdenDeDesempate(t *testing.T) {
	h := ledger.History{
		Invoices: []entity.Invoice{
			invoice("i2", "F-002", "2024-02-01", "100", entity.InvoiceStatusIssued),
			invoice("i1", "F-001", "2024-02-01", "200", entity.InvoiceStatusIssued),
		},
		Payments: []entity.Payment{payment("R-1", "i1", "2024-02-01", "50")},
		CreditNotes: []entity.CreditNote{
			{ID: "n1", Number: "NC-1", CustomerID: "c1", Date: day("2024-02-01"), Total: dec("30"), Status: entity.CreditNoteStatusIssued},
		},
	}
	st, err := ledger.Build("c1", day("2024-02-01"), day("2024-02-01"), h)
	require.NoError(t, err)

	var refs []string
	for _, l := range st.Lines[1:] {
		refs = append(refs, l.Reference)
	}
	assert.Equal(t, []string{"F-001", "F-002", "NC-1", "R-1"}, refs)
	assert.True(t, st.ClosingBalance.Equal(dec("220")))
}

func TestStatement_SaldoInicialConHistoriaPrevia(t *testing.T) {
	h := ledger.History{
		Invoices: []entity.Invoice{
			invoice("i1", "F-001", "2023-12-10", "1000", entity.InvoiceStatusPartiallyPaid),
			invoice("i2", "F-002", "2024-01-15", "400", entity.InvoiceStatusIssued),
			invoice("i3", "F-003", "2024-03-01", "999", entity.InvoiceStatusIssued),
		},
		Payments: []entity.Payment{
			payment("p1", "i1", "2023-12-20", "600"),
			payment("p2", "i1", "2024-01-20", "100"),
		},
	}
	st, err := ledger.Build("c1", day("2024-01-01"), day("2024-01-31"), h)
	require.NoError(t, err)

	assert.True(t, st.OpeningBalance.Equal(dec("400")))
	require.Len(t, st.Lines, 3, "OPENING + F-002 + p2; F-003 queda fuera de la ventana")
	assert.True(t, st.Lines[0].Balance.Equal(dec("400")))
	assert.True(t, st.Lines[1].Balance.Equal(dec("800")))
	assert.True(t, st.Lines[2].Balance.Equal(dec("700")))
	assert.True(t, st.ClosingBalance.Equal(dec("700")))
}

func TestStatement_ExcluyeBorradoresYAnulados(t *testing.T) {
	h := ledger.History{
		Invoices: []entity.Invoice{
			invoice("i1", "F-001", "2024-01-02", "100", entity.InvoiceStatusDraft),
			invoice("i2", "F-002", "2024-01-03", "200", entity.InvoiceStatusVoid),
			invoice("i3", "F-003", "2024-01-04", "300", entity.InvoiceStatusIssued),
		},
		CreditNotes: []entity.CreditNote{
			{ID: "n1", CustomerID: "c1", Date: day("2024-01-05"), Total: dec("50"), Status: entity.CreditNoteStatusDraft},
			{ID: "n2", CustomerID: "c1", Date: day("2024-01-05"), Total: dec("60"), Status: entity.CreditNoteStatusVoid},
		},
	}
	st, err := ledger.Build("c1", day("2024-01-01"), day("2024-01-31"), h)
	require.NoError(t, err)
	require.Len(t, st.Lines, 2)
	assert.Equal(t, "F-003", st.Lines[1].Reference)
	assert.True(t, st.ClosingBalance.Equal(dec("300")))
}

func TestStatement_RangoInvalido(t *testing.T) {
	_, err := ledger.Build("c1", day("2024-02-01"), day("2024-01-01"), ledger.History{})
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestStatement_MismoDiaConHoraEsValido(t *testing.T) {
	from := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	st, err := ledger.Build("c1", from, to, ledger.History{})
	require.NoError(t, err)
	require.Len(t, st.Lines, 1)
	assert.True(t, st.ClosingBalance.IsZero())
}

// El cierre siempre es el saldo inicial más la suma de los movimientos de la ventana.
func TestStatement_CierreIgualAperturaMasVentana(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	start := day("2024-01-01")
	statuses := []entity.InvoiceStatus{
		entity.InvoiceStatusIssued, entity.InvoiceStatusPartiallyPaid, entity.InvoiceStatusPaid,
		entity.InvoiceStatusDraft, entity.InvoiceStatusVoid,
	}

	for run := 0; run < 100; run++ {
		var h ledger.History
		for i := 0; i < 1+r.Intn(15); i++ {
			id := "i" + string(rune('a'+i))
			h.Invoices = append(h.Invoices, entity.Invoice{
				ID: id, Number: id, Date: start.AddDate(0, 0, r.Intn(120)),
				Total: decimal.New(1+r.Int63n(100_000), -2), Status: statuses[r.Intn(len(statuses))],
			})
			for j := 0; j < r.Intn(3); j++ {
				h.Payments = append(h.Payments, entity.Payment{
					ID: id + "-p" + string(rune('0'+j)), InvoiceID: id, Date: start.AddDate(0, 0, r.Intn(120)),
					Amount: decimal.New(1+r.Int63n(30_000), -2),
				})
			}
		}
		from := start.AddDate(0, 0, r.Intn(60))
		to := from.AddDate(0, 0, r.Intn(60))

		st, err := ledger.Build("c1", from, to, h)
		require.NoError(t, err)

		sum := st.OpeningBalance
		for _, l := range st.Lines[1:] {
			sum = sum.Add(l.Amount)
			assert.False(t, l.Date.Before(st.From))
			assert.False(t, l.Date.After(st.To))
		}
		assert.True(t, sum.Equal(st.ClosingBalance), "apertura %s + ventana != cierre %s", st.OpeningBalance, st.ClosingBalance)
	}
}

func TestSortEvents_Estable(t *testing.T) {
	d := day("2024-01-01")
	events := []ledger.Event{
		{Date: d, Kind: ledger.KindPayment, Reference: "X", DocumentID: "first"},
		{Date: d, Kind: ledger.KindPayment, Reference: "X", DocumentID: "second"},
		{Date: d, Kind: ledger.KindInvoice, Reference: "Z"},
	}
	ledger.SortEvents(events)
	assert.Equal(t, ledger.KindInvoice, events[0].Kind)
	assert.Equal(t, "first", events[1].DocumentID)
	assert.Equal(t, "second", events[2].DocumentID)
}
