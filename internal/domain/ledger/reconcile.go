package ledger

import (
	"time"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/shopspring/decimal"
)

// SyntheticPrefix prefijo de referencia de los abonos generados por la conciliación.
const SyntheticPrefix = "AUTO-"

// Reconciliation registro de calidad de datos: factura pagada sin abonos suficientes.
type Reconciliation struct {
	InvoiceID string
	Reference string
	Date      time.Time
	Total     decimal.Decimal
	Matched   decimal.Decimal
	Shortfall decimal.Decimal
}

// ReconcilePaidInvoices genera un abono sintético por cada factura PAID cuyos abonos
// registrados, más las notas crédito emitidas vinculadas a ella, suman menos que su total. El abono va por el faltante y lleva la fecha de
// la factura, que es la única fecha conocida.
//
// Es una heurística de compatibilidad, no una regla de negocio verificada: evita que una
// factura pagada aparezca como pendiente para siempre cuando faltan filas de pago.
func ReconcilePaidInvoices(invoices []entity.Invoice, payments []entity.Payment, creditNotes []entity.CreditNote) ([]Event, []Reconciliation) {
	matched := make(map[string]decimal.Decimal, len(invoices))
	for i := range payments {
		id := payments[i].InvoiceID
		matched[id] = matched[id].Add(payments[i].Amount)
	}
	// una nota crédito emitida ya aparece como crédito en el extracto
	for i := range creditNotes {
		cn := &creditNotes[i]
		if !cn.Counts() || cn.LinkedInvoiceID == "" {
			continue
		}
		matched[cn.LinkedInvoiceID] = matched[cn.LinkedInvoiceID].Add(cn.Total)
	}

	var (
		events []Event
		recs   []Reconciliation
	)
	for i := range invoices {
		inv := &invoices[i]
		if inv.Status != entity.InvoiceStatusPaid {
			continue
		}
		got := matched[inv.ID]
		if !got.LessThan(inv.Total) {
			continue
		}
		shortfall := money.Round2(inv.Total.Sub(got))
		if !shortfall.IsPositive() {
			continue
		}
		ref := SyntheticPrefix + inv.Reference()
		events = append(events, Event{
			Date:       Day(inv.Date),
			Kind:       KindPayment,
			Reference:  ref,
			DocumentID: inv.ID,
			InvoiceID:  inv.ID,
			Amount:     shortfall.Neg(),
			Synthetic:  true,
		})
		recs = append(recs, Reconciliation{
			InvoiceID: inv.ID,
			Reference: inv.Reference(),
			Date:      Day(inv.Date),
			Total:     inv.Total,
			Matched:   got,
			Shortfall: shortfall,
		})
	}
	return events, recs
}
