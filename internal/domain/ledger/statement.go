// Package ledger construye estados de cuenta de cliente a partir del historial crudo
// de facturas, abonos y notas crédito.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/shopspring/decimal"
)

// Kind tipo de movimiento del estado de cuenta.
type Kind string

const (
	KindOpening    Kind = "OPENING"
	KindInvoice    Kind = "INVOICE"
	KindCreditNote Kind = "CREDIT_NOTE"
	KindPayment    Kind = "PAYMENT"
)

// Rank orden de desempate dentro de un mismo día: INVOICE < CREDIT_NOTE < PAYMENT.
func (k Kind) Rank() int {
	switch k {
	case KindOpening:
		return 0
	case KindInvoice:
		return 1
	case KindCreditNote:
		return 2
	case KindPayment:
		return 3
	}
	return 4
}

// Event movimiento con signo: facturas suman, abonos y notas crédito restan.
type Event struct {
	Date       time.Time
	Kind       Kind
	Reference  string
	DocumentID string
	InvoiceID  string // factura afectada (abonos, notas con factura vinculada)
	Amount     decimal.Decimal
	Synthetic  bool // abono generado por la conciliación
}

// Line renglón del estado de cuenta con el saldo acumulado después del movimiento.
type Line struct {
	Event
	Balance decimal.Decimal
}

// History historial completo del cliente hasta la fecha de corte.
type History struct {
	Invoices    []entity.Invoice
	Payments    []entity.Payment
	CreditNotes []entity.CreditNote
}

// Statement estado de cuenta de un cliente en la ventana [From, To].
type Statement struct {
	CustomerID      string
	From            time.Time
	To              time.Time
	OpeningBalance  decimal.Decimal
	ClosingBalance  decimal.Decimal
	Lines           []Line
	Reconciliations []Reconciliation
}

// Day trunca t al día calendario UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidateRange rechaza ventanas con from posterior a to (comparando días).
func ValidateRange(from, to time.Time) error {
	if Day(from).After(Day(to)) {
		return fmt.Errorf("%w: %s > %s", domain.ErrInvalidDateRange, from.Format(time.DateOnly), to.Format(time.DateOnly))
	}
	return nil
}

// Build arma el estado de cuenta.
//
// El saldo inicial se calcula con los movimientos anteriores a from, por eso h debe
// traer el historial completo del cliente y no solo la ventana. El primer renglón es
// OPENING, fechado en from, con el saldo inicial como monto y como saldo.
func Build(customerID string, from, to time.Time, h History) (Statement, error) {
	if err := ValidateRange(from, to); err != nil {
		return Statement{}, err
	}
	from, to = Day(from), Day(to)

	events, recs := Events(h, to)
	SortEvents(events)

	st := Statement{
		CustomerID:      customerID,
		From:            from,
		To:              to,
		Reconciliations: recs,
	}

	running := decimal.Zero
	var window []Line
	for _, ev := range events {
		running = running.Add(ev.Amount)
		if ev.Date.Before(from) {
			st.OpeningBalance = running
			continue
		}
		window = append(window, Line{Event: ev, Balance: running})
	}
	st.OpeningBalance = money.Round2(st.OpeningBalance)
	st.ClosingBalance = money.Round2(running)

	st.Lines = make([]Line, 0, len(window)+1)
	st.Lines = append(st.Lines, Line{
		Event:   Event{Date: from, Kind: KindOpening, Reference: "OPENING", Amount: st.OpeningBalance},
		Balance: st.OpeningBalance,
	})
	st.Lines = append(st.Lines, window...)
	return st, nil
}

// Events convierte el historial en movimientos con signo, incluida la conciliación.
// Borradores y anulados no generan movimientos; lo posterior a to se descarta.
func Events(h History, to time.Time) ([]Event, []Reconciliation) {
	to = Day(to)
	events := make([]Event, 0, len(h.Invoices)+len(h.Payments)+len(h.CreditNotes))

	for i := range h.Invoices {
		inv := &h.Invoices[i]
		if !inv.Counts() {
			continue
		}
		events = append(events, Event{
			Date:       Day(inv.Date),
			Kind:       KindInvoice,
			Reference:  inv.Reference(),
			DocumentID: inv.ID,
			InvoiceID:  inv.ID,
			Amount:     inv.Total,
		})
	}
	for i := range h.CreditNotes {
		cn := &h.CreditNotes[i]
		if !cn.Counts() {
			continue
		}
		events = append(events, Event{
			Date:       Day(cn.Date),
			Kind:       KindCreditNote,
			Reference:  cn.Reference(),
			DocumentID: cn.ID,
			InvoiceID:  cn.LinkedInvoiceID,
			Amount:     cn.Total.Neg(),
		})
	}
	for i := range h.Payments {
		p := &h.Payments[i]
		events = append(events, Event{
			Date:       Day(p.Date),
			Kind:       KindPayment,
			Reference:  p.Ref(),
			DocumentID: p.ID,
			InvoiceID:  p.InvoiceID,
			Amount:     p.Amount.Neg(),
		})
	}

	synthetic, recs := ReconcilePaidInvoices(h.Invoices, h.Payments, h.CreditNotes)
	events = append(events, synthetic...)

	kept := events[:0]
	for _, ev := range events {
		if !ev.Date.After(to) {
			kept = append(kept, ev)
		}
	}
	return kept, recs
}

// SortEvents ordena por (fecha, rango de tipo, referencia). Es estable.
func SortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.Kind.Rank() != b.Kind.Rank() {
			return a.Kind.Rank() < b.Kind.Rank()
		}
		return a.Reference < b.Reference
	})
}
