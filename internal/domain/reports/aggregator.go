// Package reports agrega ventas netas por período y por dimensión (producto, vendedor, cliente).
//
// Todo reporte es neto: facturas menos notas crédito sobre la misma clave. Los abonos se
// asignan a la fecha de la factura que cancelan (causación), no a su propia fecha.
package reports

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/shopspring/decimal"
)

// Granularity tamaño del período de agregación.
type Granularity string

const (
	Daily   Granularity = "day"
	Monthly Granularity = "month"
)

// ParseGranularity acepta day/daily y month/monthly. Vacío equivale a day.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "day", "daily":
		return Daily, nil
	case "month", "monthly":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: granularidad %q", domain.ErrInvalidInput, s)
}

// Key clave del período: YYYY-MM-DD o YYYY-MM, sobre el día calendario UTC.
func (g Granularity) Key(t time.Time) string {
	if g == Monthly {
		return t.UTC().Format("2006-01")
	}
	return t.UTC().Format(time.DateOnly)
}

// Input documentos del período con sus líneas y todos los abonos de esas facturas.
type Input struct {
	Invoices        []entity.Invoice
	InvoiceLines    map[string][]entity.LineItem // por invoice id
	CreditNotes     []entity.CreditNote
	CreditNoteLines map[string][]entity.LineItem // por credit note id
	Payments        []entity.Payment
	// LinkedInvoices facturas fuera del período referenciadas por notas crédito;
	// solo se usan para heredar el vendedor, no suman.
	LinkedInvoices  []entity.Invoice
}

// PeriodBucket totales netos de un período.
type PeriodBucket struct {
	Key              string
	InvoiceCount     int
	CreditNoteCount  int
	CustomerCount    int
	Quantity         decimal.Decimal
	Subtotal         decimal.Decimal
	VATAmount        decimal.Decimal
	DiscountAmount   decimal.Decimal
	Total            decimal.Decimal
	Collected        decimal.Decimal
	NetAfterPayments decimal.Decimal
}

// Dimension eje de un reporte por dimensión.
type Dimension string

const (
	DimensionProduct  Dimension = "product"
	DimensionSalesRep Dimension = "sales_rep"
	DimensionCustomer Dimension = "customer"
)

// Rollup totales netos de una dimensión dentro de un período.
type Rollup struct {
	Key              string
	Dimension        Dimension
	DimensionID      string
	Quantity         decimal.Decimal
	Subtotal         decimal.Decimal
	VATAmount        decimal.Decimal
	Total            decimal.Decimal
	Collected        decimal.Decimal
	NetAfterPayments decimal.Decimal
	DocumentCount    int
}

// Aggregator calcula reportes netos con una granularidad fija.
type Aggregator struct {
	granularity Granularity
}

// NewAggregator construye el agregador. Una granularidad desconocida usa day.
func NewAggregator(g Granularity) *Aggregator {
	if g != Monthly {
		g = Daily
	}
	return &Aggregator{granularity: g}
}

// Granularity devuelve la granularidad configurada.
func (a *Aggregator) Granularity() Granularity { return a.granularity }

// Periods devuelve un bucket por período con movimiento, ordenado por clave.
func (a *Aggregator) Periods(in Input) []PeriodBucket {
	buckets := make(map[string]*PeriodBucket)
	customers := make(map[string]map[string]struct{})
	get := func(key string) *PeriodBucket {
		b, ok := buckets[key]
		if !ok {
			b = &PeriodBucket{Key: key}
			buckets[key] = b
			customers[key] = make(map[string]struct{})
		}
		return b
	}

	counted := countedInvoices(in.Invoices)
	for _, inv := range counted {
		key := a.granularity.Key(inv.Date)
		b := get(key)
		b.InvoiceCount++
		b.Subtotal = b.Subtotal.Add(inv.Subtotal)
		b.VATAmount = b.VATAmount.Add(inv.VATAmount)
		b.DiscountAmount = b.DiscountAmount.Add(inv.DiscountAmount)
		b.Total = b.Total.Add(inv.Total)
		b.Quantity = b.Quantity.Add(sumQuantity(in.InvoiceLines[inv.ID]))
		customers[key][inv.CustomerID] = struct{}{}
	}
	for i := range in.CreditNotes {
		cn := &in.CreditNotes[i]
		if !cn.Counts() {
			continue
		}
		key := a.granularity.Key(cn.Date)
		b := get(key)
		b.CreditNoteCount++
		b.Subtotal = b.Subtotal.Sub(cn.Subtotal)
		b.VATAmount = b.VATAmount.Sub(cn.VATAmount)
		b.Total = b.Total.Sub(cn.Total)
		b.Quantity = b.Quantity.Sub(sumQuantity(in.CreditNoteLines[cn.ID]))
		customers[key][cn.CustomerID] = struct{}{}
	}
	for i := range in.Payments {
		inv, ok := counted[in.Payments[i].InvoiceID]
		if !ok {
			continue
		}
		b := get(a.granularity.Key(inv.Date))
		b.Collected = b.Collected.Add(in.Payments[i].Amount)
	}

	out := make([]PeriodBucket, 0, len(buckets))
	for key, b := range buckets {
		b.CustomerCount = len(customers[key])
		b.Quantity = money.Round3(b.Quantity)
		b.Subtotal = money.Round2(b.Subtotal)
		b.VATAmount = money.Round2(b.VATAmount)
		b.DiscountAmount = money.Round2(b.DiscountAmount)
		b.Total = money.Round2(b.Total)
		b.Collected = money.Round2(b.Collected)
		b.NetAfterPayments = money.Round2(b.Total.Sub(b.Collected))
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ByProduct suma líneas de factura y resta líneas de nota crédito por producto.
func (a *Aggregator) ByProduct(in Input) []Rollup {
	acc := newAccumulator(a.granularity, DimensionProduct)
	counted := countedInvoices(in.Invoices)
	for _, inv := range counted {
		for _, l := range in.InvoiceLines[inv.ID] {
			acc.addLine(inv.Date, l.ProductID, l, false)
		}
	}
	for i := range in.CreditNotes {
		cn := &in.CreditNotes[i]
		if !cn.Counts() {
			continue
		}
		for _, l := range in.CreditNoteLines[cn.ID] {
			acc.addLine(cn.Date, l.ProductID, l, true)
		}
	}
	return acc.rows()
}

// BySalesRep agrega por vendedor. Una nota crédito sin vendedor hereda el de su factura vinculada.
func (a *Aggregator) BySalesRep(in Input) []Rollup {
	return a.byDocument(in, DimensionSalesRep, func(inv *entity.Invoice) string { return inv.SalesRepID },
		func(cn *entity.CreditNote, linked *entity.Invoice) string {
			if cn.SalesRepID == "" && linked != nil {
				return linked.SalesRepID
			}
			return cn.SalesRepID
		})
}

// ByCustomer agrega por cliente.
func (a *Aggregator) ByCustomer(in Input) []Rollup {
	return a.byDocument(in, DimensionCustomer, func(inv *entity.Invoice) string { return inv.CustomerID },
		func(cn *entity.CreditNote, _ *entity.Invoice) string { return cn.CustomerID })
}

// Dimension despacha al reporte de la dimensión indicada.
func (a *Aggregator) Dimension(d Dimension, in Input) ([]Rollup, error) {
	switch d {
	case DimensionProduct:
		return a.ByProduct(in), nil
	case DimensionSalesRep:
		return a.BySalesRep(in), nil
	case DimensionCustomer:
		return a.ByCustomer(in), nil
	}
	return nil, fmt.Errorf("%w: dimensión %q", domain.ErrInvalidInput, string(d))
}

// byDocument agrega cabeceras (con descuento incluido) y cantidades de línea; los abonos
// van a la dimensión y al período de su factura.
func (a *Aggregator) byDocument(in Input, dim Dimension,
	invoiceDim func(*entity.Invoice) string,
	creditDim func(*entity.CreditNote, *entity.Invoice) string,
) []Rollup {
	acc := newAccumulator(a.granularity, dim)
	all := make(map[string]*entity.Invoice, len(in.Invoices)+len(in.LinkedInvoices))
	for i := range in.LinkedInvoices {
		all[in.LinkedInvoices[i].ID] = &in.LinkedInvoices[i]
	}
	for i := range in.Invoices {
		all[in.Invoices[i].ID] = &in.Invoices[i]
	}

	counted := countedInvoices(in.Invoices)
	for _, inv := range counted {
		acc.addDocument(inv.Date, invoiceDim(inv), inv.Subtotal, inv.VATAmount, inv.Total, sumQuantity(in.InvoiceLines[inv.ID]), false)
	}
	for i := range in.CreditNotes {
		cn := &in.CreditNotes[i]
		if !cn.Counts() {
			continue
		}
		acc.addDocument(cn.Date, creditDim(cn, all[cn.LinkedInvoiceID]), cn.Subtotal, cn.VATAmount, cn.Total, sumQuantity(in.CreditNoteLines[cn.ID]), true)
	}
	for i := range in.Payments {
		inv, ok := counted[in.Payments[i].InvoiceID]
		if !ok {
			continue
		}
		acc.addCollected(inv.Date, invoiceDim(inv), in.Payments[i].Amount)
	}
	return acc.rows()
}

// ── acumulador con signo ─────────────────────────────────────────────────────

type accumulator struct {
	granularity Granularity
	dimension   Dimension
	byKey       map[string]*Rollup
}

func newAccumulator(g Granularity, d Dimension) *accumulator {
	return &accumulator{granularity: g, dimension: d, byKey: make(map[string]*Rollup)}
}

func (acc *accumulator) row(date time.Time, dimID string) *Rollup {
	key := acc.granularity.Key(date)
	k := key + "|" + dimID
	r, ok := acc.byKey[k]
	if !ok {
		r = &Rollup{Key: key, Dimension: acc.dimension, DimensionID: dimID}
		acc.byKey[k] = r
	}
	return r
}

func (acc *accumulator) addLine(date time.Time, dimID string, l entity.LineItem, negate bool) {
	excl := money.Round2(l.ExclVATAmount())
	total := l.LineTotal
	acc.addDocument(date, dimID, excl, total.Sub(excl), total, l.Quantity, negate)
}

func (acc *accumulator) addDocument(date time.Time, dimID string, subtotal, vat, total, qty decimal.Decimal, negate bool) {
	if negate {
		subtotal, vat, total, qty = subtotal.Neg(), vat.Neg(), total.Neg(), qty.Neg()
	}
	r := acc.row(date, dimID)
	r.DocumentCount++
	r.Quantity = r.Quantity.Add(qty)
	r.Subtotal = r.Subtotal.Add(subtotal)
	r.VATAmount = r.VATAmount.Add(vat)
	r.Total = r.Total.Add(total)
}

func (acc *accumulator) addCollected(date time.Time, dimID string, amount decimal.Decimal) {
	r := acc.row(date, dimID)
	r.Collected = r.Collected.Add(amount)
}

func (acc *accumulator) rows() []Rollup {
	out := make([]Rollup, 0, len(acc.byKey))
	for _, r := range acc.byKey {
		r.Quantity = money.Round3(r.Quantity)
		r.Subtotal = money.Round2(r.Subtotal)
		r.VATAmount = money.Round2(r.VATAmount)
		r.Total = money.Round2(r.Total)
		r.Collected = money.Round2(r.Collected)
		r.NetAfterPayments = money.Round2(r.Total.Sub(r.Collected))
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key < out[j].Key
		}
		return out[i].DimensionID < out[j].DimensionID
	})
	return out
}

func countedInvoices(invoices []entity.Invoice) map[string]*entity.Invoice {
	out := make(map[string]*entity.Invoice, len(invoices))
	for i := range invoices {
		if invoices[i].Counts() {
			out[invoices[i].ID] = &invoices[i]
		}
	}
	return out
}

func sumQuantity(lines []entity.LineItem) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].Quantity)
	}
	return total
}
