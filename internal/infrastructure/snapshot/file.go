// Package snapshot carga un volcado JSON de la cartera (clientes, productos, facturas,
// notas crédito y abonos) y lo expone con los mismos puertos de repositorio que PostgreSQL.
// Lo usa el CLI para calcular totales, estados de cuenta y reportes sin base de datos.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// File formato del volcado. Fechas YYYY-MM-DD o RFC 3339; montos como número o string.
type File struct {
	Customers   []Customer   `json:"customers"`
	Products    []Product    `json:"products"`
	Invoices    []Invoice    `json:"invoices"`
	CreditNotes []CreditNote `json:"credit_notes"`
	Payments    []Payment    `json:"payments"`
}

// Customer cliente del volcado.
type Customer struct {
	ID         string `json:"id"`
	CompanyID  string `json:"company_id"`
	Name       string `json:"name"`
	TaxID      string `json:"tax_id,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Address    string `json:"address,omitempty"`
	SalesRepID string `json:"sales_rep_id,omitempty"`
}

// Product producto con su precio de venta y factores de conversión.
type Product struct {
	ID           string          `json:"id"`
	CompanyID    string          `json:"company_id"`
	SKU          string          `json:"sku,omitempty"`
	Name         string          `json:"name"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	UnitsPerBox  decimal.Decimal `json:"units_per_box"`
	KgPerBag     decimal.Decimal `json:"kg_per_bag"`
	DefaultUnit  string          `json:"default_unit,omitempty"`
}

// Line renglón de factura o nota crédito, con los valores ya derivados.
type Line struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Description      string          `json:"description,omitempty"`
	Unit             string          `json:"unit"`
	EnteredQuantity  decimal.Decimal `json:"entered_quantity"`
	Factor           decimal.Decimal `json:"factor"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPriceExclVAT decimal.Decimal `json:"unit_price_excl_vat"`
	VATRate          decimal.Decimal `json:"vat_rate"`
	UnitVAT          decimal.Decimal `json:"unit_vat"`
	UnitPriceInclVAT decimal.Decimal `json:"unit_price_incl_vat"`
	LineTotal        decimal.Decimal `json:"line_total"`
	Position         int             `json:"position"`
}

// Invoice factura con sus totales, saldos y líneas. Status usa los valores de entity.InvoiceStatus.
type Invoice struct {
	ID                     string          `json:"id"`
	CompanyID              string          `json:"company_id"`
	CustomerID             string          `json:"customer_id"`
	SalesRepID             string          `json:"sales_rep_id,omitempty"`
	Number                 string          `json:"number"`
	Date                   string          `json:"date"`
	Status                 string          `json:"status"`
	VATPercent             decimal.Decimal `json:"vat_percent"`
	DiscountPercent        decimal.Decimal `json:"discount_percent"`
	SubtotalBeforeDiscount decimal.Decimal `json:"subtotal_before_discount"`
	Subtotal               decimal.Decimal `json:"subtotal"`
	VATAmount              decimal.Decimal `json:"vat_amount"`
	DiscountAmount         decimal.Decimal `json:"discount_amount"`
	Total                  decimal.Decimal `json:"total"`
	PreviousBalance        decimal.Decimal `json:"previous_balance"`
	GrossTotal             decimal.Decimal `json:"gross_total"`
	AmountPaid             decimal.Decimal `json:"amount_paid"`
	CreditsApplied         decimal.Decimal `json:"credits_applied"`
	BalanceRemaining       decimal.Decimal `json:"balance_remaining"`
	Lines                  []Line          `json:"lines"`
}

// CreditNote nota crédito; LinkedInvoiceID vacío si no está vinculada a una factura.
type CreditNote struct {
	ID              string          `json:"id"`
	CompanyID       string          `json:"company_id"`
	CustomerID      string          `json:"customer_id"`
	SalesRepID      string          `json:"sales_rep_id,omitempty"`
	LinkedInvoiceID string          `json:"linked_invoice_id,omitempty"`
	Number          string          `json:"number"`
	Date            string          `json:"date"`
	Status          string          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	Total           decimal.Decimal `json:"total"`
	Lines           []Line          `json:"lines"`
}

// Payment abono registrado contra una factura.
type Payment struct {
	ID         string          `json:"id"`
	CompanyID  string          `json:"company_id"`
	InvoiceID  string          `json:"invoice_id"`
	CustomerID string          `json:"customer_id"`
	Date       string          `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method,omitempty"`
	Reference  string          `json:"reference,omitempty"`
}

// LoadFile abre path y carga el volcado.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir snapshot: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodifica el volcado y construye el Store.
func Load(r io.Reader) (*Store, error) {
	var file File
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: snapshot: %v", domain.ErrInvalidInput, err)
	}
	return newStore(file)
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q no es una fecha", domain.ErrInvalidInput, field, s)
	}
	return t, nil
}

func formatDate(t time.Time) string { return t.Format(time.DateOnly) }

func (l Line) toEntity(documentID string) entity.LineItem {
	return entity.LineItem{
		ID:               l.ID,
		DocumentID:       documentID,
		ProductID:        l.ProductID,
		Description:      l.Description,
		Unit:             entity.Unit(strings.ToUpper(l.Unit)),
		EnteredQuantity:  l.EnteredQuantity,
		Factor:           l.Factor,
		Quantity:         l.Quantity,
		UnitPriceExclVAT: l.UnitPriceExclVAT,
		VATRate:          l.VATRate,
		UnitVAT:          l.UnitVAT,
		UnitPriceInclVAT: l.UnitPriceInclVAT,
		LineTotal:        l.LineTotal,
		Position:         l.Position,
	}
}

func lineFromEntity(l entity.LineItem) Line {
	return Line{
		ID:               l.ID,
		ProductID:        l.ProductID,
		Description:      l.Description,
		Unit:             string(l.Unit),
		EnteredQuantity:  l.EnteredQuantity,
		Factor:           l.Factor,
		Quantity:         l.Quantity,
		UnitPriceExclVAT: l.UnitPriceExclVAT,
		VATRate:          l.VATRate,
		UnitVAT:          l.UnitVAT,
		UnitPriceInclVAT: l.UnitPriceInclVAT,
		LineTotal:        l.LineTotal,
		Position:         l.Position,
	}
}

func (in Invoice) toEntity() (entity.Invoice, error) {
	date, err := parseDate("invoices["+in.ID+"].date", in.Date)
	if err != nil {
		return entity.Invoice{}, err
	}
	status := entity.InvoiceStatus(strings.ToUpper(in.Status))
	if in.Status == "" {
		status = entity.InvoiceStatusIssued
	}
	if !status.Valid() {
		return entity.Invoice{}, fmt.Errorf("%w: factura %s con estado %q", domain.ErrInvalidInput, in.ID, in.Status)
	}
	return entity.Invoice{
		ID: in.ID, CompanyID: in.CompanyID, CustomerID: in.CustomerID, SalesRepID: in.SalesRepID,
		Number: in.Number, Date: date, Status: status,
		VATPercent: in.VATPercent, DiscountPercent: in.DiscountPercent,
		SubtotalBeforeDiscount: in.SubtotalBeforeDiscount, Subtotal: in.Subtotal,
		VATAmount: in.VATAmount, DiscountAmount: in.DiscountAmount, Total: in.Total,
		PreviousBalance: in.PreviousBalance, GrossTotal: in.GrossTotal,
		AmountPaid: in.AmountPaid, CreditsApplied: in.CreditsApplied, BalanceRemaining: in.BalanceRemaining,
		CreatedAt: date, UpdatedAt: date,
	}, nil
}

func invoiceFromEntity(inv entity.Invoice, lines []entity.LineItem) Invoice {
	out := Invoice{
		ID: inv.ID, CompanyID: inv.CompanyID, CustomerID: inv.CustomerID, SalesRepID: inv.SalesRepID,
		Number: inv.Number, Date: formatDate(inv.Date), Status: string(inv.Status),
		VATPercent: inv.VATPercent, DiscountPercent: inv.DiscountPercent,
		SubtotalBeforeDiscount: inv.SubtotalBeforeDiscount, Subtotal: inv.Subtotal,
		VATAmount: inv.VATAmount, DiscountAmount: inv.DiscountAmount, Total: inv.Total,
		PreviousBalance: inv.PreviousBalance, GrossTotal: inv.GrossTotal,
		AmountPaid: inv.AmountPaid, CreditsApplied: inv.CreditsApplied, BalanceRemaining: inv.BalanceRemaining,
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, lineFromEntity(l))
	}
	return out
}

func (cn CreditNote) toEntity() (entity.CreditNote, error) {
	date, err := parseDate("credit_notes["+cn.ID+"].date", cn.Date)
	if err != nil {
		return entity.CreditNote{}, err
	}
	status := entity.CreditNoteStatus(strings.ToUpper(cn.Status))
	switch status {
	case entity.CreditNoteStatusDraft, entity.CreditNoteStatusIssued, entity.CreditNoteStatusVoid:
	case "":
		status = entity.CreditNoteStatusIssued
	default:
		return entity.CreditNote{}, fmt.Errorf("%w: nota crédito %s con estado %q", domain.ErrInvalidInput, cn.ID, cn.Status)
	}
	return entity.CreditNote{
		ID: cn.ID, CompanyID: cn.CompanyID, CustomerID: cn.CustomerID, SalesRepID: cn.SalesRepID,
		LinkedInvoiceID: cn.LinkedInvoiceID, Number: cn.Number, Date: date, Status: status,
		Subtotal: cn.Subtotal, VATAmount: cn.VATAmount, Total: cn.Total,
		CreatedAt: date, UpdatedAt: date,
	}, nil
}

func creditNoteFromEntity(cn entity.CreditNote, lines []entity.LineItem) CreditNote {
	out := CreditNote{
		ID: cn.ID, CompanyID: cn.CompanyID, CustomerID: cn.CustomerID, SalesRepID: cn.SalesRepID,
		LinkedInvoiceID: cn.LinkedInvoiceID, Number: cn.Number, Date: formatDate(cn.Date),
		Status: string(cn.Status), Subtotal: cn.Subtotal, VATAmount: cn.VATAmount, Total: cn.Total,
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, lineFromEntity(l))
	}
	return out
}

func (p Payment) toEntity() (entity.Payment, error) {
	date, err := parseDate("payments["+p.ID+"].date", p.Date)
	if err != nil {
		return entity.Payment{}, err
	}
	return entity.Payment{
		ID: p.ID, CompanyID: p.CompanyID, InvoiceID: p.InvoiceID, CustomerID: p.CustomerID,
		Date: date, Amount: p.Amount, Method: p.Method, Reference: p.Reference, CreatedAt: date,
	}, nil
}

func (p Product) toEntity() entity.Product {
	return entity.Product{
		ID: p.ID, CompanyID: p.CompanyID, SKU: p.SKU, Name: p.Name,
		SellingPrice: p.SellingPrice, UnitsPerBox: p.UnitsPerBox, KgPerBag: p.KgPerBag,
		DefaultUnit: entity.Unit(strings.ToUpper(p.DefaultUnit)),
	}
}

func (c Customer) toEntity() entity.Customer {
	return entity.Customer{
		ID: c.ID, CompanyID: c.CompanyID, Name: c.Name, TaxID: c.TaxID,
		Email: c.Email, Phone: c.Phone, Address: c.Address, SalesRepID: c.SalesRepID,
	}
}
