package dto

import "github.com/shopspring/decimal"

// RecomputeRequest body para POST /api/invoices/:id/recompute.
// Mode vacío equivale a "base".
type RecomputeRequest struct {
	Mode string `json:"mode" validate:"omitempty,oneof=base proportional"`
}

// DiscountRequest body para POST /api/invoices/:id/discount.
// AutoRecalc: recalcular primero desde las líneas (modo base) antes de repartir el descuento.
type DiscountRequest struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	AutoRecalc      bool            `json:"auto_recalc"`
}

// VATRequest body para PUT /api/invoices/:id/vat.
type VATRequest struct {
	VATPercent decimal.Decimal `json:"vat_percent"`
}

// LineRequest body para agregar una línea a factura o nota crédito.
// Factor, UnitPrice y VATRate son opcionales (null o ausentes = valor del producto/documento).
type LineRequest struct {
	ProductID   string              `json:"product_id" validate:"required,max=64"`
	Description string              `json:"description,omitempty" validate:"max=255"`
	Unit        string              `json:"unit,omitempty" validate:"omitempty,oneof=BOX PCS KG G BAG box pcs kg g bag"`
	Quantity    decimal.Decimal     `json:"quantity"`
	Factor      decimal.NullDecimal `json:"factor"`
	UnitPrice   decimal.NullDecimal `json:"unit_price"`
	VATRate     decimal.NullDecimal `json:"vat_rate"`
}

// PaymentRequest body para POST /api/invoices/:id/payments. Date en formato YYYY-MM-DD (vacío = hoy).
type PaymentRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Method    string          `json:"method,omitempty" validate:"omitempty,oneof=CASH TRANSFER CARD CHEQUE"`
	Reference string          `json:"reference,omitempty" validate:"max=64"`
}

// InvoiceResponse factura con totales y líneas para GET /api/invoices/:id.
type InvoiceResponse struct {
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
	Lines                  []LineResponse  `json:"lines"`
}

// LineResponse línea valorizada en la respuesta.
type LineResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Description      string          `json:"description"`
	Unit             string          `json:"unit"`
	EnteredQuantity  decimal.Decimal `json:"entered_quantity"`
	Factor           decimal.Decimal `json:"factor"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPriceExclVAT decimal.Decimal `json:"unit_price_excl_vat"`
	VATRate          decimal.Decimal `json:"vat_rate"`
	UnitVAT          decimal.Decimal `json:"unit_vat"`
	UnitPriceInclVAT decimal.Decimal `json:"unit_price_incl_vat"`
	LineTotal        decimal.Decimal `json:"line_total"`
}

// CreditNoteResponse nota crédito con totales y líneas.
type CreditNoteResponse struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	LinkedInvoiceID string          `json:"linked_invoice_id,omitempty"`
	Number          string          `json:"number"`
	Date            string          `json:"date"`
	Status          string          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	VATAmount       decimal.Decimal `json:"vat_amount"`
	Total           decimal.Decimal `json:"total"`
	Lines           []LineResponse  `json:"lines"`
}

// PaymentResponse abono registrado junto con la factura actualizada.
type PaymentResponse struct {
	ID        string           `json:"id"`
	InvoiceID string           `json:"invoice_id"`
	Date      string           `json:"date"`
	Amount    decimal.Decimal  `json:"amount"`
	Method    string           `json:"method"`
	Reference string           `json:"reference,omitempty"`
	Invoice   *InvoiceResponse `json:"invoice"`
}
