package dto

import "github.com/shopspring/decimal"

// ReportQuery query string de GET /api/reports/:key.
type ReportQuery struct {
	From        string `query:"from" validate:"required,datetime=2006-01-02"`
	To          string `query:"to" validate:"required,datetime=2006-01-02"`
	Granularity string `query:"granularity" validate:"omitempty,oneof=day daily month monthly"`
	Format      string `query:"format" validate:"omitempty,oneof=json csv xlsx"`
	Charset     string `query:"charset" validate:"omitempty,oneof=utf-8 windows-1252"` // solo CSV
}

// ReportResponse resultado de un reporte neto. Periods solo en net-sales; Rollups en el resto.
type ReportResponse struct {
	Key         string           `json:"key"`
	Granularity string           `json:"granularity"`
	From        string           `json:"from"`
	To          string           `json:"to"`
	Periods     []PeriodResponse `json:"periods,omitempty"`
	Rollups     []RollupResponse `json:"rollups,omitempty"`
}

// PeriodResponse bucket de ventas netas.
type PeriodResponse struct {
	Key              string          `json:"key"`
	InvoiceCount     int             `json:"invoice_count"`
	CreditNoteCount  int             `json:"credit_note_count"`
	CustomerCount    int             `json:"customer_count"`
	Quantity         decimal.Decimal `json:"quantity"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	DiscountAmount   decimal.Decimal `json:"discount_amount"`
	Total            decimal.Decimal `json:"total"`
	Collected        decimal.Decimal `json:"collected"`
	NetAfterPayments decimal.Decimal `json:"net_after_payments"`
}

// RollupResponse totales netos por dimensión y período.
type RollupResponse struct {
	Key              string          `json:"key"`
	Dimension        string          `json:"dimension"`
	DimensionID      string          `json:"dimension_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	VATAmount        decimal.Decimal `json:"vat_amount"`
	Total            decimal.Decimal `json:"total"`
	Collected        decimal.Decimal `json:"collected"`
	NetAfterPayments decimal.Decimal `json:"net_after_payments"`
	DocumentCount    int             `json:"document_count"`
}
