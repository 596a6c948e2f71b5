package dto

import "github.com/shopspring/decimal"

// StatementQuery query string de GET /api/customers/:id/statement.
type StatementQuery struct {
	From   string `query:"from" validate:"required,datetime=2006-01-02"`
	To     string `query:"to" validate:"required,datetime=2006-01-02"`
	Format string `query:"format" validate:"omitempty,oneof=json pdf"`
}

// StatementResponse estado de cuenta de un cliente.
type StatementResponse struct {
	CustomerID      string                   `json:"customer_id"`
	CustomerName    string                   `json:"customer_name,omitempty"`
	From            string                   `json:"from"`
	To              string                   `json:"to"`
	OpeningBalance  decimal.Decimal          `json:"opening_balance"`
	ClosingBalance  decimal.Decimal          `json:"closing_balance"`
	Lines           []StatementLineResponse  `json:"lines"`
	Reconciliations []ReconciliationResponse `json:"reconciliations,omitempty"`
}

// StatementLineResponse renglón del estado de cuenta.
type StatementLineResponse struct {
	Date       string          `json:"date"`
	Kind       string          `json:"kind"` // OPENING | INVOICE | CREDIT_NOTE | PAYMENT
	Reference  string          `json:"reference"`
	DocumentID string          `json:"document_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
	Balance    decimal.Decimal `json:"balance"`
	Synthetic  bool            `json:"synthetic,omitempty"`
}

// ReconciliationResponse factura pagada a la que se le generó un abono por el faltante.
type ReconciliationResponse struct {
	InvoiceID string          `json:"invoice_id"`
	Reference string          `json:"reference"`
	Date      string          `json:"date"`
	Total     decimal.Decimal `json:"total"`
	Matched   decimal.Decimal `json:"matched"`
	Shortfall decimal.Decimal `json:"shortfall"`
}
