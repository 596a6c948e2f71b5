package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Métodos de pago admitidos.
const (
	PaymentMethodCash     = "CASH"
	PaymentMethodTransfer = "TRANSFER"
	PaymentMethodCard     = "CARD"
	PaymentMethodCheque   = "CHEQUE"
)

// Payment abono a una única factura. Amount siempre es positivo.
type Payment struct {
	ID         string
	CompanyID  string
	InvoiceID  string
	CustomerID string
	Date       time.Time
	Amount     decimal.Decimal
	Method     string
	Reference  string
	CreatedAt  time.Time
}

// Ref devuelve la referencia del pago o su ID.
func (p *Payment) Ref() string {
	if p.Reference != "" {
		return p.Reference
	}
	return p.ID
}
