package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus estado de una factura de venta.
type InvoiceStatus string

// Estados de factura. El orden DRAFT < ISSUED < PARTIALLY_PAID < PAID es monótono;
// VOID se alcanza desde cualquier estado y es terminal.
const (
	InvoiceStatusDraft         InvoiceStatus = "DRAFT"
	InvoiceStatusIssued        InvoiceStatus = "ISSUED"
	InvoiceStatusPartiallyPaid InvoiceStatus = "PARTIALLY_PAID"
	InvoiceStatusPaid          InvoiceStatus = "PAID"
	InvoiceStatusVoid          InvoiceStatus = "VOID"
)

var invoiceStatusRank = map[InvoiceStatus]int{
	InvoiceStatusDraft:         0,
	InvoiceStatusIssued:        1,
	InvoiceStatusPartiallyPaid: 2,
	InvoiceStatusPaid:          3,
}

// Valid indica si el estado es uno de los conocidos.
func (s InvoiceStatus) Valid() bool {
	if s == InvoiceStatusVoid {
		return true
	}
	_, ok := invoiceStatusRank[s]
	return ok
}

// CanTransitionTo aplica la regla de monotonía: nunca se retrocede y VOID no tiene salida.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if s == InvoiceStatusVoid || !next.Valid() {
		return false
	}
	if next == InvoiceStatusVoid {
		return true
	}
	return invoiceStatusRank[next] >= invoiceStatusRank[s]
}

// Invoice representa la cabecera de una factura de venta.
// Los totales son derivados; solo DiscountPercent y VATPercent se editan a mano.
type Invoice struct {
	ID         string
	CompanyID  string
	CustomerID string
	SalesRepID string
	Number     string
	Date       time.Time
	Status     InvoiceStatus

	VATPercent      decimal.Decimal // tasa del documento; las líneas pueden tener otra
	DiscountPercent decimal.Decimal

	SubtotalBeforeDiscount decimal.Decimal
	Subtotal               decimal.Decimal // neto después de descuento
	VATAmount              decimal.Decimal
	DiscountAmount         decimal.Decimal
	Total                  decimal.Decimal
	PreviousBalance        decimal.Decimal
	GrossTotal             decimal.Decimal // Total + PreviousBalance
	AmountPaid             decimal.Decimal
	CreditsApplied         decimal.Decimal
	BalanceRemaining       decimal.Decimal

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reference identificador legible para estados de cuenta (número o ID si no tiene número).
func (i *Invoice) Reference() string {
	if i.Number != "" {
		return i.Number
	}
	return i.ID
}

// Counts indica si la factura participa en cartera y reportes.
func (i *Invoice) Counts() bool {
	return i.Status != InvoiceStatusDraft && i.Status != InvoiceStatusVoid
}
