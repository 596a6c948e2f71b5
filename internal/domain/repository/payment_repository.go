package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// PaymentRepository define el puerto de persistencia para abonos.
type PaymentRepository interface {
	Create(ctx context.Context, p *entity.Payment) error
	ListByCustomerUntil(ctx context.Context, customerID string, until time.Time) ([]entity.Payment, error)
	// ListByInvoiceIDs devuelve todos los abonos de esas facturas, sin importar su fecha.
	ListByInvoiceIDs(ctx context.Context, invoiceIDs []string) ([]entity.Payment, error)
	SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error)
}
