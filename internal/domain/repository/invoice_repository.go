package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para facturas y sus líneas.
// Los métodos Get devuelven (nil, nil) cuando la factura no existe.
type InvoiceRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Invoice, error)
	// GetForUpdate lee la cabecera con bloqueo de fila (SELECT ... FOR UPDATE); solo tiene efecto dentro de una tx.
	GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error)
	ListLines(ctx context.Context, invoiceID string) ([]entity.LineItem, error)
	CreateLine(ctx context.Context, line *entity.LineItem) error
	UpdateLine(ctx context.Context, line *entity.LineItem) error
	DeleteLine(ctx context.Context, invoiceID, lineID string) error
	// UpdateTotals persiste VATPercent, DiscountPercent y todos los totales derivados.
	UpdateTotals(ctx context.Context, inv *entity.Invoice) error
	UpdateStatus(ctx context.Context, id string, status entity.InvoiceStatus) error
	// ListByCustomerUntil devuelve todo el historial del cliente con fecha <= until (todos los estados).
	ListByCustomerUntil(ctx context.Context, customerID string, until time.Time) ([]entity.Invoice, error)
	// ListByPeriod devuelve las facturas de la empresa con fecha en [from, to].
	ListByPeriod(ctx context.Context, companyID string, from, to time.Time) ([]entity.Invoice, error)
	ListByIDs(ctx context.Context, ids []string) ([]entity.Invoice, error)
	ListLinesByInvoiceIDs(ctx context.Context, ids []string) (map[string][]entity.LineItem, error)
}
