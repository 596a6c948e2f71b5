package billing

import (
	"context"

	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

// Repos repositorios atados a una misma transacción.
type Repos struct {
	Invoices    repository.InvoiceRepository
	CreditNotes repository.CreditNoteRepository
	Payments    repository.PaymentRepository
	Products    repository.ProductRepository
	Customers   repository.CustomerRepository
}

// BillingTxRunner ejecuta fn dentro de una transacción; si fn retorna error se hace rollback.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(r Repos) error) error
}

// InvoiceLocker exclusión mutua por documento. Lock bloquea hasta obtener el candado o
// hasta que ctx venza (domain.ErrDocumentLocked). La función devuelta lo libera.
type InvoiceLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// InvoiceLockKey clave de bloqueo de una factura.
func InvoiceLockKey(id string) string { return "cartera:invoice:" + id }

// CreditNoteLockKey clave de bloqueo de una nota crédito.
func CreditNoteLockKey(id string) string { return "cartera:credit-note:" + id }
