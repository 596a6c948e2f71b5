package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// CreditNoteRepository define el puerto de persistencia para notas crédito.
type CreditNoteRepository interface {
	GetByID(ctx context.Context, id string) (*entity.CreditNote, error)
	GetForUpdate(ctx context.Context, id string) (*entity.CreditNote, error)
	ListLines(ctx context.Context, creditNoteID string) ([]entity.LineItem, error)
	CreateLine(ctx context.Context, line *entity.LineItem) error
	UpdateTotals(ctx context.Context, cn *entity.CreditNote) error
	UpdateStatus(ctx context.Context, id string, status entity.CreditNoteStatus) error
	ListByCustomerUntil(ctx context.Context, customerID string, until time.Time) ([]entity.CreditNote, error)
	ListByPeriod(ctx context.Context, companyID string, from, to time.Time) ([]entity.CreditNote, error)
	ListLinesByCreditNoteIDs(ctx context.Context, ids []string) (map[string][]entity.LineItem, error)
}
