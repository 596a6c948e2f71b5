package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ repository.CreditNoteRepository = (*CreditNoteRepo)(nil)

const creditNoteColumns = `
	id, company_id, customer_id, sales_rep_id, linked_invoice_id, number, date, status,
	subtotal, vat_amount, total, created_at, updated_at`

// CreditNoteRepo implementación de CreditNoteRepository (usable con pool o tx).
type CreditNoteRepo struct {
	q Querier
}

// NewCreditNoteRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditNoteRepository(q Querier) *CreditNoteRepo {
	return &CreditNoteRepo{q: q}
}

func scanCreditNote(row pgx.Row) (*entity.CreditNote, error) {
	var cn entity.CreditNote
	var salesRep, linked *string
	err := row.Scan(
		&cn.ID, &cn.CompanyID, &cn.CustomerID, &salesRep, &linked, &cn.Number, &cn.Date, &cn.Status,
		&cn.Subtotal, &cn.VATAmount, &cn.Total, &cn.CreatedAt, &cn.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cn.SalesRepID = derefStr(salesRep)
	cn.LinkedInvoiceID = derefStr(linked)
	return &cn, nil
}

func (r *CreditNoteRepo) getOne(ctx context.Context, query, id string) (*entity.CreditNote, error) {
	cn, err := scanCreditNote(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get credit note: %w", err)
	}
	return cn, nil
}

func (r *CreditNoteRepo) list(ctx context.Context, query string, args ...any) ([]entity.CreditNote, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credit notes: %w", err)
	}
	defer rows.Close()
	var list []entity.CreditNote
	for rows.Next() {
		cn, err := scanCreditNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credit note: %w", err)
		}
		list = append(list, *cn)
	}
	return list, rows.Err()
}

func (r *CreditNoteRepo) GetByID(ctx context.Context, id string) (*entity.CreditNote, error) {
	return r.getOne(ctx, `SELECT `+creditNoteColumns+` FROM credit_notes WHERE id = $1`, id)
}

func (r *CreditNoteRepo) GetForUpdate(ctx context.Context, id string) (*entity.CreditNote, error) {
	return r.getOne(ctx, `SELECT `+creditNoteColumns+` FROM credit_notes WHERE id = $1 FOR UPDATE`, id)
}

func (r *CreditNoteRepo) ListLines(ctx context.Context, creditNoteID string) ([]entity.LineItem, error) {
	return creditNoteLines.list(ctx, r.q, creditNoteID)
}

func (r *CreditNoteRepo) CreateLine(ctx context.Context, line *entity.LineItem) error {
	return creditNoteLines.insert(ctx, r.q, line)
}

func (r *CreditNoteRepo) UpdateTotals(ctx context.Context, cn *entity.CreditNote) error {
	query := `
		UPDATE credit_notes
		SET subtotal   = $2,
		    vat_amount = $3,
		    total      = $4,
		    updated_at = $5
		WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, cn.ID, cn.Subtotal, cn.VATAmount, cn.Total, cn.UpdatedAt); err != nil {
		return fmt.Errorf("update credit note totals: %w", err)
	}
	return nil
}

func (r *CreditNoteRepo) UpdateStatus(ctx context.Context, id string, status entity.CreditNoteStatus) error {
	_, err := r.q.Exec(ctx, `UPDATE credit_notes SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update credit note status: %w", err)
	}
	return nil
}

func (r *CreditNoteRepo) ListByCustomerUntil(ctx context.Context, customerID string, until time.Time) ([]entity.CreditNote, error) {
	return r.list(ctx,
		`SELECT `+creditNoteColumns+` FROM credit_notes WHERE customer_id = $1 AND date <= $2 ORDER BY date, number, id`,
		customerID, until)
}

func (r *CreditNoteRepo) ListByPeriod(ctx context.Context, companyID string, from, to time.Time) ([]entity.CreditNote, error) {
	return r.list(ctx,
		`SELECT `+creditNoteColumns+` FROM credit_notes WHERE company_id = $1 AND date >= $2 AND date <= $3 ORDER BY date, number, id`,
		companyID, from, to)
}

func (r *CreditNoteRepo) ListLinesByCreditNoteIDs(ctx context.Context, ids []string) (map[string][]entity.LineItem, error) {
	return creditNoteLines.listByDocuments(ctx, r.q, ids)
}
