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

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

const invoiceColumns = `
	id, company_id, customer_id, sales_rep_id, number, date, status,
	vat_percent, discount_percent,
	subtotal_before_discount, subtotal, vat_amount, discount_amount, total,
	previous_balance, gross_total, amount_paid, credits_applied, balance_remaining,
	created_at, updated_at`

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

func scanInvoice(row pgx.Row) (*entity.Invoice, error) {
	var inv entity.Invoice
	var salesRep *string
	err := row.Scan(
		&inv.ID, &inv.CompanyID, &inv.CustomerID, &salesRep, &inv.Number, &inv.Date, &inv.Status,
		&inv.VATPercent, &inv.DiscountPercent,
		&inv.SubtotalBeforeDiscount, &inv.Subtotal, &inv.VATAmount, &inv.DiscountAmount, &inv.Total,
		&inv.PreviousBalance, &inv.GrossTotal, &inv.AmountPaid, &inv.CreditsApplied, &inv.BalanceRemaining,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	inv.SalesRepID = derefStr(salesRep)
	return &inv, nil
}

func (r *InvoiceRepo) getOne(ctx context.Context, query, id string) (*entity.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepo) list(ctx context.Context, query string, args ...any) ([]entity.Invoice, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		list = append(list, *inv)
	}
	return list, rows.Err()
}

// GetByID obtiene la cabecera de la factura.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
}

// GetForUpdate obtiene la cabecera bloqueando la fila hasta el fin de la transacción.
func (r *InvoiceRepo) GetForUpdate(ctx context.Context, id string) (*entity.Invoice, error) {
	return r.getOne(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1 FOR UPDATE`, id)
}

func (r *InvoiceRepo) ListLines(ctx context.Context, invoiceID string) ([]entity.LineItem, error) {
	return invoiceLines.list(ctx, r.q, invoiceID)
}

func (r *InvoiceRepo) CreateLine(ctx context.Context, line *entity.LineItem) error {
	return invoiceLines.insert(ctx, r.q, line)
}

func (r *InvoiceRepo) UpdateLine(ctx context.Context, line *entity.LineItem) error {
	return invoiceLines.updatePricing(ctx, r.q, line)
}

func (r *InvoiceRepo) DeleteLine(ctx context.Context, invoiceID, lineID string) error {
	return invoiceLines.delete(ctx, r.q, invoiceID, lineID)
}

// UpdateTotals persiste tasas y totales derivados. El estado se cambia aparte con UpdateStatus.
func (r *InvoiceRepo) UpdateTotals(ctx context.Context, inv *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET vat_percent              = $2,
		    discount_percent         = $3,
		    subtotal_before_discount = $4,
		    subtotal                 = $5,
		    vat_amount               = $6,
		    discount_amount          = $7,
		    total                    = $8,
		    previous_balance         = $9,
		    gross_total              = $10,
		    amount_paid              = $11,
		    credits_applied          = $12,
		    balance_remaining        = $13,
		    updated_at               = $14
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		inv.ID,
		inv.VATPercent, inv.DiscountPercent,
		inv.SubtotalBeforeDiscount, inv.Subtotal, inv.VATAmount, inv.DiscountAmount, inv.Total,
		inv.PreviousBalance, inv.GrossTotal, inv.AmountPaid, inv.CreditsApplied, inv.BalanceRemaining,
		inv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update invoice totals: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) UpdateStatus(ctx context.Context, id string, status entity.InvoiceStatus) error {
	_, err := r.q.Exec(ctx, `UPDATE invoices SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return nil
}

// ListByCustomerUntil historial completo del cliente hasta until, en todos los estados.
func (r *InvoiceRepo) ListByCustomerUntil(ctx context.Context, customerID string, until time.Time) ([]entity.Invoice, error) {
	return r.list(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE customer_id = $1 AND date <= $2 ORDER BY date, number, id`,
		customerID, until)
}

func (r *InvoiceRepo) ListByPeriod(ctx context.Context, companyID string, from, to time.Time) ([]entity.Invoice, error) {
	return r.list(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE company_id = $1 AND date >= $2 AND date <= $3 ORDER BY date, number, id`,
		companyID, from, to)
}

func (r *InvoiceRepo) ListByIDs(ctx context.Context, ids []string) ([]entity.Invoice, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ANY($1)`, ids)
}

func (r *InvoiceRepo) ListLinesByInvoiceIDs(ctx context.Context, ids []string) (map[string][]entity.LineItem, error) {
	return invoiceLines.listByDocuments(ctx, r.q, ids)
}
