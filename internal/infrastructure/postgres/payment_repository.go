package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

const paymentColumns = `id, company_id, invoice_id, customer_id, date, amount, method, reference, created_at`

// PaymentRepo implementación de PaymentRepository (usable con pool o tx).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create persiste un abono. Genera el ID si viene vacío.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	query := `INSERT INTO payments (` + paymentColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.CompanyID, p.InvoiceID, p.CustomerID, p.Date, p.Amount, p.Method, nullIfEmpty(p.Reference), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) list(ctx context.Context, query string, args ...any) ([]entity.Payment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []entity.Payment
	for rows.Next() {
		var p entity.Payment
		var ref *string
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.InvoiceID, &p.CustomerID, &p.Date, &p.Amount, &p.Method, &ref, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		p.Reference = derefStr(ref)
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PaymentRepo) ListByCustomerUntil(ctx context.Context, customerID string, until time.Time) ([]entity.Payment, error) {
	return r.list(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE customer_id = $1 AND date <= $2 ORDER BY date, created_at, id`,
		customerID, until)
}

func (r *PaymentRepo) ListByInvoiceIDs(ctx context.Context, invoiceIDs []string) ([]entity.Payment, error) {
	if len(invoiceIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE invoice_id = ANY($1) ORDER BY date, created_at, id`,
		invoiceIDs)
}

// SumByInvoice total abonado a la factura (0 si no hay abonos).
func (r *PaymentRepo) SumByInvoice(ctx context.Context, invoiceID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}
