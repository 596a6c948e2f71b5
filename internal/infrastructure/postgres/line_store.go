package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// lineStore acceso compartido a invoice_lines y credit_note_lines (mismas columnas,
// distinta tabla y llave foránea).
type lineStore struct {
	table string
	fk    string
}

var (
	invoiceLines    = lineStore{table: "invoice_lines", fk: "invoice_id"}
	creditNoteLines = lineStore{table: "credit_note_lines", fk: "credit_note_id"}
)

func (s lineStore) columns() string {
	return `id, ` + s.fk + `, product_id, description, unit, entered_quantity, factor, quantity,
	        unit_price_excl_vat, vat_rate, unit_vat, unit_price_incl_vat, line_total, position`
}

func scanLine(row pgx.Row) (entity.LineItem, error) {
	var l entity.LineItem
	err := row.Scan(
		&l.ID, &l.DocumentID, &l.ProductID, &l.Description, &l.Unit,
		&l.EnteredQuantity, &l.Factor, &l.Quantity,
		&l.UnitPriceExclVAT, &l.VATRate, &l.UnitVAT, &l.UnitPriceInclVAT, &l.LineTotal,
		&l.Position,
	)
	return l, err
}

func (s lineStore) list(ctx context.Context, q Querier, documentID string) ([]entity.LineItem, error) {
	query := `SELECT ` + s.columns() + ` FROM ` + s.table + ` WHERE ` + s.fk + ` = $1 ORDER BY position, id`
	rows, err := q.Query(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table, err)
	}
	defer rows.Close()
	var list []entity.LineItem
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// listByDocuments agrupa las líneas de varios documentos en una sola consulta.
func (s lineStore) listByDocuments(ctx context.Context, q Querier, documentIDs []string) (map[string][]entity.LineItem, error) {
	out := make(map[string][]entity.LineItem, len(documentIDs))
	if len(documentIDs) == 0 {
		return out, nil
	}
	query := `SELECT ` + s.columns() + ` FROM ` + s.table + ` WHERE ` + s.fk + ` = ANY($1) ORDER BY ` + s.fk + `, position, id`
	rows, err := q.Query(ctx, query, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("list %s by documents: %w", s.table, err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		out[l.DocumentID] = append(out[l.DocumentID], l)
	}
	return out, rows.Err()
}

func (s lineStore) insert(ctx context.Context, q Querier, l *entity.LineItem) error {
	query := `INSERT INTO ` + s.table + ` (` + s.columns() + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := q.Exec(ctx, query,
		l.ID, l.DocumentID, l.ProductID, l.Description, string(l.Unit),
		l.EnteredQuantity, l.Factor, l.Quantity,
		l.UnitPriceExclVAT, l.VATRate, l.UnitVAT, l.UnitPriceInclVAT, l.LineTotal,
		l.Position,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: posición %d ya existe", domain.ErrConflict, l.Position)
		}
		return fmt.Errorf("insert %s: %w", s.table, err)
	}
	return nil
}

// updatePricing reescribe solo los campos derivados (y la tasa) de la línea.
func (s lineStore) updatePricing(ctx context.Context, q Querier, l *entity.LineItem) error {
	query := `
		UPDATE ` + s.table + `
		SET vat_rate            = $3,
		    unit_vat            = $4,
		    unit_price_incl_vat = $5,
		    line_total          = $6
		WHERE id = $1 AND ` + s.fk + ` = $2`
	tag, err := q.Exec(ctx, query, l.ID, l.DocumentID, l.VATRate, l.UnitVAT, l.UnitPriceInclVAT, l.LineTotal)
	if err != nil {
		return fmt.Errorf("update %s: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s lineStore) delete(ctx context.Context, q Querier, documentID, lineID string) error {
	tag, err := q.Exec(ctx, `DELETE FROM `+s.table+` WHERE id = $1 AND `+s.fk+` = $2`, lineID, documentID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.table, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
