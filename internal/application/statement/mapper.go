package statement

import (
	"time"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/ledger"
)

// ToStatementResponse convierte el libro al DTO de respuesta.
func ToStatementResponse(customer *entity.Customer, st ledger.Statement) *dto.StatementResponse {
	out := &dto.StatementResponse{
		CustomerID:     st.CustomerID,
		From:           st.From.Format(time.DateOnly),
		To:             st.To.Format(time.DateOnly),
		OpeningBalance: st.OpeningBalance,
		ClosingBalance: st.ClosingBalance,
		Lines:          make([]dto.StatementLineResponse, 0, len(st.Lines)),
	}
	if customer != nil {
		out.CustomerName = customer.Name
	}
	for _, l := range st.Lines {
		out.Lines = append(out.Lines, dto.StatementLineResponse{
			Date:       l.Date.Format(time.DateOnly),
			Kind:       string(l.Kind),
			Reference:  l.Reference,
			DocumentID: l.DocumentID,
			Amount:     l.Amount,
			Balance:    l.Balance,
			Synthetic:  l.Synthetic,
		})
	}
	for _, r := range st.Reconciliations {
		out.Reconciliations = append(out.Reconciliations, dto.ReconciliationResponse{
			InvoiceID: r.InvoiceID,
			Reference: r.Reference,
			Date:      r.Date.Format(time.DateOnly),
			Total:     r.Total,
			Matched:   r.Matched,
			Shortfall: r.Shortfall,
		})
	}
	return out
}
