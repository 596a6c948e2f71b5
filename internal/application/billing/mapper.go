package billing

import (
	"time"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// ToInvoiceResponse arma la respuesta de una factura. lines puede ser nil.
func ToInvoiceResponse(inv *entity.Invoice, lines []entity.LineItem) *dto.InvoiceResponse {
	return &dto.InvoiceResponse{
		ID:                     inv.ID,
		CompanyID:              inv.CompanyID,
		CustomerID:             inv.CustomerID,
		SalesRepID:             inv.SalesRepID,
		Number:                 inv.Number,
		Date:                   inv.Date.Format(time.DateOnly),
		Status:                 string(inv.Status),
		VATPercent:             inv.VATPercent,
		DiscountPercent:        inv.DiscountPercent,
		SubtotalBeforeDiscount: inv.SubtotalBeforeDiscount,
		Subtotal:               inv.Subtotal,
		VATAmount:              inv.VATAmount,
		DiscountAmount:         inv.DiscountAmount,
		Total:                  inv.Total,
		PreviousBalance:        inv.PreviousBalance,
		GrossTotal:             inv.GrossTotal,
		AmountPaid:             inv.AmountPaid,
		CreditsApplied:         inv.CreditsApplied,
		BalanceRemaining:       inv.BalanceRemaining,
		Lines:                  toLineResponses(lines),
	}
}

// ToCreditNoteResponse arma la respuesta de una nota crédito. lines puede ser nil.
func ToCreditNoteResponse(cn *entity.CreditNote, lines []entity.LineItem) *dto.CreditNoteResponse {
	return &dto.CreditNoteResponse{
		ID:              cn.ID,
		CustomerID:      cn.CustomerID,
		LinkedInvoiceID: cn.LinkedInvoiceID,
		Number:          cn.Number,
		Date:            cn.Date.Format(time.DateOnly),
		Status:          string(cn.Status),
		Subtotal:        cn.Subtotal,
		VATAmount:       cn.VATAmount,
		Total:           cn.Total,
		Lines:           toLineResponses(lines),
	}
}

func toLineResponses(lines []entity.LineItem) []dto.LineResponse {
	out := make([]dto.LineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.LineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			Description:      l.Description,
			Unit:             string(l.Unit),
			EnteredQuantity:  l.EnteredQuantity,
			Factor:           l.Factor,
			Quantity:         l.Quantity,
			UnitPriceExclVAT: l.UnitPriceExclVAT,
			VATRate:          l.VATRate,
			UnitVAT:          l.UnitVAT,
			UnitPriceInclVAT: l.UnitPriceInclVAT,
			LineTotal:        l.LineTotal,
		})
	}
	return out
}
