package reporting

import (
	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain/reports"
)

func toPeriodResponses(buckets []reports.PeriodBucket) []dto.PeriodResponse {
	out := make([]dto.PeriodResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, dto.PeriodResponse{
			Key:              b.Key,
			InvoiceCount:     b.InvoiceCount,
			CreditNoteCount:  b.CreditNoteCount,
			CustomerCount:    b.CustomerCount,
			Quantity:         b.Quantity,
			Subtotal:         b.Subtotal,
			VATAmount:        b.VATAmount,
			DiscountAmount:   b.DiscountAmount,
			Total:            b.Total,
			Collected:        b.Collected,
			NetAfterPayments: b.NetAfterPayments,
		})
	}
	return out
}

func toRollupResponses(rows []reports.Rollup) []dto.RollupResponse {
	out := make([]dto.RollupResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.RollupResponse{
			Key:              r.Key,
			Dimension:        string(r.Dimension),
			DimensionID:      r.DimensionID,
			Quantity:         r.Quantity,
			Subtotal:         r.Subtotal,
			VATAmount:        r.VATAmount,
			Total:            r.Total,
			Collected:        r.Collected,
			NetAfterPayments: r.NetAfterPayments,
			DocumentCount:    r.DocumentCount,
		})
	}
	return out
}
