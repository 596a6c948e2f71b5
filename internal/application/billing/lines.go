package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
)

// AddLine agrega una línea convertida y valorizada y recalcula la factura desde sus líneas.
// La tasa de IVA de la línea es la del request o, si no viene, la del documento.
func (uc *InvoiceUseCase) AddLine(ctx context.Context, companyID, invoiceID string, in dto.LineRequest) (*dto.InvoiceResponse, error) {
	input, err := LineInputFrom(in)
	if err != nil {
		return nil, err
	}
	var (
		out   *entity.Invoice
		lines []entity.LineItem
		added entity.LineItem
	)
	err = uc.mutate(ctx, companyID, invoiceID, func(r Repos, inv *entity.Invoice) error {
		if err := requireEditable(inv); err != nil {
			return err
		}
		product, err := r.Products.GetByID(ctx, input.ProductID)
		if err != nil {
			return err
		}
		if product != nil && product.CompanyID != companyID {
			return domain.ErrForbidden
		}
		line, err := uc.pricer.Build(product, input, inv.VATPercent)
		if err != nil {
			return err
		}
		existing, err := r.Invoices.ListLines(ctx, inv.ID)
		if err != nil {
			return err
		}
		line.ID = uuid.New().String()
		line.DocumentID = inv.ID
		line.Position = nextPosition(existing)
		if err := r.Invoices.CreateLine(ctx, &line); err != nil {
			return err
		}
		added = line
		lines, err = uc.recomputeFromLines(ctx, r, inv, nil)
		out = inv
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("invoice_id", invoiceID).
		Str("line_id", added.ID).
		Str("unit", string(added.Unit)).
		Str("quantity", added.Quantity.String()).
		Str("total", out.Total.String()).
		Msg("línea agregada")
	return ToInvoiceResponse(out, lines), nil
}

// RemoveLine elimina una línea y recalcula la factura.
func (uc *InvoiceUseCase) RemoveLine(ctx context.Context, companyID, invoiceID, lineID string) (*dto.InvoiceResponse, error) {
	var (
		out   *entity.Invoice
		lines []entity.LineItem
	)
	err := uc.mutate(ctx, companyID, invoiceID, func(r Repos, inv *entity.Invoice) error {
		if err := requireEditable(inv); err != nil {
			return err
		}
		if err := r.Invoices.DeleteLine(ctx, inv.ID, lineID); err != nil {
			return err
		}
		var err error
		lines, err = uc.recomputeFromLines(ctx, r, inv, nil)
		out = inv
		return err
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("invoice_id", invoiceID).Str("line_id", lineID).Msg("línea eliminada")
	return ToInvoiceResponse(out, lines), nil
}

// LineInputFrom traduce el request HTTP/CLI a la entrada del valorizador.
func LineInputFrom(in dto.LineRequest) (pricing.LineInput, error) {
	if in.ProductID == "" {
		return pricing.LineInput{}, fmt.Errorf("%w: product_id requerido", domain.ErrInvalidInput)
	}
	unit, err := pricing.ParseUnit(in.Unit)
	if err != nil {
		return pricing.LineInput{}, err
	}
	if in.Unit == "" {
		unit = "" // se resuelve con la unidad por defecto del producto
	}
	return pricing.LineInput{
		ProductID:   in.ProductID,
		Description: in.Description,
		Unit:        unit,
		Quantity:    in.Quantity,
		Factor:      in.Factor,
		UnitPrice:   in.UnitPrice,
		VATRate:     in.VATRate,
	}, nil
}

func nextPosition(lines []entity.LineItem) int {
	pos := 0
	for i := range lines {
		if lines[i].Position > pos {
			pos = lines[i].Position
		}
	}
	return pos + 1
}
