package pricing

import (
	"fmt"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/shopspring/decimal"
)

// LineInput datos de una línea nueva antes de valorizar.
// Factor, UnitPrice y VATRate son opcionales; si no vienen se toman del producto o del documento.
type LineInput struct {
	ProductID   string
	Description string
	Unit        entity.Unit
	Quantity    decimal.Decimal
	Factor      decimal.NullDecimal
	UnitPrice   decimal.NullDecimal // precio unitario sin IVA
	VATRate     decimal.NullDecimal
}

// LinePricer arma líneas valorizadas a partir de producto + cantidad digitada.
type LinePricer struct {
	converter UnitConverter
}

// NewLinePricer construye el valorizador de líneas.
func NewLinePricer(converter UnitConverter) *LinePricer {
	return &LinePricer{converter: converter}
}

// Build convierte la unidad y valoriza la línea.
//
// Errores: ErrMissingProduct si product es nil, ErrMissingPrice si no hay precio sin IVA positivo,
// ErrInvalidQuantity / ErrInvalidUnit desde el conversor, ErrInvalidInput si la tasa es negativa.
func (p *LinePricer) Build(product *entity.Product, in LineInput, documentVAT decimal.Decimal) (entity.LineItem, error) {
	if product == nil {
		return entity.LineItem{}, fmt.Errorf("%w: %s", domain.ErrMissingProduct, in.ProductID)
	}

	unit := in.Unit
	if unit == "" {
		unit = product.DefaultUnit
	}
	if unit == "" {
		unit = entity.UnitPcs
	}
	conv, err := p.converter.Convert(unit, in.Quantity, in.Factor, productFactor(product, unit))
	if err != nil {
		return entity.LineItem{}, err
	}

	price := product.SellingPrice
	if in.UnitPrice.Valid {
		if in.UnitPrice.Decimal.IsNegative() {
			return entity.LineItem{}, fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidInput)
		}
		if in.UnitPrice.Decimal.IsPositive() {
			price = in.UnitPrice.Decimal
		}
	}
	if !price.IsPositive() {
		return entity.LineItem{}, fmt.Errorf("%w: %s", domain.ErrMissingPrice, product.ID)
	}

	rate := documentVAT
	if in.VATRate.Valid {
		rate = in.VATRate.Decimal
	}
	if rate.IsNegative() {
		return entity.LineItem{}, fmt.Errorf("%w: tasa de IVA negativa", domain.ErrInvalidInput)
	}

	description := in.Description
	if description == "" {
		description = product.Name
	}

	return Price(entity.LineItem{
		ProductID:        product.ID,
		Description:      description,
		Unit:             conv.Unit,
		EnteredQuantity:  conv.Entered,
		Factor:           conv.Factor,
		Quantity:         conv.Quantity,
		UnitPriceExclVAT: price,
		VATRate:          rate,
	}), nil
}

// Price recalcula los campos derivados de una línea a partir de Quantity, UnitPriceExclVAT y VATRate.
//
//	unit_vat  = round2(unit_excl * rate / 100)
//	unit_incl = round2(unit_excl + unit_vat)
//	total     = round2(qty * unit_incl)
func Price(line entity.LineItem) entity.LineItem {
	line.UnitVAT = money.Round2(money.Percent(line.UnitPriceExclVAT, line.VATRate))
	line.UnitPriceInclVAT = money.Round2(line.UnitPriceExclVAT.Add(line.UnitVAT))
	line.LineTotal = money.Round2(line.Quantity.Mul(line.UnitPriceInclVAT))
	return line
}

// Reprice cambia la tasa de IVA de la línea y recalcula sus derivados.
func Reprice(line entity.LineItem, rate decimal.Decimal) entity.LineItem {
	line.VATRate = rate
	return Price(line)
}

func productFactor(product *entity.Product, unit entity.Unit) decimal.Decimal {
	switch unit {
	case entity.UnitBox:
		return product.UnitsPerBox
	case entity.UnitBag:
		return product.KgPerBag
	}
	return decimal.Zero
}
