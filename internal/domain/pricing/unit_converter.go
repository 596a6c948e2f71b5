// Package pricing contiene los servicios de dominio que valorizan líneas y documentos:
// conversión de unidades, precio por línea y totales de cabecera.
// Todas las funciones son puras: no leen ni escriben estado compartido.
package pricing

import (
	"fmt"
	"strings"

	"github.com/jhoicas/Cartera-api/internal/domain"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
	"github.com/jhoicas/Cartera-api/internal/domain/money"
	"github.com/shopspring/decimal"
)

var (
	// DefaultKgPerBag kg por bulto cuando ni la línea ni el producto lo definen.
	DefaultKgPerBag = decimal.NewFromInt(25)
	minKgPerBag     = decimal.RequireFromString("0.001")
	one             = decimal.NewFromInt(1)
)

// Conversion resultado de convertir la cantidad digitada a cantidad canónica.
type Conversion struct {
	Unit     entity.Unit
	Entered  decimal.Decimal
	Factor   decimal.Decimal
	Quantity decimal.Decimal
}

// UnitConverter resuelve BOX/PCS/KG/G/BAG a una cantidad canónica de valorización.
type UnitConverter struct {
	defaultKgPerBag decimal.Decimal
}

// NewUnitConverter construye el conversor. Un defaultKgPerBag no positivo usa 25 kg.
func NewUnitConverter(defaultKgPerBag decimal.Decimal) UnitConverter {
	if !defaultKgPerBag.IsPositive() {
		defaultKgPerBag = DefaultKgPerBag
	}
	return UnitConverter{defaultKgPerBag: defaultKgPerBag}
}

// ParseUnit normaliza el texto de la unidad. Vacío equivale a PCS.
func ParseUnit(s string) (entity.Unit, error) {
	u := entity.Unit(strings.ToUpper(strings.TrimSpace(s)))
	switch u {
	case "":
		return entity.UnitPcs, nil
	case entity.UnitBox, entity.UnitPcs, entity.UnitKg, entity.UnitG, entity.UnitBag:
		return u, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidUnit, s)
}

// Convert calcula la cantidad canónica.
//
//	BOX: factor = unidades por caja truncado a entero (mínimo 1); qty = digitado × factor
//	BAG: factor = kg por bulto (defecto 25, mínimo 0.001);        qty = digitado × factor
//	PCS/KG/G: qty = digitado
//
// override tiene prioridad sobre productDefault cuando es válido y positivo.
// La cantidad resultante se redondea a 3 decimales.
func (c UnitConverter) Convert(unit entity.Unit, entered decimal.Decimal, override decimal.NullDecimal, productDefault decimal.Decimal) (Conversion, error) {
	if !entered.IsPositive() {
		return Conversion{}, fmt.Errorf("%w: %s", domain.ErrInvalidQuantity, entered.String())
	}

	factor := one
	switch unit {
	case entity.UnitBox:
		factor = pickFactor(override, productDefault, one).Truncate(0)
		if factor.LessThan(one) {
			factor = one
		}
	case entity.UnitBag:
		factor = money.Round3(pickFactor(override, productDefault, c.defaultKgPerBag))
		if factor.LessThan(minKgPerBag) {
			factor = minKgPerBag
		}
	case entity.UnitPcs, entity.UnitKg, entity.UnitG:
	default:
		return Conversion{}, fmt.Errorf("%w: %q", domain.ErrInvalidUnit, string(unit))
	}

	return Conversion{
		Unit:     unit,
		Entered:  entered,
		Factor:   factor,
		Quantity: money.Round3(entered.Mul(factor)),
	}, nil
}

func pickFactor(override decimal.NullDecimal, productDefault, fallback decimal.Decimal) decimal.Decimal {
	if override.Valid && override.Decimal.IsPositive() {
		return override.Decimal
	}
	if productDefault.IsPositive() {
		return productDefault
	}
	return fallback
}
