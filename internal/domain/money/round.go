// Package money reúne las reglas de redondeo de la cartera.
//
// Regla única: mitad alejándose de cero, 2 decimales para dinero y 3 para cantidades.
// decimal.Decimal.Round ya implementa ese modo, así que aquí solo se fijan las escalas.
package money

import "github.com/shopspring/decimal"

const (
	MoneyPlaces    int32 = 2
	QuantityPlaces int32 = 3
)

var Hundred = decimal.NewFromInt(100)

// Round2 redondea un monto a centavos.
func Round2(d decimal.Decimal) decimal.Decimal { return d.Round(MoneyPlaces) }

// Round3 redondea una cantidad a milésimas.
func Round3(d decimal.Decimal) decimal.Decimal { return d.Round(QuantityPlaces) }

// NonNegative devuelve d, o cero si d es negativo.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Percent devuelve base * pct / 100 sin redondear.
// Shift(-2) divide entre 100 de forma exacta, sin la precisión limitada de Div.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Shift(-2)
}

// Sum suma los valores sin redondeo intermedio.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
