package entity

import "github.com/shopspring/decimal"

// Unit unidad de medida con la que se digitó la cantidad de una línea.
type Unit string

const (
	UnitBox Unit = "BOX" // caja: cantidad × unidades por caja
	UnitPcs Unit = "PCS"
	UnitKg  Unit = "KG"
	UnitG   Unit = "G"
	UnitBag Unit = "BAG" // bulto: cantidad × kg por bulto
)

// LineItem representa una línea valorizada de una factura o de una nota crédito.
// DocumentID apunta a la cabecera (invoices.id o credit_notes.id).
//
// Invariantes:
//
//	LineTotal        == round2(Quantity * UnitPriceInclVAT)
//	UnitPriceInclVAT == round2(UnitPriceExclVAT + UnitVAT)
type LineItem struct {
	ID               string
	DocumentID       string
	ProductID        string
	Description      string
	Unit             Unit
	EnteredQuantity  decimal.Decimal // cantidad tal como la digitó el usuario
	Factor           decimal.Decimal // unidades por caja o kg por bulto; 1 para PCS/KG/G
	Quantity         decimal.Decimal // cantidad canónica usada para valorizar
	UnitPriceExclVAT decimal.Decimal
	VATRate          decimal.Decimal // porcentaje, ej. 15 = 15%
	UnitVAT          decimal.Decimal
	UnitPriceInclVAT decimal.Decimal
	LineTotal        decimal.Decimal
	Position         int
}

// ExclVATAmount devuelve Quantity * UnitPriceExclVAT sin redondear.
func (l LineItem) ExclVATAmount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPriceExclVAT)
}
