package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto vendible.
// SellingPrice es el precio unitario sin IVA; UnitsPerBox y KgPerBag alimentan la conversión de unidades.
type Product struct {
	ID           string
	CompanyID    string
	SKU          string // código único por empresa
	Name         string
	SellingPrice decimal.Decimal // precio de venta sin IVA
	UnitsPerBox  decimal.Decimal // 0 = sin presentación en caja
	KgPerBag     decimal.Decimal // 0 = usar el valor por defecto (25 kg)
	DefaultUnit  Unit
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
