package entity

import "time"

// Customer representa un cliente de la empresa (cartera).
type Customer struct {
	ID         string
	CompanyID  string
	Name       string
	TaxID      string
	Email      string
	Phone      string
	Address    string
	SalesRepID string // vendedor asignado por defecto
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
