package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreditNoteStatus estado de una nota crédito.
type CreditNoteStatus string

const (
	CreditNoteStatusDraft  CreditNoteStatus = "DRAFT"
	CreditNoteStatusIssued CreditNoteStatus = "ISSUED"
	CreditNoteStatusVoid   CreditNoteStatus = "VOID"
)

// CreditNote cabecera de una nota crédito (devolución o ajuste).
// Siempre reduce la posición neta del cliente y nunca lleva descuento.
type CreditNote struct {
	ID              string
	CompanyID       string
	CustomerID      string
	SalesRepID      string
	LinkedInvoiceID string // opcional
	Number          string
	Date            time.Time
	Status          CreditNoteStatus
	Subtotal        decimal.Decimal
	VATAmount       decimal.Decimal
	Total           decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Reference identificador legible para estados de cuenta.
func (c *CreditNote) Reference() string {
	if c.Number != "" {
		return c.Number
	}
	return c.ID
}

// Counts indica si la nota participa en cartera y reportes.
func (c *CreditNote) Counts() bool {
	return c.Status == CreditNoteStatusIssued
}
