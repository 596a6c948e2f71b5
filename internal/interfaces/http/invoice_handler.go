package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
)

// InvoiceHandler maneja totales, líneas, abonos y anulación de facturas (protegido).
type InvoiceHandler struct {
	uc InvoiceService
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// GetByID factura con totales y líneas.
// GET /api/invoices/:id
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	inv, err := h.uc.GetInvoice(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// Recompute recalcula los totales desde las líneas.
// POST /api/invoices/:id/recompute
func (h *InvoiceHandler) Recompute(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.RecomputeRequest
	if len(c.Body()) > 0 {
		if ok, err := parseBody(c, &in); !ok {
			return err
		}
	}
	if in.Mode == "" {
		in.Mode = "base"
	}
	mode, err := pricing.ParseRecomputeMode(in.Mode)
	if err != nil {
		return respondError(c, err)
	}
	inv, err := h.uc.Recompute(c.Context(), companyID, c.Params("id"), mode)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// ApplyDiscount aplica un descuento porcentual repartido por línea.
// POST /api/invoices/:id/discount
func (h *InvoiceHandler) ApplyDiscount(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.DiscountRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	inv, err := h.uc.ApplyDiscount(c.Context(), companyID, c.Params("id"), in.DiscountPercent, in.AutoRecalc)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// SetVAT cambia el IVA de la factura.
// PUT /api/invoices/:id/vat
func (h *InvoiceHandler) SetVAT(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.VATRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	inv, err := h.uc.SetVATPercent(c.Context(), companyID, c.Params("id"), in.VATPercent)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// AddLine agrega una línea valorizada y recalcula.
// POST /api/invoices/:id/lines
func (h *InvoiceHandler) AddLine(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.LineRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	inv, err := h.uc.AddLine(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inv)
}

// RemoveLine elimina una línea y recalcula.
// DELETE /api/invoices/:id/lines/:lineId
func (h *InvoiceHandler) RemoveLine(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	inv, err := h.uc.RemoveLine(c.Context(), companyID, c.Params("id"), c.Params("lineId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}

// RecordPayment registra un abono.
// POST /api/invoices/:id/payments
func (h *InvoiceHandler) RecordPayment(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.PaymentRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	p, err := h.uc.RecordPayment(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Void anula la factura.
// POST /api/invoices/:id/void
func (h *InvoiceHandler) Void(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	inv, err := h.uc.VoidInvoice(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inv)
}
