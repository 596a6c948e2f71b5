package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
)

// CreditNoteHandler maneja líneas, emisión y anulación de notas crédito (protegido).
type CreditNoteHandler struct {
	uc CreditNoteService
}

// NewCreditNoteHandler construye el handler.
func NewCreditNoteHandler(uc CreditNoteService) *CreditNoteHandler {
	return &CreditNoteHandler{uc: uc}
}

// AddLine POST /api/credit-notes/:id/lines
func (h *CreditNoteHandler) AddLine(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.LineRequest
	if ok, err := parseBody(c, &in); !ok {
		return err
	}
	cn, err := h.uc.AddLine(c.Context(), companyID, c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cn)
}

// Issue emite la nota y aplica el crédito a la factura vinculada.
// POST /api/credit-notes/:id/issue
func (h *CreditNoteHandler) Issue(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	cn, err := h.uc.Issue(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cn)
}

// Void POST /api/credit-notes/:id/void
func (h *CreditNoteHandler) Void(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	cn, err := h.uc.Void(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(cn)
}
