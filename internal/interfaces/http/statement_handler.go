package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain/ledger"
)

// maxBatchCustomers tope de clientes por petición en GET /api/statements.
const maxBatchCustomers = 50

// StatementHandler estados de cuenta de clientes (protegido).
type StatementHandler struct {
	uc StatementService
}

// NewStatementHandler construye el handler.
func NewStatementHandler(uc StatementService) *StatementHandler {
	return &StatementHandler{uc: uc}
}

// Get estado de cuenta de un cliente; format=pdf devuelve el documento imprimible.
// GET /api/customers/:id/statement?from=YYYY-MM-DD&to=YYYY-MM-DD[&format=pdf]
func (h *StatementHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var q dto.StatementQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	from, to, err := ledger.ParseWindow(q.From, q.To)
	if err != nil {
		return respondError(c, err)
	}
	customerID := c.Params("id")

	if q.Format == "pdf" {
		data, filename, err := h.uc.StatementPDF(c.Context(), companyID, customerID, from, to)
		if err != nil {
			return respondError(c, err)
		}
		c.Attachment(filename)
		c.Set(fiber.HeaderContentType, "application/pdf")
		return c.Send(data)
	}

	st, err := h.uc.GetStatement(c.Context(), companyID, customerID, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(st)
}

// List estados de cuenta de varios clientes en paralelo.
// GET /api/statements?customer_ids=a,b,c&from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *StatementHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var q dto.StatementQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	var ids []string
	for _, id := range strings.Split(c.Query("customer_ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 || len(ids) > maxBatchCustomers {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "customer_ids: entre 1 y 50 clientes"})
	}
	from, to, err := ledger.ParseWindow(q.From, q.To)
	if err != nil {
		return respondError(c, err)
	}
	list, err := h.uc.GetStatements(c.Context(), companyID, ids, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}
