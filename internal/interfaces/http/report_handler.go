package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
)

// ReportHandler reportes netos de ventas (protegido).
type ReportHandler struct {
	uc ReportService
}

// NewReportHandler construye el handler.
func NewReportHandler(uc ReportService) *ReportHandler {
	return &ReportHandler{uc: uc}
}

// Get ejecuta el reporte :key; format=csv|xlsx lo devuelve como archivo.
// GET /api/reports/:key?from&to&granularity[&format=csv|xlsx][&charset=windows-1252]
func (h *ReportHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var q dto.ReportQuery
	if ok, err := parseQuery(c, &q); !ok {
		return err
	}
	key := c.Params("key")

	if q.Format == "csv" || q.Format == "xlsx" {
		data, filename, contentType, err := h.uc.Export(c.Context(), companyID, key, q)
		if err != nil {
			return respondError(c, err)
		}
		c.Attachment(filename)
		c.Set(fiber.HeaderContentType, contentType)
		return c.Send(data)
	}

	r, err := h.uc.Run(c.Context(), companyID, key, q)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r)
}
