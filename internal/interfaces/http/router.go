package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cartera-api/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Invoices    InvoiceService
	CreditNotes CreditNoteService
	Statements  StatementService
	Reports     ReportService
	JWTSecret   string
	JWTIssuer   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	anyRole := RequireRole(jwt.RoleAdmin, jwt.RoleCartera, jwt.RoleVendedor, jwt.RoleAuditor)
	editors := RequireRole(jwt.RoleAdmin, jwt.RoleVendedor)
	cartera := RequireRole(jwt.RoleAdmin, jwt.RoleCartera)
	readers := RequireRole(jwt.RoleAdmin, jwt.RoleCartera, jwt.RoleAuditor)
	adminOnly := RequireRole(jwt.RoleAdmin)

	// Facturas
	invoices := protected.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.Invoices)
	invoices.Get("/:id", anyRole, invoiceHandler.GetByID)
	invoices.Post("/:id/recompute", editors, invoiceHandler.Recompute)
	invoices.Post("/:id/discount", editors, invoiceHandler.ApplyDiscount)
	invoices.Put("/:id/vat", editors, invoiceHandler.SetVAT)
	invoices.Post("/:id/lines", editors, invoiceHandler.AddLine)
	invoices.Delete("/:id/lines/:lineId", editors, invoiceHandler.RemoveLine)
	invoices.Post("/:id/payments", cartera, invoiceHandler.RecordPayment)
	invoices.Post("/:id/void", adminOnly, invoiceHandler.Void)

	// Notas crédito
	creditNotes := protected.Group("/credit-notes")
	creditNoteHandler := NewCreditNoteHandler(deps.CreditNotes)
	creditNotes.Post("/:id/lines", cartera, creditNoteHandler.AddLine)
	creditNotes.Post("/:id/issue", cartera, creditNoteHandler.Issue)
	creditNotes.Post("/:id/void", adminOnly, creditNoteHandler.Void)

	// Estados de cuenta
	statementHandler := NewStatementHandler(deps.Statements)
	protected.Get("/customers/:id/statement", anyRole, statementHandler.Get)
	protected.Get("/statements", readers, statementHandler.List)

	// Reportes
	reportHandler := NewReportHandler(deps.Reports)
	protected.Get("/reports/:key", readers, reportHandler.Get)
}
