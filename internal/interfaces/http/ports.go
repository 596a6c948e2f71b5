package http

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain/pricing"
)

// InvoiceService operaciones de facturas que expone la API (billing.InvoiceUseCase).
type InvoiceService interface {
	GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error)
	Recompute(ctx context.Context, companyID, id string, mode pricing.RecomputeMode) (*dto.InvoiceResponse, error)
	ApplyDiscount(ctx context.Context, companyID, id string, discountPct decimal.Decimal, autoRecalc bool) (*dto.InvoiceResponse, error)
	SetVATPercent(ctx context.Context, companyID, id string, vatPct decimal.Decimal) (*dto.InvoiceResponse, error)
	AddLine(ctx context.Context, companyID, invoiceID string, in dto.LineRequest) (*dto.InvoiceResponse, error)
	RemoveLine(ctx context.Context, companyID, invoiceID, lineID string) (*dto.InvoiceResponse, error)
	RecordPayment(ctx context.Context, companyID, invoiceID string, in dto.PaymentRequest) (*dto.PaymentResponse, error)
	VoidInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error)
}

// CreditNoteService operaciones de notas crédito (billing.CreditNoteUseCase).
type CreditNoteService interface {
	AddLine(ctx context.Context, companyID, creditNoteID string, in dto.LineRequest) (*dto.CreditNoteResponse, error)
	Issue(ctx context.Context, companyID, creditNoteID string) (*dto.CreditNoteResponse, error)
	Void(ctx context.Context, companyID, creditNoteID string) (*dto.CreditNoteResponse, error)
}

// StatementService estados de cuenta (statement.UseCase).
type StatementService interface {
	GetStatement(ctx context.Context, companyID, customerID string, from, to time.Time) (*dto.StatementResponse, error)
	GetStatements(ctx context.Context, companyID string, customerIDs []string, from, to time.Time) ([]*dto.StatementResponse, error)
	StatementPDF(ctx context.Context, companyID, customerID string, from, to time.Time) ([]byte, string, error)
}

// ReportService reportes netos (reporting.UseCase).
type ReportService interface {
	Run(ctx context.Context, companyID, key string, q dto.ReportQuery) (*dto.ReportResponse, error)
	Export(ctx context.Context, companyID, key string, q dto.ReportQuery) ([]byte, string, string, error)
}
