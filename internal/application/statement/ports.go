package statement

import (
	"context"

	"github.com/jhoicas/Cartera-api/internal/application/dto"
	"github.com/jhoicas/Cartera-api/internal/domain/entity"
)

// PDFRenderer genera la representación impresa de un estado de cuenta.
// La implementación concreta vive en infrastructure/pdf (maroto).
type PDFRenderer interface {
	RenderStatement(ctx context.Context, customer *entity.Customer, st *dto.StatementResponse) ([]byte, error)
}
