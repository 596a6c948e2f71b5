package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Precios y cantidades.
	ErrInvalidQuantity = errors.New("cantidad inválida: debe ser mayor que cero")
	ErrInvalidUnit     = errors.New("unidad de medida desconocida")
	ErrMissingProduct  = errors.New("la línea referencia un producto inexistente")
	ErrMissingPrice    = errors.New("el producto no tiene precio sin IVA")

	// Consultas de cartera y reportes.
	ErrInvalidDateRange = errors.New("rango de fechas inválido: from es posterior a to")

	// Ciclo de vida de documentos.
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrDocumentLocked    = errors.New("el documento está siendo modificado por otra operación")
)
