package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrDuplicate       = errors.New("recurso duplicado")
	ErrUnauthorized    = errors.New("no autorizado")
	ErrForbidden       = errors.New("acceso denegado")
	ErrConflict        = errors.New("conflicto con el estado actual")
	ErrAlreadyRefunded = errors.New("la venta ya fue reembolsada")
	// ErrIntegrity: el borrado rompería historial de ventas; requiere un detach explícito.
	ErrIntegrity = errors.New("registro referenciado por historial de ventas")
)
