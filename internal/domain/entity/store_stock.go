package entity

import "time"

// StoreStock es el saldo actual de una variante en una tienda.
// ActualStock es el conteo físico capturado en auditoría (nil si no hay conteo pendiente).
type StoreStock struct {
	ID          string
	StoreID     string
	VariantID   string
	Quantity    int
	ActualStock *int
	UpdatedAt   time.Time
}

// Diff devuelve conteo - saldo; false si no hay conteo registrado.
func (s *StoreStock) Diff() (int, bool) {
	if s.ActualStock == nil {
		return 0, false
	}
	return *s.ActualStock - s.Quantity, true
}
