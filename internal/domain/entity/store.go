package entity

import "time"

// Store representa una tienda física (ubicación de stock) de una marca.
type Store struct {
	ID        string
	BrandID   string
	Name      string
	CreatedAt time.Time
}
