package repository

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// FindByNumbers resuelve en bloque por número normalizado dentro de la marca.
	// La clave del mapa es ProductNumberCleaned.
	FindByNumbers(ctx context.Context, brandID string, cleaned []string) (map[string]*entity.Product, error)
	CreateBatch(ctx context.Context, products []*entity.Product) error
	// Search busca por número normalizado, nombre normalizado o iniciales fonéticas.
	Search(ctx context.Context, brandID, key string, limit int) ([]*entity.Product, error)
	ListByBrand(ctx context.Context, brandID string) ([]*entity.Product, error)
	Delete(ctx context.Context, id string) error
	DeleteByBrand(ctx context.Context, brandID string) (int, error)
}
