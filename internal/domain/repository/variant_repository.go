package repository

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// VariantRepository puerto de persistencia para variantes (SKU).
type VariantRepository interface {
	// GetWithProduct devuelve nil, nil si la variante no existe.
	GetWithProduct(ctx context.Context, id string) (*entity.VariantWithProduct, error)
	// FindByCodes resuelve en bloque por BarcodeCleaned dentro de la marca.
	FindByCodes(ctx context.Context, brandID string, codes []string) (map[string]*entity.Variant, error)
	ListByProduct(ctx context.Context, productID string) ([]*entity.Variant, error)
	CreateBatch(ctx context.Context, variants []*entity.Variant) error
	// UpdateBatch persiste precios y HQQuantity.
	UpdateBatch(ctx context.Context, variants []*entity.Variant) error
	DeleteByProduct(ctx context.Context, productID string) error
	DeleteByBrand(ctx context.Context, brandID string) (int, error)
}
