package repository

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// StoreRepository puerto de lectura para tiendas (ubicaciones de stock).
type StoreRepository interface {
	// GetByID devuelve nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Store, error)
	ListByBrand(ctx context.Context, brandID string) ([]*entity.Store, error)
}
