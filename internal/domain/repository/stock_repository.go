package repository

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// StockRepository puerto de persistencia para saldos por tienda.
// Los métodos *ForUpdate deben ejecutarse dentro de una transacción y mantener el bloqueo
// hasta el commit: leer saldo -> calcular -> escribir saldo -> escribir libro.
type StockRepository interface {
	// Get devuelve nil, nil si no hay fila.
	Get(ctx context.Context, storeID, variantID string) (*entity.StoreStock, error)
	// GetOrCreateForUpdate bloquea la fila (creándola en cero si no existe).
	GetOrCreateForUpdate(ctx context.Context, storeID, variantID string) (*entity.StoreStock, error)
	// ListForUpdate bloquea las filas existentes; la clave del mapa es VariantID.
	ListForUpdate(ctx context.Context, storeID string, variantIDs []string) (map[string]*entity.StoreStock, error)
	// ListCountedForUpdate filas con conteo físico pendiente.
	ListCountedForUpdate(ctx context.Context, storeID string) ([]*entity.StoreStock, error)
	Create(ctx context.Context, stock *entity.StoreStock) error
	Update(ctx context.Context, stock *entity.StoreStock) error
	DeleteByProduct(ctx context.Context, productID string) error
	DeleteByBrand(ctx context.Context, brandID string) (int, error)
}

// StockHistoryRepository libro de stock: solo inserción.
type StockHistoryRepository interface {
	Append(ctx context.Context, entry *entity.StockHistory) error
	AppendBatch(ctx context.Context, entries []*entity.StockHistory) error
	// ListByStoreVariant en orden temporal (inserción como desempate).
	ListByStoreVariant(ctx context.Context, storeID, variantID string) ([]*entity.StockHistory, error)
	// DeleteByBrand solo lo usa el rebuild completo de la marca.
	DeleteByBrand(ctx context.Context, brandID string) (int, error)
}
