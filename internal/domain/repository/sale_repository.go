package repository

import (
	"context"
	"time"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// SaleRepository puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	// LockStore toma el bloqueo exclusivo de la tienda para asignar la secuencia diaria.
	// Devuelve domain.ErrNotFound si la tienda no existe.
	LockStore(ctx context.Context, storeID string) error
	NextDailyNumber(ctx context.Context, storeID string, date time.Time) (int, error)
	// Create inserta la venta y todas sus líneas.
	Create(ctx context.Context, sale *entity.Sale) error
	// GetByID devuelve nil, nil si no existe. Incluye las líneas.
	GetByID(ctx context.Context, id string) (*entity.Sale, error)
	// GetForUpdate igual que GetByID bloqueando la fila de la venta.
	GetForUpdate(ctx context.Context, id string) (*entity.Sale, error)
	// Update persiste estado y montos (no las líneas).
	Update(ctx context.Context, sale *entity.Sale) error
	UpdateItem(ctx context.Context, item *entity.SaleItem) error
	ListByStoreDate(ctx context.Context, storeID string, date time.Time) ([]*entity.Sale, error)
	// CountProductReferences líneas de venta que apuntan a variantes del producto.
	CountProductReferences(ctx context.Context, productID string) (int, error)
	// DetachProduct anula explícitamente la referencia a variantes del producto.
	DetachProduct(ctx context.Context, productID string) (int, error)
	DetachBrand(ctx context.Context, brandID string) (int, error)
}
