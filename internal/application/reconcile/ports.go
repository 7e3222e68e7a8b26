package reconcile

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

// CatalogTxRunner ejecuta fn dentro de una transacción con los repositorios de catálogo,
// saldos, libro y ventas atados a ella. Cada lote de la reconciliación es una llamada.
type CatalogTxRunner interface {
	RunCatalog(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		variantRepo repository.VariantRepository,
		stockRepo repository.StockRepository,
		historyRepo repository.StockHistoryRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// TenantLocker concede acceso exclusivo al subárbol de catálogo de una marca.
// Si otro proceso ya lo tiene, devuelve domain.ErrConflict.
type TenantLocker interface {
	Lock(ctx context.Context, brandID string) (Lease, error)
}

// Lease bloqueo obtenido; Release es idempotente.
type Lease interface {
	Release(ctx context.Context) error
}
