package catalog

import (
	"context"
	"io"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

// TenantLocker el mismo bloqueo de marca que usan las importaciones masivas.
type TenantLocker = reconcile.TenantLocker

// CatalogTxRunner transacción con repositorios de catálogo, saldos, libro y ventas.
type CatalogTxRunner interface {
	RunCatalog(ctx context.Context, fn func(
		productRepo repository.ProductRepository,
		variantRepo repository.VariantRepository,
		stockRepo repository.StockRepository,
		historyRepo repository.StockHistoryRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// CatalogWriter serializa la exportación del catálogo (xlsx).
type CatalogWriter interface {
	WriteCatalog(w io.Writer, rows []ExportRow) error
}
