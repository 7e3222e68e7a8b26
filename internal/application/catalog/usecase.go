// Package catalog mantenimiento del catálogo: búsqueda, listado ordenado de variantes,
// borrado con control de integridad y exportación.
package catalog

import (
	"context"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	skucodec "github.com/Mingdezzi/FLOWORK-BETA/internal/domain/catalog"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 200
)

// UseCase casos de uso de catálogo.
type UseCase struct {
	txRunner     CatalogTxRunner
	locker       TenantLocker
	productRepo  repository.ProductRepository
	variantRepo  repository.VariantRepository
	settingsRepo repository.SettingsRepository
	writer       CatalogWriter
	log          *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner CatalogTxRunner,
	locker TenantLocker,
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	settingsRepo repository.SettingsRepository,
	writer CatalogWriter,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:     txRunner,
		locker:       locker,
		productRepo:  productRepo,
		variantRepo:  variantRepo,
		settingsRepo: settingsRepo,
		writer:       writer,
		log:          log,
	}
}

func (uc *UseCase) product(ctx context.Context, brandID, productID string) (*entity.Product, error) {
	p, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.BrandID != brandID {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return p, nil
}

// DeleteProduct borra saldos, variantes y producto. Falla con ErrIntegrity si alguna
// línea de venta aún referencia sus variantes. El libro queda intacto.
// Toma el bloqueo de la marca; con una importación en curso devuelve ErrConflict.
func (uc *UseCase) DeleteProduct(ctx context.Context, brandID, productID string) error {
	p, err := uc.product(ctx, brandID, productID)
	if err != nil {
		return err
	}
	lease, err := uc.locker.Lock(ctx, brandID)
	if err != nil {
		return fmt.Errorf("bloqueo de marca: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			uc.log.Warn().Err(err).Str("brand_id", brandID).Msg("no se pudo liberar el bloqueo de marca")
		}
	}()
	err = uc.txRunner.RunCatalog(ctx, func(
		productRepo repository.ProductRepository,
		variantRepo repository.VariantRepository,
		stockRepo repository.StockRepository,
		_ repository.StockHistoryRepository,
		saleRepo repository.SaleRepository,
	) error {
		refs, err := saleRepo.CountProductReferences(ctx, p.ID)
		if err != nil {
			return err
		}
		if refs > 0 {
			return fmt.Errorf("producto %s en %d líneas de venta: %w", p.ProductNumber, refs, domain.ErrIntegrity)
		}
		if err := stockRepo.DeleteByProduct(ctx, p.ID); err != nil {
			return err
		}
		if err := variantRepo.DeleteByProduct(ctx, p.ID); err != nil {
			return err
		}
		return productRepo.Delete(ctx, p.ID)
	})
	if err != nil {
		return err
	}
	uc.log.Info().Str("brand_id", brandID).Str("product_id", p.ID).Str("product_number", p.ProductNumber).Msg("producto eliminado")
	return nil
}

// DetachProduct anula las referencias de líneas de venta a las variantes del producto.
// Los datos congelados mantienen legibles los recibos.
func (uc *UseCase) DetachProduct(ctx context.Context, brandID, productID string) (int, error) {
	p, err := uc.product(ctx, brandID, productID)
	if err != nil {
		return 0, err
	}
	var n int
	err = uc.txRunner.RunCatalog(ctx, func(
		_ repository.ProductRepository,
		_ repository.VariantRepository,
		_ repository.StockRepository,
		_ repository.StockHistoryRepository,
		saleRepo repository.SaleRepository,
	) error {
		var err error
		n, err = saleRepo.DetachProduct(ctx, p.ID)
		return err
	})
	if err != nil {
		return 0, err
	}
	uc.log.Info().Str("product_id", p.ID).Int("sale_items", n).Msg("producto desvinculado del historial")
	return n, nil
}

func (uc *UseCase) sizeOrder(ctx context.Context, brandID string) (skucodec.SizeOrder, error) {
	raw, _, err := uc.settingsRepo.Get(ctx, brandID, repository.SettingSizeSortOrder)
	if err != nil {
		return nil, err
	}
	return skucodec.ParseSizeOrder(raw), nil
}

// ListVariants variantes del producto ordenadas por color y talla.
func (uc *UseCase) ListVariants(ctx context.Context, brandID, productID string) ([]*entity.Variant, error) {
	p, err := uc.product(ctx, brandID, productID)
	if err != nil {
		return nil, err
	}
	variants, err := uc.variantRepo.ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	order, err := uc.sizeOrder(ctx, brandID)
	if err != nil {
		return nil, err
	}
	skucodec.SortVariants(variants, p.ProductNumber, order)
	return variants, nil
}

// Search busca por número, nombre o iniciales (초성) normalizados.
func (uc *UseCase) Search(ctx context.Context, brandID, query string, limit int) ([]*entity.Product, error) {
	key := skucodec.NormalizeKey(query)
	if key == "" {
		return nil, fmt.Errorf("%w: búsqueda vacía", domain.ErrInvalidInput)
	}
	switch {
	case limit <= 0:
		limit = DefaultSearchLimit
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}
	return uc.productRepo.Search(ctx, brandID, key, limit)
}

// ExportRow fila de la exportación del catálogo.
type ExportRow struct {
	ProductNumber string
	ProductName   string
	Category      string
	ReleaseYear   *int
	Color         string
	Size          string
	Barcode       string
	OriginalPrice decimal.Decimal
	SalePrice     decimal.Decimal
	HQQuantity    int
}

// ExportCatalog escribe todos los productos y variantes de la marca.
func (uc *UseCase) ExportCatalog(ctx context.Context, brandID string, w io.Writer) error {
	products, err := uc.productRepo.ListByBrand(ctx, brandID)
	if err != nil {
		return err
	}
	order, err := uc.sizeOrder(ctx, brandID)
	if err != nil {
		return err
	}
	var rows []ExportRow
	for _, p := range products {
		variants, err := uc.variantRepo.ListByProduct(ctx, p.ID)
		if err != nil {
			return err
		}
		skucodec.SortVariants(variants, p.ProductNumber, order)
		for _, v := range variants {
			rows = append(rows, ExportRow{
				ProductNumber: p.ProductNumber,
				ProductName:   p.Name,
				Category:      p.ItemCategory,
				ReleaseYear:   p.ReleaseYear,
				Color:         v.Color,
				Size:          v.Size,
				Barcode:       v.Barcode,
				OriginalPrice: v.OriginalPrice,
				SalePrice:     v.SalePrice,
				HQQuantity:    v.HQQuantity,
			})
		}
	}
	if err := uc.writer.WriteCatalog(w, rows); err != nil {
		return fmt.Errorf("exportar catálogo: %w", err)
	}
	uc.log.Info().Str("brand_id", brandID).Int("rows", len(rows)).Msg("catálogo exportado")
	return nil
}
