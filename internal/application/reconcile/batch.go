package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/inventory"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

type batchTx struct {
	products repository.ProductRepository
	variants repository.VariantRepository
	stocks   repository.StockRepository
	history  repository.StockHistoryRepository
}

type resolved struct {
	rec     importer.Record
	variant *entity.Variant
}

func (e *Engine) applyBatch(ctx context.Context, tx batchTx, req Request, batch []importer.Record, res *Result) error {
	now := e.now()

	products, err := e.stageProducts(ctx, tx, req, batch, now, res)
	if err != nil {
		return err
	}

	codes := make([]string, 0, len(batch))
	for _, rec := range batch {
		codes = append(codes, rec.CodeCleaned)
	}
	existing, err := tx.variants.FindByCodes(ctx, req.BrandID, codes)
	if err != nil {
		return fmt.Errorf("buscar variantes: %w", err)
	}

	var created, updated []*entity.Variant
	pairs := make([]resolved, 0, len(batch))
	for _, rec := range batch {
		v, ok := existing[rec.CodeCleaned]
		if !ok {
			p := products[rec.ProductNumberCleaned]
			if rec.BarcodeOnly || !req.AllowCreate || p == nil {
				res.Skipped++
				continue
			}
			v = newVariant(p, rec, req.Mode, now)
			created = append(created, v)
		} else if applyVariantUpdate(v, rec, req.Mode, now) {
			updated = append(updated, v)
		}
		pairs = append(pairs, resolved{rec: rec, variant: v})
	}
	if len(created) > 0 {
		if err := tx.variants.CreateBatch(ctx, created); err != nil {
			return fmt.Errorf("crear variantes: %w", err)
		}
	}
	if len(updated) > 0 {
		if err := tx.variants.UpdateBatch(ctx, updated); err != nil {
			return fmt.Errorf("actualizar variantes: %w", err)
		}
	}
	res.VariantsCreated += len(created)
	res.VariantsUpdated += len(updated)

	if req.Mode != ModeStore {
		return nil
	}
	return e.applyStoreBalances(ctx, tx, req, pairs, now, res)
}

func (e *Engine) stageProducts(ctx context.Context, tx batchTx, req Request, batch []importer.Record, now time.Time, res *Result) (map[string]*entity.Product, error) {
	numbers := make([]string, 0, len(batch))
	seen := make(map[string]bool, len(batch))
	for _, rec := range batch {
		if rec.BarcodeOnly || seen[rec.ProductNumberCleaned] {
			continue
		}
		seen[rec.ProductNumberCleaned] = true
		numbers = append(numbers, rec.ProductNumberCleaned)
	}
	if len(numbers) == 0 {
		return map[string]*entity.Product{}, nil
	}
	products, err := tx.products.FindByNumbers(ctx, req.BrandID, numbers)
	if err != nil {
		return nil, fmt.Errorf("buscar productos: %w", err)
	}
	if !req.AllowCreate {
		return products, nil
	}

	var staged []*entity.Product
	for _, rec := range batch {
		if rec.BarcodeOnly {
			continue
		}
		if _, ok := products[rec.ProductNumberCleaned]; ok {
			continue
		}
		p := newProduct(req.BrandID, rec, now)
		products[rec.ProductNumberCleaned] = p
		staged = append(staged, p)
	}
	if len(staged) > 0 {
		if err := tx.products.CreateBatch(ctx, staged); err != nil {
			return nil, fmt.Errorf("crear productos: %w", err)
		}
	}
	res.ProductsCreated += len(staged)
	return products, nil
}

// applyStoreBalances bloquea los saldos existentes del lote y escribe solo las diferencias,
// con un asiento EXCEL_UPLOAD por par (tienda, variante).
func (e *Engine) applyStoreBalances(ctx context.Context, tx batchTx, req Request, pairs []resolved, now time.Time, res *Result) error {
	ids := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if p.rec.HasQuantity {
			ids = append(ids, p.variant.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	balances, err := tx.stocks.ListForUpdate(ctx, req.StoreID, ids)
	if err != nil {
		return fmt.Errorf("bloquear saldos: %w", err)
	}

	m := inventory.Movement{
		StoreID: req.StoreID,
		Type:    entity.ChangeExcelUpload,
		ActorID: req.ActorID,
		Note:    "carga masiva",
		At:      now,
	}
	var entries []*entity.StockHistory
	for _, p := range pairs {
		if !p.rec.HasQuantity {
			continue
		}
		m.VariantID = p.variant.ID
		stock, ok := balances[p.variant.ID]
		if !ok {
			stock = &entity.StoreStock{ID: uuid.New().String(), StoreID: req.StoreID, VariantID: p.variant.ID}
			entries = append(entries, inventory.ApplyDelta(stock, p.rec.Quantity, m))
			if err := tx.stocks.Create(ctx, stock); err != nil {
				return fmt.Errorf("crear saldo: %w", err)
			}
			res.StocksCreated++
			continue
		}
		h := inventory.SetQuantity(stock, p.rec.Quantity, m)
		if h == nil {
			continue
		}
		if err := tx.stocks.Update(ctx, stock); err != nil {
			return fmt.Errorf("actualizar saldo: %w", err)
		}
		entries = append(entries, h)
		res.StocksUpdated++
	}
	if len(entries) == 0 {
		return nil
	}
	for _, h := range entries {
		h.ID = uuid.New().String()
	}
	if err := tx.history.AppendBatch(ctx, entries); err != nil {
		return fmt.Errorf("registrar libro: %w", err)
	}
	res.LedgerEntries += len(entries)
	return nil
}

func newProduct(brandID string, rec importer.Record, now time.Time) *entity.Product {
	return &entity.Product{
		ID:                   uuid.New().String(),
		BrandID:              brandID,
		ProductNumber:        rec.ProductNumber,
		Name:                 rec.ProductName,
		ReleaseYear:          rec.ReleaseYear,
		ItemCategory:         rec.Category,
		IsFavorite:           rec.Favorite,
		ProductNumberCleaned: rec.ProductNumberCleaned,
		NameCleaned:          rec.NameCleaned,
		NameInitials:         rec.NameInitials,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func newVariant(p *entity.Product, rec importer.Record, mode Mode, now time.Time) *entity.Variant {
	v := &entity.Variant{
		ID:             uuid.New().String(),
		ProductID:      p.ID,
		Barcode:        rec.Code,
		BarcodeCleaned: rec.CodeCleaned,
		Color:          rec.Color,
		ColorCleaned:   rec.ColorCleaned,
		Size:           rec.Size,
		SizeCleaned:    rec.SizeCleaned,
		OriginalPrice:  rec.OriginalPrice,
		SalePrice:      rec.SalePrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if mode != ModeStore && rec.HasQuantity {
		v.HQQuantity = rec.Quantity
	}
	return v
}

// applyVariantUpdate: precios solo si el valor entrante es positivo (cero = no informado);
// en modo hq la cantidad de casa matriz se fija en valor absoluto.
func applyVariantUpdate(v *entity.Variant, rec importer.Record, mode Mode, now time.Time) bool {
	changed := false
	if rec.OriginalPrice.IsPositive() && !rec.OriginalPrice.Equal(v.OriginalPrice) {
		v.OriginalPrice = rec.OriginalPrice
		changed = true
	}
	if rec.SalePrice.IsPositive() && !rec.SalePrice.Equal(v.SalePrice) {
		v.SalePrice = rec.SalePrice
		changed = true
	}
	if mode == ModeHQ && rec.HasQuantity && v.HQQuantity != rec.Quantity {
		v.HQQuantity = rec.Quantity
		changed = true
	}
	if changed {
		v.UpdatedAt = now
	}
	return changed
}
