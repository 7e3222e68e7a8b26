// Package stock ajustes manuales, conteos de auditoría y consulta del libro de stock.
package stock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/inventory"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// UseCase operaciones de saldo fuera del punto de venta. Todas limitan el saldo a >= 0.
type UseCase struct {
	txRunner    TxRunner
	storeRepo   repository.StoreRepository
	variantRepo repository.VariantRepository
	historyRepo repository.StockHistoryRepository
	stockRepo   repository.StockRepository
	log         *logger.Logger
	now         func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner TxRunner,
	storeRepo repository.StoreRepository,
	variantRepo repository.VariantRepository,
	stockRepo repository.StockRepository,
	historyRepo repository.StockHistoryRepository,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		storeRepo:   storeRepo,
		variantRepo: variantRepo,
		stockRepo:   stockRepo,
		historyRepo: historyRepo,
		log:         log,
		now:         time.Now,
	}
}

// AdjustInput ajuste manual: Set fija el saldo, Delta lo modifica. Exactamente uno.
type AdjustInput struct {
	StoreID   string
	VariantID string
	ActorID   string
	Set       *int
	Delta     *int
	Note      string
}

// AdjustOutput saldo resultante.
type AdjustOutput struct {
	Quantity int  `json:"quantity"`
	Changed  bool `json:"changed"`
}

// checkScope verifica que tienda y variante existan y sean de la misma marca.
func (uc *UseCase) checkScope(ctx context.Context, storeID, variantID string) error {
	if strings.TrimSpace(storeID) == "" || strings.TrimSpace(variantID) == "" {
		return fmt.Errorf("%w: tienda y variante requeridas", domain.ErrInvalidInput)
	}
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("tienda %s: %w", storeID, domain.ErrNotFound)
	}
	vp, err := uc.variantRepo.GetWithProduct(ctx, variantID)
	if err != nil {
		return err
	}
	if vp == nil || vp.Product.BrandID != store.BrandID {
		return fmt.Errorf("variante %s: %w", variantID, domain.ErrNotFound)
	}
	return nil
}

// Adjust aplica un MANUAL_UPDATE. Sin cambio efectivo no se escribe el libro.
func (uc *UseCase) Adjust(ctx context.Context, in AdjustInput) (*AdjustOutput, error) {
	if (in.Set == nil) == (in.Delta == nil) {
		return nil, fmt.Errorf("%w: indique cantidad o variación", domain.ErrInvalidInput)
	}
	if err := uc.checkScope(ctx, in.StoreID, in.VariantID); err != nil {
		return nil, err
	}
	note := in.Note
	if note == "" {
		note = "ajuste manual"
	}

	var out AdjustOutput
	err := uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, historyRepo repository.StockHistoryRepository) error {
		stock, err := stockRepo.GetOrCreateForUpdate(ctx, in.StoreID, in.VariantID)
		if err != nil {
			return err
		}
		target := stock.Quantity
		if in.Set != nil {
			target = *in.Set
		} else {
			target += *in.Delta
		}
		h := inventory.SetQuantity(stock, inventory.Clamp(target), inventory.Movement{
			StoreID:   in.StoreID,
			VariantID: in.VariantID,
			Type:      entity.ChangeManualUpdate,
			ActorID:   in.ActorID,
			Note:      note,
			At:        uc.now(),
		})
		out = AdjustOutput{Quantity: stock.Quantity, Changed: h != nil}
		if h == nil {
			return nil
		}
		if err := stockRepo.Update(ctx, stock); err != nil {
			return err
		}
		return historyRepo.Append(ctx, h)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordCount guarda el conteo físico de auditoría. No toca el saldo ni el libro.
func (uc *UseCase) RecordCount(ctx context.Context, storeID, variantID string, counted int) error {
	if counted < 0 {
		return fmt.Errorf("%w: conteo negativo", domain.ErrInvalidInput)
	}
	if err := uc.checkScope(ctx, storeID, variantID); err != nil {
		return err
	}
	return uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, _ repository.StockHistoryRepository) error {
		stock, err := stockRepo.GetOrCreateForUpdate(ctx, storeID, variantID)
		if err != nil {
			return err
		}
		stock.ActualStock = &counted
		stock.UpdatedAt = uc.now()
		return stockRepo.Update(ctx, stock)
	})
}

// ApplyCountsOutput resumen de la aplicación de conteos.
type ApplyCountsOutput struct {
	Adjusted int `json:"adjusted"`
	Cleared  int `json:"cleared"`
}

// ApplyCounts lleva cada saldo con conteo pendiente al valor contado (CHECK_ADJUST)
// y limpia el conteo.
func (uc *UseCase) ApplyCounts(ctx context.Context, storeID, actorID string) (*ApplyCountsOutput, error) {
	store, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, fmt.Errorf("tienda %s: %w", storeID, domain.ErrNotFound)
	}

	var out ApplyCountsOutput
	err = uc.txRunner.Run(ctx, func(stockRepo repository.StockRepository, historyRepo repository.StockHistoryRepository) error {
		out = ApplyCountsOutput{}
		counted, err := stockRepo.ListCountedForUpdate(ctx, storeID)
		if err != nil {
			return err
		}
		now := uc.now()
		var entries []*entity.StockHistory
		for _, s := range counted {
			target := inventory.Clamp(*s.ActualStock)
			h := inventory.SetQuantity(s, target, inventory.Movement{
				StoreID:   storeID,
				VariantID: s.VariantID,
				Type:      entity.ChangeCheckAdjust,
				ActorID:   actorID,
				Note:      "ajuste por conteo",
				At:        now,
			})
			s.ActualStock = nil
			s.UpdatedAt = now
			if err := stockRepo.Update(ctx, s); err != nil {
				return err
			}
			out.Cleared++
			if h != nil {
				entries = append(entries, h)
				out.Adjusted++
			}
		}
		if len(entries) == 0 {
			return nil
		}
		return historyRepo.AppendBatch(ctx, entries)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("store_id", storeID).Int("adjusted", out.Adjusted).Int("cleared", out.Cleared).Msg("conteos aplicados")
	return &out, nil
}

// History entradas del libro en orden temporal.
func (uc *UseCase) History(ctx context.Context, storeID, variantID string) ([]*entity.StockHistory, error) {
	if strings.TrimSpace(storeID) == "" || strings.TrimSpace(variantID) == "" {
		return nil, fmt.Errorf("%w: tienda y variante requeridas", domain.ErrInvalidInput)
	}
	return uc.historyRepo.ListByStoreVariant(ctx, storeID, variantID)
}

// Replay suma del libro y saldo actual; deben coincidir.
func (uc *UseCase) Replay(ctx context.Context, storeID, variantID string) (ledgerSum, balance int, err error) {
	entries, err := uc.History(ctx, storeID, variantID)
	if err != nil {
		return 0, 0, err
	}
	s, err := uc.stockRepo.Get(ctx, storeID, variantID)
	if err != nil {
		return 0, 0, err
	}
	if s != nil {
		balance = s.Quantity
	}
	return inventory.Replay(entries), balance, nil
}
