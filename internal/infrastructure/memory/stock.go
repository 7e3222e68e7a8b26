package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var (
	_ repository.StockRepository        = (*StockRepo)(nil)
	_ repository.StockHistoryRepository = (*HistoryRepo)(nil)
)

// StockRepo saldos por tienda. El bloqueo de fila lo da el mutex de la transacción.
type StockRepo struct{ h handle }

func (st *state) findStock(storeID, variantID string) *entity.StoreStock {
	for _, s := range st.stocks {
		if s.StoreID == storeID && s.VariantID == variantID {
			return s
		}
	}
	return nil
}

func (r *StockRepo) Get(_ context.Context, storeID, variantID string) (*entity.StoreStock, error) {
	var out *entity.StoreStock
	err := r.h.do(func(st *state) error {
		if s := st.findStock(storeID, variantID); s != nil {
			out = copyStock(s)
		}
		return nil
	})
	return out, err
}

func (r *StockRepo) GetOrCreateForUpdate(_ context.Context, storeID, variantID string) (*entity.StoreStock, error) {
	var out *entity.StoreStock
	err := r.h.do(func(st *state) error {
		s := st.findStock(storeID, variantID)
		if s == nil {
			s = &entity.StoreStock{ID: uuid.New().String(), StoreID: storeID, VariantID: variantID}
			st.stocks[s.ID] = s
		}
		out = copyStock(s)
		return nil
	})
	return out, err
}

func (r *StockRepo) ListForUpdate(_ context.Context, storeID string, variantIDs []string) (map[string]*entity.StoreStock, error) {
	want := toSet(variantIDs)
	out := make(map[string]*entity.StoreStock, len(variantIDs))
	err := r.h.do(func(st *state) error {
		for _, s := range st.stocks {
			if s.StoreID == storeID && want[s.VariantID] {
				out[s.VariantID] = copyStock(s)
			}
		}
		return nil
	})
	return out, err
}

func (r *StockRepo) ListCountedForUpdate(_ context.Context, storeID string) ([]*entity.StoreStock, error) {
	var out []*entity.StoreStock
	err := r.h.do(func(st *state) error {
		for _, s := range st.stocks {
			if s.StoreID == storeID && s.ActualStock != nil {
				out = append(out, copyStock(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].VariantID < out[j].VariantID })
	return out, err
}

func (r *StockRepo) Create(_ context.Context, stock *entity.StoreStock) error {
	return r.h.do(func(st *state) error {
		if st.findStock(stock.StoreID, stock.VariantID) != nil {
			return fmt.Errorf("saldo %s/%s: %w", stock.StoreID, stock.VariantID, domain.ErrConflict)
		}
		if stock.ID == "" {
			stock.ID = uuid.New().String()
		}
		st.stocks[stock.ID] = copyStock(stock)
		return nil
	})
}

func (r *StockRepo) Update(_ context.Context, stock *entity.StoreStock) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.stocks[stock.ID]; !ok {
			return fmt.Errorf("saldo %s: %w", stock.ID, domain.ErrNotFound)
		}
		st.stocks[stock.ID] = copyStock(stock)
		return nil
	})
}

func (r *StockRepo) DeleteByProduct(_ context.Context, productID string) error {
	return r.h.do(func(st *state) error {
		ids := st.productVariantIDs(productID)
		for id, s := range st.stocks {
			if ids[s.VariantID] {
				delete(st.stocks, id)
			}
		}
		return nil
	})
}

func (r *StockRepo) DeleteByBrand(_ context.Context, brandID string) (int, error) {
	n := 0
	err := r.h.do(func(st *state) error {
		ids := st.brandVariantIDs(brandID)
		for id, s := range st.stocks {
			if ids[s.VariantID] || st.storeBrand(s.StoreID) == brandID {
				delete(st.stocks, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (st *state) storeBrand(storeID string) string {
	if s, ok := st.stores[storeID]; ok {
		return s.BrandID
	}
	return ""
}

// HistoryRepo libro de stock, solo inserción.
type HistoryRepo struct{ h handle }

func (r *HistoryRepo) Append(ctx context.Context, entry *entity.StockHistory) error {
	return r.AppendBatch(ctx, []*entity.StockHistory{entry})
}

func (r *HistoryRepo) AppendBatch(_ context.Context, entries []*entity.StockHistory) error {
	return r.h.do(func(st *state) error {
		for _, e := range entries {
			if e.ID == "" {
				e.ID = uuid.New().String()
			}
			st.history = append(st.history, copyHistory(e))
		}
		return nil
	})
}

func (r *HistoryRepo) ListByStoreVariant(_ context.Context, storeID, variantID string) ([]*entity.StockHistory, error) {
	var out []*entity.StockHistory
	err := r.h.do(func(st *state) error {
		for _, e := range st.history {
			if e.StoreID == storeID && e.VariantID == variantID {
				out = append(out, copyHistory(e))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}

func (r *HistoryRepo) DeleteByBrand(_ context.Context, brandID string) (int, error) {
	n := 0
	err := r.h.do(func(st *state) error {
		kept := st.history[:0]
		for _, e := range st.history {
			if st.storeBrand(e.StoreID) == brandID {
				n++
				continue
			}
			kept = append(kept, e)
		}
		st.history = kept
		return nil
	})
	return n, err
}
