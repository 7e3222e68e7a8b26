package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo ventas y líneas.
type SaleRepo struct{ h handle }

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (r *SaleRepo) LockStore(_ context.Context, storeID string) error {
	return r.h.do(func(st *state) error {
		if _, ok := st.stores[storeID]; !ok {
			return fmt.Errorf("tienda %s: %w", storeID, domain.ErrNotFound)
		}
		return nil
	})
}

func (r *SaleRepo) NextDailyNumber(_ context.Context, storeID string, date time.Time) (int, error) {
	last := 0
	err := r.h.do(func(st *state) error {
		for _, s := range st.sales {
			if s.StoreID == storeID && sameDay(s.SaleDate, date) && s.DailyNumber > last {
				last = s.DailyNumber
			}
		}
		return nil
	})
	return last + 1, err
}

func (r *SaleRepo) Create(_ context.Context, sale *entity.Sale) error {
	return r.h.do(func(st *state) error {
		for _, s := range st.sales {
			if s.StoreID == sale.StoreID && sameDay(s.SaleDate, sale.SaleDate) && s.DailyNumber == sale.DailyNumber {
				return fmt.Errorf("venta %s #%d: %w", sale.StoreID, sale.DailyNumber, domain.ErrConflict)
			}
		}
		if sale.ID == "" {
			sale.ID = uuid.New().String()
		}
		for _, it := range sale.Items {
			if it.ID == "" {
				it.ID = uuid.New().String()
			}
			it.SaleID = sale.ID
		}
		st.sales[sale.ID] = copySale(sale)
		return nil
	})
}

func (r *SaleRepo) GetByID(_ context.Context, id string) (*entity.Sale, error) {
	var out *entity.Sale
	err := r.h.do(func(st *state) error {
		if s, ok := st.sales[id]; ok {
			out = copySale(s)
		}
		return nil
	})
	return out, err
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.GetByID(ctx, id)
}

func (r *SaleRepo) Update(_ context.Context, sale *entity.Sale) error {
	return r.h.do(func(st *state) error {
		cur, ok := st.sales[sale.ID]
		if !ok {
			return fmt.Errorf("venta %s: %w", sale.ID, domain.ErrNotFound)
		}
		cur.Status = sale.Status
		cur.TotalAmount = sale.TotalAmount
		cur.RefundedAmount = sale.RefundedAmount
		cur.UpdatedAt = sale.UpdatedAt
		return nil
	})
}

func (r *SaleRepo) UpdateItem(_ context.Context, item *entity.SaleItem) error {
	return r.h.do(func(st *state) error {
		s, ok := st.sales[item.SaleID]
		if !ok {
			return fmt.Errorf("venta %s: %w", item.SaleID, domain.ErrNotFound)
		}
		for _, it := range s.Items {
			if it.ID == item.ID {
				it.Quantity = item.Quantity
				it.Subtotal = item.Subtotal
				return nil
			}
		}
		return fmt.Errorf("línea %s: %w", item.ID, domain.ErrNotFound)
	})
}

func (r *SaleRepo) ListByStoreDate(_ context.Context, storeID string, date time.Time) ([]*entity.Sale, error) {
	var out []*entity.Sale
	err := r.h.do(func(st *state) error {
		for _, s := range st.sales {
			if s.StoreID == storeID && sameDay(s.SaleDate, date) {
				out = append(out, copySale(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DailyNumber < out[j].DailyNumber })
	return out, err
}

func (r *SaleRepo) CountProductReferences(_ context.Context, productID string) (int, error) {
	n := 0
	err := r.h.do(func(st *state) error {
		n = st.countItemRefs(st.productVariantIDs(productID))
		return nil
	})
	return n, err
}

func (r *SaleRepo) DetachProduct(_ context.Context, productID string) (int, error) {
	n := 0
	err := r.h.do(func(st *state) error {
		n = st.detachItems(st.productVariantIDs(productID))
		return nil
	})
	return n, err
}

func (r *SaleRepo) DetachBrand(_ context.Context, brandID string) (int, error) {
	n := 0
	err := r.h.do(func(st *state) error {
		n = st.detachItems(st.brandVariantIDs(brandID))
		return nil
	})
	return n, err
}

func (st *state) countItemRefs(variantIDs map[string]bool) int {
	n := 0
	for _, s := range st.sales {
		for _, it := range s.Items {
			if it.VariantID != "" && variantIDs[it.VariantID] {
				n++
			}
		}
	}
	return n
}

func (st *state) detachItems(variantIDs map[string]bool) int {
	n := 0
	for _, s := range st.sales {
		for _, it := range s.Items {
			if it.VariantID != "" && variantIDs[it.VariantID] {
				it.VariantID = ""
				n++
			}
		}
	}
	return n
}
