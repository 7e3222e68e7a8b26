package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var (
	_ repository.StoreRepository    = (*StoreRepo)(nil)
	_ repository.SettingsRepository = (*SettingsRepo)(nil)
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.VariantRepository  = (*VariantRepo)(nil)
)

// StoreRepo tiendas.
type StoreRepo struct{ h handle }

func (r *StoreRepo) GetByID(_ context.Context, id string) (*entity.Store, error) {
	var out *entity.Store
	err := r.h.do(func(st *state) error {
		if s, ok := st.stores[id]; ok {
			out = copyStore(s)
		}
		return nil
	})
	return out, err
}

func (r *StoreRepo) ListByBrand(_ context.Context, brandID string) ([]*entity.Store, error) {
	var out []*entity.Store
	err := r.h.do(func(st *state) error {
		for _, s := range st.stores {
			if s.BrandID == brandID {
				out = append(out, copyStore(s))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// SettingsRepo configuración por marca.
type SettingsRepo struct{ h handle }

func (r *SettingsRepo) GetAll(_ context.Context, brandID string) (map[string]string, error) {
	out := map[string]string{}
	err := r.h.do(func(st *state) error {
		for k, v := range st.settings[brandID] {
			out[k] = v
		}
		return nil
	})
	return out, err
}

func (r *SettingsRepo) Get(_ context.Context, brandID, key string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := r.h.do(func(st *state) error {
		v, ok = st.settings[brandID][key]
		return nil
	})
	return v, ok, err
}

// ProductRepo productos.
type ProductRepo struct{ h handle }

func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.do(func(st *state) error {
		if p, ok := st.products[id]; ok {
			out = copyProduct(p)
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) FindByNumbers(_ context.Context, brandID string, cleaned []string) (map[string]*entity.Product, error) {
	want := toSet(cleaned)
	out := make(map[string]*entity.Product, len(cleaned))
	err := r.h.do(func(st *state) error {
		for _, p := range st.products {
			if p.BrandID == brandID && want[p.ProductNumberCleaned] {
				out[p.ProductNumberCleaned] = copyProduct(p)
			}
		}
		return nil
	})
	return out, err
}

func (r *ProductRepo) CreateBatch(_ context.Context, products []*entity.Product) error {
	return r.h.do(func(st *state) error {
		for _, p := range products {
			for _, e := range st.products {
				if e.BrandID == p.BrandID && e.ProductNumberCleaned == p.ProductNumberCleaned {
					return fmt.Errorf("producto %s: %w", p.ProductNumber, domain.ErrConflict)
				}
			}
			st.products[p.ID] = copyProduct(p)
		}
		return nil
	})
}

func (r *ProductRepo) Search(_ context.Context, brandID, key string, limit int) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.do(func(st *state) error {
		for _, p := range st.products {
			if p.BrandID != brandID {
				continue
			}
			if strings.Contains(p.ProductNumberCleaned, key) ||
				strings.Contains(p.NameCleaned, key) ||
				strings.Contains(p.NameInitials, key) {
				out = append(out, copyProduct(p))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ProductNumberCleaned < out[j].ProductNumberCleaned })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, err
}

func (r *ProductRepo) ListByBrand(_ context.Context, brandID string) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.do(func(st *state) error {
		for _, p := range st.products {
			if p.BrandID == brandID {
				out = append(out, copyProduct(p))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ProductNumberCleaned < out[j].ProductNumberCleaned })
	return out, err
}

func (r *ProductRepo) Delete(_ context.Context, id string) error {
	return r.h.do(func(st *state) error {
		for _, v := range st.variants {
			if v.ProductID == id {
				return fmt.Errorf("producto %s con variantes: %w", id, domain.ErrIntegrity)
			}
		}
		delete(st.products, id)
		return nil
	})
}

func (r *ProductRepo) DeleteByBrand(_ context.Context, brandID string) (int, error) {
	n := 0
	err := r.h.do(func(st *state) error {
		for id, p := range st.products {
			if p.BrandID == brandID {
				delete(st.products, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

// VariantRepo variantes (SKU).
type VariantRepo struct{ h handle }

func (r *VariantRepo) GetWithProduct(_ context.Context, id string) (*entity.VariantWithProduct, error) {
	var out *entity.VariantWithProduct
	err := r.h.do(func(st *state) error {
		v, ok := st.variants[id]
		if !ok {
			return nil
		}
		p, ok := st.products[v.ProductID]
		if !ok {
			return nil
		}
		out = &entity.VariantWithProduct{Variant: copyVariant(v), Product: copyProduct(p)}
		return nil
	})
	return out, err
}

func (r *VariantRepo) FindByCodes(_ context.Context, brandID string, codes []string) (map[string]*entity.Variant, error) {
	want := toSet(codes)
	out := make(map[string]*entity.Variant, len(codes))
	err := r.h.do(func(st *state) error {
		for _, v := range st.variants {
			if want[v.BarcodeCleaned] && st.variantBrand(v) == brandID {
				out[v.BarcodeCleaned] = copyVariant(v)
			}
		}
		return nil
	})
	return out, err
}

func (r *VariantRepo) ListByProduct(_ context.Context, productID string) ([]*entity.Variant, error) {
	var out []*entity.Variant
	err := r.h.do(func(st *state) error {
		for _, v := range st.variants {
			if v.ProductID == productID {
				out = append(out, copyVariant(v))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].BarcodeCleaned < out[j].BarcodeCleaned })
	return out, err
}

func (r *VariantRepo) CreateBatch(_ context.Context, variants []*entity.Variant) error {
	return r.h.do(func(st *state) error {
		for _, v := range variants {
			if _, ok := st.products[v.ProductID]; !ok {
				return fmt.Errorf("variante %s sin producto: %w", v.Barcode, domain.ErrIntegrity)
			}
			for _, e := range st.variants {
				if e.BarcodeCleaned == v.BarcodeCleaned ||
					(e.ProductID == v.ProductID && e.Color == v.Color && e.Size == v.Size) {
					return fmt.Errorf("variante %s: %w", v.Barcode, domain.ErrConflict)
				}
			}
			st.variants[v.ID] = copyVariant(v)
		}
		return nil
	})
}

func (r *VariantRepo) UpdateBatch(_ context.Context, variants []*entity.Variant) error {
	return r.h.do(func(st *state) error {
		for _, v := range variants {
			cur, ok := st.variants[v.ID]
			if !ok {
				return fmt.Errorf("variante %s: %w", v.ID, domain.ErrNotFound)
			}
			cur.OriginalPrice = v.OriginalPrice
			cur.SalePrice = v.SalePrice
			cur.HQQuantity = v.HQQuantity
			cur.UpdatedAt = v.UpdatedAt
		}
		return nil
	})
}

func (r *VariantRepo) DeleteByProduct(_ context.Context, productID string) error {
	return r.h.do(func(st *state) error {
		if st.countItemRefs(st.productVariantIDs(productID)) > 0 {
			return fmt.Errorf("variantes del producto %s: %w", productID, domain.ErrIntegrity)
		}
		for id, v := range st.variants {
			if v.ProductID == productID {
				delete(st.variants, id)
			}
		}
		return nil
	})
}

func (r *VariantRepo) DeleteByBrand(_ context.Context, brandID string) (int, error) {
	n := 0
	err := r.h.do(func(st *state) error {
		if st.countItemRefs(st.brandVariantIDs(brandID)) > 0 {
			return fmt.Errorf("variantes de la marca %s: %w", brandID, domain.ErrIntegrity)
		}
		for id, v := range st.variants {
			if st.variantBrand(v) == brandID {
				delete(st.variants, id)
				n++
			}
		}
		return nil
	})
	return n, err
}

func (st *state) variantBrand(v *entity.Variant) string {
	if p, ok := st.products[v.ProductID]; ok {
		return p.BrandID
	}
	return ""
}

func (st *state) productVariantIDs(productID string) map[string]bool {
	ids := map[string]bool{}
	for id, v := range st.variants {
		if v.ProductID == productID {
			ids[id] = true
		}
	}
	return ids
}

func (st *state) brandVariantIDs(brandID string) map[string]bool {
	ids := map[string]bool{}
	for id, v := range st.variants {
		if st.variantBrand(v) == brandID {
			ids[id] = true
		}
	}
	return ids
}

func toSet(keys []string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}
