package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var (
	_ repository.StoreRepository    = (*StoreRepo)(nil)
	_ repository.SettingsRepository = (*SettingsRepo)(nil)
)

// StoreRepo lectura de tiendas.
type StoreRepo struct {
	q Querier
}

// NewStoreRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStoreRepository(q Querier) *StoreRepo {
	return &StoreRepo{q: q}
}

func (r *StoreRepo) GetByID(ctx context.Context, id string) (*entity.Store, error) {
	var s entity.Store
	err := r.q.QueryRow(ctx, `SELECT id, brand_id, name, created_at FROM stores WHERE id = $1`, id).
		Scan(&s.ID, &s.BrandID, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get store", err)
	}
	return &s, nil
}

func (r *StoreRepo) ListByBrand(ctx context.Context, brandID string) ([]*entity.Store, error) {
	rows, err := r.q.Query(ctx, `SELECT id, brand_id, name, created_at FROM stores WHERE brand_id = $1 ORDER BY name`, brandID)
	if err != nil {
		return nil, wrap("list stores", err)
	}
	defer rows.Close()
	var out []*entity.Store
	for rows.Next() {
		var s entity.Store
		if err := rows.Scan(&s.ID, &s.BrandID, &s.Name, &s.CreatedAt); err != nil {
			return nil, wrap("scan store", err)
		}
		out = append(out, &s)
	}
	return out, rows.Err()
}

// SettingsRepo configuración clave-valor por marca.
type SettingsRepo struct {
	q Querier
}

// NewSettingsRepository construye el adaptador de configuración.
func NewSettingsRepository(q Querier) *SettingsRepo {
	return &SettingsRepo{q: q}
}

func (r *SettingsRepo) GetAll(ctx context.Context, brandID string) (map[string]string, error) {
	rows, err := r.q.Query(ctx, `SELECT key, value FROM settings WHERE brand_id = $1`, brandID)
	if err != nil {
		return nil, wrap("list settings", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, wrap("scan setting", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *SettingsRepo) Get(ctx context.Context, brandID, key string) (string, bool, error) {
	var v string
	err := r.q.QueryRow(ctx, `SELECT value FROM settings WHERE brand_id = $1 AND key = $2`, brandID, key).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, wrap("get setting", err)
	}
	return v, true, nil
}
