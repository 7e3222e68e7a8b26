package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

const stockColumns = `id, store_id, variant_id, quantity, actual_stock, updated_at`

// StockRepo implementación de StockRepository sobre PostgreSQL (usable con pool o tx).
// Los métodos *ForUpdate usan SELECT ... FOR UPDATE y solo tienen sentido dentro de una tx.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock. Pasar pool o tx (Querier).
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func scanStock(row pgx.Row) (*entity.StoreStock, error) {
	var s entity.StoreStock
	if err := row.Scan(&s.ID, &s.StoreID, &s.VariantID, &s.Quantity, &s.ActualStock, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StockRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.StoreStock, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()
	var out []*entity.StoreStock
	for rows.Next() {
		s, err := scanStock(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

// Get obtiene el saldo actual de una variante en una tienda.
func (r *StockRepo) Get(ctx context.Context, storeID, variantID string) (*entity.StoreStock, error) {
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM store_stocks
		WHERE store_id = $1 AND variant_id = $2`, storeID, variantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get stock", err)
	}
	return s, nil
}

// GetOrCreateForUpdate inserta la fila en cero si falta y la bloquea.
func (r *StockRepo) GetOrCreateForUpdate(ctx context.Context, storeID, variantID string) (*entity.StoreStock, error) {
	_, err := r.q.Exec(ctx, `INSERT INTO store_stocks (id, store_id, variant_id, quantity, updated_at)
		VALUES ($1, $2, $3, 0, now())
		ON CONFLICT (store_id, variant_id) DO NOTHING`, uuid.New().String(), storeID, variantID)
	if err != nil {
		return nil, wrap("ensure stock", err)
	}
	s, err := scanStock(r.q.QueryRow(ctx, `SELECT `+stockColumns+` FROM store_stocks
		WHERE store_id = $1 AND variant_id = $2
		FOR UPDATE`, storeID, variantID))
	if err != nil {
		return nil, wrap("get stock for update", err)
	}
	return s, nil
}

// ListForUpdate bloquea en orden de variante para no cruzarse con otros lotes.
func (r *StockRepo) ListForUpdate(ctx context.Context, storeID string, variantIDs []string) (map[string]*entity.StoreStock, error) {
	out := make(map[string]*entity.StoreStock, len(variantIDs))
	if len(variantIDs) == 0 {
		return out, nil
	}
	list, err := r.list(ctx, "list stock for update", `SELECT `+stockColumns+` FROM store_stocks
		WHERE store_id = $1 AND variant_id = ANY($2)
		ORDER BY variant_id
		FOR UPDATE`, storeID, variantIDs)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		out[s.VariantID] = s
	}
	return out, nil
}

func (r *StockRepo) ListCountedForUpdate(ctx context.Context, storeID string) ([]*entity.StoreStock, error) {
	return r.list(ctx, "list counted stock", `SELECT `+stockColumns+` FROM store_stocks
		WHERE store_id = $1 AND actual_stock IS NOT NULL
		ORDER BY variant_id
		FOR UPDATE`, storeID)
}

func (r *StockRepo) Create(ctx context.Context, stock *entity.StoreStock) error {
	if stock.ID == "" {
		stock.ID = uuid.New().String()
	}
	_, err := r.q.Exec(ctx, `INSERT INTO store_stocks (id, store_id, variant_id, quantity, actual_stock, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())`,
		stock.ID, stock.StoreID, stock.VariantID, stock.Quantity, stock.ActualStock)
	if err != nil {
		return wrap("insert stock", err)
	}
	return nil
}

func (r *StockRepo) Update(ctx context.Context, stock *entity.StoreStock) error {
	tag, err := r.q.Exec(ctx, `UPDATE store_stocks SET quantity = $2, actual_stock = $3, updated_at = now() WHERE id = $1`,
		stock.ID, stock.Quantity, stock.ActualStock)
	if err != nil {
		return wrap("update stock", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("update stock "+stock.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *StockRepo) DeleteByProduct(ctx context.Context, productID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM store_stocks
		WHERE variant_id IN (SELECT id FROM variants WHERE product_id = $1)`, productID)
	if err != nil {
		return wrap("delete product stock", err)
	}
	return nil
}

func (r *StockRepo) DeleteByBrand(ctx context.Context, brandID string) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM store_stocks
		WHERE store_id IN (SELECT id FROM stores WHERE brand_id = $1)
		   OR variant_id IN (SELECT v.id FROM variants v JOIN products p ON p.id = v.product_id WHERE p.brand_id = $1)`, brandID)
	if err != nil {
		return 0, wrap("delete brand stock", err)
	}
	return int(tag.RowsAffected()), nil
}
