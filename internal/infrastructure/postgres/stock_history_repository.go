package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var _ repository.StockHistoryRepository = (*StockHistoryRepo)(nil)

const insertHistory = `INSERT INTO stock_history
	(id, store_id, variant_id, change_type, quantity_change, current_quantity, actor_id, description, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// StockHistoryRepo libro de stock, solo inserción. seq (bigserial) desempata entradas del mismo instante.
type StockHistoryRepo struct {
	q Querier
}

// NewStockHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockHistoryRepository(q Querier) *StockHistoryRepo {
	return &StockHistoryRepo{q: q}
}

func historyArgs(e *entity.StockHistory) []any {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return []any{e.ID, e.StoreID, e.VariantID, string(e.ChangeType), e.QuantityChange, e.CurrentQuantity,
		e.ActorID, e.Description, e.CreatedAt}
}

func (r *StockHistoryRepo) Append(ctx context.Context, entry *entity.StockHistory) error {
	if _, err := r.q.Exec(ctx, insertHistory, historyArgs(entry)...); err != nil {
		return wrap("insert stock history", err)
	}
	return nil
}

func (r *StockHistoryRepo) AppendBatch(ctx context.Context, entries []*entity.StockHistory) error {
	b := &pgx.Batch{}
	for _, e := range entries {
		b.Queue(insertHistory, historyArgs(e)...)
	}
	return execBatch(ctx, r.q, b, "insert stock history")
}

func (r *StockHistoryRepo) ListByStoreVariant(ctx context.Context, storeID, variantID string) ([]*entity.StockHistory, error) {
	rows, err := r.q.Query(ctx, `SELECT id, store_id, variant_id, change_type, quantity_change, current_quantity,
			actor_id, description, created_at
		FROM stock_history
		WHERE store_id = $1 AND variant_id = $2
		ORDER BY created_at, seq`, storeID, variantID)
	if err != nil {
		return nil, wrap("list stock history", err)
	}
	defer rows.Close()
	var out []*entity.StockHistory
	for rows.Next() {
		var e entity.StockHistory
		var changeType string
		if err := rows.Scan(&e.ID, &e.StoreID, &e.VariantID, &changeType, &e.QuantityChange, &e.CurrentQuantity,
			&e.ActorID, &e.Description, &e.CreatedAt); err != nil {
			return nil, wrap("scan stock history", err)
		}
		e.ChangeType = entity.ChangeType(changeType)
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list stock history", err)
	}
	return out, nil
}

// DeleteByBrand solo para el rebuild completo de la marca.
func (r *StockHistoryRepo) DeleteByBrand(ctx context.Context, brandID string) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM stock_history
		WHERE store_id IN (SELECT id FROM stores WHERE brand_id = $1)`, brandID)
	if err != nil {
		return 0, wrap("delete brand history", err)
	}
	return int(tag.RowsAffected()), nil
}
