package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, store_id, actor_id, sale_date, daily_number, payment_method, status, is_online,
	total_amount, original_total, refunded_amount, created_at, updated_at`

const itemColumns = `id, sale_id, line_no, variant_id, product_name, product_number, color, size, barcode,
	original_price, unit_price, discount_amount, discounted_price, quantity, subtotal`

// SaleRepo ventas y líneas de venta (usable con pool o tx).
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// LockStore serializa la asignación del número diario por tienda.
func (r *SaleRepo) LockStore(ctx context.Context, storeID string) error {
	var id string
	err := r.q.QueryRow(ctx, `SELECT id FROM stores WHERE id = $1 FOR UPDATE`, storeID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return wrap("lock store "+storeID, domain.ErrNotFound)
		}
		return wrap("lock store", err)
	}
	return nil
}

func (r *SaleRepo) NextDailyNumber(ctx context.Context, storeID string, date time.Time) (int, error) {
	var next int
	err := r.q.QueryRow(ctx, `SELECT COALESCE(MAX(daily_number), 0) + 1 FROM sales
		WHERE store_id = $1 AND sale_date = $2`, storeID, dateOnly(date)).Scan(&next)
	if err != nil {
		return 0, wrap("next daily number", err)
	}
	return next, nil
}

// Create inserta la cabecera y todas las líneas en una batch.
func (r *SaleRepo) Create(ctx context.Context, sale *entity.Sale) error {
	if sale.ID == "" {
		sale.ID = uuid.New().String()
	}
	b := &pgx.Batch{}
	b.Queue(`INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		sale.ID, sale.StoreID, sale.ActorID, dateOnly(sale.SaleDate), sale.DailyNumber, sale.PaymentMethod,
		sale.Status, sale.IsOnline, sale.TotalAmount, sale.OriginalTotal, sale.RefundedAmount,
		sale.CreatedAt, sale.UpdatedAt)
	for _, it := range sale.Items {
		if it.ID == "" {
			it.ID = uuid.New().String()
		}
		it.SaleID = sale.ID
		b.Queue(`INSERT INTO sale_items (`+itemColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			it.ID, it.SaleID, it.LineNo, nullable(it.VariantID), it.ProductName, it.ProductNumber, it.Color, it.Size,
			it.Barcode, it.OriginalPrice, it.UnitPrice, it.DiscountAmount, it.DiscountedPrice, it.Quantity, it.Subtotal)
	}
	return execBatch(ctx, r.q, b, "insert sale")
}

func scanSale(row pgx.Row) (*entity.Sale, error) {
	var s entity.Sale
	err := row.Scan(&s.ID, &s.StoreID, &s.ActorID, &s.SaleDate, &s.DailyNumber, &s.PaymentMethod, &s.Status,
		&s.IsOnline, &s.TotalAmount, &s.OriginalTotal, &s.RefundedAmount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SaleRepo) get(ctx context.Context, id, lock string) (*entity.Sale, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`+lock, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get sale", err)
	}
	if s.Items, err = r.items(ctx, []string{s.ID}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, id, "")
}

func (r *SaleRepo) GetForUpdate(ctx context.Context, id string) (*entity.Sale, error) {
	return r.get(ctx, id, " FOR UPDATE")
}

func (r *SaleRepo) items(ctx context.Context, saleIDs []string) ([]*entity.SaleItem, error) {
	rows, err := r.q.Query(ctx, `SELECT `+itemColumns+` FROM sale_items
		WHERE sale_id = ANY($1) ORDER BY sale_id, line_no`, saleIDs)
	if err != nil {
		return nil, wrap("list sale items", err)
	}
	defer rows.Close()
	var out []*entity.SaleItem
	for rows.Next() {
		var it entity.SaleItem
		var variantID *string
		if err := rows.Scan(&it.ID, &it.SaleID, &it.LineNo, &variantID, &it.ProductName, &it.ProductNumber,
			&it.Color, &it.Size, &it.Barcode, &it.OriginalPrice, &it.UnitPrice, &it.DiscountAmount,
			&it.DiscountedPrice, &it.Quantity, &it.Subtotal); err != nil {
			return nil, wrap("scan sale item", err)
		}
		it.VariantID = deref(variantID)
		out = append(out, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list sale items", err)
	}
	return out, nil
}

func (r *SaleRepo) Update(ctx context.Context, sale *entity.Sale) error {
	tag, err := r.q.Exec(ctx, `UPDATE sales SET status = $2, total_amount = $3, refunded_amount = $4, updated_at = $5
		WHERE id = $1`, sale.ID, sale.Status, sale.TotalAmount, sale.RefundedAmount, sale.UpdatedAt)
	if err != nil {
		return wrap("update sale", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("update sale "+sale.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *SaleRepo) UpdateItem(ctx context.Context, item *entity.SaleItem) error {
	tag, err := r.q.Exec(ctx, `UPDATE sale_items SET quantity = $2, subtotal = $3 WHERE id = $1`,
		item.ID, item.Quantity, item.Subtotal)
	if err != nil {
		return wrap("update sale item", err)
	}
	if tag.RowsAffected() == 0 {
		return wrap("update sale item "+item.ID, domain.ErrNotFound)
	}
	return nil
}

func (r *SaleRepo) ListByStoreDate(ctx context.Context, storeID string, date time.Time) ([]*entity.Sale, error) {
	rows, err := r.q.Query(ctx, `SELECT `+saleColumns+` FROM sales
		WHERE store_id = $1 AND sale_date = $2 ORDER BY daily_number`, storeID, dateOnly(date))
	if err != nil {
		return nil, wrap("list sales", err)
	}
	var (
		out []*entity.Sale
		ids []string
	)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			rows.Close()
			return nil, wrap("scan sale", err)
		}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap("list sales", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := r.items(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*entity.Sale, len(out))
	for _, s := range out {
		byID[s.ID] = s
	}
	for _, it := range items {
		if s := byID[it.SaleID]; s != nil {
			s.Items = append(s.Items, it)
		}
	}
	return out, nil
}

func (r *SaleRepo) CountProductReferences(ctx context.Context, productID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM sale_items
		WHERE variant_id IN (SELECT id FROM variants WHERE product_id = $1)`, productID).Scan(&n)
	if err != nil {
		return 0, wrap("count sale references", err)
	}
	return n, nil
}

// DetachProduct deja las líneas de venta sin variante; el snapshot descriptivo se conserva.
func (r *SaleRepo) DetachProduct(ctx context.Context, productID string) (int, error) {
	tag, err := r.q.Exec(ctx, `UPDATE sale_items SET variant_id = NULL
		WHERE variant_id IN (SELECT id FROM variants WHERE product_id = $1)`, productID)
	if err != nil {
		return 0, wrap("detach product", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *SaleRepo) DetachBrand(ctx context.Context, brandID string) (int, error) {
	tag, err := r.q.Exec(ctx, `UPDATE sale_items SET variant_id = NULL
		WHERE variant_id IN (SELECT v.id FROM variants v JOIN products p ON p.id = v.product_id WHERE p.brand_id = $1)`, brandID)
	if err != nil {
		return 0, wrap("detach brand", err)
	}
	return int(tag.RowsAffected()), nil
}
