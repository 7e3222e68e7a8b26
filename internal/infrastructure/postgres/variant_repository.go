package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var _ repository.VariantRepository = (*VariantRepo)(nil)

const variantColumns = `v.id, v.product_id, v.barcode, v.barcode_cleaned, v.color, v.color_cleaned, v.size, v.size_cleaned,
	v.original_price, v.sale_price, v.hq_quantity, v.created_at, v.updated_at`

// VariantRepo variantes (SKU) sobre PostgreSQL.
type VariantRepo struct {
	q Querier
}

// NewVariantRepository construye el adaptador. Pasar pool o tx (Querier).
func NewVariantRepository(q Querier) *VariantRepo {
	return &VariantRepo{q: q}
}

func variantDest(v *entity.Variant) []any {
	return []any{&v.ID, &v.ProductID, &v.Barcode, &v.BarcodeCleaned, &v.Color, &v.ColorCleaned, &v.Size, &v.SizeCleaned,
		&v.OriginalPrice, &v.SalePrice, &v.HQQuantity, &v.CreatedAt, &v.UpdatedAt}
}

func (r *VariantRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Variant, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()
	var out []*entity.Variant
	for rows.Next() {
		var v entity.Variant
		if err := rows.Scan(variantDest(&v)...); err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func (r *VariantRepo) GetWithProduct(ctx context.Context, id string) (*entity.VariantWithProduct, error) {
	var v entity.Variant
	var p entity.Product
	dest := append(variantDest(&v),
		&p.ID, &p.BrandID, &p.ProductNumber, &p.Name, &p.ReleaseYear, &p.ItemCategory, &p.IsFavorite,
		&p.ProductNumberCleaned, &p.NameCleaned, &p.NameInitials, &p.CreatedAt, &p.UpdatedAt)
	err := r.q.QueryRow(ctx, `SELECT `+variantColumns+`,
			p.id, p.brand_id, p.product_number, p.name, p.release_year, p.item_category, p.is_favorite,
			p.product_number_cleaned, p.name_cleaned, p.name_initials, p.created_at, p.updated_at
		FROM variants v JOIN products p ON p.id = v.product_id
		WHERE v.id = $1`, id).Scan(dest...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get variant", err)
	}
	return &entity.VariantWithProduct{Variant: &v, Product: &p}, nil
}

func (r *VariantRepo) FindByCodes(ctx context.Context, brandID string, codes []string) (map[string]*entity.Variant, error) {
	out := make(map[string]*entity.Variant, len(codes))
	if len(codes) == 0 {
		return out, nil
	}
	list, err := r.list(ctx, "find variants", `SELECT `+variantColumns+`
		FROM variants v JOIN products p ON p.id = v.product_id
		WHERE p.brand_id = $1 AND v.barcode_cleaned = ANY($2)`, brandID, codes)
	if err != nil {
		return nil, err
	}
	for _, v := range list {
		out[v.BarcodeCleaned] = v
	}
	return out, nil
}

func (r *VariantRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Variant, error) {
	return r.list(ctx, "list variants", `SELECT `+variantColumns+` FROM variants v
		WHERE v.product_id = $1 ORDER BY v.color, v.size`, productID)
}

func (r *VariantRepo) CreateBatch(ctx context.Context, variants []*entity.Variant) error {
	b := &pgx.Batch{}
	for _, v := range variants {
		b.Queue(`INSERT INTO variants (id, product_id, barcode, barcode_cleaned, color, color_cleaned, size, size_cleaned,
				original_price, sale_price, hq_quantity, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			v.ID, v.ProductID, v.Barcode, v.BarcodeCleaned, v.Color, v.ColorCleaned, v.Size, v.SizeCleaned,
			v.OriginalPrice, v.SalePrice, v.HQQuantity, v.CreatedAt, v.UpdatedAt)
	}
	return execBatch(ctx, r.q, b, "insert variants")
}

// UpdateBatch persiste precios y cantidad de casa matriz.
func (r *VariantRepo) UpdateBatch(ctx context.Context, variants []*entity.Variant) error {
	b := &pgx.Batch{}
	for _, v := range variants {
		b.Queue(`UPDATE variants SET original_price = $2, sale_price = $3, hq_quantity = $4, updated_at = $5 WHERE id = $1`,
			v.ID, v.OriginalPrice, v.SalePrice, v.HQQuantity, v.UpdatedAt)
	}
	return execBatch(ctx, r.q, b, "update variants")
}

// DeleteByProduct falla con ErrIntegrity si alguna línea de venta las referencia.
func (r *VariantRepo) DeleteByProduct(ctx context.Context, productID string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM variants WHERE product_id = $1`, productID); err != nil {
		return wrap("delete variants", err)
	}
	return nil
}

func (r *VariantRepo) DeleteByBrand(ctx context.Context, brandID string) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM variants WHERE product_id IN (SELECT id FROM products WHERE brand_id = $1)`, brandID)
	if err != nil {
		return 0, wrap("delete brand variants", err)
	}
	return int(tag.RowsAffected()), nil
}
