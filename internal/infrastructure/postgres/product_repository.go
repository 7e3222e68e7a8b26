package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, brand_id, product_number, name, release_year, item_category, is_favorite,
	product_number_cleaned, name_cleaned, name_initials, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(&p.ID, &p.BrandID, &p.ProductNumber, &p.Name, &p.ReleaseYear, &p.ItemCategory, &p.IsFavorite,
		&p.ProductNumberCleaned, &p.NameCleaned, &p.NameInitials, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) list(ctx context.Context, op, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()
	var out []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get product", err)
	}
	return p, nil
}

func (r *ProductRepo) FindByNumbers(ctx context.Context, brandID string, cleaned []string) (map[string]*entity.Product, error) {
	out := make(map[string]*entity.Product, len(cleaned))
	if len(cleaned) == 0 {
		return out, nil
	}
	list, err := r.list(ctx, "find products", `SELECT `+productColumns+` FROM products
		WHERE brand_id = $1 AND product_number_cleaned = ANY($2)`, brandID, cleaned)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ProductNumberCleaned] = p
	}
	return out, nil
}

// CreateBatch inserta todos los productos en una sola ida y vuelta.
func (r *ProductRepo) CreateBatch(ctx context.Context, products []*entity.Product) error {
	b := &pgx.Batch{}
	for _, p := range products {
		b.Queue(`INSERT INTO products (`+productColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, p.BrandID, p.ProductNumber, p.Name, p.ReleaseYear, p.ItemCategory, p.IsFavorite,
			p.ProductNumberCleaned, p.NameCleaned, p.NameInitials, p.CreatedAt, p.UpdatedAt)
	}
	return execBatch(ctx, r.q, b, "insert products")
}

// Search coincidencia parcial sobre número, nombre o iniciales normalizados.
func (r *ProductRepo) Search(ctx context.Context, brandID, key string, limit int) ([]*entity.Product, error) {
	return r.list(ctx, "search products", `SELECT `+productColumns+` FROM products
		WHERE brand_id = $1
		  AND (strpos(product_number_cleaned, $2) > 0 OR strpos(name_cleaned, $2) > 0 OR strpos(name_initials, $2) > 0)
		ORDER BY product_number
		LIMIT $3`, brandID, key, limit)
}

func (r *ProductRepo) ListByBrand(ctx context.Context, brandID string) ([]*entity.Product, error) {
	return r.list(ctx, "list products", `SELECT `+productColumns+` FROM products
		WHERE brand_id = $1 ORDER BY product_number`, brandID)
}

// Delete falla con ErrIntegrity si quedan variantes.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return wrap("delete product", err)
	}
	return nil
}

func (r *ProductRepo) DeleteByBrand(ctx context.Context, brandID string) (int, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE brand_id = $1`, brandID)
	if err != nil {
		return 0, wrap("delete brand products", err)
	}
	return int(tag.RowsAffected()), nil
}
