package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/catalog"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/sales"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/stock"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var (
	_ stock.TxRunner            = (*TxRunner)(nil)
	_ sales.SalesTxRunner       = (*TxRunner)(nil)
	_ reconcile.CatalogTxRunner = (*TxRunner)(nil)
	_ catalog.CatalogTxRunner   = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

func (r *TxRunner) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Run transacción de saldos y libro (ajustes manuales y conteos).
func (r *TxRunner) Run(ctx context.Context, fn func(
	stockRepo repository.StockRepository,
	historyRepo repository.StockHistoryRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewStockRepository(tx), NewStockHistoryRepository(tx))
	})
}

// RunSales transacción de venta o reembolso.
func (r *TxRunner) RunSales(ctx context.Context, fn func(
	saleRepo repository.SaleRepository,
	variantRepo repository.VariantRepository,
	stockRepo repository.StockRepository,
	historyRepo repository.StockHistoryRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(NewSaleRepository(tx), NewVariantRepository(tx), NewStockRepository(tx), NewStockHistoryRepository(tx))
	})
}

// RunCatalog transacción de catálogo completa (lote de importación, borrados, rebuild).
func (r *TxRunner) RunCatalog(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	variantRepo repository.VariantRepository,
	stockRepo repository.StockRepository,
	historyRepo repository.StockHistoryRepository,
	saleRepo repository.SaleRepository,
) error) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		return fn(
			NewProductRepository(tx),
			NewVariantRepository(tx),
			NewStockRepository(tx),
			NewStockHistoryRepository(tx),
			NewSaleRepository(tx),
		)
	})
}
