package sales

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

// SalesTxRunner ejecuta fn en una transacción con los repositorios del punto de venta.
// Venta, líneas, saldos y libro se confirman juntos o no se confirma nada.
type SalesTxRunner interface {
	RunSales(ctx context.Context, fn func(
		saleRepo repository.SaleRepository,
		variantRepo repository.VariantRepository,
		stockRepo repository.StockRepository,
		historyRepo repository.StockHistoryRepository,
	) error) error
}
