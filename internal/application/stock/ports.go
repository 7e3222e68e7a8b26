package stock

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

// TxRunner ejecuta fn en una transacción con saldos y libro atados a ella.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		stockRepo repository.StockRepository,
		historyRepo repository.StockHistoryRepository,
	) error) error
}
