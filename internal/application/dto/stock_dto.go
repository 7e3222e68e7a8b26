package dto

import (
	"time"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// AdjustStockRequest entrada de POST /api/stock/adjust. Exactamente uno de Set o Delta.
type AdjustStockRequest struct {
	VariantID string `json:"variant_id"`
	Set       *int   `json:"set"`
	Delta     *int   `json:"delta"`
	Note      string `json:"note"`
}

// CountStockRequest entrada de POST /api/stock/count.
type CountStockRequest struct {
	VariantID string `json:"variant_id"`
	Counted   int    `json:"counted"`
}

// StockHistoryResponse una entrada del libro.
type StockHistoryResponse struct {
	ChangeType      string    `json:"change_type"`
	QuantityChange  int       `json:"quantity_change"`
	CurrentQuantity int       `json:"current_quantity"`
	ActorID         string    `json:"actor_id,omitempty"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// NewStockHistoryResponse convierte las entradas.
func NewStockHistoryResponse(entries []*entity.StockHistory) []StockHistoryResponse {
	out := make([]StockHistoryResponse, 0, len(entries))
	for _, h := range entries {
		out = append(out, StockHistoryResponse{
			ChangeType:      string(h.ChangeType),
			QuantityChange:  h.QuantityChange,
			CurrentQuantity: h.CurrentQuantity,
			ActorID:         h.ActorID,
			Description:     h.Description,
			CreatedAt:       h.CreatedAt,
		})
	}
	return out
}
