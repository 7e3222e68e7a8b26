package inventory

import (
	"sort"
	"time"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// Movement describe una mutación de saldo (servicio de dominio).
// Toda mutación produce exactamente una entrada de libro con el saldo resultante.
type Movement struct {
	StoreID   string
	VariantID string
	Type      entity.ChangeType
	ActorID   string
	Note      string
	At        time.Time
}

// ApplyDelta suma delta al saldo y devuelve la entrada del libro correspondiente.
// No limita el resultado: la venta puede dejar saldo negativo (sobreventa permitida).
func ApplyDelta(stock *entity.StoreStock, delta int, m Movement) *entity.StockHistory {
	stock.Quantity += delta
	stock.UpdatedAt = m.At
	return entry(stock, delta, m)
}

// SetQuantity fija el saldo en target y devuelve la entrada; nil si no hay cambio.
// Los caminos manuales y de auditoría deben pasar target ya limitado con Clamp.
func SetQuantity(stock *entity.StoreStock, target int, m Movement) *entity.StockHistory {
	delta := target - stock.Quantity
	if delta == 0 {
		return nil
	}
	return ApplyDelta(stock, delta, m)
}

// Clamp impide que un ajuste manual deje saldo negativo.
func Clamp(q int) int {
	if q < 0 {
		return 0
	}
	return q
}

// Replay suma los deltas del libro en orden temporal. Para un par (tienda, variante)
// el resultado debe coincidir con el saldo actual.
func Replay(entries []*entity.StockHistory) int {
	sorted := make([]*entity.StockHistory, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	total := 0
	for _, e := range sorted {
		total += e.QuantityChange
	}
	return total
}

func entry(stock *entity.StoreStock, delta int, m Movement) *entity.StockHistory {
	at := m.At
	if at.IsZero() {
		at = time.Now()
	}
	return &entity.StockHistory{
		StoreID:         stock.StoreID,
		VariantID:       stock.VariantID,
		ChangeType:      m.Type,
		QuantityChange:  delta,
		CurrentQuantity: stock.Quantity,
		ActorID:         m.ActorID,
		Description:     m.Note,
		CreatedAt:       at,
	}
}
