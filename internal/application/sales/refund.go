package sales

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/inventory"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

// RefundLine variante y cantidad a devolver.
type RefundLine struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// RefundOutput resultado de un reembolso.
type RefundOutput struct {
	Status string
	// RefundedAmount importe devuelto en esta operación.
	RefundedAmount decimal.Decimal
	// Skipped líneas ignoradas (sin línea de venta o cantidad mayor a la restante).
	Skipped []RefundLine
}

func loadForRefund(ctx context.Context, saleRepo repository.SaleRepository, saleID, storeID string) (*entity.Sale, error) {
	sale, err := saleRepo.GetForUpdate(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil || (storeID != "" && sale.StoreID != storeID) {
		return nil, fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound)
	}
	if sale.IsRefunded() {
		return nil, fmt.Errorf("venta %s: %w", saleID, domain.ErrAlreadyRefunded)
	}
	return sale, nil
}

// restock devuelve qty al saldo de la tienda con su asiento. Las líneas desvinculadas del
// catálogo no tienen saldo que restaurar.
func restock(ctx context.Context, stockRepo repository.StockRepository, historyRepo repository.StockHistoryRepository,
	item *entity.SaleItem, qty int, m inventory.Movement) error {
	if item.VariantID == "" {
		return nil
	}
	stock, err := stockRepo.GetOrCreateForUpdate(ctx, m.StoreID, item.VariantID)
	if err != nil {
		return err
	}
	m.VariantID = item.VariantID
	h := inventory.ApplyDelta(stock, qty, m)
	if err := stockRepo.Update(ctx, stock); err != nil {
		return err
	}
	return historyRepo.Append(ctx, h)
}

// RefundFull anula la venta completa: restaura cada cantidad restante y pasa a refunded.
// Las líneas conservan sus cantidades para que el recibo siga legible.
func (uc *UseCase) RefundFull(ctx context.Context, saleID, storeID, actorID string) (*RefundOutput, error) {
	var out RefundOutput
	err := uc.txRunner.RunSales(ctx, func(
		saleRepo repository.SaleRepository,
		_ repository.VariantRepository,
		stockRepo repository.StockRepository,
		historyRepo repository.StockHistoryRepository,
	) error {
		sale, err := loadForRefund(ctx, saleRepo, saleID, storeID)
		if err != nil {
			return err
		}
		now := uc.now()
		m := inventory.Movement{
			StoreID: sale.StoreID,
			Type:    entity.ChangeRefundFull,
			ActorID: actorID,
			Note:    "reembolso total " + sale.ReceiptNumber(),
			At:      now,
		}
		for _, item := range sale.Items {
			if item.Quantity <= 0 {
				continue
			}
			if err := restock(ctx, stockRepo, historyRepo, item, item.Quantity, m); err != nil {
				return err
			}
		}
		out.RefundedAmount = sale.TotalAmount
		sale.RefundedAmount = sale.RefundedAmount.Add(sale.TotalAmount)
		sale.TotalAmount = decimal.Zero
		sale.Status = entity.SaleStatusRefunded
		sale.UpdatedAt = now
		out.Status = sale.Status
		return saleRepo.Update(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("sale_id", saleID).Str("store_id", storeID).Msg("venta reembolsada")
	return &out, nil
}

// RefundPartial devuelve cantidades por variante. Las líneas inválidas se omiten sin abortar;
// la venta pasa a refunded cuando todas sus líneas llegan a cero.
func (uc *UseCase) RefundPartial(ctx context.Context, saleID, storeID, actorID string, lines []RefundLine) (*RefundOutput, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no hay líneas a reembolsar", domain.ErrInvalidInput)
	}

	var out RefundOutput
	err := uc.txRunner.RunSales(ctx, func(
		saleRepo repository.SaleRepository,
		_ repository.VariantRepository,
		stockRepo repository.StockRepository,
		historyRepo repository.StockHistoryRepository,
	) error {
		out = RefundOutput{RefundedAmount: decimal.Zero}
		sale, err := loadForRefund(ctx, saleRepo, saleID, storeID)
		if err != nil {
			return err
		}
		now := uc.now()
		m := inventory.Movement{
			StoreID: sale.StoreID,
			Type:    entity.ChangeRefundPartial,
			ActorID: actorID,
			Note:    "reembolso parcial " + sale.ReceiptNumber(),
			At:      now,
		}

		for _, line := range lines {
			item := findItem(sale.Items, line.VariantID)
			if line.Quantity <= 0 || item == nil || line.Quantity > item.Quantity {
				out.Skipped = append(out.Skipped, line)
				continue
			}
			refund := item.DiscountedPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
			item.Quantity -= line.Quantity
			item.Subtotal = item.Subtotal.Sub(refund)
			if err := saleRepo.UpdateItem(ctx, item); err != nil {
				return err
			}
			if err := restock(ctx, stockRepo, historyRepo, item, line.Quantity, m); err != nil {
				return err
			}
			sale.TotalAmount = sale.TotalAmount.Sub(refund)
			sale.RefundedAmount = sale.RefundedAmount.Add(refund)
			out.RefundedAmount = out.RefundedAmount.Add(refund)
		}

		if allZero(sale.Items) {
			sale.Status = entity.SaleStatusRefunded
		}
		sale.UpdatedAt = now
		out.Status = sale.Status
		return saleRepo.Update(ctx, sale)
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().
		Str("sale_id", saleID).
		Str("refunded", out.RefundedAmount.String()).
		Int("skipped", len(out.Skipped)).
		Str("status", out.Status).
		Msg("reembolso parcial aplicado")
	return &out, nil
}

// findItem primera línea de la variante con cantidad restante.
func findItem(items []*entity.SaleItem, variantID string) *entity.SaleItem {
	var fallback *entity.SaleItem
	for _, it := range items {
		if variantID == "" || it.VariantID != variantID {
			continue
		}
		if it.Quantity > 0 {
			return it
		}
		if fallback == nil {
			fallback = it
		}
	}
	return fallback
}

func allZero(items []*entity.SaleItem) bool {
	for _, it := range items {
		if it.Quantity > 0 {
			return false
		}
	}
	return true
}
