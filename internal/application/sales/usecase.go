// Package sales implementa el punto de venta: alta de ventas con secuencia diaria por
// tienda, reembolso total y parcial, siempre junto con saldos y libro de stock.
package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/inventory"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// UseCase casos de uso de venta y reembolso.
type UseCase struct {
	txRunner  SalesTxRunner
	saleRepo  repository.SaleRepository
	storeRepo repository.StoreRepository
	loc       *time.Location
	log       *logger.Logger
	now       func() time.Time
}

// NewUseCase construye el caso de uso. loc define la fecha comercial (nil = UTC).
func NewUseCase(
	txRunner SalesTxRunner,
	saleRepo repository.SaleRepository,
	storeRepo repository.StoreRepository,
	loc *time.Location,
	log *logger.Logger,
) *UseCase {
	if loc == nil {
		loc = time.UTC
	}
	return &UseCase{
		txRunner:  txRunner,
		saleRepo:  saleRepo,
		storeRepo: storeRepo,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// LineInput línea solicitada.
type LineInput struct {
	VariantID      string
	Quantity       int
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
}

// CreateSaleInput entrada de CreateSale. SaleDate cero = hoy.
type CreateSaleInput struct {
	StoreID       string
	ActorID       string
	SaleDate      time.Time
	PaymentMethod string
	IsOnline      bool
	Lines         []LineInput
}

// CreateSaleOutput resultado de CreateSale.
type CreateSaleOutput struct {
	SaleID        string
	SaleDate      time.Time
	DailyNumber   int
	ReceiptNumber string
	TotalAmount   decimal.Decimal
	Status        string
}

func validateLines(lines []LineInput) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: la venta no tiene líneas", domain.ErrInvalidInput)
	}
	for i, l := range lines {
		switch {
		case strings.TrimSpace(l.VariantID) == "":
			return fmt.Errorf("%w: línea %d sin variante", domain.ErrInvalidInput, i+1)
		case l.Quantity <= 0:
			return fmt.Errorf("%w: línea %d con cantidad %d", domain.ErrInvalidInput, i+1, l.Quantity)
		case l.UnitPrice.IsNegative() || l.DiscountAmount.IsNegative():
			return fmt.Errorf("%w: línea %d con importe negativo", domain.ErrInvalidInput, i+1)
		case l.DiscountAmount.GreaterThan(l.UnitPrice):
			return fmt.Errorf("%w: línea %d con descuento mayor al precio", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

// businessDate trunca a la fecha comercial en la zona configurada.
func (uc *UseCase) businessDate(t time.Time) time.Time {
	if t.IsZero() {
		t = uc.now()
	}
	y, m, d := t.In(uc.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, uc.loc)
}

func (uc *UseCase) store(ctx context.Context, storeID string) (*entity.Store, error) {
	if storeID == "" {
		return nil, fmt.Errorf("%w: tienda requerida", domain.ErrInvalidInput)
	}
	s, err := uc.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("tienda %s: %w", storeID, domain.ErrNotFound)
	}
	return s, nil
}

// CreateSale registra la venta en una sola transacción: bloquea la tienda para asignar la
// secuencia diaria, descuenta cada saldo (puede quedar negativo) y escribe el libro.
func (uc *UseCase) CreateSale(ctx context.Context, in CreateSaleInput) (*CreateSaleOutput, error) {
	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}
	store, err := uc.store(ctx, in.StoreID)
	if err != nil {
		return nil, err
	}
	payment := strings.TrimSpace(in.PaymentMethod)
	if payment == "" {
		payment = entity.DefaultPaymentMethod
	}
	now := uc.now()
	sale := &entity.Sale{
		ID:            uuid.New().String(),
		StoreID:       store.ID,
		ActorID:       in.ActorID,
		SaleDate:      uc.businessDate(in.SaleDate),
		PaymentMethod: payment,
		Status:        entity.SaleStatusValid,
		IsOnline:      in.IsOnline,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = uc.txRunner.RunSales(ctx, func(
		saleRepo repository.SaleRepository,
		variantRepo repository.VariantRepository,
		stockRepo repository.StockRepository,
		historyRepo repository.StockHistoryRepository,
	) error {
		if err := saleRepo.LockStore(ctx, store.ID); err != nil {
			return err
		}
		seq, err := saleRepo.NextDailyNumber(ctx, store.ID, sale.SaleDate)
		if err != nil {
			return err
		}
		sale.DailyNumber = seq
		sale.Items = sale.Items[:0]
		total := decimal.Zero

		m := inventory.Movement{
			StoreID: store.ID,
			Type:    entity.ChangeSale,
			ActorID: in.ActorID,
			Note:    "venta " + sale.ReceiptNumber(),
			At:      now,
		}
		for i, line := range in.Lines {
			vp, err := variantRepo.GetWithProduct(ctx, line.VariantID)
			if err != nil {
				return err
			}
			if vp == nil || vp.Product.BrandID != store.BrandID {
				return fmt.Errorf("variante %s: %w", line.VariantID, domain.ErrNotFound)
			}
			stock, err := stockRepo.GetOrCreateForUpdate(ctx, store.ID, line.VariantID)
			if err != nil {
				return err
			}
			m.VariantID = line.VariantID
			h := inventory.ApplyDelta(stock, -line.Quantity, m)
			if err := stockRepo.Update(ctx, stock); err != nil {
				return err
			}
			if err := historyRepo.Append(ctx, h); err != nil {
				return err
			}

			discounted := line.UnitPrice.Sub(line.DiscountAmount)
			subtotal := discounted.Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(subtotal)
			sale.Items = append(sale.Items, &entity.SaleItem{
				ID:              uuid.New().String(),
				SaleID:          sale.ID,
				LineNo:          i + 1,
				VariantID:       line.VariantID,
				ProductName:     vp.Product.Name,
				ProductNumber:   vp.Product.ProductNumber,
				Color:           vp.Variant.Color,
				Size:            vp.Variant.Size,
				Barcode:         vp.Variant.Barcode,
				OriginalPrice:   vp.Variant.OriginalPrice,
				UnitPrice:       line.UnitPrice,
				DiscountAmount:  line.DiscountAmount,
				DiscountedPrice: discounted,
				Quantity:        line.Quantity,
				Subtotal:        subtotal,
			})
		}
		sale.TotalAmount = total
		sale.OriginalTotal = total
		sale.RefundedAmount = decimal.Zero
		return saleRepo.Create(ctx, sale)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("sale_id", sale.ID).
		Str("store_id", sale.StoreID).
		Str("receipt", sale.ReceiptNumber()).
		Str("total", sale.TotalAmount.String()).
		Msg("venta registrada")

	return &CreateSaleOutput{
		SaleID:        sale.ID,
		SaleDate:      sale.SaleDate,
		DailyNumber:   sale.DailyNumber,
		ReceiptNumber: sale.ReceiptNumber(),
		TotalAmount:   sale.TotalAmount,
		Status:        sale.Status,
	}, nil
}

// GetSale devuelve la venta con sus líneas; ErrNotFound si no es de la tienda.
func (uc *UseCase) GetSale(ctx context.Context, saleID, storeID string) (*entity.Sale, error) {
	sale, err := uc.saleRepo.GetByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if sale == nil || (storeID != "" && sale.StoreID != storeID) {
		return nil, fmt.Errorf("venta %s: %w", saleID, domain.ErrNotFound)
	}
	return sale, nil
}

// ListDaily ventas del día en orden de secuencia.
func (uc *UseCase) ListDaily(ctx context.Context, storeID string, date time.Time) ([]*entity.Sale, error) {
	if _, err := uc.store(ctx, storeID); err != nil {
		return nil, err
	}
	return uc.saleRepo.ListByStoreDate(ctx, storeID, uc.businessDate(date))
}
