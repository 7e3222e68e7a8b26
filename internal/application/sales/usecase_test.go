package sales_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/sales"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/inventory"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/memory"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

const (
	brandID  = "brand-1"
	storeID  = "store-1"
	skuX     = "variant-x"
	skuY     = "variant-y"
	actorID  = "user-1"
	foreign  = "store-2"
	otherSKU = "variant-other-brand"
)

var seoul = time.FixedZone("KST", 9*3600)

func setup(t *testing.T) (*memory.DB, *sales.UseCase) {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB()
	db.AddStore(&entity.Store{ID: storeID, BrandID: brandID, Name: "강남점"})
	db.AddStore(&entity.Store{ID: foreign, BrandID: brandID, Name: "홍대점"})
	db.AddStore(&entity.Store{ID: "store-b2", BrandID: "brand-2", Name: "타사"})

	require.NoError(t, db.Products().CreateBatch(ctx, []*entity.Product{
		{ID: "p1", BrandID: brandID, ProductNumber: "ABC1234", Name: "티셔츠", ProductNumberCleaned: "ABC1234"},
		{ID: "p2", BrandID: "brand-2", ProductNumber: "ZZZ", Name: "타사", ProductNumberCleaned: "ZZZ"},
	}))
	require.NoError(t, db.Variants().CreateBatch(ctx, []*entity.Variant{
		{ID: skuX, ProductID: "p1", Barcode: "ABC123400BKM00", BarcodeCleaned: "ABC123400BKM00", Color: "BK", Size: "M",
			OriginalPrice: decimal.NewFromInt(10000), SalePrice: decimal.NewFromInt(9000)},
		{ID: skuY, ProductID: "p1", Barcode: "ABC123400BKL00", BarcodeCleaned: "ABC123400BKL00", Color: "BK", Size: "L"},
		{ID: otherSKU, ProductID: "p2", Barcode: "ZZZ00RDS00", BarcodeCleaned: "ZZZ00RDS00", Color: "RD", Size: "S"},
	}))
	seedStock(t, db, skuX, 5)

	return db, sales.NewUseCase(db, db.Sales(), db.Stores(), seoul, logger.Nop())
}

func seedStock(t *testing.T, db *memory.DB, variantID string, qty int) {
	t.Helper()
	ctx := context.Background()
	err := db.Run(ctx, func(stockRepo repository.StockRepository, historyRepo repository.StockHistoryRepository) error {
		stock, err := stockRepo.GetOrCreateForUpdate(ctx, storeID, variantID)
		if err != nil {
			return err
		}
		h := inventory.ApplyDelta(stock, qty, inventory.Movement{StoreID: storeID, VariantID: variantID, Type: entity.ChangeManualUpdate})
		if err := stockRepo.Update(ctx, stock); err != nil {
			return err
		}
		return historyRepo.Append(ctx, h)
	})
	require.NoError(t, err)
}

func balance(t *testing.T, db *memory.DB, variantID string) int {
	t.Helper()
	ctx := context.Background()
	stock, err := db.Stocks().Get(ctx, storeID, variantID)
	require.NoError(t, err)
	require.NotNil(t, stock)
	entries, err := db.History().ListByStoreVariant(ctx, storeID, variantID)
	require.NoError(t, err)
	require.Equal(t, stock.Quantity, inventory.Replay(entries), "el libro debe reconstruir el saldo")
	return stock.Quantity
}

func lastEntry(t *testing.T, db *memory.DB, variantID string) *entity.StockHistory {
	t.Helper()
	entries, err := db.History().ListByStoreVariant(context.Background(), storeID, variantID)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]
}

func line(variantID string, qty int, price int64) sales.LineInput {
	return sales.LineInput{VariantID: variantID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func TestSale_PartialRefundScenario(t *testing.T) {
	db, uc := setup(t)
	ctx := context.Background()

	out, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, ActorID: actorID, Lines: []sales.LineInput{line(skuX, 2, 9000)}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.DailyNumber)
	assert.Equal(t, entity.SaleStatusValid, out.Status)
	assert.True(t, out.TotalAmount.Equal(decimal.NewFromInt(18000)))
	assert.Equal(t, 3, balance(t, db, skuX))
	h := lastEntry(t, db, skuX)
	assert.Equal(t, entity.ChangeSale, h.ChangeType)
	assert.Equal(t, -2, h.QuantityChange)
	assert.Equal(t, 3, h.CurrentQuantity)

	r1, err := uc.RefundPartial(ctx, out.SaleID, storeID, actorID, []sales.RefundLine{{VariantID: skuX, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusValid, r1.Status)
	assert.True(t, r1.RefundedAmount.Equal(decimal.NewFromInt(9000)))
	assert.Equal(t, 4, balance(t, db, skuX))
	h = lastEntry(t, db, skuX)
	assert.Equal(t, entity.ChangeRefundPartial, h.ChangeType)
	assert.Equal(t, 1, h.QuantityChange)
	assert.Equal(t, 4, h.CurrentQuantity)

	r2, err := uc.RefundPartial(ctx, out.SaleID, storeID, actorID, []sales.RefundLine{{VariantID: skuX, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusRefunded, r2.Status, "todas las líneas en cero")
	assert.Equal(t, 5, balance(t, db, skuX))
	assert.Equal(t, 5, lastEntry(t, db, skuX).CurrentQuantity)

	_, err = uc.RefundPartial(ctx, out.SaleID, storeID, actorID, []sales.RefundLine{{VariantID: skuX, Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrAlreadyRefunded)
}

func TestSale_PartialRefundConservation(t *testing.T) {
	db, uc := setup(t)
	ctx := context.Background()
	seedStock(t, db, skuY, 10)

	out, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, Lines: []sales.LineInput{
		{VariantID: skuX, Quantity: 3, UnitPrice: decimal.NewFromInt(10000), DiscountAmount: decimal.NewFromInt(1500)},
		line(skuY, 4, 7000),
	}})
	require.NoError(t, err)
	original := out.TotalAmount
	assert.True(t, original.Equal(decimal.NewFromInt(3*8500+4*7000)))

	res, err := uc.RefundPartial(ctx, out.SaleID, storeID, actorID, []sales.RefundLine{
		{VariantID: skuX, Quantity: 1},
		{VariantID: skuY, Quantity: 9},
		{VariantID: "missing", Quantity: 1},
		{VariantID: skuY, Quantity: 0},
		{VariantID: skuY, Quantity: 2},
	})
	require.NoError(t, err)
	assert.Len(t, res.Skipped, 3, "líneas inválidas se omiten sin abortar")
	assert.True(t, res.RefundedAmount.Equal(decimal.NewFromInt(8500+2*7000)))

	sale, err := uc.GetSale(ctx, out.SaleID, storeID)
	require.NoError(t, err)
	remaining := decimal.Zero
	for _, it := range sale.Items {
		remaining = remaining.Add(it.Subtotal)
	}
	assert.True(t, remaining.Add(sale.RefundedAmount).Equal(original), "subtotales restantes + reembolsado = total original")
	assert.True(t, sale.TotalAmount.Equal(remaining))
	assert.True(t, sale.OriginalTotal.Equal(original))
	assert.Equal(t, 2, sale.Items[0].Quantity)
	assert.True(t, sale.Items[0].DiscountedPrice.Equal(decimal.NewFromInt(8500)))
	assert.Equal(t, 2, sale.Items[1].Quantity)

	_, err = uc.RefundPartial(ctx, out.SaleID, storeID, actorID, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSale_FullRefund(t *testing.T) {
	db, uc := setup(t)
	ctx := context.Background()

	out, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, Lines: []sales.LineInput{line(skuX, 7, 1000)}})
	require.NoError(t, err)
	assert.Equal(t, -2, balance(t, db, skuX), "la sobreventa se registra, no se rechaza")

	_, err = uc.RefundFull(ctx, out.SaleID, foreign, actorID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "venta de otra tienda")

	res, err := uc.RefundFull(ctx, out.SaleID, storeID, actorID)
	require.NoError(t, err)
	assert.Equal(t, entity.SaleStatusRefunded, res.Status)
	assert.True(t, res.RefundedAmount.Equal(decimal.NewFromInt(7000)))
	assert.Equal(t, 5, balance(t, db, skuX))
	h := lastEntry(t, db, skuX)
	assert.Equal(t, entity.ChangeRefundFull, h.ChangeType)
	assert.Equal(t, 7, h.QuantityChange)

	sale, err := uc.GetSale(ctx, out.SaleID, storeID)
	require.NoError(t, err)
	assert.Equal(t, 7, sale.Items[0].Quantity, "las líneas conservan la cantidad")
	assert.True(t, sale.RefundedAmount.Equal(sale.OriginalTotal))

	_, err = uc.RefundFull(ctx, out.SaleID, storeID, actorID)
	assert.ErrorIs(t, err, domain.ErrAlreadyRefunded)
	assert.Equal(t, 5, balance(t, db, skuX))

	_, err = uc.RefundFull(ctx, "nope", storeID, actorID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSale_UnknownVariantRollsBack(t *testing.T) {
	db, uc := setup(t)
	ctx := context.Background()

	for _, bad := range []string{"does-not-exist", otherSKU} {
		_, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, Lines: []sales.LineInput{
			line(skuX, 1, 1000),
			line(bad, 1, 1000),
		}})
		require.ErrorIs(t, err, domain.ErrNotFound, bad)
	}

	assert.Equal(t, 5, balance(t, db, skuX), "ningún descuento confirmado")
	list, err := uc.ListDaily(ctx, storeID, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, list)

	out, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, Lines: []sales.LineInput{line(skuX, 1, 1000)}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.DailyNumber, "la secuencia no se consume en ventas revertidas")
}

func TestSale_Validation(t *testing.T) {
	_, uc := setup(t)
	ctx := context.Background()

	overDiscount := line(skuX, 1, 1000)
	overDiscount.DiscountAmount = decimal.NewFromInt(1500)

	cases := map[string]sales.CreateSaleInput{
		"descuento mayor":  {StoreID: storeID, Lines: []sales.LineInput{overDiscount}},
		"sin líneas":       {StoreID: storeID},
		"cantidad cero":    {StoreID: storeID, Lines: []sales.LineInput{line(skuX, 0, 1000)}},
		"precio negativo":  {StoreID: storeID, Lines: []sales.LineInput{line(skuX, 1, -1)}},
		"variante vacía":   {StoreID: storeID, Lines: []sales.LineInput{line("", 1, 1000)}},
		"tienda requerida": {Lines: []sales.LineInput{line(skuX, 1, 1000)}},
	}
	for name, in := range cases {
		_, err := uc.CreateSale(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}

	fullDiscount := line(skuX, 1, 1000)
	fullDiscount.DiscountAmount = decimal.NewFromInt(1000)
	out, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, Lines: []sales.LineInput{fullDiscount}})
	require.NoError(t, err, "descuento igual al precio es válido")
	assert.True(t, out.TotalAmount.IsZero())

	_, err = uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: "ghost", Lines: []sales.LineInput{line(skuX, 1, 1000)}})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSale_ReceiptAndDefaults(t *testing.T) {
	_, uc := setup(t)
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 23, 30, 0, 0, seoul)

	first, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, SaleDate: day, Lines: []sales.LineInput{line(skuX, 1, 1000)}})
	require.NoError(t, err)
	second, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, SaleDate: day, PaymentMethod: "현금", Lines: []sales.LineInput{line(skuX, 1, 1000)}})
	require.NoError(t, err)
	other, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: foreign, SaleDate: day, Lines: []sales.LineInput{line(skuX, 1, 1000)}})
	require.NoError(t, err)

	assert.Equal(t, "20240309-0001", first.ReceiptNumber)
	assert.Equal(t, "20240309-0002", second.ReceiptNumber)
	assert.Equal(t, 1, other.DailyNumber, "la secuencia es por tienda")

	list, err := uc.ListDaily(ctx, storeID, day)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, entity.DefaultPaymentMethod, list[0].PaymentMethod)
	assert.Equal(t, "현금", list[1].PaymentMethod)
	assert.Equal(t, "티셔츠", list[0].Items[0].ProductName, "datos congelados en la línea")
	assert.Equal(t, "ABC123400BKM00", list[0].Items[0].Barcode)
	assert.True(t, list[0].Items[0].OriginalPrice.Equal(decimal.NewFromInt(10000)))
}

func TestSale_ConcurrentSequence(t *testing.T) {
	db, uc := setup(t)
	ctx := context.Background()
	const n = 25

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seqs []int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := uc.CreateSale(ctx, sales.CreateSaleInput{StoreID: storeID, Lines: []sales.LineInput{line(skuX, 1, 1000)}})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seqs = append(seqs, out.DailyNumber)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Ints(seqs)
	want := make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	assert.Equal(t, want, seqs, "secuencias {1..N} sin duplicados ni huecos")
	assert.Equal(t, 5-n, balance(t, db, skuX), "ninguna actualización perdida")
}
