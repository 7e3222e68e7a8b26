package catalog_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/catalog"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/memory"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

const brandID = "brand-1"

type captureWriter struct{ rows []catalog.ExportRow }

func (c *captureWriter) WriteCatalog(w io.Writer, rows []catalog.ExportRow) error {
	c.rows = rows
	_, err := w.Write([]byte("ok"))
	return err
}

func setup(t *testing.T) (*memory.DB, *catalog.UseCase, *captureWriter) {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB()
	db.AddStore(&entity.Store{ID: "store-1", BrandID: brandID})
	require.NoError(t, db.Products().CreateBatch(ctx, []*entity.Product{
		{ID: "p1", BrandID: brandID, ProductNumber: "ABC-1234", Name: "반팔 티셔츠",
			ProductNumberCleaned: "ABC1234", NameCleaned: "반팔티셔츠", NameInitials: "ㅂㅍㅌㅅㅊ"},
		{ID: "p2", BrandID: brandID, ProductNumber: "XYZ9", Name: "모자",
			ProductNumberCleaned: "XYZ9", NameCleaned: "모자", NameInitials: "ㅁㅈ"},
		{ID: "p3", BrandID: "brand-2", ProductNumber: "ABC9999", Name: "타사",
			ProductNumberCleaned: "ABC9999", NameCleaned: "타사", NameInitials: "ㅌㅅ"},
	}))
	var variants []*entity.Variant
	for i, size := range []string{"XL", "M", "100", "FREE", "S"} {
		variants = append(variants, &entity.Variant{
			ID: "v" + size, ProductID: "p1", Color: "BK", Size: size,
			Barcode: "B" + size, BarcodeCleaned: "B" + size, HQQuantity: i,
		})
	}
	variants = append(variants, &entity.Variant{ID: "vh", ProductID: "p2", Color: "RD", Size: "F", BarcodeCleaned: "H"})
	require.NoError(t, db.Variants().CreateBatch(ctx, variants))

	w := &captureWriter{}
	uc := catalog.NewUseCase(db, memory.NewLocker(), db.Products(), db.Variants(), db.Settings(), w, logger.Nop())
	return db, uc, w
}

func sizes(vs []*entity.Variant) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Size
	}
	return out
}

func TestListVariants_SortedBySizeRules(t *testing.T) {
	db, uc, _ := setup(t)
	ctx := context.Background()

	vs, err := uc.ListVariants(ctx, brandID, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "S", "M", "XL", "FREE"}, sizes(vs))

	db.SetSetting(brandID, repository.SettingSizeSortOrder, `["free", "xl"]`)
	vs, err = uc.ListVariants(ctx, brandID, "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"FREE", "XL", "100", "S", "M"}, sizes(vs), "el orden de la marca tiene prioridad")

	_, err = uc.ListVariants(ctx, brandID, "p3")
	assert.ErrorIs(t, err, domain.ErrNotFound, "producto de otra marca")
}

func TestSearch(t *testing.T) {
	_, uc, _ := setup(t)
	ctx := context.Background()

	byNumber, err := uc.Search(ctx, brandID, "abc-12", 0)
	require.NoError(t, err)
	require.Len(t, byNumber, 1)
	assert.Equal(t, "p1", byNumber[0].ID)

	byInitials, err := uc.Search(ctx, brandID, "ㅌㅅ", 0)
	require.NoError(t, err)
	require.Len(t, byInitials, 1, "solo productos de la marca")
	assert.Equal(t, "p1", byInitials[0].ID)

	byName, err := uc.Search(ctx, brandID, "모 자", 0)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "p2", byName[0].ID)

	_, err = uc.Search(ctx, brandID, " - ", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDeleteProduct_IntegrityAndDetach(t *testing.T) {
	db, uc, _ := setup(t)
	ctx := context.Background()

	require.NoError(t, db.Sales().Create(ctx, &entity.Sale{
		StoreID: "store-1", SaleDate: time.Now(), DailyNumber: 1, Status: entity.SaleStatusValid,
		Items: []*entity.SaleItem{{LineNo: 1, VariantID: "vM", ProductNumber: "ABC-1234", Quantity: 1}},
	}))
	stock, err := db.Stocks().GetOrCreateForUpdate(ctx, "store-1", "vM")
	require.NoError(t, err)
	stock.Quantity = 3
	require.NoError(t, db.Stocks().Update(ctx, stock))
	require.NoError(t, db.History().Append(ctx, &entity.StockHistory{StoreID: "store-1", VariantID: "vM", QuantityChange: 3, CurrentQuantity: 3, CreatedAt: time.Now()}))

	err = uc.DeleteProduct(ctx, brandID, "p1")
	require.ErrorIs(t, err, domain.ErrIntegrity, "no se borra en cascada el historial")
	p, err := db.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)

	n, err := uc.DetachProduct(ctx, brandID, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, uc.DeleteProduct(ctx, brandID, "p1"))
	p, err = db.Products().GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Nil(t, p)
	s, err := db.Stocks().Get(ctx, "store-1", "vM")
	require.NoError(t, err)
	assert.Nil(t, s)
	entries, err := db.History().ListByStoreVariant(ctx, "store-1", "vM")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "el libro queda intacto")

	assert.ErrorIs(t, uc.DeleteProduct(ctx, brandID, "p1"), domain.ErrNotFound)
}

func TestDeleteProduct_RespectsBrandLock(t *testing.T) {
	db, _, w := setup(t)
	ctx := context.Background()
	locker := memory.NewLocker()
	uc := catalog.NewUseCase(db, locker, db.Products(), db.Variants(), db.Settings(), w, logger.Nop())

	lease, err := locker.Lock(ctx, brandID)
	require.NoError(t, err)
	err = uc.DeleteProduct(ctx, brandID, "p2")
	assert.ErrorIs(t, err, domain.ErrConflict, "no se borra durante una importación de la marca")
	p, err := db.Products().GetByID(ctx, "p2")
	require.NoError(t, err)
	assert.NotNil(t, p)

	require.NoError(t, lease.Release(ctx))
	require.NoError(t, uc.DeleteProduct(ctx, brandID, "p2"))
	assert.False(t, locker.Held(brandID), "el bloqueo se libera al terminar")
}

func TestExportCatalog(t *testing.T) {
	_, uc, w := setup(t)
	var buf bytes.Buffer

	require.NoError(t, uc.ExportCatalog(context.Background(), brandID, &buf))
	require.Len(t, w.rows, 6)
	assert.Equal(t, "ABC-1234", w.rows[0].ProductNumber)
	assert.Equal(t, "100", w.rows[0].Size)
	assert.Equal(t, 2, w.rows[0].HQQuantity)
	assert.Equal(t, "XYZ9", w.rows[5].ProductNumber)
	assert.Equal(t, "ok", buf.String())
}
