package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/catalog"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importjob"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/sales"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/stock"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/memory"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/spreadsheet"
	apphttp "github.com/Mingdezzi/FLOWORK-BETA/internal/interfaces/http"
	pkgjwt "github.com/Mingdezzi/FLOWORK-BETA/pkg/jwt"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

const (
	otherStoreID = "00000000-0000-0000-0000-000000000004"
	variantID    = "variant-bk-m"
	productID    = "product-1"
)

type fakeRenderer struct{}

func (fakeRenderer) RenderReceipt(_ context.Context, sale *entity.Sale, _ *entity.Store) ([]byte, error) {
	return []byte("%PDF-" + sale.ReceiptNumber()), nil
}

type testEnv struct {
	app    *fiber.App
	db     *memory.DB
	jobs   *memory.JobStore
	tmpDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()
	db := memory.NewDB()
	db.AddStore(&entity.Store{ID: testStoreID, BrandID: testBrandID, Name: "강남점"})
	db.AddStore(&entity.Store{ID: otherStoreID, BrandID: testBrandID, Name: "홍대점"})
	require.NoError(t, db.Products().CreateBatch(ctx, []*entity.Product{
		{ID: productID, BrandID: testBrandID, ProductNumber: "ABC1234", Name: "티셔츠",
			ProductNumberCleaned: "ABC1234", NameCleaned: "티셔츠", NameInitials: "ㅌㅅㅊ"},
	}))
	require.NoError(t, db.Variants().CreateBatch(ctx, []*entity.Variant{
		{ID: variantID, ProductID: productID, Barcode: "ABC123400BKM00", BarcodeCleaned: "ABC123400BKM00",
			Color: "BK", Size: "M", OriginalPrice: decimal.NewFromInt(10000), SalePrice: decimal.NewFromInt(9000)},
	}))

	jobs := memory.NewJobStore()
	locker := memory.NewLocker()
	engine := reconcile.NewEngine(db, db.Stores(), locker, 0, log)
	runner := importjob.NewRunner(spreadsheet.NewReader(), db.Settings(), engine, jobs,
		importjob.Config{Workers: 1, FlushInterval: 5 * time.Millisecond}, log)
	runCtx, cancel := context.WithCancel(context.Background())
	runner.Start(runCtx)
	t.Cleanup(func() {
		cancel()
		runner.Wait()
	})

	tmpDir := t.TempDir()
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		SalesUC:   sales.NewUseCase(db, db.Sales(), db.Stores(), time.UTC, log),
		ReceiptUC: sales.NewReceiptUseCase(db.Sales(), db.Stores(), fakeRenderer{}),
		StockUC:   stock.NewUseCase(db, db.Stores(), db.Variants(), db.Stocks(), db.History(), log),
		CatalogUC: catalog.NewUseCase(db, locker, db.Products(), db.Variants(), db.Settings(), spreadsheet.NewCatalogWriter(), log),
		Imports:   runner,
		ImportDir: tmpDir,
		Location:  time.UTC,
		JWTSecret: testJWTSecret,
		Log:       log,
	})
	return &testEnv{app: app, db: db, jobs: jobs, tmpDir: tmpDir}
}

func (e *testEnv) do(t *testing.T, method, path, auth string, body any) *http.Response {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	decode(t, resp, &body)
	return body["code"]
}

func saleBody(qty int) map[string]any {
	return map[string]any{
		"payment_method": "카드",
		"items": []map[string]any{
			{"variant_id": variantID, "quantity": qty, "unit_price": "9000", "discount_amount": "0"},
		},
	}
}

func (e *testEnv) createSale(t *testing.T, auth string, qty int) map[string]any {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/sales", auth, saleBody(qty))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out map[string]any
	decode(t, resp, &out)
	return out
}

// ──────────────────────────────────────────────────────────────────────────────
// Ventas
// ──────────────────────────────────────────────────────────────────────────────

func TestSales_CrearConsultarYReembolsar(t *testing.T) {
	env := newTestEnv(t)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	created := env.createSale(t, staff, 2)
	assert.Equal(t, "valid", created["status"])
	assert.Equal(t, float64(1), created["receipt_seq"], "primera venta del día")
	assert.Equal(t, "18000", created["total_amount"])
	receipt, _ := created["receipt_number"].(string)
	assert.True(t, strings.HasSuffix(receipt, "-0001"), receipt)
	saleID, _ := created["sale_id"].(string)
	require.NotEmpty(t, saleID)

	second := env.createSale(t, staff, 1)
	assert.Equal(t, float64(2), second["receipt_seq"])

	var sale map[string]any
	decode(t, env.do(t, http.MethodGet, "/api/sales/"+saleID, staff, nil), &sale)
	items, _ := sale["items"].([]any)
	assert.Len(t, items, 1)

	var list []map[string]any
	decode(t, env.do(t, http.MethodGet, "/api/sales", staff, nil), &list)
	assert.Len(t, list, 2, "ventas del día")

	var partial map[string]any
	decode(t, env.do(t, http.MethodPost, "/api/sales/"+saleID+"/refund-partial", staff, map[string]any{
		"items": []map[string]any{{"variant_id": variantID, "quantity": 1}, {"variant_id": "desconocida", "quantity": 1}},
	}), &partial)
	assert.Equal(t, "valid", partial["status"])
	assert.Equal(t, "9000", partial["refunded_amount"])
	skipped, _ := partial["skipped"].([]any)
	assert.Len(t, skipped, 1, "la línea sin venta se omite")

	var full map[string]any
	decode(t, env.do(t, http.MethodPost, "/api/sales/"+saleID+"/refund", staff, nil), &full)
	assert.Equal(t, "refunded", full["status"])

	again := env.do(t, http.MethodPost, "/api/sales/"+saleID+"/refund", staff, nil)
	assert.Equal(t, http.StatusConflict, again.StatusCode)
	assert.Equal(t, "ALREADY_REFUNDED", errorCode(t, again))
}

func TestSales_Validaciones(t *testing.T) {
	env := newTestEnv(t)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	empty := env.do(t, http.MethodPost, "/api/sales", staff, map[string]any{"items": []any{}})
	assert.Equal(t, http.StatusBadRequest, empty.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, empty))

	badDate := env.do(t, http.MethodGet, "/api/sales?date=09-03-2024", staff, nil)
	assert.Equal(t, http.StatusBadRequest, badDate.StatusCode)
	badDate.Body.Close()

	hq := bearer(t, pkgjwt.Identity{UserID: testUserID, BrandID: testBrandID, Role: pkgjwt.RoleAdmin})
	noStore := env.do(t, http.MethodPost, "/api/sales", hq, saleBody(1))
	assert.Equal(t, http.StatusForbidden, noStore.StatusCode, "casa matriz no vende")
	noStore.Body.Close()

	missing := env.do(t, http.MethodGet, "/api/sales/no-existe", staff, nil)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, missing))
}

func TestSales_CantidadesComoTexto(t *testing.T) {
	env := newTestEnv(t)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	resp := env.do(t, http.MethodPost, "/api/sales", staff, map[string]any{
		"payment_method": "현금",
		"items": []map[string]any{
			{"variant_id": variantID, "quantity": "2", "unit_price": "9000", "discount_amount": "0"},
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "la cantidad en texto se convierte")
	var created map[string]any
	decode(t, resp, &created)
	assert.Equal(t, "18000", created["total_amount"])
	saleID, _ := created["sale_id"].(string)
	require.NotEmpty(t, saleID)

	var partial map[string]any
	refund := env.do(t, http.MethodPost, "/api/sales/"+saleID+"/refund-partial", staff, map[string]any{
		"items": []map[string]any{{"variant_id": variantID, "quantity": "1"}},
	})
	require.Equal(t, http.StatusOK, refund.StatusCode)
	decode(t, refund, &partial)
	assert.Equal(t, "9000", partial["refunded_amount"])

	bad := env.do(t, http.MethodPost, "/api/sales", staff, map[string]any{
		"items": []map[string]any{
			{"variant_id": variantID, "quantity": "dos", "unit_price": "9000"},
		},
	})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, bad), "cantidad no numérica")
}

func TestSales_OtraTiendaNoVeLaVenta(t *testing.T) {
	env := newTestEnv(t)
	created := env.createSale(t, tokenForRole(t, pkgjwt.RoleStaff), 1)
	saleID := created["sale_id"].(string)

	other := bearer(t, pkgjwt.Identity{UserID: testUserID, BrandID: testBrandID, StoreID: otherStoreID, Role: pkgjwt.RoleStaff})
	resp := env.do(t, http.MethodGet, "/api/sales/"+saleID, other, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	refund := env.do(t, http.MethodPost, "/api/sales/"+saleID+"/refund", other, nil)
	assert.Equal(t, http.StatusNotFound, refund.StatusCode)
	refund.Body.Close()
}

func TestSales_DescargaRecibo(t *testing.T) {
	env := newTestEnv(t)
	staff := tokenForRole(t, pkgjwt.RoleStaff)
	created := env.createSale(t, staff, 1)

	resp := env.do(t, http.MethodGet, "/api/sales/"+created["sale_id"].(string)+"/receipt.pdf", staff, nil)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/pdf")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "receipt-"+created["receipt_number"].(string)+".pdf")
	body, _ := io.ReadAll(resp.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF-")))
}

// ──────────────────────────────────────────────────────────────────────────────
// Stock
// ──────────────────────────────────────────────────────────────────────────────

func TestStock_AjusteConteoEHistorial(t *testing.T) {
	env := newTestEnv(t)
	manager := tokenForRole(t, pkgjwt.RoleStoreManager)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	denied := env.do(t, http.MethodPost, "/api/stock/adjust", staff, map[string]any{"variant_id": variantID, "set": 7})
	assert.Equal(t, http.StatusForbidden, denied.StatusCode, "staff no ajusta saldos")
	denied.Body.Close()

	var adj map[string]any
	decode(t, env.do(t, http.MethodPost, "/api/stock/adjust", manager, map[string]any{"variant_id": variantID, "set": 7}), &adj)
	assert.Equal(t, float64(7), adj["quantity"])
	assert.Equal(t, true, adj["changed"])

	count := env.do(t, http.MethodPost, "/api/stock/count", staff, map[string]any{"variant_id": variantID, "counted": 4})
	assert.Equal(t, http.StatusOK, count.StatusCode)
	count.Body.Close()

	var applied map[string]any
	decode(t, env.do(t, http.MethodPost, "/api/stock/count/apply", manager, nil), &applied)
	assert.Equal(t, float64(1), applied["adjusted"])
	assert.Equal(t, float64(1), applied["cleared"])

	var history []map[string]any
	decode(t, env.do(t, http.MethodGet, "/api/stock/history?variant_id="+variantID, staff, nil), &history)
	require.Len(t, history, 2)
	assert.Equal(t, "MANUAL_UPDATE", history[0]["change_type"])
	assert.Equal(t, "CHECK_ADJUST", history[1]["change_type"])
	assert.Equal(t, float64(-3), history[1]["quantity_change"])
	assert.Equal(t, float64(4), history[1]["current_quantity"])

	both := env.do(t, http.MethodPost, "/api/stock/adjust", manager, map[string]any{"variant_id": variantID})
	assert.Equal(t, http.StatusBadRequest, both.StatusCode, "falta set o delta")
	both.Body.Close()
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo
// ──────────────────────────────────────────────────────────────────────────────

func TestProducts_BuscarVariantesYExportar(t *testing.T) {
	env := newTestEnv(t)
	staff := tokenForRole(t, pkgjwt.RoleStaff)

	var found []map[string]any
	decode(t, env.do(t, http.MethodGet, "/api/products/search?q=abc", staff, nil), &found)
	require.Len(t, found, 1)
	assert.Equal(t, "ABC1234", found[0]["product_number"])

	empty := env.do(t, http.MethodGet, "/api/products/search?q=", staff, nil)
	assert.Equal(t, http.StatusBadRequest, empty.StatusCode)
	empty.Body.Close()

	var variants []map[string]any
	decode(t, env.do(t, http.MethodGet, "/api/products/"+productID+"/variants", staff, nil), &variants)
	require.Len(t, variants, 1)
	assert.Equal(t, "ABC123400BKM00", variants[0]["barcode"])

	export := env.do(t, http.MethodGet, "/api/products/export.xlsx", staff, nil)
	defer export.Body.Close()
	require.Equal(t, http.StatusOK, export.StatusCode)
	assert.Contains(t, export.Header.Get("Content-Disposition"), "catalog.xlsx")
	body, _ := io.ReadAll(export.Body)
	assert.True(t, bytes.HasPrefix(body, []byte("PK")), "xlsx es un zip")
}

func TestProducts_BorrarRequiereDetach(t *testing.T) {
	env := newTestEnv(t)
	env.createSale(t, tokenForRole(t, pkgjwt.RoleStaff), 1)
	admin := tokenForRole(t, pkgjwt.RoleAdmin)

	denied := env.do(t, http.MethodDelete, "/api/products/"+productID, tokenForRole(t, pkgjwt.RoleStoreManager), nil)
	assert.Equal(t, http.StatusForbidden, denied.StatusCode)
	denied.Body.Close()

	blocked := env.do(t, http.MethodDelete, "/api/products/"+productID, admin, nil)
	assert.Equal(t, http.StatusConflict, blocked.StatusCode)
	assert.Equal(t, "INTEGRITY", errorCode(t, blocked))

	var detached map[string]any
	decode(t, env.do(t, http.MethodPost, "/api/products/"+productID+"/detach", admin, nil), &detached)
	assert.Equal(t, float64(1), detached["detached"])

	ok := env.do(t, http.MethodDelete, "/api/products/"+productID, admin, nil)
	assert.Equal(t, http.StatusOK, ok.StatusCode)
	ok.Body.Close()

	gone := env.do(t, http.MethodGet, "/api/products/"+productID+"/variants", admin, nil)
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
	gone.Body.Close()
}

// ──────────────────────────────────────────────────────────────────────────────
// Cargas masivas
// ──────────────────────────────────────────────────────────────────────────────

const importCSV = "품번,품명,컬러,사이즈,판매가,수량\n" +
	"AB-12,반팔티,BK,M,19000,3\n" +
	"AB-12,반팔티,BK,L,19000,2\n" +
	"AB-12,반팔티,,XL,free,1\n"

const importColumns = `{"product_number":"A","product_name":"B","color":"C","size":"D","sale_price":"E","quantity":"F"}`

func (e *testEnv) upload(t *testing.T, path, auth string, fields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("file", "stock.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(importCSV))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", auth)
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestImports_VerificarNoEscribe(t *testing.T) {
	env := newTestEnv(t)
	manager := tokenForRole(t, pkgjwt.RoleStoreManager)

	var rows []map[string]any
	decode(t, env.upload(t, "/api/imports/verify", manager, map[string]string{"columns": importColumns}), &rows)
	require.NotEmpty(t, rows, "la fila con precio no numérico es sospechosa")

	products, err := env.db.Products().ListByBrand(context.Background(), testBrandID)
	require.NoError(t, err)
	assert.Len(t, products, 1, "verify no crea productos")

	left, err := os.ReadDir(env.tmpDir)
	require.NoError(t, err)
	assert.Empty(t, left, "el archivo subido se borra")

	bad := env.upload(t, "/api/imports/verify", manager, map[string]string{"columns": "no-json"})
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
	bad.Body.Close()
}

func TestImports_PermisosPorRol(t *testing.T) {
	env := newTestEnv(t)
	manager := tokenForRole(t, pkgjwt.RoleStoreManager)

	hq := env.upload(t, "/api/imports", manager, map[string]string{"mode": "hq", "columns": importColumns})
	assert.Equal(t, http.StatusForbidden, hq.StatusCode, "solo admin usa el modo hq")
	hq.Body.Close()

	other := env.upload(t, "/api/imports", manager, map[string]string{
		"mode": "store", "store_id": otherStoreID, "columns": importColumns,
	})
	assert.Equal(t, http.StatusForbidden, other.StatusCode, "solo su propia tienda")
	other.Body.Close()

	staff := env.upload(t, "/api/imports", tokenForRole(t, pkgjwt.RoleStaff), map[string]string{
		"mode": "store", "columns": importColumns,
	})
	assert.Equal(t, http.StatusForbidden, staff.StatusCode)
	staff.Body.Close()

	badMode := env.upload(t, "/api/imports", tokenForRole(t, pkgjwt.RoleAdmin), map[string]string{
		"mode": "todo", "columns": importColumns,
	})
	assert.Equal(t, http.StatusBadRequest, badMode.StatusCode)
	badMode.Body.Close()
}

func TestImports_AdminEncolaYConsultaEstado(t *testing.T) {
	env := newTestEnv(t)
	admin := tokenForRole(t, pkgjwt.RoleAdmin)

	resp := env.upload(t, "/api/imports", admin, map[string]string{"mode": "store", "columns": importColumns})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var accepted map[string]string
	decode(t, resp, &accepted)
	jobID := accepted["job_id"]
	require.NotEmpty(t, jobID)

	var job entity.ImportJob
	require.Eventually(t, func() bool {
		r := env.do(t, http.MethodGet, "/api/imports/"+jobID, admin, nil)
		if r.StatusCode != http.StatusOK {
			r.Body.Close()
			return false
		}
		decode(t, r, &job)
		return job.Done()
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, entity.JobCompleted, job.Status, job.Message)
	assert.Equal(t, testStoreID, job.StoreID, "la tienda sale del token")
	assert.Equal(t, 2, job.Total)
	assert.Equal(t, 1, job.Rejected)
	assert.Equal(t, 2, job.Result["variants_created"])

	done := env.do(t, http.MethodDelete, "/api/imports/"+jobID, admin, nil)
	assert.Equal(t, http.StatusConflict, done.StatusCode, "no se cancela un trabajo terminado")
	done.Body.Close()

	foreign := bearer(t, pkgjwt.Identity{UserID: testUserID, BrandID: "otra-marca", Role: pkgjwt.RoleAdmin})
	hidden := env.do(t, http.MethodGet, "/api/imports/"+jobID, foreign, nil)
	assert.Equal(t, http.StatusNotFound, hidden.StatusCode, "los trabajos son por marca")
	hidden.Body.Close()
}
