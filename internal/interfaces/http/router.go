package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/catalog"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importjob"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/sales"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/stock"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/jwt"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	SalesUC   *sales.UseCase
	ReceiptUC *sales.ReceiptUseCase
	StockUC   *stock.UseCase
	CatalogUC *catalog.UseCase
	Imports   *importjob.Runner
	ImportDir string
	Location  *time.Location
	JWTSecret string
	Log       *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	managers := RequireRole(jwt.RoleAdmin, jwt.RoleStoreManager)

	// Ventas (tienda del token)
	salesGroup := protected.Group("/sales", RequireStore())
	salesHandler := NewSalesHandler(deps.SalesUC, deps.ReceiptUC, deps.Location, deps.Log)
	salesGroup.Post("/", salesHandler.Create)
	salesGroup.Get("/", salesHandler.List)
	salesGroup.Get("/:id", salesHandler.GetByID)
	salesGroup.Get("/:id/receipt.pdf", salesHandler.Receipt)
	salesGroup.Post("/:id/refund", salesHandler.Refund)
	salesGroup.Post("/:id/refund-partial", salesHandler.RefundPartial)

	// Cargas masivas
	imports := protected.Group("/imports", managers)
	importHandler := NewImportHandler(deps.Imports, deps.ImportDir, deps.Log)
	imports.Post("/verify", importHandler.Verify)
	imports.Post("/", importHandler.Submit)
	imports.Get("/:id", importHandler.Status)
	imports.Delete("/:id", importHandler.Cancel)

	// Catálogo de la marca
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.CatalogUC, deps.Log)
	products.Get("/search", productHandler.Search)
	products.Get("/export.xlsx", productHandler.Export)
	products.Get("/:id/variants", productHandler.Variants)
	products.Delete("/:id", RequireRole(jwt.RoleAdmin), productHandler.Delete)
	products.Post("/:id/detach", RequireRole(jwt.RoleAdmin), productHandler.Detach)

	// Stock de la tienda
	stocks := protected.Group("/stock", RequireStore())
	stockHandler := NewStockHandler(deps.StockUC, deps.Log)
	stocks.Post("/adjust", managers, stockHandler.Adjust)
	stocks.Post("/count", stockHandler.Count)
	stocks.Post("/count/apply", managers, stockHandler.ApplyCounts)
	stocks.Get("/history", stockHandler.History)
}
