package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/catalog"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importjob"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/sales"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/stock"
	infrapdf "github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/pdf"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/postgres"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/redisstore"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/spreadsheet"
	httpRouter "github.com/Mingdezzi/FLOWORK-BETA/internal/interfaces/http"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/config"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	loc, err := cfg.App.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("zona horaria")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if applied, err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	} else if len(applied) > 0 {
		log.Info().Strs("applied", applied).Msg("migraciones aplicadas")
	}

	rdb, err := redisstore.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer rdb.Close()

	storeRepo := postgres.NewStoreRepository(pool)
	settingsRepo := redisstore.NewSettingsCache(rdb, postgres.NewSettingsRepository(pool), 0, log)
	productRepo := postgres.NewProductRepository(pool)
	variantRepo := postgres.NewVariantRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	historyRepo := postgres.NewStockHistoryRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	salesUC := sales.NewUseCase(txRunner, saleRepo, storeRepo, loc, log)
	receiptUC := sales.NewReceiptUseCase(saleRepo, storeRepo, infrapdf.NewReceiptGenerator())
	stockUC := stock.NewUseCase(txRunner, storeRepo, variantRepo, stockRepo, historyRepo, log)
	locker := redisstore.NewTenantLocker(rdb, 0, log)
	catalogUC := catalog.NewUseCase(txRunner, locker, productRepo, variantRepo, settingsRepo, spreadsheet.NewCatalogWriter(), log)

	engine := reconcile.NewEngine(txRunner, storeRepo, locker, cfg.Import.BatchSize, log)
	runner := importjob.NewRunner(
		spreadsheet.NewReader(),
		settingsRepo,
		engine,
		redisstore.NewJobStore(rdb, cfg.Redis.JobTTL),
		importjob.Config{Workers: cfg.Import.Workers, QueueSize: cfg.Import.QueueSize},
		log,
	)
	runner.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimitMB * 1024 * 1024,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "FLOWORK API",
		}))
	} else {
		log.Warn().Str("file", swaggerFile).Msg("swagger deshabilitado: archivo no encontrado")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		SalesUC:   salesUC,
		ReceiptUC: receiptUC,
		StockUC:   stockUC,
		CatalogUC: catalogUC,
		Imports:   runner,
		ImportDir: cfg.Import.TmpDir,
		Location:  loc,
		JWTSecret: cfg.JWT.Secret,
		Log:       log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Los trabajos en curso se cancelan entre lotes; lo confirmado se conserva.
	stop()
	runner.Wait()

	log.Info().Msg("aplicación detenida")
}
