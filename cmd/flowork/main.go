package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v2"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importjob"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/postgres"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/redisstore"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/infrastructure/spreadsheet"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/config"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// env recursos compartidos por los comandos.
type env struct {
	cfg  *config.Config
	log  *logger.Logger
	pool *pgxpool.Pool
	rdb  *redis.Client
}

func (e *env) close() {
	if e.rdb != nil {
		_ = e.rdb.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

func setup(ctx context.Context, withRedis bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cargar configuración: %w", err)
	}
	e := &env{cfg: cfg, log: logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})}
	if e.pool, err = postgres.NewPool(ctx, cfg.DB); err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if withRedis {
		if e.rdb, err = redisstore.NewClient(ctx, cfg.Redis); err != nil {
			e.close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
	}
	return e, nil
}

// runner arma el pipeline de importación con un solo worker.
func (e *env) runner() *importjob.Runner {
	settings := redisstore.NewSettingsCache(e.rdb, postgres.NewSettingsRepository(e.pool), 0, e.log)
	engine := reconcile.NewEngine(
		postgres.NewTxRunner(e.pool),
		postgres.NewStoreRepository(e.pool),
		redisstore.NewTenantLocker(e.rdb, 0, e.log),
		e.cfg.Import.BatchSize,
		e.log,
	)
	return importjob.NewRunner(
		spreadsheet.NewReader(),
		settings,
		engine,
		redisstore.NewJobStore(e.rdb, e.cfg.Redis.JobTTL),
		importjob.Config{Workers: 1, QueueSize: 1},
		e.log,
	)
}

// parseColumns acepta JSON ({"color":"C"}) o pares campo=columna separados por coma.
func parseColumns(raw string) (importer.ColumnMap, error) {
	m := map[string]string{}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			return nil, fmt.Errorf("--columns: %w", err)
		}
	} else {
		for _, pair := range strings.Split(raw, ",") {
			k, v, ok := strings.Cut(pair, "=")
			if !ok {
				return nil, fmt.Errorf("--columns: par inválido %q", pair)
			}
			m[strings.TrimSpace(k)] = strings.TrimSpace(v)
		}
	}
	return importer.ParseColumnMap(m)
}

func fileFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Archivo xlsx o csv", Required: true},
		&cli.StringFlag{Name: "brand", Usage: "ID de la marca", Required: true, EnvVars: []string{"FLOWORK_BRAND_ID"}},
		&cli.StringFlag{Name: "columns", Usage: "Mapeo campo=columna (product_number=A,color=C) o JSON", Required: true},
		&cli.StringFlag{Name: "layout", Usage: "vertical | horizontal_matrix (vacío = configuración de la marca)"},
	}
}

func runMigrate(c *cli.Context) error {
	e, err := setup(c.Context, false)
	if err != nil {
		return err
	}
	defer e.close()
	applied, err := postgres.Migrate(c.Context, e.pool)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Println("sin migraciones pendientes")
		return nil
	}
	for _, name := range applied {
		fmt.Println("aplicada:", name)
	}
	return nil
}

func runVerify(c *cli.Context) error {
	cols, err := parseColumns(c.String("columns"))
	if err != nil {
		return err
	}
	e, err := setup(c.Context, true)
	if err != nil {
		return err
	}
	defer e.close()

	rows, err := e.runner().Verify(c.Context, importjob.VerifyRequest{
		BrandID:  c.String("brand"),
		Columns:  cols,
		Layout:   importer.Layout(c.String("layout")),
		FilePath: c.String("file"),
	})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("sin filas sospechosas")
		return nil
	}
	for _, r := range rows {
		fmt.Printf("fila %d\t%s\t%s\n", r.RowIndex, r.Preview, strings.Join(r.Reasons, "; "))
	}
	return cli.Exit(fmt.Sprintf("%d filas sospechosas", len(rows)), 2)
}

func runImport(c *cli.Context) error {
	mode, err := reconcile.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}
	cols, err := parseColumns(c.String("columns"))
	if err != nil {
		return err
	}
	excluded := map[int]bool{}
	for _, r := range c.IntSlice("exclude") {
		excluded[r] = true
	}

	e, err := setup(c.Context, true)
	if err != nil {
		return err
	}
	defer e.close()

	ctx, cancel := context.WithCancel(c.Context)
	runner := e.runner()
	runner.Start(ctx)
	defer runner.Wait()
	defer cancel()

	job, err := runner.Submit(ctx, importjob.JobRequest{
		BrandID:     c.String("brand"),
		StoreID:     c.String("store"),
		Mode:        mode,
		Columns:     cols,
		Layout:      importer.Layout(c.String("layout")),
		AllowCreate: c.Bool("allow-create"),
		ActorID:     "cli",
		FilePath:    c.String("file"),
		Excluded:    excluded,
	})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-c.Context.Done():
			_ = runner.Cancel(context.Background(), job.ID)
			return c.Context.Err()
		case <-ticker.C:
		}
		cur, err := runner.Status(ctx, job.ID)
		if err != nil {
			return err
		}
		e.log.Info().Str("job_id", cur.ID).Str("status", string(cur.Status)).
			Int("current", cur.Current).Int("total", cur.Total).Msg("progreso")
		if !cur.Done() {
			continue
		}
		out, _ := json.MarshalIndent(cur, "", "  ")
		fmt.Println(string(out))
		if cur.Status != entity.JobCompleted {
			return cli.Exit("importación "+string(cur.Status)+": "+cur.Message, 1)
		}
		return nil
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: no se pudo cargar .env: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := &cli.App{
		Name:  "flowork",
		Usage: "Herramientas de operación: migraciones y cargas masivas de catálogo y stock",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Aplica las migraciones SQL pendientes",
				Action: runMigrate,
			},
			{
				Name:   "verify",
				Usage:  "Lista las filas sospechosas de un archivo sin escribir nada",
				Flags:  fileFlags(),
				Action: runVerify,
			},
			{
				Name:  "import",
				Usage: "Importa un archivo en modo hq, store o db y espera el resultado",
				Flags: append(fileFlags(),
					&cli.StringFlag{Name: "mode", Usage: "hq | store | db", Required: true},
					&cli.StringFlag{Name: "store", Usage: "ID de la tienda (modo store)"},
					&cli.BoolFlag{Name: "allow-create", Usage: "Crear productos y variantes nuevos", Value: true},
					&cli.IntSliceFlag{Name: "exclude", Usage: "Filas a omitir (repetible)"},
				),
				Action: runImport,
			},
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
