// Package reconcile fusiona registros importados en el catálogo, los saldos por tienda
// y el libro de stock, en lotes atómicos e independientes.
package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// Mode destino de la carga masiva.
type Mode string

const (
	// ModeHQ fija la cantidad de referencia de casa matriz.
	ModeHQ Mode = "hq"
	// ModeStore fija el saldo de una tienda con asiento en el libro.
	ModeStore Mode = "store"
	// ModeDB reconstruye el catálogo completo de la marca.
	ModeDB Mode = "db"
)

// ParseMode valida el modo recibido del cliente.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeHQ, ModeStore, ModeDB:
		return m, nil
	}
	return "", fmt.Errorf("%w: modo %q", domain.ErrInvalidInput, s)
}

// Límites del tamaño de lote.
const (
	MinBatchSize = 500
	MaxBatchSize = 2000
)

// ClampBatchSize ajusta n al rango admitido.
func ClampBatchSize(n int) int {
	switch {
	case n < MinBatchSize:
		return MinBatchSize
	case n > MaxBatchSize:
		return MaxBatchSize
	}
	return n
}

// Request unidad de trabajo de una reconciliación.
type Request struct {
	BrandID     string
	StoreID     string
	Mode        Mode
	AllowCreate bool
	ActorID     string
	Records     []importer.Record
}

// Result contadores acumulados de los lotes confirmados.
type Result struct {
	ProductsCreated int    `json:"products_created"`
	VariantsCreated int    `json:"variants_created"`
	VariantsUpdated int    `json:"variants_updated"`
	StocksCreated   int    `json:"stocks_created"`
	StocksUpdated   int    `json:"stocks_updated"`
	LedgerEntries   int    `json:"ledger_entries"`
	Skipped         int    `json:"skipped"`
	Message         string `json:"message"`
}

func (r *Result) add(o Result) {
	r.ProductsCreated += o.ProductsCreated
	r.VariantsCreated += o.VariantsCreated
	r.VariantsUpdated += o.VariantsUpdated
	r.StocksCreated += o.StocksCreated
	r.StocksUpdated += o.StocksUpdated
	r.LedgerEntries += o.LedgerEntries
	r.Skipped += o.Skipped
}

// Counts resumen plano para el estado del trabajo.
func (r Result) Counts() map[string]int {
	return map[string]int{
		"products_created": r.ProductsCreated,
		"variants_created": r.VariantsCreated,
		"variants_updated": r.VariantsUpdated,
		"stocks_created":   r.StocksCreated,
		"stocks_updated":   r.StocksUpdated,
		"ledger_entries":   r.LedgerEntries,
		"skipped":          r.Skipped,
	}
}

// ProgressFunc recibe (procesados, total) entre lotes.
type ProgressFunc func(current, total int)

// Engine motor de reconciliación.
type Engine struct {
	txRunner  CatalogTxRunner
	storeRepo repository.StoreRepository
	locker    TenantLocker
	batchSize int
	log       *logger.Logger
	now       func() time.Time
}

// NewEngine construye el motor. batchSize se ajusta a [MinBatchSize, MaxBatchSize].
func NewEngine(
	txRunner CatalogTxRunner,
	storeRepo repository.StoreRepository,
	locker TenantLocker,
	batchSize int,
	log *logger.Logger,
) *Engine {
	return &Engine{
		txRunner:  txRunner,
		storeRepo: storeRepo,
		locker:    locker,
		batchSize: ClampBatchSize(batchSize),
		log:       log,
		now:       time.Now,
	}
}

// Reconcile aplica los registros por lotes. Cada lote confirma por separado: si ctx se
// cancela entre lotes devuelve el Result parcial junto con ctx.Err().
func (e *Engine) Reconcile(ctx context.Context, req Request, progress ProgressFunc) (Result, error) {
	if err := e.validate(ctx, req); err != nil {
		return Result{}, err
	}
	records := collapse(req.Records)
	total := len(records)
	if total == 0 {
		return Result{Message: "no hay datos para procesar"}, nil
	}
	report := func(current int) {
		if progress != nil {
			progress(current, total)
		}
	}
	report(0)

	lease, err := e.locker.Lock(ctx, req.BrandID)
	if err != nil {
		return Result{}, fmt.Errorf("bloqueo de marca: %w", err)
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			e.log.Warn().Err(err).Str("brand_id", req.BrandID).Msg("no se pudo liberar el bloqueo de marca")
		}
	}()

	log := e.log.With().Str("brand_id", req.BrandID).Str("mode", string(req.Mode)).Logger()
	log.Info().Int("records", total).Bool("allow_create", req.AllowCreate).Msg("reconciliación iniciada")

	size := e.batchSize
	if req.Mode == ModeDB {
		size = MaxBatchSize
		if err := e.wipeBrand(ctx, req.BrandID); err != nil {
			return Result{}, err
		}
	}

	var res Result
	for start := 0; start < total; start += size {
		if err := ctx.Err(); err != nil {
			res.Message = fmt.Sprintf("cancelado tras %d de %d registros", start, total)
			log.Warn().Int("processed", start).Msg("reconciliación cancelada")
			return res, err
		}
		end := min(start+size, total)

		var batch Result
		err := e.txRunner.RunCatalog(ctx, func(
			productRepo repository.ProductRepository,
			variantRepo repository.VariantRepository,
			stockRepo repository.StockRepository,
			historyRepo repository.StockHistoryRepository,
			_ repository.SaleRepository,
		) error {
			batch = Result{}
			b := batchTx{
				products: productRepo,
				variants: variantRepo,
				stocks:   stockRepo,
				history:  historyRepo,
			}
			return e.applyBatch(ctx, b, req, records[start:end], &batch)
		})
		if err != nil {
			log.Error().Err(err).Int("batch_start", start+1).Int("batch_end", end).Msg("lote revertido")
			return res, fmt.Errorf("lote %d-%d: %w", start+1, end, err)
		}
		res.add(batch)
		log.Debug().Int("processed", end).Int("total", total).Msg("lote confirmado")
		report(end)
	}

	res.Message = fmt.Sprintf("procesado: %d productos y %d variantes nuevos, %d variantes y %d saldos actualizados",
		res.ProductsCreated, res.VariantsCreated, res.VariantsUpdated, res.StocksUpdated)
	log.Info().Interface("result", res.Counts()).Msg("reconciliación finalizada")
	return res, nil
}

func (e *Engine) validate(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.BrandID) == "" {
		return fmt.Errorf("%w: marca requerida", domain.ErrInvalidInput)
	}
	if _, err := ParseMode(string(req.Mode)); err != nil {
		return err
	}
	if req.Mode == ModeStore && req.StoreID == "" {
		return fmt.Errorf("%w: el modo store requiere tienda", domain.ErrInvalidInput)
	}
	if req.Mode == ModeDB && !req.AllowCreate {
		return fmt.Errorf("%w: la reconstrucción requiere permiso de creación", domain.ErrInvalidInput)
	}
	if req.StoreID != "" {
		store, err := e.storeRepo.GetByID(ctx, req.StoreID)
		if err != nil {
			return err
		}
		if store == nil || store.BrandID != req.BrandID {
			return fmt.Errorf("tienda %s: %w", req.StoreID, domain.ErrNotFound)
		}
	}
	return nil
}

// wipeBrand borra en una sola transacción saldos, libro, variantes y productos de la marca,
// anulando antes las referencias de líneas de venta históricas.
func (e *Engine) wipeBrand(ctx context.Context, brandID string) error {
	return e.txRunner.RunCatalog(ctx, func(
		productRepo repository.ProductRepository,
		variantRepo repository.VariantRepository,
		stockRepo repository.StockRepository,
		historyRepo repository.StockHistoryRepository,
		saleRepo repository.SaleRepository,
	) error {
		detached, err := saleRepo.DetachBrand(ctx, brandID)
		if err != nil {
			return fmt.Errorf("desvincular ventas: %w", err)
		}
		stocks, err := stockRepo.DeleteByBrand(ctx, brandID)
		if err != nil {
			return fmt.Errorf("borrar saldos: %w", err)
		}
		entries, err := historyRepo.DeleteByBrand(ctx, brandID)
		if err != nil {
			return fmt.Errorf("borrar libro: %w", err)
		}
		variants, err := variantRepo.DeleteByBrand(ctx, brandID)
		if err != nil {
			return fmt.Errorf("borrar variantes: %w", err)
		}
		products, err := productRepo.DeleteByBrand(ctx, brandID)
		if err != nil {
			return fmt.Errorf("borrar productos: %w", err)
		}
		e.log.Info().
			Str("brand_id", brandID).
			Int("sale_items_detached", detached).
			Int("stocks", stocks).
			Int("ledger_entries", entries).
			Int("variants", variants).
			Int("products", products).
			Msg("catálogo de la marca eliminado para reconstrucción")
		return nil
	})
}

// collapse deja un registro por código: gana el último, en la posición del primero.
func collapse(records []importer.Record) []importer.Record {
	out := make([]importer.Record, 0, len(records))
	pos := make(map[string]int, len(records))
	for _, r := range records {
		if r.CodeCleaned == "" {
			continue
		}
		if i, ok := pos[r.CodeCleaned]; ok {
			out[i] = r
			continue
		}
		pos[r.CodeCleaned] = len(out)
		out = append(out, r)
	}
	return out
}
