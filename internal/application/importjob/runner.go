// Package importjob ejecuta las importaciones masivas fuera del ciclo de la petición:
// cola acotada, pool de workers y progreso persistido en el JobStore.
package importjob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/importer"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

// Config tamaño del pool y de la cola.
type Config struct {
	Workers       int
	QueueSize     int
	FlushInterval time.Duration
}

// JobRequest trabajo de importación.
type JobRequest struct {
	BrandID     string
	StoreID     string
	Mode        reconcile.Mode
	Columns     importer.ColumnMap
	// Layout vacío usa IMPORT_STRATEGY de la marca.
	Layout      importer.Layout
	AllowCreate bool
	ActorID     string
	FilePath    string
	RemoveFile  bool
	Excluded    map[int]bool
}

// VerifyRequest verificación previa (solo lectura).
type VerifyRequest struct {
	BrandID    string
	Columns    importer.ColumnMap
	Layout     importer.Layout
	FilePath   string
	RemoveFile bool
}

type task struct {
	job    *entity.ImportJob
	req    JobRequest
	ctx    context.Context
	cancel context.CancelFunc
}

// Runner pool de workers de importación.
type Runner struct {
	reader   TableReader
	settings repository.SettingsRepository
	engine   Reconciler
	jobs     repository.JobStore
	log      *logger.Logger
	cfg      Config

	queue   chan *task
	baseCtx context.Context
	wg      sync.WaitGroup

	mu      sync.Mutex
	running map[string]context.CancelFunc
	// stopped: el pool se está cerrando y no acepta más encolados.
	stopped bool
}

// NewRunner construye el runner; Start lanza los workers.
func NewRunner(
	reader TableReader,
	settings repository.SettingsRepository,
	engine Reconciler,
	jobs repository.JobStore,
	cfg Config,
	log *logger.Logger,
) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 500 * time.Millisecond
	}
	return &Runner{
		reader:   reader,
		settings: settings,
		engine:   engine,
		jobs:     jobs,
		log:      log,
		cfg:      cfg,
		queue:    make(chan *task, cfg.QueueSize),
		baseCtx:  context.Background(),
		running:  map[string]context.CancelFunc{},
	}
}

// Start lanza los workers. Al cancelarse ctx los trabajos en curso se cancelan entre lotes.
func (r *Runner) Start(ctx context.Context) {
	r.baseCtx = ctx
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker(ctx)
	}
	r.log.Info().Int("workers", r.cfg.Workers).Int("queue", r.cfg.QueueSize).Msg("workers de importación iniciados")
}

// Wait espera a que terminen los workers (tras cancelar el ctx de Start).
func (r *Runner) Wait() { r.wg.Wait() }

func (r *Runner) worker(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			r.drain()
			return
		case t := <-r.queue:
			r.process(t)
		}
	}
}

// drain cierra la cola y marca como cancelados los trabajos que nunca arrancaron.
func (r *Runner) drain() {
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	for {
		select {
		case t := <-r.queue:
			t.cancel()
			t.job.Status = entity.JobCancelled
			t.job.Message = "cancelado por apagado"
			r.settle(t)
		default:
			return
		}
	}
}

// Submit persiste el trabajo como pending y lo encola. Cola llena: ErrConflict.
func (r *Runner) Submit(ctx context.Context, req JobRequest) (*entity.ImportJob, error) {
	if err := validateRequest(req); err != nil {
		r.removeFile(req.FilePath, req.RemoveFile)
		return nil, err
	}
	now := time.Now()
	job := &entity.ImportJob{
		ID:        uuid.New().String(),
		BrandID:   req.BrandID,
		StoreID:   req.StoreID,
		Mode:      string(req.Mode),
		Status:    entity.JobPending,
		CreatedBy: req.ActorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.jobs.Save(ctx, job); err != nil {
		r.removeFile(req.FilePath, req.RemoveFile)
		return nil, fmt.Errorf("guardar trabajo: %w", err)
	}

	out := *job
	jobCtx, cancel := context.WithCancel(r.baseCtx)
	t := &task{job: job, req: req, ctx: jobCtx, cancel: cancel}

	var reason string
	r.mu.Lock()
	switch {
	case r.stopped:
		reason = "importaciones detenidas"
	default:
		select {
		case r.queue <- t:
			r.running[job.ID] = cancel
		default:
			reason = "cola de importación llena"
		}
	}
	r.mu.Unlock()

	if reason != "" {
		cancel()
		r.removeFile(req.FilePath, req.RemoveFile)
		job.Status = entity.JobFailed
		job.Message = reason
		r.finish(job)
		return nil, fmt.Errorf("%w: %s", domain.ErrConflict, reason)
	}
	r.log.Info().Str("job_id", out.ID).Str("brand_id", out.BrandID).Str("mode", out.Mode).Msg("importación encolada")
	return &out, nil
}

func validateRequest(req JobRequest) error {
	if req.BrandID == "" || req.FilePath == "" {
		return fmt.Errorf("%w: marca y archivo requeridos", domain.ErrInvalidInput)
	}
	if _, err := reconcile.ParseMode(string(req.Mode)); err != nil {
		return err
	}
	if req.Mode == reconcile.ModeStore && req.StoreID == "" {
		return fmt.Errorf("%w: el modo store requiere tienda", domain.ErrInvalidInput)
	}
	if len(req.Columns) == 0 {
		return fmt.Errorf("%w: sin mapeo de columnas", domain.ErrInvalidInput)
	}
	return nil
}

// Status estado actual del trabajo.
func (r *Runner) Status(ctx context.Context, jobID string) (*entity.ImportJob, error) {
	return r.jobs.Get(ctx, jobID)
}

// Cancel pide la cancelación; los lotes ya confirmados se conservan.
func (r *Runner) Cancel(ctx context.Context, jobID string) error {
	r.mu.Lock()
	cancel, ok := r.running[jobID]
	r.mu.Unlock()
	if ok {
		cancel()
		return nil
	}
	job, err := r.jobs.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Done() {
		return fmt.Errorf("%w: el trabajo ya terminó (%s)", domain.ErrConflict, job.Status)
	}
	return fmt.Errorf("%w: el trabajo %s no corre en este proceso", domain.ErrConflict, jobID)
}

func (r *Runner) forget(jobID string) {
	r.mu.Lock()
	delete(r.running, jobID)
	r.mu.Unlock()
}

func (r *Runner) removeFile(path string, remove bool) {
	if !remove || path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		r.log.Warn().Err(err).Str("path", path).Msg("no se pudo borrar el archivo temporal")
	}
}

// finish guarda el estado final aunque el contexto del trabajo esté cancelado.
func (r *Runner) finish(job *entity.ImportJob) {
	now := time.Now()
	job.UpdatedAt = now
	if job.Done() {
		job.CompletedAt = &now
	}
	if err := r.jobs.Save(context.WithoutCancel(r.baseCtx), job); err != nil {
		r.log.Error().Err(err).Str("job_id", job.ID).Msg("no se pudo guardar el estado del trabajo")
	}
}

func (r *Runner) process(t *task) {
	job := t.job
	log := r.log.Job(job.ID, job.BrandID, job.Mode)
	defer t.cancel()

	if err := t.ctx.Err(); err != nil {
		job.Status = entity.JobCancelled
		job.Message = "cancelado antes de iniciar"
		r.settle(t)
		return
	}

	job.Status = entity.JobProcessing
	r.finish(job)
	log.Info().Msg("importación iniciada")

	res, err := r.run(t.ctx, job, t.req)
	switch {
	case err == nil:
		job.Status = entity.JobCompleted
		job.Message = res.Message
		job.Current = job.Total
		log.Info().Interface("result", res.Counts()).Int("rejected", job.Rejected).Msg("importación finalizada")
	case errors.Is(err, context.Canceled):
		job.Status = entity.JobCancelled
		job.Message = "cancelado: " + res.Message
		log.Warn().Int("current", job.Current).Msg("importación cancelada")
	default:
		job.Status = entity.JobFailed
		job.Message = err.Error()
		log.Error().Err(err).Msg("importación fallida")
	}
	job.Result = res.Counts()
	r.settle(t)
}

// settle libera el trabajo y borra el archivo antes de publicar el estado final.
func (r *Runner) settle(t *task) {
	r.forget(t.job.ID)
	r.removeFile(t.req.FilePath, t.req.RemoveFile)
	r.finish(t.job)
}

func (r *Runner) prepare(ctx context.Context, brandID, path string, layout importer.Layout) (importer.Table, importer.BrandRules, importer.Layout, error) {
	settings, err := r.settings.GetAll(ctx, brandID)
	if err != nil {
		return importer.Table{}, importer.BrandRules{}, "", fmt.Errorf("leer configuración: %w", err)
	}
	rules, err := importer.RulesFromSettings(settings)
	if err != nil {
		return importer.Table{}, importer.BrandRules{}, "", err
	}
	if layout == "" {
		layout = rules.Strategy
	}
	table, err := r.reader.ReadFile(ctx, path)
	if err != nil {
		return importer.Table{}, importer.BrandRules{}, "", fmt.Errorf("abrir archivo: %w", err)
	}
	return table, rules, layout, nil
}

func (r *Runner) run(ctx context.Context, job *entity.ImportJob, req JobRequest) (reconcile.Result, error) {
	table, rules, layout, err := r.prepare(ctx, req.BrandID, req.FilePath, req.Layout)
	if err != nil {
		return reconcile.Result{}, err
	}
	cands, err := importer.Normalize(table, req.Columns, layout, rules)
	if err != nil {
		return reconcile.Result{}, err
	}
	validated := importer.Validate(cands, rules, req.Excluded)
	job.Total = len(validated.Records)
	job.Rejected = len(validated.Rejected)
	r.finish(job)

	var (
		current atomic.Int64
		result  reconcile.Result
		done    = make(chan struct{})
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		var err error
		result, err = r.engine.Reconcile(gctx, reconcile.Request{
			BrandID:     req.BrandID,
			StoreID:     req.StoreID,
			Mode:        req.Mode,
			AllowCreate: req.AllowCreate,
			ActorID:     req.ActorID,
			Records:     validated.Records,
		}, func(cur, _ int) { current.Store(int64(cur)) })
		return err
	})
	g.Go(func() error {
		ticker := time.NewTicker(r.cfg.FlushInterval)
		defer ticker.Stop()
		last := int64(-1)
		for {
			select {
			case <-done:
				return nil
			case <-ticker.C:
				if cur := current.Load(); cur != last {
					last = cur
					job.Current = int(cur)
					r.finish(job)
				}
			}
		}
	})
	err = g.Wait()
	job.Current = int(current.Load())
	return result, err
}

// Verify lee el archivo y devuelve las filas sospechosas sin escribir nada.
func (r *Runner) Verify(ctx context.Context, req VerifyRequest) ([]importer.Suspicious, error) {
	defer r.removeFile(req.FilePath, req.RemoveFile)
	if req.BrandID == "" || req.FilePath == "" || len(req.Columns) == 0 {
		return nil, fmt.Errorf("%w: marca, archivo y columnas requeridos", domain.ErrInvalidInput)
	}
	table, _, layout, err := r.prepare(ctx, req.BrandID, req.FilePath, req.Layout)
	if err != nil {
		return nil, err
	}
	return importer.Verify(table, req.Columns, layout), nil
}
