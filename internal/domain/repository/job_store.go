package repository

import (
	"context"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
)

// JobStore estado de trabajos de importación, persistido fuera del proceso
// para sobrevivir reinicios del worker.
type JobStore interface {
	Save(ctx context.Context, job *entity.ImportJob) error
	// Get devuelve domain.ErrNotFound si el trabajo no existe o expiró.
	Get(ctx context.Context, id string) (*entity.ImportJob, error)
}
