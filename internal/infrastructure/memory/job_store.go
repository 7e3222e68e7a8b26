package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var _ repository.JobStore = (*JobStore)(nil)

// JobStore estado de trabajos en memoria (solo pruebas: se pierde al reiniciar).
type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]entity.ImportJob
}

// NewJobStore crea el almacén.
func NewJobStore() *JobStore {
	return &JobStore{jobs: map[string]entity.ImportJob{}}
}

func (s *JobStore) Save(_ context.Context, job *entity.ImportJob) error {
	c := *job
	c.Result = copyCounts(job.Result)
	s.mu.Lock()
	s.jobs[job.ID] = c
	s.mu.Unlock()
	return nil
}

func (s *JobStore) Get(_ context.Context, id string) (*entity.ImportJob, error) {
	s.mu.RLock()
	j, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("trabajo %s: %w", id, domain.ErrNotFound)
	}
	j.Result = copyCounts(j.Result)
	return &j, nil
}

func copyCounts(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	c := make(map[string]int, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
