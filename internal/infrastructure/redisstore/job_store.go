package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/entity"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
)

var _ repository.JobStore = (*JobStore)(nil)

// DefaultJobTTL vida del estado de un trabajo tras su última escritura.
const DefaultJobTTL = 24 * time.Hour

// JobStore guarda cada trabajo como JSON en flowork:job:<id>.
type JobStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewJobStore ttl <= 0 usa DefaultJobTTL.
func NewJobStore(client *redis.Client, ttl time.Duration) *JobStore {
	if ttl <= 0 {
		ttl = DefaultJobTTL
	}
	return &JobStore{client: client, ttl: ttl}
}

func jobKey(id string) string { return keyPrefix + "job:" + id }

func (s *JobStore) Save(ctx context.Context, job *entity.ImportJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("serializar trabajo: %w", err)
	}
	if err := s.client.Set(ctx, jobKey(job.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("guardar trabajo %s: %w", job.ID, err)
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*entity.ImportJob, error) {
	val, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("trabajo %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("leer trabajo %s: %w", id, err)
	}
	var job entity.ImportJob
	if err := json.Unmarshal(val, &job); err != nil {
		return nil, fmt.Errorf("decodificar trabajo %s: %w", id, err)
	}
	return &job, nil
}
