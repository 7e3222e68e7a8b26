// Package redisstore estado compartido entre procesos: trabajos de importación,
// bloqueo exclusivo por marca y caché de configuración.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Mingdezzi/FLOWORK-BETA/pkg/config"
)

const keyPrefix = "flowork:"

// NewClient usa REDIS_URL si está definido; si no, host/puerto.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt := &redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("REDIS_URL inválida: %w", err)
		}
		opt = parsed
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
