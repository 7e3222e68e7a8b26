package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain/repository"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

var _ repository.SettingsRepository = (*SettingsCache)(nil)

// DefaultSettingsTTL vida de la configuración cacheada.
const DefaultSettingsTTL = 10 * time.Minute

// SettingsCache lee la configuración de la marca desde un hash de Redis y cae al
// repositorio subyacente cuando no está. Un fallo de Redis no bloquea la lectura.
type SettingsCache struct {
	client *redis.Client
	next   repository.SettingsRepository
	ttl    time.Duration
	log    *logger.Logger
}

// NewSettingsCache ttl <= 0 usa DefaultSettingsTTL.
func NewSettingsCache(client *redis.Client, next repository.SettingsRepository, ttl time.Duration, log *logger.Logger) *SettingsCache {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	return &SettingsCache{client: client, next: next, ttl: ttl, log: log}
}

func settingsKey(brandID string) string { return keyPrefix + "settings:" + brandID }

// marker distingue "marca sin configuración" de "no cacheado".
const marker = "\x00cached"

func (c *SettingsCache) GetAll(ctx context.Context, brandID string) (map[string]string, error) {
	key := settingsKey(brandID)
	cached, err := c.client.HGetAll(ctx, key).Result()
	if err == nil && len(cached) > 0 {
		delete(cached, marker)
		return cached, nil
	}
	if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn().Err(err).Str("brand_id", brandID).Msg("caché de configuración no disponible")
	}

	settings, err := c.next.GetAll(ctx, brandID)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]any, len(settings)+1)
	for k, v := range settings {
		fields[k] = v
	}
	fields[marker] = "1"
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Str("brand_id", brandID).Msg("no se pudo cachear la configuración")
	}
	return settings, nil
}

func (c *SettingsCache) Get(ctx context.Context, brandID, key string) (string, bool, error) {
	all, err := c.GetAll(ctx, brandID)
	if err != nil {
		return "", false, err
	}
	v, ok := all[key]
	return v, ok, nil
}

// Invalidate descarta la configuración cacheada de la marca.
func (c *SettingsCache) Invalidate(ctx context.Context, brandID string) error {
	if err := c.client.Del(ctx, settingsKey(brandID)).Err(); err != nil {
		return fmt.Errorf("invalidar configuración: %w", err)
	}
	return nil
}
