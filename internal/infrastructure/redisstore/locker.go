package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
	"github.com/Mingdezzi/FLOWORK-BETA/pkg/logger"
)

var _ reconcile.TenantLocker = (*TenantLocker)(nil)

// DefaultLockTTL se renueva cada TTL/2 mientras el trabajo siga vivo.
const DefaultLockTTL = 30 * time.Second

// TenantLocker bloqueo exclusivo del catálogo de una marca entre procesos.
type TenantLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewTenantLocker ttl <= 0 usa DefaultLockTTL.
func NewTenantLocker(client *redis.Client, ttl time.Duration, log *logger.Logger) *TenantLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &TenantLocker{locker: redislock.New(client), ttl: ttl, log: log}
}

func lockKey(brandID string) string { return keyPrefix + "lock:brand:" + brandID }

// Lock no espera: si otro proceso tiene la marca devuelve ErrConflict.
func (l *TenantLocker) Lock(ctx context.Context, brandID string) (reconcile.Lease, error) {
	lock, err := l.locker.Obtain(ctx, lockKey(brandID), l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: la marca %s tiene otra importación en curso", domain.ErrConflict, brandID)
	}
	if err != nil {
		return nil, fmt.Errorf("obtener bloqueo de marca: %w", err)
	}

	refreshCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	lease := &lease{lock: lock, stop: stop, done: make(chan struct{})}
	go lease.keepAlive(refreshCtx, l.ttl, l.log.With().Str("brand_id", brandID).Logger())
	return lease, nil
}

type lease struct {
	lock *redislock.Lock
	stop context.CancelFunc
	done chan struct{}
	once sync.Once
	err  error
}

func (l *lease) keepAlive(ctx context.Context, ttl time.Duration, log zerolog.Logger) {
	defer close(l.done)
	ticker := time.NewTicker(ttl / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.lock.Refresh(ctx, ttl, nil); err != nil {
				if ctx.Err() != nil {
					return
				}
				log.Warn().Err(err).Msg("no se pudo renovar el bloqueo de marca")
			}
		}
	}
}

// Release detiene la renovación y libera la llave; llamadas repetidas no hacen nada.
func (l *lease) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.stop()
		<-l.done
		err := l.lock.Release(ctx)
		if err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.err = fmt.Errorf("liberar bloqueo de marca: %w", err)
		}
	})
	return l.err
}
