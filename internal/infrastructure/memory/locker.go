package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Mingdezzi/FLOWORK-BETA/internal/application/reconcile"
	"github.com/Mingdezzi/FLOWORK-BETA/internal/domain"
)

var _ reconcile.TenantLocker = (*Locker)(nil)

// Locker bloqueo exclusivo por marca dentro del proceso.
type Locker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocker crea el locker.
func NewLocker() *Locker {
	return &Locker{held: map[string]bool{}}
}

func (l *Locker) Lock(_ context.Context, brandID string) (reconcile.Lease, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[brandID] {
		return nil, fmt.Errorf("marca %s en proceso: %w", brandID, domain.ErrConflict)
	}
	l.held[brandID] = true
	return &lease{l: l, brandID: brandID}, nil
}

// Held indica si la marca está bloqueada.
func (l *Locker) Held(brandID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[brandID]
}

type lease struct {
	l       *Locker
	brandID string
	once    sync.Once
}

func (le *lease) Release(context.Context) error {
	le.once.Do(func() {
		le.l.mu.Lock()
		delete(le.l.held, le.brandID)
		le.l.mu.Unlock()
	})
	return nil
}
