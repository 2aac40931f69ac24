// Package inflight guards forms so that at most one request per form is
// outstanding at a time.
package inflight

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/okian/trendscope/pkg/metrics"
)

// Guard tracks which forms currently have a request in flight.
type Guard interface {
	// TryAcquire marks form as busy. It returns false, without blocking,
	// when form already has a request outstanding or the guard is full.
	TryAcquire(ctx context.Context, form string) bool

	// Release marks form as idle again. Releasing an idle form is a no-op.
	Release(ctx context.Context, form string)

	Size() int64
}

// inMemoryGuard implements Guard with a mutex protected set.
// maxSize <= 0 means unbounded.
type inMemoryGuard struct {
	mu      sync.Mutex
	busy    map[string]struct{}
	maxSize int
	size    atomic.Int64
}

// NewGuard creates an in-memory guard.
func NewGuard(opts ...Option) Guard {
	g := &inMemoryGuard{
		maxSize: 64,
		busy:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *inMemoryGuard) TryAcquire(ctx context.Context, form string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.busy[form]; exists {
		metrics.RecordInflightRejection(form)
		return false
	}
	// Busy forms are never evicted; a full guard refuses new ones instead.
	if g.maxSize > 0 && len(g.busy) >= g.maxSize {
		metrics.RecordInflightRejection(form)
		return false
	}

	g.busy[form] = struct{}{}
	g.size.Add(1)
	metrics.UpdateInflightForms(len(g.busy))
	return true
}

func (g *inMemoryGuard) Release(ctx context.Context, form string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.busy[form]; !exists {
		return
	}
	delete(g.busy, form)
	g.size.Add(-1)
	metrics.UpdateInflightForms(len(g.busy))
}

// Size returns the number of forms currently in flight.
func (g *inMemoryGuard) Size() int64 {
	return g.size.Load()
}
