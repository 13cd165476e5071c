package views

import (
	"context"
	"sync"

	"github.com/swaroop-labs/portalctl/internal/infrastructure/logging"
)

// Refresher fetches one view's data and applies it, discarding results
// that arrive after a newer refresh was issued.
//
// The fetch runs outside the lock so refreshes may overlap; apply runs
// under the lock and must be quick (assigning the view's data, typically).
//
// Thread Safety: Refresh is safe for concurrent use.
type Refresher[T any] struct {
	fetch  func(ctx context.Context) (T, error)
	apply  func(T)
	logger *logging.Logger

	mu  sync.Mutex
	gen uint64
}

// NewRefresher creates a refresher from a fetch and an apply step.
func NewRefresher[T any](fetch func(ctx context.Context) (T, error), apply func(T), logger *logging.Logger) *Refresher[T] {
	return &Refresher[T]{fetch: fetch, apply: apply, logger: logger}
}

// Refresh fetches and applies one result. If another Refresh was issued
// while the fetch was in flight the outcome is dropped, success or failure
// alike: the newer call owns the view now. A dropped outcome is not an
// error.
func (r *Refresher[T]) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	data, err := r.fetch(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		// A newer refresh owns the view; neither this result nor its
		// failure is worth reporting.
		r.logger.Debug("dropping stale refresh result",
			"generation", gen, "current", r.gen, "error", err)
		return nil
	}
	if err != nil {
		return err
	}
	r.apply(data)
	return nil
}

// Generation returns the latest issued generation, for tests and
// diagnostics.
func (r *Refresher[T]) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.gen
}
