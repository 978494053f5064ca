// Package runner moves a clustering run off the caller's goroutine.
//
// A Runner holds a single slot: one batch runs at a time and a second
// submission while it is in flight is rejected with ErrBusy. The result is
// delivered on a channel that receives exactly one Outcome and is then
// closed.
package runner

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/menta2k/photo-assistant/pkg/types"
)

// ErrBusy is returned by Submit while a previous batch is still running.
var ErrBusy = errors.New("clustering already in progress")

// Clusterer is the work a Runner performs
type Clusterer interface {
	Cluster(ctx context.Context, paths []string) (types.Result, error)
}

// Outcome is what a finished batch hands back
type Outcome struct {
	Result types.Result
	Err    error
}

// Runner executes one clustering batch at a time in the background
type Runner struct {
	clusterer Clusterer

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
}

// New creates a Runner around c
func New(c Clusterer) *Runner {
	return &Runner{clusterer: c}
}

// Submit starts clustering paths in a new goroutine. The slice is copied,
// so the caller may reuse it.
func (r *Runner) Submit(ctx context.Context, paths []string) (<-chan Outcome, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	jobCtx, cancel := context.WithCancel(ctx)
	r.running = true
	r.cancel = cancel
	r.mu.Unlock()

	batch := append([]string(nil), paths...)
	out := make(chan Outcome, 1)

	log.Debug().Int("images", len(batch)).Msg("clustering batch submitted")

	go func() {
		defer close(out)
		defer cancel()

		res, err := r.clusterer.Cluster(jobCtx, batch)
		if err != nil {
			log.Warn().Err(err).Msg("clustering batch failed")
		} else {
			log.Debug().Str("run", res.ID).Str("status", string(res.Status)).Msg("clustering batch finished")
		}

		// Free the slot before publishing so the receiver can resubmit at once.
		r.mu.Lock()
		r.running = false
		r.cancel = nil
		r.mu.Unlock()

		out <- Outcome{Result: res, Err: err}
	}()

	return out, nil
}

// Busy reports whether a batch is in flight
func (r *Runner) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// Cancel asks the running batch to stop. It is a no-op when idle.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
}
