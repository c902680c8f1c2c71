// internal/poll/poll.go
//
// Periodic-refresh wrappers over the REST client. Each poller performs one
// immediate fetch on Start, refetches on a fixed interval (0 disables
// auto-refresh), and exposes a snapshot of {data, loading, error}. A failed
// fetch records a human-readable error and leaves the last good data
// untouched.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/arixstoo/Junction/internal/model"
)

// DashboardAPI is the slice of the REST client the dashboard poller needs.
type DashboardAPI interface {
	DashboardOverview(ctx context.Context) (*model.DashboardOverview, error)
	ActiveAlerts(ctx context.Context) (*model.ActiveAlerts, error)
	SystemStatus(ctx context.Context) (*model.SystemStatus, error)
}

// AlertsAPI is the slice the alerts poller needs.
type AlertsAPI interface {
	ActiveAlerts(ctx context.Context) (*model.ActiveAlerts, error)
	ResolveAlert(ctx context.Context, alertID string) error
}

// PondAPI is the slice the per-pond poller needs.
type PondAPI interface {
	LatestPondData(ctx context.Context, pondID string) (*model.PondLatestData, error)
	PondHistory(ctx context.Context, pondID string, hours int) (*model.PondHistory, error)
	PondAlerts(ctx context.Context, pondID string, activeOnly bool, limit int) (*model.PondAlerts, error)
}

// runner owns the shared ticker/refresh loop.
type runner struct {
	interval time.Duration
	fetch    func(ctx context.Context)

	mu      sync.Mutex
	loading bool
	err     string
	started bool
	kick    chan struct{}
	stop    chan struct{}
}

func newRunner(interval time.Duration, fetch func(ctx context.Context)) *runner {
	return &runner{
		interval: interval,
		fetch:    fetch,
		loading:  true,
		kick:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
}

// Start performs an immediate fetch, then refetches every interval until
// Stop or context cancellation. Non-positive intervals disable auto-refresh;
// Refresh still works.
func (r *runner) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.fetch(ctx)

	go func() {
		var tick <-chan time.Time
		if r.interval > 0 {
			ticker := time.NewTicker(r.interval)
			defer ticker.Stop()
			tick = ticker.C
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stop:
				return
			case <-tick:
				r.fetch(ctx)
			case <-r.kick:
				r.fetch(ctx)
			}
		}
	}()
}

// Stop cancels the refresh loop. Safe to call more than once.
func (r *runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
}

// Refresh resets loading and requests an out-of-band fetch. Before Start
// there is no loop to serve the request, so it is a no-op: Start's immediate
// fetch covers it.
func (r *runner) Refresh() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.loading = true
	r.mu.Unlock()
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// settle records the outcome of one fetch round. A non-empty errMsg leaves
// previously fetched data in place (stale-but-available).
func (r *runner) settle(errMsg string) {
	r.mu.Lock()
	r.loading = false
	r.err = errMsg
	r.mu.Unlock()
}

func (r *runner) status() (loading bool, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading, r.err
}
