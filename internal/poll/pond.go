// internal/poll/pond.go
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/arixstoo/Junction/internal/model"
)

const (
	pondHistoryHours = 24
	pondAlertsLimit  = 20
)

// PondSnapshot is one view of a single pond's polled state.
type PondSnapshot struct {
	Latest  *model.PondLatestData
	History *model.PondHistory
	Alerts  *model.PondAlerts
	Loading bool
	Err     string
}

// Pond polls one pond's latest reading, 24-hour history and active alerts
// in parallel.
type Pond struct {
	api    PondAPI
	pondID string
	*runner

	mu      sync.Mutex
	latest  *model.PondLatestData
	history *model.PondHistory
	alerts  *model.PondAlerts
}

func NewPond(api PondAPI, pondID string, interval time.Duration) *Pond {
	p := &Pond{api: api, pondID: pondID}
	p.runner = newRunner(interval, p.fetchAll)
	return p
}

func (p *Pond) fetchAll(ctx context.Context) {
	var (
		wg      sync.WaitGroup
		latest  *model.PondLatestData
		history *model.PondHistory
		alerts  *model.PondAlerts

		errMu    sync.Mutex
		fetchErr error
	)
	record := func(err error) {
		if err == nil {
			return
		}
		errMu.Lock()
		if fetchErr == nil {
			fetchErr = err
		}
		errMu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		v, err := p.api.LatestPondData(ctx, p.pondID)
		record(err)
		latest = v
	}()
	go func() {
		defer wg.Done()
		v, err := p.api.PondHistory(ctx, p.pondID, pondHistoryHours)
		record(err)
		history = v
	}()
	go func() {
		defer wg.Done()
		v, err := p.api.PondAlerts(ctx, p.pondID, true, pondAlertsLimit)
		record(err)
		alerts = v
	}()
	wg.Wait()

	if fetchErr != nil {
		p.settle(fetchErr.Error())
		return
	}

	p.mu.Lock()
	p.latest = latest
	p.history = history
	p.alerts = alerts
	p.mu.Unlock()
	p.settle("")
}

// Snapshot returns the current state.
func (p *Pond) Snapshot() PondSnapshot {
	loading, errMsg := p.status()
	p.mu.Lock()
	defer p.mu.Unlock()
	return PondSnapshot{
		Latest:  p.latest,
		History: p.history,
		Alerts:  p.alerts,
		Loading: loading,
		Err:     errMsg,
	}
}
