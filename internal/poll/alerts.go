// internal/poll/alerts.go
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/arixstoo/Junction/internal/model"
)

// AlertsSnapshot is one view of the alerts poller's state.
type AlertsSnapshot struct {
	Alerts  *model.ActiveAlerts
	Loading bool
	Err     string
}

// Alerts polls the active alert list and exposes the resolve mutation.
type Alerts struct {
	api AlertsAPI
	*runner

	mu     sync.Mutex
	alerts *model.ActiveAlerts
}

func NewAlerts(api AlertsAPI, interval time.Duration) *Alerts {
	a := &Alerts{api: api}
	a.runner = newRunner(interval, a.fetch)
	return a
}

func (a *Alerts) fetch(ctx context.Context) {
	alerts, err := a.api.ActiveAlerts(ctx)
	if err != nil {
		a.settle(err.Error())
		return
	}
	a.mu.Lock()
	a.alerts = alerts
	a.mu.Unlock()
	a.settle("")
}

// ResolveAlert issues the mutation and, on success, refetches the alert
// list immediately. The displayed state always reflects a server round-trip
// rather than an optimistic local edit.
func (a *Alerts) ResolveAlert(ctx context.Context, alertID string) error {
	if err := a.api.ResolveAlert(ctx, alertID); err != nil {
		return err
	}
	a.fetch(ctx)
	return nil
}

// Snapshot returns the current state.
func (a *Alerts) Snapshot() AlertsSnapshot {
	loading, errMsg := a.status()
	a.mu.Lock()
	defer a.mu.Unlock()
	return AlertsSnapshot{Alerts: a.alerts, Loading: loading, Err: errMsg}
}
