// internal/poll/dashboard.go
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/arixstoo/Junction/internal/model"
)

// DashboardSnapshot is one consistent view of the dashboard poller's state.
type DashboardSnapshot struct {
	Overview     *model.DashboardOverview
	ActiveAlerts *model.ActiveAlerts
	SystemStatus *model.SystemStatus
	Loading      bool
	Err          string
}

// Dashboard polls the overview, active alerts and system status. The three
// fetches run in parallel so one refresh costs the slowest call, not the
// sum; they provide no relative ordering, only that loading clears after
// all have settled.
type Dashboard struct {
	api DashboardAPI
	*runner

	mu           sync.Mutex
	overview     *model.DashboardOverview
	activeAlerts *model.ActiveAlerts
	systemStatus *model.SystemStatus
}

func NewDashboard(api DashboardAPI, interval time.Duration) *Dashboard {
	d := &Dashboard{api: api}
	d.runner = newRunner(interval, d.fetchAll)
	return d
}

func (d *Dashboard) fetchAll(ctx context.Context) {
	var (
		wg       sync.WaitGroup
		overview *model.DashboardOverview
		alerts   *model.ActiveAlerts
		status   *model.SystemStatus

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
		v, err := d.api.DashboardOverview(ctx)
		record(err)
		overview = v
	}()
	go func() {
		defer wg.Done()
		v, err := d.api.ActiveAlerts(ctx)
		record(err)
		alerts = v
	}()
	go func() {
		defer wg.Done()
		v, err := d.api.SystemStatus(ctx)
		record(err)
		status = v
	}()
	wg.Wait()

	if fetchErr != nil {
		// Prior good data stays visible.
		d.settle(fetchErr.Error())
		return
	}

	d.mu.Lock()
	d.overview = overview
	d.activeAlerts = alerts
	d.systemStatus = status
	d.mu.Unlock()
	d.settle("")
}

// Snapshot returns the current state.
func (d *Dashboard) Snapshot() DashboardSnapshot {
	loading, errMsg := d.status()
	d.mu.Lock()
	defer d.mu.Unlock()
	return DashboardSnapshot{
		Overview:     d.overview,
		ActiveAlerts: d.activeAlerts,
		SystemStatus: d.systemStatus,
		Loading:      loading,
		Err:          errMsg,
	}
}
