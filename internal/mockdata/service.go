// internal/mockdata/service.go
package mockdata

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arixstoo/Junction/internal/model"
)

const defaultCacheTimeout = 2 * time.Minute

// Service derives pond state and alerts from a raw dataset snapshot, exactly
// once per cache epoch, so that every reader observes the same derived set.
// All reads, derivations and invalidations are serialized under one mutex: a
// reader sees the state entirely before or entirely after an invalidation,
// never an interleaving.
type Service struct {
	source       RowSource
	now          func() time.Time
	cacheTimeout time.Duration

	mu        sync.Mutex
	rows      []Row
	lastFetch time.Time

	alerts   []Alert // derived cache; nil means invalidated
	resolved map[string]time.Time
	manual   []Alert
	seq      int
}

// Option configures a Service.
type Option func(*Service)

// WithClock injects the time source, for deterministic cache-epoch tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithCacheTimeout overrides the row-cache freshness window.
func WithCacheTimeout(d time.Duration) Option {
	return func(s *Service) { s.cacheTimeout = d }
}

func NewService(source RowSource, opts ...Option) *Service {
	s := &Service{
		source:       source,
		now:          time.Now,
		cacheTimeout: defaultCacheTimeout,
		resolved:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetchRowsLocked returns the cached rows while the epoch is fresh,
// refetching otherwise. A fetch failure is logged and yields no rows; it is
// never surfaced to readers as an error.
func (s *Service) fetchRowsLocked(ctx context.Context) []Row {
	now := s.now()
	if s.rows != nil && now.Sub(s.lastFetch) < s.cacheTimeout {
		return s.rows
	}

	rows, err := s.source.Rows(ctx)
	if err != nil {
		log.Printf("mockdata: row fetch failed: %v", err)
		return nil
	}

	s.rows = rows
	s.lastFetch = now
	// The derived alert cache follows the row cache.
	s.alerts = nil
	log.Printf("mockdata: loaded %d rows from source", len(rows))
	return rows
}

// groupByPond splits rows per pond id, each group sorted chronologically.
func groupByPond(rows []Row) map[string][]Row {
	groups := make(map[string][]Row)
	for _, r := range rows {
		groups[r.PondID] = append(groups[r.PondID], r)
	}
	for id := range groups {
		g := groups[id]
		sort.Slice(g, func(i, j int) bool { return g[i].Timestamp.Before(g[j].Timestamp) })
	}
	return groups
}

func sortedPondIDs(groups map[string][]Row) []string {
	ids := make([]string, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func pondName(pondID string) string {
	switch pondID {
	case "1":
		return "Bassin Alpha"
	case "2":
		return "Bassin Beta"
	}
	return "Bassin " + pondID
}

func pondLocation(pondID string) string {
	switch pondID {
	case "1":
		return "Section 1 - Nord"
	case "2":
		return "Section 2 - Sud"
	}
	return "Section " + pondID
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatValue(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64)
}

// alertsForValues builds the alert set for one pond's latest values: one
// alert per parameter in warning or critical state.
func alertsForValues(pondID string, ts time.Time, value func(parameter string) (float64, bool)) []Alert {
	var alerts []Alert
	for _, c := range checks {
		v, ok := value(c.Key)
		if !ok {
			continue
		}
		status := Classify(c.Key, v)
		if status == StatusNormal {
			continue
		}

		message := fmt.Sprintf("%s Niveau d'attention détecté (%s%s)", c.Icon, formatValue(v), c.Unit)
		notifications := NotificationFlags{SMS: true, WhatsApp: false, Email: true}
		if status == StatusCritical {
			message = fmt.Sprintf("%s Niveau critique détecté (%s%s)", c.Icon, formatValue(v), c.Unit)
			notifications.WhatsApp = true
		}

		alerts = append(alerts, Alert{
			ID:            fmt.Sprintf("alert-%s-%s-%s", pondID, c.Key, status),
			PondID:        pondID,
			PondName:      pondName(pondID),
			Parameter:     c.Display,
			Value:         round2(v),
			Threshold:     violatedBound(c.Key, v, status),
			Message:       message,
			Severity:      status,
			IsActive:      true,
			Location:      pondLocation(pondID),
			Timestamp:     ts,
			Notifications: notifications,
		})
	}
	return alerts
}

// AlertsForReading evaluates a live sensor reading against the fixed
// thresholds. Used by the feed when replaying readings in real time.
func AlertsForReading(r model.SensorReading) []Alert {
	return alertsForValues(r.PondID, r.Timestamp, func(parameter string) (float64, bool) {
		switch parameter {
		case "temperature":
			return r.Temperature, true
		case "ph":
			return r.PH, true
		case "oxygen":
			return r.DissolvedOxygen, true
		case "turbidity":
			return r.Turbidity, true
		case "nitrate":
			return r.Nitrate, true
		case "nitrite":
			return r.Nitrite, true
		case "ammonia":
			return r.Ammonia, true
		}
		return 0, false
	})
}

// demoResolvedAlerts is the fixed set of pre-resolved alerts appended for
// realism on top of the derived ones.
func demoResolvedAlerts(now time.Time) []Alert {
	r1 := now.Add(-1 * time.Hour)
	r2 := now.Add(-3 * time.Hour)
	return []Alert{
		{
			ID:            "alert-resolved-1",
			PondID:        "1",
			PondName:      pondName("1"),
			Parameter:     "Température",
			Value:         26.2,
			Message:       "🌡️ Température élevée résolue (26.2°C)",
			Severity:      StatusWarning,
			IsActive:      false,
			Location:      pondLocation("1"),
			Timestamp:     now.Add(-2 * time.Hour),
			ResolvedAt:    &r1,
			Notifications: NotificationFlags{SMS: true, WhatsApp: true, Email: true},
		},
		{
			ID:            "alert-resolved-2",
			PondID:        "2",
			PondName:      pondName("2"),
			Parameter:     "pH",
			Value:         7.1,
			Message:       "⚗️ Niveau de pH normalisé (7.1)",
			Severity:      StatusWarning,
			IsActive:      false,
			Location:      pondLocation("2"),
			Timestamp:     now.Add(-4 * time.Hour),
			ResolvedAt:    &r2,
			Notifications: NotificationFlags{SMS: true, WhatsApp: false, Email: true},
		},
	}
}

// deriveAlertsLocked computes the complete alert set (active + resolved) for
// the current epoch, caching it so every reader in the epoch sees the same
// list. The resolve/create overlays survive row-cache refreshes.
func (s *Service) deriveAlertsLocked(ctx context.Context) []Alert {
	// The row fetch runs first: an expired epoch refetches and drops the
	// derived cache, so a stale derivation can never be returned below.
	rows := s.fetchRowsLocked(ctx)
	if s.alerts != nil {
		return s.alerts
	}
	if len(rows) == 0 {
		return nil
	}

	groups := groupByPond(rows)
	var all []Alert
	for _, pondID := range sortedPondIDs(groups) {
		g := groups[pondID]
		latest := g[len(g)-1]
		all = append(all, alertsForValues(pondID, latest.Timestamp, func(p string) (float64, bool) {
			return rowValue(latest, p)
		})...)
	}

	all = append(all, s.manual...)
	all = append(all, demoResolvedAlerts(s.now())...)

	for i := range all {
		if t, ok := s.resolved[all[i].ID]; ok {
			resolvedAt := t
			all[i].IsActive = false
			all[i].ResolvedAt = &resolvedAt
		}
	}

	s.alerts = all
	active := 0
	for _, a := range all {
		if a.IsActive {
			active++
		}
	}
	log.Printf("mockdata: derived %d alerts (%d active)", len(all), active)
	return all
}

func copyAlerts(alerts []Alert) []Alert {
	out := make([]Alert, len(alerts))
	copy(out, alerts)
	return out
}

// AllAlerts returns the complete alert set, active and resolved.
func (s *Service) AllAlerts(ctx context.Context) []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyAlerts(s.deriveAlertsLocked(ctx))
}

// ActiveAlerts returns the alerts still active in the current epoch.
func (s *Service) ActiveAlerts(ctx context.Context) []Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var active []Alert
	for _, a := range s.deriveAlertsLocked(ctx) {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return active
}

// Ponds builds per-pond snapshots from each pond's chronologically-last row.
// The Alerts count consults the same derived alert set every other reader
// sees, so badge counts agree across views.
func (s *Service) Ponds(ctx context.Context) []Pond {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pondsLocked(ctx)
}

func (s *Service) pondsLocked(ctx context.Context) []Pond {
	rows := s.fetchRowsLocked(ctx)
	if len(rows) == 0 {
		return nil
	}
	alerts := s.deriveAlertsLocked(ctx)

	groups := groupByPond(rows)
	ponds := make([]Pond, 0, len(groups))
	for _, pondID := range sortedPondIDs(groups) {
		g := groups[pondID]
		latest := g[len(g)-1]

		parameters := make(map[string]ParameterReading, len(parameterKeys))
		overall := PondHealthy
		for _, key := range parameterKeys {
			v, _ := rowValue(latest, key)
			status := StatusNormal
			if key != "waterLevel" {
				status = Classify(key, v)
			}
			parameters[key] = ParameterReading{Value: v, Status: status, Timestamp: latest.Timestamp}
			switch status {
			case StatusCritical:
				overall = PondCritical
			case StatusWarning:
				if overall != PondCritical {
					overall = PondWarning
				}
			}
		}

		activeCount := 0
		for _, a := range alerts {
			if a.PondID == pondID && a.IsActive {
				activeCount++
			}
		}

		ponds = append(ponds, Pond{
			ID:         "pond-" + pondID,
			Name:       pondName(pondID),
			Location:   pondLocation(pondID),
			Status:     overall,
			Parameters: parameters,
			Alerts:     activeCount,
			LastUpdate: latest.Timestamp,
			CreatedAt:  g[0].Timestamp,
			UpdatedAt:  latest.Timestamp,
		})
	}
	return ponds
}

// PondByID looks a pond up by either "pond-1" or bare "1" form.
func (s *Service) PondByID(ctx context.Context, id string) (Pond, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pondByIDLocked(ctx, id)
}

func (s *Service) pondByIDLocked(ctx context.Context, id string) (Pond, bool) {
	want := "pond-" + normalizePondID(id)
	for _, p := range s.pondsLocked(ctx) {
		if p.ID == want {
			return p, true
		}
	}
	return Pond{}, false
}

// PondLatest returns a pond's chronologically-last reading together with the
// pond snapshot from the same epoch. Taking both under one lock keeps the
// reading and the snapshot's status and alert count from straddling a cache
// refresh.
func (s *Service) PondLatest(ctx context.Context, pondID string) (model.SensorReading, Pond, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := normalizePondID(pondID)
	groups := groupByPond(s.fetchRowsLocked(ctx))
	g := groups[pid]
	if len(g) == 0 {
		return model.SensorReading{}, Pond{}, false
	}
	pond, _ := s.pondByIDLocked(ctx, pid)
	return rowToReading(g[len(g)-1]), pond, true
}

// CreateAlert records a manually created alert and invalidates the derived
// cache so the next read includes it.
func (s *Service) CreateAlert(ctx context.Context, a Alert) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	a.ID = fmt.Sprintf("alert-manual-%d", s.seq)
	a.IsActive = true
	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	s.manual = append(s.manual, a)
	s.alerts = nil
	log.Printf("mockdata: created alert %s", a.ID)
	return a.ID
}

// ResolveAlert marks an alert resolved and invalidates the derived cache.
// Resolution survives row-cache refreshes.
func (s *Service) ResolveAlert(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resolved[id] = s.now()
	s.alerts = nil
	log.Printf("mockdata: resolved alert %s", id)
}

// RefreshData drops every cache and recomputes eagerly.
func (s *Service) RefreshData(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rows = nil
	s.alerts = nil
	s.lastFetch = time.Time{}
	s.fetchRowsLocked(ctx)
	s.deriveAlertsLocked(ctx)
}

func normalizePondID(id string) string {
	return strings.TrimPrefix(id, "pond-")
}

func rowToReading(r Row) model.SensorReading {
	return model.SensorReading{
		ID:              fmt.Sprintf("reading-%s-%d", r.PondID, r.Timestamp.Unix()),
		PondID:          r.PondID,
		DeviceID:        "device-" + r.PondID,
		Timestamp:       r.Timestamp,
		PH:              r.PH,
		Temperature:     r.Temp,
		DissolvedOxygen: r.DO,
		Turbidity:       r.Turbidity,
		Nitrate:         r.Nitrate,
		Nitrite:         r.Nitrite,
		Ammonia:         r.Ammonia,
		WaterLevel:      r.WaterLevel,
		CreatedAt:       r.Timestamp,
	}
}

// PondReadings returns a pond's readings within the trailing window, sorted
// ascending. hours <= 0 returns the full history.
func (s *Service) PondReadings(ctx context.Context, pondID string, hours int) []model.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := normalizePondID(pondID)
	groups := groupByPond(s.fetchRowsLocked(ctx))
	g := groups[pid]

	var since time.Time
	if hours > 0 {
		since = s.now().Add(-time.Duration(hours) * time.Hour)
	}

	var readings []model.SensorReading
	for _, r := range g {
		if hours > 0 && r.Timestamp.Before(since) {
			continue
		}
		readings = append(readings, rowToReading(r))
	}
	return readings
}

// LatestReading returns the chronologically-last reading for a pond.
func (s *Service) LatestReading(ctx context.Context, pondID string) (model.SensorReading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pid := normalizePondID(pondID)
	groups := groupByPond(s.fetchRowsLocked(ctx))
	g := groups[pid]
	if len(g) == 0 {
		return model.SensorReading{}, false
	}
	return rowToReading(g[len(g)-1]), true
}

// AllReadings returns every reading in the dataset sorted ascending, for
// the replay feed.
func (s *Service) AllReadings(ctx context.Context) []model.SensorReading {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.fetchRowsLocked(ctx)
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	readings := make([]model.SensorReading, 0, len(sorted))
	for _, r := range sorted {
		readings = append(readings, rowToReading(r))
	}
	return readings
}

// ReadingCount reports the number of rows in the current snapshot.
func (s *Service) ReadingCount(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.fetchRowsLocked(ctx))
}
