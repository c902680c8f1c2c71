// internal/mockdata/history.go
package mockdata

import (
	"context"
	"hash/fnv"
	"log"
	"math/rand"
	"time"
)

// syntheticPlan shapes the generated fallback series.
type syntheticPlan struct {
	points int
	step   time.Duration
}

func timeRangeStart(timeRange string, now time.Time) time.Time {
	switch timeRange {
	case "24h":
		return now.Add(-24 * time.Hour)
	case "7d":
		return now.Add(-7 * 24 * time.Hour)
	case "1m":
		return now.Add(-30 * 24 * time.Hour)
	case "3m":
		return now.Add(-90 * 24 * time.Hour)
	case "1y":
		return now.Add(-365 * 24 * time.Hour)
	}
	// Unknown ranges yield an empty window, which triggers the last-20
	// fallback below.
	return now
}

func syntheticPlanFor(timeRange string) syntheticPlan {
	switch timeRange {
	case "24h":
		return syntheticPlan{points: 24, step: time.Hour}
	case "7d":
		return syntheticPlan{points: 14, step: 12 * time.Hour}
	}
	return syntheticPlan{points: 20, step: time.Hour}
}

// HistoricalSeries produces a chart-ready series for a pond parameter over a
// named time range ("24h", "7d", "1m", "3m", "1y"). Real rows are always
// preferred; an empty window falls back to the last 20 rows, and only a pond
// with no rows at all falls back to a synthetic series.
func (s *Service) HistoricalSeries(ctx context.Context, pondID, parameter, timeRange string) []SeriesPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	since := timeRangeStart(timeRange, s.now())
	return s.seriesLocked(ctx, pondID, parameter, since, syntheticPlanFor(timeRange))
}

// RecentSeries is the minutes-resolution variant backing realtime charts.
func (s *Service) RecentSeries(ctx context.Context, pondID, parameter string, minutes int) []SeriesPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	since := s.now().Add(-time.Duration(minutes) * time.Minute)
	return s.seriesLocked(ctx, pondID, parameter, since, syntheticPlan{points: 20, step: time.Hour})
}

func (s *Service) seriesLocked(ctx context.Context, pondID, parameter string, since time.Time, plan syntheticPlan) []SeriesPoint {
	if _, ok := rowValue(Row{}, parameter); !ok {
		log.Printf("mockdata: unknown series parameter %q", parameter)
		return nil
	}

	pid := normalizePondID(pondID)
	groups := groupByPond(s.fetchRowsLocked(ctx))
	g := groups[pid]
	if len(g) == 0 {
		log.Printf("mockdata: no rows for pond %s, generating synthetic %s series", pid, parameter)
		return s.syntheticLocked(pid, parameter, plan)
	}

	filtered := g[:0:0]
	for _, r := range g {
		if !r.Timestamp.Before(since) {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) == 0 {
		// Static demo datasets rarely overlap "now"; show the most
		// recent rows instead of an empty chart.
		start := len(g) - 20
		if start < 0 {
			start = 0
		}
		filtered = g[start:]
		log.Printf("mockdata: empty window for pond %s %s, using last %d rows", pid, parameter, len(filtered))
	}

	points := make([]SeriesPoint, 0, len(filtered))
	for _, r := range filtered {
		v, _ := rowValue(r, parameter)
		points = append(points, SeriesPoint{
			Time:      r.Timestamp.Format("15:04"),
			Value:     round2(v),
			Timestamp: r.Timestamp,
		})
	}
	return points
}

// syntheticLocked generates a fallback series centered on the parameter's
// default value. The generator is seeded per pond/parameter/epoch so that
// repeated calls within one cache window return identical sequences.
func (s *Service) syntheticLocked(pondID, parameter string, plan syntheticPlan) []SeriesPoint {
	anchor := s.lastFetch
	if anchor.IsZero() {
		anchor = s.now()
	}

	h := fnv.New64a()
	h.Write([]byte(pondID + "|" + parameter))
	rng := rand.New(rand.NewSource(int64(h.Sum64()) ^ anchor.UnixNano()))

	base := defaultValue(parameter)
	spread := variance(parameter)

	points := make([]SeriesPoint, 0, plan.points)
	for i := plan.points - 1; i >= 0; i-- {
		ts := anchor.Add(-time.Duration(i) * plan.step)
		v := base + (rng.Float64()-0.5)*spread
		if v < 0 {
			v = 0
		}
		points = append(points, SeriesPoint{
			Time:      ts.Format("15:04"),
			Value:     round2(v),
			Timestamp: ts,
			Synthetic: true,
		})
	}
	return points
}
