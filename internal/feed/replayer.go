// internal/feed/replayer.go
package feed

import (
	"context"
	"log"
	"time"

	"github.com/arixstoo/Junction/internal/alerting"
	"github.com/arixstoo/Junction/internal/hub"
	"github.com/arixstoo/Junction/internal/metrics"
	"github.com/arixstoo/Junction/internal/mockdata"
	"github.com/arixstoo/Junction/internal/model"
)

// Replayer turns the static dataset into a live feed: on each tick it pushes
// the next reading through the hub as sensor_data, restamped to the current
// time, and raises alert frames for any parameter outside its thresholds.
// Wraps around at the end of the dataset.
type Replayer struct {
	svc      *mockdata.Service
	hub      *hub.Hub
	alerter  *alerting.Alerter
	metrics  *metrics.Metrics
	interval time.Duration

	readings []model.SensorReading
	next     int
}

func NewReplayer(svc *mockdata.Service, h *hub.Hub, alerter *alerting.Alerter, m *metrics.Metrics, interval time.Duration) *Replayer {
	return &Replayer{
		svc:      svc,
		hub:      h,
		alerter:  alerter,
		metrics:  m,
		interval: interval,
	}
}

// Run replays readings until the context is cancelled.
func (r *Replayer) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	log.Printf("feed: replaying dataset every %s", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("feed: stopped")
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Replayer) tick(ctx context.Context) {
	if r.next >= len(r.readings) {
		r.readings = r.svc.AllReadings(ctx)
		r.next = 0
		if len(r.readings) == 0 {
			return
		}
	}

	reading := r.readings[r.next]
	r.next++
	reading.Timestamp = time.Now().UTC()
	reading.CreatedAt = reading.Timestamp

	r.hub.BroadcastSensorData(reading)
	if r.metrics != nil {
		r.metrics.ReadingsBroadcast.Inc()
	}

	alerts := mockdata.AlertsForReading(reading)
	if len(alerts) > 0 {
		if r.metrics != nil {
			r.metrics.AlertsGenerated.Add(float64(len(alerts)))
		}
		r.alerter.ProcessAlerts(ctx, alerts)
	}
}
