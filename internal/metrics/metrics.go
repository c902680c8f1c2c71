// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the gateway's prometheus instruments on a dedicated
// registry so tests can construct isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	ReadingsBroadcast prometheus.Counter
	AlertsGenerated   prometheus.Counter
	AlertsResolved    prometheus.Counter
	NotificationsSent prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ReadingsBroadcast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pondwatch_readings_broadcast_total",
			Help: "Sensor readings pushed to websocket clients.",
		}),
		AlertsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pondwatch_alerts_generated_total",
			Help: "Threshold alerts raised by the feed.",
		}),
		AlertsResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pondwatch_alerts_resolved_total",
			Help: "Alerts resolved through the API.",
		}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pondwatch_notifications_sent_total",
			Help: "Alert notifications handed to the notifier.",
		}),
	}
	m.registry.MustRegister(m.ReadingsBroadcast, m.AlertsGenerated, m.AlertsResolved, m.NotificationsSent)
	return m
}

// RegisterConnectionGauge exposes a live websocket connection count.
func (m *Metrics) RegisterConnectionGauge(f func() float64) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "pondwatch_websocket_connections",
		Help: "Currently connected websocket clients.",
	}, f))
}

// Handler serves the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
