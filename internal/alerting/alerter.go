// internal/alerting/alerter.go
package alerting

import (
	"context"
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/arixstoo/Junction/internal/hub"
	"github.com/arixstoo/Junction/internal/metrics"
	"github.com/arixstoo/Junction/internal/mockdata"
)

// Alerter fans derived alerts out to every configured channel: the websocket
// hub, the notifier, and optionally a NATS subject for external consumers.
type Alerter struct {
	hub       *hub.Hub
	notifier  Notifier
	metrics   *metrics.Metrics
	nc        *nats.Conn
	subject   string
	recipient string
	language  string
}

// Option configures an Alerter.
type Option func(*Alerter)

// WithNATS publishes every alert to the given subject on conn. A nil conn
// disables publication.
func WithNATS(nc *nats.Conn, subject string) Option {
	return func(a *Alerter) {
		a.nc = nc
		a.subject = subject
	}
}

// WithNotifier overrides the delivery channel (defaults to MockNotifier).
func WithNotifier(n Notifier) Option {
	return func(a *Alerter) { a.notifier = n }
}

// WithRecipient sets the phone number notified on each alert.
func WithRecipient(recipient, language string) Option {
	return func(a *Alerter) {
		a.recipient = recipient
		a.language = language
	}
}

// WithMetrics counts notifications on the given instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Alerter) { a.metrics = m }
}

func NewAlerter(h *hub.Hub, opts ...Option) *Alerter {
	a := &Alerter{
		hub:      h,
		notifier: MockNotifier{},
		language: "fr",
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ProcessAlerts sends alerts via the configured channels.
func (a *Alerter) ProcessAlerts(ctx context.Context, alerts []mockdata.Alert) {
	if len(alerts) == 0 {
		return
	}

	log.Printf("processing %d alerts", len(alerts))
	for _, alert := range alerts {
		if a.hub != nil {
			// Wire consumers see the live schema.
			a.hub.BroadcastAlert(alert.Live())
		}
		a.notify(ctx, alert)
		a.publish(alert)
	}
}

func (a *Alerter) notify(ctx context.Context, alert mockdata.Alert) {
	if a.recipient == "" {
		return
	}
	message := FormatAlertMessage(alert, a.language)

	if alert.Notifications.SMS {
		if err := a.notifier.SendSMS(ctx, a.recipient, message); err != nil {
			log.Printf("sms delivery failed for %s: %v", alert.ID, err)
		} else if a.metrics != nil {
			a.metrics.NotificationsSent.Inc()
		}
	}
	if alert.Notifications.WhatsApp {
		if err := a.notifier.SendWhatsApp(ctx, a.recipient, message); err != nil {
			log.Printf("whatsapp delivery failed for %s: %v", alert.ID, err)
		} else if a.metrics != nil {
			a.metrics.NotificationsSent.Inc()
		}
	}
}

func (a *Alerter) publish(alert mockdata.Alert) {
	if a.nc == nil || a.subject == "" {
		return
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		log.Printf("error marshalling alert %s for nats: %v", alert.ID, err)
		return
	}
	if err := a.nc.Publish(a.subject, payload); err != nil {
		log.Printf("nats publish failed for %s: %v", alert.ID, err)
	}
}

// TestSMS fires a test message at the configured recipient; backs the admin
// SMS-test endpoint.
func (a *Alerter) TestSMS(ctx context.Context) error {
	return a.notifier.SendSMS(ctx, a.recipient, "Pondwatch test message - SMS channel operational")
}
