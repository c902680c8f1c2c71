// internal/alerting/notifier.go
package alerting

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/arixstoo/Junction/internal/mockdata"
)

// Notifier delivers alert notifications out of band (SMS, WhatsApp).
type Notifier interface {
	SendSMS(ctx context.Context, to, message string) error
	SendWhatsApp(ctx context.Context, to, message string) error
}

// MockNotifier logs deliveries instead of calling a provider. Stands in for
// the real SMS gateway in demo deployments.
type MockNotifier struct{}

func (MockNotifier) SendSMS(ctx context.Context, to, message string) error {
	log.Printf("SMS sent to %s: %s", to, firstLine(message))
	return nil
}

func (MockNotifier) SendWhatsApp(ctx context.Context, to, message string) error {
	log.Printf("WhatsApp sent to %s: %s", to, firstLine(message))
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

type messageStrings struct {
	title, pond, parameter, value, status, when, action string
}

var messagesByLanguage = map[string]messageStrings{
	"en": {
		title:     "🚨 OCEA Alert",
		pond:      "Pond",
		parameter: "Parameter",
		value:     "Value",
		status:    "Status",
		when:      "Time",
		action:    "Please check your pond immediately.",
	},
	"fr": {
		title:     "🚨 Alerte OCEA",
		pond:      "Bassin",
		parameter: "Paramètre",
		value:     "Valeur",
		status:    "Statut",
		when:      "Heure",
		action:    "Veuillez vérifier votre bassin immédiatement.",
	},
}

// FormatAlertMessage renders the notification body for an alert.
func FormatAlertMessage(alert mockdata.Alert, language string) string {
	msg, ok := messagesByLanguage[language]
	if !ok {
		msg = messagesByLanguage["en"]
	}

	return fmt.Sprintf("%s\n\n%s: %s\n%s: %s\n%s: %s\n%s: %s\n%s: %s\n\n%s",
		msg.title,
		msg.pond, alert.PondName,
		msg.parameter, alert.Parameter,
		msg.value, alert.Message,
		msg.status, strings.ToUpper(alert.Severity),
		msg.when, alert.Timestamp.Format(time.RFC1123),
		msg.action)
}
