// internal/mockdata/types.go
package mockdata

import "time"

// NotificationFlags records which channels fired for an alert.
type NotificationFlags struct {
	SMS      bool `json:"sms"`
	WhatsApp bool `json:"whatsapp"`
	Email    bool `json:"email"`
}

// Alert is the mock-schema alert derived from the CSV snapshot. It uses the
// two-tier warning/critical severity; the live API schema has its own Alert
// type with four tiers, translated at the API boundary.
type Alert struct {
	ID            string            `json:"_id"`
	PondID        string            `json:"pondId"`
	PondName      string            `json:"pondName"`
	Parameter     string            `json:"parameter"`
	Value         float64           `json:"value"`
	Threshold     float64           `json:"threshold"`
	Message       string            `json:"message"`
	Severity      string            `json:"severity"`
	IsActive      bool              `json:"isActive"`
	Location      string            `json:"location"`
	Timestamp     time.Time         `json:"timestamp"`
	ResolvedAt    *time.Time        `json:"resolvedAt,omitempty"`
	Notifications NotificationFlags `json:"notificationsSent"`
}

// ParameterReading is one classified parameter value on a pond.
type ParameterReading struct {
	Value     float64   `json:"value"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Pond is the mock-schema pond snapshot. Alerts carries the count of active
// alerts for the pond in the same cache epoch the snapshot was derived in.
type Pond struct {
	ID         string                      `json:"_id"`
	Name       string                      `json:"name"`
	Location   string                      `json:"location"`
	Status     string                      `json:"status"`
	Parameters map[string]ParameterReading `json:"parameters"`
	Alerts     int                         `json:"alerts"`
	LastUpdate time.Time                   `json:"lastUpdate"`
	CreatedAt  time.Time                   `json:"createdAt"`
	UpdatedAt  time.Time                   `json:"updatedAt"`
}

// SeriesPoint is one chart-ready point. Synthetic marks points that were
// generated rather than read from the dataset; the field is omitted on the
// wire so real and generated series share a shape, but in-process callers
// can tell them apart.
type SeriesPoint struct {
	Time      string    `json:"time"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	Synthetic bool      `json:"synthetic,omitempty"`
}
