// internal/model/model.go
package model

import (
	"encoding/json"
	"time"
)

// SensorReading is one timestamped measurement set for a pond. Immutable
// once received; produced by the backend or synthesized from a CSV row.
type SensorReading struct {
	ID              string    `json:"id,omitempty"`
	PondID          string    `json:"pond_id"`
	DeviceID        string    `json:"device_id"`
	Timestamp       time.Time `json:"timestamp"`
	PH              float64   `json:"ph"`
	Temperature     float64   `json:"temperature"`
	DissolvedOxygen float64   `json:"dissolved_oxygen"`
	Turbidity       float64   `json:"turbidity"`
	Nitrate         float64   `json:"nitrate"`
	Nitrite         float64   `json:"nitrite"`
	Ammonia         float64   `json:"ammonia"`
	WaterLevel      float64   `json:"water_level"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
}

// Alert severities used by the live API schema.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
)

// Alert is a derived record that a parameter crossed a threshold.
// Mutated only by a resolve operation; never deleted.
type Alert struct {
	ID             string     `json:"id"`
	PondID         string     `json:"pond_id"`
	AlertType      string     `json:"alert_type"`
	Parameter      string     `json:"parameter"`
	CurrentValue   float64    `json:"current_value"`
	ThresholdValue float64    `json:"threshold_value"`
	Severity       string     `json:"severity"`
	Message        string     `json:"message"`
	IsResolved     bool       `json:"is_resolved"`
	SMSSent        bool       `json:"sms_sent"`
	CreatedAt      time.Time  `json:"created_at"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

type PondSummary struct {
	PondID        string        `json:"pond_id"`
	Status        string        `json:"status"`
	LatestReading SensorReading `json:"latest_reading"`
}

type SeverityCounts struct {
	Low      int `json:"low"`
	Medium   int `json:"medium"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

type AlertStatistics struct {
	TotalAlerts  int            `json:"total_alerts"`
	BySeverity   SeverityCounts `json:"by_severity"`
	ByParameter  map[string]int `json:"by_parameter"`
	ActiveAlerts int            `json:"active_alerts"`
	PeriodDays   int            `json:"period_days"`
}

type DashboardSummary struct {
	TotalPonds     int `json:"total_ponds"`
	ActivePonds    int `json:"active_ponds"`
	TotalReadings  int `json:"total_readings"`
	ActiveAlerts   int `json:"active_alerts"`
	CriticalAlerts int `json:"critical_alerts"`
}

type DashboardOverview struct {
	Summary              DashboardSummary `json:"summary"`
	Ponds                []PondSummary    `json:"ponds"`
	AlertStatistics      AlertStatistics  `json:"alert_statistics"`
	WebsocketConnections int              `json:"websocket_connections"`
}

type PondLatestData struct {
	PondID        string        `json:"pond_id"`
	LatestReading SensorReading `json:"latest_reading"`
	ActiveAlerts  int           `json:"active_alerts"`
	Status        string        `json:"status"`
	LastUpdated   time.Time     `json:"last_updated"`
}

type PondHistory struct {
	PondID        string          `json:"pond_id"`
	PeriodHours   int             `json:"period_hours"`
	TotalReadings int             `json:"total_readings"`
	Readings      []SensorReading `json:"readings"`
}

type PondAlerts struct {
	PondID        string          `json:"pond_id"`
	Alerts        []Alert         `json:"alerts"`
	Statistics    AlertStatistics `json:"statistics"`
	TotalReturned int             `json:"total_returned"`
}

type ChartStats struct {
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Avg    *float64 `json:"avg"`
	Latest *float64 `json:"latest"`
	Count  int      `json:"count"`
}

type ChartDataParameter struct {
	Labels []string   `json:"labels"`
	Values []float64  `json:"values"`
	Unit   string     `json:"unit"`
	Name   string     `json:"name"`
	Stats  ChartStats `json:"stats"`
}

type ChartMetadata struct {
	TotalPoints         int       `json:"total_points"`
	StartTime           time.Time `json:"start_time"`
	EndTime             time.Time `json:"end_time"`
	AvailableParameters []string  `json:"available_parameters"`
}

type PondChartData struct {
	PondID      string                        `json:"pond_id"`
	PeriodHours int                           `json:"period_hours"`
	Parameters  []string                      `json:"parameters"`
	ChartData   map[string]ChartDataParameter `json:"chart_data"`
	Metadata    ChartMetadata                 `json:"metadata"`
}

type Thresholds struct {
	WarningLow   *float64 `json:"warning_low,omitempty"`
	WarningHigh  *float64 `json:"warning_high,omitempty"`
	CriticalLow  *float64 `json:"critical_low,omitempty"`
	CriticalHigh *float64 `json:"critical_high,omitempty"`
}

type RealtimeSeries struct {
	Timestamps []string  `json:"timestamps"`
	Values     []float64 `json:"values"`
	Unit       string    `json:"unit"`
	Name       string    `json:"name"`
}

type RealtimeChartData struct {
	PondID        string         `json:"pond_id"`
	Parameter     string         `json:"parameter"`
	PeriodMinutes int            `json:"period_minutes"`
	Data          RealtimeSeries `json:"data"`
	Thresholds    Thresholds     `json:"thresholds"`
	LatestValue   *float64       `json:"latest_value"`
	DataPoints    int            `json:"data_points"`
	LastUpdated   time.Time      `json:"last_updated"`
}

type ActiveAlerts struct {
	TotalActiveAlerts int            `json:"total_active_alerts"`
	Alerts            []Alert        `json:"alerts"`
	BySeverity        SeverityCounts `json:"by_severity"`
}

type SystemStatus struct {
	SystemStatus         string    `json:"system_status"`
	Database             string    `json:"database"`
	SMSService           string    `json:"sms_service"`
	WebsocketConnections int       `json:"websocket_connections"`
	LastDataReceived     time.Time `json:"last_data_received"`
	Timestamp            time.Time `json:"timestamp"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Message types carried on the realtime websocket.
const (
	MessageSensorData = "sensor_data"
	MessageAlert      = "alert"
	MessagePing       = "ping"
	MessagePong       = "pong"
)

// WSMessage is the envelope for every frame on the realtime websocket.
// Data stays raw until the type discriminator has been inspected.
type WSMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}
