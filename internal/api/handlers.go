package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	gwebsocket "github.com/gorilla/websocket"

	"github.com/arixstoo/Junction/internal/alerting"
	"github.com/arixstoo/Junction/internal/auth"
	"github.com/arixstoo/Junction/internal/hub"
	"github.com/arixstoo/Junction/internal/metrics"
	"github.com/arixstoo/Junction/internal/mockdata"
	"github.com/arixstoo/Junction/internal/model"
)

var upgrader = gwebsocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true }, // Dashboard origins vary per deployment.
}

type APIHandler struct {
	svc     *mockdata.Service
	hub     *hub.Hub
	alerter *alerting.Alerter
	auth    *auth.Manager
	metrics *metrics.Metrics
	started time.Time
}

func NewAPIHandler(svc *mockdata.Service, h *hub.Hub, alerter *alerting.Alerter, authMgr *auth.Manager, m *metrics.Metrics) *APIHandler {
	return &APIHandler{
		svc:     svc,
		hub:     h,
		alerter: alerter,
		auth:    authMgr,
		metrics: m,
		started: time.Now(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("error encoding response: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// liveParamKey maps live-schema parameter names onto the synchronizer's
// logical keys (dissolved_oxygen -> oxygen, water_level -> waterLevel).
func liveParamKey(parameter string) string {
	switch parameter {
	case "dissolved_oxygen":
		return "oxygen"
	case "water_level":
		return "waterLevel"
	}
	return parameter
}

func adaptAlerts(alerts []mockdata.Alert) []model.Alert {
	out := make([]model.Alert, 0, len(alerts))
	for _, a := range alerts {
		out = append(out, a.Live())
	}
	return out
}

func countSeverities(alerts []model.Alert) model.SeverityCounts {
	var counts model.SeverityCounts
	for _, a := range alerts {
		switch a.Severity {
		case model.SeverityCritical:
			counts.Critical++
		case model.SeverityHigh:
			counts.High++
		case model.SeverityMedium:
			counts.Medium++
		case model.SeverityLow:
			counts.Low++
		}
	}
	return counts
}

func alertStatistics(all []model.Alert) model.AlertStatistics {
	byParameter := make(map[string]int)
	active := 0
	for _, a := range all {
		byParameter[a.Parameter]++
		if !a.IsResolved {
			active++
		}
	}
	return model.AlertStatistics{
		TotalAlerts:  len(all),
		BySeverity:   countSeverities(all),
		ByParameter:  byParameter,
		ActiveAlerts: active,
		PeriodDays:   7,
	}
}

// HandleLogin authenticates form-encoded credentials and issues a token.
func (h *APIHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid form body")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	ok, role, err := h.auth.AuthenticateUser(username, password)
	if !ok {
		log.Printf("login rejected for %q: %v", username, err)
		writeDetail(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	token, err := h.auth.GenerateJWT(username, role)
	if err != nil {
		log.Printf("error generating token for %q: %v", username, err)
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, model.AuthResponse{AccessToken: token, TokenType: "bearer"})
}

func (h *APIHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"uptime":    time.Since(h.started).String(),
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandler) HandleServicesStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"database":  "mock-csv",
		"sms":       "mock",
		"websocket": "operational",
	})
}

func (h *APIHandler) HandleDashboardOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ponds := h.svc.Ponds(ctx)
	all := adaptAlerts(h.svc.AllAlerts(ctx))

	active := 0
	critical := 0
	for _, a := range all {
		if a.IsResolved {
			continue
		}
		active++
		if a.Severity == model.SeverityCritical {
			critical++
		}
	}

	summaries := make([]model.PondSummary, 0, len(ponds))
	for _, p := range ponds {
		latest, ok := h.svc.LatestReading(ctx, p.ID)
		if !ok {
			continue
		}
		summaries = append(summaries, model.PondSummary{
			PondID:        latest.PondID,
			Status:        p.Status,
			LatestReading: latest,
		})
	}

	writeJSON(w, http.StatusOK, model.DashboardOverview{
		Summary: model.DashboardSummary{
			TotalPonds:     len(ponds),
			ActivePonds:    len(summaries),
			TotalReadings:  h.svc.ReadingCount(ctx),
			ActiveAlerts:   active,
			CriticalAlerts: critical,
		},
		Ponds:                summaries,
		AlertStatistics:      alertStatistics(all),
		WebsocketConnections: h.hub.Connections(),
	})
}

func (h *APIHandler) HandlePondLatest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pondID := chi.URLParam(r, "id")

	latest, pond, ok := h.svc.PondLatest(ctx, pondID)
	if !ok {
		writeDetail(w, http.StatusNotFound, "pond not found")
		return
	}

	writeJSON(w, http.StatusOK, model.PondLatestData{
		PondID:        latest.PondID,
		LatestReading: latest,
		ActiveAlerts:  pond.Alerts,
		Status:        pond.Status,
		LastUpdated:   latest.Timestamp,
	})
}

func (h *APIHandler) HandlePondHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pondID := chi.URLParam(r, "id")
	hours := queryInt(r, "hours", 24)

	readings := h.svc.PondReadings(ctx, pondID, hours)
	writeJSON(w, http.StatusOK, model.PondHistory{
		PondID:        strings.TrimPrefix(pondID, "pond-"),
		PeriodHours:   hours,
		TotalReadings: len(readings),
		Readings:      readings,
	})
}

func (h *APIHandler) HandlePondAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pondID := strings.TrimPrefix(chi.URLParam(r, "id"), "pond-")
	activeOnly := r.URL.Query().Get("active_only") != "false"
	limit := queryInt(r, "limit", 50)

	var pondAlerts []model.Alert
	for _, a := range h.svc.AllAlerts(ctx) {
		if a.PondID != pondID {
			continue
		}
		if activeOnly && !a.IsActive {
			continue
		}
		pondAlerts = append(pondAlerts, a.Live())
	}

	stats := alertStatistics(pondAlerts)
	if limit > 0 && len(pondAlerts) > limit {
		pondAlerts = pondAlerts[:limit]
	}

	writeJSON(w, http.StatusOK, model.PondAlerts{
		PondID:        pondID,
		Alerts:        pondAlerts,
		Statistics:    stats,
		TotalReturned: len(pondAlerts),
	})
}

func (h *APIHandler) HandlePondChartData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pondID := chi.URLParam(r, "id")
	hours := queryInt(r, "hours", 24)
	parameters := r.URL.Query().Get("parameters")
	if parameters == "" {
		parameters = "ph,temperature,dissolved_oxygen,water_level"
	}

	requested := strings.Split(parameters, ",")
	chartData := make(map[string]model.ChartDataParameter, len(requested))
	var start, end time.Time
	total := 0

	for _, raw := range requested {
		parameter := strings.TrimSpace(raw)
		if parameter == "" {
			continue
		}
		series := h.svc.RecentSeries(ctx, pondID, liveParamKey(parameter), hours*60)
		labels := make([]string, 0, len(series))
		values := make([]float64, 0, len(series))
		for _, p := range series {
			labels = append(labels, p.Time)
			values = append(values, p.Value)
			if start.IsZero() || p.Timestamp.Before(start) {
				start = p.Timestamp
			}
			if p.Timestamp.After(end) {
				end = p.Timestamp
			}
		}
		total += len(series)
		chartData[parameter] = model.ChartDataParameter{
			Labels: labels,
			Values: values,
			Unit:   mockdata.Unit(liveParamKey(parameter)),
			Name:   mockdata.DisplayName(liveParamKey(parameter)),
			Stats:  seriesStats(values),
		}
	}

	writeJSON(w, http.StatusOK, model.PondChartData{
		PondID:      strings.TrimPrefix(pondID, "pond-"),
		PeriodHours: hours,
		Parameters:  requested,
		ChartData:   chartData,
		Metadata: model.ChartMetadata{
			TotalPoints: total,
			StartTime:   start,
			EndTime:     end,
			AvailableParameters: []string{
				"ph", "temperature", "dissolved_oxygen", "turbidity",
				"nitrate", "nitrite", "ammonia", "water_level",
			},
		},
	})
}

func seriesStats(values []float64) model.ChartStats {
	if len(values) == 0 {
		return model.ChartStats{}
	}
	min, max, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := sum / float64(len(values))
	latest := values[len(values)-1]
	return model.ChartStats{
		Min:    &min,
		Max:    &max,
		Avg:    &avg,
		Latest: &latest,
		Count:  len(values),
	}
}

func (h *APIHandler) HandleRealtimeChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	pondID := chi.URLParam(r, "id")
	parameter := r.URL.Query().Get("parameter")
	if parameter == "" {
		parameter = "temperature"
	}
	minutes := queryInt(r, "minutes", 60)

	key := liveParamKey(parameter)
	series := h.svc.RecentSeries(ctx, pondID, key, minutes)

	timestamps := make([]string, 0, len(series))
	values := make([]float64, 0, len(series))
	for _, p := range series {
		timestamps = append(timestamps, p.Timestamp.UTC().Format(time.RFC3339))
		values = append(values, p.Value)
	}
	var latest *float64
	if len(values) > 0 {
		v := values[len(values)-1]
		latest = &v
	}

	writeJSON(w, http.StatusOK, model.RealtimeChartData{
		PondID:        strings.TrimPrefix(pondID, "pond-"),
		Parameter:     parameter,
		PeriodMinutes: minutes,
		Data: model.RealtimeSeries{
			Timestamps: timestamps,
			Values:     values,
			Unit:       mockdata.Unit(key),
			Name:       mockdata.DisplayName(key),
		},
		Thresholds:  mockdata.Bounds(key),
		LatestValue: latest,
		DataPoints:  len(values),
		LastUpdated: time.Now().UTC(),
	})
}

func (h *APIHandler) HandleActiveAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := adaptAlerts(h.svc.ActiveAlerts(r.Context()))
	writeJSON(w, http.StatusOK, model.ActiveAlerts{
		TotalActiveAlerts: len(alerts),
		Alerts:            alerts,
		BySeverity:        countSeverities(alerts),
	})
}

func (h *APIHandler) HandleResolveAlert(w http.ResponseWriter, r *http.Request) {
	alertID := chi.URLParam(r, "id")
	h.svc.ResolveAlert(r.Context(), alertID)
	if h.metrics != nil {
		h.metrics.AlertsResolved.Inc()
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "alert resolved",
		"alert_id": alertID,
	})
}

func (h *APIHandler) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var lastReceived time.Time
	for _, p := range h.svc.Ponds(ctx) {
		if p.LastUpdate.After(lastReceived) {
			lastReceived = p.LastUpdate
		}
	}
	writeJSON(w, http.StatusOK, model.SystemStatus{
		SystemStatus:         "operational",
		Database:             "mock-csv",
		SMSService:           "mock",
		WebsocketConnections: h.hub.Connections(),
		LastDataReceived:     lastReceived,
		Timestamp:            time.Now().UTC(),
	})
}

func (h *APIHandler) HandleTestSMS(w http.ResponseWriter, r *http.Request) {
	if err := h.alerter.TestSMS(r.Context()); err != nil {
		writeDetail(w, http.StatusBadGateway, "sms test failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "sent",
		"message": "test SMS dispatched",
	})
}

// HandleWebSocket upgrades connections and registers clients with the hub.
func (h *APIHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	client := hub.NewClient(h.hub, conn)
	go client.WritePump()
	go client.ReadPump() // handles control messages and dashboard pings

	log.Printf("websocket connection established: %s", conn.RemoteAddr())
}

// Mock-schema routes, kept for surfaces that render the two-tier shape.

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (h *APIHandler) HandleMockPonds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: h.svc.Ponds(r.Context())})
}

func (h *APIHandler) HandleMockCreatePond(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "invalid pond payload"})
		return
	}
	// Pond creation stays a mock; the dataset defines the ponds.
	log.Printf("mock pond creation requested: %v", body["name"])
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    map[string]string{"id": fmt.Sprintf("pond-%d", time.Now().UnixMilli())},
	})
}

func (h *APIHandler) HandleMockPondSeries(w http.ResponseWriter, r *http.Request) {
	pondID := chi.URLParam(r, "id")
	parameter := r.URL.Query().Get("parameter")
	if parameter == "" {
		parameter = "temperature"
	}
	timeRange := r.URL.Query().Get("range")
	if timeRange == "" {
		timeRange = "24h"
	}

	series := h.svc.HistoricalSeries(r.Context(), pondID, parameter, timeRange)
	if series == nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "unknown parameter " + parameter})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: series})
}

func (h *APIHandler) HandleMockAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: h.svc.AllAlerts(r.Context())})
}

func (h *APIHandler) HandleMockCreateAlert(w http.ResponseWriter, r *http.Request) {
	var alert mockdata.Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "invalid alert payload"})
		return
	}

	id := h.svc.CreateAlert(r.Context(), alert)
	alert.ID = id
	h.alerter.ProcessAlerts(r.Context(), []mockdata.Alert{alert})

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: map[string]string{"id": id}})
}
