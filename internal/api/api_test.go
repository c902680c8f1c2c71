package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gwebsocket "github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/arixstoo/Junction/internal/alerting"
	"github.com/arixstoo/Junction/internal/auth"
	"github.com/arixstoo/Junction/internal/hub"
	"github.com/arixstoo/Junction/internal/mockdata"
	"github.com/arixstoo/Junction/internal/model"
)

type memSource struct {
	rows []mockdata.Row
}

func (s memSource) Rows(ctx context.Context) ([]mockdata.Row, error) {
	return s.rows, nil
}

func testRow(pondID string, ts time.Time, temp float64) mockdata.Row {
	return mockdata.Row{
		PondID:     pondID,
		Timestamp:  ts,
		PH:         7.2,
		Temp:       temp,
		DO:         6.5,
		Turbidity:  5.0,
		Nitrate:    10.0,
		Nitrite:    0.2,
		Ammonia:    0.5,
		WaterLevel: 85.0,
	}
}

// newTestServer builds the full stack over an in-memory dataset: pond 1 in
// critical temperature, pond 2 healthy.
func newTestServer(t *testing.T) (*httptest.Server, *auth.Manager) {
	t.Helper()
	now := time.Now().UTC()
	src := memSource{rows: []mockdata.Row{
		testRow("1", now.Add(-2*time.Hour), 24.0),
		testRow("1", now.Add(-time.Minute), 31.0),
		testRow("2", now.Add(-time.Minute), 24.0),
	}}
	svc := mockdata.NewService(src)

	wsHub := hub.NewHub()
	go wsHub.Run()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	authMgr := auth.NewManager(auth.Config{
		JWTSecret:     "test-secret",
		JWTExpiration: 60,
		APIKeys:       []string{"ingest-key"},
		Users: []auth.User{
			{Username: "admin", PasswordHash: string(hash), Role: "admin"},
			{Username: "viewer", PasswordHash: string(hash), Role: "viewer"},
		},
	})
	alerter := alerting.NewAlerter(wsHub)

	handler := NewAPIHandler(svc, wsHub, alerter, authMgr, nil)
	srv := httptest.NewServer(SetupRouter(handler, authMgr, nil))
	t.Cleanup(srv.Close)
	return srv, authMgr
}

func login(t *testing.T, srv *httptest.Server, username string) string {
	t.Helper()
	form := url.Values{"username": {username}, "password": {"secret"}}
	resp, err := http.PostForm(srv.URL+"/auth/login", form)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login returned %d", resp.StatusCode)
	}
	var auth model.AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if auth.TokenType != "bearer" || auth.AccessToken == "" {
		t.Fatalf("unexpected auth response: %+v", auth)
	}
	return auth.AccessToken
}

func getJSON(t *testing.T, srv *httptest.Server, token, path string, out interface{}) int {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv, _ := newTestServer(t)

	for _, path := range []string{
		"/mvp/dashboard/overview",
		"/mvp/pond/1/latest",
		"/mvp/alerts/active",
		"/mvp/system/status",
	} {
		if code := getJSON(t, srv, "", path, nil); code != http.StatusUnauthorized {
			t.Errorf("%s without token returned %d, want 401", path, code)
		}
	}

	// The health check and service status stay public.
	if code := getJSON(t, srv, "", "/health", nil); code != http.StatusOK {
		t.Errorf("/health returned %d, want 200", code)
	}
	if code := getJSON(t, srv, "", "/mvp/services/status", nil); code != http.StatusOK {
		t.Errorf("/mvp/services/status returned %d, want 200", code)
	}
}

func TestWrongCredentialsRejected(t *testing.T) {
	srv, _ := newTestServer(t)
	form := url.Values{"username": {"admin"}, "password": {"nope"}}
	resp, err := http.PostForm(srv.URL+"/auth/login", form)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}

func TestOverviewAgreesWithActiveAlerts(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, "viewer")

	var overview model.DashboardOverview
	if code := getJSON(t, srv, token, "/mvp/dashboard/overview", &overview); code != http.StatusOK {
		t.Fatalf("overview returned %d", code)
	}
	var active model.ActiveAlerts
	if code := getJSON(t, srv, token, "/mvp/alerts/active", &active); code != http.StatusOK {
		t.Fatalf("active alerts returned %d", code)
	}

	if overview.Summary.ActiveAlerts != active.TotalActiveAlerts {
		t.Fatalf("overview reports %d active alerts, list has %d",
			overview.Summary.ActiveAlerts, active.TotalActiveAlerts)
	}
	if overview.Summary.TotalPonds != 2 {
		t.Fatalf("expected 2 ponds, got %d", overview.Summary.TotalPonds)
	}
	if overview.Summary.CriticalAlerts < 1 {
		t.Fatalf("the hot pond must produce a critical alert")
	}

	// The same count appears on the pond badge.
	for _, p := range overview.Ponds {
		if p.PondID != "1" {
			continue
		}
		if p.Status != "critical" {
			t.Fatalf("pond 1 must be critical, got %q", p.Status)
		}
	}
}

func TestPondEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, "viewer")

	var latest model.PondLatestData
	if code := getJSON(t, srv, token, "/mvp/pond/1/latest", &latest); code != http.StatusOK {
		t.Fatalf("latest returned %d", code)
	}
	if latest.LatestReading.Temperature != 31.0 {
		t.Fatalf("expected the newest reading, got %v", latest.LatestReading.Temperature)
	}

	if code := getJSON(t, srv, token, "/mvp/pond/99/latest", nil); code != http.StatusNotFound {
		t.Fatalf("unknown pond returned %d, want 404", code)
	}

	var history model.PondHistory
	if code := getJSON(t, srv, token, "/mvp/pond/1/history?hours=24", &history); code != http.StatusOK {
		t.Fatalf("history returned %d", code)
	}
	if history.TotalReadings != 2 || history.PondID != "1" {
		t.Fatalf("unexpected history: %+v", history)
	}

	var chart model.RealtimeChartData
	if code := getJSON(t, srv, token, "/mvp/pond/1/realtime-chart?parameter=dissolved_oxygen&minutes=180", &chart); code != http.StatusOK {
		t.Fatalf("realtime chart returned %d", code)
	}
	if chart.Parameter != "dissolved_oxygen" || chart.DataPoints == 0 {
		t.Fatalf("unexpected chart: %+v", chart)
	}
	if chart.Thresholds.CriticalLow == nil || *chart.Thresholds.CriticalLow != 3 {
		t.Fatalf("oxygen thresholds missing from chart response")
	}
}

func TestResolveAlertRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t)
	token := login(t, srv, "viewer")

	var active model.ActiveAlerts
	getJSON(t, srv, token, "/mvp/alerts/active", &active)
	if active.TotalActiveAlerts == 0 {
		t.Fatalf("expected at least one active alert")
	}
	target := active.Alerts[0].ID

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/mvp/alert/"+target+"/resolve", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("resolve returned %d", resp.StatusCode)
	}

	var after model.ActiveAlerts
	getJSON(t, srv, token, "/mvp/alerts/active", &after)
	for _, a := range after.Alerts {
		if a.ID == target {
			t.Fatalf("alert %s still active after resolve", target)
		}
	}
	if after.TotalActiveAlerts != active.TotalActiveAlerts-1 {
		t.Fatalf("active count went from %d to %d", active.TotalActiveAlerts, after.TotalActiveAlerts)
	}
}

func TestSMSRouteRequiresAdmin(t *testing.T) {
	srv, _ := newTestServer(t)

	viewerToken := login(t, srv, "viewer")
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/mvp/test/sms", nil)
	req.Header.Set("Authorization", "Bearer "+viewerToken)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sms as viewer: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("viewer must get 403, got %d", resp.StatusCode)
	}

	adminToken := login(t, srv, "admin")
	req, _ = http.NewRequest(http.MethodPost, srv.URL+"/mvp/test/sms", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("sms as admin: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin must get 200, got %d", resp.StatusCode)
	}
}

func TestMockEnvelopeRoutes(t *testing.T) {
	srv, _ := newTestServer(t)

	var ponds struct {
		Success bool            `json:"success"`
		Data    []mockdata.Pond `json:"data"`
	}
	if code := getJSON(t, srv, "", "/api/ponds", &ponds); code != http.StatusOK {
		t.Fatalf("ponds returned %d", code)
	}
	if !ponds.Success || len(ponds.Data) != 2 {
		t.Fatalf("unexpected ponds envelope: success=%v len=%d", ponds.Success, len(ponds.Data))
	}
	if ponds.Data[0].Name != "Bassin Alpha" {
		t.Fatalf("unexpected pond name %q", ponds.Data[0].Name)
	}

	var alerts struct {
		Success bool             `json:"success"`
		Data    []mockdata.Alert `json:"data"`
	}
	if code := getJSON(t, srv, "", "/api/alerts", &alerts); code != http.StatusOK {
		t.Fatalf("alerts returned %d", code)
	}
	if !alerts.Success {
		t.Fatalf("expected success envelope")
	}

	// Mutations need an API key.
	payload := `{"pondId":"1","parameter":"Température","message":"check pump","severity":"warning"}`
	resp, err := http.Post(srv.URL+"/api/alerts", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("create without api key returned %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/alerts", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", "ingest-key")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("create alert: %v", err)
	}
	defer resp.Body.Close()
	var created struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode create: %v", err)
	}
	if !created.Success || !strings.HasPrefix(created.Data["id"], "alert-manual-") {
		t.Fatalf("unexpected create response: %+v", created)
	}
}

func TestMockPondSeriesRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	var series struct {
		Success bool                   `json:"success"`
		Data    []mockdata.SeriesPoint `json:"data"`
	}
	if code := getJSON(t, srv, "", "/api/ponds/1/history?parameter=temperature&range=24h", &series); code != http.StatusOK {
		t.Fatalf("series returned %d", code)
	}
	if !series.Success || len(series.Data) == 0 {
		t.Fatalf("expected a non-empty series, got %+v", series)
	}

	resp, err := http.Get(srv.URL + "/api/ponds/1/history?parameter=salinity")
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown parameter returned %d, want 400", resp.StatusCode)
	}
}

func TestWebSocketPingPong(t *testing.T) {
	srv, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/mvp/ws"
	conn, _, err := gwebsocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(gwebsocket.TextMessage, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write ping: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	var msg model.WSMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatalf("decode pong: %v", err)
	}
	if msg.Type != model.MessagePong {
		t.Fatalf("expected pong, got %q", msg.Type)
	}
	if msg.Timestamp == "" {
		t.Fatalf("pong frame missing timestamp")
	}
}
