// internal/client/client.go
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/arixstoo/Junction/internal/model"
)

// APIError is an HTTP-level failure (a response arrived, but not 2xx).
// Transport-level failures (no response at all) are returned as wrapped
// plain errors, so the two classes stay distinguishable.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client wraps HTTP calls to the monitoring backend, attaching bearer auth
// and normalizing error messages by status class.
type Client struct {
	baseURL string
	httpc   *http.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs a bearer token for subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token, empty when logged out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Logout clears the stored token.
func (c *Client) Logout() {
	c.SetToken("")
}

// WebSocketURL derives the realtime endpoint from the REST base URL.
func (c *Client) WebSocketURL() string {
	ws := c.baseURL
	if strings.HasPrefix(ws, "https://") {
		ws = "wss://" + strings.TrimPrefix(ws, "https://")
	} else if strings.HasPrefix(ws, "http://") {
		ws = "ws://" + strings.TrimPrefix(ws, "http://")
	}
	return ws + "/mvp/ws"
}

func statusMessage(status int, body []byte) string {
	// Prefer the backend's own detail when it sent one.
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	detail := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Detail != "" {
			detail = payload.Detail
		} else if payload.Message != "" {
			detail = payload.Message
		}
	}

	switch {
	case status == http.StatusUnauthorized:
		return "authentication failed - check credentials or token expired"
	case status == http.StatusForbidden:
		return "access forbidden - insufficient permissions"
	case status == http.StatusNotFound:
		return "endpoint not found - check backend API routes"
	case status >= 500:
		return fmt.Sprintf("server error (%d) - check backend logs", status)
	}
	if detail != "" {
		return detail
	}
	return fmt.Sprintf("HTTP %d", status)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("network error: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: statusMessage(resp.StatusCode, data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

// Login posts form-encoded credentials and stores the returned token.
func (c *Client) Login(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	var auth model.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login",
		strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &auth)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	c.SetToken(auth.AccessToken)
	return &auth, nil
}

func (c *Client) DashboardOverview(ctx context.Context) (*model.DashboardOverview, error) {
	var overview model.DashboardOverview
	if err := c.get(ctx, "/mvp/dashboard/overview", &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

func (c *Client) LatestPondData(ctx context.Context, pondID string) (*model.PondLatestData, error) {
	var latest model.PondLatestData
	if err := c.get(ctx, "/mvp/pond/"+url.PathEscape(pondID)+"/latest", &latest); err != nil {
		return nil, err
	}
	return &latest, nil
}

func (c *Client) PondHistory(ctx context.Context, pondID string, hours int) (*model.PondHistory, error) {
	var history model.PondHistory
	path := fmt.Sprintf("/mvp/pond/%s/history?hours=%d", url.PathEscape(pondID), hours)
	if err := c.get(ctx, path, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

func (c *Client) PondAlerts(ctx context.Context, pondID string, activeOnly bool, limit int) (*model.PondAlerts, error) {
	var alerts model.PondAlerts
	q := url.Values{}
	q.Set("active_only", strconv.FormatBool(activeOnly))
	q.Set("limit", strconv.Itoa(limit))
	path := "/mvp/pond/" + url.PathEscape(pondID) + "/alerts?" + q.Encode()
	if err := c.get(ctx, path, &alerts); err != nil {
		return nil, err
	}
	return &alerts, nil
}

func (c *Client) PondChartData(ctx context.Context, pondID string, hours int, parameters string) (*model.PondChartData, error) {
	var chart model.PondChartData
	q := url.Values{}
	q.Set("hours", strconv.Itoa(hours))
	q.Set("parameters", parameters)
	path := "/mvp/pond/" + url.PathEscape(pondID) + "/chart-data?" + q.Encode()
	if err := c.get(ctx, path, &chart); err != nil {
		return nil, err
	}
	return &chart, nil
}

func (c *Client) RealtimeChartData(ctx context.Context, pondID, parameter string, minutes int) (*model.RealtimeChartData, error) {
	var chart model.RealtimeChartData
	q := url.Values{}
	q.Set("parameter", parameter)
	q.Set("minutes", strconv.Itoa(minutes))
	path := "/mvp/pond/" + url.PathEscape(pondID) + "/realtime-chart?" + q.Encode()
	if err := c.get(ctx, path, &chart); err != nil {
		return nil, err
	}
	return &chart, nil
}

func (c *Client) ActiveAlerts(ctx context.Context) (*model.ActiveAlerts, error) {
	var alerts model.ActiveAlerts
	if err := c.get(ctx, "/mvp/alerts/active", &alerts); err != nil {
		return nil, err
	}
	return &alerts, nil
}

// ResolveAlert issues the resolve mutation. Callers refetch the alert list
// afterwards rather than editing local state.
func (c *Client) ResolveAlert(ctx context.Context, alertID string) error {
	return c.do(ctx, http.MethodPost, "/mvp/alert/"+url.PathEscape(alertID)+"/resolve", nil, "", nil)
}

func (c *Client) SystemStatus(ctx context.Context) (*model.SystemStatus, error) {
	var status model.SystemStatus
	if err := c.get(ctx, "/mvp/system/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.get(ctx, "/health", nil)
}

func (c *Client) ServicesStatus(ctx context.Context) (map[string]string, error) {
	services := make(map[string]string)
	if err := c.get(ctx, "/mvp/services/status", &services); err != nil {
		return nil, err
	}
	return services, nil
}

// TestConnection reports whether the backend answers its health check.
func (c *Client) TestConnection(ctx context.Context) bool {
	return c.Health(ctx) == nil
}

// TestSMS triggers the backend's SMS test (admin only).
func (c *Client) TestSMS(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/mvp/test/sms", nil, "", nil)
}
