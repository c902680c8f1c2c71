package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/arixstoo/Junction/internal/model"
)

func TestLoginStoresToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form encoding, got %q", ct)
		}
		r.ParseForm()
		if r.PostFormValue("username") != "admin" || r.PostFormValue("password") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(model.AuthResponse{AccessToken: "tok-123", TokenType: "bearer"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	auth, err := c.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if auth.AccessToken != "tok-123" {
		t.Fatalf("unexpected token %q", auth.AccessToken)
	}
	if c.Token() != "tok-123" {
		t.Fatalf("token not stored on the client")
	}

	c.Logout()
	if c.Token() != "" {
		t.Fatalf("logout must clear the token")
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(model.DashboardOverview{})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.SetToken("tok-456")
	if _, err := c.DashboardOverview(context.Background()); err != nil {
		t.Fatalf("overview: %v", err)
	}
	if gotAuth != "Bearer tok-456" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
}

func TestStatusMessagesByClass(t *testing.T) {
	cases := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "authentication failed"},
		{http.StatusForbidden, "access forbidden"},
		{http.StatusNotFound, "endpoint not found"},
		{http.StatusInternalServerError, "server error (500)"},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		c := New(srv.URL)
		_, err := c.ActiveAlerts(context.Background())
		srv.Close()

		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("status %d: expected *APIError, got %v", tc.status, err)
		}
		if apiErr.StatusCode != tc.status {
			t.Fatalf("expected status %d, got %d", tc.status, apiErr.StatusCode)
		}
		if !strings.Contains(apiErr.Message, tc.want) {
			t.Fatalf("status %d: message %q missing %q", tc.status, apiErr.Message, tc.want)
		}
	}
}

func TestBackendDetailPreferred(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "hours must be positive"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.PondHistory(context.Background(), "pond-1", -1)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Message != "hours must be positive" {
		t.Fatalf("expected the backend detail, got %q", apiErr.Message)
	}
}

func TestTransportErrorIsNotAPIError(t *testing.T) {
	c := New("http://127.0.0.1:1") // nothing listens here
	_, err := c.SystemStatus(context.Background())
	if err == nil {
		t.Fatalf("expected a transport error")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Fatalf("transport failures must not be APIErrors: %v", err)
	}
	if !strings.Contains(err.Error(), "network error") {
		t.Fatalf("expected a wrapped network error, got %v", err)
	}
}

func TestWebSocketURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8000":   "ws://localhost:8000/mvp/ws",
		"https://api.example.com": "wss://api.example.com/mvp/ws",
		"http://host:8000/":       "ws://host:8000/mvp/ws",
	}
	for base, want := range cases {
		if got := New(base).WebSocketURL(); got != want {
			t.Errorf("WebSocketURL(%s) = %q, want %q", base, got, want)
		}
	}
}

func TestResolveAlertPostsToResolveRoute(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		json.NewEncoder(w).Encode(map[string]string{"message": "alert resolved"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.ResolveAlert(context.Background(), "alert-1-ph-warning"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/mvp/alert/alert-1-ph-warning/resolve" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}
