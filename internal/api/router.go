package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arixstoo/Junction/internal/auth"
)

// SetupRouter wires every route. The /mvp surface except the status check
// and the websocket endpoint sits behind JWT auth; /api serves the
// mock-schema envelope shape.
func SetupRouter(h *APIHandler, authMgr *auth.Manager, metricsHandler http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Post("/auth/login", h.HandleLogin)
	r.Get("/health", h.HandleHealth)
	r.Get("/mvp/services/status", h.HandleServicesStatus)
	r.Get("/mvp/ws", h.HandleWebSocket)

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/ponds", h.HandleMockPonds)
		r.Get("/ponds/{id}/history", h.HandleMockPondSeries)
		r.Get("/alerts", h.HandleMockAlerts)

		// Ingest-style mutations require an API key.
		r.Group(func(r chi.Router) {
			r.Use(authMgr.APIKeyMiddleware)
			r.Post("/ponds", h.HandleMockCreatePond)
			r.Post("/alerts", h.HandleMockCreateAlert)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authMgr.JWTMiddleware)

		r.Get("/mvp/dashboard/overview", h.HandleDashboardOverview)
		r.Route("/mvp/pond/{id}", func(r chi.Router) {
			r.Get("/latest", h.HandlePondLatest)
			r.Get("/history", h.HandlePondHistory)
			r.Get("/alerts", h.HandlePondAlerts)
			r.Get("/chart-data", h.HandlePondChartData)
			r.Get("/realtime-chart", h.HandleRealtimeChart)
		})
		r.Get("/mvp/alerts/active", h.HandleActiveAlerts)
		r.Post("/mvp/alert/{id}/resolve", h.HandleResolveAlert)
		r.Get("/mvp/system/status", h.HandleSystemStatus)

		r.Group(func(r chi.Router) {
			r.Use(authMgr.RequireRole("admin"))
			r.Post("/mvp/test/sms", h.HandleTestSMS)
		})
	})

	return r
}
