// cmd/pondwatch/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/arixstoo/Junction/internal/alerting"
	"github.com/arixstoo/Junction/internal/api"
	"github.com/arixstoo/Junction/internal/auth"
	"github.com/arixstoo/Junction/internal/config"
	"github.com/arixstoo/Junction/internal/feed"
	"github.com/arixstoo/Junction/internal/hub"
	"github.com/arixstoo/Junction/internal/metrics"
	"github.com/arixstoo/Junction/internal/mockdata"
)

func main() {
	// --- Configuration ---
	configPath := flag.String("config", ".", "Path to the configuration file directory")
	flag.Parse()

	if err := config.LoadConfig(*configPath); err != nil {
		log.Printf("Error loading config, continuing with defaults: %v", err)
	}
	cfg := &config.AppConfig

	// --- Initialize Components ---
	svc := mockdata.NewService(
		mockdata.NewSource(cfg.Mock.CSVSource),
		mockdata.WithCacheTimeout(cfg.Mock.CacheTimeout),
	)
	wsHub := hub.NewHub()
	authMgr := auth.NewManager(cfg.Auth)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		m.RegisterConnectionGauge(func() float64 {
			return float64(wsHub.Connections())
		})
	}

	alerterOpts := []alerting.Option{
		alerting.WithRecipient(cfg.Notifications.Recipient, cfg.Notifications.Language),
	}
	if m != nil {
		alerterOpts = append(alerterOpts, alerting.WithMetrics(m))
	}
	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL, nats.Timeout(5*time.Second))
		if err != nil {
			log.Printf("NATS unavailable, alerts will not be published: %v", err)
		} else {
			defer nc.Close()
			alerterOpts = append(alerterOpts, alerting.WithNATS(nc, cfg.NATS.Subject))
		}
	}
	alerter := alerting.NewAlerter(wsHub, alerterOpts...)

	apiHandler := api.NewAPIHandler(svc, wsHub, alerter, authMgr, m)

	// --- Start WebSocket Hub ---
	go wsHub.Run()

	// --- Start Data Feed ---
	feedCtx, stopFeed := context.WithCancel(context.Background())
	defer stopFeed()
	if cfg.Feed.Enabled {
		replayer := feed.NewReplayer(svc, wsHub, alerter, m, cfg.Feed.Interval)
		go replayer.Run(feedCtx)
	}

	// --- Setup HTTP Server ---
	var metricsHandler http.Handler
	if m != nil {
		metricsHandler = m.Handler()
	}
	router := api.SetupRouter(apiHandler, authMgr, metricsHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting PondWatch server on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server ListenAndServe error: %v", err)
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopFeed()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server gracefully stopped.")
}
