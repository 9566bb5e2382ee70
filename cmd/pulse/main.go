// Command pulse runs the MoltCities marketplace analytics service: an hourly
// ingestion pipeline over the OpenWork API, a JSON read API, and an embedded
// dashboard.
package main

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "modernc.org/sqlite"

	"github.com/moltcities/pulse/dbopen"
	"github.com/moltcities/pulse/ingest"
	"github.com/moltcities/pulse/observability"
	"github.com/moltcities/pulse/shield"
)

//go:embed static
var staticFS embed.FS

func main() {
	port := env("PORT", "3000")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Config: optional YAML file, env overrides.
	cfg := &ingest.Config{}
	if path := os.Getenv("CONFIG"); path != "" {
		loaded, err := ingest.LoadConfigFile(path)
		if err != nil {
			slog.Error("load config", "path", path, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SCRAPE_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("parse SCRAPE_INTERVAL", "value", v, "error", err)
			os.Exit(1)
		}
		cfg.Scheduler.Interval = d
	}
	if cfg.DBPath == "" {
		cfg.DBPath = env("DB_PATH", "db/pulse.db")
	}

	// Analytics DB.
	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open db", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Observability DB — separate file to keep monitoring writes off the
	// analytics transaction path.
	obsPath := env("OBS_DB", "db/observability.db")
	obsDB, err := dbopen.Open(obsPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open observability db", "path", obsPath, "error", err)
		os.Exit(1)
	}
	defer obsDB.Close()
	if err := observability.Init(obsDB); err != nil {
		slog.Error("observability init", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetricsManager(obsDB, 100, 5*time.Second)
	defer metrics.Close()
	events := observability.NewEventLogger(obsDB)

	heartbeat := observability.NewHeartbeatWriter(obsDB, workerName, 15*time.Second)
	heartbeat.MirrorTo(metrics)
	heartbeat.Start(ctx)
	defer heartbeat.Stop()

	// Daily observability retention pass.
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := observability.Cleanup(ctx, obsDB, observability.RetentionConfig{
					EventLogsDays:  30,
					HeartbeatsDays: 7,
				}); err != nil {
					slog.Error("observability cleanup", "error", err)
				}
				if _, err := metrics.Cleanup(ctx, 30); err != nil {
					slog.Error("metrics cleanup", "error", err)
				}
			}
		}
	}()

	// Ingestion service.
	svc, err := ingest.New(db, cfg, logger,
		ingest.WithMetrics(metrics), ingest.WithEvents(events))
	if err != nil {
		slog.Error("ingest service", "error", err)
		os.Exit(1)
	}

	// Hourly scheduler with an immediate first cycle.
	svc.Start(ctx)

	// Router.
	r := chi.NewRouter()
	for _, mw := range shield.DefaultStack() {
		r.Use(mw)
	}
	r.Use(requestMetrics(metrics))
	registerAPI(r, svc, obsDB)
	registerStatic(r)

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// requestMetrics records one duration datapoint per request, labeled by
// method and path.
func requestMetrics(mm *observability.MetricsManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			mm.Record(&observability.Metric{
				Name:      observability.MetricHTTPRequestMs,
				Timestamp: time.Now(),
				Value:     float64(time.Since(start).Milliseconds()),
				Unit:      "milliseconds",
				Labels:    map[string]string{"method": r.Method, "path": r.URL.Path},
			})
		})
	}
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
