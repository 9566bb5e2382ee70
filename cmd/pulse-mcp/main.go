// Command pulse-mcp exposes the marketplace analytics tools over MCP stdio.
//
// It shares the database with the pulse server but runs no HTTP listener
// and no scheduler: cycles happen only when a client calls pulse_scrape.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/moltcities/pulse/dbopen"
	"github.com/moltcities/pulse/ingest"
	"github.com/moltcities/pulse/kit"
)

func main() {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	// Stdout carries the MCP framing; logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = kit.WithTransport(ctx, "mcp_stdio")

	cfg := &ingest.Config{}
	if path := os.Getenv("CONFIG"); path != "" {
		var err error
		cfg, err = ingest.LoadConfigFile(path)
		if err != nil {
			slog.Error("load config", "path", path, "error", err)
			os.Exit(1)
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "db/pulse.db"
	}

	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	svc, err := ingest.New(db, cfg, logger)
	if err != nil {
		slog.Error("ingest service", "error", err)
		os.Exit(1)
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "pulse",
		Version: "1.0.0",
	}, nil)
	svc.RegisterMCP(srv)

	slog.Info("pulse MCP starting", "transport", "stdio", "db", cfg.DBPath)
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		slog.Error("MCP server", "error", err)
		os.Exit(1)
	}
}
