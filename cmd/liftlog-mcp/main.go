package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/claude/liftlog/internal/api"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/events"
	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// liftlog-mcp serves the read-only session tools over stdio for assistant
// clients. It opens the same local store and coach client as the daemon but
// never mutates either.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	// Stdout is the MCP transport; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	customerID, err := cfg.Coach.CustomerUUID()
	if err != nil {
		log.Error("invalid customer id", "error", err)
		os.Exit(1)
	}

	db, err := storage.Open(cfg.Storage.Dir, log)
	if err != nil {
		log.Error("failed to open local store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	client := api.NewClient(cfg.Coach.URL, cfg.Coach.APIKey)
	bus := events.NewBus(log)
	cache := session.NewCache(client, customerID, log)
	arbiter := session.NewArbiter(db, cache, bus, customerID, cfg.Session.SuppressionWindow(), log)
	arbiter.Restore()
	reconciler := session.NewReconciler(client, log)
	ctrl := session.NewController(context.Background(), db, cache, arbiter, reconciler, client, bus, customerID, log)

	srv := mcp.New(ctrl, Version, log)
	if err := mcpserver.ServeStdio(srv); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
