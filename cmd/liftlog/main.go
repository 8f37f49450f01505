package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/liftlog/internal/api"
	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/events"
	"github.com/claude/liftlog/internal/server"
	"github.com/claude/liftlog/internal/session"
	"github.com/claude/liftlog/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("LiftLog starting", "version", Version)

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
	log.Info("local store opened", "dir", cfg.Storage.Dir)

	client := api.NewClient(cfg.Coach.URL, cfg.Coach.APIKey)
	bus := events.NewBus(log)
	cache := session.NewCache(client, customerID, log)
	arbiter := session.NewArbiter(db, cache, bus, customerID, cfg.Session.SuppressionWindow(), log)

	// Re-arm a suppression window that survived a restart before anything
	// reads the cache.
	arbiter.Restore()

	reconciler := session.NewReconciler(client, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl := session.NewController(ctx, db, cache, arbiter, reconciler, client, bus, customerID, log)

	go cache.AutoRefresh(ctx, cfg.Session.RefreshInterval())

	srv := server.New(ctrl, cache, bus, log)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("listen failed", "addr", addr, "error", err)
		os.Exit(1)
	}
	log.Info("server starting", "addr", addr)

	httpSrv := &http.Server{Handler: srv}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}
