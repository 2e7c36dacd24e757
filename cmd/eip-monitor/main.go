package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rh-john/ocp-eip-monitoring/internal/aggregate"
	"github.com/rh-john/ocp-eip-monitoring/internal/alerts"
	"github.com/rh-john/ocp-eip-monitoring/internal/api"
	"github.com/rh-john/ocp-eip-monitoring/internal/cluster"
	"github.com/rh-john/ocp-eip-monitoring/internal/collector"
	"github.com/rh-john/ocp-eip-monitoring/internal/config"
	"github.com/rh-john/ocp-eip-monitoring/internal/registry"
	"github.com/rh-john/ocp-eip-monitoring/internal/scheduler"
	"github.com/rh-john/ocp-eip-monitoring/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional; defaults + env vars apply without one)")
	flag.Parse()

	level := new(slog.LevelVar)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	slog.Info("eip-monitor starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	level.Set(cfg.Monitor.Level())

	slog.Info("config loaded",
		"scrape_interval", cfg.Monitor.ScrapeInterval,
		"http_port", cfg.Monitor.HTTPPort,
		"node_capacity", cfg.Monitor.NodeCapacity,
		"node_selector", cfg.Monitor.NodeSelector,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Metrics registry holds the published bundle and the Prometheus exposition.
	reg := registry.New()

	// Cluster queries go through the oc CLI, each bounded by the source timeout.
	source := cluster.NewExecSource(cfg.Monitor.OCPath, cfg.Monitor.NodeSelector, cfg.Monitor.SourceTimeout)
	coll := collector.New(source, reg.APICalls, cfg.Monitor.NodeCacheTTL)

	engine := aggregate.New(cfg.Monitor.NodeCapacity)

	// Alerts engine evaluates rules against each published bundle.
	alertEngine := alerts.New(cfg.Alerts)

	sched := scheduler.New(coll, engine, reg, alertEngine, cfg.Monitor.ScrapeInterval)
	go sched.Run(ctx)

	// WebSocket hub broadcasts the current summary to UI clients every 5 seconds.
	hub := ws.New(reg, 5*time.Second)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws/stream", hub)
	mux.Handle("/", api.New(reg, alertEngine))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Monitor.HTTPPort),
		Handler: mux,
	}
	go func() {
		slog.Info("HTTP server listening", "port", cfg.Monitor.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	// Hot-reload: only the log level is applied live; other settings need a restart.
	if *configPath != "" {
		go func() {
			err := config.Watch(ctx, *configPath, func(next *config.Config) {
				level.Set(next.Monitor.Level())
				slog.Info("config reloaded", "log_level", next.Monitor.LogLevel)
			})
			if err != nil {
				slog.Warn("config watch disabled", "err", err)
			}
		}()
	}

	<-ctx.Done()
	slog.Info("eip-monitor shutting down")
	srv.Shutdown(context.Background()) //nolint:errcheck
}
