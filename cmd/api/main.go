package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/firewatch/internal/adapters/http"
	natsadapter "github.com/samirrijal/firewatch/internal/adapters/nats"
	"github.com/samirrijal/firewatch/internal/adapters/postgres"
	"github.com/samirrijal/firewatch/internal/bootstrap"
	"github.com/samirrijal/firewatch/internal/core/domain"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/config"
	"github.com/samirrijal/firewatch/internal/pkg/logging"
	"github.com/samirrijal/firewatch/internal/pkg/metrics"
	"github.com/samirrijal/firewatch/internal/pkg/telemetry"
)

var version = "dev"

func main() {
	cfg, err := config.Load("firewatch-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup("firewatch-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Snapshot store
	repo, db, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		log.Fatalf("snapshot store: %v", err)
	}
	var checks []http.ReadinessCheck
	if db != nil {
		defer db.Close()
		checks = append(checks, http.ReadinessCheck{Name: "database", Check: db.Ping, Required: true})
		go reportPoolStats(ctx, db)
	}

	// Cache
	cache, cachePing, closeCache := bootstrap.Cache(ctx, cfg)
	defer closeCache()
	if cachePing != nil {
		checks = append(checks, http.ReadinessCheck{Name: "cache", Check: cachePing})
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Layer caches are dropped whenever any instance refreshes a snapshot.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		err := sub.SubscribeSnapshotRefreshed(ctx, func(ctx context.Context, snap domain.Snapshot) error {
			return http.InvalidateLayer(ctx, cache, snap.Kind)
		})
		if err != nil {
			slog.Warn("snapshot subscription failed", "error", err)
		}
	}

	// Raw NATS connection for WebSocket relay
	wsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer wsConn.Close()
	}

	svc := bootstrap.NewServices(cfg, repo, cache, publisher)
	router := bootstrap.Router(cfg)

	if cfg.Snapshot.Scheduler == "inprocess" && cfg.Snapshot.RefreshInterval > 0 {
		go svc.Snapshots.Start(ctx, cfg.Snapshot.RefreshInterval)
	}

	deps := &http.Dependencies{
		Entities:    svc.Entities,
		Planner:     svc.Planner,
		Deployments: svc.Deployments,
		Snapshots:   svc.Snapshots,
		Forwarder:   router,
		Cache:       cache,
		NATS:        wsConn,
		Checks:      checks,
		Version:     version,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Firewatch API",
		ErrorHandler: http.ErrorHandler,
	})
	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "store", cfg.Snapshot.Store, "scheduler", cfg.Snapshot.Scheduler)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// reportPoolStats copies database pool gauges every 15s until ctx ends.
func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
