package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/firewatch/internal/adapters/nats"
	"github.com/samirrijal/firewatch/internal/bootstrap"
	"github.com/samirrijal/firewatch/internal/core/ports"
	"github.com/samirrijal/firewatch/internal/pkg/config"
	"github.com/samirrijal/firewatch/internal/pkg/logging"
	"github.com/samirrijal/firewatch/internal/workflows"
)

func main() {
	cfg, err := config.Load("firewatch-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("firewatch-refresher", cfg.Log.Level, cfg.Log.Format)

	// Snapshots written here are read by the API, so the store must be shared.
	if cfg.Snapshot.Store != "postgres" {
		log.Fatalf("refresher requires snapshot.store postgres, got %q", cfg.Snapshot.Store)
	}
	if cfg.Snapshot.RefreshInterval <= 0 {
		log.Fatal("refresher requires a positive snapshot.refresh_interval")
	}

	ctx := context.Background()
	repo, db, err := bootstrap.Store(ctx, cfg)
	if err != nil {
		log.Fatalf("snapshot store: %v", err)
	}
	defer db.Close()

	cache, _, closeCache := bootstrap.Cache(ctx, cfg)
	defer closeCache()

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, refresh events disabled", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}
	svc := bootstrap.NewServices(cfg, repo, cache, publisher)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	// An already running schedule is reused, so restarts keep a single cron.
	run, err := c.ExecuteWorkflow(ctx,
		workflows.StartOptions(cfg.Temporal.TaskQueue, cfg.Snapshot.RefreshInterval),
		workflows.RefreshSnapshotsWorkflow, workflows.RefreshInput{})
	if err != nil {
		log.Fatalf("schedule refresh: %v", err)
	}
	slog.Info("refresh scheduled", "workflow_id", run.GetID(), "run_id", run.GetRunID(), "interval", cfg.Snapshot.RefreshInterval)

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RefreshSnapshotsWorkflow)
	w.RegisterActivity(&workflows.RefreshActivities{
		Snapshots:   svc.Snapshots,
		Deployments: svc.Deployments,
	})

	slog.Info("refresher worker started", "queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
