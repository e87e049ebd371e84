package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/zimroute/internal/adapters/googlemaps"
	natsadapter "github.com/samirrijal/zimroute/internal/adapters/nats"
	"github.com/samirrijal/zimroute/internal/adapters/postgres"
	"github.com/samirrijal/zimroute/internal/adapters/valkey"
	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/core/usecases"
	"github.com/samirrijal/zimroute/internal/pkg/config"
	"github.com/samirrijal/zimroute/internal/pkg/geospatial"
	"github.com/samirrijal/zimroute/internal/pkg/httpclient"
	"github.com/samirrijal/zimroute/internal/pkg/logging"
	"github.com/samirrijal/zimroute/internal/workflows"
)

func main() {
	cfg, err := config.Load("zimroute-refresher")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := logging.Setup("zimroute-refresher", logLevel, "json")

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), dbPoolOptions(cfg.Database))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, latest traffic will not be cached", "error", err)
		} else {
			defer vc.Close()
			cache = vc
		}
	}

	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable, traffic updates will not be published", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	gm := cfg.Providers.GoogleMaps
	maps := googlemaps.New(googlemaps.Config{
		APIKey:  gm.APIKey,
		BaseURL: gm.BaseURL,
		HTTP: httpclient.Options{
			Timeout:       gm.Timeout(),
			RatePerSecond: gm.RatePerSecond,
			Burst:         gm.Burst,
		},
		Anonymize: geospatial.NewAnonymizer(cfg.Privacy.MaxOffset).Anonymize,
	})

	refresher := usecases.NewTrafficRefreshService(postgres.NewRouteRepo(db), maps, cache, publisher).
		WithDefaultAnonymize(cfg.Privacy.Enabled)

	c, err := client.Dial(client.Options{
		HostPort: cfg.Temporal.HostPort,
		Logger:   logger,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.TrafficRefreshWorkflow)
	w.RegisterActivity(&workflows.TrafficActivities{Refresher: refresher})

	runID, err := workflows.EnsureRefreshSchedule(ctx, c, workflows.ScheduleOptions{
		TaskQueue: cfg.Temporal.TaskQueue,
		Cron:      cfg.Temporal.RefreshCron,
		Limit:     cfg.Temporal.RefreshLimit,
	})
	if err != nil {
		log.Fatalf("schedule: %v", err)
	}
	slog.Info("traffic refresh scheduled",
		"workflow_id", workflows.RefreshWorkflowID, "run_id", runID, "cron", cfg.Temporal.RefreshCron)

	slog.Info("refresher worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}

func dbPoolOptions(d config.DatabaseConfig) postgres.PoolOptions {
	return postgres.PoolOptions{
		MaxConns:        d.MaxConns,
		MinConns:        d.MinConns,
		MaxConnLifetime: d.ConnLifetime(),
	}
}
