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

	"github.com/samirrijal/zimroute/internal/adapters/gemini"
	"github.com/samirrijal/zimroute/internal/adapters/googlemaps"
	httpadapter "github.com/samirrijal/zimroute/internal/adapters/http"
	"github.com/samirrijal/zimroute/internal/adapters/memory"
	natsadapter "github.com/samirrijal/zimroute/internal/adapters/nats"
	"github.com/samirrijal/zimroute/internal/adapters/openweather"
	"github.com/samirrijal/zimroute/internal/adapters/postgres"
	"github.com/samirrijal/zimroute/internal/adapters/valkey"
	"github.com/samirrijal/zimroute/internal/core/domain"
	"github.com/samirrijal/zimroute/internal/core/ports"
	"github.com/samirrijal/zimroute/internal/core/usecases"
	"github.com/samirrijal/zimroute/internal/pkg/config"
	"github.com/samirrijal/zimroute/internal/pkg/geospatial"
	"github.com/samirrijal/zimroute/internal/pkg/httpclient"
	"github.com/samirrijal/zimroute/internal/pkg/logging"
	"github.com/samirrijal/zimroute/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("zimroute-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("zimroute-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	db, err := postgres.New(ctx, cfg.Database.DSN(), dbPoolOptions(cfg.Database))
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	deps := &httpadapter.Dependencies{
		Auth:      httpadapter.AuthConfig{Secret: cfg.Auth.JWTSecret, Issuer: cfg.Auth.Issuer},
		Anonymize: cfg.Privacy.Enabled,
		Debug:     cfg.Server.Debug,
		SpecPath:  httpadapter.DefaultSpecPath,
		DB:        db,
	}

	// Cache and rate-limit counters
	var (
		cache    ports.CacheService
		counters ports.CounterStore
	)
	if cfg.Valkey.Addr != "" {
		vc, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable, using in-process counters", "error", err)
		} else {
			defer vc.Close()
			cache = vc
			counters = vc.Counters()
			deps.Cache = vc
		}
	}
	if counters == nil {
		mem := memory.NewCounterStore()
		if err := mem.StartSweeper("@every 1m"); err != nil {
			log.Fatalf("counter sweeper: %v", err)
		}
		defer mem.Stop()
		counters = mem
	}

	// NATS
	var publisher ports.EventPublisher
	pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
		deps.NATS = pub
		deps.Feed = natsadapter.NewTrafficFeed(pub.Conn())
	}

	providers := cfg.Providers
	maps := googlemaps.New(googlemaps.Config{
		APIKey:    providers.GoogleMaps.APIKey,
		BaseURL:   providers.GoogleMaps.BaseURL,
		HTTP:      httpOptions(providers.GoogleMaps),
		Anonymize: geospatial.NewAnonymizer(cfg.Privacy.MaxOffset).Anonymize,
		Cache:     cache,
	})
	generator := gemini.New(gemini.Config{
		APIKey:  providers.Gemini.APIKey,
		BaseURL: providers.Gemini.BaseURL,
		Model:   providers.Gemini.Model,
		HTTP:    httpOptions(providers.Gemini.ProviderConfig),
	})
	weather := openweather.New(openweather.Config{
		APIKey:  providers.OpenWeather.APIKey,
		BaseURL: providers.OpenWeather.BaseURL,
		HTTP:    httpOptions(providers.OpenWeather),
	})
	if providers.GoogleMaps.APIKey == "" {
		slog.Warn("google maps api key not configured, route lookups will return no results")
	}

	routeRepo := postgres.NewRouteRepo(db)

	insightSvc := usecases.NewInsightService(generator, domain.LocaleContext{
		Region:      cfg.Insight.Region,
		City:        cfg.Insight.City,
		Location:    cfg.Insight.Location(),
		TransitTerm: cfg.Insight.TransitTerm,
	})
	limiter, err := usecases.NewRateLimiter(counters, usecases.RateLimiterConfig{
		LocalCIDRs:  cfg.RateLimit.LocalCIDRs,
		LocalLimit:  cfg.RateLimit.LocalLimit,
		GlobalLimit: cfg.RateLimit.GlobalLimit,
		Window:      cfg.RateLimit.Window(),
	})
	if err != nil {
		log.Fatalf("rate limiter: %v", err)
	}

	deps.Routes = usecases.NewRouteService(maps, maps, insightSvc, routeRepo, publisher)
	deps.Insights = insightSvc
	deps.Weather = usecases.NewWeatherService(weather, cache)
	deps.Traffic = usecases.NewTrafficRefreshService(routeRepo, maps, cache, publisher).
		WithDefaultAnonymize(cfg.Privacy.Enabled)
	deps.Limiter = limiter

	app := httpadapter.NewApp(deps)
	app.Server().ReadTimeout = time.Duration(cfg.Server.ReadTimeout) * time.Second
	app.Server().WriteTimeout = time.Duration(cfg.Server.WriteTimeout) * time.Second

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", httpadapter.Version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func httpOptions(p config.ProviderConfig) httpclient.Options {
	return httpclient.Options{
		Timeout:       p.Timeout(),
		RatePerSecond: p.RatePerSecond,
		Burst:         p.Burst,
	}
}

func dbPoolOptions(d config.DatabaseConfig) postgres.PoolOptions {
	return postgres.PoolOptions{
		MaxConns:        d.MaxConns,
		MinConns:        d.MinConns,
		MaxConnLifetime: d.ConnLifetime(),
	}
}
