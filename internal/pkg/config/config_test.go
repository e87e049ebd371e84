package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/zimroute/internal/pkg/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("zimroute-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RateLimit.LocalLimit != 50 || cfg.RateLimit.GlobalLimit != 100 {
		t.Errorf("expected limits 50/100, got %d/%d", cfg.RateLimit.LocalLimit, cfg.RateLimit.GlobalLimit)
	}
	if cfg.RateLimit.Window() != 60*time.Second {
		t.Errorf("expected 60s window, got %v", cfg.RateLimit.Window())
	}
	if len(cfg.RateLimit.LocalCIDRs) != 3 {
		t.Errorf("expected 3 default CIDRs, got %v", cfg.RateLimit.LocalCIDRs)
	}
	if cfg.Providers.GoogleMaps.Timeout() != 10*time.Second {
		t.Errorf("expected 10s provider timeout, got %v", cfg.Providers.GoogleMaps.Timeout())
	}
	if cfg.Providers.Gemini.Model == "" {
		t.Error("expected a default gemini model")
	}
	if cfg.Database.MaxConns != 20 || cfg.Database.MinConns != 2 || cfg.Database.ConnLifetime() != 30*time.Minute {
		t.Errorf("unexpected pool defaults %+v", cfg.Database)
	}
	if cfg.Telemetry.ServiceName != "zimroute-test" {
		t.Errorf("expected service name zimroute-test, got %s", cfg.Telemetry.ServiceName)
	}
}

func TestLoad_LegacyKeyNames(t *testing.T) {
	t.Setenv("MAPS_API_KEY", "maps-key")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("OPENWEATHER_API_KEY", "weather-key")

	cfg, err := config.Load("zimroute-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Providers.GoogleMaps.APIKey != "maps-key" {
		t.Errorf("expected maps-key, got %q", cfg.Providers.GoogleMaps.APIKey)
	}
	if cfg.Providers.Gemini.APIKey != "gemini-key" {
		t.Errorf("expected gemini-key, got %q", cfg.Providers.Gemini.APIKey)
	}
	if cfg.Providers.OpenWeather.APIKey != "weather-key" {
		t.Errorf("expected weather-key, got %q", cfg.Providers.OpenWeather.APIKey)
	}
}

func TestLoad_PrefixedEnvOverrides(t *testing.T) {
	t.Setenv("ZIMROUTE_SERVER_PORT", "9090")
	t.Setenv("ZIMROUTE_RATELIMIT_LOCAL_LIMIT", "5")

	cfg, err := config.Load("zimroute-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.RateLimit.LocalLimit != 5 {
		t.Errorf("expected local limit 5, got %d", cfg.RateLimit.LocalLimit)
	}
}

func TestValidate_AggregatesErrors(t *testing.T) {
	cfg, err := config.Load("zimroute-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Server.Port = 0
	cfg.RateLimit.LocalCIDRs = []string{"not-a-cidr"}
	cfg.Insight.Timezone = "Mars/Olympus"

	err = cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "not-a-cidr", "insight.timezone"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %v", want, err)
		}
	}
}
