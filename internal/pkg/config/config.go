package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Valkey    ValkeyConfig    `mapstructure:"valkey"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Temporal  TemporalConfig  `mapstructure:"temporal"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Privacy   PrivacyConfig   `mapstructure:"privacy"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Insight   InsightConfig   `mapstructure:"insight"`
	Providers ProvidersConfig `mapstructure:"providers"`
}

type ServerConfig struct {
	Port         int  `mapstructure:"port"`
	ReadTimeout  int  `mapstructure:"read_timeout"`
	WriteTimeout int  `mapstructure:"write_timeout"`
	Debug        bool `mapstructure:"debug"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	// Pool sizing.
	MaxConns           int `mapstructure:"max_conns"`
	MinConns           int `mapstructure:"min_conns"`
	MaxConnLifetimeMin int `mapstructure:"max_conn_lifetime_minutes"`
}

// ConnLifetime is the maximum age of a pooled connection.
func (d DatabaseConfig) ConnLifetime() time.Duration {
	return time.Duration(d.MaxConnLifetimeMin) * time.Minute
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// ValkeyConfig configures the cache and the shared rate-limit counters.
// An empty Addr makes the API fall back to in-process counters.
type ValkeyConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	ServiceName string `mapstructure:"service_name"`
	TempoAddr   string `mapstructure:"tempo_addr"`
	Enabled     bool   `mapstructure:"enabled"`
}

type TemporalConfig struct {
	HostPort     string `mapstructure:"host_port"`
	TaskQueue    string `mapstructure:"task_queue"`
	RefreshCron  string `mapstructure:"refresh_cron"`
	RefreshLimit int    `mapstructure:"refresh_limit"`
}

// RateLimitConfig configures the IP-tiered limiter.
type RateLimitConfig struct {
	LocalCIDRs    []string `mapstructure:"local_cidrs"`
	LocalLimit    int64    `mapstructure:"local_limit"`
	GlobalLimit   int64    `mapstructure:"global_limit"`
	WindowSeconds int      `mapstructure:"window_seconds"`
}

func (r RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

type PrivacyConfig struct {
	Enabled   bool    `mapstructure:"enabled"`
	MaxOffset float64 `mapstructure:"max_offset"`
}

// AuthConfig configures bearer token verification. An empty JWTSecret
// disables verification and every caller is the development user.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type InsightConfig struct {
	Region      string `mapstructure:"region"`
	City        string `mapstructure:"city"`
	Timezone    string `mapstructure:"timezone"`
	TransitTerm string `mapstructure:"transit_term"`
}

// Location loads the configured time zone, falling back to UTC.
func (i InsightConfig) Location() *time.Location {
	loc, err := time.LoadLocation(i.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type ProvidersConfig struct {
	GoogleMaps  ProviderConfig `mapstructure:"google_maps"`
	Gemini      GeminiConfig   `mapstructure:"gemini"`
	OpenWeather ProviderConfig `mapstructure:"openweather"`
}

// ProviderConfig is shared by every outbound HTTP provider.
type ProviderConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	BaseURL        string  `mapstructure:"base_url"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds"`
	RatePerSecond  float64 `mapstructure:"rate_per_second"`
	Burst          int     `mapstructure:"burst"`
}

func (p ProviderConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

type GeminiConfig struct {
	ProviderConfig `mapstructure:",squash"`
	Model          string `mapstructure:"model"`
}

// Load reads configuration from .env, an optional config file and environment variables.
func Load(service string) (*Config, error) {
	_ = godotenv.Load() // OK if missing

	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 35)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "zimroute")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "zimroute")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime_minutes", 30)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("valkey.addr", "localhost:6379")
	v.SetDefault("telemetry.service_name", service)
	v.SetDefault("telemetry.tempo_addr", "tempo:4317")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("temporal.host_port", "localhost:7233")
	v.SetDefault("temporal.task_queue", "traffic-refresh-queue")
	v.SetDefault("temporal.refresh_cron", "*/5 * * * *")
	v.SetDefault("temporal.refresh_limit", 50)
	v.SetDefault("ratelimit.local_cidrs", []string{"154.72.0.0/16", "197.211.0.0/16", "105.112.0.0/12"})
	v.SetDefault("ratelimit.local_limit", 50)
	v.SetDefault("ratelimit.global_limit", 100)
	v.SetDefault("ratelimit.window_seconds", 60)
	v.SetDefault("privacy.enabled", false)
	v.SetDefault("privacy.max_offset", 0.001)
	v.SetDefault("insight.region", "Zimbabwe")
	v.SetDefault("insight.city", "Harare")
	v.SetDefault("insight.timezone", "Africa/Harare")
	v.SetDefault("insight.transit_term", "Kombi")
	v.SetDefault("providers.google_maps.base_url", "https://maps.googleapis.com")
	v.SetDefault("providers.gemini.base_url", "https://generativelanguage.googleapis.com")
	v.SetDefault("providers.gemini.model", "gemini-1.5-flash")
	v.SetDefault("providers.openweather.base_url", "https://api.openweathermap.org")
	for _, p := range []string{"google_maps", "gemini", "openweather"} {
		v.SetDefault("providers."+p+".api_key", "")
		v.SetDefault("providers."+p+".timeout_seconds", 10)
		v.SetDefault("providers."+p+".rate_per_second", 10)
		v.SetDefault("providers."+p+".burst", 5)
	}
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "")

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig() // OK if missing

	// Environment variables: ZIMROUTE_DATABASE_HOST → database.host
	v.SetEnvPrefix("ZIMROUTE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy key names used by existing deployments.
	_ = v.BindEnv("providers.google_maps.api_key", "ZIMROUTE_PROVIDERS_GOOGLE_MAPS_API_KEY", "MAPS_API_KEY")
	_ = v.BindEnv("providers.gemini.api_key", "ZIMROUTE_PROVIDERS_GEMINI_API_KEY", "GEMINI_API_KEY")
	_ = v.BindEnv("providers.openweather.api_key", "ZIMROUTE_PROVIDERS_OPENWEATHER_API_KEY", "OPENWEATHER_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
// Provider API keys are not required here; a missing key degrades the
// corresponding feature at request time.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Database.Host == "" {
		errs = append(errs, "database.host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", c.Database.Port))
	}
	if c.Database.User == "" {
		errs = append(errs, "database.user is required")
	}
	if c.Database.DBName == "" {
		errs = append(errs, "database.dbname is required")
	}
	if c.Database.MaxConns <= 0 {
		errs = append(errs, "database.max_conns must be positive")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		errs = append(errs, fmt.Sprintf("database.min_conns must be 0-%d, got %d", c.Database.MaxConns, c.Database.MinConns))
	}
	if c.NATS.URL == "" {
		errs = append(errs, "nats.url is required")
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, "server.read_timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, "server.write_timeout must be positive")
	}
	for _, cidr := range c.RateLimit.LocalCIDRs {
		if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
			errs = append(errs, fmt.Sprintf("ratelimit.local_cidrs: invalid CIDR %q", cidr))
		}
	}
	if c.RateLimit.LocalLimit <= 0 || c.RateLimit.GlobalLimit <= 0 {
		errs = append(errs, "ratelimit limits must be positive")
	}
	if c.RateLimit.WindowSeconds <= 0 {
		errs = append(errs, "ratelimit.window_seconds must be positive")
	}
	if c.Privacy.MaxOffset < 0 {
		errs = append(errs, "privacy.max_offset must not be negative")
	}
	if _, err := time.LoadLocation(c.Insight.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("insight.timezone: %v", err))
	}
	providers := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"google_maps", c.Providers.GoogleMaps},
		{"gemini", c.Providers.Gemini.ProviderConfig},
		{"openweather", c.Providers.OpenWeather},
	}
	for _, p := range providers {
		if p.cfg.BaseURL == "" {
			errs = append(errs, fmt.Sprintf("providers.%s.base_url is required", p.name))
		}
		if p.cfg.TimeoutSeconds <= 0 {
			errs = append(errs, fmt.Sprintf("providers.%s.timeout_seconds must be positive", p.name))
		}
	}
	if c.Temporal.RefreshLimit <= 0 {
		errs = append(errs, "temporal.refresh_limit must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
