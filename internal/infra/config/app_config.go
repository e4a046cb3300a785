// Package config manages application configuration loading and validation.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lumera/portal/internal/remote"
)

// APIServerConfig configures the portal's HTTP surface.
type APIServerConfig struct {
	Addr string `yaml:"addr"`
}

// TelemetryConfig configures OTLP exporters (metrics only).
type TelemetryConfig struct {
	OTLPEndpoint  string `yaml:"otlpEndpoint"`
	ServiceName   string `yaml:"serviceName"`
	OTLPInsecure  bool   `yaml:"otlpInsecure"`
	EnableMetrics bool   `yaml:"enableMetrics"`
}

// CacheConfig selects and locates the local key-value cache.
type CacheConfig struct {
	Backend CacheBackend `yaml:"backend"`
	Path    string       `yaml:"path"`
}

func (c *CacheConfig) applyDefaults() {
	if strings.TrimSpace(string(c.Backend)) == "" {
		c.Backend = CacheMemory
	}
	if c.Backend == CacheSQLite && strings.TrimSpace(c.Path) == "" {
		c.Path = "portal-cache.db"
	}
}

func (c CacheConfig) validate() error {
	switch c.Backend {
	case CacheMemory:
		return nil
	case CacheSQLite:
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("path required for sqlite backend")
		}
		return nil
	default:
		return fmt.Errorf("backend must be one of memory, sqlite")
	}
}

// DatabaseConfig controls PostgreSQL connectivity and migration behaviour
// for the visitor-session log.
type DatabaseConfig struct {
	DSN               string        `yaml:"dsn"`
	MaxConns          int32         `yaml:"maxConns"`
	MinConns          int32         `yaml:"minConns"`
	MaxConnLifetime   time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime   time.Duration `yaml:"maxConnIdleTime"`
	HealthCheckPeriod time.Duration `yaml:"healthCheckPeriod"`
	RunMigrations     bool          `yaml:"runMigrations"`
}

func (c *DatabaseConfig) applyDefaults() {
	c.DSN = strings.TrimSpace(c.DSN)
	if c.DSN == "" {
		c.DSN = "postgresql://localhost:5432/lumera"
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 8
	}
	if c.MinConns <= 0 {
		c.MinConns = 1
	}
	if c.MinConns > c.MaxConns {
		c.MinConns = c.MaxConns
	}
	if c.MaxConnLifetime <= 0 {
		c.MaxConnLifetime = 30 * time.Minute
	}
	if c.MaxConnIdleTime <= 0 {
		c.MaxConnIdleTime = 5 * time.Minute
	}
	if c.HealthCheckPeriod <= 0 {
		c.HealthCheckPeriod = 30 * time.Second
	}
}

func (c DatabaseConfig) validate() error {
	if strings.TrimSpace(c.DSN) == "" {
		return fmt.Errorf("dsn required")
	}
	if c.MaxConns <= 0 {
		return fmt.Errorf("maxConns must be >0")
	}
	if c.MinConns < 0 {
		return fmt.Errorf("minConns must be >=0")
	}
	if c.MinConns > c.MaxConns {
		return fmt.Errorf("minConns must be <= maxConns")
	}
	return nil
}

// IngestConfig throttles visitor-session ingestion.
type IngestConfig struct {
	RatePerSecond float64 `yaml:"ratePerSecond"`
	Burst         int     `yaml:"burst"`
}

func (c *IngestConfig) applyDefaults() {
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 50
	}
	if c.Burst <= 0 {
		c.Burst = 100
	}
}

// ReconcileConfig schedules periodic wishlist reconciliation passes.
type ReconcileConfig struct {
	Interval time.Duration `yaml:"interval"`
}

func (c *ReconcileConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 5 * time.Minute
	}
}

// AppConfig is the unified portal application configuration sourced from YAML.
type AppConfig struct {
	Environment Environment     `yaml:"environment"`
	APIServer   APIServerConfig `yaml:"apiServer"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	Cache       CacheConfig     `yaml:"cache"`
	Database    DatabaseConfig  `yaml:"database"`
	Remote      remote.Config   `yaml:"remote"`
	Ingest      IngestConfig    `yaml:"ingest"`
	Reconcile   ReconcileConfig `yaml:"reconcile"`
}

// Load reads and validates an AppConfig from the provided YAML file.
func Load(ctx context.Context, configPath string) (AppConfig, error) {
	_ = ctx

	reader, closer, err := openConfigFile(configPath)
	if err != nil {
		return AppConfig{}, err
	}
	defer closer()

	bytes, err := io.ReadAll(reader)
	if err != nil {
		return AppConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(bytes, &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.normalise()

	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c *AppConfig) normalise() {
	c.Environment = Environment(strings.ToLower(strings.TrimSpace(string(c.Environment))))
	c.APIServer.Addr = strings.TrimSpace(c.APIServer.Addr)
	c.Telemetry.OTLPEndpoint = strings.TrimSpace(c.Telemetry.OTLPEndpoint)
	c.Telemetry.ServiceName = strings.TrimSpace(c.Telemetry.ServiceName)
	c.Remote.WishlistURL = strings.TrimSpace(c.Remote.WishlistURL)
	c.Remote.ConfigsURL = strings.TrimSpace(c.Remote.ConfigsURL)
	c.Remote.VisitorsURL = strings.TrimSpace(c.Remote.VisitorsURL)
	c.Remote.CatalogURL = strings.TrimSpace(c.Remote.CatalogURL)

	c.Cache.applyDefaults()
	c.Database.applyDefaults()
	c.Ingest.applyDefaults()
	c.Reconcile.applyDefaults()
}

// Validate performs semantic validation on the configuration.
func (c AppConfig) Validate() error {
	switch c.Environment {
	case EnvDev, EnvStaging, EnvProd:
	default:
		return fmt.Errorf("environment must be one of dev, staging, prod")
	}

	if strings.TrimSpace(c.APIServer.Addr) == "" {
		return fmt.Errorf("apiServer addr required")
	}
	if strings.TrimSpace(c.Telemetry.ServiceName) == "" {
		return fmt.Errorf("telemetry serviceName required")
	}

	if err := c.Cache.validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	for _, endpoint := range []struct {
		name  string
		value string
	}{
		{"wishlist_url", c.Remote.WishlistURL},
		{"configs_url", c.Remote.ConfigsURL},
		{"visitors_url", c.Remote.VisitorsURL},
		{"catalog_url", c.Remote.CatalogURL},
	} {
		if endpoint.value == "" {
			return fmt.Errorf("remote %s required", endpoint.name)
		}
	}

	if err := c.Runtime().Validate(); err != nil {
		return err
	}

	return nil
}

// Runtime extracts the runtime-tunable sections of the configuration.
func (c AppConfig) Runtime() RuntimeConfig {
	return RuntimeConfig{Ingest: c.Ingest, Reconcile: c.Reconcile}
}

func openConfigFile(path string) (io.Reader, func(), error) {
	candidate := strings.TrimSpace(path)
	candidate = filepath.Clean(candidate)

	file, err := os.Open(candidate) // #nosec G304 -- path is operator controlled.
	if err != nil {
		return nil, nil, fmt.Errorf("open app config: %w", err)
	}
	return file, func() { _ = file.Close() }, nil
}
