package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted for cache.backend and budget.backend.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all mealcover configuration.
type Config struct {
	Listen     string           `yaml:"listen"`
	DBPath     string           `yaml:"db_path"`
	Log        LogConfig        `yaml:"log"`
	Generation GenerationConfig `yaml:"generation"`
	Budget     BudgetConfig     `yaml:"budget"`
	Cache      CacheConfig      `yaml:"cache"`
	Redis      RedisConfig      `yaml:"redis"`
	Storage    StorageConfig    `yaml:"storage"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Audit      AuditConfig      `yaml:"audit"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string   `yaml:"level"`
	Format      string   `yaml:"format"` // "json" or "console"
	OutputPaths []string `yaml:"output_paths"`
}

// GenerationConfig defines the external image-generation endpoint.
type GenerationConfig struct {
	Endpoint    string        `yaml:"endpoint"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	AspectRatio string        `yaml:"aspect_ratio"`
	Timeout     time.Duration `yaml:"timeout"`
}

// BudgetConfig defines the global spend cap.
type BudgetConfig struct {
	Backend  string  `yaml:"backend"`
	Cap      float64 `yaml:"cap"`
	UnitCost float64 `yaml:"unit_cost"`
}

// CacheConfig selects the artifact cache backend.
type CacheConfig struct {
	Backend string `yaml:"backend"`
}

// RedisConfig is shared by the Redis cache and ledger backends.
type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// StorageConfig defines where artifacts are written and how they are addressed.
type StorageConfig struct {
	PublicBase string        `yaml:"public_base"`
	Bucket     string        `yaml:"bucket"`
	Prefix     string        `yaml:"prefix"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PipelineConfig controls request-level behavior.
type PipelineConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
	RejectEmptyKey bool          `yaml:"reject_empty_key"`
}

// AuditConfig controls the audit log.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
	StoreSubject  bool   `yaml:"store_subject"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen: ":8080",
		DBPath: "mealcover.db",
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
		Generation: GenerationConfig{
			Endpoint:    "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.5-flash-image",
			AspectRatio: "16:9",
			Timeout:     60 * time.Second,
		},
		Budget: BudgetConfig{
			Backend:  BackendSQLite,
			Cap:      50,
			UnitCost: 0.039,
		},
		Cache: CacheConfig{
			Backend: BackendSQLite,
		},
		Redis: RedisConfig{
			Addr:      "localhost:6379",
			KeyPrefix: "mealcover",
		},
		Storage: StorageConfig{
			PublicBase: "http://localhost:8080/objects",
			Bucket:     "meal-covers",
			Prefix:     "event-covers",
			Timeout:    15 * time.Second,
		},
		Pipeline: PipelineConfig{
			RequestTimeout: 90 * time.Second,
		},
		Audit: AuditConfig{
			DBPath:        "mealcover-audit.db",
			RetentionDays: 90,
		},
		Tracing: TracingConfig{
			ServiceName: "mealcover",
		},
	}
}

// Load reads a YAML config file, expands environment variables, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Budget.UnitCost <= 0 {
		return fmt.Errorf("invalid config: budget.unit_cost must be positive")
	}
	if c.Budget.Cap < 0 {
		return fmt.Errorf("invalid config: budget.cap must not be negative")
	}
	if !knownBackend(c.Budget.Backend) {
		return fmt.Errorf("invalid config: unknown budget.backend %q", c.Budget.Backend)
	}
	if !knownBackend(c.Cache.Backend) {
		return fmt.Errorf("invalid config: unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Generation.Timeout <= 0 || c.Storage.Timeout <= 0 {
		return fmt.Errorf("invalid config: generation.timeout and storage.timeout must be positive")
	}
	// A request deadline at or below the sum could cut an upload off mid-write.
	if c.Pipeline.RequestTimeout <= c.Generation.Timeout+c.Storage.Timeout {
		return fmt.Errorf("invalid config: pipeline.request_timeout (%s) must exceed generation.timeout + storage.timeout (%s)",
			c.Pipeline.RequestTimeout, c.Generation.Timeout+c.Storage.Timeout)
	}
	if strings.TrimSpace(c.Storage.Bucket) == "" {
		return fmt.Errorf("invalid config: storage.bucket is required")
	}
	return nil
}

func knownBackend(name string) bool {
	return name == BackendSQLite || name == BackendRedis
}
