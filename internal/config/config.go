package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"lendhub/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Sync       SyncConfig       `yaml:"sync"`
	Redis      RedisConfig      `yaml:"redis"`
	API        APIConfig        `yaml:"api"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type GatewayConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

// SyncConfig tunes the refresh orchestrator. TimeoutSeconds is the
// global budget for one fetch batch; high-latency deployments raise it.
type SyncConfig struct {
	TimeoutSeconds        int            `yaml:"timeout_seconds"`
	MaxRetries            int            `yaml:"max_retries"`
	InitialBackoffSeconds int            `yaml:"initial_backoff_seconds"`
	MaxBackoffSeconds     int            `yaml:"max_backoff_seconds"`
	BackoffFactor         float64        `yaml:"backoff_factor"`
	DebounceSeconds       int            `yaml:"debounce_seconds"`
	TTLOverridesMinutes   map[string]int `yaml:"ttl_overrides_minutes"`
}

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
	Channel  string `yaml:"channel"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	Port      int                `yaml:"port"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key  string `yaml:"key"`
	Name string `yaml:"name"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads the YAML config, expanding ${ENV} references after an
// optional .env file is applied.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expanded := []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Gateway.SQLitePath == "" {
		return errors.New("gateway sqlite path is required")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		return errors.New("redis address is required when redis is enabled")
	}
	if c.API.Enabled && c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys are configured")
	}
	for et := range c.Sync.TTLOverridesMinutes {
		if !models.EntityType(et).Valid() {
			return fmt.Errorf("unknown entity type in ttl_overrides_minutes: %q", et)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "lendhub"
	}
	if c.Sync.TimeoutSeconds == 0 {
		c.Sync.TimeoutSeconds = 15
	}
	if c.Sync.MaxRetries == 0 {
		c.Sync.MaxRetries = 3
	}
	if c.Sync.InitialBackoffSeconds == 0 {
		c.Sync.InitialBackoffSeconds = 1
	}
	if c.Sync.MaxBackoffSeconds == 0 {
		c.Sync.MaxBackoffSeconds = 30
	}
	if c.Sync.BackoffFactor == 0 {
		c.Sync.BackoffFactor = 2
	}
	if c.Sync.DebounceSeconds == 0 {
		c.Sync.DebounceSeconds = 5
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "lendhub:changed"
	}
	if c.API.Enabled && c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = 10
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = 20
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}

// SyncTimeout returns the global fetch batch budget.
func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.Sync.TimeoutSeconds) * time.Second
}

// TTLs returns the cache TTL policy with config overrides applied.
func (c *Config) TTLs(defaults map[models.EntityType]time.Duration) map[models.EntityType]time.Duration {
	ttls := make(map[models.EntityType]time.Duration, len(defaults))
	for t, d := range defaults {
		ttls[t] = d
	}
	for et, minutes := range c.Sync.TTLOverridesMinutes {
		ttls[models.EntityType(et)] = time.Duration(minutes) * time.Minute
	}
	return ttls
}
