package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL             string        `yaml:"url"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	RunMigrations   bool          `yaml:"run_migrations"`
}

// RedisConfig holds remote cache tier settings. An empty URL disables the
// remote tier and the cache runs on the local tier only.
type RedisConfig struct {
	URL        string `yaml:"url"`
	Password   string `yaml:"password"`
	DB         int    `yaml:"db"`
	MaxRetries int    `yaml:"max_retries"`
	PoolSize   int    `yaml:"pool_size"`
}

// CacheConfig holds TieredCache settings
type CacheConfig struct {
	Enabled       bool   `yaml:"enabled"`
	LocalMaxKeys  int    `yaml:"local_max_keys"`
	SweepSchedule string `yaml:"sweep_schedule"`
	KeyPrefix     string `yaml:"key_prefix"`

	ListTTL     time.Duration `yaml:"list_ttl"`
	StatsTTL    time.Duration `yaml:"stats_ttl"`
	DetailTTL   time.Duration `yaml:"detail_ttl"`
	ActivityTTL time.Duration `yaml:"activity_ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`

	OTelEnabled        bool   `yaml:"otel_enabled"`
	OTelEndpoint       string `yaml:"otel_endpoint"`
	OTelServiceName    string `yaml:"otel_service_name"`
	OTelServiceVersion string `yaml:"otel_service_version"`
	OTelInsecure       bool   `yaml:"otel_insecure"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    20,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
			RunMigrations:   true,
		},
		Redis: RedisConfig{
			DB: 0,
		},
		Cache: CacheConfig{
			Enabled:       true,
			LocalMaxKeys:  10000,
			SweepSchedule: "@every 1m",
			KeyPrefix:     "",
			ListTTL:       120 * time.Second,
			StatsTTL:      300 * time.Second,
			DetailTTL:     300 * time.Second,
			ActivityTTL:   60 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "ccadmin",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
		},
	}
}

// Load resolves defaults, the optional YAML file and environment variables
func Load() (*Config, error) {
	return load(getEnv("CCADMIN_CONFIG_FILE", ""))
}

func load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// mergeFile overlays the YAML file on top of c. Keys absent from the file keep
// their current value.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnv("CCADMIN_HOST", c.Server.Host)
	c.Server.Port = getEnv("CCADMIN_PORT", c.Server.Port)
	c.Server.HealthPort = getEnv("CCADMIN_HEALTH_PORT", c.Server.HealthPort)
	c.Server.ReadTimeout = getEnvDuration("CCADMIN_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvDuration("CCADMIN_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvDuration("CCADMIN_IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.ShutdownTimeout = getEnvDuration("CCADMIN_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Database.URL = getEnv("CCADMIN_POSTGRES_URL", c.Database.URL)
	c.Database.MaxOpenConns = getEnvInt("CCADMIN_POSTGRES_MAX_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvInt("CCADMIN_POSTGRES_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.RunMigrations = getEnvBool("CCADMIN_RUN_MIGRATIONS", c.Database.RunMigrations)

	c.Redis.URL = getEnv("CCADMIN_REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("CCADMIN_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("CCADMIN_REDIS_DB", c.Redis.DB)
	c.Redis.MaxRetries = getEnvInt("CCADMIN_REDIS_MAX_RETRIES", c.Redis.MaxRetries)
	c.Redis.PoolSize = getEnvInt("CCADMIN_REDIS_POOL_SIZE", c.Redis.PoolSize)

	c.Cache.Enabled = getEnvBool("CCADMIN_CACHE_ENABLED", c.Cache.Enabled)
	c.Cache.LocalMaxKeys = getEnvInt("CCADMIN_CACHE_LOCAL_MAX_KEYS", c.Cache.LocalMaxKeys)
	c.Cache.SweepSchedule = getEnv("CCADMIN_CACHE_SWEEP_SCHEDULE", c.Cache.SweepSchedule)
	c.Cache.KeyPrefix = getEnv("CCADMIN_CACHE_KEY_PREFIX", c.Cache.KeyPrefix)
	c.Cache.ListTTL = getEnvDuration("CCADMIN_CACHE_LIST_TTL", c.Cache.ListTTL)
	c.Cache.StatsTTL = getEnvDuration("CCADMIN_CACHE_STATS_TTL", c.Cache.StatsTTL)
	c.Cache.DetailTTL = getEnvDuration("CCADMIN_CACHE_DETAIL_TTL", c.Cache.DetailTTL)
	c.Cache.ActivityTTL = getEnvDuration("CCADMIN_CACHE_ACTIVITY_TTL", c.Cache.ActivityTTL)

	c.Observability.LogLevel = strings.ToLower(getEnv("CCADMIN_LOG_LEVEL", c.Observability.LogLevel))
	c.Observability.MetricsEnabled = getEnvBool("CCADMIN_METRICS_ENABLED", c.Observability.MetricsEnabled)
	c.Observability.OTelEnabled = getEnvBool("CCADMIN_OTEL_ENABLED", c.Observability.OTelEnabled)
	c.Observability.OTelEndpoint = getEnv("CCADMIN_OTEL_ENDPOINT", c.Observability.OTelEndpoint)
	c.Observability.OTelServiceName = getEnv("CCADMIN_OTEL_SERVICE_NAME", c.Observability.OTelServiceName)
	c.Observability.OTelServiceVersion = getEnv("CCADMIN_OTEL_SERVICE_VERSION", c.Observability.OTelServiceVersion)
	c.Observability.OTelInsecure = getEnvBool("CCADMIN_OTEL_INSECURE", c.Observability.OTelInsecure)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	ttls := map[string]time.Duration{
		"list":     c.Cache.ListTTL,
		"stats":    c.Cache.StatsTTL,
		"detail":   c.Cache.DetailTTL,
		"activity": c.Cache.ActivityTTL,
	}
	for name, ttl := range ttls {
		if ttl <= 0 {
			return fmt.Errorf("cache %s TTL must be positive, got %s", name, ttl)
		}
	}
	if c.Cache.LocalMaxKeys <= 0 {
		return fmt.Errorf("cache local_max_keys must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
