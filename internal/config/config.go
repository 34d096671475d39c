// Package config provides configuration loading for the figure extractor.
// Supports YAML files, .env files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/spherical/figure-extractor/internal/domain"
)

// Config holds all configuration for the figure extractor.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Storage       StorageConfig       `yaml:"storage"`
	Fetch         FetchConfig         `yaml:"fetch"`
	Cache         CacheConfig         `yaml:"cache"`
	Enrich        EnrichConfig        `yaml:"enrich"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds webhook server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
	// FunctionKey enables key auth on /api routes when non-empty.
	FunctionKey string `yaml:"function_key"`
}

// AnalysisConfig holds Document Intelligence settings.
type AnalysisConfig struct {
	Endpoint     string        `yaml:"endpoint"`
	Key          string        `yaml:"key"`
	APIVersion   string        `yaml:"api_version"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
}

// StorageConfig holds figure image storage settings.
type StorageConfig struct {
	Driver           string `yaml:"driver"` // azure or local
	ConnectionString string `yaml:"connection_string"`
	Container        string `yaml:"container"`
	LocalDir         string `yaml:"local_dir"`
}

// FetchConfig bounds remote document downloads.
type FetchConfig struct {
	Timeout  time.Duration `yaml:"timeout"`
	MaxBytes int64         `yaml:"max_bytes"`
}

// CacheConfig holds analysis result cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // none, memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// EnrichConfig tunes the batch orchestrator.
type EnrichConfig struct {
	MaxConcurrentRecords int     `yaml:"max_concurrent_records"`
	IncludeTables        bool    `yaml:"include_tables"`
	IncludePages         bool    `yaml:"include_pages"`
	AxisTolerance        float64 `yaml:"axis_tolerance"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads configuration from a YAML file, then a .env file in the working
// directory, then the process environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError("read config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError("parse config file", err)
		}
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := applyEnvOverrides(cfg, os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             7071,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     230 * time.Second,
			IdleTimeout:      120 * time.Second,
			RequestTimeout:   220 * time.Second,
			GracefulShutdown: 10 * time.Second,
			MaxBodyBytes:     4 << 20,
		},
		Analysis: AnalysisConfig{
			APIVersion:   "2024-11-30",
			PollInterval: time.Second,
			Timeout:      120 * time.Second,
			MaxRetries:   3,
		},
		Storage: StorageConfig{
			Driver:   "azure",
			LocalDir: "./figures",
		},
		Fetch: FetchConfig{
			Timeout:  60 * time.Second,
			MaxBytes: 200 << 20,
		},
		Cache: CacheConfig{
			Driver:     "none",
			TTL:        24 * time.Hour,
			MaxEntries: 1000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				PoolSize: 10,
			},
		},
		Enrich: EnrichConfig{
			MaxConcurrentRecords: 4,
			AxisTolerance:        0.02,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return domain.ConfigError(fmt.Sprintf("invalid server port: %d", c.Server.Port), nil)
	}

	if c.Storage.Driver != "azure" && c.Storage.Driver != "local" {
		return domain.ConfigError(fmt.Sprintf("invalid storage driver: %s", c.Storage.Driver), nil)
	}

	switch c.Cache.Driver {
	case "none", "memory", "redis":
	default:
		return domain.ConfigError(fmt.Sprintf("invalid cache driver: %s", c.Cache.Driver), nil)
	}

	if c.Fetch.Timeout <= 0 {
		return domain.ConfigError("fetch timeout must be positive", nil)
	}

	if c.Enrich.MaxConcurrentRecords < 1 {
		return domain.ConfigError("max_concurrent_records must be at least 1", nil)
	}

	return nil
}

// RequireServices checks the credentials needed by the batch orchestrator.
// Crop-only usage does not need them.
func (c *Config) RequireServices() error {
	var missing []string
	if c.Analysis.Endpoint == "" {
		missing = append(missing, "DOCUMENT_INTELLIGENCE_ENDPOINT")
	}
	if c.Analysis.Key == "" {
		missing = append(missing, "DOCUMENT_INTELLIGENCE_KEY")
	}
	if c.Storage.Driver == "azure" {
		if c.Storage.ConnectionString == "" {
			missing = append(missing, "AZURE_STORAGE_CONNECTION_STRING")
		}
		if c.Storage.Container == "" {
			missing = append(missing, "AZURE_STORAGE_CONTAINER_NAME")
		}
	}
	if len(missing) > 0 {
		return domain.ConfigError("missing required settings: "+strings.Join(missing, ", "), nil)
	}
	return nil
}

// Addr returns the listen address of the webhook server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// applyEnvOverrides applies environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	str("SERVER_HOST", &cfg.Server.Host)
	str("FUNCTION_KEY", &cfg.Server.FunctionKey)
	str("DOCUMENT_INTELLIGENCE_ENDPOINT", &cfg.Analysis.Endpoint)
	str("DOCUMENT_INTELLIGENCE_KEY", &cfg.Analysis.Key)
	str("DOCUMENT_INTELLIGENCE_API_VERSION", &cfg.Analysis.APIVersion)
	str("AZURE_STORAGE_CONNECTION_STRING", &cfg.Storage.ConnectionString)
	str("AZURE_STORAGE_CONTAINER_NAME", &cfg.Storage.Container)
	str("STORAGE_DRIVER", &cfg.Storage.Driver)
	str("STORAGE_LOCAL_DIR", &cfg.Storage.LocalDir)
	str("LOG_LEVEL", &cfg.Observability.LogLevel)
	str("LOG_FORMAT", &cfg.Observability.LogFormat)

	if v := getenv("REDIS_URL"); v != "" {
		opts, err := redis.ParseURL(v)
		if err != nil {
			return domain.ConfigError("parse REDIS_URL", err)
		}
		cfg.Cache.Driver = "redis"
		cfg.Cache.Redis.Addr = opts.Addr
		cfg.Cache.Redis.Password = opts.Password
		cfg.Cache.Redis.DB = opts.DB
	}

	if v := getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return domain.ConfigError("parse SERVER_PORT", err)
		}
		cfg.Server.Port = port
	}

	if v := getenv("MAX_CONCURRENT_RECORDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.ConfigError("parse MAX_CONCURRENT_RECORDS", err)
		}
		cfg.Enrich.MaxConcurrentRecords = n
	}

	durations := map[string]*time.Duration{
		"FETCH_TIMEOUT": &cfg.Fetch.Timeout,
		"CACHE_TTL":     &cfg.Cache.TTL,
	}
	for key, dst := range durations {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return domain.ConfigError("parse "+key, err)
			}
			*dst = d
		}
	}

	bools := map[string]*bool{
		"INCLUDE_TABLES": &cfg.Enrich.IncludeTables,
		"INCLUDE_PAGES":  &cfg.Enrich.IncludePages,
	}
	for key, dst := range bools {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return domain.ConfigError("parse "+key, err)
			}
			*dst = b
		}
	}

	return nil
}
