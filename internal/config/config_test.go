package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/figure-extractor/internal/domain"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:7071", cfg.Addr())
	assert.Equal(t, "none", cfg.Cache.Driver)
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	err := applyEnvOverrides(cfg, envMap(map[string]string{
		"DOCUMENT_INTELLIGENCE_ENDPOINT": "https://di.example.com",
		"DOCUMENT_INTELLIGENCE_KEY":      "secret",
		"AZURE_STORAGE_CONTAINER_NAME":   "figures",
		"SERVER_PORT":                    "8080",
		"FETCH_TIMEOUT":                  "5s",
		"REDIS_URL":                      "redis://cache:6379",
		"INCLUDE_TABLES":                 "true",
		"MAX_CONCURRENT_RECORDS":         "8",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://di.example.com", cfg.Analysis.Endpoint)
	assert.Equal(t, "secret", cfg.Analysis.Key)
	assert.Equal(t, "figures", cfg.Storage.Container)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, "redis", cfg.Cache.Driver)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.True(t, cfg.Enrich.IncludeTables)
	assert.False(t, cfg.Enrich.IncludePages)
	assert.Equal(t, 8, cfg.Enrich.MaxConcurrentRecords)
}

func TestApplyEnvOverridesRedisURL(t *testing.T) {
	tests := []struct {
		url      string
		addr     string
		password string
		db       int
	}{
		{"redis://cache:6379", "cache:6379", "", 0},
		{"redis://:s3cret@cache.example:6380/2", "cache.example:6380", "s3cret", 2},
		{"rediss://user:pw@cache.example/1", "cache.example:6379", "pw", 1},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			cfg := DefaultConfig()
			require.NoError(t, applyEnvOverrides(cfg, envMap(map[string]string{"REDIS_URL": tt.url})))
			assert.Equal(t, "redis", cfg.Cache.Driver)
			assert.Equal(t, tt.addr, cfg.Cache.Redis.Addr)
			assert.Equal(t, tt.password, cfg.Cache.Redis.Password)
			assert.Equal(t, tt.db, cfg.Cache.Redis.DB)
		})
	}
}

func TestApplyEnvOverridesRejectsGarbage(t *testing.T) {
	tests := map[string]string{
		"SERVER_PORT":            "eighty",
		"FETCH_TIMEOUT":          "soon",
		"INCLUDE_PAGES":          "maybe",
		"MAX_CONCURRENT_RECORDS": "many",
		"REDIS_URL":              "http://cache:6379",
	}
	for key, val := range tests {
		t.Run(key, func(t *testing.T) {
			err := applyEnvOverrides(DefaultConfig(), envMap(map[string]string{key: val}))
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad storage driver", func(c *Config) { c.Storage.Driver = "s3" }},
		{"bad cache driver", func(c *Config) { c.Cache.Driver = "memcached" }},
		{"zero fetch timeout", func(c *Config) { c.Fetch.Timeout = 0 }},
		{"no concurrency", func(c *Config) { c.Enrich.MaxConcurrentRecords = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
		})
	}
}

func TestRequireServices(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.RequireServices()
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
	assert.Contains(t, err.Error(), "DOCUMENT_INTELLIGENCE_KEY")
	assert.Contains(t, err.Error(), "AZURE_STORAGE_CONNECTION_STRING")

	cfg.Analysis.Endpoint = "https://di.example.com"
	cfg.Analysis.Key = "k"
	cfg.Storage.Driver = "local"
	assert.NoError(t, cfg.RequireServices())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlBody := `
server:
  port: 9090
storage:
  driver: local
  local_dir: /tmp/figs
enrich:
  include_pages: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/figs", cfg.Storage.LocalDir)
	assert.True(t, cfg.Enrich.IncludePages)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}
