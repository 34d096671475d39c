package commands

import (
	"fmt"

	"github.com/spherical/figure-extractor/internal/analysis"
	"github.com/spherical/figure-extractor/internal/cache"
	"github.com/spherical/figure-extractor/internal/config"
	"github.com/spherical/figure-extractor/internal/crop"
	"github.com/spherical/figure-extractor/internal/domain"
	"github.com/spherical/figure-extractor/internal/enrich"
	"github.com/spherical/figure-extractor/internal/observability"
	"github.com/spherical/figure-extractor/internal/source"
	"github.com/spherical/figure-extractor/internal/storage"
)

// loadConfig loads --config plus .env and environment overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Observability.LogLevel = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *observability.Logger {
	return observability.NewLogger(observability.LogConfig{
		Level:  cfg.Observability.LogLevel,
		Format: cfg.Observability.LogFormat,
	})
}

// buildService wires the analysis client, cache, cropper and image store
// into an enrichment service. The returned cleanup closes the cache.
func buildService(cfg *config.Config, logger *observability.Logger, onRecord func(domain.OutputRecord)) (*enrich.Service, func(), error) {
	if err := cfg.RequireServices(); err != nil {
		return nil, nil, err
	}

	resultCache, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if resultCache != nil {
			_ = resultCache.Close()
		}
	}

	retry := analysis.DefaultRetryConfig()
	if cfg.Analysis.MaxRetries > 0 {
		retry.MaxRetries = cfg.Analysis.MaxRetries
	}
	client := analysis.NewClient(analysis.ClientConfig{
		Endpoint:     cfg.Analysis.Endpoint,
		Key:          cfg.Analysis.Key,
		APIVersion:   cfg.Analysis.APIVersion,
		PollInterval: cfg.Analysis.PollInterval,
		Timeout:      cfg.Analysis.Timeout,
		Retry:        retry,
	}, nil, logger)
	analyzer := analysis.NewCachedAnalyzer(client, resultCache, cfg.Cache.TTL, logger)

	store, err := storage.New(cfg.Storage, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	loader := source.NewLoader(source.LoaderConfig{
		Timeout:  cfg.Fetch.Timeout,
		MaxBytes: cfg.Fetch.MaxBytes,
	}, nil, logger)
	cropper := crop.NewCropper(loader, logger)

	svc := enrich.NewService(analyzer, enrich.FromCropper(cropper), store, enrich.Options{
		MaxConcurrentRecords: cfg.Enrich.MaxConcurrentRecords,
		IncludeTables:        cfg.Enrich.IncludeTables,
		IncludePages:         cfg.Enrich.IncludePages,
		AxisTolerance:        cfg.Enrich.AxisTolerance,
		OnRecord:             onRecord,
	}, logger)

	logger.Info().
		Str("storage", cfg.Storage.Driver).
		Str("cache", cfg.Cache.Driver).
		Int("max_concurrent_records", cfg.Enrich.MaxConcurrentRecords).
		Msg("enrichment service ready")

	return svc, cleanup, nil
}
