package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/spherical/figure-extractor/internal/cache"
	"github.com/spherical/figure-extractor/internal/observability"
)

// CachedAnalyzer serves repeat analyses of the same document from a cache.
type CachedAnalyzer struct {
	next   Analyzer
	cache  cache.Client
	ttl    time.Duration
	logger *observability.Logger
}

// NewCachedAnalyzer wraps next. A nil cache disables caching.
func NewCachedAnalyzer(next Analyzer, c cache.Client, ttl time.Duration, logger *observability.Logger) Analyzer {
	if c == nil {
		return next
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &CachedAnalyzer{next: next, cache: c, ttl: ttl, logger: logger.WithOperation("analysis_cache")}
}

// Analyze returns the cached result for model and documentURL or delegates.
// Cache failures never fail the request.
func (a *CachedAnalyzer) Analyze(ctx context.Context, model, documentURL string) (*Result, error) {
	key := CacheKey(model, documentURL)

	if data, err := a.cache.Get(ctx, key); err == nil {
		var res Result
		if err := json.Unmarshal(data, &res); err == nil {
			a.logger.Debug().Str("model", model).Msg("analysis cache hit")
			return &res, nil
		}
		a.logger.Warn().Msg("discarding undecodable cache entry")
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		a.logger.Warn().Err(err).Msg("analysis cache read failed")
	}

	res, err := a.next.Analyze(ctx, model, documentURL)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(res); err == nil {
		if err := a.cache.Set(ctx, key, data, a.ttl); err != nil {
			a.logger.Warn().Err(err).Msg("analysis cache write failed")
		}
	}
	return res, nil
}

// CacheKey identifies an analysis by model and document location. Query
// strings carry SAS tokens and are left out.
func CacheKey(model, documentURL string) string {
	location := documentURL
	if u, err := url.Parse(documentURL); err == nil {
		u.RawQuery = ""
		u.Fragment = ""
		location = u.String()
	}
	return cache.Key("analysis", model, location)
}
