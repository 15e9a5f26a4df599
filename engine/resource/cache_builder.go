package resource

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// cacheConfig holds the settings applied by CacheBuilderOption functions. It is shared by every Cache
// instantiation so options do not need a type parameter.
type cacheConfig struct {
	name       string
	logger     *zap.Logger
	registerer prometheus.Registerer
}

// CacheBuilderOption is a functional option for configuring a Cache via NewCache.
type CacheBuilderOption func(*cacheConfig)

// WithCacheName is an option builder that names the cache. The name labels its metrics and log lines.
//
// Parameters:
//   - name: the cache name
//
// Returns:
//   - CacheBuilderOption: a function that applies the name option
func WithCacheName(name string) CacheBuilderOption {
	return func(c *cacheConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithCacheLogger is an option builder that sets the logger used for cache diagnostics.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op default
//
// Returns:
//   - CacheBuilderOption: a function that applies the logger option
func WithCacheLogger(logger *zap.Logger) CacheBuilderOption {
	return func(c *cacheConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheMetrics is an option builder that exports the cache counters as Prometheus metrics.
//
// Parameters:
//   - reg: the registerer to publish to; nil disables metrics
//
// Returns:
//   - CacheBuilderOption: a function that applies the metrics option
func WithCacheMetrics(reg prometheus.Registerer) CacheBuilderOption {
	return func(c *cacheConfig) {
		c.registerer = reg
	}
}

func applyCacheOptions(options ...CacheBuilderOption) *cacheConfig {
	cfg := &cacheConfig{
		name:   "default",
		logger: zap.NewNop(),
	}
	for _, option := range options {
		if option != nil {
			option(cfg)
		}
	}
	return cfg
}
