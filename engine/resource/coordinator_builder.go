package resource

import (
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// coordinatorConfig holds the settings applied by CoordinatorBuilderOption functions.
type coordinatorConfig struct {
	name       string
	logger     *zap.Logger
	registerer prometheus.Registerer
	pool       worker.DynamicWorkerPool
}

// CoordinatorBuilderOption is a functional option for configuring a Coordinator via NewCoordinator.
type CoordinatorBuilderOption func(*coordinatorConfig)

// WithCoordinatorName is an option builder that names the coordinator for logs and metrics.
//
// Parameters:
//   - name: the coordinator name
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the name option
func WithCoordinatorName(name string) CoordinatorBuilderOption {
	return func(c *coordinatorConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithCoordinatorLogger is an option builder that sets the logger for load diagnostics.
//
// Parameters:
//   - logger: the zap logger; nil keeps the no-op default
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the logger option
func WithCoordinatorLogger(logger *zap.Logger) CoordinatorBuilderOption {
	return func(c *coordinatorConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCoordinatorMetrics is an option builder that exports load counters as Prometheus metrics.
//
// Parameters:
//   - reg: the registerer to publish to; nil disables metrics
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the metrics option
func WithCoordinatorMetrics(reg prometheus.Registerer) CoordinatorBuilderOption {
	return func(c *coordinatorConfig) {
		c.registerer = reg
	}
}

// WithWorkerPool is an option builder that runs dispatched loads on a shared worker pool.
// A coordinator built without one creates and owns a private pool.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - CoordinatorBuilderOption: a function that applies the pool option
func WithWorkerPool(pool worker.DynamicWorkerPool) CoordinatorBuilderOption {
	return func(c *coordinatorConfig) {
		c.pool = pool
	}
}

func applyCoordinatorOptions(options ...CoordinatorBuilderOption) *coordinatorConfig {
	cfg := &coordinatorConfig{
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
