package loader

import (
	"github.com/Carmen-Shannon/oxy-assets/common"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ModelManagerBuilderOption is a functional option for configuring a ModelManager via NewModelManager.
type ModelManagerBuilderOption func(*modelManager)

// WithLogger is an option builder that sets the logger used for load diagnostics.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - ModelManagerBuilderOption: a function that applies the logger option to a model manager
func WithLogger(logger *zap.Logger) ModelManagerBuilderOption {
	return func(m *modelManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithWorkerPool is an option builder that runs asynchronous loads on a shared worker pool.
// Without it the manager starts its own pool and stops it on Close.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - ModelManagerBuilderOption: a function that applies the pool option to a model manager
func WithWorkerPool(pool worker.DynamicWorkerPool) ModelManagerBuilderOption {
	return func(m *modelManager) {
		m.pool = pool
	}
}

// WithMetrics is an option builder that exports cache and load counters to Prometheus.
//
// Parameters:
//   - reg: the registerer
//
// Returns:
//   - ModelManagerBuilderOption: a function that applies the metrics option to a model manager
func WithMetrics(reg prometheus.Registerer) ModelManagerBuilderOption {
	return func(m *modelManager) {
		m.registerer = reg
	}
}

// WithBaseDirectory is an option builder that sets the initial base directory.
//
// Parameters:
//   - dir: the base directory
//
// Returns:
//   - ModelManagerBuilderOption: a function that applies the base directory option to a model manager
func WithBaseDirectory(dir string) ModelManagerBuilderOption {
	return func(m *modelManager) {
		m.baseDir = dir
	}
}

// WithDefaultOptions is an option builder that sets the options used for requests that pass nil.
//
// Parameters:
//   - opts: the default load options
//
// Returns:
//   - ModelManagerBuilderOption: a function that applies the default options to a model manager
func WithDefaultOptions(opts common.LoadOptions) ModelManagerBuilderOption {
	return func(m *modelManager) {
		m.defaults = opts
	}
}

// WithLoaders is an option builder that replaces the built-in glTF and Collada loaders with the given
// strategies, in priority order.
//
// Parameters:
//   - loaders: the loaders to register
//
// Returns:
//   - ModelManagerBuilderOption: a function that applies the loaders option to a model manager
func WithLoaders(loaders ...ModelLoader) ModelManagerBuilderOption {
	return func(m *modelManager) {
		m.loaders = append([]ModelLoader(nil), loaders...)
		m.customLoaders = true
	}
}
