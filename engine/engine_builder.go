package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-assets/engine/config"
	"github.com/Carmen-Shannon/oxy-assets/engine/loader"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithConfiguration sets the configuration the managers and the worker pool are built from.
// The sweep interval is taken from the configuration unless WithSweepInterval follows.
//
// Parameters:
//   - cfg: the configuration, typically from config.Load
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfiguration(cfg config.Configuration) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
		e.sweepInterval = cfg.SweepInterval
	}
}

// WithLogger sets the logger handed to every manager.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics registers cache and load metrics of every manager with reg.
//
// Parameters:
//   - reg: the Prometheus registerer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithMetrics(reg prometheus.Registerer) EngineBuilderOption {
	return func(e *engine) {
		e.registerer = reg
	}
}

// WithWorkerPool sets a pre-configured worker pool for background loads rather than allowing the engine
// to create and manage one internally. The engine never stops a pool it did not create.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWorkerPool(pool worker.DynamicWorkerPool) EngineBuilderOption {
	return func(e *engine) {
		e.pool = pool
	}
}

// WithProfiling enables or disables asset statistics output.
//
// Parameters:
//   - enabled: if true, enables profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithSweepInterval sets the period of the maintenance goroutine. Values <= 0 disable it.
//
// Parameters:
//   - interval: the maintenance period
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithSweepInterval(interval time.Duration) EngineBuilderOption {
	return func(e *engine) {
		e.sweepInterval = interval
	}
}

// WithModelLoaders registers additional model loaders after the built-in glTF and Collada loaders.
//
// Parameters:
//   - loaders: the loaders to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithModelLoaders(loaders ...loader.ModelLoader) EngineBuilderOption {
	return func(e *engine) {
		e.loaders = append(e.loaders, loaders...)
	}
}

// WithScene registers a scene at the given key during engine construction.
//
// Parameters:
//   - key: the scene key
//   - s: the Scene to register
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(key int, s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scenes[key] = s
	}
}
