package texture

import (
	"github.com/Carmen-Shannon/oxy-assets/common"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// PipelineBuilderOption is a functional option for configuring a Pipeline via NewPipeline.
type PipelineBuilderOption func(*pipeline)

// WithPipelineLogger is an option builder that sets the logger used for request diagnostics.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - PipelineBuilderOption: a function that applies the logger option to a pipeline
func WithPipelineLogger(logger *zap.Logger) PipelineBuilderOption {
	return func(p *pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPipelineWorkerPool is an option builder that runs asynchronous requests on a shared worker pool.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - PipelineBuilderOption: a function that applies the pool option to a pipeline
func WithPipelineWorkerPool(pool worker.DynamicWorkerPool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.pool = pool
	}
}

// WithPipelineMetrics is an option builder that exports request counters to Prometheus.
//
// Parameters:
//   - reg: the registerer
//
// Returns:
//   - PipelineBuilderOption: a function that applies the metrics option to a pipeline
func WithPipelineMetrics(reg prometheus.Registerer) PipelineBuilderOption {
	return func(p *pipeline) {
		p.registerer = reg
	}
}

// WithPipelineBaseDirectory is an option builder that sets the initial base directory.
//
// Parameters:
//   - dir: the base directory
//
// Returns:
//   - PipelineBuilderOption: a function that applies the base directory option to a pipeline
func WithPipelineBaseDirectory(dir string) PipelineBuilderOption {
	return func(p *pipeline) {
		p.baseDir = dir
	}
}

// WithPipelineDefaultOptions is an option builder that sets the options used for requests that pass nil.
//
// Parameters:
//   - opts: the default options
//
// Returns:
//   - PipelineBuilderOption: a function that applies the default options to a pipeline
func WithPipelineDefaultOptions(opts common.LoadOptions) PipelineBuilderOption {
	return func(p *pipeline) {
		p.defaults = opts
	}
}

// WithPipelineFormat is an option builder that sets the texture format requested from the manager.
//
// Parameters:
//   - format: the texture format
//
// Returns:
//   - PipelineBuilderOption: a function that applies the format option to a pipeline
func WithPipelineFormat(format wgpu.TextureFormat) PipelineBuilderOption {
	return func(p *pipeline) {
		p.format = format
	}
}
