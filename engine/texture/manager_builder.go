package texture

import (
	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/resource"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ManagerBuilderOption is a functional option for configuring a Manager via NewManager.
type ManagerBuilderOption func(*manager)

// WithDecoder is an option builder that replaces the image decoder.
//
// Parameters:
//   - d: the decoder
//
// Returns:
//   - ManagerBuilderOption: a function that applies the decoder option to a manager
func WithDecoder(d Decoder) ManagerBuilderOption {
	return func(m *manager) {
		if d != nil {
			m.decoder = d
		}
	}
}

// WithLogger is an option builder that sets the logger used for load diagnostics.
//
// Parameters:
//   - logger: the zap logger
//
// Returns:
//   - ManagerBuilderOption: a function that applies the logger option to a manager
func WithLogger(logger *zap.Logger) ManagerBuilderOption {
	return func(m *manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithBaseDirectory is an option builder that sets the initial base directory.
//
// Parameters:
//   - dir: the base directory
//
// Returns:
//   - ManagerBuilderOption: a function that applies the base directory option to a manager
func WithBaseDirectory(dir string) ManagerBuilderOption {
	return func(m *manager) {
		m.baseDir = dir
	}
}

// WithDefaultFormat is an option builder that sets the format used when a call passes
// wgpu.TextureFormatUndefined.
//
// Parameters:
//   - format: the texture format
//
// Returns:
//   - ManagerBuilderOption: a function that applies the format option to a manager
func WithDefaultFormat(format wgpu.TextureFormat) ManagerBuilderOption {
	return func(m *manager) {
		if format != wgpu.TextureFormatUndefined {
			m.format = format
		}
	}
}

// WithSampler is an option builder that replaces the sampler configuration attached to new textures.
//
// Parameters:
//   - data: the sampler configuration
//
// Returns:
//   - ManagerBuilderOption: a function that applies the sampler option to a manager
func WithSampler(data common.SamplerStagingData) ManagerBuilderOption {
	return func(m *manager) {
		m.sampler = data
	}
}

// WithDefaultColor is an option builder that sets the RGBA color of the 1x1 default texture.
//
// Parameters:
//   - rgba: the color
//
// Returns:
//   - ManagerBuilderOption: a function that applies the color option to a manager
func WithDefaultColor(rgba [4]byte) ManagerBuilderOption {
	return func(m *manager) {
		m.defaultTint = rgba
	}
}

// WithMetrics is an option builder that exports the texture cache counters to Prometheus.
//
// Parameters:
//   - reg: the registerer
//
// Returns:
//   - ManagerBuilderOption: a function that applies the metrics option to a manager
func WithMetrics(reg prometheus.Registerer) ManagerBuilderOption {
	return func(m *manager) {
		m.cacheOpts = append(m.cacheOpts, resource.WithCacheMetrics(reg))
	}
}
