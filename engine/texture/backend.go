package texture

import (
	"github.com/Carmen-Shannon/oxy-assets/common"
)

// GPUTexture is a texture allocation owned by a Backend.
type GPUTexture interface {
	// Release frees the GPU memory held by the texture.
	Release()
}

// GPUSampler is a sampler object owned by a Backend.
type GPUSampler interface {
	// Release frees the sampler.
	Release()
}

// Backend creates GPU objects for the texture Manager. Every failure is recoverable: the Manager answers
// it with the default texture.
type Backend interface {
	// CreateTexture allocates a texture sized and formatted per the staging data and uploads every mip
	// level it carries.
	//
	// Parameters:
	//   - data: the staging data
	//
	// Returns:
	//   - GPUTexture: the allocated texture
	//   - error: error if allocation or upload fails
	CreateTexture(data common.TextureStagingData) (GPUTexture, error)

	// CreateSampler creates a sampler. Zero-valued fields of data fall back to linear filtering and
	// repeat addressing.
	//
	// Parameters:
	//   - label: the debug label for the sampler
	//   - data: the sampler configuration
	//
	// Returns:
	//   - GPUSampler: the created sampler
	//   - error: error if creation fails
	CreateSampler(label string, data common.SamplerStagingData) (GPUSampler, error)
}
