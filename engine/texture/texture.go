// package texture turns image files and raw pixel data into GPU-resident textures and caches them by
// canonical path. The Manager performs individual loads; the Pipeline layers request deduplication and
// background loading on top of a Manager.
package texture

import (
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-assets/common"

	"github.com/cogentcore/webgpu/wgpu"
)

// DefaultTextureKey is the reserved cache key of the fallback texture. It is not a file path and is never
// resolved against a base directory.
const DefaultTextureKey = "$oxy/default-texture"

// gpuHandles holds the GPU objects a Texture owns. It is kept separate from Texture so the runtime cleanup
// that releases them does not keep the Texture reachable. A sampled view owns only its sampler; the image
// stays with the base texture.
type gpuHandles struct {
	mu      sync.Mutex
	texture GPUTexture
	sampler GPUSampler
}

// release frees every GPU object. It is safe to call more than once.
func (h *gpuHandles) release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sampler != nil {
		h.sampler.Release()
		h.sampler = nil
	}
	if h.texture != nil {
		h.texture.Release()
		h.texture = nil
	}
}

// Texture is a GPU-resident image plus its metadata. A Texture is owned by whoever holds a pointer to it
// (materials, meshes, callers); caches only reference it weakly. When the last strong reference is dropped
// and the Texture is collected, its GPU objects are released.
//
// A Texture is immutable. Consumers that need different sampling get a view from Manager.Sampled: the
// view shares the base texture's image, owns its own sampler and keeps the base alive.
type Texture struct {
	name      string
	width     uint32
	height    uint32
	channels  int
	format    wgpu.TextureFormat
	mipLevels uint32
	isDefault bool

	base        *Texture
	handles     *gpuHandles
	samplerData common.SamplerStagingData
}

// newTexture wraps GPU objects created from staging data and registers the cleanup that frees them.
func newTexture(name string, staging common.TextureStagingData, gpu GPUTexture, sampler GPUSampler, samplerData common.SamplerStagingData) *Texture {
	t := &Texture{
		name:        name,
		width:       staging.Width,
		height:      staging.Height,
		channels:    staging.Channels,
		format:      staging.Format,
		mipLevels:   staging.MipLevelCount(),
		handles:     &gpuHandles{texture: gpu, sampler: sampler},
		samplerData: samplerData,
	}
	runtime.AddCleanup(t, func(h *gpuHandles) { h.release() }, t.handles)
	return t
}

// newView creates a texture sampling base's image through sampler. Collecting the view frees only sampler.
func newView(base *Texture, sampler GPUSampler, samplerData common.SamplerStagingData) *Texture {
	base = base.Base()
	t := &Texture{
		name:        base.name,
		width:       base.width,
		height:      base.height,
		channels:    base.channels,
		format:      base.format,
		mipLevels:   base.mipLevels,
		base:        base,
		handles:     &gpuHandles{sampler: sampler},
		samplerData: samplerData,
	}
	runtime.AddCleanup(t, func(h *gpuHandles) { h.release() }, t.handles)
	return t
}

// Name returns the key the texture was created under.
//
// Returns:
//   - string: the resolved path or procedural name
func (t *Texture) Name() string {
	return t.name
}

// Width returns the width of mip level 0 in pixels.
//
// Returns:
//   - uint32: the width
func (t *Texture) Width() uint32 {
	return t.width
}

// Height returns the height of mip level 0 in pixels.
//
// Returns:
//   - uint32: the height
func (t *Texture) Height() uint32 {
	return t.height
}

// Channels returns the number of bytes per pixel uploaded to the GPU.
//
// Returns:
//   - int: the channel count
func (t *Texture) Channels() int {
	return t.channels
}

// Format returns the GPU texture format.
//
// Returns:
//   - wgpu.TextureFormat: the format
func (t *Texture) Format() wgpu.TextureFormat {
	return t.format
}

// MipLevelCount returns the number of mip levels uploaded, including level 0.
//
// Returns:
//   - uint32: the mip level count
func (t *Texture) MipLevelCount() uint32 {
	return t.mipLevels
}

// IsDefault reports whether this is the shared fallback texture.
//
// Returns:
//   - bool: true for the default texture
func (t *Texture) IsDefault() bool {
	return t.isDefault
}

// Base returns the texture owning the GPU image: the receiver itself, or for a sampled view the texture
// it was created from.
//
// Returns:
//   - *Texture: the base texture
func (t *Texture) Base() *Texture {
	if t.base != nil {
		return t.base
	}
	return t
}

// GPU returns the backend texture object, or nil when the texture has no GPU allocation.
//
// Returns:
//   - GPUTexture: the backend texture
func (t *Texture) GPU() GPUTexture {
	if t.base != nil {
		return t.base.GPU()
	}
	t.handles.mu.Lock()
	defer t.handles.mu.Unlock()
	return t.handles.texture
}

// Sampler returns the backend sampler object attached to the texture.
//
// Returns:
//   - GPUSampler: the sampler, or nil if none
func (t *Texture) Sampler() GPUSampler {
	t.handles.mu.Lock()
	defer t.handles.mu.Unlock()
	return t.handles.sampler
}

// SamplerData returns the configuration of the attached sampler.
//
// Returns:
//   - common.SamplerStagingData: the sampler configuration
func (t *Texture) SamplerData() common.SamplerStagingData {
	return t.samplerData
}
