// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// TextureStagingData holds pixel data for a texture pending GPU upload.
// This is produced by the texture Manager after decoding and channel repair, and consumed by a texture Backend.
type TextureStagingData struct {
	// Label is the debug label attached to the GPU texture.
	Label string
	// Pixels is the byte slice for mip level 0. It is tightly packed with Channels bytes per pixel.
	Pixels []byte
	// Width is the width of mip level 0 in pixels.
	Width uint32
	// Height is the height of mip level 0 in pixels.
	Height uint32
	// Channels is the number of bytes per pixel in Pixels and in every entry of MipLevels.
	Channels int
	// Format is the GPU texture format to allocate.
	Format wgpu.TextureFormat
	// MipLevels holds the pixel data for mip levels 1..n, each level half the size of the previous one.
	// An empty slice uploads level 0 only.
	MipLevels [][]byte
}

// MipLevelCount returns the total number of mip levels described by the staging data, including level 0.
//
// Returns:
//   - uint32: the number of mip levels
func (t TextureStagingData) MipLevelCount() uint32 {
	return uint32(len(t.MipLevels)) + 1
}

// SamplerStagingData holds the configuration for a sampler pending GPU creation.
// Zero-valued fields fall back to linear filtering and repeat addressing when the sampler is created.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// MipmapFilter specifies the filtering mode for mipmap level selection.
	MipmapFilter wgpu.MipmapFilterMode
	// LodMinClamp and LodMaxClamp specify the minimum and maximum level of detail (LOD) for mipmapping.
	LodMinClamp, LodMaxClamp float32
	// Compare specifies the comparison function for comparison samplers, used in shadow mapping and similar techniques.
	Compare wgpu.CompareFunction
	// MaxAnisotropy specifies the maximum anisotropy level for anisotropic filtering, which can improve texture quality at oblique viewing angles.
	MaxAnisotropy uint16
}

// DefaultSamplerStagingData returns the sampler configuration applied to every texture the engine creates:
// linear filtering, repeat addressing and 16x anisotropic filtering.
//
// Returns:
//   - SamplerStagingData: the default sampler configuration
func DefaultSamplerStagingData() SamplerStagingData {
	return SamplerStagingData{
		AddressModeU:  wgpu.AddressModeRepeat,
		AddressModeV:  wgpu.AddressModeRepeat,
		AddressModeW:  wgpu.AddressModeRepeat,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeLinear,
		LodMinClamp:   0,
		LodMaxClamp:   32,
		MaxAnisotropy: 16,
	}
}

// ImportedMaterial represents material properties from an imported model file.
type ImportedMaterial struct {
	// Name is the material identifier.
	Name string

	// BaseColor is the albedo/diffuse color (RGBA).
	BaseColor [4]float32

	// Metallic factor (0.0 = dielectric, 1.0 = metal).
	Metallic float32

	// Roughness factor (0.0 = smooth, 1.0 = rough).
	Roughness float32

	// DiffuseTexture references the diffuse/albedo texture (nil when absent).
	DiffuseTexture *ImportedTexture

	// NormalTexture references the normal map (nil when absent).
	NormalTexture *ImportedTexture

	// MetallicRoughnessTexture references the metallic/roughness texture (nil when absent).
	MetallicRoughnessTexture *ImportedTexture
}

// ImportedTexture represents a texture reference extracted from a model file.
// For embedded textures (GLB buffer views, data URIs), the Data field contains raw encoded image bytes.
// For external textures, the Path field contains the file path relative to the model file.
type ImportedTexture struct {
	// Name is an identifier for this texture. Embedded textures are registered with the texture
	// manager under this name, so importers make it unique per model.
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw encoded image bytes for embedded textures (PNG/JPEG/...).
	Data []byte

	// MimeType indicates the image format (e.g., "image/png", "image/jpeg").
	MimeType string

	// SamplerData holds GPU sampler parameters extracted from the model file.
	// When non-nil, these values override the default sampler settings.
	SamplerData *SamplerStagingData
}

// Embedded reports whether the texture carries its own encoded bytes rather than a file reference.
//
// Returns:
//   - bool: true if Data is populated
func (t *ImportedTexture) Embedded() bool {
	return t != nil && len(t.Data) > 0
}
