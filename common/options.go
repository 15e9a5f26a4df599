package common

// LoadOptions configures a single asset load request. A LoadOptions value is never mutated by the
// engine once handed to a load call.
//
// LoadOptions are not part of an asset's cache key: a second request for the same path with
// different options receives the resource produced by the first request.
type LoadOptions struct {
	// GenerateMipmaps requests a full mip chain for loaded textures.
	GenerateMipmaps bool

	// CalculateTangents requests per-vertex tangent generation for meshes that do not carry them.
	CalculateTangents bool

	// AnisotropicFiltering enables 16x anisotropic filtering on texture samplers.
	AnisotropicFiltering bool

	// ScaleFactor is a uniform scale applied to the root of a loaded model. Zero is treated as 1.
	ScaleFactor float32

	// CacheResult records the loaded resource in the cache so later requests can reuse it.
	CacheResult bool
}

// DefaultLoadOptions returns the options used when a caller passes nil.
//
// Returns:
//   - LoadOptions: mipmaps, tangents, anisotropic filtering and caching enabled, unit scale
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		GenerateMipmaps:      true,
		CalculateTangents:    true,
		AnisotropicFiltering: true,
		ScaleFactor:          1.0,
		CacheResult:          true,
	}
}

// Scale returns the effective uniform scale, treating zero as 1.
//
// Returns:
//   - float32: the scale factor to apply
func (o LoadOptions) Scale() float32 {
	return Coalesce(o.ScaleFactor, 1.0)
}

// ResolveLoadOptions returns *opts when non-nil, otherwise fallback.
//
// Parameters:
//   - opts: caller supplied options, may be nil
//   - fallback: the options to use when opts is nil
//
// Returns:
//   - LoadOptions: the effective options
func ResolveLoadOptions(opts *LoadOptions, fallback LoadOptions) LoadOptions {
	if opts == nil {
		return fallback
	}
	return *opts
}
