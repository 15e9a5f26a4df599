package texture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/resource"

	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// manager is the implementation of the Manager interface.
type manager struct {
	mu      sync.RWMutex
	baseDir string

	backend Backend
	decoder Decoder
	cache   resource.Cache[Texture]
	views   resource.Cache[Texture]

	defaultMu  sync.Mutex
	defaultTex *Texture

	format  wgpu.TextureFormat
	sampler common.SamplerStagingData

	logger      *zap.Logger
	cacheOpts   []resource.CacheBuilderOption
	defaultTint [4]byte
}

// Manager loads textures from files or memory, uploads them through a Backend and caches them weakly by
// canonical path. Every failure (missing file, decode error, GPU error) yields the shared default texture
// rather than an error, so callers always receive a usable texture.
//
// Manager does not deduplicate concurrent loads of the same uncached key; the Pipeline does.
type Manager interface {
	// GetOrLoad returns the cached texture for identifier, loading it from disk on a miss.
	// Files ending in .lz4 are decompressed before decoding.
	//
	// Parameters:
	//   - identifier: the file path, resolved against the base directory
	//   - generateMipmaps: whether to build and upload a full mip chain
	//   - format: the GPU format; wgpu.TextureFormatUndefined selects the manager's default format
	//
	// Returns:
	//   - *Texture: the texture, or the default texture on failure
	GetOrLoad(identifier string, generateMipmaps bool, format wgpu.TextureFormat) *Texture

	// LoadFromMemory returns the cached texture for name, decoding data on a miss. Model importers use it
	// for images embedded in model files.
	//
	// Parameters:
	//   - name: the cache name, resolved like a path
	//   - data: the encoded image bytes
	//   - generateMipmaps: whether to build and upload a full mip chain
	//   - format: the GPU format; wgpu.TextureFormatUndefined selects the manager's default format
	//
	// Returns:
	//   - *Texture: the texture, or the default texture on failure
	LoadFromMemory(name string, data []byte, generateMipmaps bool, format wgpu.TextureFormat) *Texture

	// CreateTexture creates a texture from decoded pixels and caches it under name. If a live texture is
	// already cached under name it is returned unchanged and the conflict is logged.
	//
	// Parameters:
	//   - name: the procedural texture name, resolved like a path (must not be empty)
	//   - pixels: packed 8-bit pixel data (must not be nil)
	//   - width: the width in pixels (must not be zero)
	//   - height: the height in pixels (must not be zero)
	//   - format: the GPU format; wgpu.TextureFormatUndefined selects the manager's default format
	//   - channels: bytes per pixel of pixels (1-4)
	//   - generateMipmaps: whether to build and upload a full mip chain
	//
	// Returns:
	//   - *Texture: the new or existing texture, or the default texture on failure
	CreateTexture(name string, pixels []byte, width, height uint32, format wgpu.TextureFormat, channels int, generateMipmaps bool) *Texture

	// Default returns the 1x1 opaque white fallback texture, creating it on first use. The manager keeps
	// it alive for its whole lifetime.
	//
	// Returns:
	//   - *Texture: the default texture
	Default() *Texture

	// Sampled returns tex sampled with data. tex itself is never modified: when data differs from its
	// sampler a view is returned that shares the GPU image and owns a new sampler. Views are cached weakly
	// per base texture and configuration, so consumers asking for the same sampling share one view. The
	// default texture is returned unchanged.
	//
	// Parameters:
	//   - tex: the texture to sample (must not be nil)
	//   - data: the sampler configuration
	//
	// Returns:
	//   - *Texture: tex, or a view of it with the requested sampler
	//   - error: error if the backend cannot create the sampler; tex is returned alongside it
	Sampled(tex *Texture, data common.SamplerStagingData) (*Texture, error)

	// Lookup returns the cached texture for identifier without loading.
	//
	// Parameters:
	//   - identifier: the file path or procedural name
	//
	// Returns:
	//   - *Texture: the texture, or nil
	//   - bool: true on a live cache hit
	Lookup(identifier string) (*Texture, bool)

	// Resolve converts identifier into the cache key the manager uses for it.
	//
	// Parameters:
	//   - identifier: the file path or procedural name
	//
	// Returns:
	//   - string: the resolved key
	Resolve(identifier string) string

	// Release removes identifier from the cache. Holders of the texture keep a valid texture.
	//
	// Parameters:
	//   - identifier: the file path or procedural name
	//
	// Returns:
	//   - bool: true if an entry was removed
	Release(identifier string) bool

	// ReleaseAll removes every cache entry, sampled views included. The default texture stays registered.
	ReleaseAll()

	// Prune removes cache entries whose texture or sampled view has been collected.
	//
	// Returns:
	//   - int: the number of entries removed
	Prune() int

	// SetBaseDirectory sets the directory relative identifiers are resolved against. Existing cache
	// entries keep their keys.
	//
	// Parameters:
	//   - dir: the base directory
	SetBaseDirectory(dir string)

	// BaseDirectory returns the current base directory.
	//
	// Returns:
	//   - string: the base directory
	BaseDirectory() string

	// Len returns the number of cache entries, including the default texture.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Stats returns the cache counters.
	//
	// Returns:
	//   - resource.CacheStats: the counters
	Stats() resource.CacheStats
}

var _ Manager = &manager{}

// NewManager creates a new texture Manager uploading through backend.
//
// Parameters:
//   - backend: the GPU backend (required)
//   - options: a variadic list of ManagerBuilderOption functions to configure the Manager
//
// Returns:
//   - Manager: the new manager
func NewManager(backend Backend, options ...ManagerBuilderOption) Manager {
	if backend == nil {
		panic("texture: NewManager requires a backend")
	}

	m := &manager{
		backend:     backend,
		decoder:     NewImageDecoder(),
		format:      wgpu.TextureFormatRGBA8UnormSrgb,
		sampler:     common.DefaultSamplerStagingData(),
		logger:      zap.NewNop(),
		defaultTint: [4]byte{255, 255, 255, 255},
	}

	for _, option := range options {
		option(m)
	}

	m.cache = resource.NewCache[Texture](append([]resource.CacheBuilderOption{
		resource.WithCacheName("textures"),
		resource.WithCacheLogger(m.logger),
	}, m.cacheOpts...)...)
	m.views = resource.NewCache[Texture](
		resource.WithCacheName("texture_views"),
		resource.WithCacheLogger(m.logger),
	)
	return m
}

func (m *manager) GetOrLoad(identifier string, generateMipmaps bool, format wgpu.TextureFormat) *Texture {
	if identifier == "" {
		panic("texture: GetOrLoad requires an identifier")
	}

	key := m.Resolve(identifier)
	if tex, ok := m.cache.Get(key); ok {
		m.logger.Debug("texture cache hit", zap.String("key", key))
		return tex
	}

	tex, err := m.loadFile(key, generateMipmaps, format)
	if err != nil {
		m.logger.Warn("texture load failed, using default", zap.String("key", key), zap.Error(err))
		return m.Default()
	}
	return m.insert(key, tex)
}

func (m *manager) LoadFromMemory(name string, data []byte, generateMipmaps bool, format wgpu.TextureFormat) *Texture {
	if name == "" {
		panic("texture: LoadFromMemory requires a name")
	}

	key := m.Resolve(name)
	if tex, ok := m.cache.Get(key); ok {
		return tex
	}

	tex, err := m.decodeAndBuild(key, data, generateMipmaps, format)
	if err != nil {
		m.logger.Warn("texture decode failed, using default", zap.String("key", key), zap.Error(err))
		return m.Default()
	}
	return m.insert(key, tex)
}

func (m *manager) CreateTexture(name string, pixels []byte, width, height uint32, format wgpu.TextureFormat, channels int, generateMipmaps bool) *Texture {
	if name == "" {
		panic("texture: CreateTexture requires a name")
	}
	if pixels == nil {
		panic("texture: CreateTexture requires pixel data")
	}
	if width == 0 || height == 0 {
		panic("texture: CreateTexture requires a non-zero size")
	}

	key := m.Resolve(name)
	if existing, ok := m.cache.Get(key); ok {
		m.logger.Info("texture name already in use, returning existing texture", zap.String("key", key))
		return existing
	}

	if want := int(width) * int(height) * channels; len(pixels) < want {
		m.logger.Warn("texture pixel data too short, using default",
			zap.String("key", key),
			zap.Int("bytes", len(pixels)),
			zap.Int("expected", want),
		)
		return m.Default()
	}

	tex, err := m.build(key, DecodedImage{Pixels: pixels, Width: width, Height: height, Channels: channels}, generateMipmaps, format)
	if err != nil {
		m.logger.Warn("texture creation failed, using default", zap.String("key", key), zap.Error(err))
		return m.Default()
	}

	existing, stored := m.cache.PutIfAbsent(key, tex)
	if !stored {
		m.logger.Info("texture name already in use, returning existing texture", zap.String("key", key))
	}
	return existing
}

func (m *manager) Default() *Texture {
	m.defaultMu.Lock()
	defer m.defaultMu.Unlock()

	if m.defaultTex == nil {
		m.defaultTex = m.createDefault()
	}
	m.cache.PutIfAbsent(DefaultTextureKey, m.defaultTex)
	return m.defaultTex
}

// createDefault builds the fallback texture. If the backend cannot allocate even a 1x1 texture, a
// texture without GPU objects is returned so callers still receive a non-nil value.
func (m *manager) createDefault() *Texture {
	staging := common.TextureStagingData{
		Label:    DefaultTextureKey,
		Pixels:   m.defaultTint[:],
		Width:    1,
		Height:   1,
		Channels: 4,
		Format:   wgpu.TextureFormatRGBA8UnormSrgb,
	}

	gpu, err := m.backend.CreateTexture(staging)
	if err != nil {
		m.logger.Error("failed to allocate default texture", zap.Error(err))
		gpu = nil
	}

	var sampler GPUSampler
	if gpu != nil {
		sampler, err = m.backend.CreateSampler(DefaultTextureKey, m.sampler)
		if err != nil {
			m.logger.Error("failed to create default sampler", zap.Error(err))
			sampler = nil
		}
	}

	tex := newTexture(DefaultTextureKey, staging, gpu, sampler, m.sampler)
	tex.isDefault = true
	return tex
}

func (m *manager) Sampled(tex *Texture, data common.SamplerStagingData) (*Texture, error) {
	if tex == nil {
		panic("texture: Sampled requires a texture")
	}
	if tex.IsDefault() || tex.SamplerData() == data {
		return tex, nil
	}

	base := tex.Base()
	if base.SamplerData() == data {
		return base, nil
	}

	key := viewKey(base.Name(), data)
	if view, ok := m.views.Get(key); ok && view.Base() == base {
		return view, nil
	}

	sampler, err := m.backend.CreateSampler(base.Name(), data)
	if err != nil {
		return tex, fmt.Errorf("failed to create sampler for %s: %w", base.Name(), err)
	}

	view := newView(base, sampler, data)
	if existing, stored := m.views.PutIfAbsent(key, view); !stored {
		if existing.Base() == base {
			return existing, nil
		}
		// the cached view belongs to a texture that was since released and reloaded under the same name
		m.views.Put(key, view)
	}
	return view, nil
}

// viewKey names the sampled view of the texture cached under name.
func viewKey(name string, data common.SamplerStagingData) string {
	return fmt.Sprintf("%s?sampler=%v", name, data)
}

func (m *manager) Lookup(identifier string) (*Texture, bool) {
	return m.cache.Get(m.Resolve(identifier))
}

func (m *manager) Resolve(identifier string) string {
	if identifier == DefaultTextureKey {
		return identifier
	}
	return resource.ResolvePath(identifier, m.BaseDirectory())
}

func (m *manager) Release(identifier string) bool {
	key := m.Resolve(identifier)
	if key == DefaultTextureKey {
		return false
	}
	return m.cache.Delete(key)
}

func (m *manager) ReleaseAll() {
	m.cache.Clear()
	m.views.Clear()

	m.defaultMu.Lock()
	defer m.defaultMu.Unlock()
	if m.defaultTex != nil {
		m.cache.Put(DefaultTextureKey, m.defaultTex)
	}
}

func (m *manager) Prune() int {
	return m.cache.Prune() + m.views.Prune()
}

func (m *manager) SetBaseDirectory(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

func (m *manager) BaseDirectory() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseDir
}

func (m *manager) Len() int {
	return m.cache.Len()
}

func (m *manager) Stats() resource.CacheStats {
	return m.cache.Stats()
}

// insert caches tex under key unless another goroutine cached a live texture first, in which case the
// existing texture wins and tex is left for collection.
func (m *manager) insert(key string, tex *Texture) *Texture {
	existing, stored := m.cache.PutIfAbsent(key, tex)
	if !stored {
		m.logger.Debug("texture loaded concurrently, keeping cached copy", zap.String("key", key))
	}
	return existing
}

// loadFile reads, decodes and uploads the file at key.
func (m *manager) loadFile(key string, generateMipmaps bool, format wgpu.TextureFormat) (*Texture, error) {
	data, err := resource.ReadAsset(key)
	if err != nil {
		return nil, err
	}
	return m.decodeAndBuild(key, data, generateMipmaps, format)
}

// decodeAndBuild decodes encoded image bytes and uploads them.
func (m *manager) decodeAndBuild(key string, data []byte, generateMipmaps bool, format wgpu.TextureFormat) (*Texture, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	format = common.Coalesce(format, m.format)
	img, err := m.decoder.Decode(data, FormatChannels(format))
	if err != nil {
		return nil, err
	}
	return m.build(key, img, generateMipmaps, format)
}

// build repairs the channel layout of img for format, optionally generates mips, and creates the GPU
// texture and its sampler.
func (m *manager) build(key string, img DecodedImage, generateMipmaps bool, format wgpu.TextureFormat) (*Texture, error) {
	format = common.Coalesce(format, m.format)
	want := FormatChannels(format)
	if want == 0 {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, format)
	}
	if img.Width == 0 || img.Height == 0 {
		return nil, errors.New("image has zero extent")
	}

	pixels, err := ConvertChannels(img.Pixels, img.Channels, want)
	if err != nil {
		return nil, err
	}
	if img.Channels != want {
		m.logger.Debug("repaired texture channels",
			zap.String("key", key),
			zap.Int("from", img.Channels),
			zap.Int("to", want),
		)
	}

	staging := common.TextureStagingData{
		Label:    key,
		Pixels:   pixels,
		Width:    img.Width,
		Height:   img.Height,
		Channels: want,
		Format:   format,
	}
	if generateMipmaps {
		staging.MipLevels = GenerateMipChain(pixels, img.Width, img.Height, want)
	}

	gpu, err := m.backend.CreateTexture(staging)
	if err != nil {
		return nil, fmt.Errorf("failed to create GPU texture: %w", err)
	}

	sampler, err := m.backend.CreateSampler(key, m.sampler)
	if err != nil {
		gpu.Release()
		return nil, fmt.Errorf("failed to create sampler: %w", err)
	}

	return newTexture(key, staging, gpu, sampler, m.sampler), nil
}
