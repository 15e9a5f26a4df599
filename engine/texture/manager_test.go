package texture

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-assets/engine/resource"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestManager(t *testing.T, options ...ManagerBuilderOption) (Manager, *fakeBackend, *countingDecoder, string) {
	t.Helper()
	backend := &fakeBackend{}
	decoder := newCountingDecoder()
	dir := t.TempDir()
	m := NewManager(backend, append([]ManagerBuilderOption{WithDecoder(decoder), WithBaseDirectory(dir)}, options...)...)
	return m, backend, decoder, dir
}

func TestManagerGetOrLoadCachesByResolvedPath(t *testing.T) {
	m, _, decoder, dir := newTestManager(t)
	writeFile(t, dir, "textures/brick.png", encodePNG(t, 4, 2))

	tex := m.GetOrLoad("textures/brick.png", false, wgpu.TextureFormatUndefined)
	require.NotNil(t, tex)
	assert.False(t, tex.IsDefault())
	assert.Equal(t, uint32(4), tex.Width())
	assert.Equal(t, uint32(2), tex.Height())
	assert.Equal(t, 4, tex.Channels())
	assert.Equal(t, wgpu.TextureFormatRGBA8UnormSrgb, tex.Format())
	assert.Equal(t, filepath.Join(dir, "textures", "brick.png"), tex.Name())

	again := m.GetOrLoad("./textures/../textures/brick.png", false, wgpu.TextureFormatUndefined)
	assert.Same(t, tex, again)
	assert.Equal(t, int32(1), decoder.calls.Load())
}

func TestManagerDefaultSampler(t *testing.T) {
	m, _, _, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))

	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)
	sampler := tex.SamplerData()
	assert.Equal(t, wgpu.FilterModeLinear, sampler.MagFilter)
	assert.Equal(t, wgpu.FilterModeLinear, sampler.MinFilter)
	assert.Equal(t, wgpu.AddressModeRepeat, sampler.AddressModeU)
	assert.Equal(t, wgpu.AddressModeRepeat, sampler.AddressModeV)
	assert.Equal(t, uint16(16), sampler.MaxAnisotropy)
	assert.NotNil(t, tex.Sampler())
}

func TestManagerFallbacks(t *testing.T) {
	cases := map[string][]byte{
		"missing.png":   nil,
		"empty.png":     {},
		"truncated.png": nil,
		"garbage.png":   []byte("definitely not an image"),
	}

	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			m, _, _, dir := newTestManager(t, WithLogger(zap.New(core)))

			switch name {
			case "empty.png", "garbage.png":
				writeFile(t, dir, name, data)
			case "truncated.png":
				full := encodePNG(t, 8, 8)
				writeFile(t, dir, name, full[:len(full)/2])
			}

			tex := m.GetOrLoad(name, true, wgpu.TextureFormatUndefined)
			require.NotNil(t, tex)
			assert.True(t, tex.IsDefault())
			assert.Same(t, m.Default(), tex)
			assert.Equal(t, uint32(1), tex.Width())
			assert.Equal(t, uint32(1), tex.Height())

			_, ok := m.Lookup(name)
			assert.False(t, ok, "failed loads must not be cached under their path")
			assert.Equal(t, 1, logs.FilterMessage("texture load failed, using default").Len())
		})
	}
}

func TestManagerBackendFailureFallsBack(t *testing.T) {
	m, backend, _, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))
	def := m.Default()

	backend.failTextures.Store(true)
	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)
	assert.Same(t, def, tex)

	backend.failTextures.Store(false)
	backend.failSamplers.Store(true)
	before := backend.releasedTextures.Load()
	tex = m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)
	assert.Same(t, def, tex)
	assert.Equal(t, before+1, backend.releasedTextures.Load(), "texture must be released when its sampler fails")
}

func TestManagerDefaultSurvivesAllocationFailure(t *testing.T) {
	m, backend, _, _ := newTestManager(t)
	backend.failTextures.Store(true)

	def := m.Default()
	require.NotNil(t, def)
	assert.True(t, def.IsDefault())
	assert.Nil(t, def.GPU())
}

func TestManagerRepairsChannels(t *testing.T) {
	m, backend, _, dir := newTestManager(t)
	writeFile(t, dir, "photo.jpg", encodeJPEG(t, 3, 2))

	tex := m.GetOrLoad("photo.jpg", false, wgpu.TextureFormatRGBA8Unorm)
	require.False(t, tex.IsDefault())

	staged := backend.lastCreated()
	assert.Equal(t, 4, staged.Channels)
	assert.Len(t, staged.Pixels, 3*2*4)
	for i := 3; i < len(staged.Pixels); i += 4 {
		assert.Equal(t, byte(255), staged.Pixels[i], "synthesized alpha must be opaque")
	}
}

func TestManagerSingleChannelFormat(t *testing.T) {
	m, backend, _, dir := newTestManager(t)
	writeFile(t, dir, "mask.png", encodePNG(t, 2, 2))

	tex := m.GetOrLoad("mask.png", false, wgpu.TextureFormatR8Unorm)
	require.False(t, tex.IsDefault())
	assert.Equal(t, 1, tex.Channels())
	assert.Len(t, backend.lastCreated().Pixels, 4)
}

func TestManagerUnsupportedFormatFallsBack(t *testing.T) {
	m, _, _, dir := newTestManager(t)
	writeFile(t, dir, "depth.png", encodePNG(t, 2, 2))

	tex := m.GetOrLoad("depth.png", false, wgpu.TextureFormatDepth32Float)
	assert.True(t, tex.IsDefault())
}

func TestManagerGeneratesMipmaps(t *testing.T) {
	m, backend, _, dir := newTestManager(t)
	writeFile(t, dir, "wide.png", encodePNG(t, 8, 4))

	tex := m.GetOrLoad("wide.png", true, wgpu.TextureFormatUndefined)
	assert.Equal(t, uint32(4), tex.MipLevelCount())

	staged := backend.lastCreated()
	require.Len(t, staged.MipLevels, 3)
	assert.Len(t, staged.MipLevels[0], 4*2*4)
	assert.Len(t, staged.MipLevels[1], 2*1*4)
	assert.Len(t, staged.MipLevels[2], 1*1*4)
}

func TestManagerLoadsCompressedAssets(t *testing.T) {
	m, _, _, dir := newTestManager(t)
	packed, err := resource.Compress(encodePNG(t, 2, 2))
	require.NoError(t, err)
	writeFile(t, dir, "brick.png.lz4", packed)

	tex := m.GetOrLoad("brick.png.lz4", false, wgpu.TextureFormatUndefined)
	assert.False(t, tex.IsDefault())
	assert.Equal(t, uint32(2), tex.Width())
}

func TestManagerCreateTextureConflict(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	m, backend, _, _ := newTestManager(t, WithLogger(zap.New(core)))

	red := []byte{255, 0, 0, 255}
	blue := []byte{0, 0, 255, 255}

	first := m.CreateTexture("procedural/solid", red, 1, 1, wgpu.TextureFormatUndefined, 4, false)
	require.False(t, first.IsDefault())
	created := backend.textures.Load()

	second := m.CreateTexture("procedural/solid", blue, 1, 1, wgpu.TextureFormatUndefined, 4, false)
	assert.Same(t, first, second)
	assert.Equal(t, created, backend.textures.Load(), "conflicting create must not allocate")
	assert.Equal(t, 1, logs.FilterMessage("texture name already in use, returning existing texture").Len())
}

func TestManagerCreateTextureExpandsChannels(t *testing.T) {
	m, backend, _, _ := newTestManager(t)

	tex := m.CreateTexture("gray", []byte{10, 20, 30, 40}, 2, 2, wgpu.TextureFormatUndefined, 1, false)
	require.False(t, tex.IsDefault())
	assert.Equal(t, []byte{10, 10, 10, 255, 20, 20, 20, 255, 30, 30, 30, 255, 40, 40, 40, 255}, backend.lastCreated().Pixels)
}

func TestManagerCreateTextureShortPixelsFallsBack(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	tex := m.CreateTexture("short", []byte{1, 2, 3}, 2, 2, wgpu.TextureFormatUndefined, 4, false)
	assert.True(t, tex.IsDefault())
}

func TestManagerProgrammingErrorsPanic(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	assert.Panics(t, func() { m.CreateTexture("", []byte{1, 2, 3, 4}, 1, 1, 0, 4, false) })
	assert.Panics(t, func() { m.CreateTexture("x", nil, 1, 1, 0, 4, false) })
	assert.Panics(t, func() { m.CreateTexture("x", []byte{1}, 0, 1, 0, 1, false) })
	assert.Panics(t, func() { m.GetOrLoad("", false, 0) })
	assert.Panics(t, func() { m.LoadFromMemory("", []byte{1}, false, 0) })
	assert.Panics(t, func() { NewManager(nil) })
}

func TestManagerLoadFromMemory(t *testing.T) {
	m, _, decoder, _ := newTestManager(t)
	data := encodePNG(t, 2, 2)

	tex := m.LoadFromMemory("chair.glb#image0", data, false, wgpu.TextureFormatUndefined)
	require.False(t, tex.IsDefault())
	assert.Same(t, tex, m.LoadFromMemory("chair.glb#image0", data, false, wgpu.TextureFormatUndefined))
	assert.Equal(t, int32(1), decoder.calls.Load())

	assert.True(t, m.LoadFromMemory("broken", nil, false, wgpu.TextureFormatUndefined).IsDefault())
}

// loadAndDrop loads a texture without keeping a reference past the call.
func loadAndDrop(m Manager, name string) {
	tex := m.GetOrLoad(name, false, wgpu.TextureFormatUndefined)
	_ = tex.Width()
}

func TestManagerExpiredEntryIsReloaded(t *testing.T) {
	m, backend, decoder, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))

	loadAndDrop(m, "brick.png")
	require.Equal(t, int32(1), decoder.calls.Load())

	require.Eventually(t, func() bool {
		runtime.GC()
		_, ok := m.Lookup("brick.png")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)
	assert.False(t, tex.IsDefault())
	assert.Equal(t, int32(2), decoder.calls.Load())

	require.Eventually(t, func() bool {
		runtime.GC()
		return backend.releasedTextures.Load() >= 1
	}, 2*time.Second, 10*time.Millisecond, "collected textures must release their GPU memory")
	runtime.KeepAlive(tex)
}

func TestManagerReleaseKeepsHolderValid(t *testing.T) {
	m, _, decoder, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))

	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)
	assert.True(t, m.Release("brick.png"))
	assert.False(t, m.Release("brick.png"))
	assert.NotNil(t, tex.GPU())

	reloaded := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)
	assert.NotSame(t, tex, reloaded)
	assert.Equal(t, int32(2), decoder.calls.Load())
}

func TestManagerReleaseAllKeepsDefault(t *testing.T) {
	m, _, _, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))

	def := m.Default()
	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)
	assert.Equal(t, 2, m.Len())

	m.ReleaseAll()
	assert.Equal(t, 1, m.Len())
	got, ok := m.Lookup(DefaultTextureKey)
	require.True(t, ok)
	assert.Same(t, def, got)
	assert.False(t, m.Release(DefaultTextureKey))
	runtime.KeepAlive(tex)
}

func TestManagerBaseDirectoryAffectsFutureResolutionOnly(t *testing.T) {
	m, _, _, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))
	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)

	other := t.TempDir()
	m.SetBaseDirectory(other)
	assert.Equal(t, other, m.BaseDirectory())
	assert.Equal(t, filepath.Join(other, "brick.png"), m.Resolve("brick.png"))

	got, ok := m.Lookup(filepath.Join(dir, "brick.png"))
	require.True(t, ok)
	assert.Same(t, tex, got)
}

func TestManagerSampledReturnsSharedView(t *testing.T) {
	m, backend, _, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))
	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)
	held := tex.Sampler()

	same, err := m.Sampled(tex, tex.SamplerData())
	require.NoError(t, err)
	assert.Same(t, tex, same)
	assert.Equal(t, int32(1), backend.samplers.Load())

	data := tex.SamplerData()
	data.MaxAnisotropy = 1
	view, err := m.Sampled(tex, data)
	require.NoError(t, err)
	assert.NotSame(t, tex, view)
	assert.Same(t, tex, view.Base())
	assert.Equal(t, uint16(1), view.SamplerData().MaxAnisotropy)
	assert.Equal(t, tex.Name(), view.Name())
	assert.Equal(t, tex.GPU(), view.GPU())

	assert.Equal(t, uint16(16), tex.SamplerData().MaxAnisotropy, "the cached texture is never reconfigured")
	assert.Same(t, held.(*fakeSampler), tex.Sampler().(*fakeSampler))
	assert.Equal(t, int32(0), backend.releasedSamplers.Load())

	again, err := m.Sampled(view, data)
	require.NoError(t, err)
	assert.Same(t, view, again)
	fromBase, err := m.Sampled(tex, data)
	require.NoError(t, err)
	assert.Same(t, view, fromBase, "consumers asking for the same sampling share one view")
	back, err := m.Sampled(view, tex.SamplerData())
	require.NoError(t, err)
	assert.Same(t, tex, back)
	assert.Equal(t, int32(2), backend.samplers.Load())

	def := m.Default()
	got, err := m.Sampled(def, data)
	require.NoError(t, err)
	assert.Same(t, def, got)
	assert.Equal(t, uint16(16), def.SamplerData().MaxAnisotropy)

	assert.Panics(t, func() { _, _ = m.Sampled(nil, data) })
	runtime.KeepAlive(view)
}

func TestManagerSampledFailureKeepsTexture(t *testing.T) {
	m, backend, _, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))
	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)

	backend.failSamplers.Store(true)
	data := tex.SamplerData()
	data.MagFilter = wgpu.FilterModeNearest
	got, err := m.Sampled(tex, data)
	assert.Error(t, err)
	assert.Same(t, tex, got)
	assert.Equal(t, wgpu.FilterModeLinear, tex.SamplerData().MagFilter)
}

func makeDroppedView(t *testing.T, m Manager, tex *Texture) {
	data := tex.SamplerData()
	data.MaxAnisotropy = 4
	view, err := m.Sampled(tex, data)
	require.NoError(t, err)
	_ = view.Width()
}

func TestManagerCollectedViewReleasesOnlyItsSampler(t *testing.T) {
	m, backend, _, dir := newTestManager(t)
	writeFile(t, dir, "brick.png", encodePNG(t, 2, 2))
	tex := m.GetOrLoad("brick.png", false, wgpu.TextureFormatUndefined)

	makeDroppedView(t, m, tex)
	require.Eventually(t, func() bool {
		runtime.GC()
		return backend.releasedSamplers.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(0), backend.releasedTextures.Load())
	assert.NotNil(t, tex.GPU())
	assert.Equal(t, 1, m.Prune())
	runtime.KeepAlive(tex)
}
