package loader

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/resource"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestManager(t *testing.T, options ...ModelManagerBuilderOption) ModelManager {
	t.Helper()
	m := NewModelManager(nil, options...)
	t.Cleanup(m.Close)
	return m
}

func TestModelManagerInstantiatesSharedMeshes(t *testing.T) {
	dir := t.TempDir()
	textures, backend := newTestTextures()
	doc, bin := chairDocument(t)
	bin = withEmbeddedImage(doc, bin, encodePNG(t))
	writeFile(t, dir, "chair.glb", encodeGLB(t, doc, bin))

	m := NewModelManager(textures, WithBaseDirectory(dir))
	t.Cleanup(m.Close)
	level := scene.NewScene("level")

	original := m.LoadModel("chair.glb", level, nil, nil)
	require.NotNil(t, original)
	assert.Equal(t, filepath.Join(dir, "chair.glb"), original.Source())
	uploads := backend.textures.Load()

	for i := 0; i < 3; i++ {
		clone := m.Instantiate("chair.glb", level, nil)
		require.NotNil(t, clone)
		assert.NotSame(t, original, clone)
		assert.Same(t, level.Root(), clone.Parent())
		assert.Same(t, original.Find("seat").Meshes()[0], clone.Find("seat").Meshes()[0])
		assert.Same(t,
			original.Find("seat").Meshes()[0].Material().DiffuseTexture(),
			clone.Find("back").Meshes()[0].Material().DiffuseTexture(),
		)
	}

	assert.Len(t, level.Root().Children(), 4)
	assert.Equal(t, uploads, backend.textures.Load(), "instances upload nothing")
	assert.Equal(t, 1, m.Len())
}

func TestModelManagerLoadIsIdempotent(t *testing.T) {
	fake := newFakeLoader("fake", ".gltf")
	m := newTestManager(t, WithLoaders(fake), WithBaseDirectory(t.TempDir()))
	level := scene.NewScene("level")

	first := m.LoadModel("crate.gltf", level, nil, nil)
	require.NotNil(t, first)
	again := m.LoadModel("crate.gltf", level, nil, nil)
	assert.Same(t, first, again)
	assert.Equal(t, int32(1), fake.calls.Load())

	shelf := scene.NewNode("shelf")
	level.Attach(shelf, nil)
	onShelf := m.LoadModel("crate.gltf", level, shelf, nil)
	require.NotNil(t, onShelf)
	assert.NotSame(t, first, onShelf)
	assert.Same(t, shelf, onShelf.Parent())
	assert.Same(t, first.Meshes()[0], onShelf.Meshes()[0])
	assert.Equal(t, int32(1), fake.calls.Load())
}

func TestModelManagerRefusesUnloadWhileLoading(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	gated := newGatedLoader("gated", ".gltf")
	m := newTestManager(t, WithLoaders(gated), WithLogger(zap.New(core)), WithBaseDirectory(t.TempDir()))

	pending := m.LoadModelAsync("terrain.gltf", nil, nil, nil)
	<-gated.entered

	assert.True(t, m.IsPending("terrain.gltf"))
	assert.False(t, m.UnloadModel("terrain.gltf"))
	assert.Equal(t, 1, logs.FilterMessage("model load in flight, refusing unload").Len())
	assert.Nil(t, m.Instantiate("terrain.gltf", nil, nil), "reserved entries are not served")

	close(gated.gate)
	node := pending.Wait()
	require.NotNil(t, node)
	assert.Equal(t, "terrain.gltf", node.Name())
	assert.False(t, m.IsPending("terrain.gltf"))
	assert.NotNil(t, m.Instantiate("terrain.gltf", nil, nil))

	assert.True(t, m.UnloadModel("terrain.gltf"))
	assert.Nil(t, m.Instantiate("terrain.gltf", nil, nil))
	assert.False(t, m.UnloadModel("terrain.gltf"))
	runtime.KeepAlive(node)
}

func TestModelManagerAsyncRequestsShareOneLoad(t *testing.T) {
	gated := newGatedLoader("gated", ".gltf")
	m := newTestManager(t, WithLoaders(gated), WithBaseDirectory(t.TempDir()))
	level := scene.NewScene("level")
	shelf := scene.NewNode("shelf")
	level.Attach(shelf, nil)

	first := m.LoadModelAsync("tower.gltf", level, nil, nil)
	<-gated.entered
	second := m.LoadModelAsync("tower.gltf", level, nil, nil)
	onShelf := m.LoadModelAsync("tower.gltf", level, shelf, nil)
	assert.False(t, first.Ready())
	assert.False(t, second.Ready())
	assert.Equal(t, "tower.gltf", onShelf.Key())

	close(gated.gate)
	node := first.Wait()
	require.NotNil(t, node)
	assert.Same(t, node, second.Wait(), "a joiner at the same attachment point shares the subtree")

	clone := onShelf.Wait()
	require.NotNil(t, clone)
	assert.NotSame(t, node, clone)
	assert.Same(t, shelf, clone.Parent(), "a joiner elsewhere receives a clone placed where it asked")
	assert.Same(t, node.Meshes()[0], clone.Meshes()[0])

	m.WaitAll()
	assert.Equal(t, int32(1), gated.calls.Load())
	assert.Len(t, level.Root().Children(), 2)
	assert.Len(t, shelf.Children(), 1)

	// a later async request for a ready model resolves immediately
	third := m.LoadModelAsync("tower.gltf", level, shelf, nil)
	require.True(t, third.Ready())
	again, _ := third.Value()
	require.NotNil(t, again)
	assert.Same(t, shelf, again.Parent())
	assert.Equal(t, int32(1), gated.calls.Load())
}

func TestModelManagerFailedLoadLeavesNoEntry(t *testing.T) {
	fake := newFakeLoader("fake", ".gltf")
	fake.fail = true
	m := newTestManager(t, WithLoaders(fake), WithBaseDirectory(t.TempDir()))

	assert.Nil(t, m.LoadModel("broken.gltf", nil, nil, nil))
	assert.Equal(t, 0, m.Len())
	assert.False(t, m.IsPending("broken.gltf"))

	fake.fail = false
	node := m.LoadModel("broken.gltf", nil, nil, nil)
	assert.NotNil(t, node)
	assert.Equal(t, int32(2), fake.calls.Load(), "failures are not cached")
	runtime.KeepAlive(node)
}

func TestModelManagerWithoutLoader(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	m := newTestManager(t, WithLogger(zap.New(core)), WithBaseDirectory(t.TempDir()))

	assert.Nil(t, m.LoadModel("rock.fbx", nil, nil, nil))
	assert.Equal(t, 0, m.Len())

	failures := logs.FilterMessage("load failed").All()
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].ContextMap()["error"], ErrNoLoader.Error())
}

func TestModelManagerLoaderPriority(t *testing.T) {
	first := newFakeLoader("first", ".gltf")
	second := newFakeLoader("second", ".gltf")
	obj := newFakeLoader("obj", ".obj")
	m := newTestManager(t, WithLoaders(first, second), WithBaseDirectory(t.TempDir()))
	m.RegisterLoader(obj)

	a := m.LoadModel("a.gltf", nil, nil, nil)
	b := m.LoadModel("b.obj", nil, nil, nil)
	assert.NotNil(t, a)
	assert.NotNil(t, b)
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, int32(0), second.calls.Load())
	assert.Equal(t, int32(1), obj.calls.Load())
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}

func TestModelManagerOptions(t *testing.T) {
	fake := newFakeLoader("fake", ".gltf")
	m := newTestManager(t, WithLoaders(fake), WithBaseDirectory(t.TempDir()))

	defaults := common.DefaultLoadOptions()
	defaults.ScaleFactor = 3
	m.SetDefaultOptions(defaults)
	node := m.LoadModel("big.gltf", nil, nil, nil)
	require.NotNil(t, node)
	assert.Equal(t, mgl32.Vec3{3, 3, 3}, node.Scale())

	transient := common.DefaultLoadOptions()
	transient.CacheResult = false
	uncached := m.LoadModel("once.gltf", nil, nil, &transient)
	require.NotNil(t, uncached)
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, uncached.Scale())
	assert.Nil(t, m.Instantiate("once.gltf", nil, nil))
	assert.Equal(t, 1, m.Len())
	runtime.KeepAlive(node)
}

func TestModelManagerEntriesExpire(t *testing.T) {
	fake := newFakeLoader("fake", ".gltf")
	m := newTestManager(t, WithLoaders(fake), WithBaseDirectory(t.TempDir()))

	func() {
		require.NotNil(t, m.LoadModel("ghost.gltf", nil, nil, nil))
	}()

	require.Eventually(t, func() bool {
		runtime.GC()
		return m.Instantiate("ghost.gltf", nil, nil) == nil
	}, 2*time.Second, 10*time.Millisecond)

	m.Sweep()
	assert.Equal(t, 0, m.Len())

	require.NotNil(t, m.LoadModel("ghost.gltf", nil, nil, nil))
	assert.Equal(t, int32(2), fake.calls.Load())
}

func TestModelManagerRecoversLoaderPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	fake := newFakeLoader("fake", ".gltf")
	fake.panics = true
	m := newTestManager(t, WithLoaders(fake), WithLogger(zap.New(core)), WithBaseDirectory(t.TempDir()))

	assert.Nil(t, m.LoadModel("cursed.gltf", nil, nil, nil))
	assert.Equal(t, 1, logs.FilterMessage("recovered panic during load").Len())
	assert.False(t, m.IsPending("cursed.gltf"))
}

func TestModelManagerCloseWaitsForLoads(t *testing.T) {
	gated := newGatedLoader("gated", ".gltf")
	m := NewModelManager(nil, WithLoaders(gated), WithBaseDirectory(t.TempDir()))

	pending := m.LoadModelAsync("late.gltf", nil, nil, nil)
	<-gated.entered
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(gated.gate)
	}()

	m.Close()
	assert.True(t, pending.Ready())
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Instantiate("late.gltf", nil, nil))
}

func TestModelManagerBaseDirectory(t *testing.T) {
	dir := t.TempDir()
	fake := newFakeLoader("fake", ".gltf")
	m := newTestManager(t, WithLoaders(fake))
	m.SetBaseDirectory(dir)
	assert.Equal(t, dir, m.BaseDirectory())

	node := m.LoadModel("models/../crate.gltf", nil, nil, nil)
	require.NotNil(t, node)
	assert.Equal(t, resource.ResolvePath("crate.gltf", dir), node.Source())
	assert.NotNil(t, m.Instantiate(filepath.Join(dir, "crate.gltf"), nil, nil), "relative and absolute identifiers share an entry")
	runtime.KeepAlive(node)
}

func TestModelManagerRejectsBadArguments(t *testing.T) {
	m := newTestManager(t)
	assert.Panics(t, func() { m.LoadModel("", nil, nil, nil) })
	assert.Panics(t, func() { m.LoadModelAsync("", nil, nil, nil) })
	assert.Panics(t, func() { m.RegisterLoader(nil) })
}
