// Package loader turns model files into scene subtrees. Format support is provided by ModelLoader
// strategies; the ModelManager caches loaded subtrees weakly by resolved path and deduplicates concurrent
// loads of the same file.
package loader

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/resource"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"
	"github.com/Carmen-Shannon/oxy-assets/engine/texture"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// modelManager is the implementation of the ModelManager interface.
type modelManager struct {
	mu       sync.RWMutex
	baseDir  string
	defaults common.LoadOptions
	loaders  []ModelLoader

	// customLoaders is set by WithLoaders and suppresses the built-in loaders.
	customLoaders bool

	cache       resource.Cache[scene.Node]
	coordinator resource.Coordinator[scene.Node]

	logger     *zap.Logger
	pool       worker.DynamicWorkerPool
	registerer prometheus.Registerer
}

// ModelManager loads model files into scene subtrees and caches each subtree weakly under its resolved
// path. The cache never keeps a model alive: once the scene (or caller) holding a subtree drops it, the
// next request for the path loads the file again.
//
// A request for a cached model attached somewhere else than the caller asked for receives a clone of the
// cached subtree. Clones copy transforms and share meshes and materials.
type ModelManager interface {
	// LoadModel returns the subtree for identifier, blocking until it is available. A load already in
	// flight for the same path is waited on rather than repeated.
	//
	// Parameters:
	//   - identifier: the file path, resolved against the manager's base directory
	//   - target: the scene to attach to, may be nil
	//   - parent: the attachment point; nil selects the scene root
	//   - opts: the load options; nil selects the manager defaults
	//
	// Returns:
	//   - *scene.Node: the subtree root, or nil if the model could not be loaded
	LoadModel(identifier string, target scene.Scene, parent *scene.Node, opts *common.LoadOptions) *scene.Node

	// LoadModelAsync starts loading identifier on the worker pool, or attaches to the load already in
	// flight for it. Like LoadModel, a request joining an in-flight load receives the shared subtree when it
	// hangs at the requested attachment point and a clone attached there otherwise; the joiner's handle
	// resolves after that placement.
	//
	// Parameters:
	//   - identifier: the file path, resolved against the manager's base directory
	//   - target: the scene to attach to, may be nil
	//   - parent: the attachment point; nil selects the scene root
	//   - opts: the load options; nil selects the manager defaults
	//
	// Returns:
	//   - *resource.Pending[scene.Node]: the handle resolving to the subtree root, or to nil on failure
	LoadModelAsync(identifier string, target scene.Scene, parent *scene.Node, opts *common.LoadOptions) *resource.Pending[scene.Node]

	// Instantiate attaches a clone of a cached model without touching the disk.
	//
	// Parameters:
	//   - identifier: the file path
	//   - target: the scene to attach to, may be nil
	//   - parent: the attachment point; nil selects the scene root
	//
	// Returns:
	//   - *scene.Node: the clone, or nil if the model is not cached or has been collected
	Instantiate(identifier string, target scene.Scene, parent *scene.Node) *scene.Node

	// UnloadModel removes identifier from the cache. Subtrees already attached stay valid.
	//
	// Parameters:
	//   - identifier: the file path
	//
	// Returns:
	//   - bool: false while a load for identifier is in flight or if nothing was cached, true otherwise
	UnloadModel(identifier string) bool

	// IsPending reports whether a load for identifier is in flight.
	//
	// Parameters:
	//   - identifier: the file path
	//
	// Returns:
	//   - bool: true while in flight
	IsPending(identifier string) bool

	// RegisterLoader appends a format strategy. Earlier registrations take priority.
	//
	// Parameters:
	//   - l: the loader (must not be nil)
	RegisterLoader(l ModelLoader)

	// SetBaseDirectory sets the directory relative identifiers are resolved against.
	//
	// Parameters:
	//   - dir: the base directory
	SetBaseDirectory(dir string)

	// BaseDirectory returns the current base directory.
	//
	// Returns:
	//   - string: the base directory
	BaseDirectory() string

	// SetDefaultOptions sets the options used for requests that pass nil.
	//
	// Parameters:
	//   - opts: the default options
	SetDefaultOptions(opts common.LoadOptions)

	// Sweep removes bookkeeping for resolved loads and collected models. It never blocks on a load.
	//
	// Returns:
	//   - int: the number of records removed
	Sweep() int

	// WaitAll blocks until every load started so far has resolved.
	WaitAll()

	// Len returns the number of cache entries, including loads in flight.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Close waits for every in-flight load, then clears the cache and the loader registry.
	Close()
}

var _ ModelManager = &modelManager{}

// NewModelManager creates a ModelManager with the glTF and Collada loaders registered.
//
// Parameters:
//   - textures: the texture manager material textures are loaded through; nil loads models without textures
//   - options: a variadic list of ModelManagerBuilderOption functions to configure the ModelManager
//
// Returns:
//   - ModelManager: the new manager
func NewModelManager(textures texture.Manager, options ...ModelManagerBuilderOption) ModelManager {
	m := &modelManager{
		defaults: common.DefaultLoadOptions(),
		logger:   zap.NewNop(),
	}

	for _, option := range options {
		option(m)
	}
	if !m.customLoaders {
		m.loaders = []ModelLoader{NewGLTFLoader(textures, m.logger), NewColladaLoader()}
	}

	m.cache = resource.NewCache[scene.Node](
		resource.WithCacheName("models"),
		resource.WithCacheLogger(m.logger),
		resource.WithCacheMetrics(m.registerer),
	)
	m.coordinator = resource.NewCoordinator[scene.Node](m.cache, nil,
		resource.WithCoordinatorName("models"),
		resource.WithCoordinatorLogger(m.logger),
		resource.WithCoordinatorMetrics(m.registerer),
		resource.WithWorkerPool(m.pool),
	)
	return m
}

func (m *modelManager) LoadModel(identifier string, target scene.Scene, parent *scene.Node, opts *common.LoadOptions) *scene.Node {
	key, o := m.prepare(identifier, opts)

	pending, owner := m.coordinator.Acquire(key)
	if owner {
		return m.coordinator.Run(pending, m.loadFunc(key, target, parent, o), o.CacheResult)
	}
	return m.place(key, pending.Wait(), target, parent)
}

func (m *modelManager) LoadModelAsync(identifier string, target scene.Scene, parent *scene.Node, opts *common.LoadOptions) *resource.Pending[scene.Node] {
	key, o := m.prepare(identifier, opts)

	pending, owner := m.coordinator.Acquire(key)
	if owner {
		m.coordinator.Dispatch(pending, m.loadFunc(key, target, parent, o), o.CacheResult)
		return pending
	}
	return resource.Derive(pending, func(node *scene.Node) *scene.Node {
		return m.place(key, node, target, parent)
	})
}

// prepare validates the request and resolves its key and effective options.
func (m *modelManager) prepare(identifier string, opts *common.LoadOptions) (string, common.LoadOptions) {
	if identifier == "" {
		panic("loader: model requests require an identifier")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return resource.ResolvePath(identifier, m.baseDir), common.ResolveLoadOptions(opts, m.defaults)
}

// loadFunc builds the work performed for one key with the loader selected for its extension.
func (m *modelManager) loadFunc(key string, target scene.Scene, parent *scene.Node, opts common.LoadOptions) resource.LoadFunc[scene.Node] {
	ldr := m.loaderFor(resource.Ext(key))
	return func() (*scene.Node, error) {
		if ldr == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoLoader, key)
		}
		m.logger.Debug("loading model", zap.String("key", key), zap.String("loader", ldr.Name()))
		return ldr.Load(key, target, parent, opts)
	}
}

// loaderFor returns the first registered loader supporting ext, or nil.
func (m *modelManager) loaderFor(ext string) ModelLoader {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.loaders {
		if l.SupportsFormat(ext) {
			return l
		}
	}
	return nil
}

// place returns node when it already hangs where the caller asked for it, otherwise a clone attached
// at the requested point.
func (m *modelManager) place(key string, node *scene.Node, target scene.Scene, parent *scene.Node) *scene.Node {
	if node == nil {
		return nil
	}

	want := parent
	if want == nil && target != nil {
		want = target.Root()
	}
	if want == nil || node.Parent() == want {
		return node
	}

	m.logger.Debug("cloning cached model for new attachment point", zap.String("key", key))
	clone := node.Clone()
	attach(clone, target, parent)
	return clone
}

func (m *modelManager) Instantiate(identifier string, target scene.Scene, parent *scene.Node) *scene.Node {
	key := resource.ResolvePath(identifier, m.BaseDirectory())
	node, ok := m.cache.Get(key)
	if !ok {
		return nil
	}

	clone := node.Clone()
	attach(clone, target, parent)
	return clone
}

func (m *modelManager) UnloadModel(identifier string) bool {
	key := resource.ResolvePath(identifier, m.BaseDirectory())
	if m.coordinator.IsPending(key) {
		m.logger.Info("model load in flight, refusing unload", zap.String("key", key))
		return false
	}
	return m.cache.Delete(key)
}

func (m *modelManager) IsPending(identifier string) bool {
	return m.coordinator.IsPending(resource.ResolvePath(identifier, m.BaseDirectory()))
}

func (m *modelManager) RegisterLoader(l ModelLoader) {
	if l == nil {
		panic("loader: RegisterLoader requires a loader")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders = append(m.loaders, l)
}

func (m *modelManager) SetBaseDirectory(dir string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.baseDir = dir
}

func (m *modelManager) BaseDirectory() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.baseDir
}

func (m *modelManager) SetDefaultOptions(opts common.LoadOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = opts
}

func (m *modelManager) Sweep() int {
	return m.coordinator.Sweep() + m.cache.Prune()
}

func (m *modelManager) WaitAll() {
	m.coordinator.WaitAll()
}

func (m *modelManager) Len() int {
	return m.cache.Len()
}

func (m *modelManager) Close() {
	m.coordinator.Close()
	m.cache.Clear()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaders = nil
}
