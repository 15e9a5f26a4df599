package texture

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-assets/common"
	"github.com/Carmen-Shannon/oxy-assets/engine/resource"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ErrTextureLoadFailed is reported to the coordinator when the Manager answered a request with the
// default texture.
var ErrTextureLoadFailed = errors.New("texture load failed")

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	mu       sync.RWMutex
	baseDir  string
	defaults common.LoadOptions

	manager     Manager
	format      wgpu.TextureFormat
	cache       resource.Cache[Texture]
	coordinator resource.Coordinator[Texture]

	logger     *zap.Logger
	pool       worker.DynamicWorkerPool
	registerer prometheus.Registerer
}

// Pipeline is a request-level front end over a Manager. It keeps its own cache of resolved paths to
// textures and deduplicates requests: however many callers ask for the same path while it loads, the
// Manager loads it once and every caller receives the same texture.
//
// Every failure (missing file, decode error, GPU error, panic in a load) resolves to the Manager's
// default texture.
type Pipeline interface {
	// RequestAsync starts loading identifier on the worker pool, or attaches to the load already in
	// flight for it.
	//
	// Parameters:
	//   - identifier: the file path, resolved against the pipeline's base directory
	//   - opts: the load options; nil selects the pipeline defaults
	//
	// Returns:
	//   - *resource.Pending[Texture]: the handle resolving to the texture
	RequestAsync(identifier string, opts *common.LoadOptions) *resource.Pending[Texture]

	// Load returns the texture for identifier, blocking until it is available. A load already in flight
	// for the same path is waited on rather than repeated.
	//
	// Parameters:
	//   - identifier: the file path, resolved against the pipeline's base directory
	//   - opts: the load options; nil selects the pipeline defaults
	//
	// Returns:
	//   - *Texture: the texture, or the default texture on failure
	Load(identifier string, opts *common.LoadOptions) *Texture

	// WaitForAll blocks until every request started so far has resolved.
	WaitForAll()

	// Sweep removes bookkeeping for resolved requests and collected textures. It never blocks on a load.
	//
	// Returns:
	//   - int: the number of records removed
	Sweep() int

	// IsPending reports whether a load for identifier is in flight.
	//
	// Parameters:
	//   - identifier: the file path
	//
	// Returns:
	//   - bool: true while in flight
	IsPending(identifier string) bool

	// Release removes identifier from the pipeline cache.
	//
	// Parameters:
	//   - identifier: the file path
	//
	// Returns:
	//   - bool: true if an entry was removed
	Release(identifier string) bool

	// Clear removes every pipeline cache entry. In-flight requests are unaffected.
	Clear()

	// SetDefaultOptions sets the options used for requests that pass nil.
	//
	// Parameters:
	//   - opts: the default options
	SetDefaultOptions(opts common.LoadOptions)

	// DefaultOptions returns the options used for requests that pass nil.
	//
	// Returns:
	//   - common.LoadOptions: the default options
	DefaultOptions() common.LoadOptions

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

	// Len returns the number of pipeline cache entries.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// InFlight returns the number of requests currently loading.
	//
	// Returns:
	//   - int: the in-flight count
	InFlight() int

	// Close waits for every request and releases the pipeline's worker pool if it created one.
	Close()
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a Pipeline loading through manager.
//
// Parameters:
//   - manager: the texture manager performing the loads (required)
//   - options: a variadic list of PipelineBuilderOption functions to configure the Pipeline
//
// Returns:
//   - Pipeline: the new pipeline
func NewPipeline(manager Manager, options ...PipelineBuilderOption) Pipeline {
	if manager == nil {
		panic("texture: NewPipeline requires a manager")
	}

	p := &pipeline{
		manager:  manager,
		defaults: common.DefaultLoadOptions(),
		logger:   zap.NewNop(),
	}

	for _, option := range options {
		option(p)
	}

	p.cache = resource.NewCache[Texture](
		resource.WithCacheName("texture_pipeline"),
		resource.WithCacheLogger(p.logger),
		resource.WithCacheMetrics(p.registerer),
	)
	p.coordinator = resource.NewCoordinator(p.cache, manager.Default,
		resource.WithCoordinatorName("texture_pipeline"),
		resource.WithCoordinatorLogger(p.logger),
		resource.WithCoordinatorMetrics(p.registerer),
		resource.WithWorkerPool(p.pool),
	)
	return p
}

func (p *pipeline) RequestAsync(identifier string, opts *common.LoadOptions) *resource.Pending[Texture] {
	key, o := p.prepare(identifier, opts)

	pending, owner := p.coordinator.Acquire(key)
	if owner {
		p.coordinator.Dispatch(pending, p.loadFunc(key, o), o.CacheResult)
	}
	return pending
}

func (p *pipeline) Load(identifier string, opts *common.LoadOptions) *Texture {
	key, o := p.prepare(identifier, opts)

	pending, owner := p.coordinator.Acquire(key)
	if owner {
		return p.coordinator.Run(pending, p.loadFunc(key, o), o.CacheResult)
	}
	return pending.Wait()
}

// prepare validates the request and resolves its key and effective options.
func (p *pipeline) prepare(identifier string, opts *common.LoadOptions) (string, common.LoadOptions) {
	if identifier == "" {
		panic("texture: pipeline requests require an identifier")
	}
	return resource.ResolvePath(identifier, p.BaseDirectory()), common.ResolveLoadOptions(opts, p.DefaultOptions())
}

// loadFunc builds the work performed for one key. A default texture from the manager is reported as a
// failure so the coordinator does not cache it under the requested path. Sampling overrides go through
// Manager.Sampled, so the texture other consumers of the manager hold keeps its sampler.
func (p *pipeline) loadFunc(key string, opts common.LoadOptions) resource.LoadFunc[Texture] {
	return func() (*Texture, error) {
		tex := p.manager.GetOrLoad(key, opts.GenerateMipmaps, p.format)
		if tex == nil || tex.IsDefault() {
			return nil, fmt.Errorf("%w: %s", ErrTextureLoadFailed, key)
		}

		sampler := tex.SamplerData()
		sampler.MaxAnisotropy = 1
		if opts.AnisotropicFiltering {
			sampler.MaxAnisotropy = 16
		}
		sampled, err := p.manager.Sampled(tex, sampler)
		if err != nil {
			p.logger.Warn("keeping existing sampler", zap.String("key", key), zap.Error(err))
		}
		return sampled, nil
	}
}

func (p *pipeline) WaitForAll() {
	p.coordinator.WaitAll()
}

func (p *pipeline) Sweep() int {
	return p.coordinator.Sweep() + p.cache.Prune()
}

func (p *pipeline) IsPending(identifier string) bool {
	return p.coordinator.IsPending(resource.ResolvePath(identifier, p.BaseDirectory()))
}

func (p *pipeline) Release(identifier string) bool {
	return p.cache.Delete(resource.ResolvePath(identifier, p.BaseDirectory()))
}

func (p *pipeline) Clear() {
	p.cache.Clear()
}

func (p *pipeline) SetDefaultOptions(opts common.LoadOptions) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.defaults = opts
}

func (p *pipeline) DefaultOptions() common.LoadOptions {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.defaults
}

func (p *pipeline) SetBaseDirectory(dir string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.baseDir = dir
}

func (p *pipeline) BaseDirectory() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.baseDir
}

func (p *pipeline) Len() int {
	return p.cache.Len()
}

func (p *pipeline) InFlight() int {
	return p.coordinator.Len()
}

func (p *pipeline) Close() {
	p.coordinator.Close()
}
