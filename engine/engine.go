package engine

import (
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-assets/engine/config"
	"github.com/Carmen-Shannon/oxy-assets/engine/loader"
	"github.com/Carmen-Shannon/oxy-assets/engine/profiler"
	"github.com/Carmen-Shannon/oxy-assets/engine/scene"
	"github.com/Carmen-Shannon/oxy-assets/engine/texture"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// engine implements the Engine interface.
// Owns the shared load pool, the asset managers and the maintenance goroutine.
type engine struct {
	mu      sync.RWMutex
	running bool
	closed  bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	cfg        config.Configuration
	logger     *zap.Logger
	registerer prometheus.Registerer

	pool     worker.DynamicWorkerPool
	ownsPool bool

	textures texture.Manager
	pipeline texture.Pipeline
	models   loader.ModelManager
	loaders  []loader.ModelLoader

	profiler         *profiler.Profiler
	profilingEnabled bool
	sweepInterval    time.Duration

	scenes map[int]scene.Scene
}

// MaintenanceReport counts the bookkeeping removed by one maintenance pass.
type MaintenanceReport struct {
	// PipelineSwept is the number of texture pipeline records removed.
	PipelineSwept int

	// ModelsSwept is the number of model records removed.
	ModelsSwept int

	// TexturesPruned is the number of collected textures removed from the texture manager.
	TexturesPruned int
}

// Total returns the number of records removed.
//
// Returns:
//   - int: the sum of every counter
func (r MaintenanceReport) Total() int {
	return r.PipelineSwept + r.ModelsSwept + r.TexturesPruned
}

// Engine is the main entry point for the asset layer.
// It wires the texture manager, the texture loading pipeline and the model manager onto one worker pool,
// runs periodic cache maintenance and shuts everything down in order.
type Engine interface {
	// Textures returns the texture manager.
	//
	// Returns:
	//   - texture.Manager: the texture manager
	Textures() texture.Manager

	// Pipeline returns the texture loading pipeline.
	//
	// Returns:
	//   - texture.Pipeline: the pipeline
	Pipeline() texture.Pipeline

	// Models returns the model manager.
	//
	// Returns:
	//   - loader.ModelManager: the model manager
	Models() loader.ModelManager

	// Configuration returns the configuration the engine was built with.
	//
	// Returns:
	//   - config.Configuration: the configuration
	Configuration() config.Configuration

	// EnableProfiler enables asset statistics output to the log.
	EnableProfiler()

	// DisableProfiler disables asset statistics output.
	DisableProfiler()

	// Maintain runs one maintenance pass: resolved load records are swept and collected cache entries are
	// pruned. It never waits on a load.
	//
	// Returns:
	//   - MaintenanceReport: what was removed
	Maintain() MaintenanceReport

	// AddScene registers a scene at the given key.
	//
	// Parameters:
	//   - key: the scene key
	//   - s: the Scene to register
	AddScene(key int, s scene.Scene)

	// RemoveScene removes the scene at the given key.
	//
	// Parameters:
	//   - key: the key of the scene to remove
	RemoveScene(key int)

	// Scene retrieves the scene registered at the given key.
	// Returns nil if no scene exists at that key.
	//
	// Parameters:
	//   - key: the key of the scene to retrieve
	//
	// Returns:
	//   - scene.Scene: the scene at the key, or nil if not found
	Scene(key int) scene.Scene

	// Scenes returns a copy of all registered scenes.
	//
	// Returns:
	//   - map[int]scene.Scene: a copy of the scenes map
	Scenes() map[int]scene.Scene

	// Run starts the maintenance goroutine. It returns immediately; calling it again is a no-op.
	Run()

	// Quit stops the maintenance goroutine.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Close stops maintenance, waits for every model and texture load, stops the worker pool if the
	// engine created it and releases every cached texture. The managers must not be used afterwards.
	Close()
}

// NewEngine creates a new Engine on top of a texture backend.
// Options are applied directly to the engine struct via the option-builder pattern, then the worker pool and
// the managers are created from the resulting configuration.
//
// Parameters:
//   - backend: the GPU backend textures are uploaded through (required)
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(backend texture.Backend, options ...EngineBuilderOption) Engine {
	if backend == nil {
		panic("engine: NewEngine requires a texture backend")
	}

	e := &engine{
		quitChannel: make(chan struct{}),
		cfg:         config.Default(),
		logger:      zap.NewNop(),
		scenes:      make(map[int]scene.Scene),
	}
	e.sweepInterval = e.cfg.SweepInterval

	for _, opt := range options {
		opt(e)
	}

	if e.pool == nil {
		e.pool = worker.NewDynamicWorkerPool(e.cfg.LoadWorkers, e.cfg.LoadQueue, 1*time.Second)
		e.ownsPool = true
	}
	e.profiler = profiler.NewProfiler(e.logger.Named("profiler"), e.sweepInterval)

	e.textures = texture.NewManager(backend,
		texture.WithLogger(e.logger.Named("textures")),
		texture.WithBaseDirectory(e.cfg.TextureBaseDirectory()),
		texture.WithMetrics(e.registerer),
	)
	e.pipeline = texture.NewPipeline(e.textures,
		texture.WithPipelineLogger(e.logger.Named("pipeline")),
		texture.WithPipelineWorkerPool(e.pool),
		texture.WithPipelineMetrics(e.registerer),
		texture.WithPipelineBaseDirectory(e.cfg.TextureBaseDirectory()),
		texture.WithPipelineDefaultOptions(e.cfg.Options),
	)

	modelOptions := []loader.ModelManagerBuilderOption{
		loader.WithLogger(e.logger.Named("models")),
		loader.WithWorkerPool(e.pool),
		loader.WithMetrics(e.registerer),
		loader.WithBaseDirectory(e.cfg.ModelBaseDirectory()),
		loader.WithDefaultOptions(e.cfg.Options),
	}
	e.models = loader.NewModelManager(e.textures, modelOptions...)
	for _, l := range e.loaders {
		e.models.RegisterLoader(l)
	}

	return e
}

func (e *engine) Textures() texture.Manager {
	return e.textures
}

func (e *engine) Pipeline() texture.Pipeline {
	return e.pipeline
}

func (e *engine) Models() loader.ModelManager {
	return e.models
}

func (e *engine) Configuration() config.Configuration {
	return e.cfg
}

func (e *engine) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
}

func (e *engine) Maintain() MaintenanceReport {
	report := MaintenanceReport{
		PipelineSwept:  e.pipeline.Sweep(),
		ModelsSwept:    e.models.Sweep(),
		TexturesPruned: e.textures.Prune(),
	}
	if report.Total() > 0 {
		e.logger.Debug("maintenance pass",
			zap.Int("pipeline_swept", report.PipelineSwept),
			zap.Int("models_swept", report.ModelsSwept),
			zap.Int("textures_pruned", report.TexturesPruned),
		)
	}
	return report
}

func (e *engine) Run() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running || e.closed || e.sweepInterval <= 0 {
		return
	}
	e.running = true

	e.wg.Add(1)
	go e.handleMaintenance()
}

// Quit signals the maintenance goroutine to stop.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// handleMaintenance runs Maintain at the sweep interval until the quit channel is closed.
// Recovers from panics so a failing pass cannot take the process down.
func (e *engine) handleMaintenance() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("maintenance goroutine recovered from panic", zap.Any("panic", r))
		}
	}()

	ticker := time.NewTicker(e.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			e.Maintain()

			e.mu.RLock()
			profiling := e.profilingEnabled
			e.mu.RUnlock()
			if profiling {
				e.profiler.Tick(e.snapshot())
			}
		}
	}
}

// snapshot collects the current asset state for the profiler.
func (e *engine) snapshot() profiler.Snapshot {
	return profiler.Snapshot{
		Textures:         e.textures.Stats(),
		PipelineEntries:  e.pipeline.Len(),
		PipelineInFlight: e.pipeline.InFlight(),
		Models:           e.models.Len(),
	}
}

func (e *engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.mu.Unlock()

	e.Quit()
	e.wg.Wait()

	// models first: their loads request textures
	e.models.Close()
	e.pipeline.Close()
	if e.ownsPool {
		e.pool.Stop()
	}
	e.textures.ReleaseAll()
	e.logger.Info("asset engine closed")
}

func (e *engine) AddScene(key int, s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scenes[key] = s
}

func (e *engine) RemoveScene(key int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.scenes, key)
}

func (e *engine) Scene(key int) scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.scenes[key]
}

func (e *engine) Scenes() map[int]scene.Scene {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[int]scene.Scene, len(e.scenes))
	for k, v := range e.scenes {
		cp[k] = v
	}
	return cp
}
