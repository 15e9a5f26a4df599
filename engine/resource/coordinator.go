package resource

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// ErrLoadPanicked wraps a panic recovered from a load function.
var ErrLoadPanicked = errors.New("load panicked")

// ErrNoResult is reported when a load function returns neither a resource nor an error.
var ErrNoResult = errors.New("load returned no resource")

// ErrClosed is reported for loads handed to a coordinator after Close. They resolve to the fallback
// without running.
var ErrClosed = errors.New("coordinator closed")

// LoadFunc performs the blocking work for one key: file I/O, decoding, GPU upload.
type LoadFunc[T any] func() (*T, error)

// coordinator is the implementation of the Coordinator interface.
type coordinator[T any] struct {
	mu       sync.Mutex
	inflight map[string]*Pending[T]

	cache    Cache[T]
	fallback func() *T

	// active counts loads between Dispatch/Run and completion. Guarded by mu, idle is signalled when it
	// drops to zero.
	active int
	idle   *sync.Cond
	closed bool

	pool     worker.DynamicWorkerPool
	ownsPool bool
	taskID   atomic.Int64

	name    string
	logger  *zap.Logger
	metrics *coordinatorMetrics
}

// Coordinator guarantees that at most one load runs for a given key at any time. Requests for a key fall
// into one of three cases: the key is in flight (the requester shares the existing Pending), the key is a
// live cache hit (a resolved Pending is returned), or neither (the requester becomes the owner and must
// start the load with Dispatch or Run).
//
// When a load finishes, a successful result is installed in the cache before the in-flight record is
// removed, so a concurrent requester always finds the resource in one place or the other. A failed load
// drops any reservation so the next request retries. The in-flight lock may be held while the cache lock
// is taken; the reverse never happens.
type Coordinator[T any] interface {
	// Acquire looks up key and returns the handle the caller should wait on.
	//
	// Parameters:
	//   - key: the resolved resource key
	//
	// Returns:
	//   - *Pending[T]: the shared handle for key
	//   - bool: true if the caller owns a new load and must call Dispatch or Run exactly once
	Acquire(key string) (*Pending[T], bool)

	// Dispatch runs load on the worker pool and resolves p with its result.
	//
	// Parameters:
	//   - p: the handle returned by an owning Acquire
	//   - load: the blocking work
	//   - cacheResult: whether a successful result is stored in the cache
	Dispatch(p *Pending[T], load LoadFunc[T], cacheResult bool)

	// Run runs load on the calling goroutine and resolves p with its result. Blocking entry points use Run
	// so they never wait on a pool slot held by their own caller.
	//
	// Parameters:
	//   - p: the handle returned by an owning Acquire
	//   - load: the blocking work
	//   - cacheResult: whether a successful result is stored in the cache
	//
	// Returns:
	//   - *T: the resolved value
	Run(p *Pending[T], load LoadFunc[T], cacheResult bool) *T

	// IsPending reports whether a load for key is currently in flight.
	//
	// Parameters:
	//   - key: the resolved resource key
	//
	// Returns:
	//   - bool: true while a record exists for key
	IsPending(key string) bool

	// Sweep removes in-flight records whose load has resolved. It never blocks on a load.
	//
	// Returns:
	//   - int: the number of records removed
	Sweep() int

	// WaitAll blocks until every load started through Dispatch or Run has completed.
	WaitAll()

	// Len returns the number of in-flight records.
	//
	// Returns:
	//   - int: the record count
	Len() int

	// Close waits for every load and stops the worker pool if the coordinator created it. Loads handed to
	// Dispatch or Run afterwards resolve to the fallback with ErrClosed and never reach the pool.
	Close()
}

var _ Coordinator[struct{}] = &coordinator[struct{}]{}

// NewCoordinator creates a Coordinator installing successful loads into cache.
//
// Parameters:
//   - cache: the cache results are installed into (required)
//   - fallback: produces the value a failed load resolves to; nil resolves failures to nil
//   - options: a variadic list of CoordinatorBuilderOption functions to configure the Coordinator
//
// Returns:
//   - Coordinator[T]: the new coordinator
func NewCoordinator[T any](cache Cache[T], fallback func() *T, options ...CoordinatorBuilderOption) Coordinator[T] {
	if cache == nil {
		panic("resource: NewCoordinator requires a cache")
	}

	cfg := applyCoordinatorOptions(options...)
	c := &coordinator[T]{
		inflight: make(map[string]*Pending[T]),
		cache:    cache,
		fallback: fallback,
		pool:     cfg.pool,
		name:     cfg.name,
		logger:   cfg.logger,
	}
	c.idle = sync.NewCond(&c.mu)

	if c.pool == nil {
		c.pool = worker.NewDynamicWorkerPool(runtime.NumCPU(), 256, 1*time.Second)
		c.ownsPool = true
	}

	if cfg.registerer != nil {
		m, err := newCoordinatorMetrics(cfg.registerer, cfg.name)
		if err != nil {
			c.logger.Warn("coordinator metrics disabled", zap.String("coordinator", cfg.name), zap.Error(err))
		} else {
			c.metrics = m
		}
	}
	return c
}

func (c *coordinator[T]) Acquire(key string) (*Pending[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.inflight[key]; ok {
		c.metrics.recordShared()
		return p, false
	}

	if v, ok := c.cache.Get(key); ok {
		return Resolved(key, v), false
	}

	p := newPending[T](key)
	c.inflight[key] = p
	c.cache.Reserve(key)
	c.metrics.recordStarted()
	c.metrics.updateInFlight(len(c.inflight))
	return p, true
}

func (c *coordinator[T]) Dispatch(p *Pending[T], load LoadFunc[T], cacheResult bool) {
	if !c.begin() {
		c.complete(p, nil, ErrClosed, cacheResult)
		return
	}
	c.pool.SubmitTask(worker.Task{
		ID:      int(c.taskID.Add(1)),
		Payload: p.key,
		Do: func() (any, error) {
			defer c.end()
			c.execute(p, load, cacheResult)
			return nil, nil
		},
	})
}

func (c *coordinator[T]) Run(p *Pending[T], load LoadFunc[T], cacheResult bool) *T {
	if !c.begin() {
		c.complete(p, nil, ErrClosed, cacheResult)
		return p.Wait()
	}
	defer c.end()
	c.execute(p, load, cacheResult)
	return p.Wait()
}

// begin registers a load with the active count. It reports false once the coordinator is closed.
func (c *coordinator[T]) begin() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.active++
	return true
}

// end marks a load started by begin as finished.
func (c *coordinator[T]) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active--
	if c.active == 0 {
		c.idle.Broadcast()
	}
}

// waitIdle blocks until no load is active. The caller must hold mu.
func (c *coordinator[T]) waitIdle() {
	for c.active > 0 {
		c.idle.Wait()
	}
}

// execute runs load with panic recovery and publishes the outcome.
func (c *coordinator[T]) execute(p *Pending[T], load LoadFunc[T], cacheResult bool) {
	var v *T
	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", ErrLoadPanicked, r)
				c.metrics.recordPanic()
				c.logger.Error("recovered panic during load",
					zap.String("coordinator", c.name),
					zap.String("key", p.key),
					zap.Any("panic", r),
				)
			}
		}()
		v, err = load()
	}()

	if err == nil && v == nil {
		err = ErrNoResult
	}
	c.complete(p, v, err, cacheResult)
}

// complete installs or drops the cache entry, removes the in-flight record, then resolves p.
func (c *coordinator[T]) complete(p *Pending[T], v *T, err error, cacheResult bool) {
	if err != nil {
		c.cache.Delete(p.key)
		c.metrics.recordFailed()
		c.logger.Warn("load failed",
			zap.String("coordinator", c.name),
			zap.String("key", p.key),
			zap.Error(err),
		)
		if c.fallback != nil {
			v = c.fallback()
		} else {
			v = nil
		}
	} else if cacheResult {
		c.cache.Put(p.key, v)
	} else {
		c.cache.Delete(p.key)
	}

	c.mu.Lock()
	if c.inflight[p.key] == p {
		delete(c.inflight, p.key)
	}
	c.metrics.updateInFlight(len(c.inflight))
	c.mu.Unlock()

	p.resolve(v)
}

func (c *coordinator[T]) IsPending(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[key]
	return ok
}

func (c *coordinator[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, p := range c.inflight {
		if p.Ready() {
			delete(c.inflight, key)
			removed++
		}
	}
	if removed > 0 {
		c.metrics.updateInFlight(len(c.inflight))
	}
	return removed
}

func (c *coordinator[T]) WaitAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waitIdle()
}

func (c *coordinator[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inflight)
}

func (c *coordinator[T]) Close() {
	c.mu.Lock()
	first := !c.closed
	c.closed = true
	c.waitIdle()
	c.mu.Unlock()

	if first && c.ownsPool {
		c.pool.Stop()
	}
}
