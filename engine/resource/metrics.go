package resource

import (
	"errors"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheStats is a point-in-time snapshot of a Cache's counters.
type CacheStats struct {
	// Hits counts lookups that returned a live resource.
	Hits int64
	// Misses counts lookups that found nothing, an incomplete entry, or an expired entry.
	Misses int64
	// Expired counts entries discovered dead (collected) and removed, by lookup or Prune.
	Expired int64
	// Inserts counts completed entries written by Put or PutIfAbsent.
	Inserts int64
	// Deletes counts explicit removals via Delete or Clear.
	Deletes int64
	// Size is the number of entries (complete or reserved) currently held.
	Size int
}

// cacheStatistics tracks cache counters with atomic operations so Stats can be read without the cache lock.
type cacheStatistics struct {
	hits    atomic.Int64
	misses  atomic.Int64
	expired atomic.Int64
	inserts atomic.Int64
	deletes atomic.Int64
}

// cacheMetrics holds Prometheus metrics for cache operations.
type cacheMetrics struct {
	hits    prometheus.Counter
	misses  prometheus.Counter
	expired prometheus.Counter
	inserts prometheus.Counter
	deletes prometheus.Counter

	size prometheus.Gauge
}

// newCacheMetrics creates and registers cache metrics with the provided registerer. Collectors already
// registered under the same name and labels are reused, so two caches built with the same name share
// their series.
//
// Parameters:
//   - reg: the Prometheus registerer
//   - name: the cache name, exported as the "cache" label
//
// Returns:
//   - *cacheMetrics: the registered metrics
//   - error: error if registration fails for a reason other than duplication
func newCacheMetrics(reg prometheus.Registerer, name string) (*cacheMetrics, error) {
	labels := prometheus.Labels{"cache": name}
	counter := func(metric, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "oxy",
			Subsystem:   "asset_cache",
			Name:        metric,
			ConstLabels: labels,
			Help:        help,
		})
	}

	m := &cacheMetrics{
		hits:    counter("hits_total", "Total number of cache lookups that returned a live resource"),
		misses:  counter("misses_total", "Total number of cache lookups that missed"),
		expired: counter("expired_total", "Total number of entries removed because their resource was collected"),
		inserts: counter("inserts_total", "Total number of completed cache entries written"),
		deletes: counter("deletes_total", "Total number of explicit cache removals"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "oxy",
			Subsystem:   "asset_cache",
			Name:        "size",
			ConstLabels: labels,
			Help:        "Current number of entries in the cache",
		}),
	}

	var err error
	if m.hits, err = registerCollector(reg, m.hits); err != nil {
		return nil, err
	}
	if m.misses, err = registerCollector(reg, m.misses); err != nil {
		return nil, err
	}
	if m.expired, err = registerCollector(reg, m.expired); err != nil {
		return nil, err
	}
	if m.inserts, err = registerCollector(reg, m.inserts); err != nil {
		return nil, err
	}
	if m.deletes, err = registerCollector(reg, m.deletes); err != nil {
		return nil, err
	}
	if m.size, err = registerCollector(reg, m.size); err != nil {
		return nil, err
	}
	return m, nil
}

// registerCollector registers c, returning the already registered collector when an identical one exists.
func registerCollector[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *cacheMetrics) recordHit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *cacheMetrics) recordMiss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *cacheMetrics) recordExpired(n int) {
	if m != nil {
		m.expired.Add(float64(n))
	}
}

func (m *cacheMetrics) recordInsert() {
	if m != nil {
		m.inserts.Inc()
	}
}

func (m *cacheMetrics) recordDelete(n int) {
	if m != nil {
		m.deletes.Add(float64(n))
	}
}

func (m *cacheMetrics) updateSize(size int) {
	if m != nil {
		m.size.Set(float64(size))
	}
}

// coordinatorMetrics holds Prometheus metrics for in-flight load coordination.
type coordinatorMetrics struct {
	started  prometheus.Counter
	shared   prometheus.Counter
	failed   prometheus.Counter
	panicked prometheus.Counter
	inFlight prometheus.Gauge
}

// newCoordinatorMetrics creates and registers coordinator metrics with the provided registerer.
//
// Parameters:
//   - reg: the Prometheus registerer
//   - name: the coordinator name, exported as the "coordinator" label
//
// Returns:
//   - *coordinatorMetrics: the registered metrics
//   - error: error if registration fails for a reason other than duplication
func newCoordinatorMetrics(reg prometheus.Registerer, name string) (*coordinatorMetrics, error) {
	labels := prometheus.Labels{"coordinator": name}
	counter := func(metric, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "oxy",
			Subsystem:   "asset_loads",
			Name:        metric,
			ConstLabels: labels,
			Help:        help,
		})
	}

	m := &coordinatorMetrics{
		started:  counter("started_total", "Total number of underlying loads started"),
		shared:   counter("shared_total", "Total number of requests that attached to an in-flight load"),
		failed:   counter("failed_total", "Total number of loads that resolved without a resource"),
		panicked: counter("panicked_total", "Total number of loads that panicked and were recovered"),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "oxy",
			Subsystem:   "asset_loads",
			Name:        "in_flight",
			ConstLabels: labels,
			Help:        "Current number of in-flight load records",
		}),
	}

	var err error
	if m.started, err = registerCollector(reg, m.started); err != nil {
		return nil, err
	}
	if m.shared, err = registerCollector(reg, m.shared); err != nil {
		return nil, err
	}
	if m.failed, err = registerCollector(reg, m.failed); err != nil {
		return nil, err
	}
	if m.panicked, err = registerCollector(reg, m.panicked); err != nil {
		return nil, err
	}
	if m.inFlight, err = registerCollector(reg, m.inFlight); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *coordinatorMetrics) recordStarted() {
	if m != nil {
		m.started.Inc()
	}
}

func (m *coordinatorMetrics) recordShared() {
	if m != nil {
		m.shared.Inc()
	}
}

func (m *coordinatorMetrics) recordFailed() {
	if m != nil {
		m.failed.Inc()
	}
}

func (m *coordinatorMetrics) recordPanic() {
	if m != nil {
		m.panicked.Inc()
	}
}

func (m *coordinatorMetrics) updateInFlight(n int) {
	if m != nil {
		m.inFlight.Set(float64(n))
	}
}
