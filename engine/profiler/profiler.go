package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-assets/engine/resource"

	"go.uber.org/zap"
)

// Snapshot is the asset state reported by a Profiler.
type Snapshot struct {
	// Textures are the counters of the texture manager's cache.
	Textures resource.CacheStats

	// PipelineEntries is the number of entries in the texture pipeline's cache.
	PipelineEntries int

	// PipelineInFlight is the number of texture loads in flight.
	PipelineInFlight int

	// Models is the number of entries in the model cache, including loads in flight.
	Models int
}

// Profiler tracks cache and memory statistics for asset monitoring.
// Outputs stats to the log at a configurable interval.
type Profiler struct {
	logger         *zap.Logger
	tickCount      int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	lastHits       int64
	lastMisses     int64
}

// NewProfiler creates a new Profiler.
//
// Parameters:
//   - logger: the logger stats are written to; nil discards them
//   - interval: the minimum time between two reports, defaults to 1 second when <= 0
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(logger *zap.Logger, interval time.Duration) *Profiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Profiler{
		logger:         logger,
		lastTime:       time.Now(),
		updateInterval: interval,
	}
}

// Tick records one maintenance pass and logs statistics when the update interval has elapsed.
// Statistics include: cache sizes, texture hit rate since the last report, loads in flight, heap usage,
// allocation rate and GC count/pause times.
//
// Parameters:
//   - s: the current asset state
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(s Snapshot) bool {
	p.tickCount++
	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	hits := s.Textures.Hits - p.lastHits
	misses := s.Textures.Misses - p.lastMisses
	var hitRate float64
	if hits+misses > 0 {
		hitRate = float64(hits) / float64(hits+misses)
	}

	p.logger.Info("asset profile",
		zap.Int("ticks", p.tickCount),
		zap.Int("textures", s.Textures.Size),
		zap.Float64("texture_hit_rate", hitRate),
		zap.Int64("textures_expired", s.Textures.Expired),
		zap.Int("pipeline_entries", s.PipelineEntries),
		zap.Int("pipeline_in_flight", s.PipelineInFlight),
		zap.Int("models", s.Models),
		zap.Float64("heap_mb", allocMB),
		zap.Float64("alloc_rate_mb_s", allocRateMB),
		zap.Uint32("gc", gcCount),
		zap.Uint64("gc_last_pause_us", lastPauseUs),
		zap.Uint64("gc_max_pause_us", maxPauseUs),
	)

	p.tickCount = 0
	p.lastTime = currentTime
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastHits = s.Textures.Hits
	p.lastMisses = s.Textures.Misses
	return true
}
