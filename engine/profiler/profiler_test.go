package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-assets/engine/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestProfilerReportsAtInterval(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := NewProfiler(zap.New(core), time.Hour)

	assert.False(t, p.Tick(Snapshot{}))
	assert.Equal(t, 0, logs.Len())

	p.lastTime = time.Now().Add(-2 * time.Hour)
	s := Snapshot{
		Textures:         resource.CacheStats{Hits: 3, Misses: 1, Size: 4},
		PipelineInFlight: 2,
		Models:           1,
	}
	require.True(t, p.Tick(s))

	entries := logs.FilterMessage("asset profile").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(4), fields["textures"])
	assert.Equal(t, 0.75, fields["texture_hit_rate"])
	assert.Equal(t, int64(2), fields["pipeline_in_flight"])
	assert.Equal(t, int64(2), fields["ticks"])

	// rates are computed over the counters since the last report
	p.lastTime = time.Now().Add(-2 * time.Hour)
	s.Textures.Misses = 5
	require.True(t, p.Tick(s))
	assert.Equal(t, 0.0, logs.All()[1].ContextMap()["texture_hit_rate"])
}

func TestProfilerDefaults(t *testing.T) {
	p := NewProfiler(nil, 0)
	assert.Equal(t, time.Second, p.updateInterval)
	assert.NotNil(t, p.logger)
}
