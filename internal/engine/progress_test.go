package engine_test

import (
	"sync"
	"testing"
	"time"

	"github.com/cislenka/go-horoscope/internal/config"
	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextProgress_Bounds(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		r       float64
		want    float64
	}{
		{"no randomness", 0, 0, 0},
		{"max step from zero", 0, 0.999, 15},
		{"half step from zero", 0, 0.5, 7.5},
		{"rounded to one decimal", 10, 0.1, 11.3},
		{"at ceiling stays", 90, 0.9, 90},
		{"above ceiling clamps", 95, 0.5, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, engine.NextProgress(tt.current, config.ProgressCeiling, tt.r), 1e-9)
		})
	}
}

func TestNextProgress_StepShrinksNearCeiling(t *testing.T) {
	early := engine.NextProgress(10, 90, 0.9) - 10
	late := engine.NextProgress(80, 90, 0.9) - 80
	assert.Greater(t, early, late)
}

func TestNextProgress_MonotoneAndCapped(t *testing.T) {
	values := []float64{0.99, 0.01, 0.5, 0.75, 0.999, 0.3}
	p := 0.0
	for i := 0; i < 500; i++ {
		next := engine.NextProgress(p, 90, values[i%len(values)])
		require.GreaterOrEqual(t, next, p)
		require.LessOrEqual(t, next, 90.0)
		p = next
	}
}

func TestProgressSimulator_TicksOnInterval(t *testing.T) {
	sched := engine.NewManualScheduler()

	var mu sync.Mutex
	var seen []float64
	sim := engine.NewProgressSimulator(sched, func(v float64) {
		mu.Lock()
		seen = append(seen, v)
		mu.Unlock()
	})
	sim.Rand = func() float64 { return 0.6 }

	run := sim.Start()
	sched.Advance(config.ProgressTickInterval - time.Millisecond)
	assert.Empty(t, seen, "no tick before the first interval")

	sched.Advance(time.Millisecond)
	require.Len(t, seen, 1)
	assert.InDelta(t, 9.0, seen[0], 1e-9)
	assert.InDelta(t, 9.0, run.Value(), 1e-9)

	sched.Advance(4 * config.ProgressTickInterval)
	assert.Len(t, seen, 5)

	sim.Stop(run)
	sched.Advance(10 * config.ProgressTickInterval)
	assert.Len(t, seen, 5, "stopped run must not tick")
	assert.Zero(t, sched.Pending())
}

func TestProgressSimulator_NeverExceedsCeiling(t *testing.T) {
	sched := engine.NewManualScheduler()

	var last float64
	sim := engine.NewProgressSimulator(sched, func(v float64) {
		assert.GreaterOrEqual(t, v, last, "progress must not decrease")
		assert.LessOrEqual(t, v, config.ProgressCeiling)
		last = v
	})
	sim.Rand = func() float64 { return 0.99 }

	run := sim.Start()
	sched.Advance(10 * time.Minute)

	assert.LessOrEqual(t, run.Value(), config.ProgressCeiling)
	assert.Less(t, run.Value(), config.ProgressComplete)
	sim.Stop(run)
}

func TestProgressSimulator_StopIsIdempotent(t *testing.T) {
	sim := engine.NewProgressSimulator(engine.NewManualScheduler(), nil)
	run := sim.Start()

	assert.NotPanics(t, func() {
		sim.Stop(run)
		sim.Stop(run)
		sim.Stop(nil)
	})
}

func TestProgressSimulator_RealScheduler(t *testing.T) {
	var mu sync.Mutex
	count := 0
	sim := engine.NewProgressSimulator(engine.RealScheduler{}, func(float64) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	sim.Interval = 5 * time.Millisecond

	run := sim.Start()
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return count >= 2
	}, time.Second, time.Millisecond)
	sim.Stop(run)

	mu.Lock()
	after := count
	mu.Unlock()
	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, after, count, "no callbacks after Stop returns")
}
