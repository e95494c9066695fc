package engine

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cislenka/go-horoscope/internal/config"
)

// ProgressSimulator animates a progress value while the real duration is unknown.
// It creeps toward Ceiling with shrinking random steps and never reaches completion on its own.
type ProgressSimulator struct {
	Scheduler Scheduler
	Interval  time.Duration
	Ceiling   float64

	// Rand returns a value in [0, 1). Replaced in tests for deterministic steps.
	Rand func() float64

	// OnProgress receives every new value. It runs on the ticking goroutine and
	// must not call Stop for the run it is observing.
	OnProgress func(float64)
}

// NewProgressSimulator returns a simulator ticking every config.ProgressTickInterval.
func NewProgressSimulator(scheduler Scheduler, onProgress func(float64)) *ProgressSimulator {
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	return &ProgressSimulator{
		Scheduler:  scheduler,
		Interval:   config.ProgressTickInterval,
		Ceiling:    config.ProgressCeiling,
		Rand:       rand.Float64,
		OnProgress: onProgress,
	}
}

// ProgressRun is the handle of one running animation.
type ProgressRun struct {
	mu      sync.Mutex
	value   float64
	stopped bool
	handle  Handle
}

// Value returns the last simulated value.
func (r *ProgressRun) Value() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.value
}

// Start begins a new animation from zero.
func (p *ProgressSimulator) Start() *ProgressRun {
	run := &ProgressRun{}

	run.mu.Lock()
	run.handle = p.Scheduler.Every(p.Interval, func() { p.tick(run) })
	run.mu.Unlock()

	slog.Debug(config.MsgProgressStart, config.LogKeyComponent, config.CompProgress)
	return run
}

// Stop cancels the ticking. Once Stop returns, OnProgress is no longer called for run.
// The final displayed value is the caller's decision.
func (p *ProgressSimulator) Stop(run *ProgressRun) {
	if run == nil {
		return
	}
	run.mu.Lock()
	defer run.mu.Unlock()
	if run.stopped {
		return
	}
	run.stopped = true
	run.handle.Stop()

	slog.Debug(config.MsgProgressStop,
		config.LogKeyComponent, config.CompProgress,
		config.LogKeyProgress, run.value)
}

func (p *ProgressSimulator) tick(run *ProgressRun) {
	run.mu.Lock()
	defer run.mu.Unlock()
	if run.stopped {
		return
	}

	run.value = NextProgress(run.value, p.Ceiling, p.Rand())
	if run.value >= p.Ceiling {
		run.stopped = true
		run.handle.Stop()
	}

	if p.OnProgress != nil {
		p.OnProgress(run.value)
	}
}

// NextProgress advances current by a random step proportional to the distance left
// to ceiling. r is expected in [0, 1). The result is rounded to one decimal,
// never decreases and never exceeds ceiling.
func NextProgress(current, ceiling, r float64) float64 {
	if current >= ceiling {
		return ceiling
	}
	step := r * (ceiling - current) / config.ProgressStepDivisor
	next := math.Round(math.Min(current+step, ceiling)*10) / 10
	return math.Max(next, current)
}
