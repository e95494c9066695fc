package engine_test

import (
	"testing"
	"time"

	"github.com/cislenka/go-horoscope/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualScheduler_RunsInDueOrder(t *testing.T) {
	s := engine.NewManualScheduler()
	var got []string

	s.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	s.AfterFunc(time.Second, func() { got = append(got, "a") })
	s.AfterFunc(time.Second, func() { got = append(got, "b") })

	s.Advance(999 * time.Millisecond)
	assert.Empty(t, got)

	s.Advance(5 * time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 5999*time.Millisecond, s.Elapsed())
	assert.Zero(t, s.Pending())
}

func TestManualScheduler_EveryUntilStopped(t *testing.T) {
	s := engine.NewManualScheduler()
	ticks := 0
	h := s.Every(500*time.Millisecond, func() { ticks++ })

	s.Advance(2 * time.Second)
	assert.Equal(t, 4, ticks)

	assert.True(t, h.Stop())
	assert.False(t, h.Stop(), "second Stop must report nothing was prevented")

	s.Advance(2 * time.Second)
	assert.Equal(t, 4, ticks)
}

func TestManualScheduler_CallbackMaySchedule(t *testing.T) {
	s := engine.NewManualScheduler()
	fired := false
	s.AfterFunc(time.Second, func() {
		s.AfterFunc(time.Second, func() { fired = true })
	})

	s.Advance(2 * time.Second)
	assert.True(t, fired)
}

func TestRealScheduler_AfterFuncAndStop(t *testing.T) {
	var s engine.RealScheduler
	done := make(chan struct{})
	s.AfterFunc(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("AfterFunc did not fire")
	}

	h := s.Every(time.Hour, func() {})
	require.True(t, h.Stop())
	assert.False(t, h.Stop())
}

func TestCounter_Monotonic(t *testing.T) {
	var c engine.Counter
	assert.Equal(t, int64(0), c.Next())
	assert.Equal(t, int64(1), c.Next())
}
