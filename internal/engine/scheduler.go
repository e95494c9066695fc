package engine

import (
	"sort"
	"sync"
	"time"
)

// Clock supplies "today" to the validator and the filename date to the artifact handler.
type Clock interface {
	Now() time.Time
}

// RealClock reads the local wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Handle cancels a scheduled task.
// Stop reports whether the call prevented a future run; it is safe to call more than once.
type Handle interface {
	Stop() bool
}

// Scheduler runs callbacks later, either once or periodically.
// Every scheduled task is owned by the caller through its Handle; nothing is stopped implicitly.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Handle
	Every(d time.Duration, f func()) Handle
}

// RealScheduler implements Scheduler on top of the runtime timers.
type RealScheduler struct{}

// AfterFunc runs f once after d on its own goroutine.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}

// Every runs f on every tick of interval d until the handle is stopped.
func (RealScheduler) Every(d time.Duration, f func()) Handle {
	t := &tickerHandle{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.loop(f)
	return t
}

type tickerHandle struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerHandle) loop(f func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			f()
		}
	}
}

func (t *tickerHandle) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}

// ManualScheduler is a virtual-time Scheduler. Tasks only run when Advance moves
// the clock past their due time, which makes timer-driven code deterministic in tests.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	seq   int
	tasks []*manualTask
}

type manualTask struct {
	s       *ManualScheduler
	seq     int
	due     time.Duration
	period  time.Duration
	f       func()
	stopped bool
}

// NewManualScheduler returns a scheduler whose virtual clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) Handle {
	return m.add(d, 0, f)
}

func (m *ManualScheduler) Every(d time.Duration, f func()) Handle {
	return m.add(d, d, f)
}

func (m *ManualScheduler) add(d, period time.Duration, f func()) *manualTask {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{s: m, seq: m.seq, due: m.now + d, period: period, f: f}
	m.tasks = append(m.tasks, t)
	return t
}

// Elapsed returns the virtual time advanced so far.
func (m *ManualScheduler) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of tasks that can still run.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tasks {
		if !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves the virtual clock forward by d, running due tasks in due-time order.
// Callbacks run on the caller's goroutine without the scheduler lock held, so they may
// schedule or stop other tasks.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.nextDue(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.due
		if next.period > 0 {
			next.due += next.period
		} else {
			next.stopped = true
		}
		f := next.f
		m.mu.Unlock()

		f()
	}
}

// nextDue returns the earliest live task due at or before target. Caller holds m.mu.
func (m *ManualScheduler) nextDue(target time.Duration) *manualTask {
	live := m.tasks[:0]
	for _, t := range m.tasks {
		if !t.stopped {
			live = append(live, t)
		}
	}
	m.tasks = live

	sort.SliceStable(m.tasks, func(i, j int) bool {
		if m.tasks[i].due == m.tasks[j].due {
			return m.tasks[i].seq < m.tasks[j].seq
		}
		return m.tasks[i].due < m.tasks[j].due
	})

	if len(m.tasks) == 0 || m.tasks[0].due > target {
		return nil
	}
	return m.tasks[0]
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	return true
}
