package engine

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/cislenka/go-horoscope/internal/config"
)

// Kind classifies a notification and selects its default lifetime.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// DefaultDuration returns how long a notification of this kind stays visible.
func (k Kind) DefaultDuration() time.Duration {
	switch k {
	case KindSuccess:
		return config.NotifDurationSuccess
	case KindError:
		return config.NotifDurationError
	case KindWarning:
		return config.NotifDurationWarning
	default:
		return config.NotifDurationInfo
	}
}

// Notification is a transient message shown to the user.
type Notification struct {
	ID       int64
	Message  string
	Kind     Kind
	Duration time.Duration
	Visible  bool
}

// NotificationQueue owns the ordered list of live notifications.
// Every mutation publishes a fresh snapshot to subscribers; the list itself is never shared.
type NotificationQueue struct {
	seq       Sequence
	scheduler Scheduler

	// pubMu serializes mutate+publish so subscribers observe snapshots in mutation order.
	pubMu sync.Mutex

	mu          sync.Mutex
	items       []Notification
	timers      map[int64]Handle
	subscribers map[int]func([]Notification)
	nextSub     int
}

// NewNotificationQueue creates a queue drawing ids from seq and expiry timers from scheduler.
func NewNotificationQueue(seq Sequence, scheduler Scheduler) *NotificationQueue {
	if seq == nil {
		seq = ProcessSequence()
	}
	if scheduler == nil {
		scheduler = RealScheduler{}
	}
	return &NotificationQueue{
		seq:         seq,
		scheduler:   scheduler,
		timers:      make(map[int64]Handle),
		subscribers: make(map[int]func([]Notification)),
	}
}

// Enqueue adds a notification with the default duration of its kind and returns its id.
func (q *NotificationQueue) Enqueue(message string, kind Kind) int64 {
	return q.EnqueueFor(message, kind, kind.DefaultDuration())
}

// EnqueueFor adds a notification that expires after d. It never blocks on the expiry.
func (q *NotificationQueue) EnqueueFor(message string, kind Kind, d time.Duration) int64 {
	q.pubMu.Lock()
	defer q.pubMu.Unlock()

	q.mu.Lock()
	id := q.seq.Next()
	q.items = append(q.items, Notification{
		ID:       id,
		Message:  message,
		Kind:     kind,
		Duration: d,
		Visible:  true,
	})
	q.timers[id] = q.scheduler.AfterFunc(d, func() { q.Dismiss(id) })
	snap, subs := q.snapshotLocked()
	q.mu.Unlock()

	slog.Debug(config.MsgNotifEnqueued,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyID, id,
		config.LogKeyKind, string(kind),
		config.LogKeyDuration, d.Milliseconds())

	publish(subs, snap)
	return id
}

// Dismiss removes the notification with the given id. Unknown or already expired ids are ignored.
func (q *NotificationQueue) Dismiss(id int64) {
	q.pubMu.Lock()
	defer q.pubMu.Unlock()

	q.mu.Lock()
	idx := -1
	for i, n := range q.items {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		q.mu.Unlock()
		return
	}

	q.items = slices.Delete(q.items, idx, idx+1)

	if h, ok := q.timers[id]; ok {
		h.Stop()
		delete(q.timers, id)
	}
	snap, subs := q.snapshotLocked()
	q.mu.Unlock()

	slog.Debug(config.MsgNotifRemoved,
		config.LogKeyComponent, config.CompNotify,
		config.LogKeyID, id)

	publish(subs, snap)
}

// Snapshot returns a copy of the live notifications in insertion order.
func (q *NotificationQueue) Snapshot() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	snap, _ := q.snapshotLocked()
	return snap
}

// Subscribe registers fn to receive a snapshot after every change.
// fn runs synchronously and must not call back into the queue.
func (q *NotificationQueue) Subscribe(fn func([]Notification)) (unsubscribe func()) {
	q.mu.Lock()
	id := q.nextSub
	q.nextSub++
	q.subscribers[id] = fn
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.subscribers, id)
		q.mu.Unlock()
	}
}

// Close stops every pending expiry timer. Live notifications stay in place.
func (q *NotificationQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id, h := range q.timers {
		h.Stop()
		delete(q.timers, id)
	}
}

func (q *NotificationQueue) snapshotLocked() ([]Notification, []func([]Notification)) {
	snap := make([]Notification, len(q.items))
	copy(snap, q.items)

	subs := make([]func([]Notification), 0, len(q.subscribers))
	for i := 0; i < q.nextSub; i++ {
		if fn, ok := q.subscribers[i]; ok {
			subs = append(subs, fn)
		}
	}
	return snap, subs
}

func publish(subs []func([]Notification), snap []Notification) {
	for _, fn := range subs {
		own := make([]Notification, len(snap))
		copy(own, snap)
		fn(own)
	}
}
