package engine

import "sync/atomic"

// Sequence hands out monotonically increasing identifiers.
type Sequence interface {
	Next() int64
}

// Counter is a lock-free Sequence starting at zero.
type Counter struct {
	next atomic.Int64
}

func (c *Counter) Next() int64 {
	return c.next.Add(1) - 1
}

// processSequence lives for the whole process; a form reset never rewinds it.
var processSequence = &Counter{}

// ProcessSequence returns the process-wide notification id sequence.
func ProcessSequence() Sequence {
	return processSequence
}
