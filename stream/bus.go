package stream

import (
	"sync"
	"time"
)

// Bus is a single-producer, single-consumer ordered channel of Events. The
// tool-loop driver is the sole producer; Emit never blocks the caller
// beyond the bounded buffer, preserving causal ordering (text/tool-call
// ordering within a step, tool-results before finish-step, start-step(i+1)
// strictly after finish-step(i)) because the driver itself only ever calls
// Emit in that order.
type Bus struct {
	ch        chan Event
	closeOnce sync.Once
}

// NewBus creates a bus with the given buffer depth. A depth of 0 makes
// Emit synchronous with the consumer's receive from Events().
func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan Event, buffer)}
}

// Emit pushes ev onto the bus, stamping Timestamp if unset.
func (b *Bus) Emit(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.ch <- ev
}

// Events returns the read side of the bus for range-based consumption.
func (b *Bus) Events() <-chan Event {
	return b.ch
}

// Close closes the channel. Safe to call more than once. The driver must
// always emit a KindFinish event before calling Close so a consumer never
// observes a silently truncated stream.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.ch)
	})
}
