// Package bus implements the controller's Event Bus: a many-producer,
// single-consumer channel of model.BoardEvent feeding the Supervisor.
package bus

import (
	"context"

	"github.com/mezeipetister/irrigation-controller/internal/model"
)

// defaultBuffer is generous enough that a burst of events from several
// workers never blocks a producer under normal operation; the channel is
// still bounded (unlike the distilled spec's unbounded crossbeam channel)
// because Go has no built-in unbounded channel and an unbounded one would
// trade a memory leak for a backpressure signal we'd rather have.
const defaultBuffer = 256

// Bus is the Event Bus. Any number of workers may call Publish concurrently;
// only the Supervisor should range over Events.
type Bus struct {
	events chan model.BoardEvent
}

// New creates a Bus. buffer <= 0 selects defaultBuffer.
func New(buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Bus{events: make(chan model.BoardEvent, buffer)}
}

// Publish enqueues an event, blocking until there is room or ctx is done.
func (b *Bus) Publish(ctx context.Context, e model.BoardEvent) error {
	select {
	case b.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events returns the receive side of the bus. Only the Supervisor should
// consume from it.
func (b *Bus) Events() <-chan model.BoardEvent {
	return b.events
}

// Depth reports the number of events currently queued, for health logging.
func (b *Bus) Depth() int {
	return len(b.events)
}
