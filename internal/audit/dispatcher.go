package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultBuffer = 64

// Config controls how the dispatcher buffers lifecycle events.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull trades completeness for latency: when set, an engine
	// operation never waits on a slow sink and the lost events are
	// counted instead.
	DropIfFull bool
}

// Dispatcher decouples engine operations from sink latency. Events are
// queued by Emit and delivered by a single background goroutine, so a
// sink never needs its own locking and a slow sink cannot stall a login
// or refresh. A disabled Config yields a nil Dispatcher; all methods
// are safe on nil.
type Dispatcher struct {
	sink     Sink
	events   chan Event
	quit     chan struct{}
	finished chan struct{}
	dropped  atomic.Uint64
	stopped  atomic.Bool
	stop     sync.Once
	blocking bool
}

// NewDispatcher starts the delivery goroutine. A nil sink discards
// events but still exercises the queue, which keeps the engine's emit
// paths identical whether or not auditing is consumed.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	buffer := cfg.BufferSize
	if buffer <= 0 {
		buffer = defaultBuffer
	}

	d := &Dispatcher{
		sink:     sink,
		events:   make(chan Event, buffer),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
		blocking: !cfg.DropIfFull,
	}
	go d.forward()
	return d
}

func (d *Dispatcher) forward() {
	defer close(d.finished)

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.quit:
			// Flush what is already queued. Replay evidence emitted
			// just before shutdown must still reach the sink.
			for {
				select {
				case event := <-d.events:
					d.sink.Emit(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

// Emit queues one event. In drop mode a full buffer increments the
// drop counter and returns immediately; in blocking mode the caller
// waits until there is room, the context ends, or the dispatcher shuts
// down.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil || d.stopped.Load() {
		return
	}

	if !d.blocking {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops accepting events, drains the queue into the sink, and
// waits for delivery to finish. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stop.Do(func() {
		d.stopped.Store(true)
		close(d.quit)
		<-d.finished
	})
}

// Dropped reports how many events were discarded because the buffer
// was full. Nonzero values mean the trail has gaps and the buffer (or
// the sink) needs attention.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
