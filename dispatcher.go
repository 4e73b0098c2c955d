package mmsclient

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// Sink receives dispatched events on the consumer goroutine.
type Sink interface {
	Handle(ev Event)
}

type SinkFunc func(ev Event)

func (f SinkFunc) Handle(ev Event) { f(ev) }

// Dispatcher is a bounded FIFO between event producers (foreground calls, the
// connect loop and engine callback threads) and a single consumer.
type Dispatcher struct {
	queue       chan Event
	emitTimeout time.Duration
	log         logrus.FieldLogger

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
}

func NewDispatcher(size int, emitTimeout time.Duration, log logrus.FieldLogger) *Dispatcher {
	if size <= 0 {
		size = DefaultEventQueueSize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Dispatcher{
		queue:       make(chan Event, size),
		emitTimeout: emitTimeout,
		log:         log,
	}
}

// Emit enqueues ev. When the queue is full it waits up to the emit timeout and
// then drops the event. It reports whether the event was enqueued.
func (d *Dispatcher) Emit(ev Event) bool {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	select {
	case d.queue <- ev:
		return true
	default:
	}

	timer := time.NewTimer(d.emitTimeout)
	defer timer.Stop()
	select {
	case d.queue <- ev:
		return true
	case <-timer.C:
		d.dropped.Add(1)
		d.log.WithFields(logrus.Fields{
			"event": ev.Name,
			"type":  ev.Type,
		}).Warn("event queue full, dropping event")
		return false
	}
}

// Events returns the consumer side of the queue. It is closed by Close.
func (d *Dispatcher) Events() <-chan Event {
	return d.queue
}

// Serve hands every event to sink until the dispatcher is closed or ctx is done.
func (d *Dispatcher) Serve(ctx context.Context, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-d.queue:
			if !ok {
				return nil
			}
			sink.Handle(ev)
		}
	}
}

// Dropped returns the number of events discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops accepting events. Events already queued remain readable.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}
