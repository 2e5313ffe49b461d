// Package dispatcher routes incoming messages by numeric tag to
// subscriber callbacks. Registration, staging and draining are all
// mutex-guarded so the same Dispatcher can be fed concurrently by a UDP
// receive loop and a WebSocket bridge while being drained on an
// embedder-driven tick.
package dispatcher

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/haldorgrim/netgram"
)

// Callback handles one staged message for the tag it was registered
// under.
type Callback func(msg *netgram.Message)

// envelope is a staged (tag, message) pair. TraceID exists purely for
// log/metric correlation; it is never part of the wire format.
type envelope struct {
	tag     netgram.Tag
	msg     *netgram.Message
	traceID string
}

// Dispatcher is the thread-safe tag -> callback-set routing table plus a
// FIFO staging queue drained one item per Tick.
type Dispatcher struct {
	mu        sync.Mutex
	callbacks map[netgram.Tag][]Callback
	queue     []envelope
	logger    zerolog.Logger
	tracer    trace.Tracer

	// QueueDepth, when set, is called after every Stage/Tick so an
	// embedder can feed a metric (see internal/metrics). Optional.
	QueueDepth func(depth int)
}

// New constructs an empty Dispatcher. A zero-value Dispatcher is not
// usable; always go through New so the routing table is initialized.
func New() *Dispatcher {
	return &Dispatcher{
		callbacks: make(map[netgram.Tag][]Callback),
		logger:    log.Logger,
		tracer:    otel.Tracer("github.com/haldorgrim/netgram/internal/dispatcher"),
	}
}

// WithLogger overrides the package-level logger for this Dispatcher.
func (d *Dispatcher) WithLogger(l zerolog.Logger) *Dispatcher {
	d.logger = l
	return d
}

// Register appends cb to tag's callback list, creating the list if this
// is the first subscriber for tag.
func (d *Dispatcher) Register(tag netgram.Tag, cb Callback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks[tag] = append(d.callbacks[tag], cb)
}

// Unregister removes the callback at index within tag's subscriber list,
// in registration order. Since Go funcs are not comparable, callers must
// identify the callback to remove by index rather than by value; to drop
// every subscriber for a tag at once, use UnregisterTag instead.
func (d *Dispatcher) Unregister(tag netgram.Tag, index int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cbs := d.callbacks[tag]
	if index < 0 || index >= len(cbs) {
		return
	}
	d.callbacks[tag] = append(cbs[:index], cbs[index+1:]...)
}

// UnregisterTag removes tag's entry entirely, dropping every subscriber.
func (d *Dispatcher) UnregisterTag(tag netgram.Tag) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.callbacks, tag)
}

// Clear empties the routing table. The staging queue is left untouched.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.callbacks = make(map[netgram.Tag][]Callback)
}

// Stage enqueues msg for delivery on a future Tick.
func (d *Dispatcher) Stage(msg *netgram.Message) {
	d.mu.Lock()
	d.queue = append(d.queue, envelope{tag: msg.Tag(), msg: msg, traceID: uuid.NewString()})
	depth := len(d.queue)
	cb := d.QueueDepth
	d.mu.Unlock()

	if cb != nil {
		cb(depth)
	}
}

// Tick dequeues at most one staged event and invokes every callback
// registered for its tag, in registration order. A panicking callback is
// recovered so it cannot prevent the remaining callbacks for the same
// event from running. Reports whether an event was delivered.
func (d *Dispatcher) Tick() bool {
	_, span := d.tracer.Start(context.Background(), "dispatcher.tick")
	defer span.End()

	d.mu.Lock()
	if len(d.queue) == 0 {
		d.mu.Unlock()
		return false
	}
	ev := d.queue[0]
	d.queue = d.queue[1:]
	// snapshot the subscriber list under the lock so Register/Unregister
	// calls made from within a callback cannot race the delivery loop.
	cbs := append([]Callback(nil), d.callbacks[ev.tag]...)
	depth := len(d.queue)
	cb := d.QueueDepth
	d.mu.Unlock()

	if cb != nil {
		cb(depth)
	}

	for _, fn := range cbs {
		d.invoke(fn, ev)
	}
	return true
}

func (d *Dispatcher) invoke(fn Callback, ev envelope) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn().
				Str("traceId", ev.traceID).
				Uint16("tag", uint16(ev.tag)).
				Interface("panic", r).
				Msg("dispatcher: callback panicked")
		}
	}()
	fn(ev.msg)
}

// QueueLen reports the number of staged events awaiting delivery.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
