package events

import (
	"fmt"
	"sync"
	"time"

	"github.com/pratik-mahalle/lexaudit/internal/pkg/logger"
	"github.com/pratik-mahalle/lexaudit/internal/pkg/metrics"
)

// Wildcard subscribes a handler to every event name
const Wildcard = "*"

// DefaultBufferSize is the per-subscription channel capacity
const DefaultBufferSize = 256

// Event is a named notification with an arbitrary payload
type Event struct {
	Name      string      `json:"name"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Handler consumes events delivered to a subscription
type Handler func(Event)

// Subscription is a handle returned by On and accepted by Off
type Subscription struct {
	id      uint64
	name    string
	handler Handler
	ch      chan Event
	done    chan struct{}
	closed  bool
}

// Name returns the event name this subscription listens to
func (s *Subscription) Name() string {
	return s.name
}

// Bus is an in-process publish/subscribe hub. Emit never blocks: each
// subscription owns a buffered channel drained by its own goroutine and
// events that do not fit are dropped.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string]map[uint64]*Subscription
	nextID     uint64
	bufferSize int
	closed     bool
	wg         sync.WaitGroup
	log        *logger.Logger
	now        func() time.Time
}

// NewBus creates an event bus. A non-positive bufferSize uses DefaultBufferSize.
func NewBus(bufferSize int, log *logger.Logger) *Bus {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Bus{
		subs:       make(map[string]map[uint64]*Subscription),
		bufferSize: bufferSize,
		log:        log.Component("events"),
		now:        time.Now,
	}
}

// On registers handler for events called name and returns the subscription.
// Subscribing to a closed bus returns an inert subscription.
func (b *Bus) On(name string, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{
		id:      b.nextID,
		name:    name,
		handler: handler,
		ch:      make(chan Event, b.bufferSize),
		done:    make(chan struct{}),
	}

	if b.closed || handler == nil {
		sub.closed = true
		close(sub.ch)
		close(sub.done)
		return sub
	}

	if b.subs[name] == nil {
		b.subs[name] = make(map[uint64]*Subscription)
	}
	b.subs[name][sub.id] = sub

	b.wg.Add(1)
	go b.run(sub)

	return sub
}

// Off removes a subscription. Events already buffered are still delivered.
func (b *Bus) Off(sub *Subscription) {
	if sub == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	set, ok := b.subs[sub.name]
	if !ok {
		return
	}
	if _, ok := set[sub.id]; !ok {
		return
	}
	delete(set, sub.id)
	if len(set) == 0 {
		delete(b.subs, sub.name)
	}
	b.closeSub(sub)
}

// Emit publishes payload under name to every matching subscription
func (b *Bus) Emit(name string, payload interface{}) {
	ev := Event{Name: name, Payload: payload, Timestamp: b.now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	metrics.RecordEventEmitted(name)
	b.deliver(b.subs[name], ev)
	if name != Wildcard {
		b.deliver(b.subs[Wildcard], ev)
	}
}

func (b *Bus) deliver(set map[uint64]*Subscription, ev Event) {
	for _, sub := range set {
		select {
		case sub.ch <- ev:
		default:
			metrics.RecordEventDropped(ev.Name)
			b.log.Warnf("event %s dropped: subscription buffer full", ev.Name)
		}
	}
}

// Count returns the number of live subscriptions for name
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}

// Close removes every subscription and waits for in-flight handlers to finish
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for name, set := range b.subs {
		for _, sub := range set {
			b.closeSub(sub)
		}
		delete(b.subs, name)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

// closeSub must be called with b.mu held for writing
func (b *Bus) closeSub(sub *Subscription) {
	if sub.closed {
		return
	}
	sub.closed = true
	close(sub.ch)
}

func (b *Bus) run(sub *Subscription) {
	defer b.wg.Done()
	defer close(sub.done)

	for ev := range sub.ch {
		b.dispatch(sub, ev)
	}
}

func (b *Bus) dispatch(sub *Subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithFields(map[string]interface{}{
				"event": ev.Name,
				"panic": fmt.Sprint(r),
			}).Error("event handler panicked")
		}
	}()
	sub.handler(ev)
}

// Done is closed once the subscription's handler goroutine has exited
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
