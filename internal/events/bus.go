package events

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Event names recognized across the persistence layer. The entity
// specific names carry backend-origin deltas; DataUpdated is the
// generic notification un-typed subscribers (e.g. a preview surface)
// listen on; DatabaseReconnected forces a full reload everywhere.
const (
	DataUpdated         = "data-updated"
	ProductUpdated      = "product-updated"
	CategoryUpdated     = "category-updated"
	ContentUpdated      = "content-updated"
	SettingsUpdated     = "settings-updated"
	MediaUpdated        = "media-updated"
	TestimonialUpdated  = "testimonial-updated"
	DatabaseReconnected = "database-reconnected"
)

// Event is what subscribers receive. Type repeats the event name so a
// handler subscribed to several topics can tell them apart.
type Event struct {
	Type    string
	Payload interface{}
}

// Handler receives emitted events.
type Handler func(Event)

// Subscription identifies one handler registration. Off removes
// exactly this registration and is safe to call more than once.
type Subscription struct {
	bus    *Bus
	topic  string
	fn     Handler
	once   bool
	active atomic.Bool
}

// Off unregisters the subscription. Emits after Off never reach the
// handler, including emits already in flight on other goroutines.
func (s *Subscription) Off() {
	if s.active.CompareAndSwap(true, false) {
		s.bus.remove(s)
	}
}

// Bus is an in-process fan-out notifier with no persistence and no
// delivery guarantees. Handlers run synchronously in registration
// order; a panicking handler is isolated and logged so one bad
// subscriber cannot break the others.
type Bus struct {
	mu       sync.Mutex
	handlers map[string][]*Subscription
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]*Subscription)}
}

// On registers a handler for an event name. Multiple registrations for
// the same event are all invoked, in registration order.
func (b *Bus) On(topic string, fn Handler) *Subscription {
	return b.subscribe(topic, fn, false)
}

// Once registers a handler that auto-unregisters after its first
// invocation.
func (b *Bus) Once(topic string, fn Handler) *Subscription {
	return b.subscribe(topic, fn, true)
}

func (b *Bus) subscribe(topic string, fn Handler, once bool) *Subscription {
	s := &Subscription{bus: b, topic: topic, fn: fn, once: once}
	s.active.Store(true)
	b.mu.Lock()
	b.handlers[topic] = append(b.handlers[topic], s)
	b.mu.Unlock()
	return s
}

// Emit synchronously invokes every currently registered handler for
// the event with the payload. Emitting with no subscribers is a
// silent no-op.
func (b *Bus) Emit(topic string, payload interface{}) {
	b.mu.Lock()
	subs := append([]*Subscription(nil), b.handlers[topic]...)
	b.mu.Unlock()

	evt := Event{Type: topic, Payload: payload}
	for _, s := range subs {
		if s.once {
			// claim the single invocation before calling
			if !s.active.CompareAndSwap(true, false) {
				continue
			}
			b.remove(s)
		} else if !s.active.Load() {
			continue
		}
		b.invoke(s, evt)
	}
}

func (b *Bus) invoke(s *Subscription, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("event handler panic",
				zap.String("event", evt.Type), zap.Any("panic", r))
		}
	}()
	s.fn(evt)
}

func (b *Bus) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.handlers[s.topic]
	for i, cur := range list {
		if cur == s {
			b.handlers[s.topic] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
}
