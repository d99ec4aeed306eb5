package events

import (
	"context"
	"sync"
)

// Loader fetches the watched collection through the dispatcher.
type Loader func(ctx context.Context) (interface{}, error)

// Watcher is the per-surface subscription adapter: it loads entities
// through a Loader and re-delivers bus notifications so every surface
// holding a Watcher stays consistent without a central store. One
// Watcher serves one UI surface (an SSE stream, a test, a renderer).
type Watcher struct {
	bus      *Bus
	loader   Loader
	onChange Handler
	subs     []*Subscription
	ch       chan Event

	mu      sync.RWMutex
	data    interface{}
	loading bool
	err     error
}

// NewWatcher subscribes to the given topics immediately. onChange may
// be nil; the buffered Events channel is always fed (events are
// dropped, not blocked on, when the consumer is slow).
func NewWatcher(bus *Bus, loader Loader, onChange Handler, topics ...string) *Watcher {
	w := &Watcher{
		bus:      bus,
		loader:   loader,
		onChange: onChange,
		ch:       make(chan Event, 16),
	}
	for _, topic := range topics {
		w.subs = append(w.subs, bus.On(topic, w.notify))
	}
	return w
}

func (w *Watcher) notify(evt Event) {
	select {
	case w.ch <- evt:
	default:
	}
	if w.onChange != nil {
		w.onChange(evt)
	}
}

// Load fetches fresh data through the loader, tracking a loading flag
// for the duration. The caller decides when to reload (typically on
// every Events delivery and on DatabaseReconnected).
func (w *Watcher) Load(ctx context.Context) error {
	w.mu.Lock()
	w.loading = true
	w.mu.Unlock()

	data, err := w.loader(ctx)

	w.mu.Lock()
	w.loading = false
	w.err = err
	if err == nil {
		w.data = data
	}
	w.mu.Unlock()
	return err
}

func (w *Watcher) Data() interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.data
}

func (w *Watcher) Loading() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.loading
}

func (w *Watcher) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.err
}

// Events exposes the notification stream for select-based consumers.
func (w *Watcher) Events() <-chan Event {
	return w.ch
}

// Close unsubscribes from every topic. The Events channel is left open
// so in-flight deliveries cannot panic; it simply goes quiet.
func (w *Watcher) Close() {
	for _, s := range w.subs {
		s.Off()
	}
}
