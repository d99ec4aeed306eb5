package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitOrderAndOff(t *testing.T) {
	bus := NewBus()
	var got []string

	s1 := bus.On(ProductUpdated, func(e Event) { got = append(got, "first:"+e.Payload.(string)) })
	bus.On(ProductUpdated, func(e Event) { got = append(got, "second:"+e.Payload.(string)) })

	bus.Emit(ProductUpdated, "a")
	s1.Off()
	bus.Emit(ProductUpdated, "b")

	assert.Equal(t, []string{"first:a", "second:a", "second:b"}, got)
}

func TestEmitNoSubscribers(t *testing.T) {
	bus := NewBus()
	assert.NotPanics(t, func() { bus.Emit("nobody-listens", 42) })
}

func TestOffIsIdempotent(t *testing.T) {
	bus := NewBus()
	calls := 0
	s := bus.On(DataUpdated, func(Event) { calls++ })
	s.Off()
	s.Off()
	bus.Emit(DataUpdated, nil)
	assert.Zero(t, calls)
}

func TestOnce(t *testing.T) {
	bus := NewBus()
	calls := 0
	bus.Once(SettingsUpdated, func(Event) { calls++ })
	bus.Emit(SettingsUpdated, nil)
	bus.Emit(SettingsUpdated, nil)
	assert.Equal(t, 1, calls)
}

func TestPanicIsolation(t *testing.T) {
	bus := NewBus()
	reached := false
	bus.On(MediaUpdated, func(Event) { panic("bad subscriber") })
	bus.On(MediaUpdated, func(Event) { reached = true })

	assert.NotPanics(t, func() { bus.Emit(MediaUpdated, nil) })
	assert.True(t, reached, "later handlers must still run after a panic")
}

func TestOffDuringEmit(t *testing.T) {
	bus := NewBus()
	var s2 *Subscription
	calls := 0
	bus.On(ContentUpdated, func(Event) { s2.Off() })
	s2 = bus.On(ContentUpdated, func(Event) { calls++ })

	bus.Emit(ContentUpdated, nil)
	assert.Zero(t, calls, "handler removed mid-emit must not fire")
}

// Scenario: two surfaces each hold a watcher on data-updated; a write
// notifies both, once each, in registration order.
func TestTwoWatchersReceiveUpdate(t *testing.T) {
	bus := NewBus()
	loader := func(ctx context.Context) (interface{}, error) { return "loaded", nil }

	var order []string
	w1 := NewWatcher(bus, loader, func(e Event) { order = append(order, "w1") }, DataUpdated)
	defer w1.Close()
	w2 := NewWatcher(bus, loader, func(e Event) { order = append(order, "w2") }, DataUpdated)
	defer w2.Close()

	bus.Emit(DataUpdated, map[string]interface{}{"type": "products", "id": int64(5)})

	assert.Equal(t, []string{"w1", "w2"}, order)

	evt := <-w1.Events()
	assert.Equal(t, DataUpdated, evt.Type)
}

func TestWatcherLoad(t *testing.T) {
	bus := NewBus()
	w := NewWatcher(bus, func(ctx context.Context) (interface{}, error) {
		return []string{"x"}, nil
	}, nil, DataUpdated, DatabaseReconnected)
	defer w.Close()

	require.NoError(t, w.Load(context.Background()))
	assert.Equal(t, []string{"x"}, w.Data())
	assert.False(t, w.Loading())
	assert.NoError(t, w.Err())
}

func TestWatcherCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	w := NewWatcher(bus, nil, func(Event) { calls++ }, DataUpdated)
	w.Close()
	bus.Emit(DataUpdated, nil)
	assert.Zero(t, calls)
}
