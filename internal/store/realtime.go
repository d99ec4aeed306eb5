package store

import (
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/shyamtrading/siteserver/internal/events"
)

// NotifyChannel is the postgres channel the database triggers notify
// on for every row change in the website tables.
const NotifyChannel = "website_changes"

// notification is the trigger payload: which table changed, what
// happened, and the new row as loose JSON.
type notification struct {
	Table  string                 `json:"table"`
	Action string                 `json:"action"`
	Record map[string]interface{} `json:"record,omitempty"`
}

// tableEvents maps a notifying table to the bus topic its watchers
// subscribe to.
var tableEvents = map[string]string{
	"products":     events.ProductUpdated,
	"categories":   events.CategoryUpdated,
	"testimonials": events.TestimonialUpdated,
	"content":      events.ContentUpdated,
	"settings":     events.SettingsUpdated,
	"media":        events.MediaUpdated,
}

// RealtimeBridge turns postgres LISTEN/NOTIFY traffic into bus events,
// so edits made by another instance reach this instance's watchers the
// same way local edits do.
type RealtimeBridge struct {
	listener *pq.Listener
	bus      *events.Bus
	done     chan struct{}
}

func NewRealtimeBridge(dsn string, bus *events.Bus) *RealtimeBridge {
	listener := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			zap.L().Warn("realtime listener event", zap.Int("event", int(ev)), zap.Error(err))
		}
	})
	return &RealtimeBridge{listener: listener, bus: bus, done: make(chan struct{})}
}

// Start subscribes to the notify channel and runs the pump until Stop.
func (r *RealtimeBridge) Start() error {
	if err := r.listener.Listen(NotifyChannel); err != nil {
		return err
	}
	go r.pump()
	zap.L().Info("realtime bridge listening", zap.String("channel", NotifyChannel))
	return nil
}

func (r *RealtimeBridge) Stop() error {
	close(r.done)
	return r.listener.Close()
}

// pump forwards notifications and pings the connection when the
// channel stays quiet, which forces pq to notice a dead connection and
// reconnect.
func (r *RealtimeBridge) pump() {
	for {
		select {
		case <-r.done:
			return
		case n := <-r.listener.Notify:
			if n == nil {
				// reconnect in progress; pq re-establishes LISTEN itself
				continue
			}
			r.dispatch(n.Extra)
		case <-time.After(90 * time.Second):
			if err := r.listener.Ping(); err != nil {
				zap.L().Warn("realtime ping failed", zap.Error(err))
			}
		}
	}
}

func (r *RealtimeBridge) dispatch(payload string) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		zap.L().Warn("realtime payload not parseable", zap.String("payload", payload), zap.Error(err))
		return
	}
	topic, ok := tableEvents[n.Table]
	if !ok {
		return
	}
	r.bus.Emit(topic, n.Record)
	r.bus.Emit(events.DataUpdated, Change{Entity: n.Table})
}
