package store

import (
	"context"

	"github.com/shyamtrading/siteserver/internal/domain"
	"github.com/shyamtrading/siteserver/internal/events"
)

// ConnectionStatus is a descriptive snapshot for display. Nothing
// routes on it; routing always re-resolves per call.
type ConnectionStatus struct {
	Mode               string `json:"mode"` // localStorage | database
	Connected          bool   `json:"connected"`
	HasEnvironmentVars bool   `json:"hasEnvironmentVars"`
	ForceLocal         bool   `json:"forceLocal"`
}

// Dispatcher is the single facade the rest of the application calls.
// It resolves a backend per call from (force-local override, cached
// probe verdict) and delegates unchanged: no caching, no error
// handling of its own, so behavior is fully determined by that pair.
type Dispatcher struct {
	local  *Local
	remote *Remote
	probe  *Probe
	bus    *events.Bus
}

var _ Backend = (*Dispatcher)(nil)

func NewDispatcher(local *Local, remote *Remote, probe *Probe, bus *events.Bus) *Dispatcher {
	return &Dispatcher{local: local, remote: remote, probe: probe, bus: bus}
}

func (d *Dispatcher) Name() string { return "dispatcher" }

// backend is the routing function: override set -> local
// unconditionally; otherwise the cached probe decides.
func (d *Dispatcher) backend(ctx context.Context) Backend {
	if d.local.ForceLocal() {
		return d.local
	}
	if d.remote != nil && d.probe.CheckAvailability(ctx) {
		return d.remote
	}
	return d.local
}

// Mode reports which backend the next call would use.
func (d *Dispatcher) Mode(ctx context.Context) string {
	if _, ok := d.backend(ctx).(*Remote); ok {
		return ModeDatabase
	}
	return ModeLocal
}

func (d *Dispatcher) ConnectionStatus(ctx context.Context) ConnectionStatus {
	return ConnectionStatus{
		Mode:               d.Mode(ctx),
		Connected:          d.probe.HasConfig() && d.probe.CheckAvailability(ctx),
		HasEnvironmentVars: d.probe.HasConfig(),
		ForceLocal:         d.local.ForceLocal(),
	}
}

// Reconnect forces a probe recheck and announces the reconnection so
// every watcher reloads. It never copies data between backends.
func (d *Dispatcher) Reconnect(ctx context.Context) ConnectionStatus {
	if d.probe.ForceRecheck(ctx) && d.bus != nil {
		d.bus.Emit(events.DatabaseReconnected, nil)
	}
	return d.ConnectionStatus(ctx)
}

// SetForceLocal toggles the user override. Flipping it alone changes
// routing without a new probe.
func (d *Dispatcher) SetForceLocal(v bool) error {
	return d.local.SetForceLocal(v)
}

func (d *Dispatcher) GetProducts(ctx context.Context) ([]domain.Product, error) {
	return d.backend(ctx).GetProducts(ctx)
}

func (d *Dispatcher) AddProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	return d.backend(ctx).AddProduct(ctx, p)
}

func (d *Dispatcher) UpdateProduct(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Product, error) {
	return d.backend(ctx).UpdateProduct(ctx, id, patch)
}

func (d *Dispatcher) DeleteProduct(ctx context.Context, id int64) error {
	return d.backend(ctx).DeleteProduct(ctx, id)
}

func (d *Dispatcher) GetCategories(ctx context.Context) ([]domain.Category, error) {
	return d.backend(ctx).GetCategories(ctx)
}

func (d *Dispatcher) AddCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	return d.backend(ctx).AddCategory(ctx, c)
}

func (d *Dispatcher) UpdateCategory(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Category, error) {
	return d.backend(ctx).UpdateCategory(ctx, id, patch)
}

func (d *Dispatcher) DeleteCategory(ctx context.Context, id int64) error {
	return d.backend(ctx).DeleteCategory(ctx, id)
}

func (d *Dispatcher) GetTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	return d.backend(ctx).GetTestimonials(ctx)
}

func (d *Dispatcher) AddTestimonial(ctx context.Context, t domain.Testimonial) (*domain.Testimonial, error) {
	return d.backend(ctx).AddTestimonial(ctx, t)
}

func (d *Dispatcher) UpdateTestimonial(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Testimonial, error) {
	return d.backend(ctx).UpdateTestimonial(ctx, id, patch)
}

func (d *Dispatcher) DeleteTestimonial(ctx context.Context, id int64) error {
	return d.backend(ctx).DeleteTestimonial(ctx, id)
}

func (d *Dispatcher) GetContent(ctx context.Context) (*domain.ContentData, error) {
	return d.backend(ctx).GetContent(ctx)
}

func (d *Dispatcher) SaveContent(ctx context.Context, c *domain.ContentData) error {
	return d.backend(ctx).SaveContent(ctx, c)
}

func (d *Dispatcher) SaveContentSection(ctx context.Context, section string, data interface{}) error {
	return d.backend(ctx).SaveContentSection(ctx, section, data)
}

func (d *Dispatcher) GetSettings(ctx context.Context) (*domain.SettingsData, error) {
	return d.backend(ctx).GetSettings(ctx)
}

func (d *Dispatcher) SaveSettings(ctx context.Context, s *domain.SettingsData) error {
	return d.backend(ctx).SaveSettings(ctx, s)
}

func (d *Dispatcher) SaveSettingsKey(ctx context.Context, key string, value interface{}) error {
	return d.backend(ctx).SaveSettingsKey(ctx, key, value)
}

func (d *Dispatcher) GetMedia(ctx context.Context) ([]domain.MediaItem, error) {
	return d.backend(ctx).GetMedia(ctx)
}

func (d *Dispatcher) AddMedia(ctx context.Context, up MediaUpload) (*domain.MediaItem, error) {
	return d.backend(ctx).AddMedia(ctx, up)
}

func (d *Dispatcher) DeleteMedia(ctx context.Context, id string) error {
	return d.backend(ctx).DeleteMedia(ctx, id)
}
