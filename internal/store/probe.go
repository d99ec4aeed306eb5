package store

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Probe determines whether the database backend is usable right now
// and caches that verdict for the session. The cached value only
// changes through ForceRecheck.
type Probe struct {
	db         *gorm.DB // nil when connection values are absent
	configured bool

	mu        sync.Mutex
	checked   bool
	available bool
}

func NewProbe(db *gorm.DB, configured bool) *Probe {
	return &Probe{db: db, configured: configured}
}

// HasConfig reports whether the required connection values are present.
func (p *Probe) HasConfig() bool { return p.configured && p.db != nil }

// CheckAvailability returns the cached verdict when one exists.
// Otherwise: missing configuration resolves to false without any
// network I/O; with configuration present, a cheap count query decides.
func (p *Probe) CheckAvailability(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.checked {
		return p.available
	}
	p.checked = true
	if !p.configured || p.db == nil {
		p.available = false
		return false
	}
	var n int64
	err := p.db.WithContext(ctx).Model(&productRow{}).Count(&n).Error
	p.available = err == nil
	if err != nil {
		zap.L().Warn("database probe failed, serving from local store", zap.Error(err))
	}
	return p.available
}

// ForceRecheck clears the cache and re-runs the probe. Used when the
// operator explicitly asks to reconnect.
func (p *Probe) ForceRecheck(ctx context.Context) bool {
	p.mu.Lock()
	p.checked = false
	p.mu.Unlock()
	return p.CheckAvailability(ctx)
}
