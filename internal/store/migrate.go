package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/shyamtrading/siteserver/internal/events"
)

// ErrNothingToMigrate is returned when the migration guard refuses a
// run: no local data, or the database already holds data.
var ErrNothingToMigrate = errors.New("migration not possible: no local data, or the database already has data")

// EntityPresence reports one entity type's footprint on each side.
type EntityPresence struct {
	Local       bool `json:"local"`
	Remote      bool `json:"remote"`
	LocalCount  int  `json:"localCount"`
	RemoteCount int  `json:"remoteCount"`
}

// MigrationStatus is the structured report of CheckStatus. CanMigrate
// is true only when local data exists and the database holds nothing
// yet: a coarse guard that prevents accidental duplicate migration but
// cannot detect a partially completed earlier run.
type MigrationStatus struct {
	Entities   map[string]EntityPresence `json:"entities"`
	CanMigrate bool                      `json:"canMigrate"`
}

// MigrationReport counts what a successful run copied.
type MigrationReport struct {
	Products        int `json:"products"`
	Categories      int `json:"categories"`
	Testimonials    int `json:"testimonials"`
	ContentSections int `json:"contentSections"`
	SettingsKeys    int `json:"settingsKeys"`
}

// Migrator performs the one-directional, one-shot copy from the local
// store to the database. Media is intentionally not migrated: binary
// re-upload is a manual step.
type Migrator struct {
	local  *Local
	remote *Remote
	bus    *events.Bus
}

func NewMigrator(local *Local, remote *Remote, bus *events.Bus) *Migrator {
	return &Migrator{local: local, remote: remote, bus: bus}
}

// CheckStatus reads both sides without mutating anything: local blobs
// are peeked at directly so the check cannot trigger default seeding.
func (m *Migrator) CheckStatus(ctx context.Context) (*MigrationStatus, error) {
	if m.remote == nil {
		return nil, ErrNotConfigured
	}
	remoteCounts, err := m.remote.countAll(ctx)
	if err != nil {
		return nil, err
	}

	status := &MigrationStatus{Entities: map[string]EntityPresence{}}
	anyLocal := false
	var totalRemote int64

	for entity, key := range map[string]string{
		EntityProducts:   keyProducts,
		EntityCategories: keyCategories,
		EntityMedia:      keyMedia,
	} {
		count, exists, err := m.local.peekList(key)
		if err != nil {
			return nil, err
		}
		p := EntityPresence{
			Local:       exists && count > 0,
			LocalCount:  count,
			Remote:      remoteCounts[entity] > 0,
			RemoteCount: int(remoteCounts[entity]),
		}
		status.Entities[entity] = p
		// media is never migrated, so its presence alone must not
		// offer a run that would copy nothing
		if entity != EntityMedia {
			anyLocal = anyLocal || p.Local
		}
		totalRemote += remoteCounts[entity]
	}

	for entity, key := range map[string]string{
		EntityContent:  keyContent,
		EntitySettings: keySettings,
	} {
		exists, err := m.local.peekExists(key)
		if err != nil {
			return nil, err
		}
		p := EntityPresence{
			Local:       exists,
			Remote:      remoteCounts[entity] > 0,
			RemoteCount: int(remoteCounts[entity]),
		}
		if exists {
			p.LocalCount = 1
		}
		status.Entities[entity] = p
		anyLocal = anyLocal || exists
		totalRemote += remoteCounts[entity]
	}

	// testimonials ride inside the local content blob
	totalRemote += remoteCounts[EntityTestimonials]
	status.Entities[EntityTestimonials] = EntityPresence{
		Remote:      remoteCounts[EntityTestimonials] > 0,
		RemoteCount: int(remoteCounts[EntityTestimonials]),
	}

	status.CanMigrate = anyLocal && totalRemote == 0
	return status, nil
}

// Migrate copies every local record to the database through the same
// Add/Save operations a user-driven create would take, letting the
// database assign new identities. The first failure aborts the whole
// run; there is no partial-success bookkeeping, the operator fixes the
// cause and retries.
func (m *Migrator) Migrate(ctx context.Context) (*MigrationReport, error) {
	status, err := m.CheckStatus(ctx)
	if err != nil {
		return nil, err
	}
	if !status.CanMigrate {
		return nil, ErrNothingToMigrate
	}

	report := &MigrationReport{}

	if status.Entities[EntityProducts].Local {
		products, err := m.local.GetProducts(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			p.ID = 0
			if _, err := m.remote.AddProduct(ctx, p); err != nil {
				return nil, fmt.Errorf("migrate product %q: %w", p.Name, err)
			}
			report.Products++
		}
	}

	if status.Entities[EntityCategories].Local {
		categories, err := m.local.GetCategories(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range categories {
			c.ID = 0
			if _, err := m.remote.AddCategory(ctx, c); err != nil {
				return nil, fmt.Errorf("migrate category %q: %w", c.Name, err)
			}
			report.Categories++
		}
	}

	if status.Entities[EntityContent].Local {
		content, err := m.local.GetContent(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range content.Testimonials {
			t.ID = 0
			if _, err := m.remote.AddTestimonial(ctx, t); err != nil {
				return nil, fmt.Errorf("migrate testimonial %q: %w", t.Name, err)
			}
			report.Testimonials++
		}
		if err := m.remote.SaveContent(ctx, content); err != nil {
			return nil, fmt.Errorf("migrate content: %w", err)
		}
		report.ContentSections = 4
	}

	if status.Entities[EntitySettings].Local {
		settings, err := m.local.GetSettings(ctx)
		if err != nil {
			return nil, err
		}
		if err := m.remote.SaveSettings(ctx, settings); err != nil {
			return nil, fmt.Errorf("migrate settings: %w", err)
		}
		report.SettingsKeys = 7
	}

	zap.L().Info("local data migrated to database",
		zap.Int("products", report.Products),
		zap.Int("categories", report.Categories),
		zap.Int("testimonials", report.Testimonials))

	if m.bus != nil {
		m.bus.Emit(events.DatabaseReconnected, nil)
	}
	return report, nil
}

// ClearLocal wipes the local blobs after a confirmed migration.
// Declining the confirmation simply means never calling this; local
// data then stays in place, duplicated on both backends.
func (m *Migrator) ClearLocal(ctx context.Context) error {
	return m.local.ClearAll(ctx)
}
