package store

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shyamtrading/siteserver/internal/domain"
	"github.com/shyamtrading/siteserver/internal/events"
	"github.com/shyamtrading/siteserver/internal/storage"
)

// Remote maps entities to rows in the hosted database and delegates
// binary payloads to object storage. Every operation is a network
// round-trip; errors pass to the caller unchanged apart from added
// context. After each successful write the entity's update event and a
// generic data-updated event are emitted.
type Remote struct {
	db       *gorm.DB
	bus      *events.Bus
	objstore *storage.Client // nil when object storage is not configured
	ids      *snowflake.Node
}

func NewRemote(db *gorm.DB, bus *events.Bus, objstore *storage.Client) (*Remote, error) {
	node, err := snowflake.NewNode(2)
	if err != nil {
		return nil, err
	}
	return &Remote{db: db, bus: bus, objstore: objstore, ids: node}, nil
}

func (r *Remote) Name() string { return "database" }

// DB exposes the underlying handle for the prober and diagnostics.
func (r *Remote) DB() *gorm.DB { return r.db }

func (r *Remote) emit(topic, entity string, value interface{}) {
	if r.bus == nil {
		return
	}
	r.bus.Emit(topic, Change{Entity: entity, Value: value})
	r.bus.Emit(events.DataUpdated, Change{Entity: entity, Value: value})
}

// Products

func (r *Remote) GetProducts(ctx context.Context) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p, err := productFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *Remote) AddProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	row, err := productToRow(p)
	if err != nil {
		return nil, err
	}
	row.ID = 0 // backend assigns identity
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	created, err := productFromRow(row)
	if err != nil {
		return nil, err
	}
	r.emit(events.ProductUpdated, EntityProducts, created)
	return &created, nil
}

func (r *Remote) UpdateProduct(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Product, error) {
	var row productRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	current, err := productFromRow(row)
	if err != nil {
		return nil, err
	}
	merged, err := mergePatch(current, patch)
	if err != nil {
		return nil, err
	}
	merged.ID = id
	updated, err := productToRow(merged)
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = row.CreatedAt
	if err := r.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, err
	}
	r.emit(events.ProductUpdated, EntityProducts, merged)
	return &merged, nil
}

func (r *Remote) DeleteProduct(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&productRow{}, id).Error; err != nil {
		return err
	}
	r.emit(events.ProductUpdated, EntityProducts, nil)
	return nil
}

// Categories

func (r *Remote) GetCategories(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	if err := r.db.WithContext(ctx).Order("display_order ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, categoryFromRow(row))
	}
	return out, nil
}

func (r *Remote) AddCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if err := validateCategory(c); err != nil {
		return nil, err
	}
	if c.Slug == "" {
		c.Slug = domain.GenerateSlug(c.Name)
	}
	row := categoryToRow(c)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	created := categoryFromRow(row)
	r.emit(events.CategoryUpdated, EntityCategories, created)
	return &created, nil
}

func (r *Remote) UpdateCategory(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Category, error) {
	var row categoryRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	merged, err := mergePatch(categoryFromRow(row), patch)
	if err != nil {
		return nil, err
	}
	merged.ID = id
	if _, renamed := patch["name"]; renamed && patch["slug"] == nil {
		merged.Slug = domain.GenerateSlug(merged.Name)
	}
	updated := categoryToRow(merged)
	updated.CreatedAt = row.CreatedAt
	if err := r.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, err
	}
	r.emit(events.CategoryUpdated, EntityCategories, merged)
	return &merged, nil
}

func (r *Remote) DeleteCategory(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&categoryRow{}, id).Error; err != nil {
		return err
	}
	r.emit(events.CategoryUpdated, EntityCategories, nil)
	return nil
}

// Testimonials

func (r *Remote) GetTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	var rows []testimonialRow
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Testimonial, 0, len(rows))
	for _, row := range rows {
		out = append(out, testimonialFromRow(row))
	}
	return out, nil
}

func (r *Remote) AddTestimonial(ctx context.Context, t domain.Testimonial) (*domain.Testimonial, error) {
	if err := validateTestimonial(t); err != nil {
		return nil, err
	}
	row := testimonialToRow(t)
	row.ID = 0
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}
	created := testimonialFromRow(row)
	r.emit(events.TestimonialUpdated, EntityTestimonials, created)
	return &created, nil
}

func (r *Remote) UpdateTestimonial(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Testimonial, error) {
	var row testimonialRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, err
	}
	merged, err := mergePatch(testimonialFromRow(row), patch)
	if err != nil {
		return nil, err
	}
	merged.ID = id
	if err := validateTestimonial(merged); err != nil {
		return nil, err
	}
	updated := testimonialToRow(merged)
	updated.CreatedAt = row.CreatedAt
	if err := r.db.WithContext(ctx).Save(&updated).Error; err != nil {
		return nil, err
	}
	r.emit(events.TestimonialUpdated, EntityTestimonials, merged)
	return &merged, nil
}

func (r *Remote) DeleteTestimonial(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&testimonialRow{}, id).Error; err != nil {
		return err
	}
	r.emit(events.TestimonialUpdated, EntityTestimonials, nil)
	return nil
}

// Content. Stored as one row per named section and reassembled on
// read; each section is upserted independently, so a partial failure
// can leave sections inconsistent with each other (no multi-row
// transaction by design).

func (r *Remote) GetContent(ctx context.Context) (*domain.ContentData, error) {
	var rows []contentRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	c, err := contentFromRows(rows)
	if err != nil {
		return nil, err
	}
	testimonials, err := r.GetTestimonials(ctx)
	if err != nil {
		return nil, err
	}
	c.Testimonials = testimonials
	return c, nil
}

func (r *Remote) upsertContent(ctx context.Context, row contentRow) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "section"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&row).Error
}

func (r *Remote) SaveContent(ctx context.Context, c *domain.ContentData) error {
	rows, err := contentToRows(c)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := r.upsertContent(ctx, row); err != nil {
			return fmt.Errorf("save content section %s: %w", row.Section, err)
		}
	}
	r.emit(events.ContentUpdated, EntityContent, c)
	return nil
}

func (r *Remote) SaveContentSection(ctx context.Context, section string, data interface{}) error {
	if !validContentSection(section) {
		return fmt.Errorf("%w: unknown content section %q", ErrValidation, section)
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := r.upsertContent(ctx, contentRow{Section: section, Data: string(raw)}); err != nil {
		return fmt.Errorf("save content section %s: %w", section, err)
	}
	r.emit(events.ContentUpdated, EntityContent, map[string]interface{}{"section": section, "data": data})
	return nil
}

// Settings, same keyed-row scheme as content.

func (r *Remote) GetSettings(ctx context.Context) (*domain.SettingsData, error) {
	var rows []settingRow
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return settingsFromRows(rows)
}

func (r *Remote) upsertSetting(ctx context.Context, row settingRow) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

func (r *Remote) SaveSettings(ctx context.Context, s *domain.SettingsData) error {
	rows, err := settingsToRows(s)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := r.upsertSetting(ctx, row); err != nil {
			return fmt.Errorf("save settings key %s: %w", row.Key, err)
		}
	}
	r.emit(events.SettingsUpdated, EntitySettings, s)
	return nil
}

func (r *Remote) SaveSettingsKey(ctx context.Context, key string, value interface{}) error {
	if !validSettingsKey(key) {
		return fmt.Errorf("%w: unknown settings key %q", ErrValidation, key)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.upsertSetting(ctx, settingRow{Key: key, Value: string(raw)}); err != nil {
		return fmt.Errorf("save settings key %s: %w", key, err)
	}
	r.emit(events.SettingsUpdated, EntitySettings, map[string]interface{}{"key": key, "value": value})
	return nil
}

// Media

func (r *Remote) GetMedia(ctx context.Context) ([]domain.MediaItem, error) {
	var rows []mediaRow
	if err := r.db.WithContext(ctx).Order("upload_date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.MediaItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, mediaFromRow(row))
	}
	return out, nil
}

// AddMedia uploads the binary first and inserts the metadata row only
// after the upload succeeded, so a metadata row never exists without a
// backing blob. The reverse can happen: a metadata insert failing
// after a successful upload leaves an orphaned blob, which the
// diagnostics sweep reports but nothing deletes automatically.
func (r *Remote) AddMedia(ctx context.Context, up MediaUpload) (*domain.MediaItem, error) {
	if err := storage.ValidateUpload(up.ContentType, up.Size, up.AllowVideo); err != nil {
		return nil, err
	}
	if r.objstore == nil {
		return nil, storage.ErrNotConfigured
	}
	objectPath := storage.ObjectPath(up.Category, up.FileName)
	url, err := r.objstore.Upload(ctx, objectPath, up.Body, up.Size, up.ContentType)
	if err != nil {
		return nil, err
	}
	item := domain.MediaItem{
		ID:         r.ids.Generate().String(),
		Name:       up.FileName,
		URL:        url,
		Type:       storage.MediaType(up.ContentType),
		Category:   up.Category,
		Alt:        storage.AltFromFilename(up.FileName),
		Size:       up.Size,
		UploadDate: time.Now(),
	}
	row := mediaToRow(item, objectPath)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("media metadata insert failed, uploaded blob %s left in place: %w", objectPath, err)
	}
	r.emit(events.MediaUpdated, EntityMedia, item)
	return &item, nil
}

// DeleteMedia removes the metadata row, then attempts the blob
// deletion best-effort; the two are never atomic.
func (r *Remote) DeleteMedia(ctx context.Context, id string) error {
	var row mediaRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&mediaRow{}, "id = ?", id).Error; err != nil {
		return err
	}
	r.emit(events.MediaUpdated, EntityMedia, nil)
	if r.objstore != nil && row.ObjectPath != "" {
		if err := r.objstore.Remove(ctx, row.ObjectPath); err != nil {
			zap.L().Warn("media blob not removed",
				zap.String("object", row.ObjectPath), zap.Error(err))
		}
	}
	return nil
}

// Counts used by the migration status check and the prober.

func (r *Remote) countAll(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for entity, model := range map[string]interface{}{
		EntityProducts:     &productRow{},
		EntityCategories:   &categoryRow{},
		EntityTestimonials: &testimonialRow{},
		EntityContent:      &contentRow{},
		EntitySettings:     &settingRow{},
		EntityMedia:        &mediaRow{},
	} {
		var n int64
		if err := r.db.WithContext(ctx).Model(model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", entity, err)
		}
		counts[entity] = n
	}
	return counts, nil
}
