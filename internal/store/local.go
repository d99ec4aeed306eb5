package store

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/snowflake"
	jsoniter "github.com/json-iterator/go"
	bolt "go.etcd.io/bbolt"

	"github.com/shyamtrading/siteserver/config"
	"github.com/shyamtrading/siteserver/internal/domain"
	"github.com/shyamtrading/siteserver/internal/events"
	"github.com/shyamtrading/siteserver/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Storage keys, one whole-collection JSON blob per entity type. The
// flag keys hold "true"/"false" strings.
const (
	keyProducts   = "website_products"
	keyCategories = "website_categories"
	keyContent    = "website_content"
	keySettings   = "website_settings"
	keyMedia      = "website_media"

	// KeyForceLocal pins the dispatcher to the local backend
	// regardless of database availability.
	KeyForceLocal = "force_local_storage"
	// KeyAdminAuthenticated is kept for compatibility with older
	// deployments that stored the auth flag here; sessions have
	// superseded it.
	KeyAdminAuthenticated = "admin_authenticated"
)

var localBucket = []byte("website")

// Bundled fallback data, seeded into an empty store on first access.
var (
	//go:embed defaults/products.json
	defaultProductsJSON []byte
	//go:embed defaults/content.json
	defaultContentJSON []byte
	//go:embed defaults/settings.json
	defaultSettingsJSON []byte
)

// Local persists every collection as one serialized blob in a bbolt
// file, mirroring the behavior of the browser-local store it replaces.
// Writes re-serialize the whole collection and are followed by an
// artificial delay so callers cannot come to depend on synchronous
// completion.
type Local struct {
	db         *bolt.DB
	bus        *events.Bus
	delay      time.Duration
	mediaDir   string
	ids        *snowflake.Node
	forceLocal atomic.Bool
}

func NewLocal(cfg config.LocalConfig, bus *events.Bus) (*Local, error) {
	db, err := bolt.Open(cfg.Path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(localBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local store: %w", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	l := &Local{
		db:       db,
		bus:      bus,
		delay:    cfg.WriteDelay(),
		mediaDir: cfg.MediaDir,
		ids:      node,
	}
	l.forceLocal.Store(l.flag(KeyForceLocal))
	return l, nil
}

func (l *Local) Close() error { return l.db.Close() }

func (l *Local) Name() string { return "local" }

// ForceLocal reports the user-settable override pinning routing to
// this backend. It is independent of the connection probe cache.
func (l *Local) ForceLocal() bool { return l.forceLocal.Load() }

func (l *Local) SetForceLocal(v bool) error {
	if err := l.setFlag(KeyForceLocal, v); err != nil {
		return err
	}
	l.forceLocal.Store(v)
	return nil
}

// sleep is the artificial latency following every successful write.
func (l *Local) sleep(ctx context.Context) error {
	if l.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(l.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Local) readBlob(key string) ([]byte, error) {
	var out []byte
	err := l.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(localBucket).Get([]byte(key)); v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, err
}

func (l *Local) writeBlob(key string, data []byte) error {
	return l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(localBucket).Put([]byte(key), data)
	})
}

func (l *Local) flag(key string) bool {
	blob, err := l.readBlob(key)
	return err == nil && string(blob) == "true"
}

func (l *Local) setFlag(key string, v bool) error {
	return l.writeBlob(key, []byte(fmt.Sprintf("%t", v)))
}

func (l *Local) emit(topic, entity string, value interface{}) {
	if l.bus == nil {
		return
	}
	l.bus.Emit(topic, Change{Entity: entity, Value: value})
	l.bus.Emit(events.DataUpdated, Change{Entity: entity, Value: value})
}

// loadBlob reads a collection, seeding the bundled defaults on the
// first-ever access of that key.
func loadBlob[T any](l *Local, key string, seed func() (T, error)) (T, error) {
	var zero T
	blob, err := l.readBlob(key)
	if err != nil {
		return zero, err
	}
	if blob == nil {
		items, err := seed()
		if err != nil {
			return zero, err
		}
		data, err := json.Marshal(items)
		if err != nil {
			return zero, err
		}
		if err := l.writeBlob(key, data); err != nil {
			return zero, err
		}
		return items, nil
	}
	var items T
	if err := json.Unmarshal(blob, &items); err != nil {
		return zero, fmt.Errorf("corrupt local blob %s: %w", key, err)
	}
	return items, nil
}

func storeBlob[T any](l *Local, key string, items T) error {
	data, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return l.writeBlob(key, data)
}

func nextID[T any](items []T, id func(T) int64) int64 {
	var max int64
	for _, it := range items {
		if id(it) > max {
			max = id(it)
		}
	}
	return max + 1
}

// Seeds

func seedProducts() ([]domain.Product, error) {
	var items []domain.Product
	err := json.Unmarshal(defaultProductsJSON, &items)
	return items, err
}

func seedContent() (*domain.ContentData, error) {
	var c domain.ContentData
	err := json.Unmarshal(defaultContentJSON, &c)
	return &c, err
}

func seedSettings() (*domain.SettingsData, error) {
	var s domain.SettingsData
	err := json.Unmarshal(defaultSettingsJSON, &s)
	return &s, err
}

// seedCategories derives Category records from the legacy name list in
// the bundled settings, preserving presentation order.
func seedCategories() ([]domain.Category, error) {
	s, err := seedSettings()
	if err != nil {
		return nil, err
	}
	items := make([]domain.Category, 0, len(s.Categories))
	for i, name := range s.Categories {
		items = append(items, domain.Category{
			ID:           int64(i + 1),
			Name:         name,
			Slug:         domain.GenerateSlug(name),
			DisplayOrder: i,
			Active:       true,
		})
	}
	return items, nil
}

func seedMedia() ([]domain.MediaItem, error) { return []domain.MediaItem{}, nil }

// Products

func (l *Local) GetProducts(ctx context.Context) ([]domain.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadBlob(l, keyProducts, seedProducts)
}

func (l *Local) AddProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	items, err := loadBlob(l, keyProducts, seedProducts)
	if err != nil {
		return nil, err
	}
	p.ID = nextID(items, func(x domain.Product) int64 { return x.ID })
	items = append([]domain.Product{p}, items...)
	if err := storeBlob(l, keyProducts, items); err != nil {
		return nil, err
	}
	if err := l.sleep(ctx); err != nil {
		return nil, err
	}
	l.emit(events.ProductUpdated, EntityProducts, p)
	return &p, nil
}

func (l *Local) UpdateProduct(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Product, error) {
	items, err := loadBlob(l, keyProducts, seedProducts)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil // unknown id, silent no-op
	}
	merged, err := mergePatch(items[idx], patch)
	if err != nil {
		return nil, err
	}
	merged.ID = id
	items[idx] = merged
	if err := storeBlob(l, keyProducts, items); err != nil {
		return nil, err
	}
	if err := l.sleep(ctx); err != nil {
		return nil, err
	}
	l.emit(events.ProductUpdated, EntityProducts, merged)
	return &merged, nil
}

func (l *Local) DeleteProduct(ctx context.Context, id int64) error {
	items, err := loadBlob(l, keyProducts, seedProducts)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if err := storeBlob(l, keyProducts, kept); err != nil {
		return err
	}
	if err := l.sleep(ctx); err != nil {
		return err
	}
	l.emit(events.ProductUpdated, EntityProducts, nil)
	return nil
}

// Categories

func (l *Local) GetCategories(ctx context.Context) ([]domain.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadBlob(l, keyCategories, seedCategories)
}

func (l *Local) AddCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if err := validateCategory(c); err != nil {
		return nil, err
	}
	items, err := loadBlob(l, keyCategories, seedCategories)
	if err != nil {
		return nil, err
	}
	c.ID = nextID(items, func(x domain.Category) int64 { return x.ID })
	if c.Slug == "" {
		c.Slug = domain.GenerateSlug(c.Name)
	}
	items = append([]domain.Category{c}, items...)
	if err := storeBlob(l, keyCategories, items); err != nil {
		return nil, err
	}
	if err := l.sleep(ctx); err != nil {
		return nil, err
	}
	l.emit(events.CategoryUpdated, EntityCategories, c)
	return &c, nil
}

func (l *Local) UpdateCategory(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Category, error) {
	items, err := loadBlob(l, keyCategories, seedCategories)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range items {
		if items[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}
	merged, err := mergePatch(items[idx], patch)
	if err != nil {
		return nil, err
	}
	merged.ID = id
	if _, renamed := patch["name"]; renamed && patch["slug"] == nil {
		merged.Slug = domain.GenerateSlug(merged.Name)
	}
	items[idx] = merged
	if err := storeBlob(l, keyCategories, items); err != nil {
		return nil, err
	}
	if err := l.sleep(ctx); err != nil {
		return nil, err
	}
	l.emit(events.CategoryUpdated, EntityCategories, merged)
	return &merged, nil
}

func (l *Local) DeleteCategory(ctx context.Context, id int64) error {
	items, err := loadBlob(l, keyCategories, seedCategories)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if err := storeBlob(l, keyCategories, kept); err != nil {
		return err
	}
	if err := l.sleep(ctx); err != nil {
		return err
	}
	l.emit(events.CategoryUpdated, EntityCategories, nil)
	return nil
}

// Testimonials live inside the content aggregate locally.

func (l *Local) GetTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	c, err := l.GetContent(ctx)
	if err != nil {
		return nil, err
	}
	return c.Testimonials, nil
}

func (l *Local) AddTestimonial(ctx context.Context, t domain.Testimonial) (*domain.Testimonial, error) {
	if err := validateTestimonial(t); err != nil {
		return nil, err
	}
	c, err := loadBlob(l, keyContent, seedContent)
	if err != nil {
		return nil, err
	}
	t.ID = nextID(c.Testimonials, func(x domain.Testimonial) int64 { return x.ID })
	c.Testimonials = append([]domain.Testimonial{t}, c.Testimonials...)
	if err := storeBlob(l, keyContent, c); err != nil {
		return nil, err
	}
	if err := l.sleep(ctx); err != nil {
		return nil, err
	}
	l.emit(events.TestimonialUpdated, EntityTestimonials, t)
	return &t, nil
}

func (l *Local) UpdateTestimonial(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Testimonial, error) {
	c, err := loadBlob(l, keyContent, seedContent)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range c.Testimonials {
		if c.Testimonials[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}
	merged, err := mergePatch(c.Testimonials[idx], patch)
	if err != nil {
		return nil, err
	}
	merged.ID = id
	if err := validateTestimonial(merged); err != nil {
		return nil, err
	}
	c.Testimonials[idx] = merged
	if err := storeBlob(l, keyContent, c); err != nil {
		return nil, err
	}
	if err := l.sleep(ctx); err != nil {
		return nil, err
	}
	l.emit(events.TestimonialUpdated, EntityTestimonials, merged)
	return &merged, nil
}

func (l *Local) DeleteTestimonial(ctx context.Context, id int64) error {
	c, err := loadBlob(l, keyContent, seedContent)
	if err != nil {
		return err
	}
	kept := c.Testimonials[:0]
	for _, it := range c.Testimonials {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	c.Testimonials = kept
	if err := storeBlob(l, keyContent, c); err != nil {
		return err
	}
	if err := l.sleep(ctx); err != nil {
		return err
	}
	l.emit(events.TestimonialUpdated, EntityTestimonials, nil)
	return nil
}

// Content

func (l *Local) GetContent(ctx context.Context) (*domain.ContentData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadBlob(l, keyContent, seedContent)
}

func (l *Local) SaveContent(ctx context.Context, c *domain.ContentData) error {
	if err := storeBlob(l, keyContent, c); err != nil {
		return err
	}
	if err := l.sleep(ctx); err != nil {
		return err
	}
	l.emit(events.ContentUpdated, EntityContent, c)
	return nil
}

func (l *Local) SaveContentSection(ctx context.Context, section string, data interface{}) error {
	if !validContentSection(section) {
		return fmt.Errorf("%w: unknown content section %q", ErrValidation, section)
	}
	c, err := loadBlob(l, keyContent, seedContent)
	if err != nil {
		return err
	}
	updated, err := setAggregateKey(c, section, data)
	if err != nil {
		return err
	}
	if err := storeBlob(l, keyContent, updated); err != nil {
		return err
	}
	if err := l.sleep(ctx); err != nil {
		return err
	}
	l.emit(events.ContentUpdated, EntityContent, updated)
	return nil
}

// Settings

func (l *Local) GetSettings(ctx context.Context) (*domain.SettingsData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadBlob(l, keySettings, seedSettings)
}

func (l *Local) SaveSettings(ctx context.Context, s *domain.SettingsData) error {
	if err := storeBlob(l, keySettings, s); err != nil {
		return err
	}
	if err := l.sleep(ctx); err != nil {
		return err
	}
	l.emit(events.SettingsUpdated, EntitySettings, s)
	return nil
}

func (l *Local) SaveSettingsKey(ctx context.Context, key string, value interface{}) error {
	if !validSettingsKey(key) {
		return fmt.Errorf("%w: unknown settings key %q", ErrValidation, key)
	}
	s, err := loadBlob(l, keySettings, seedSettings)
	if err != nil {
		return err
	}
	updated, err := setAggregateKey(s, key, value)
	if err != nil {
		return err
	}
	if err := storeBlob(l, keySettings, updated); err != nil {
		return err
	}
	if err := l.sleep(ctx); err != nil {
		return err
	}
	l.emit(events.SettingsUpdated, EntitySettings, updated)
	return nil
}

// Media. In local mode the binary lands under the media directory and
// is served as a static file; the metadata record joins the blob list.

func (l *Local) GetMedia(ctx context.Context) ([]domain.MediaItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return loadBlob(l, keyMedia, seedMedia)
}

func (l *Local) AddMedia(ctx context.Context, up MediaUpload) (*domain.MediaItem, error) {
	if err := storage.ValidateUpload(up.ContentType, up.Size, up.AllowVideo); err != nil {
		return nil, err
	}
	objectPath := storage.ObjectPath(up.Category, up.FileName)
	target := filepath.Join(l.mediaDir, filepath.FromSlash(objectPath))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(target)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(f, io.LimitReader(up.Body, up.Size)); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	item := domain.MediaItem{
		ID:         l.ids.Generate().String(),
		Name:       up.FileName,
		URL:        "/media/" + objectPath,
		Type:       storage.MediaType(up.ContentType),
		Category:   up.Category,
		Alt:        storage.AltFromFilename(up.FileName),
		Size:       up.Size,
		UploadDate: time.Now(),
	}
	items, err := loadBlob(l, keyMedia, seedMedia)
	if err != nil {
		return nil, err
	}
	items = append([]domain.MediaItem{item}, items...)
	if err := storeBlob(l, keyMedia, items); err != nil {
		return nil, err
	}
	if err := l.sleep(ctx); err != nil {
		return nil, err
	}
	l.emit(events.MediaUpdated, EntityMedia, item)
	return &item, nil
}

func (l *Local) DeleteMedia(ctx context.Context, id string) error {
	items, err := loadBlob(l, keyMedia, seedMedia)
	if err != nil {
		return err
	}
	kept := items[:0]
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if err := storeBlob(l, keyMedia, kept); err != nil {
		return err
	}
	if err := l.sleep(ctx); err != nil {
		return err
	}
	l.emit(events.MediaUpdated, EntityMedia, nil)
	return nil
}

// ClearAll removes every collection blob, leaving the flag keys in
// place. Used after a confirmed migration.
func (l *Local) ClearAll(ctx context.Context) error {
	err := l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(localBucket)
		for _, key := range []string{keyProducts, keyCategories, keyContent, keySettings, keyMedia} {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return l.sleep(ctx)
}

// peekList counts a stored list without seeding defaults or latency;
// the migration status check must not mutate anything.
func (l *Local) peekList(key string) (int, bool, error) {
	blob, err := l.readBlob(key)
	if err != nil || blob == nil {
		return 0, false, err
	}
	var raw []jsoniter.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		return 0, true, err
	}
	return len(raw), true, nil
}

func (l *Local) peekExists(key string) (bool, error) {
	blob, err := l.readBlob(key)
	return blob != nil, err
}

// mergePatch overlays patch fields (JSON names) onto an entity.
func mergePatch[T any](entity T, patch map[string]interface{}) (T, error) {
	var out T
	raw, err := json.Marshal(entity)
	if err != nil {
		return out, err
	}
	m := map[string]interface{}{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return out, err
	}
	for k, v := range patch {
		m[k] = v
	}
	raw, err = json.Marshal(m)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return out, nil
}

// setAggregateKey sets one named section/key of an aggregate via its
// JSON shape, leaving the other sections untouched.
func setAggregateKey[T any](aggregate T, key string, value interface{}) (T, error) {
	return mergePatch(aggregate, map[string]interface{}{key: value})
}
