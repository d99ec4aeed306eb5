package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shyamtrading/siteserver/config"
	"github.com/shyamtrading/siteserver/internal/domain"
	"github.com/shyamtrading/siteserver/internal/events"
)

func newTestLocal(t *testing.T, delayMS int, bus *events.Bus) *Local {
	t.Helper()
	l := openTestLocal(t, filepath.Join(t.TempDir(), "site.db"), delayMS, bus)
	return l
}

func openTestLocal(t *testing.T, path string, delayMS int, bus *events.Bus) *Local {
	t.Helper()
	l, err := NewLocal(config.LocalConfig{
		Path:         path,
		MediaDir:     filepath.Join(filepath.Dir(path), "media"),
		WriteDelayMS: delayMS,
	}, bus)
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestLocalSeedsDefaultsOnFirstRead(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	products, err := l.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 4)
	assert.Equal(t, "TMT Steel Bars", products[0].Name)
	assert.Equal(t, int64(1), products[0].ID)

	content, err := l.GetContent(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, content.Hero)
	assert.Len(t, content.Testimonials, 2)

	settings, err := l.GetSettings(ctx)
	require.NoError(t, err)
	assert.Contains(t, settings.Categories, "Steel Bars")

	categories, err := l.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 5)
	assert.Equal(t, "All", categories[0].Name)
	assert.Equal(t, "steel-bars", categories[1].Slug)

	media, err := l.GetMedia(ctx)
	require.NoError(t, err)
	assert.Empty(t, media)
}

func TestLocalAddProductAssignsNextIDAndPrepends(t *testing.T) {
	bus := events.NewBus()
	var topics []string
	bus.On(events.ProductUpdated, func(e events.Event) { topics = append(topics, e.Type) })
	bus.On(events.DataUpdated, func(e events.Event) { topics = append(topics, e.Type) })

	l := newTestLocal(t, 0, bus)
	ctx := context.Background()

	created, err := l.AddProduct(ctx, newProduct("Hollow Sections", "Structural Steel"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), created.ID)

	products, err := l.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 5)
	assert.Equal(t, "Hollow Sections", products[0].Name)

	assert.Equal(t, []string{events.ProductUpdated, events.DataUpdated}, topics)
}

func TestLocalAddProductRequiresName(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	_, err := l.AddProduct(context.Background(), newProduct("   ", "Pipes"))
	require.ErrorIs(t, err, ErrValidation)
}

func TestLocalUpdateUnknownIDIsSilentNoOp(t *testing.T) {
	bus := events.NewBus()
	fired := false
	bus.On(events.DataUpdated, func(events.Event) { fired = true })

	l := newTestLocal(t, 0, bus)
	ctx := context.Background()

	updated, err := l.UpdateProduct(ctx, 999, map[string]interface{}{"name": "Ghost"})
	require.NoError(t, err)
	assert.Nil(t, updated)
	assert.False(t, fired)

	require.NoError(t, l.DeleteProduct(ctx, 999))
	products, err := l.GetProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestLocalUpdateProductMergesPatch(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	updated, err := l.UpdateProduct(ctx, 1, map[string]interface{}{
		"inStock": false,
		"price":   "₹65/kg",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.False(t, updated.InStock)
	assert.Equal(t, "₹65/kg", updated.Price)
	// untouched fields survive the merge
	assert.Equal(t, "TMT Steel Bars", updated.Name)
	assert.Equal(t, []string{"Fe 500D grade", "Corrosion resistant", "Uniform elongation"}, updated.Features)
}

func TestLocalDeleteProduct(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	require.NoError(t, l.DeleteProduct(ctx, 2))
	products, err := l.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 3)
	for _, p := range products {
		assert.NotEqual(t, int64(2), p.ID)
	}
}

func TestLocalWriteDelay(t *testing.T) {
	l := newTestLocal(t, 60, nil)
	ctx := context.Background()

	start := time.Now()
	_, err := l.AddProduct(ctx, newProduct("Delayed", "Pipes"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond)

	start = time.Now()
	_, err = l.GetProducts(ctx)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 60*time.Millisecond)
}

func TestLocalWriteDelayHonorsCancel(t *testing.T) {
	l := newTestLocal(t, 5000, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.AddProduct(ctx, newProduct("Cancelled", "Pipes"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestLocalCategoryRenameRefreshesSlug(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	updated, err := l.UpdateCategory(ctx, 2, map[string]interface{}{"name": "Rebar & Rods"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "rebar-rods", updated.Slug)
}

func TestLocalTestimonialsLiveInContent(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	created, err := l.AddTestimonial(ctx, newTestimonial("Asha Builders", 5))
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)

	content, err := l.GetContent(ctx)
	require.NoError(t, err)
	require.Len(t, content.Testimonials, 3)
	assert.Equal(t, "Asha Builders", content.Testimonials[0].Name)

	_, err = l.AddTestimonial(ctx, newTestimonial("Bad Rating", 9))
	require.ErrorIs(t, err, ErrValidation)
}

func TestLocalSaveContentSectionLeavesOthers(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	before, err := l.GetContent(ctx)
	require.NoError(t, err)

	err = l.SaveContentSection(ctx, "hero", map[string]interface{}{"title": "New Headline"})
	require.NoError(t, err)

	after, err := l.GetContent(ctx)
	require.NoError(t, err)
	assert.Equal(t, "New Headline", after.Hero["title"])
	assert.Equal(t, before.About, after.About)
	assert.Equal(t, len(before.Testimonials), len(after.Testimonials))

	err = l.SaveContentSection(ctx, "nonsense", map[string]interface{}{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestLocalRejectsTestimonialsAsSection(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	// testimonials have their own save path with per-record validation
	err := l.SaveContentSection(ctx, "testimonials", []domain.Testimonial{{Name: "Sneaky", Rating: 9}})
	require.ErrorIs(t, err, ErrValidation)

	content, err := l.GetContent(ctx)
	require.NoError(t, err)
	assert.Len(t, content.Testimonials, 2)
}

func TestLocalSaveSettingsKey(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	err := l.SaveSettingsKey(ctx, "categories", []string{"All", "Wire"})
	require.NoError(t, err)

	settings, err := l.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"All", "Wire"}, settings.Categories)

	err = l.SaveSettingsKey(ctx, "bogus", 1)
	require.ErrorIs(t, err, ErrValidation)
}

func TestLocalForceLocalPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.db")

	l := openTestLocal(t, path, 0, nil)
	assert.False(t, l.ForceLocal())
	require.NoError(t, l.SetForceLocal(true))
	require.NoError(t, l.Close())

	reopened := openTestLocal(t, path, 0, nil)
	assert.True(t, reopened.ForceLocal())
}

func TestLocalClearAllThenReseed(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	_, err := l.GetProducts(ctx)
	require.NoError(t, err)
	count, exists, err := l.peekList(keyProducts)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 4, count)

	require.NoError(t, l.ClearAll(ctx))
	_, exists, err = l.peekList(keyProducts)
	require.NoError(t, err)
	assert.False(t, exists)

	// next read reseeds
	products, err := l.GetProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 4)
}

func TestLocalAddMediaWritesFile(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	ctx := context.Background()

	body := strings.NewReader("fake png bytes")
	item, err := l.AddMedia(ctx, MediaUpload{
		FileName:    "warehouse-photo.png",
		ContentType: "image/png",
		Size:        14,
		Category:    "gallery",
		Body:        body,
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(item.URL, "/media/gallery/"))
	assert.Equal(t, "image", item.Type)
	assert.Equal(t, "warehouse photo", item.Alt)

	rel := strings.TrimPrefix(item.URL, "/media/")
	data, err := os.ReadFile(filepath.Join(l.mediaDir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(data))

	items, err := l.GetMedia(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, l.DeleteMedia(ctx, item.ID))
	items, err = l.GetMedia(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestLocalRejectsOversizedUpload(t *testing.T) {
	l := newTestLocal(t, 0, nil)
	_, err := l.AddMedia(context.Background(), MediaUpload{
		FileName:    "big.png",
		ContentType: "image/png",
		Size:        6 << 20,
		Body:        strings.NewReader(""),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "5MB")
}
