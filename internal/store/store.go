// Package store is the hybrid persistence layer: two interchangeable
// backends (embedded local file vs. hosted database + object storage)
// behind one uniform CRUD surface, a connection prober that decides
// which backend serves a session, and the one-shot migration that
// copies local data to the database.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shyamtrading/siteserver/internal/domain"
)

// Entity kinds, used as the type tag on generic data-updated payloads
// and as keys in migration status reports.
const (
	EntityProducts     = "products"
	EntityCategories   = "categories"
	EntityTestimonials = "testimonials"
	EntityContent      = "content"
	EntitySettings     = "settings"
	EntityMedia        = "media"
)

// Backend modes as reported by ConnectionStatus. The local mode keeps
// the name the admin UI has always displayed.
const (
	ModeLocal    = "localStorage"
	ModeDatabase = "database"
)

var (
	// ErrNotConfigured means required database connection values are
	// absent; no network attempt was made.
	ErrNotConfigured = errors.New("database is not configured")
	// ErrValidation wraps all pre-I/O entity validation failures.
	ErrValidation = errors.New("validation failed")
)

// Change is the payload of generic data-updated events: the entity
// kind that changed and its new value.
type Change struct {
	Entity string      `json:"type"`
	Value  interface{} `json:"value,omitempty"`
}

// MediaUpload describes an incoming binary. Body is consumed once.
type MediaUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Category    string
	AllowVideo  bool
	Body        io.Reader
}

// Backend is the uniform surface both storage implementations expose.
// Partial updates take a patch keyed by the entity's JSON field names;
// updating or deleting an id the backend does not hold is a silent
// no-op on the local backend and a backend error on the remote one.
type Backend interface {
	Name() string

	GetProducts(ctx context.Context) ([]domain.Product, error)
	AddProduct(ctx context.Context, p domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	GetCategories(ctx context.Context) ([]domain.Category, error)
	AddCategory(ctx context.Context, c domain.Category) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	GetTestimonials(ctx context.Context) ([]domain.Testimonial, error)
	AddTestimonial(ctx context.Context, t domain.Testimonial) (*domain.Testimonial, error)
	UpdateTestimonial(ctx context.Context, id int64, patch map[string]interface{}) (*domain.Testimonial, error)
	DeleteTestimonial(ctx context.Context, id int64) error

	GetContent(ctx context.Context) (*domain.ContentData, error)
	SaveContent(ctx context.Context, c *domain.ContentData) error
	SaveContentSection(ctx context.Context, section string, data interface{}) error

	GetSettings(ctx context.Context) (*domain.SettingsData, error)
	SaveSettings(ctx context.Context, s *domain.SettingsData) error
	SaveSettingsKey(ctx context.Context, key string, value interface{}) error

	GetMedia(ctx context.Context) ([]domain.MediaItem, error)
	AddMedia(ctx context.Context, up MediaUpload) (*domain.MediaItem, error)
	DeleteMedia(ctx context.Context, id string) error
}

// validateProduct enforces required fields before any I/O, so imports
// and interactive edits fail the same way.
func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrValidation)
	}
	return nil
}

func validateCategory(c domain.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name is required", ErrValidation)
	}
	return nil
}

func validateTestimonial(t domain.Testimonial) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: testimonial name is required", ErrValidation)
	}
	if t.Rating < 1 || t.Rating > 5 {
		return fmt.Errorf("%w: testimonial rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

func validContentSection(section string) bool {
	for _, s := range domain.ContentSections {
		if s == section {
			return true
		}
	}
	return false
}

func validSettingsKey(key string) bool {
	for _, k := range domain.SettingsKeys {
		if k == key {
			return true
		}
	}
	return false
}
