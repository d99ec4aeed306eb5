package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/shyamtrading/siteserver/internal/domain"
	"github.com/shyamtrading/siteserver/internal/events"
)

func newProduct(name, category string) domain.Product {
	return domain.Product{
		Name:           name,
		Category:       category,
		Description:    "test product",
		Features:       []string{"one", "two"},
		Price:          "₹50/kg",
		Specifications: map[string]string{"Standard": "IS 2062"},
		InStock:        true,
	}
}

func newTestimonial(name string, rating int) domain.Testimonial {
	return domain.Testimonial{
		Name:    name,
		Company: "Test Co",
		Text:    "Reliable supplier.",
		Rating:  rating,
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "remote.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(Tables...))
	return db
}

func newTestRemote(t *testing.T, bus *events.Bus) *Remote {
	t.Helper()
	r, err := NewRemote(newTestDB(t), bus, nil)
	require.NoError(t, err)
	return r
}
