package store

import (
	"fmt"
	"time"

	"github.com/shyamtrading/siteserver/internal/domain"
)

// Row shapes for the hosted relational backend. All translation
// between the application entity shape (camelCase, nested) and the row
// shape (snake_case, JSON text columns) happens through the pure
// transform functions below; every toRow/fromRow pair is an inverse
// for the fields it covers and never mutates its input.

type productRow struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	Name           string `gorm:"index"`
	Category       string `gorm:"index"`
	Description    string `gorm:"type:text"`
	Image          string `gorm:"size:1024"`
	Features       string `gorm:"type:text"` // JSON array
	Price          string
	Specifications string `gorm:"type:text"` // JSON object
	InStock        bool
	Featured       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (productRow) TableName() string { return "products" }

type categoryRow struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Name         string `gorm:"index"`
	Slug         string `gorm:"index"`
	Description  string `gorm:"type:text"`
	DisplayOrder int
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (categoryRow) TableName() string { return "categories" }

type testimonialRow struct {
	ID        int64 `gorm:"primaryKey;autoIncrement"`
	Name      string
	Company   string
	Text      string `gorm:"type:text"`
	Rating    int
	Image     string `gorm:"size:1024"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (testimonialRow) TableName() string { return "testimonials" }

type mediaRow struct {
	ID         string `gorm:"primaryKey;size:32"`
	Name       string
	URL        string `gorm:"size:1024;column:url"`
	Type       string `gorm:"size:16"`
	Category   string `gorm:"index"`
	Alt        string
	Size       int64
	UploadDate time.Time
	ObjectPath string `gorm:"size:512"` // bucket path, db-only, for the orphan sweep
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (mediaRow) TableName() string { return "media" }

// contentRow and settingRow hold one named slice of the respective
// aggregate per row; the aggregate is reassembled on read by merging
// all rows, and each row is independently upserted on write.

type contentRow struct {
	Section   string `gorm:"primaryKey;size:64"`
	Data      string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (contentRow) TableName() string { return "content" }

type settingRow struct {
	Key       string `gorm:"primaryKey;size:64"`
	Value     string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (settingRow) TableName() string { return "settings" }

// Tables drives schema migration.
var Tables = []interface{}{
	&productRow{},
	&categoryRow{},
	&testimonialRow{},
	&mediaRow{},
	&contentRow{},
	&settingRow{},
}

func productToRow(p domain.Product) (productRow, error) {
	features, err := json.Marshal(p.Features)
	if err != nil {
		return productRow{}, err
	}
	specs, err := json.Marshal(p.Specifications)
	if err != nil {
		return productRow{}, err
	}
	return productRow{
		ID:             p.ID,
		Name:           p.Name,
		Category:       p.Category,
		Description:    p.Description,
		Image:          p.Image,
		Features:       string(features),
		Price:          p.Price,
		Specifications: string(specs),
		InStock:        p.InStock,
		Featured:       p.Featured,
	}, nil
}

func productFromRow(r productRow) (domain.Product, error) {
	p := domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Image:       r.Image,
		Price:       r.Price,
		InStock:     r.InStock,
		Featured:    r.Featured,
	}
	if r.Features != "" {
		if err := json.Unmarshal([]byte(r.Features), &p.Features); err != nil {
			return p, fmt.Errorf("product %d features column: %w", r.ID, err)
		}
	}
	if r.Specifications != "" {
		if err := json.Unmarshal([]byte(r.Specifications), &p.Specifications); err != nil {
			return p, fmt.Errorf("product %d specifications column: %w", r.ID, err)
		}
	}
	return p, nil
}

func categoryToRow(c domain.Category) categoryRow {
	return categoryRow{
		ID:           c.ID,
		Name:         c.Name,
		Slug:         c.Slug,
		Description:  c.Description,
		DisplayOrder: c.DisplayOrder,
		Active:       c.Active,
	}
}

func categoryFromRow(r categoryRow) domain.Category {
	return domain.Category{
		ID:           r.ID,
		Name:         r.Name,
		Slug:         r.Slug,
		Description:  r.Description,
		DisplayOrder: r.DisplayOrder,
		Active:       r.Active,
	}
}

func testimonialToRow(t domain.Testimonial) testimonialRow {
	return testimonialRow{
		ID:      t.ID,
		Name:    t.Name,
		Company: t.Company,
		Text:    t.Text,
		Rating:  t.Rating,
		Image:   t.Image,
	}
}

func testimonialFromRow(r testimonialRow) domain.Testimonial {
	return domain.Testimonial{
		ID:      r.ID,
		Name:    r.Name,
		Company: r.Company,
		Text:    r.Text,
		Rating:  r.Rating,
		Image:   r.Image,
	}
}

func mediaToRow(m domain.MediaItem, objectPath string) mediaRow {
	return mediaRow{
		ID:         m.ID,
		Name:       m.Name,
		URL:        m.URL,
		Type:       m.Type,
		Category:   m.Category,
		Alt:        m.Alt,
		Size:       m.Size,
		UploadDate: m.UploadDate,
		ObjectPath: objectPath,
	}
}

func mediaFromRow(r mediaRow) domain.MediaItem {
	return domain.MediaItem{
		ID:         r.ID,
		Name:       r.Name,
		URL:        r.URL,
		Type:       r.Type,
		Category:   r.Category,
		Alt:        r.Alt,
		Size:       r.Size,
		UploadDate: r.UploadDate,
	}
}

// contentToRows flattens the four page sections into keyed rows.
// Testimonials are not included: remotely they live in their own table.
func contentToRows(c *domain.ContentData) ([]contentRow, error) {
	sections := map[string]interface{}{
		domain.SectionHero:       c.Hero,
		domain.SectionAbout:      c.About,
		domain.SectionCTA:        c.CTA,
		domain.SectionStatistics: c.Statistics,
	}
	rows := make([]contentRow, 0, len(sections))
	// fixed order keeps writes deterministic
	for _, name := range []string{domain.SectionHero, domain.SectionAbout, domain.SectionCTA, domain.SectionStatistics} {
		data, err := json.Marshal(sections[name])
		if err != nil {
			return nil, fmt.Errorf("content section %s: %w", name, err)
		}
		rows = append(rows, contentRow{Section: name, Data: string(data)})
	}
	return rows, nil
}

func contentFromRows(rows []contentRow) (*domain.ContentData, error) {
	c := &domain.ContentData{}
	for _, row := range rows {
		var target *domain.SectionData
		switch row.Section {
		case domain.SectionHero:
			target = &c.Hero
		case domain.SectionAbout:
			target = &c.About
		case domain.SectionCTA:
			target = &c.CTA
		case domain.SectionStatistics:
			target = &c.Statistics
		default:
			continue // unknown or legacy section, ignore
		}
		if err := json.Unmarshal([]byte(row.Data), target); err != nil {
			return nil, fmt.Errorf("content section %s: %w", row.Section, err)
		}
	}
	return c, nil
}

func settingsToRows(s *domain.SettingsData) ([]settingRow, error) {
	values := map[string]interface{}{
		domain.SettingsCompany:    s.Company,
		domain.SettingsContact:    s.Contact,
		domain.SettingsSocial:     s.Social,
		domain.SettingsSEO:        s.SEO,
		domain.SettingsCategories: s.Categories,
		domain.SettingsNavigation: s.Navigation,
		domain.SettingsTheme:      s.Theme,
	}
	rows := make([]settingRow, 0, len(domain.SettingsKeys))
	for _, key := range domain.SettingsKeys {
		data, err := json.Marshal(values[key])
		if err != nil {
			return nil, fmt.Errorf("settings key %s: %w", key, err)
		}
		rows = append(rows, settingRow{Key: key, Value: string(data)})
	}
	return rows, nil
}

func settingsFromRows(rows []settingRow) (*domain.SettingsData, error) {
	s := &domain.SettingsData{}
	for _, row := range rows {
		var target interface{}
		switch row.Key {
		case domain.SettingsCompany:
			target = &s.Company
		case domain.SettingsContact:
			target = &s.Contact
		case domain.SettingsSocial:
			target = &s.Social
		case domain.SettingsSEO:
			target = &s.SEO
		case domain.SettingsCategories:
			target = &s.Categories
		case domain.SettingsNavigation:
			target = &s.Navigation
		case domain.SettingsTheme:
			target = &s.Theme
		default:
			continue
		}
		if err := json.Unmarshal([]byte(row.Value), target); err != nil {
			return nil, fmt.Errorf("settings key %s: %w", row.Key, err)
		}
	}
	return s, nil
}
