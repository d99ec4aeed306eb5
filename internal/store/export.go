package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shyamtrading/siteserver/internal/domain"
)

// ExportVersion identifies the export document layout.
const ExportVersion = "1.0"

// ExportDocument is the full-site backup shape. It is backend-neutral:
// the same document comes out of either backend and can be imported
// into either. Media entries describe uploaded binaries but the
// binaries themselves are not part of the document.
type ExportDocument struct {
	Products   []domain.Product     `json:"products"`
	Categories []domain.Category    `json:"categories"`
	Content    *domain.ContentData  `json:"content"`
	Settings   *domain.SettingsData `json:"settings"`
	Media      []domain.MediaItem   `json:"media"`
	ExportDate time.Time            `json:"exportDate"`
	Version    string               `json:"version"`
}

// ImportReport counts what an import wrote.
type ImportReport struct {
	Products     int  `json:"products"`
	Categories   int  `json:"categories"`
	Testimonials int  `json:"testimonials"`
	Content      bool `json:"content"`
	Settings     bool `json:"settings"`
	MediaSkipped int  `json:"mediaSkipped"`
}

// Export assembles the full document from whichever backend currently
// serves reads.
func Export(ctx context.Context, b Backend) (*ExportDocument, error) {
	products, err := b.GetProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("export products: %w", err)
	}
	categories, err := b.GetCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("export categories: %w", err)
	}
	content, err := b.GetContent(ctx)
	if err != nil {
		return nil, fmt.Errorf("export content: %w", err)
	}
	settings, err := b.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("export settings: %w", err)
	}
	media, err := b.GetMedia(ctx)
	if err != nil {
		return nil, fmt.Errorf("export media: %w", err)
	}
	return &ExportDocument{
		Products:   products,
		Categories: categories,
		Content:    content,
		Settings:   settings,
		Media:      media,
		ExportDate: time.Now().UTC(),
		Version:    ExportVersion,
	}, nil
}

// Import replays a document through the normal save path of the active
// backend, so validation, identity assignment and change notifications
// all apply exactly as for interactive edits. Imported records are
// appended; nothing existing is cleared first. Media entries are
// skipped because the binaries cannot travel in a JSON document.
func Import(ctx context.Context, b Backend, doc *ExportDocument) (*ImportReport, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty import document", ErrValidation)
	}

	report := &ImportReport{MediaSkipped: len(doc.Media)}

	for _, p := range doc.Products {
		p.ID = 0
		if _, err := b.AddProduct(ctx, p); err != nil {
			return nil, fmt.Errorf("import product %q: %w", p.Name, err)
		}
		report.Products++
	}

	for _, c := range doc.Categories {
		c.ID = 0
		if _, err := b.AddCategory(ctx, c); err != nil {
			return nil, fmt.Errorf("import category %q: %w", c.Name, err)
		}
		report.Categories++
	}

	if doc.Content != nil {
		for _, t := range doc.Content.Testimonials {
			t.ID = 0
			if _, err := b.AddTestimonial(ctx, t); err != nil {
				return nil, fmt.Errorf("import testimonial %q: %w", t.Name, err)
			}
			report.Testimonials++
		}
		// sections go through the keyed save so testimonials already
		// written above survive on either backend
		for section, data := range map[string]domain.SectionData{
			domain.SectionHero:       doc.Content.Hero,
			domain.SectionAbout:      doc.Content.About,
			domain.SectionCTA:        doc.Content.CTA,
			domain.SectionStatistics: doc.Content.Statistics,
		} {
			if data == nil {
				continue
			}
			if err := b.SaveContentSection(ctx, section, data); err != nil {
				return nil, fmt.Errorf("import content section %s: %w", section, err)
			}
		}
		report.Content = true
	}

	if doc.Settings != nil {
		if err := b.SaveSettings(ctx, doc.Settings); err != nil {
			return nil, fmt.Errorf("import settings: %w", err)
		}
		report.Settings = true
	}

	if report.MediaSkipped > 0 {
		zap.L().Info("import skipped media entries, binaries must be re-uploaded",
			zap.Int("count", report.MediaSkipped))
	}
	return report, nil
}
