package domain

// SectionData is a free-form bag of strings/numbers/nested objects
// backing a single named page section (hero, about, cta, statistics).
type SectionData map[string]interface{}

// Testimonial is a customer quote shown on the home page.
type Testimonial struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company"`
	Text    string `json:"text"`
	Rating  int    `json:"rating"` // 1-5
	Image   string `json:"image"`
}

// ContentData is the singleton aggregate of editable page content,
// keyed by section name plus the ordered testimonial list.
type ContentData struct {
	Hero         SectionData   `json:"hero"`
	About        SectionData   `json:"about"`
	CTA          SectionData   `json:"cta"`
	Statistics   SectionData   `json:"statistics"`
	Testimonials []Testimonial `json:"testimonials"`
}

// Content section names as stored remotely (one row per section).
// Testimonials are not a section: they are a list collection with
// per-record validation and their own save path on both backends.
const (
	SectionHero       = "hero"
	SectionAbout      = "about"
	SectionCTA        = "cta"
	SectionStatistics = "statistics"
)

// ContentSections lists every section addressable by a section save,
// in storage order.
var ContentSections = []string{
	SectionHero, SectionAbout, SectionCTA, SectionStatistics,
}
