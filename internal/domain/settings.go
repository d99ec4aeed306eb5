package domain

// NavLink is a single navigation entry.
type NavLink struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// SettingsData is the singleton aggregate of site-wide settings. The
// bag-typed members hold free-form nested objects (address and working
// hours under contact, colors/font under theme) edited by the admin UI.
type SettingsData struct {
	Company    SectionData `json:"company"`
	Contact    SectionData `json:"contact"`
	Social     SectionData `json:"social"`
	SEO        SectionData `json:"seo"`
	Categories []string    `json:"categories"` // legacy name list, superseded by Category records
	Navigation []NavLink   `json:"navigation"`
	Theme      SectionData `json:"theme,omitempty"`
}

// Settings keys as stored remotely (one row per key).
const (
	SettingsCompany    = "company"
	SettingsContact    = "contact"
	SettingsSocial     = "social"
	SettingsSEO        = "seo"
	SettingsCategories = "categories"
	SettingsNavigation = "navigation"
	SettingsTheme      = "theme"
)

// SettingsKeys lists every named settings key in storage order.
var SettingsKeys = []string{
	SettingsCompany, SettingsContact, SettingsSocial, SettingsSEO,
	SettingsCategories, SettingsNavigation, SettingsTheme,
}
