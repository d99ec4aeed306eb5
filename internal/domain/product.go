package domain

// Product represents a catalog item shown on the public products page.
// Price is free text (e.g. "₹70/kg"); no currency arithmetic is performed.
type Product struct {
	ID             int64             `json:"id"`
	Name           string            `json:"name"`
	Category       string            `json:"category"` // matches a Category name by convention, not enforced
	Description    string            `json:"description"`
	Image          string            `json:"image"`
	Features       []string          `json:"features"`
	Price          string            `json:"price"`
	Specifications map[string]string `json:"specifications"`
	InStock        bool              `json:"inStock"`
	Featured       bool              `json:"featured"`
}
