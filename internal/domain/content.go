package domain

type CommerceMode string

func (m CommerceMode) String() string {
	return string(m)
}

const (
	CommerceModeNone      CommerceMode = "none"
	CommerceModeAddToCart CommerceMode = "add_to_cart"
	CommerceModeBuyNow    CommerceMode = "buy_now"
	CommerceModeEnquire   CommerceMode = "enquire"
)

// Enabled reports whether the mode exposes any purchase affordance.
// An empty mode behaves like CommerceModeNone.
func (m CommerceMode) Enabled() bool {
	switch m {
	case CommerceModeAddToCart, CommerceModeBuyNow, CommerceModeEnquire:
		return true
	default:
		return false
	}
}

type BackgroundKind string

const (
	BackgroundImage BackgroundKind = "image"
	BackgroundVideo BackgroundKind = "video"
	BackgroundEmbed BackgroundKind = "embed" // YouTube, Vimeo or a raw iframe snippet
)

// Background describes what fills a frame behind its text
type Background struct {
	Kind   BackgroundKind `json:"kind"`
	Src    string         `json:"src"`
	Poster string         `json:"poster,omitempty"`
}

type CTA struct {
	Label  string `json:"label"`
	Action string `json:"action,omitempty"` // e.g. "call", "book", "link"
	URL    string `json:"url,omitempty"`
}

// Frame holds the fields shared by category and item frames
type Frame struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Subtitle   string     `json:"subtitle,omitempty"`
	Background Background `json:"background"`
	Badge      string     `json:"badge,omitempty"`
	CTA        *CTA       `json:"cta,omitempty"`
}

// CategoryFrame is a frame inside a category experience. Only category frames
// can carry the "view all" affordance.
type CategoryFrame struct {
	Frame
	ShowViewAll bool `json:"show_view_all,omitempty"`
}

// ItemFrame is a frame inside an item experience.
type ItemFrame struct {
	Frame
}

type InventoryItem struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Subtitle     string       `json:"subtitle,omitempty"`
	Image        string       `json:"image,omitempty"`
	PriceCents   int64        `json:"price_cents"`
	CommerceMode CommerceMode `json:"commerce_mode,omitempty"`
	Frames       []ItemFrame  `json:"frames"`
}

// Category is a curated multi-frame experience. Inventory is present only
// when the category has a list view.
type Category struct {
	ID          string          `json:"id"`
	Icon        string          `json:"icon"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Frames      []CategoryFrame `json:"frames"`
	Inventory   []InventoryItem `json:"inventory,omitempty"`
}

func (c *Category) HasInventory() bool {
	return len(c.Inventory) > 0
}

func (c *Category) Item(itemID string) (*InventoryItem, bool) {
	for i := range c.Inventory {
		if c.Inventory[i].ID == itemID {
			return &c.Inventory[i], true
		}
	}
	return nil, false
}
