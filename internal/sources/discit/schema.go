package discit

// Catalog is the payload of the disc endpoint: a flat list of records in catalog order.
type Catalog []DiscRecord

// DiscRecord mirrors one disc as served by the discit API.
// Flight numbers arrive as strings; the yaml tags let the same schema read local YAML dumps.
type DiscRecord struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	NameSlug        string `json:"name_slug,omitempty" yaml:"name_slug,omitempty"`
	Brand           string `json:"brand" yaml:"brand"`
	BrandSlug       string `json:"brand_slug,omitempty" yaml:"brand_slug,omitempty"`
	Category        string `json:"category" yaml:"category"`
	CategorySlug    string `json:"category_slug,omitempty" yaml:"category_slug,omitempty"`
	Color           string `json:"color,omitempty" yaml:"color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty" yaml:"background_color,omitempty"`
	Speed           string `json:"speed" yaml:"speed"`
	Glide           string `json:"glide" yaml:"glide"`
	Turn            string `json:"turn" yaml:"turn"`
	Fade            string `json:"fade" yaml:"fade"`
	Stability       string `json:"stability" yaml:"stability"`
	StabilitySlug   string `json:"stability_slug,omitempty" yaml:"stability_slug,omitempty"`
	Pic             string `json:"pic,omitempty" yaml:"pic,omitempty"`
	Link            string `json:"link,omitempty" yaml:"link,omitempty"`
}
