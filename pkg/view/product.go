package view

import "github.com/shopspring/decimal"

type ProductCard struct {
	Slug             string          `json:"slug"`
	Title            string          `json:"title"`
	ImageURL         string          `json:"image_url,omitempty"`
	FromPrice        decimal.Decimal `json:"from_price"`
	Price            string          `json:"price"`
	Currency         string          `json:"currency"`
	DefaultVariantID string          `json:"default_variant_id,omitempty"`
}

type ProductVariant struct {
	ID       string            `json:"id"`
	SKU      string            `json:"sku"`
	Options  map[string]string `json:"options"`
	Price    string            `json:"price"`
	InStock  bool              `json:"in_stock"`
	ImageURL string            `json:"image_url,omitempty"`
}

// ProductDetail is the storefront product page. Axes lists option values per axis
// in admin order so the picker can render them without re-deriving from variants.
type ProductDetail struct {
	ID          string           `json:"id"`
	Slug        string           `json:"slug"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Currency    string           `json:"currency"`
	Axes        []ProductAxis    `json:"axes"`
	Variants    []ProductVariant `json:"variants"`
}

type ProductAxis struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}
