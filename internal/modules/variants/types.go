package variants

import "github.com/shopspring/decimal"

const (
	// KeySeparator joins the selected option of each axis into a combination key.
	KeySeparator = "-"
	// DefaultStock is used for new combinations and unparseable stock input.
	DefaultStock = 100
)

// Axis is one named dimension of variation, e.g. Color with Red and Blue.
type Axis struct {
	Name    string   `json:"name" yaml:"name"`
	Options []string `json:"options" yaml:"options"`
}

// SKU is one purchasable option combination.
// Price nil means "not set"; callers fall back to the product's virtual price.
type SKU struct {
	CombinationKey string           `json:"combination_key"`
	Options        []string         `json:"options,omitempty"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	Stock          int              `json:"stock"`
	Image          *ImageRef        `json:"image,omitempty"`
}

func (s SKU) EffectivePrice(def decimal.Decimal) decimal.Decimal {
	if s.Price == nil {
		return def
	}
	return *s.Price
}

type ImageKind string

const (
	// ImageLocal is a staged upload that still needs to be promoted to durable storage.
	ImageLocal ImageKind = "local"
	ImageURL   ImageKind = "url"
)

type ImageRef struct {
	Kind ImageKind `json:"kind" binding:"required,oneof=local url"`
	Ref  string    `json:"ref" binding:"required"`
}

func LocalImage(ref string) *ImageRef { return &ImageRef{Kind: ImageLocal, Ref: ref} }

func URLImage(url string) *ImageRef { return &ImageRef{Kind: ImageURL, Ref: url} }

func (r *ImageRef) Pending() bool { return r != nil && r.Kind == ImageLocal }
