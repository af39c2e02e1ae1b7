package products

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"pehlione.com/catalog/internal/modules/variants"
)

const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusArchived = "archived"
)

type Product struct {
	ID           string                              `gorm:"type:char(36);primaryKey" json:"id"`
	Name         string                              `gorm:"size:255;not null" json:"name"`
	Slug         string                              `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	Description  string                              `gorm:"type:text" json:"description"`
	Status       string                              `gorm:"size:16;not null;default:draft;index" json:"status"`
	Currency     string                              `gorm:"type:char(3);not null" json:"currency"`
	BasePrice    decimal.Decimal                     `gorm:"type:decimal(16,2);not null" json:"base_price"`
	VirtualPrice decimal.Decimal                     `gorm:"type:decimal(16,2);not null" json:"virtual_price"`
	Axes         datatypes.JSONType[[]variants.Axis] `gorm:"column:axes_json" json:"axes"`
	Variants     []Variant                           `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants,omitempty"`
	CreatedAt    time.Time                           `json:"created_at"`
	UpdatedAt    time.Time                           `json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Variant is a persisted SKU. SKU holds the combination key and is unique per product.
type Variant struct {
	ID        string          `gorm:"type:char(36);primaryKey" json:"id"`
	ProductID string          `gorm:"type:char(36);not null;uniqueIndex:ux_variant_product_sku" json:"product_id"`
	SKU       string          `gorm:"size:255;not null;uniqueIndex:ux_variant_product_sku" json:"sku"`
	Options   datatypes.JSON  `gorm:"column:options_json" json:"options"`
	Position  int             `gorm:"not null;default:0" json:"position"`
	Price     decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"price"`
	Currency  string          `gorm:"type:char(3);not null" json:"currency"`
	Stock     int             `gorm:"not null;default:0" json:"stock"`
	ImageURL  string          `gorm:"size:1024" json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Variant) TableName() string { return "product_variants" }

// SKUs maps stored variants back to the draft shape the admin form edits.
func (p Product) SKUs() []variants.SKU {
	out := make([]variants.SKU, 0, len(p.Variants))
	for _, v := range p.Variants {
		price := v.Price
		s := variants.SKU{
			CombinationKey: v.SKU,
			Options:        decodeOptions(v.Options),
			Price:          &price,
			Stock:          v.Stock,
		}
		if v.ImageURL != "" {
			s.Image = variants.URLImage(v.ImageURL)
		}
		out = append(out, s)
	}
	return out
}

// OptionsByAxis returns axis name -> selected option for the storefront picker.
func (v Variant) OptionsByAxis() map[string]string {
	var o struct {
		ByAxis map[string]string `json:"by_axis"`
	}
	if len(v.Options) == 0 || json.Unmarshal(v.Options, &o) != nil || o.ByAxis == nil {
		return map[string]string{}
	}
	return o.ByAxis
}
