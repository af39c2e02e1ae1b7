package view

import (
	"time"

	"pehlione.com/catalog/internal/modules/variants"
)

type AdminProductListItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Status    string    `json:"status"`
	SKUCount  int       `json:"sku_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AdminProduct is what the product form loads for editing: the axes and the SKU
// draft in the same shape the sku-draft endpoints accept.
type AdminProduct struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Description  string          `json:"description"`
	Status       string          `json:"status"`
	Currency     string          `json:"currency"`
	BasePrice    string          `json:"base_price"`
	VirtualPrice string          `json:"virtual_price"`
	Axes         []variants.Axis `json:"axes"`
	SKUs         []variants.SKU  `json:"skus"`
}
