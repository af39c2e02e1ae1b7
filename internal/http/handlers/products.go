package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pehlione.com/catalog/internal/http/middleware"
	"pehlione.com/catalog/internal/modules/products"
	"pehlione.com/catalog/pkg/view"
)

// ProductsHandler serves the public catalog.
type ProductsHandler struct {
	svc *products.Service
}

func NewProductsHandler(svc *products.Service) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

func (h *ProductsHandler) List(c *gin.Context) {
	limit := 24
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	offset := 0
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}

	prods, err := h.svc.List(c.Request.Context(), products.ListParams{
		Status: products.StatusActive,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": mapProductsForList(prods)})
}

func (h *ProductsHandler) Show(c *gin.Context) {
	p, err := h.svc.Detail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapProductForDetail(p))
}

func mapProductsForList(items []products.Product) []view.ProductCard {
	out := make([]view.ProductCard, 0, len(items))
	for _, p := range items {
		card := view.ProductCard{
			Slug:      p.Slug,
			Title:     p.Name,
			Currency:  p.Currency,
			FromPrice: p.VirtualPrice,
		}

		// lowest in-stock variant price, first variant image
		var from *decimal.Decimal
		for i, v := range p.Variants {
			if card.ImageURL == "" && v.ImageURL != "" {
				card.ImageURL = v.ImageURL
			}
			if v.Stock <= 0 {
				continue
			}
			if from == nil || v.Price.LessThan(*from) {
				from = &p.Variants[i].Price
				card.DefaultVariantID = v.ID
			}
		}
		if from != nil {
			card.FromPrice = *from
		}
		card.Price = view.Money(card.FromPrice, p.Currency)
		out = append(out, card)
	}
	return out
}

func mapProductForDetail(p products.Product) view.ProductDetail {
	axes := make([]view.ProductAxis, 0, len(p.Axes.Data()))
	for _, ax := range p.Axes.Data() {
		if len(ax.Options) == 0 {
			continue
		}
		axes = append(axes, view.ProductAxis{Name: ax.Name, Options: ax.Options})
	}

	vs := make([]view.ProductVariant, 0, len(p.Variants))
	for _, v := range p.Variants {
		vs = append(vs, view.ProductVariant{
			ID:       v.ID,
			SKU:      v.SKU,
			Options:  v.OptionsByAxis(),
			Price:    view.Money(v.Price, v.Currency),
			InStock:  v.Stock > 0,
			ImageURL: v.ImageURL,
		})
	}

	return view.ProductDetail{
		ID:          p.ID,
		Slug:        p.Slug,
		Title:       p.Name,
		Description: strings.TrimSpace(p.Description),
		Currency:    p.Currency,
		Axes:        axes,
		Variants:    vs,
	}
}
