package admin

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pehlione.com/catalog/internal/http/middleware"
	"pehlione.com/catalog/internal/http/validation"
	"pehlione.com/catalog/internal/modules/products"
	"pehlione.com/catalog/internal/modules/variants"
	"pehlione.com/catalog/pkg/view"
)

type ProductsHandler struct {
	svc *products.Service
}

func NewProductsHandler(svc *products.Service) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

type createProductRequest struct {
	Name         string          `json:"name" binding:"required,max=255"`
	Slug         string          `json:"slug" binding:"omitempty,max=255"`
	Description  string          `json:"description"`
	Status       string          `json:"status" binding:"omitempty,oneof=draft active archived"`
	Currency     string          `json:"currency" binding:"omitempty,len=3"`
	BasePrice    decimal.Decimal `json:"base_price"`
	VirtualPrice decimal.Decimal `json:"virtual_price"`
	Axes         []variants.Axis `json:"axes" binding:"required"`
	SKUs         []variants.SKU  `json:"skus" binding:"dive"`
}

func (h *ProductsHandler) Create(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, validation.BindErr(err))
		return
	}

	p, err := h.svc.Create(c.Request.Context(), products.CreateInput{
		Name:         req.Name,
		Slug:         req.Slug,
		Description:  req.Description,
		Status:       req.Status,
		Currency:     req.Currency,
		BasePrice:    req.BasePrice,
		VirtualPrice: req.VirtualPrice,
		Axes:         req.Axes,
		SKUs:         req.SKUs,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toAdminProduct(p))
}

type updateSKUsRequest struct {
	Axes []variants.Axis `json:"axes" binding:"required"`
	SKUs []variants.SKU  `json:"skus" binding:"dive"`
}

func (h *ProductsHandler) UpdateSKUs(c *gin.Context) {
	var req updateSKUsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, validation.BindErr(err))
		return
	}

	p, err := h.svc.UpdateSKUs(c.Request.Context(), c.Param("id"), req.Axes, req.SKUs)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminProduct(p))
}

func (h *ProductsHandler) List(c *gin.Context) {
	status := strings.TrimSpace(c.Query("status"))
	page := parseInt(c.Query("page"), 1)
	const pageSize = 30

	items, err := h.svc.List(c.Request.Context(), products.ListParams{
		Status: status,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		middleware.Fail(c, err)
		return
	}

	out := make([]view.AdminProductListItem, 0, len(items))
	for _, p := range items {
		out = append(out, view.AdminProductListItem{
			ID:        p.ID,
			Name:      p.Name,
			Slug:      p.Slug,
			Status:    p.Status,
			SKUCount:  len(p.Variants),
			UpdatedAt: p.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"items": out, "page": page})
}

func (h *ProductsHandler) Get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toAdminProduct(p))
}

func (h *ProductsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toAdminProduct(p products.Product) view.AdminProduct {
	return view.AdminProduct{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Status:       p.Status,
		Currency:     p.Currency,
		BasePrice:    p.BasePrice.StringFixed(2),
		VirtualPrice: p.VirtualPrice.StringFixed(2),
		Axes:         p.Axes.Data(),
		SKUs:         p.SKUs(),
	}
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return def
	}
	return n
}
