package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"pehlione.com/catalog/internal/http/middleware"
	"pehlione.com/catalog/internal/http/validation"
	"pehlione.com/catalog/internal/modules/variants"
	"pehlione.com/catalog/internal/shared/apperr"
	"pehlione.com/catalog/internal/storage"
)

const maxUploadBytes = 10 << 20

// SKUDraftsHandler serves the admin product form while it is being edited.
// It is stateless: the form sends its current SKU list with every call and
// replaces it with the list in the response.
type SKUDraftsHandler struct {
	staging *storage.Staging
}

func NewSKUDraftsHandler(staging *storage.Staging) *SKUDraftsHandler {
	return &SKUDraftsHandler{staging: staging}
}

type skusResponse struct {
	SKUs []variants.SKU `json:"skus"`
}

type expandRequest struct {
	Axes         []variants.Axis `json:"axes"`
	SKUs         []variants.SKU  `json:"skus"`
	DefaultPrice decimal.Decimal `json:"default_price"`
}

func (h *SKUDraftsHandler) Expand(c *gin.Context) {
	var req expandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, validation.BindErr(err))
		return
	}
	c.JSON(http.StatusOK, skusResponse{SKUs: variants.Expand(req.Axes, req.SKUs, req.DefaultPrice)})
}

type fieldRequest struct {
	SKUs  []variants.SKU `json:"skus"`
	Index *int           `json:"index" binding:"required"`
	Field string         `json:"field" binding:"required,oneof=price stock"`
	Value string         `json:"value"`
}

func (h *SKUDraftsHandler) UpdateField(c *gin.Context) {
	var req fieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, validation.BindErr(err))
		return
	}
	if err := checkIndex(*req.Index, len(req.SKUs)); err != nil {
		middleware.Fail(c, err)
		return
	}
	skus := variants.UpdateField(req.SKUs, *req.Index, variants.Field(req.Field), req.Value)
	c.JSON(http.StatusOK, skusResponse{SKUs: skus})
}

type imageRequest struct {
	SKUs  []variants.SKU    `json:"skus"`
	Index *int              `json:"index" binding:"required"`
	Image variants.ImageRef `json:"image"`
}

func (h *SKUDraftsHandler) AttachImage(c *gin.Context) {
	var req imageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, validation.BindErr(err))
		return
	}
	if err := checkIndex(*req.Index, len(req.SKUs)); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, skusResponse{SKUs: variants.AttachImage(req.SKUs, *req.Index, req.Image)})
}

type detachRequest struct {
	SKUs  []variants.SKU `json:"skus"`
	Index *int           `json:"index" binding:"required"`
}

func (h *SKUDraftsHandler) DetachImage(c *gin.Context) {
	var req detachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, validation.BindErr(err))
		return
	}
	if err := checkIndex(*req.Index, len(req.SKUs)); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, skusResponse{SKUs: variants.DetachImage(req.SKUs, *req.Index)})
}

// Upload stages an image for a SKU that has not been saved yet and returns a
// local image reference to attach to it.
func (h *SKUDraftsHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+1024)

	fh, err := c.FormFile("file")
	if err != nil {
		middleware.Fail(c, apperr.InvalidErr("An image file is required.", map[string]string{"file": "This field is required."}))
		return
	}
	if fh.Size > maxUploadBytes {
		middleware.Fail(c, apperr.InvalidErr("Image is too large.", map[string]string{"file": "Must be at most 10 MB."}))
		return
	}
	if !isImage(fh.Filename, fh.Header.Get("Content-Type")) {
		middleware.Fail(c, apperr.InvalidErr("Only PNG, JPEG, WebP or GIF images are accepted.", map[string]string{"file": "Unsupported file type."}))
		return
	}

	f, err := fh.Open()
	if err != nil {
		middleware.Fail(c, apperr.Wrap(err))
		return
	}
	defer f.Close()

	ref, err := h.staging.Stage(c.Request.Context(), f, fh.Filename)
	if err != nil {
		middleware.Fail(c, apperr.Wrap(fmt.Errorf("stage upload: %w", err)))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"image": variants.LocalImage(ref)})
}

func checkIndex(i, n int) error {
	if n == 0 {
		return apperr.InvalidErr("There are no SKUs to edit.", map[string]string{"skus": "This field is required."})
	}
	if i < 0 || i >= n {
		return apperr.InvalidErr("SKU index is out of range.", map[string]string{
			"index": fmt.Sprintf("Must be between 0 and %d.", n-1),
		})
	}
	return nil
}

func isImage(filename, contentType string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
	default:
		return false
	}
	return contentType == "" || strings.HasPrefix(contentType, "image/")
}
