package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"pehlione.com/catalog/internal/http/handlers"
	"pehlione.com/catalog/internal/http/handlers/admin"
	"pehlione.com/catalog/internal/http/middleware"
	"pehlione.com/catalog/internal/http/validation"
	"pehlione.com/catalog/internal/modules/auth"
	"pehlione.com/catalog/internal/modules/products"
	"pehlione.com/catalog/internal/realtime"
	"pehlione.com/catalog/internal/storage"
)

type Deps struct {
	Products *products.Service
	Auth     *auth.Service
	Staging  *storage.Staging
	Hub      *realtime.Hub

	// LocalUploadDir is served under LocalUploadURLPrefix when the local storage driver is used.
	LocalUploadDir       string
	LocalUploadURLPrefix string
}

func NewRouter(logger *slog.Logger, d Deps) *gin.Engine {
	validation.Setup()

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.ErrorHandler(logger),
		middleware.Recovery(logger),
	)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	if d.LocalUploadDir != "" && d.LocalUploadURLPrefix != "" {
		r.Static(d.LocalUploadURLPrefix, d.LocalUploadDir)
	}
	if d.Hub != nil {
		r.GET("/ws", gin.WrapF(d.Hub.Serve))
	}

	productsH := handlers.NewProductsHandler(d.Products)
	api := r.Group("/api")
	api.GET("/products", productsH.List)
	api.GET("/products/:slug", productsH.Show)

	authH := handlers.NewAuthHandler(d.Auth)
	api.POST("/admin/login", authH.Login)

	adm := api.Group("/admin", middleware.RequireAdmin(d.Auth))

	drafts := handlers.NewSKUDraftsHandler(d.Staging)
	adm.POST("/sku-drafts/expand", drafts.Expand)
	adm.POST("/sku-drafts/field", drafts.UpdateField)
	adm.POST("/sku-drafts/image", drafts.AttachImage)
	adm.POST("/sku-drafts/image/detach", drafts.DetachImage)
	adm.POST("/uploads", drafts.Upload)

	adminProducts := admin.NewProductsHandler(d.Products)
	adm.GET("/products", adminProducts.List)
	adm.POST("/products", adminProducts.Create)
	adm.GET("/products/:id", adminProducts.Get)
	adm.PUT("/products/:id/skus", adminProducts.UpdateSKUs)
	adm.DELETE("/products/:id", adminProducts.Delete)

	return r
}
