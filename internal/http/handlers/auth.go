package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pehlione.com/catalog/internal/http/middleware"
	"pehlione.com/catalog/internal/http/validation"
	"pehlione.com/catalog/internal/modules/auth"
	"pehlione.com/catalog/internal/shared/apperr"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (string, time.Time, error)
}

type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(a Authenticator) *AuthHandler { return &AuthHandler{auth: a} }

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.Fail(c, validation.BindErr(err))
		return
	}

	token, exp, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			middleware.Fail(c, apperr.UnauthorizedErr("Email or password is incorrect."))
			return
		}
		middleware.Fail(c, apperr.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": exp.UTC(),
	})
}
