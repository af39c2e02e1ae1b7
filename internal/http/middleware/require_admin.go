package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"pehlione.com/catalog/internal/modules/auth"
	"pehlione.com/catalog/internal/shared/apperr"
)

const CtxKeyAdmin = "admin_claims"

type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// RequireAdmin accepts "Authorization: Bearer <jwt>" carrying the admin role.
// Missing or invalid tokens get 401, a valid non-admin token gets 403.
func RequireAdmin(tp TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			Fail(c, apperr.UnauthorizedErr("Authentication required."))
			return
		}

		claims, err := tp.Parse(strings.TrimSpace(token))
		if err != nil {
			ae := apperr.UnauthorizedErr("Invalid or expired token.")
			ae.Err = err
			Fail(c, ae)
			return
		}
		if claims.Role != auth.RoleAdmin {
			Fail(c, apperr.ForbiddenErr("Admin access required."))
			return
		}

		c.Set(CtxKeyAdmin, claims)
		c.Next()
	}
}

func CurrentAdmin(c *gin.Context) (*auth.Claims, bool) {
	v, ok := c.Get(CtxKeyAdmin)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*auth.Claims)
	return claims, ok
}
