package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grymm/barber-auth/internal/domain/entity"
	"github.com/grymm/barber-auth/pkg/response"
)

// RequireRole guards a route behind a business role. The staff privilege
// flag bypasses the role check for administrative access that is not tied
// to the role label. Must run after Auth: with no identity attached the
// request is unauthenticated, not forbidden.
func RequireRole(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUserIDKey) == "" {
			response.AbortError(c, http.StatusUnauthorized, "authentication required", nil)
			return
		}
		if c.GetString(CtxRoleKey) == role.String() || c.GetBool(CtxStaffKey) {
			c.Next()
			return
		}
		response.AbortError(c, http.StatusForbidden, "insufficient role", nil)
	}
}
