package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"booking-api/internal/domain/entity"
	"booking-api/internal/domain/repository"
	"booking-api/pkg/response"
)

// RequireAdmin gates a route on the admin role. It must run after Session;
// a missing profile and a non-admin role both fail the same way.
func RequireAdmin(profiles repository.ProfileRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := c.GetString(CtxUserIDKey)
		p, err := profiles.GetByUserID(c.Request.Context(), uid)
		if err != nil || p == nil || p.Role != entity.RoleAdmin {
			resp := response.Error[any](c, http.StatusForbidden, "admin role required", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		c.Set(CtxUserRoleKey, p.Role)
		c.Next()
	}
}
