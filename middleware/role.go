package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Roles carried in the token "role" claim.
const (
	RoleClient   = "client"
	RoleCleaner  = "cleaner"
	RoleBusiness = "business"
	RoleAdmin    = "admin"
)

// RequireRole rejects actors whose token role is not one of roles. It must
// run after JWTAuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(ActorRoleKey)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Insufficient permissions",
			"code":  0,
		})
	}
}
