package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole allows the request through when the attached role is in the
// allow-list. Pure predicate over context claims, no I/O; mount it after
// RequireAuth.
func RequireRole(allowed ...string) gin.HandlerFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[role] = struct{}{}
	}

	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "NOT_AUTHENTICATED",
					"message": "Missing identity context",
				},
			})
			return
		}

		if _, ok := set[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": gin.H{
					"code":    "NOT_AUTHORIZED",
					"message": "Insufficient permissions",
				},
			})
			return
		}

		c.Next()
	}
}
