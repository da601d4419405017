package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"penthrey/api/internal/models"
)

// RequireRoles rejects authenticated users whose role is not in the set.
// Roles are a closed enum; every decision point matches explicitly.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Next()
	}
}

// RequireOrganization rejects users who do not belong to any organization.
// Handlers behind it can rely on the organization reference being present.
func RequireOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if !user.InOrganization() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no_organization"})
			return
		}

		c.Next()
	}
}
