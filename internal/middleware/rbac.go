package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/models"
	appErrors "github.com/noah-isme/interviews-api/pkg/errors"
	"github.com/noah-isme/interviews-api/pkg/response"
)

// Self lets a principal through when the route's universityId (or id) path
// parameter is their own id.
const Self = "SELF"

// Staff are the roles that operate the back office.
var Staff = []string{string(models.RoleSuperAdmin), string(models.RoleAdmin), string(models.RoleAgent)}

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, a := range allowed {
		if a == Self {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf && isSelf(c, claims.UserID) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

func isSelf(c *gin.Context, userID string) bool {
	for _, key := range []string{"universityId", "id"} {
		if target := c.Param(key); target != "" {
			return target == userID
		}
	}
	return false
}
