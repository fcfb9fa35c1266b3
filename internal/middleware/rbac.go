package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/models"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
	"github.com/noah-isme/budget-calc-api/pkg/response"
)

// SelfRole allows a user through when the :id route parameter matches
// their own id claim.
const SelfRole = "SELF"

// RBAC enforces role-based access control. A user passes when any of
// their role claims matches an allowed role, or when SELF is allowed
// and the route targets their own id.
func RBAC(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		allowSelf := false
		allowedRoles := make(map[string]struct{})
		for _, a := range allowed {
			if a == SelfRole {
				allowSelf = true
				continue
			}
			allowedRoles[a] = struct{}{}
		}

		for _, role := range claims.All(models.ClaimRole) {
			if _, ok := allowedRoles[role]; ok {
				c.Next()
				return
			}
		}

		if allowSelf {
			if id, _ := claims.Get(models.ClaimID); id != "" && id == c.Param("id") {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
