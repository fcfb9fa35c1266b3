package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/internal/service"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
	"github.com/noah-isme/budget-calc-api/pkg/response"
)

// ContextUserKey is the gin context key storing the access token's
// claim set.
const ContextUserKey = "currentUser"

// JWT protects routes by requiring a valid, unexpired access token.
func JWT(codec *service.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		decoded, err := codec.Decode(parts[1], service.DecodeOptions{ValidateExpiry: true})
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token"))
			c.Abort()
			return
		}

		c.Set(ContextUserKey, decoded.Claims)
		c.Next()
	}
}

// CurrentClaims extracts the claim set the JWT middleware stored.
func CurrentClaims(c *gin.Context) (*models.ClaimSet, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*models.ClaimSet)
	return claims, ok
}
