package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/middleware"
	"github.com/noah-isme/budget-calc-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.ClaimSet {
	claims, ok := middleware.CurrentClaims(c)
	if !ok {
		return nil
	}
	return claims
}

func currentUserID(c *gin.Context) string {
	claims := claimsFromContext(c)
	if claims == nil {
		return ""
	}
	id, _ := claims.Get(models.ClaimID)
	return id
}
