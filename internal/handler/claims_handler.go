package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/service"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
	"github.com/noah-isme/budget-calc-api/pkg/response"
)

// ClaimsHandler exposes user and role claim administration.
type ClaimsHandler struct {
	service *service.ClaimsService
}

// NewClaimsHandler creates a new handler.
func NewClaimsHandler(svc *service.ClaimsService) *ClaimsHandler {
	return &ClaimsHandler{service: svc}
}

type addClaimRequest struct {
	ClaimType string `json:"claimType" binding:"required"`
	Value     string `json:"claimValue"`
}

// UserClaims handles GET /api/claims/users/:email.
func (h *ClaimsHandler) UserClaims(c *gin.Context) {
	claims, err := h.service.UserClaims(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claims)
}

// AddUserClaim handles POST /api/claims/users/:email.
func (h *ClaimsHandler) AddUserClaim(c *gin.Context) {
	var req addClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid claim payload"))
		return
	}

	claim, err := h.service.AddClaimToUser(c.Request.Context(), c.Param("email"), req.ClaimType, req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, claim)
}

// RoleClaims handles GET /api/claims/roles/:name.
func (h *ClaimsHandler) RoleClaims(c *gin.Context) {
	claims, err := h.service.RoleClaims(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, claims)
}

// AddRoleClaim handles POST /api/claims/roles/:name.
func (h *ClaimsHandler) AddRoleClaim(c *gin.Context) {
	var req addClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid claim payload"))
		return
	}

	claim, err := h.service.AddClaimToRole(c.Request.Context(), c.Param("name"), req.ClaimType, req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, claim)
}
