package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/internal/service"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
	"github.com/noah-isme/budget-calc-api/pkg/response"
)

// AuthHandler wires the token management endpoints. These endpoints
// speak the AuthResult wire shape directly rather than the envelope:
// success is 200 {token, refreshToken, success:true}, an expected
// failure is 400 {errors: [...], success:false}.
type AuthHandler struct {
	service *service.AuthService
	metrics *service.MetricsService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc *service.AuthService, metrics *service.MetricsService) *AuthHandler {
	return &AuthHandler{service: svc, metrics: metrics}
}

// Register handles POST /api/authManagement/Register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, "register", models.AuthFailure(service.ReasonInvalidPayload))
		return
	}

	result, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "registration failed"))
		return
	}

	h.respond(c, "register", result)
}

// Login handles POST /api/authManagement/Login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, "login", models.AuthFailure(service.ReasonInvalidPayload))
		return
	}

	result, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "login failed"))
		return
	}

	h.respond(c, "login", result)
}

// RefreshToken handles POST /api/authManagement/RefreshToken. The
// service never leaks unexpected errors here; everything comes back as
// an AuthResult.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respond(c, "refresh", models.AuthFailure(service.ReasonInvalidPayload))
		return
	}

	h.respond(c, "refresh", h.service.Refresh(c.Request.Context(), req))
}

// DeleteUser handles DELETE /api/authManagement/DeleteUser. Without an
// id query parameter it deletes the authenticated account; with one it
// deletes that account, which only an Immortal may do for someone else.
func (h *AuthHandler) DeleteUser(c *gin.Context) {
	callerID := currentUserID(c)
	if callerID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	targetID := c.Query("id")
	if targetID == "" {
		targetID = callerID
	}
	if targetID != callerID && !h.callerIsImmortal(c) {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), targetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "user not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user"))
		return
	}

	response.NoContent(c)
}

type revokeTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RevokeToken handles POST /api/setup/tokens/revoke. Immortals use it
// to kill a leaked refresh token before it can be exchanged.
func (h *AuthHandler) RevokeToken(c *gin.Context) {
	var req revokeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "refreshToken is required"))
		return
	}

	if err := h.service.RevokeRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "refresh token not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke token"))
		return
	}

	response.NoContent(c)
}

func (h *AuthHandler) callerIsImmortal(c *gin.Context) bool {
	claims := claimsFromContext(c)
	if claims == nil {
		return false
	}
	for _, role := range claims.All(models.ClaimRole) {
		if role == models.RoleImmortal {
			return true
		}
	}
	return false
}

func (h *AuthHandler) respond(c *gin.Context, operation string, result *models.AuthResult) {
	if h.metrics != nil {
		h.metrics.ObserveAuthResult(operation, result.Success)
	}
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	c.JSON(status, result)
}
