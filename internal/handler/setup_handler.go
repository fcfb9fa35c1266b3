package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/service"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
	"github.com/noah-isme/budget-calc-api/pkg/response"
)

// SetupHandler exposes role administration endpoints.
type SetupHandler struct {
	service *service.SetupService
}

// NewSetupHandler creates a new handler.
func NewSetupHandler(svc *service.SetupService) *SetupHandler {
	return &SetupHandler{service: svc}
}

type createRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

type roleMembershipRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required"`
}

// CreateRole handles POST /api/setup/roles.
func (h *SetupHandler) CreateRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid role payload"))
		return
	}

	role, err := h.service.CreateRole(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, role)
}

// ListRoles handles GET /api/setup/roles.
func (h *SetupHandler) ListRoles(c *gin.Context) {
	roles, err := h.service.ListRoles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles)
}

// ListUsers handles GET /api/setup/users.
func (h *SetupHandler) ListUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users)
}

// AddUserToRole handles POST /api/setup/roles/assign.
func (h *SetupHandler) AddUserToRole(c *gin.Context) {
	var req roleMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid membership payload"))
		return
	}

	if err := h.service.AddUserToRole(c.Request.Context(), req.Email, req.Role); err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"email": req.Email, "role": req.Role})
}

// RemoveUserFromRole handles POST /api/setup/roles/remove.
func (h *SetupHandler) RemoveUserFromRole(c *gin.Context) {
	var req roleMembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid membership payload"))
		return
	}

	if err := h.service.RemoveUserFromRole(c.Request.Context(), req.Email, req.Role); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// UserRoles handles GET /api/setup/users/:email/roles.
func (h *SetupHandler) UserRoles(c *gin.Context) {
	roles, err := h.service.UserRoles(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, roles)
}
