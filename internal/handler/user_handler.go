package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/service"
	"github.com/noah-isme/budget-calc-api/pkg/response"
)

// UserHandler exposes the admin user overview endpoints.
type UserHandler struct {
	service *service.UserService
}

// NewUserHandler creates a new handler.
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{service: svc}
}

// Get handles GET /api/users/:id.
func (h *UserHandler) Get(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overview)
}

// List handles GET /api/users. Admin view.
func (h *UserHandler) List(c *gin.Context) {
	overviews, err := h.service.ListOverviews(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, overviews)
}
