package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/internal/service"
	appErrors "github.com/noah-isme/budget-calc-api/pkg/errors"
	"github.com/noah-isme/budget-calc-api/pkg/response"
)

// MonthHandler exposes month CRUD, summaries and statement exports.
type MonthHandler struct {
	service *service.MonthService
}

// NewMonthHandler creates a new handler.
func NewMonthHandler(svc *service.MonthService) *MonthHandler {
	return &MonthHandler{service: svc}
}

// Create handles POST /api/months.
func (h *MonthHandler) Create(c *gin.Context) {
	var req models.CreateMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid month payload"))
		return
	}

	month, err := h.service.Create(c.Request.Context(), req, currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, month)
}

// Get handles GET /api/months/:id.
func (h *MonthHandler) Get(c *gin.Context) {
	id, err := monthID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	month, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, month)
}

// List handles GET /api/months. Admin view.
func (h *MonthHandler) List(c *gin.Context) {
	months, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, months)
}

// Summaries handles GET /api/summaries for the authenticated user.
func (h *MonthHandler) Summaries(c *gin.Context) {
	summaries, err := h.service.SummariesForUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries)
}

// Delete handles DELETE /api/months/:id.
func (h *MonthHandler) Delete(c *gin.Context) {
	id, err := monthID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ExportStatement handles GET /api/months/:id/export?format=csv|pdf and
// streams the rendered file.
func (h *MonthHandler) ExportStatement(c *gin.Context) {
	id, err := monthID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	statement, err := h.service.ExportStatement(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+statement.Filename+`"`)
	c.Data(http.StatusOK, statement.ContentType, statement.Content)
}

// Details handles GET /api/users/:id/months and returns the user's
// month summaries with their item arrays attached.
func (h *MonthHandler) Details(c *gin.Context) {
	details, err := h.service.DetailsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, details)
}

func monthID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid month id")
	}
	return id, nil
}
