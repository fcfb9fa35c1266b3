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

// ItemHandler exposes income/expense item endpoints.
type ItemHandler struct {
	service *service.ItemService
}

// NewItemHandler creates a new handler.
func NewItemHandler(svc *service.ItemService) *ItemHandler {
	return &ItemHandler{service: svc}
}

// Create handles POST /api/items.
func (h *ItemHandler) Create(c *gin.Context) {
	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item payload"))
		return
	}

	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, item)
}

// Get handles GET /api/items/:id.
func (h *ItemHandler) Get(c *gin.Context) {
	id, err := itemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item)
}

// List handles GET /api/items. Admin view.
func (h *ItemHandler) List(c *gin.Context) {
	items, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// ListForMonth handles GET /api/months/:id/items?type=0|1.
func (h *ItemHandler) ListForMonth(c *gin.Context) {
	monthID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid month id"))
		return
	}

	itemType, err := strconv.Atoi(c.DefaultQuery("type", "0"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid item type"))
		return
	}

	items, err := h.service.ListForMonth(c.Request.Context(), monthID, models.ItemType(itemType))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items)
}

// Update handles PUT /api/items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	id, err := itemID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid item payload"))
		return
	}

	item, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, item)
}

// Delete handles DELETE /api/items/:id.
func (h *ItemHandler) Delete(c *gin.Context) {
	id, err := itemID(c)
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

func itemID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid item id")
	}
	return id, nil
}
