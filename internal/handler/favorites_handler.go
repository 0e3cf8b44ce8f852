package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/service"
	"github.com/noah-isme/edu-resource-portal/pkg/response"
)

// FavoritesHandler manages the visitor's starred resources.
type FavoritesHandler struct {
	favorites *service.FavoritesService
	resources *service.ResourceService
}

// NewFavoritesHandler constructs the handler.
func NewFavoritesHandler(favorites *service.FavoritesService, resources *service.ResourceService) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites, resources: resources}
}

// List godoc
// @Summary List starred resources
// @Tags Favorites
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/favorites [get]
func (h *FavoritesHandler) List(c *gin.Context) {
	ids, err := h.favorites.IDs(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	// Stars may outlive their resources; stale ids are skipped, not errors.
	items := make([]models.Resource, 0, len(ids))
	for _, id := range ids {
		item, err := h.resources.Get(c.Request.Context(), id)
		if err != nil {
			continue
		}
		items = append(items, *item)
	}
	response.JSON(c, 200, items, nil, map[string]interface{}{"total": len(items)})
}

// Toggle godoc
// @Summary Star or unstar a resource
// @Tags Favorites
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/favorites/{id}/toggle [post]
func (h *FavoritesHandler) Toggle(c *gin.Context) {
	starred, err := h.favorites.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, gin.H{"starred": starred}, nil)
}

// Clear godoc
// @Summary Unstar everything
// @Tags Favorites
// @Success 204
// @Router /api/v1/favorites [delete]
func (h *FavoritesHandler) Clear(c *gin.Context) {
	if err := h.favorites.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
