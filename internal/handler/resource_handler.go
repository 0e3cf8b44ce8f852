package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-resource-portal/internal/analytics"
	"github.com/noah-isme/edu-resource-portal/internal/filter"
	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/service"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
	"github.com/noah-isme/edu-resource-portal/pkg/response"
)

// ResourceHandler manages catalog HTTP endpoints.
type ResourceHandler struct {
	service     *service.ResourceService
	tracker     *analytics.Tracker
	maxPageSize int
}

// NewResourceHandler constructs the handler.
func NewResourceHandler(service *service.ResourceService, tracker *analytics.Tracker, maxPageSize int) *ResourceHandler {
	if maxPageSize <= 0 {
		maxPageSize = 100
	}
	return &ResourceHandler{service: service, tracker: tracker, maxPageSize: maxPageSize}
}

// List godoc
// @Summary List catalog resources
// @Tags Resources
// @Produce json
// @Param category query string false "Category filter"
// @Param grade query string false "Grade filter"
// @Param year query string false "Year filter"
// @Param subject query string false "Subject filter"
// @Param sort query string false "Sort key"
// @Param tags query string false "Comma-separated required tags"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /api/v1/resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	mgr := filter.NewManager(nil)
	if h.tracker != nil {
		mgr.Subscribe(func(sel models.FilterSelection) {
			for axis, value := range filter.ActiveAxes(sel) {
				h.tracker.TrackFilter(c.Request.Context(), axis, value)
			}
		})
	}
	mgr.InitFromQuery(c.Request.URL.Query())
	sel := mgr.Selection()

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit > h.maxPageSize {
		limit = h.maxPageSize
	}

	items, pagination, err := h.service.List(c.Request.Context(), sel, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, items, pagination, map[string]interface{}{
		"query": mgr.QueryString(),
	})
}

// Get godoc
// @Summary Get one resource
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/resources/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, item, nil)
}

// Options godoc
// @Summary List distinct filter axis values
// @Tags Resources
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/resources/options [get]
func (h *ResourceHandler) Options(c *gin.Context) {
	opts, err := h.service.Options(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, opts, nil)
}

// Create godoc
// @Summary Create a resource (admin)
// @Tags Resources
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /api/v1/admin/resources [post]
func (h *ResourceHandler) Create(c *gin.Context) {
	var item models.Resource
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resource payload"))
		return
	}
	if err := h.service.Create(c.Request.Context(), &item); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Update a resource (admin)
// @Tags Resources
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/v1/admin/resources/{id} [put]
func (h *ResourceHandler) Update(c *gin.Context) {
	var item models.Resource
	if err := c.ShouldBindJSON(&item); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resource payload"))
		return
	}
	item.ID = c.Param("id")
	if err := h.service.Update(c.Request.Context(), &item); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, item, nil)
}

// Delete godoc
// @Summary Delete a resource (admin)
// @Tags Resources
// @Param id path string true "Resource ID"
// @Success 204
// @Security BearerAuth
// @Router /api/v1/admin/resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
