package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-resource-portal/internal/analytics"
	"github.com/noah-isme/edu-resource-portal/internal/filter"
	"github.com/noah-isme/edu-resource-portal/internal/search"
	"github.com/noah-isme/edu-resource-portal/internal/service"
	"github.com/noah-isme/edu-resource-portal/pkg/response"
)

// SearchHandler serves relevance search, suggestions and recent queries.
type SearchHandler struct {
	service         *service.ResourceService
	recent          *search.RecentSearches
	tracker         *analytics.Tracker
	suggestionLimit int
}

// NewSearchHandler constructs the handler.
func NewSearchHandler(service *service.ResourceService, recent *search.RecentSearches, tracker *analytics.Tracker, suggestionLimit int) *SearchHandler {
	if suggestionLimit <= 0 {
		suggestionLimit = 8
	}
	return &SearchHandler{service: service, recent: recent, tracker: tracker, suggestionLimit: suggestionLimit}
}

// Search godoc
// @Summary Search the catalog
// @Tags Search
// @Produce json
// @Param q query string false "Query"
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /api/v1/search [get]
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	sel := filter.DecodeSelection(c.Request.URL.Query())

	results := h.service.Search(c.Request.Context(), query, &sel, limit)

	if query != "" {
		h.recent.Record(c.Request.Context(), query)
		if h.tracker != nil {
			h.tracker.TrackSearch(c.Request.Context(), query, len(results))
		}
	}
	response.JSON(c, 200, results, nil, map[string]interface{}{
		"query": query,
		"total": len(results),
	})
}

// Suggestions godoc
// @Summary Autocomplete suggestions
// @Tags Search
// @Produce json
// @Param q query string true "Query prefix"
// @Success 200 {object} response.Envelope
// @Router /api/v1/search/suggestions [get]
func (h *SearchHandler) Suggestions(c *gin.Context) {
	suggestions := h.service.Suggestions(c.Query("q"), h.suggestionLimit)
	response.JSON(c, 200, suggestions, nil)
}

// Recent godoc
// @Summary Recent search queries
// @Tags Search
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/search/recent [get]
func (h *SearchHandler) Recent(c *gin.Context) {
	response.JSON(c, 200, h.recent.List(c.Request.Context()), nil)
}

// ClearRecent godoc
// @Summary Clear recent search queries
// @Tags Search
// @Success 204
// @Router /api/v1/search/recent [delete]
func (h *SearchHandler) ClearRecent(c *gin.Context) {
	if err := h.recent.Clear(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
