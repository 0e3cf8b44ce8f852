package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-resource-portal/internal/analytics"
	"github.com/noah-isme/edu-resource-portal/internal/models"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
	"github.com/noah-isme/edu-resource-portal/pkg/response"
)

// AnalyticsHandler ingests client events and exposes queue counters.
type AnalyticsHandler struct {
	tracker *analytics.Tracker
}

// NewAnalyticsHandler constructs the handler.
func NewAnalyticsHandler(tracker *analytics.Tracker) *AnalyticsHandler {
	return &AnalyticsHandler{tracker: tracker}
}

type trackRequest struct {
	Type    models.EventType       `json:"type" binding:"required"`
	Payload map[string]interface{} `json:"payload"`
}

// Track godoc
// @Summary Queue an analytics event
// @Tags Analytics
// @Accept json
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /api/v1/analytics/events [post]
func (h *AnalyticsHandler) Track(c *gin.Context) {
	var req trackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid event payload"))
		return
	}
	if !req.Type.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown event type"))
		return
	}
	h.tracker.Track(c.Request.Context(), req.Type, req.Payload)
	response.JSON(c, 202, gin.H{"queued": true}, nil)
}

// Stats godoc
// @Summary Analytics queue counters (admin)
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/v1/admin/analytics/stats [get]
func (h *AnalyticsHandler) Stats(c *gin.Context) {
	response.JSON(c, 200, h.tracker.Stats(), nil)
}

// Flush godoc
// @Summary Force-flush the analytics queue (admin)
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/v1/admin/analytics/flush [post]
func (h *AnalyticsHandler) Flush(c *gin.Context) {
	h.tracker.Flush(c.Request.Context())
	response.JSON(c, 200, h.tracker.Stats(), nil)
}
