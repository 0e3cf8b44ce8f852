package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-resource-portal/internal/store"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
	"github.com/noah-isme/edu-resource-portal/pkg/response"
)

// StoreHandler exposes admin maintenance over the namespaced key-value store.
type StoreHandler struct {
	store *store.Store
}

// NewStoreHandler constructs the handler.
func NewStoreHandler(st *store.Store) *StoreHandler {
	return &StoreHandler{store: st}
}

// Usage godoc
// @Summary Keyspace usage (admin)
// @Tags Store
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/v1/admin/store/usage [get]
func (h *StoreHandler) Usage(c *gin.Context) {
	usage, err := h.store.GetUsage(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, usage, nil)
}

// ClearExpired godoc
// @Summary Drop expired and corrupt entries (admin)
// @Tags Store
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/v1/admin/store/expired [delete]
func (h *StoreHandler) ClearExpired(c *gin.Context) {
	removed, err := h.store.ClearExpired(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, gin.H{"removed": removed}, nil)
}

// ExportBackup godoc
// @Summary Export the namespace as a backup document (admin)
// @Tags Store
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/v1/admin/store/backup [get]
func (h *StoreHandler) ExportBackup(c *gin.Context) {
	backup, err := h.store.ExportBackup(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, backup, nil)
}

// RestoreBackup godoc
// @Summary Restore a backup document (admin)
// @Tags Store
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /api/v1/admin/store/backup [post]
func (h *StoreHandler) RestoreBackup(c *gin.Context) {
	var backup store.Backup
	if err := c.ShouldBindJSON(&backup); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid backup document"))
		return
	}
	restored, err := h.store.RestoreBackup(c.Request.Context(), &backup)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, gin.H{"restored": restored}, nil)
}
