package handler

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-resource-portal/internal/service"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
	"github.com/noah-isme/edu-resource-portal/pkg/response"
	"github.com/noah-isme/edu-resource-portal/pkg/storage"
)

// DownloadHandler serves download grants, batch runs, served files and history.
type DownloadHandler struct {
	service *service.DownloadService
	files   *storage.LocalStorage
}

// NewDownloadHandler constructs the handler.
func NewDownloadHandler(service *service.DownloadService, files *storage.LocalStorage) *DownloadHandler {
	return &DownloadHandler{service: service, files: files}
}

type batchRequest struct {
	ResourceIDs []string `json:"resourceIds" binding:"required"`
}

// Request godoc
// @Summary Request a signed download token
// @Tags Downloads
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/downloads/{id} [post]
func (h *DownloadHandler) Request(c *gin.Context) {
	grant, err := h.service.RequestDownload(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, grant, nil)
}

// Serve godoc
// @Summary Serve a file for a valid signed token
// @Tags Downloads
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200
// @Router /api/v1/downloads/file/{token} [get]
func (h *DownloadHandler) Serve(c *gin.Context) {
	_, filename, err := h.service.ResolveToken(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.files.Open(filename)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "file not yet available, retry shortly"))
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Header("Content-Type", "application/octet-stream")
	http.ServeContent(c.Writer, c.Request, filename, fileModTime(file), file)
}

// Batch godoc
// @Summary Download multiple resources sequentially
// @Tags Downloads
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/downloads/batch [post]
func (h *DownloadHandler) Batch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "resourceIds is required"))
		return
	}
	report, err := h.service.DownloadBatch(c.Request.Context(), req.ResourceIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, report, nil)
}

// ProbeSize godoc
// @Summary Probe the remote size of a resource file
// @Tags Downloads
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/downloads/{id}/size [get]
func (h *DownloadHandler) ProbeSize(c *gin.Context) {
	size, err := h.service.ProbeSize(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, 200, gin.H{"size": size}, nil)
}

// History godoc
// @Summary Recorded downloads, newest first
// @Tags Downloads
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/downloads/history [get]
func (h *DownloadHandler) History(c *gin.Context) {
	response.JSON(c, 200, h.service.History(c.Request.Context()), nil)
}

// ClearHistory godoc
// @Summary Clear the download history
// @Tags Downloads
// @Success 204
// @Router /api/v1/downloads/history [delete]
func (h *DownloadHandler) ClearHistory(c *gin.Context) {
	if err := h.service.ClearHistory(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Download outcome counters
// @Tags Downloads
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/downloads/stats [get]
func (h *DownloadHandler) Stats(c *gin.Context) {
	response.JSON(c, 200, h.service.Stats(c.Request.Context()), nil)
}

// ExportHistory godoc
// @Summary Export the download history
// @Tags Downloads
// @Produce octet-stream
// @Param format query string false "csv or pdf" default(csv)
// @Success 200
// @Router /api/v1/downloads/history/export [get]
func (h *DownloadHandler) ExportHistory(c *gin.Context) {
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err := h.service.ExportHistoryCSV(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="download-history.csv"`)
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.service.ExportHistoryPDF(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="download-history.pdf"`)
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}

func fileModTime(f *os.File) time.Time {
	if info, err := f.Stat(); err == nil {
		return info.ModTime()
	}
	return time.Time{}
}
