package download

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/store"
	"github.com/noah-isme/edu-resource-portal/pkg/export"
)

const (
	historyKey = "download_history"

	// viewCap bounds the user-facing listing; stats and exports read the
	// full persisted sequence.
	viewCap = 100
)

// History records download outcomes newest-first in the namespaced store,
// evicting the oldest entries past the cap.
type History struct {
	store  *store.Store
	cap    int
	logger *zap.Logger
}

// NewHistory builds the history with the given cap (default 1000).
func NewHistory(st *store.Store, cap int, logger *zap.Logger) *History {
	if cap <= 0 {
		cap = 1000
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &History{store: st, cap: cap, logger: logger}
}

// Append prepends the record and trims to the cap.
func (h *History) Append(ctx context.Context, record models.DownloadRecord) error {
	records := h.All(ctx)
	updated := make([]models.DownloadRecord, 0, len(records)+1)
	updated = append(updated, record)
	updated = append(updated, records...)
	if len(updated) > h.cap {
		updated = updated[:h.cap]
	}
	return h.store.Set(ctx, historyKey, updated, store.SetOptions{})
}

// List returns the newest recorded downloads, bounded by the user-facing cap.
func (h *History) List(ctx context.Context) []models.DownloadRecord {
	records := h.All(ctx)
	if len(records) > viewCap {
		records = records[:viewCap]
	}
	return records
}

// All returns the full persisted sequence, newest first.
func (h *History) All(ctx context.Context) []models.DownloadRecord {
	var records []models.DownloadRecord
	if _, err := h.store.Get(ctx, historyKey, &records); err != nil {
		h.logger.Warn("load download history", zap.Error(err))
		return nil
	}
	return records
}

// Clear wipes the history.
func (h *History) Clear(ctx context.Context) error {
	return h.store.Remove(ctx, historyKey)
}

// Stats summarizes outcomes for the admin dashboard.
func (h *History) Stats(ctx context.Context) models.DownloadStats {
	var stats models.DownloadStats
	for _, record := range h.All(ctx) {
		stats.Total++
		switch record.Status {
		case models.DownloadStatusCompleted:
			stats.Completed++
		case models.DownloadStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// Dataset shapes the history for the CSV and PDF exporters.
func (h *History) Dataset(ctx context.Context) export.Dataset {
	records := h.All(ctx)
	dataset := export.Dataset{
		Headers: []string{"Time", "Title", "Type", "Status", "Attempts", "Size", "Error"},
		Rows:    make([]map[string]string, 0, len(records)),
	}
	for _, record := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Time":     record.Timestamp.Format("2006-01-02 15:04:05"),
			"Title":    record.Title,
			"Type":     string(record.Type),
			"Status":   string(record.Status),
			"Attempts": strconv.Itoa(record.Attempts),
			"Size":     record.FileSize,
			"Error":    record.Error,
		})
	}
	return dataset
}
