package models

import "time"

// DownloadType distinguishes history entry origins.
type DownloadType string

const (
	DownloadTypeResource DownloadType = "resource"
	DownloadTypePaper    DownloadType = "paper"
	DownloadTypeTextbook DownloadType = "textbook"
)

// DownloadStatus is the terminal state of a managed fetch attempt.
type DownloadStatus string

const (
	DownloadStatusCompleted DownloadStatus = "completed"
	DownloadStatusFailed    DownloadStatus = "failed"
)

// DownloadRecord is one entry of the persisted download history,
// newest first, capped by the manager.
type DownloadRecord struct {
	ID         string         `json:"id"`
	ResourceID string         `json:"resourceId"`
	Title      string         `json:"title"`
	SourceURL  string         `json:"sourceUrl"`
	Type       DownloadType   `json:"type"`
	FileSize   string         `json:"fileSize"`
	Status     DownloadStatus `json:"status"`
	Attempts   int            `json:"attempts"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// DownloadStats summarizes history outcomes.
type DownloadStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// BatchDownloadItem names one file of a sequential batch download.
type BatchDownloadItem struct {
	ResourceID string `json:"resourceId"`
	URL        string `json:"url"`
	Filename   string `json:"filename"`
	Title      string `json:"title,omitempty"`
}

// BatchDownloadReport aggregates per-item outcomes of a batch run.
type BatchDownloadReport struct {
	Total     int      `json:"total"`
	Succeeded int      `json:"succeeded"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}
