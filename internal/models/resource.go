package models

import (
	"time"

	"github.com/lib/pq"
)

// ResourceCategory enumerates the kinds of study material the portal serves.
type ResourceCategory string

const (
	CategoryTextbook  ResourceCategory = "textbook"
	CategoryPastPaper ResourceCategory = "past-paper"
	CategoryNotes     ResourceCategory = "notes"
	CategoryGuide     ResourceCategory = "guide"
)

// Valid reports whether the category is a known value.
func (c ResourceCategory) Valid() bool {
	switch c {
	case CategoryTextbook, CategoryPastPaper, CategoryNotes, CategoryGuide:
		return true
	}
	return false
}

// Resource is the unified record covering textbooks, past papers, notes and guides.
type Resource struct {
	ID           string           `db:"id" json:"id"`
	Title        string           `db:"title" json:"title"`
	Description  string           `db:"description" json:"description"`
	Category     ResourceCategory `db:"category" json:"category"`
	Subject      string           `db:"subject" json:"subject"`
	Grade        string           `db:"grade" json:"grade"`
	Year         string           `db:"year" json:"year"`
	FileURL      string           `db:"file_url" json:"fileUrl"`
	PreviewURL   *string          `db:"preview_url" json:"previewUrl,omitempty"`
	FileSize     string           `db:"file_size" json:"fileSize"`
	Pages        *int             `db:"pages" json:"pages,omitempty"`
	Downloads    int              `db:"downloads" json:"downloads"`
	UploadedAt   time.Time        `db:"uploaded_at" json:"uploadedAt"`
	Tags         pq.StringArray   `db:"tags" json:"tags,omitempty"`
	QualityLabel *string          `db:"quality_label" json:"qualityLabel,omitempty"`
}

// FilterOptions lists the distinct values per filter axis for populating
// selection controls.
type FilterOptions struct {
	Categories []string `json:"categories"`
	Grades     []string `json:"grades"`
	Years      []string `json:"years"`
	Subjects   []string `json:"subjects"`
	Tags       []string `json:"tags"`
}
