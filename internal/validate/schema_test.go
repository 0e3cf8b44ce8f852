package validate

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

func validResource() *models.Resource {
	return &models.Resource{
		ID:       "res-1",
		Title:    "Algebra Essentials",
		Category: models.CategoryTextbook,
		Subject:  "Mathematics",
		Grade:    "10",
		Year:     "2023",
		FileURL:  "https://cdn.example.org/algebra.pdf",
		FileSize: "15.2 MB",
		Tags:     []string{"algebra", "grade 10"},
	}
}

func TestResourceValid(t *testing.T) {
	v := New()
	result := v.Resource(validResource())
	require.True(t, result.Valid, "errors: %v", result.Errors)
	require.Empty(t, result.Errors)
}

func TestResourceFieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.Resource)
		field  string
	}{
		{"unknown category", func(r *models.Resource) { r.Category = "magazine" }, "category"},
		{"grade below range", func(r *models.Resource) { r.Grade = "8" }, "grade"},
		{"grade above range", func(r *models.Resource) { r.Grade = "13" }, "grade"},
		{"grade not numeric", func(r *models.Resource) { r.Grade = "ten" }, "grade"},
		{"year not four digits", func(r *models.Resource) { r.Year = "23" }, "year"},
		{"missing title", func(r *models.Resource) { r.Title = "" }, "title"},
		{"bad file url", func(r *models.Resource) { r.FileURL = "not-a-url" }, "fileUrl"},
		{"bad file size", func(r *models.Resource) { r.FileSize = "fifteen megs" }, "fileSize"},
		{"bad tag characters", func(r *models.Resource) { r.Tags = []string{"ok", "bad_tag!"} }, "tags"},
		{"negative downloads", func(r *models.Resource) { r.Downloads = -1 }, "downloads"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validResource()
			tt.mutate(r)
			result := v.Resource(r)
			require.False(t, result.Valid)
			fields := make([]string, 0, len(result.Errors))
			for _, fe := range result.Errors {
				fields = append(fields, fe.Field)
			}
			require.Contains(t, fields, tt.field)
		})
	}
}

func TestFileSizePatternAcceptsAllUnits(t *testing.T) {
	v := New()
	for _, size := range []string{"512 B", "3 KB", "15.2 MB", "1.5GB", "2 gb"} {
		r := validResource()
		r.FileSize = size
		require.True(t, v.Resource(r).Valid, "size %q should validate", size)
	}
}

func TestTagCountBounded(t *testing.T) {
	v := New()
	r := validResource()
	r.Tags = nil
	for i := 0; i < 11; i++ {
		r.Tags = append(r.Tags, "tag")
	}
	require.False(t, v.Resource(r).Valid)
}

func TestIsEmail(t *testing.T) {
	require.True(t, IsEmail("student@example.org"))
	require.False(t, IsEmail("student@"))
	require.False(t, IsEmail("@example.org"))
	require.False(t, IsEmail("student example.org"))
	require.False(t, IsEmail("student@nodomain"))
}

func TestIsURL(t *testing.T) {
	require.True(t, IsURL("https://example.org/file.pdf"))
	require.True(t, IsURL("http://example.org"))
	require.False(t, IsURL("ftp://example.org/file.pdf"))
	require.False(t, IsURL("/relative/path.pdf"))
}

func TestIsFilename(t *testing.T) {
	require.True(t, IsFilename("physics-2023.pdf"))
	require.False(t, IsFilename("nested/path.pdf"))
	require.False(t, IsFilename(""))
}
