package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

func sampleResources() []models.Resource {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.Resource{
		{ID: "r1", Title: "Algebra Essentials", Category: models.CategoryTextbook, Subject: "Mathematics", Grade: "10", Year: "2023", FileSize: "15.2 MB", Downloads: 120, UploadedAt: base.AddDate(0, 2, 0), Tags: []string{"algebra"}},
		{ID: "r2", Title: "Biology Notes", Category: models.CategoryNotes, Subject: "Biology", Grade: "11", Year: "2022", FileSize: "800 KB", Downloads: 340, UploadedAt: base.AddDate(0, 1, 0), Tags: []string{"cells", "revision"}},
		{ID: "r3", Title: "Chemistry Paper 1", Category: models.CategoryPastPaper, Subject: "Chemistry", Grade: "12", Year: "2023", FileSize: "2.1 MB", Downloads: 75, UploadedAt: base.AddDate(0, 3, 0), Tags: []string{"exam", "revision"}},
		{ID: "r4", Title: "Drama Study Guide", Category: models.CategoryGuide, Subject: "English", Grade: "10", Year: "2021", FileSize: "unknown", Downloads: 12, UploadedAt: base},
	}
}

func TestParseFileSize(t *testing.T) {
	require.InDelta(t, 15.2*1024*1024, ParseFileSize("15.2 MB"), 0.001)
	require.InDelta(t, 800*1024, ParseFileSize("800 KB"), 0.001)
	require.InDelta(t, 512, ParseFileSize("512 B"), 0.001)
	require.InDelta(t, 1.5*1024*1024*1024, ParseFileSize("1.5GB"), 0.001)
	require.Zero(t, ParseFileSize("bogus"))
	require.Zero(t, ParseFileSize(""))
}

func TestApplyKeepsOnlyMatchingItems(t *testing.T) {
	items := sampleResources()
	sel := models.DefaultSelection()
	sel.Grade = "10"

	got := Apply(items, sel)
	require.Len(t, got, 2)
	for _, item := range got {
		require.Equal(t, "10", item.Grade)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	items := sampleResources()
	sel := models.DefaultSelection()
	sel.Category = string(models.CategoryNotes)
	sel.Sort = models.SortNameAsc

	once := Apply(items, sel)
	twice := Apply(once, sel)
	require.Equal(t, once, twice)
}

func TestApplyTagAxisRequiresAllTags(t *testing.T) {
	items := sampleResources()
	sel := models.DefaultSelection()
	sel.Tags = []string{"revision"}

	got := Apply(items, sel)
	require.Len(t, got, 2)

	sel.Tags = []string{"revision", "exam"}
	got = Apply(items, sel)
	require.Len(t, got, 1)
	require.Equal(t, "r3", got[0].ID)
}

func TestSortNameAscDescReverse(t *testing.T) {
	items := sampleResources()
	asc := Sort(items, models.SortNameAsc)
	desc := Sort(items, models.SortNameDesc)

	require.Len(t, desc, len(asc))
	for i := range asc {
		require.Equal(t, asc[i].ID, desc[len(desc)-1-i].ID)
	}
}

func TestSortBySize(t *testing.T) {
	items := sampleResources()
	got := Sort(items, models.SortSizeAsc)
	// Unparseable sizes count as zero bytes and sort first.
	require.Equal(t, "r4", got[0].ID)
	require.Equal(t, "r2", got[1].ID)
	require.Equal(t, "r3", got[2].ID)
	require.Equal(t, "r1", got[3].ID)
}

func TestSortPopularAndRecency(t *testing.T) {
	items := sampleResources()

	popular := Sort(items, models.SortPopular)
	require.Equal(t, "r2", popular[0].ID)

	newest := Sort(items, models.SortNewest)
	require.Equal(t, "r3", newest[0].ID)

	oldest := Sort(items, models.SortOldest)
	require.Equal(t, "r4", oldest[0].ID)
}

func TestSortIsStableForTies(t *testing.T) {
	items := []models.Resource{
		{ID: "a", Title: "Same", Downloads: 10},
		{ID: "b", Title: "Same", Downloads: 10},
		{ID: "c", Title: "Same", Downloads: 10},
	}
	got := Sort(items, models.SortNameAsc)
	require.Equal(t, "a", got[0].ID)
	require.Equal(t, "b", got[1].ID)
	require.Equal(t, "c", got[2].ID)
}

func TestOptionsOrdering(t *testing.T) {
	opts := Options(sampleResources())

	require.Equal(t, []string{"2023", "2022", "2021"}, opts.Years)
	require.Equal(t, []string{"10", "11", "12"}, opts.Grades)
	require.Equal(t, []string{"Biology", "Chemistry", "English", "Mathematics"}, opts.Subjects)
	require.Equal(t, []string{"guide", "notes", "past-paper", "textbook"}, opts.Categories)
	require.Equal(t, []string{"algebra", "cells", "exam", "revision"}, opts.Tags)
}
