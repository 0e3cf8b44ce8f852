package filter

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

func TestEncodeOmitsDefaults(t *testing.T) {
	sel := models.DefaultSelection()
	require.Empty(t, EncodeSelection(sel).Encode())

	sel.Grade = "10"
	sel.Sort = models.SortNewest
	sel.Tags = []string{"exam", "revision"}
	values := EncodeSelection(sel)
	require.Equal(t, "10", values.Get("grade"))
	require.Equal(t, "newest", values.Get("sort"))
	require.Equal(t, "exam,revision", values.Get("tags"))
	require.Empty(t, values.Get("category"))
}

func TestSelectionQueryRoundTrip(t *testing.T) {
	m := NewManager(nil)
	m.SetAxis("grade", "10")

	values, err := url.ParseQuery(m.QueryString())
	require.NoError(t, err)

	got := DecodeSelection(values)
	want := models.DefaultSelection()
	want.Grade = "10"
	require.Equal(t, want, got)
}

func TestDecodeIgnoresUnknownSortKey(t *testing.T) {
	values := url.Values{"sort": []string{"sideways"}}
	sel := DecodeSelection(values)
	require.Equal(t, models.SortPopular, sel.Sort)
}

func TestManagerNotifiesListenersInOrder(t *testing.T) {
	m := NewManager(nil)

	var order []string
	m.Subscribe(func(sel models.FilterSelection) { order = append(order, "first:"+sel.Grade) })
	m.Subscribe(func(sel models.FilterSelection) { order = append(order, "second:"+sel.Grade) })

	m.SetAxis("grade", "11")
	require.Equal(t, []string{"first:11", "second:11"}, order)
}

func TestManagerToggleTag(t *testing.T) {
	m := NewManager(nil)

	m.ToggleTag("exam")
	require.Equal(t, []string{"exam"}, m.Selection().Tags)

	m.ToggleTag("revision")
	require.Equal(t, []string{"exam", "revision"}, m.Selection().Tags)

	m.ToggleTag("exam")
	require.Equal(t, []string{"revision"}, m.Selection().Tags)
}

func TestManagerResetRestoresDefaults(t *testing.T) {
	m := NewManager(nil)
	m.SetMany(map[string]string{"grade": "12", "subject": "Physics", "sort": "name-asc"})
	require.False(t, m.Selection().IsDefault())

	m.Reset()
	require.True(t, m.Selection().IsDefault())
	require.Empty(t, m.QueryString())
}

func TestManagerInitFromQuery(t *testing.T) {
	m := NewManager(nil)

	var seen models.FilterSelection
	m.Subscribe(func(sel models.FilterSelection) { seen = sel })

	values, err := url.ParseQuery("category=past-paper&year=2023&tags=exam")
	require.NoError(t, err)
	m.InitFromQuery(values)

	require.Equal(t, "past-paper", seen.Category)
	require.Equal(t, "2023", seen.Year)
	require.Equal(t, []string{"exam"}, seen.Tags)
}
