package filter

import (
	"net/url"
	"strings"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

// Query parameter names mirror what the portal frontend puts in the address
// bar, so a shared link reproduces the same view.
const (
	paramCategory = "category"
	paramGrade    = "grade"
	paramYear     = "year"
	paramSubject  = "subject"
	paramSort     = "sort"
	paramTags     = "tags"
)

// EncodeSelection renders the selection as URL query values, omitting every
// axis at its default ("all" for equality axes, "popular" for sort, empty for
// tags).
func EncodeSelection(sel models.FilterSelection) url.Values {
	values := url.Values{}
	if sel.Category != "" && sel.Category != models.FilterAxisAll {
		values.Set(paramCategory, sel.Category)
	}
	if sel.Grade != "" && sel.Grade != models.FilterAxisAll {
		values.Set(paramGrade, sel.Grade)
	}
	if sel.Year != "" && sel.Year != models.FilterAxisAll {
		values.Set(paramYear, sel.Year)
	}
	if sel.Subject != "" && sel.Subject != models.FilterAxisAll {
		values.Set(paramSubject, sel.Subject)
	}
	if sel.Sort != "" && sel.Sort != models.SortPopular {
		values.Set(paramSort, string(sel.Sort))
	}
	if len(sel.Tags) > 0 {
		values.Set(paramTags, strings.Join(sel.Tags, ","))
	}
	return values
}

// ActiveAxes returns every non-default axis of the selection keyed by its
// query parameter name, tags comma-joined. Analytics uses it to report which
// filters a visitor actually engaged.
func ActiveAxes(sel models.FilterSelection) map[string]string {
	axes := make(map[string]string)
	for param, values := range EncodeSelection(sel) {
		if len(values) > 0 {
			axes[param] = values[0]
		}
	}
	return axes
}

// DecodeSelection parses URL query values into a selection, falling back to
// defaults for absent or unknown parameters.
func DecodeSelection(values url.Values) models.FilterSelection {
	sel := models.DefaultSelection()
	if v := values.Get(paramCategory); v != "" {
		sel.Category = v
	}
	if v := values.Get(paramGrade); v != "" {
		sel.Grade = v
	}
	if v := values.Get(paramYear); v != "" {
		sel.Year = v
	}
	if v := values.Get(paramSubject); v != "" {
		sel.Subject = v
	}
	if v := values.Get(paramSort); v != "" {
		key := models.SortKey(v)
		if key.Valid() {
			sel.Sort = key
		}
	}
	if v := values.Get(paramTags); v != "" {
		for _, tag := range strings.Split(v, ",") {
			tag = strings.TrimSpace(tag)
			if tag != "" {
				sel.Tags = append(sel.Tags, tag)
			}
		}
	}
	return sel
}
