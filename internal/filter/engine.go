package filter

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/edu-resource-portal/internal/models"
)

var fileSizeRe = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(B|KB|MB|GB)$`)

// ParseFileSize converts a formatted size label ("15.2 MB") into bytes using
// binary units. Unparseable labels count as zero so they sort first under
// size-asc, matching how unknown sizes are treated everywhere else.
func ParseFileSize(label string) float64 {
	match := fileSizeRe.FindStringSubmatch(strings.TrimSpace(label))
	if match == nil {
		return 0
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	switch strings.ToUpper(match[2]) {
	case "KB":
		value *= 1024
	case "MB":
		value *= 1024 * 1024
	case "GB":
		value *= 1024 * 1024 * 1024
	}
	return value
}

// Apply keeps only items matching every non-"all" axis of the selection and
// every required tag, then orders the survivors by the selection's sort key.
// Apply is idempotent: applying the same selection twice yields the same list.
func Apply(items []models.Resource, sel models.FilterSelection) []models.Resource {
	result := make([]models.Resource, 0, len(items))
	for _, item := range items {
		if !matches(item, sel) {
			continue
		}
		result = append(result, item)
	}
	return Sort(result, sel.Sort)
}

// Matches reports whether a single item passes every non-"all" axis and the
// required tag set, without any ordering concern. The search engine uses it to
// filter relevance-ranked results while keeping their score order.
func Matches(item models.Resource, sel models.FilterSelection) bool {
	return matches(item, sel)
}

func matches(item models.Resource, sel models.FilterSelection) bool {
	if sel.Category != "" && sel.Category != models.FilterAxisAll && string(item.Category) != sel.Category {
		return false
	}
	if sel.Grade != "" && sel.Grade != models.FilterAxisAll && item.Grade != sel.Grade {
		return false
	}
	if sel.Year != "" && sel.Year != models.FilterAxisAll && item.Year != sel.Year {
		return false
	}
	if sel.Subject != "" && sel.Subject != models.FilterAxisAll && item.Subject != sel.Subject {
		return false
	}
	for _, required := range sel.Tags {
		if !hasTag(item, required) {
			return false
		}
	}
	return true
}

func hasTag(item models.Resource, tag string) bool {
	for _, t := range item.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Sort orders a copy of items by the given key. The sort is stable, so ties
// retain their prior relative order. An unknown key falls back to popular.
func Sort(items []models.Resource, key models.SortKey) []models.Resource {
	sorted := make([]models.Resource, len(items))
	copy(sorted, items)

	var less func(a, b models.Resource) bool
	switch key {
	case models.SortNewest:
		less = func(a, b models.Resource) bool { return a.UploadedAt.After(b.UploadedAt) }
	case models.SortOldest:
		less = func(a, b models.Resource) bool { return a.UploadedAt.Before(b.UploadedAt) }
	case models.SortNameAsc:
		less = func(a, b models.Resource) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case models.SortNameDesc:
		less = func(a, b models.Resource) bool { return strings.ToLower(a.Title) > strings.ToLower(b.Title) }
	case models.SortSizeAsc:
		less = func(a, b models.Resource) bool { return ParseFileSize(a.FileSize) < ParseFileSize(b.FileSize) }
	case models.SortSizeDesc:
		less = func(a, b models.Resource) bool { return ParseFileSize(a.FileSize) > ParseFileSize(b.FileSize) }
	default: // popular
		less = func(a, b models.Resource) bool { return a.Downloads > b.Downloads }
	}

	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted
}

// Options derives the distinct value sets per axis for populating selection
// controls: years descending numeric, grades ascending numeric, the rest
// lexicographic.
func Options(items []models.Resource) models.FilterOptions {
	categories := make(map[string]struct{})
	grades := make(map[string]struct{})
	years := make(map[string]struct{})
	subjects := make(map[string]struct{})
	tags := make(map[string]struct{})

	for _, item := range items {
		if item.Category != "" {
			categories[string(item.Category)] = struct{}{}
		}
		if item.Grade != "" {
			grades[item.Grade] = struct{}{}
		}
		if item.Year != "" {
			years[item.Year] = struct{}{}
		}
		if item.Subject != "" {
			subjects[item.Subject] = struct{}{}
		}
		for _, tag := range item.Tags {
			tags[tag] = struct{}{}
		}
	}

	opts := models.FilterOptions{
		Categories: keys(categories),
		Grades:     keys(grades),
		Years:      keys(years),
		Subjects:   keys(subjects),
		Tags:       keys(tags),
	}
	sort.Strings(opts.Categories)
	sort.Strings(opts.Subjects)
	sort.Strings(opts.Tags)
	sortNumeric(opts.Grades, true)
	sortNumeric(opts.Years, false)
	return opts
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sortNumeric(values []string, ascending bool) {
	sort.Slice(values, func(i, j int) bool {
		a, errA := strconv.Atoi(values[i])
		b, errB := strconv.Atoi(values[j])
		if errA != nil || errB != nil {
			if ascending {
				return values[i] < values[j]
			}
			return values[i] > values[j]
		}
		if ascending {
			return a < b
		}
		return a > b
	})
}
