package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/noah-isme/edu-resource-portal/internal/filter"
	"github.com/noah-isme/edu-resource-portal/internal/models"
)

// Relevance weights, applied per matching field.
const (
	scoreTitle       = 100
	scoreSubject     = 50
	scoreDescription = 30
	scoreTag         = 20
	scoreWord        = 10
)

type indexEntry struct {
	id          string
	title       string
	description string
	subject     string
	tags        []string
	searchText  string
}

// Options tune a single search call.
type Options struct {
	Selection *models.FilterSelection
	Limit     int
	// ReturnAll makes an empty query yield the full indexed set instead of
	// nothing.
	ReturnAll bool
}

// Engine holds a derived, read-only projection of the catalog. Index replaces
// the projection wholesale; readers never observe a partially-built index.
type Engine struct {
	mu      sync.RWMutex
	entries []indexEntry
	byID    map[string]models.Resource
	order   []string
}

// NewEngine returns an empty engine; call Index before searching.
func NewEngine() *Engine {
	return &Engine{byID: make(map[string]models.Resource)}
}

// Index rebuilds the projection from the full item list. The swap is atomic:
// the new entries are built aside and installed under the write lock.
func (e *Engine) Index(items []models.Resource) {
	entries := make([]indexEntry, 0, len(items))
	byID := make(map[string]models.Resource, len(items))
	order := make([]string, 0, len(items))

	for _, item := range items {
		parts := []string{item.Title, item.Description, item.Subject, item.Grade, item.Year}
		parts = append(parts, item.Tags...)
		entries = append(entries, indexEntry{
			id:          item.ID,
			title:       strings.ToLower(item.Title),
			description: strings.ToLower(item.Description),
			subject:     strings.ToLower(item.Subject),
			tags:        lowerAll(item.Tags),
			searchText:  strings.ToLower(strings.Join(parts, " ")),
		})
		byID[item.ID] = item
		order = append(order, item.ID)
	}

	e.mu.Lock()
	e.entries = entries
	e.byID = byID
	e.order = order
	e.mu.Unlock()
}

// Size returns the number of indexed items.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.entries)
}

// Search matches the query against the index, ranks survivors by relevance
// and hydrates them back to full records. Ties keep their index order.
func (e *Engine) Search(query string, opts Options) []models.Resource {
	e.mu.RLock()
	defer e.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		if !opts.ReturnAll {
			return nil
		}
		return e.hydrateLocked(e.order, opts)
	}

	words := strings.Fields(query)

	type scored struct {
		id    string
		score int
	}
	matches := make([]scored, 0, len(e.entries))
	for _, entry := range e.entries {
		score := 0
		if strings.Contains(entry.title, query) {
			score += scoreTitle
		}
		if strings.Contains(entry.subject, query) {
			score += scoreSubject
		}
		if strings.Contains(entry.description, query) {
			score += scoreDescription
		}
		for _, tag := range entry.tags {
			if strings.Contains(tag, query) {
				score += scoreTag
				break
			}
		}
		wordHits := 0
		for _, word := range words {
			if strings.Contains(entry.searchText, word) {
				wordHits++
			}
		}
		score += wordHits * scoreWord

		// Items matching neither a field, a tag, nor a single word are out.
		if score == 0 {
			continue
		}
		matches = append(matches, scored{id: entry.id, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].score > matches[j].score })

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.id)
	}
	return e.hydrateLocked(ids, opts)
}

// Suggestions returns up to limit distinct titles, subjects and tags
// containing the query substring.
func (e *Engine) Suggestions(query string, limit int) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" || limit <= 0 {
		return nil
	}

	seen := make(map[string]struct{})
	suggestions := make([]string, 0, limit)
	add := func(value string) bool {
		if len(suggestions) >= limit {
			return false
		}
		if !strings.Contains(strings.ToLower(value), query) {
			return true
		}
		if _, dup := seen[strings.ToLower(value)]; dup {
			return true
		}
		seen[strings.ToLower(value)] = struct{}{}
		suggestions = append(suggestions, value)
		return true
	}

	for _, id := range e.order {
		item := e.byID[id]
		if !add(item.Title) {
			return suggestions
		}
	}
	for _, id := range e.order {
		item := e.byID[id]
		if !add(item.Subject) {
			return suggestions
		}
	}
	for _, id := range e.order {
		for _, tag := range e.byID[id].Tags {
			if !add(tag) {
				return suggestions
			}
		}
	}
	return suggestions
}

func (e *Engine) hydrateLocked(ids []string, opts Options) []models.Resource {
	results := make([]models.Resource, 0, len(ids))
	for _, id := range ids {
		item, ok := e.byID[id]
		if !ok {
			continue
		}
		if opts.Selection != nil && !filter.Matches(item, *opts.Selection) {
			continue
		}
		results = append(results, item)
		if opts.Limit > 0 && len(results) >= opts.Limit {
			break
		}
	}
	return results
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
