package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-resource-portal/internal/store"
)

const recentSearchesKey = "recent_searches"

// RecentSearches keeps a deduplicated, most-recent-first history of queries,
// persisted through the namespaced store so it survives restarts.
type RecentSearches struct {
	store  *store.Store
	cap    int
	logger *zap.Logger
}

// NewRecentSearches builds the history with the given cap (default 50).
func NewRecentSearches(st *store.Store, cap int, logger *zap.Logger) *RecentSearches {
	if cap <= 0 {
		cap = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecentSearches{store: st, cap: cap, logger: logger}
}

// Record moves the query to the front, dropping duplicates and trimming to
// the cap. Blank queries are ignored. Persistence failures only log: losing a
// history entry must never fail the search itself.
func (r *RecentSearches) Record(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	history := r.List(ctx)
	updated := make([]string, 0, len(history)+1)
	updated = append(updated, query)
	for _, existing := range history {
		if strings.EqualFold(existing, query) {
			continue
		}
		updated = append(updated, existing)
	}
	if len(updated) > r.cap {
		updated = updated[:r.cap]
	}

	if err := r.store.Set(ctx, recentSearchesKey, updated, store.SetOptions{}); err != nil {
		r.logger.Warn("persist recent searches", zap.Error(err))
	}
}

// List returns the stored history, newest first.
func (r *RecentSearches) List(ctx context.Context) []string {
	var history []string
	if _, err := r.store.Get(ctx, recentSearchesKey, &history); err != nil {
		r.logger.Warn("load recent searches", zap.Error(err))
		return nil
	}
	return history
}

// Clear wipes the history.
func (r *RecentSearches) Clear(ctx context.Context) error {
	return r.store.Remove(ctx, recentSearchesKey)
}
