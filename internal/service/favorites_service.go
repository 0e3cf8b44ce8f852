package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-resource-portal/internal/store"
	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
)

const defaultFavoritesKey = "favorites"

// FavoritesService keeps the visitor's starred resources as a single ordered
// id list in the namespaced store. The list is the only representation; no
// per-item flags exist to drift out of sync with it.
type FavoritesService struct {
	store  *store.Store
	key    string
	logger *zap.Logger
}

// NewFavoritesService constructs the service. An empty key falls back to the
// default store key.
func NewFavoritesService(st *store.Store, key string, logger *zap.Logger) *FavoritesService {
	if key == "" {
		key = defaultFavoritesKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FavoritesService{store: st, key: key, logger: logger}
}

// IDs returns the starred resource ids, oldest star first.
func (s *FavoritesService) IDs(ctx context.Context) ([]string, error) {
	var ids []string
	if _, err := s.store.Get(ctx, s.key, &ids); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load favorites")
	}
	return ids, nil
}

// Contains reports whether the resource is starred.
func (s *FavoritesService) Contains(ctx context.Context, resourceID string) (bool, error) {
	ids, err := s.IDs(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == resourceID {
			return true, nil
		}
	}
	return false, nil
}

// Toggle stars or unstars a resource and reports the new state.
func (s *FavoritesService) Toggle(ctx context.Context, resourceID string) (bool, error) {
	if resourceID == "" {
		return false, appErrors.Clone(appErrors.ErrValidation, "resource id required")
	}
	ids, err := s.IDs(ctx)
	if err != nil {
		return false, err
	}

	updated := make([]string, 0, len(ids)+1)
	removed := false
	for _, id := range ids {
		if id == resourceID {
			removed = true
			continue
		}
		updated = append(updated, id)
	}
	if !removed {
		updated = append(updated, resourceID)
	}

	if err := s.store.Set(ctx, s.key, updated, store.SetOptions{}); err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist favorites")
	}
	return !removed, nil
}

// Clear unstars everything.
func (s *FavoritesService) Clear(ctx context.Context) error {
	if err := s.store.Remove(ctx, s.key); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "clear favorites")
	}
	return nil
}
