package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-resource-portal/internal/store"
)

func newFavoritesService() *FavoritesService {
	return NewFavoritesService(store.New(store.NewMemoryBackend(), "testns", nil), "", nil)
}

func TestFavoritesConfiguredKey(t *testing.T) {
	st := store.New(store.NewMemoryBackend(), "testns", nil)
	svc := NewFavoritesService(st, "starred_resources", nil)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "r1")
	require.NoError(t, err)

	var ids []string
	found, err := st.Get(ctx, "starred_resources", &ids)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"r1"}, ids)
}

func TestFavoritesToggleRoundTrip(t *testing.T) {
	svc := newFavoritesService()
	ctx := context.Background()

	added, err := svc.Toggle(ctx, "r1")
	require.NoError(t, err)
	require.True(t, added)

	starred, err := svc.Contains(ctx, "r1")
	require.NoError(t, err)
	require.True(t, starred)

	added, err = svc.Toggle(ctx, "r1")
	require.NoError(t, err)
	require.False(t, added)

	starred, err = svc.Contains(ctx, "r1")
	require.NoError(t, err)
	require.False(t, starred)
}

func TestFavoritesPreservesStarOrder(t *testing.T) {
	svc := newFavoritesService()
	ctx := context.Background()

	for _, id := range []string{"r2", "r1", "r3"} {
		_, err := svc.Toggle(ctx, id)
		require.NoError(t, err)
	}

	ids, err := svc.IDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"r2", "r1", "r3"}, ids)

	_, err = svc.Toggle(ctx, "r1")
	require.NoError(t, err)
	ids, err = svc.IDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"r2", "r3"}, ids)
}

func TestFavoritesClearAndEmptyID(t *testing.T) {
	svc := newFavoritesService()
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "")
	require.Error(t, err)

	_, err = svc.Toggle(ctx, "r1")
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx))

	ids, err := svc.IDs(ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}
