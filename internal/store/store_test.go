package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore() (*Store, *MemoryBackend) {
	backend := NewMemoryBackend()
	return New(backend, "testns", nil), backend
}

func TestStoreSetGetRoundTrip(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	type prefs struct {
		Theme string `json:"theme"`
		Grade string `json:"grade"`
	}

	require.NoError(t, s.Set(ctx, "user_preferences", prefs{Theme: "dark", Grade: "10"}, SetOptions{Version: "1"}))

	var got prefs
	found, err := s.Get(ctx, "user_preferences", &got)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, prefs{Theme: "dark", Grade: "10"}, got)
}

func TestStoreGetMissingReturnsNotFound(t *testing.T) {
	s, _ := newTestStore()

	var dest string
	found, err := s.Get(context.Background(), "absent", &dest)
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreExpiredEntryDeletedOnRead(t *testing.T) {
	s, backend := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "session", "abc", SetOptions{TTL: time.Millisecond}))
	time.Sleep(5 * time.Millisecond)

	var dest string
	found, err := s.Get(ctx, "session", &dest)
	require.NoError(t, err)
	require.False(t, found)

	_, ok, err := backend.Get(ctx, "testns:session")
	require.NoError(t, err)
	require.False(t, ok, "expired entry must be removed from the backend")
}

func TestStoreClearExpiredDropsCorruptPayloads(t *testing.T) {
	s, backend := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "keep", "fresh", SetOptions{}))
	require.NoError(t, s.Set(ctx, "stale", "old", SetOptions{TTL: time.Millisecond}))
	require.NoError(t, backend.Set(ctx, "testns:corrupt", []byte("{not-json")))
	time.Sleep(5 * time.Millisecond)

	removed, err := s.ClearExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, removed)

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"keep"}, keys)
}

func TestStoreQuotaTriggersCleanupAndRetry(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, "testns", nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "stale", "expiring-value-padding-padding", SetOptions{TTL: time.Millisecond}))
	time.Sleep(5 * time.Millisecond)

	// Budget fits one envelope only, so the second write must evict the
	// expired entry before succeeding.
	usage, err := s.GetUsage(ctx)
	require.NoError(t, err)
	backend.MaxBytes = usage.Bytes + 32

	require.NoError(t, s.Set(ctx, "fresh", "replacement-value-padding-pad", SetOptions{}))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"fresh"}, keys)
}

func TestStoreClearWipesNamespaceOnly(t *testing.T) {
	backend := NewMemoryBackend()
	s := New(backend, "testns", nil)
	other := New(backend, "otherns", nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", 1, SetOptions{}))
	require.NoError(t, s.Set(ctx, "b", 2, SetOptions{}))
	require.NoError(t, other.Set(ctx, "c", 3, SetOptions{}))

	require.NoError(t, s.Clear(ctx))

	keys, err := s.Keys(ctx)
	require.NoError(t, err)
	require.Empty(t, keys)

	otherKeys, err := other.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"c"}, otherKeys)
}

func TestStoreUsageCountsKeyAndValueBytes(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "one", "payload", SetOptions{}))
	require.NoError(t, s.Set(ctx, "two", "payload", SetOptions{}))

	usage, err := s.GetUsage(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, usage.Items)
	require.Greater(t, usage.Bytes, 0)
}

func TestStoreBackupRestoreRoundTrip(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "favorites", []string{"res-1", "res-2"}, SetOptions{Version: "2"}))
	require.NoError(t, s.Set(ctx, "ephemeral", "soon-gone", SetOptions{TTL: time.Millisecond}))
	time.Sleep(5 * time.Millisecond)

	backup, err := s.ExportBackup(ctx)
	require.NoError(t, err)

	restoredStore := New(NewMemoryBackend(), "testns", nil)
	restored, err := restoredStore.RestoreBackup(ctx, backup)
	require.NoError(t, err)
	require.Equal(t, 1, restored, "expired entries are not restored")

	var favs []string
	found, err := restoredStore.Get(ctx, "favorites", &favs)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"res-1", "res-2"}, favs)
}

func TestRestoreBackupMigratesLegacyEntries(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	// Older clients wrote some payloads bare, outside the envelope, and a
	// few under different key names.
	backup := &Backup{
		Namespace: "testns",
		Entries: map[string]json.RawMessage{
			"favorites":     json.RawMessage(`["res-1","res-9"]`),
			"searchHistory": json.RawMessage(`["algebra","biology"]`),
			"user_id":       json.RawMessage(`"legacy-visitor"`),
		},
	}

	restored, err := s.RestoreBackup(ctx, backup)
	require.NoError(t, err)
	require.Equal(t, 3, restored)

	var favs []string
	found, err := s.Get(ctx, "favorites", &favs)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"res-1", "res-9"}, favs)

	var recent []string
	found, err = s.Get(ctx, "recent_searches", &recent)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"algebra", "biology"}, recent)

	var userID string
	found, err = s.Get(ctx, "analytics_user", &userID)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "legacy-visitor", userID)
}
