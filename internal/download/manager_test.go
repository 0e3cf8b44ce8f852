package download

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/store"
	"github.com/noah-isme/edu-resource-portal/pkg/storage"
)

func testManager(t *testing.T) (*Manager, *History) {
	t.Helper()
	st, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	history := NewHistory(store.New(store.NewMemoryBackend(), "testns", nil), 1000, nil)
	return NewManager(nil, st, history, Config{
		MaxRetries:     3,
		RetryBaseDelay: time.Millisecond,
		BatchDelay:     time.Millisecond,
		ProbeTimeout:   time.Second,
	}, nil), history
}

func TestFetchTransientFailureRetriesToExhaustion(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, history := testManager(t)
	record, err := m.Fetch(context.Background(), FetchRequest{
		ResourceID: "r1",
		URL:        srv.URL,
		Filename:   "paper.pdf",
		Title:      "Paper",
	}, FetchCallbacks{})

	require.ErrorIs(t, err, ErrTransient)
	require.Equal(t, int32(4), atomic.LoadInt32(&hits))
	require.Equal(t, 4, record.Attempts)
	require.Equal(t, models.DownloadStatusFailed, record.Status)

	// Each attempt is recorded individually, newest first.
	records := history.List(context.Background())
	require.Len(t, records, 4)
	for i, rec := range records {
		require.Equal(t, models.DownloadStatusFailed, rec.Status)
		require.Equal(t, 4-i, rec.Attempts)
	}
}

func TestFetchRecoversAfterTransientFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "pdf bytes")
	}))
	defer srv.Close()

	m, history := testManager(t)
	record, err := m.Fetch(context.Background(), FetchRequest{
		ResourceID: "r1",
		URL:        srv.URL,
		Filename:   "paper.pdf",
	}, FetchCallbacks{})

	require.NoError(t, err)
	require.Equal(t, 3, record.Attempts)
	require.Equal(t, models.DownloadStatusCompleted, record.Status)

	records := history.List(context.Background())
	require.Len(t, records, 3)
	require.Equal(t, models.DownloadStatusCompleted, records[0].Status)
	require.Equal(t, models.DownloadStatusFailed, records[1].Status)
	require.Equal(t, models.DownloadStatusFailed, records[2].Status)
}

func TestFetchNotFoundIsTerminal(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	m, _ := testManager(t)
	record, err := m.Fetch(context.Background(), FetchRequest{
		ResourceID: "gone",
		URL:        srv.URL,
		Filename:   "gone.pdf",
	}, FetchCallbacks{})

	require.ErrorIs(t, err, ErrSourceNotFound)
	require.Equal(t, int32(1), atomic.LoadInt32(&hits))
	require.Equal(t, 1, record.Attempts)
}

func TestFetchRejectsInvalidRequest(t *testing.T) {
	m, history := testManager(t)

	var errored bool
	_, err := m.Fetch(context.Background(), FetchRequest{
		URL:      "not a url",
		Filename: "../../etc/passwd",
	}, FetchCallbacks{
		OnError: func(models.DownloadRecord, error) { errored = true },
	})

	require.ErrorIs(t, err, ErrInvalidRequest)
	require.True(t, errored)
	require.Empty(t, history.List(context.Background()))
}

func TestFetchBatchAggregatesOutcomes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	m, _ := testManager(t)
	report := m.FetchBatch(context.Background(), []models.BatchDownloadItem{
		{ResourceID: "a", URL: srv.URL + "/a", Filename: "a.pdf"},
		{ResourceID: "b", URL: srv.URL + "/missing", Filename: "b.pdf"},
		{ResourceID: "c", URL: srv.URL + "/c", Filename: "c.pdf"},
	})

	require.Equal(t, 3, report.Total)
	require.Equal(t, 2, report.Succeeded)
	require.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	require.Contains(t, report.Errors[0], "b.pdf")
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	history := NewHistory(store.New(store.NewMemoryBackend(), "testns", nil), 2, nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, history.Append(ctx, models.DownloadRecord{
			ID:     fmt.Sprintf("d%d", i),
			Status: models.DownloadStatusCompleted,
		}))
	}

	records := history.List(ctx)
	require.Len(t, records, 2)
	require.Equal(t, "d3", records[0].ID)
	require.Equal(t, "d2", records[1].ID)
}

func TestHistoryListBoundedByViewCap(t *testing.T) {
	history := NewHistory(store.New(store.NewMemoryBackend(), "testns", nil), 1000, nil)
	ctx := context.Background()

	for i := 1; i <= 120; i++ {
		require.NoError(t, history.Append(ctx, models.DownloadRecord{
			ID:     fmt.Sprintf("d%d", i),
			Status: models.DownloadStatusCompleted,
		}))
	}

	listed := history.List(ctx)
	require.Len(t, listed, 100)
	require.Equal(t, "d120", listed[0].ID)
	require.Equal(t, "d21", listed[99].ID)

	// The persisted sequence keeps everything up to its own cap.
	require.Len(t, history.All(ctx), 120)
	require.Equal(t, 120, history.Stats(ctx).Total)
}

func TestHistoryStatsAndDataset(t *testing.T) {
	history := NewHistory(store.New(store.NewMemoryBackend(), "testns", nil), 10, nil)
	ctx := context.Background()

	require.NoError(t, history.Append(ctx, models.DownloadRecord{ID: "ok", Title: "Algebra", Status: models.DownloadStatusCompleted}))
	require.NoError(t, history.Append(ctx, models.DownloadRecord{ID: "bad", Title: "Biology", Status: models.DownloadStatusFailed, Error: "status 500"}))

	stats := history.Stats(ctx)
	require.Equal(t, models.DownloadStats{Total: 2, Completed: 1, Failed: 1}, stats)

	dataset := history.Dataset(ctx)
	require.Len(t, dataset.Rows, 2)
	require.Equal(t, "Biology", dataset.Rows[0]["Title"])
	require.Equal(t, "status 500", dataset.Rows[0]["Error"])
}

func TestProbeSizeFormatsAndFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "15938355")
	}))
	defer srv.Close()

	m, _ := testManager(t)
	require.Equal(t, "15.20 MB", m.ProbeSize(context.Background(), srv.URL))

	srv.Close()
	require.Equal(t, "Unknown size", m.ProbeSize(context.Background(), srv.URL))
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, "512 B", FormatBytes(512))
	require.Equal(t, "1.00 KB", FormatBytes(1024))
	require.Equal(t, "1.50 MB", FormatBytes(1572864))
	require.Equal(t, "2.00 GB", FormatBytes(2147483648))
}

func TestCheckAvailability(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	m, _ := testManager(t)
	require.True(t, m.CheckAvailability(context.Background(), srv.URL))

	srv.Close()
	require.False(t, m.CheckAvailability(context.Background(), srv.URL))
}
