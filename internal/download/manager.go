package download

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/validate"
	"github.com/noah-isme/edu-resource-portal/pkg/jobs"
	"github.com/noah-isme/edu-resource-portal/pkg/storage"
)

// Failure classes. Only transient network failures are retried; validation
// and not-found failures are terminal on the first attempt.
var (
	ErrInvalidRequest = errors.New("invalid download request")
	ErrSourceNotFound = errors.New("source file not found")
	ErrTransient      = errors.New("transient network failure")
)

// Config tunes the manager.
type Config struct {
	MaxRetries     int
	RetryBaseDelay time.Duration
	BatchDelay     time.Duration
	ProbeTimeout   time.Duration
}

// FetchCallbacks report per-attempt outcomes to interested callers.
type FetchCallbacks struct {
	OnComplete func(record models.DownloadRecord)
	OnError    func(record models.DownloadRecord, err error)
}

// FetchRequest describes a single managed fetch.
type FetchRequest struct {
	ResourceID string
	URL        string
	Filename   string
	Title      string
	Type       models.DownloadType
	FileSize   string
}

// Manager fetches remote files into local storage with classified, backed-off
// retries, records every attempt to a capped history, and runs an honest
// sequential batch path (no archive is produced, files are simply spaced out).
type Manager struct {
	client   *resty.Client
	storage  *storage.LocalStorage
	history  *History
	prefetch *jobs.Queue
	cfg      Config
	logger   *zap.Logger
}

// NewManager constructs the manager. The history store may be nil in tests
// that only exercise fetching.
func NewManager(client *resty.Client, store *storage.LocalStorage, history *History, cfg Config, logger *zap.Logger) *Manager {
	if client == nil {
		client = resty.New()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = 500 * time.Millisecond
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		client:  client,
		storage: store,
		history: history,
		cfg:     cfg,
		logger:  logger,
	}
	m.prefetch = jobs.NewQueue("prefetch", m.handlePrefetch, jobs.QueueConfig{
		Workers: 1,
		Spacing: cfg.BatchDelay,
		Logger:  logger,
	})
	return m
}

// StartPrefetch launches the single-worker background queue used for
// fire-and-forget fetches triggered by download endpoints.
func (m *Manager) StartPrefetch(ctx context.Context) {
	m.prefetch.Start(ctx)
}

// StopPrefetch drains the background queue.
func (m *Manager) StopPrefetch() {
	m.prefetch.Stop()
}

// EnqueuePrefetch schedules a background fetch. Errors surface only in logs
// and history; the caller has already received its signed URL.
func (m *Manager) EnqueuePrefetch(req FetchRequest) error {
	return m.prefetch.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "prefetch",
		Payload: req,
	})
}

func (m *Manager) handlePrefetch(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(FetchRequest)
	if !ok {
		return fmt.Errorf("unexpected prefetch payload %T", job.Payload)
	}
	_, err := m.Fetch(ctx, req, FetchCallbacks{})
	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrSourceNotFound) {
		// Terminal; requeueing would just repeat the failure.
		return nil
	}
	return err
}

// Fetch retrieves one file, retrying only transient network failures with
// exponential backoff. A failing URL resolves after exactly MaxRetries+1
// total attempts. Every attempt past validation lands in history.
func (m *Manager) Fetch(ctx context.Context, req FetchRequest, callbacks FetchCallbacks) (models.DownloadRecord, error) {
	record := models.DownloadRecord{
		ID:         uuid.NewString(),
		ResourceID: req.ResourceID,
		Title:      req.Title,
		SourceURL:  req.URL,
		Type:       req.Type,
		FileSize:   req.FileSize,
		Timestamp:  time.Now().UTC(),
	}
	if record.Type == "" {
		record.Type = models.DownloadTypeResource
	}

	if !validate.IsURL(req.URL) || !validate.IsFilename(req.Filename) {
		err := fmt.Errorf("%w: url=%q filename=%q", ErrInvalidRequest, req.URL, req.Filename)
		record.Status = models.DownloadStatusFailed
		record.Error = err.Error()
		if callbacks.OnError != nil {
			callbacks.OnError(record, err)
		}
		return record, err
	}

	attempts := 0
	err := retry.Do(
		func() error {
			attempts++
			attemptErr := m.fetchOnce(ctx, req)

			// Every attempt past validation lands in history, not just
			// the final outcome.
			attempt := record
			attempt.ID = uuid.NewString()
			attempt.Attempts = attempts
			attempt.Timestamp = time.Now().UTC()
			if attemptErr != nil {
				attempt.Status = models.DownloadStatusFailed
				attempt.Error = attemptErr.Error()
			} else {
				attempt.Status = models.DownloadStatusCompleted
			}
			m.record(ctx, attempt)

			return attemptErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(m.cfg.MaxRetries)+1),
		retry.Delay(m.cfg.RetryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, ErrTransient)
		}),
	)

	record.Attempts = attempts
	if err != nil {
		record.Status = models.DownloadStatusFailed
		record.Error = err.Error()
		m.logger.Warn("download failed",
			zap.String("url", req.URL),
			zap.Int("attempts", attempts),
			zap.Error(err))
	} else {
		record.Status = models.DownloadStatusCompleted
	}

	if err != nil {
		if callbacks.OnError != nil {
			callbacks.OnError(record, err)
		}
		return record, err
	}
	if callbacks.OnComplete != nil {
		callbacks.OnComplete(record)
	}
	return record, nil
}

func (m *Manager) fetchOnce(ctx context.Context, req FetchRequest) error {
	resp, err := m.client.R().SetContext(ctx).Get(req.URL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	if resp.IsError() {
		return classifyStatus(resp.StatusCode())
	}
	if m.storage != nil {
		if _, err := m.storage.Save(req.Filename, resp.Bytes()); err != nil {
			return fmt.Errorf("store fetched file: %w", err)
		}
	}
	return nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound || status == http.StatusGone:
		return fmt.Errorf("%w: status %d", ErrSourceNotFound, status)
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("%w: status %d", ErrTransient, status)
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrInvalidRequest, status)
	}
}

// FetchBatch downloads each file individually and sequentially with a fixed
// pause between items, collecting per-item outcomes. No archive is produced.
func (m *Manager) FetchBatch(ctx context.Context, items []models.BatchDownloadItem) models.BatchDownloadReport {
	report := models.BatchDownloadReport{Total: len(items)}
	for i, item := range items {
		if i > 0 {
			select {
			case <-ctx.Done():
				report.Errors = append(report.Errors, fmt.Sprintf("batch cancelled: %v", ctx.Err()))
				report.Failed += len(items) - i
				return report
			case <-time.After(m.cfg.BatchDelay):
			}
		}
		_, err := m.Fetch(ctx, FetchRequest{
			ResourceID: item.ResourceID,
			URL:        item.URL,
			Filename:   item.Filename,
			Title:      item.Title,
			Type:       models.DownloadTypeResource,
		}, FetchCallbacks{})
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", item.Filename, err))
			continue
		}
		report.Succeeded++
	}
	return report
}

// ProbeSize issues a HEAD request and formats the byte count using binary
// units with two-decimal precision, or "Unknown size" on any network error.
func (m *Manager) ProbeSize(ctx context.Context, url string) string {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	resp, err := m.client.R().SetContext(probeCtx).Head(url)
	if err != nil || resp.IsError() {
		return "Unknown size"
	}
	length, err := strconv.ParseInt(resp.Header().Get("Content-Length"), 10, 64)
	if err != nil || length < 0 {
		return "Unknown size"
	}
	return FormatBytes(length)
}

// CheckAvailability reports whether the source URL answers a HEAD probe.
func (m *Manager) CheckAvailability(ctx context.Context, url string) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	resp, err := m.client.R().SetContext(probeCtx).Head(url)
	return err == nil && !resp.IsError()
}

func (m *Manager) record(ctx context.Context, record models.DownloadRecord) {
	if m.history == nil {
		return
	}
	if err := m.history.Append(ctx, record); err != nil {
		m.logger.Warn("append download history", zap.Error(err))
	}
}

// FormatBytes renders a byte count with binary units and two decimals.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %s", float64(n)/float64(div), []string{"KB", "MB", "GB", "TB"}[exp])
}
