package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"resty.dev/v3"

	"github.com/noah-isme/edu-resource-portal/internal/models"
	"github.com/noah-isme/edu-resource-portal/internal/store"
)

const (
	sessionKey = "analytics_session"
	userKey    = "analytics_user"
	backupKey  = "analytics_queue"
)

// Config tunes the tracker.
type Config struct {
	Enabled       bool
	Endpoint      string
	FlushInterval time.Duration
	BatchSize     int
	SessionTTL    time.Duration
	SendTimeout   time.Duration
}

type session struct {
	ID string `json:"id"`
}

// Tracker queues analytics events in memory, mirrors the queue to the
// persistent store after every change, and flushes batches to the collector
// endpoint. Failed flushes re-queue ahead of newer events so delivery order
// is preserved; events are never silently dropped.
type Tracker struct {
	client *resty.Client
	store  *store.Store
	cfg    Config
	logger *zap.Logger

	mu       sync.Mutex
	queue    []models.AnalyticsEvent
	inflight []models.AnalyticsEvent
	stats    models.AnalyticsStats
	userID   string

	sendMu sync.Mutex

	flushCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewTracker restores any events persisted by a previous run and resolves the
// anonymous user identity.
func NewTracker(client *resty.Client, st *store.Store, cfg Config, logger *zap.Logger) *Tracker {
	if client == nil {
		client = resty.New()
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 4 * time.Hour
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Tracker{
		client:  client,
		store:   st,
		cfg:     cfg,
		logger:  logger,
		flushCh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	t.restore()
	t.userID = t.resolveUserID()
	return t
}

// Start runs the periodic flush loop until Close is called.
func (t *Tracker) Start(ctx context.Context) {
	go t.loop(ctx)
}

func (t *Tracker) loop(ctx context.Context) {
	ticker := time.NewTicker(t.cfg.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		case <-ticker.C:
			t.Flush(ctx)
		case <-t.flushCh:
			t.Flush(ctx)
		}
	}
}

// Close stops the loop and makes one final flush attempt. Whatever could not
// be delivered stays persisted in the store for the next run.
func (t *Tracker) Close() {
	t.once.Do(func() { close(t.done) })
	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.SendTimeout)
	defer cancel()
	t.Flush(ctx)
}

// UserID returns the stable anonymous visitor identity.
func (t *Tracker) UserID() string {
	return t.userID
}

// SessionID returns the current session id, minting a fresh one when the
// stored session has aged out.
func (t *Tracker) SessionID(ctx context.Context) string {
	var s session
	found, err := t.store.Get(ctx, sessionKey, &s)
	if err != nil {
		t.logger.Warn("load analytics session", zap.Error(err))
	}
	if found && s.ID != "" {
		return s.ID
	}
	s.ID = uuid.NewString()
	if err := t.store.Set(ctx, sessionKey, s, store.SetOptions{TTL: t.cfg.SessionTTL}); err != nil {
		t.logger.Warn("persist analytics session", zap.Error(err))
	}
	return s.ID
}

// Track queues one event, stamping session, user and time. Reaching the batch
// size signals the loop; tracking never blocks the caller on network IO.
func (t *Tracker) Track(ctx context.Context, eventType models.EventType, payload map[string]interface{}) {
	if !t.cfg.Enabled {
		return
	}
	if !eventType.Valid() {
		t.logger.Warn("unknown analytics event type", zap.String("type", string(eventType)))
		return
	}

	event := models.AnalyticsEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		SessionID: t.SessionID(ctx),
		UserID:    t.userID,
	}

	t.mu.Lock()
	t.queue = append(t.queue, event)
	t.stats.Queued++
	full := len(t.queue) >= t.cfg.BatchSize
	t.persistLocked(ctx)
	t.mu.Unlock()

	if full {
		select {
		case t.flushCh <- struct{}{}:
		default:
		}
	}
}

// TrackPageView records a page visit.
func (t *Tracker) TrackPageView(ctx context.Context, page string) {
	t.Track(ctx, models.EventPageView, map[string]interface{}{"page": page})
}

// TrackDownload records a completed or failed download.
func (t *Tracker) TrackDownload(ctx context.Context, resourceID, title string, success bool) {
	t.Track(ctx, models.EventDownload, map[string]interface{}{
		"resourceId": resourceID,
		"title":      title,
		"success":    success,
	})
}

// TrackSearch records a query and its hit count.
func (t *Tracker) TrackSearch(ctx context.Context, query string, results int) {
	t.Track(ctx, models.EventSearch, map[string]interface{}{
		"query":   query,
		"results": results,
	})
}

// TrackFilter records a filter axis change.
func (t *Tracker) TrackFilter(ctx context.Context, axis, value string) {
	t.Track(ctx, models.EventFilter, map[string]interface{}{
		"axis":  axis,
		"value": value,
	})
}

// TrackInteraction records a generic UI interaction.
func (t *Tracker) TrackInteraction(ctx context.Context, action string, detail map[string]interface{}) {
	payload := map[string]interface{}{"action": action}
	for k, v := range detail {
		payload[k] = v
	}
	t.Track(ctx, models.EventInteraction, payload)
}

// TrackError records a client-visible failure.
func (t *Tracker) TrackError(ctx context.Context, message, source string) {
	t.Track(ctx, models.EventError, map[string]interface{}{
		"message": message,
		"source":  source,
	})
}

// TrackPerformance records a timing measurement in milliseconds.
func (t *Tracker) TrackPerformance(ctx context.Context, metric string, millis float64) {
	t.Track(ctx, models.EventPerformance, map[string]interface{}{
		"metric": metric,
		"millis": millis,
	})
}

// Flush swaps the queue out under the lock and posts it to the collector.
// The swapped batch stays in the persisted backup until the collector
// confirms delivery, so a crash mid-send replays it on the next start. On
// failure the batch is re-queued ahead of anything tracked meanwhile.
func (t *Tracker) Flush(ctx context.Context) {
	t.sendMu.Lock()
	defer t.sendMu.Unlock()

	t.mu.Lock()
	if len(t.queue) == 0 {
		t.mu.Unlock()
		return
	}
	batch := t.queue
	t.queue = nil
	t.inflight = batch
	t.persistLocked(ctx)
	t.mu.Unlock()

	err := t.send(ctx, batch)

	t.mu.Lock()
	t.inflight = nil
	if err != nil {
		t.queue = append(batch, t.queue...)
		t.stats.FailedFlushes++
	} else {
		t.stats.Flushed += len(batch)
		t.stats.LastFlushAt = time.Now().UTC()
	}
	t.persistLocked(ctx)
	t.mu.Unlock()

	if err != nil {
		t.logger.Warn("analytics flush failed",
			zap.Int("events", len(batch)),
			zap.Error(err))
	}
}

func (t *Tracker) send(ctx context.Context, batch []models.AnalyticsEvent) error {
	if t.cfg.Endpoint == "" {
		return fmt.Errorf("no collector endpoint configured")
	}
	sendCtx, cancel := context.WithTimeout(ctx, t.cfg.SendTimeout)
	defer cancel()

	resp, err := t.client.R().
		SetContext(sendCtx).
		SetBody(map[string]interface{}{"events": batch}).
		Post(t.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("post analytics batch: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("collector rejected batch: status %d", resp.StatusCode())
	}
	return nil
}

// Stats returns a snapshot of queue counters.
func (t *Tracker) Stats() models.AnalyticsStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.stats
	stats.Queued = len(t.queue)
	return stats
}

// Pending returns a copy of the undelivered queue.
func (t *Tracker) Pending() []models.AnalyticsEvent {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.AnalyticsEvent, len(t.queue))
	copy(out, t.queue)
	return out
}

// persistLocked mirrors every undelivered event to the store: the in-flight
// batch first, then the live queue. The backup is removed only once both are
// empty, which is the delivery confirmation point.
func (t *Tracker) persistLocked(ctx context.Context) {
	if len(t.inflight) == 0 && len(t.queue) == 0 {
		if err := t.store.Remove(ctx, backupKey); err != nil {
			t.logger.Warn("clear analytics backup", zap.Error(err))
		}
		return
	}
	pending := make([]models.AnalyticsEvent, 0, len(t.inflight)+len(t.queue))
	pending = append(pending, t.inflight...)
	pending = append(pending, t.queue...)
	if err := t.store.Set(ctx, backupKey, pending, store.SetOptions{}); err != nil {
		t.logger.Warn("persist analytics backup", zap.Error(err))
	}
}

func (t *Tracker) restore() {
	ctx := context.Background()
	var backed []models.AnalyticsEvent
	found, err := t.store.Get(ctx, backupKey, &backed)
	if err != nil {
		t.logger.Warn("restore analytics backup", zap.Error(err))
		return
	}
	if !found || len(backed) == 0 {
		return
	}
	t.queue = backed
	t.logger.Info("restored undelivered analytics events", zap.Int("events", len(backed)))
}

func (t *Tracker) resolveUserID() string {
	ctx := context.Background()
	var id string
	found, err := t.store.Get(ctx, userKey, &id)
	if err != nil {
		t.logger.Warn("load analytics user id", zap.Error(err))
	}
	if found && id != "" {
		return id
	}
	id = uuid.NewString()
	if err := t.store.Set(ctx, userKey, id, store.SetOptions{}); err != nil {
		t.logger.Warn("persist analytics user id", zap.Error(err))
	}
	return id
}
