package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
)

// Envelope wraps every stored value with its write timestamp, optional expiry
// and schema version.
type Envelope struct {
	Value     json.RawMessage `json:"value"`
	Timestamp time.Time       `json:"timestamp"`
	Expires   *time.Time      `json:"expires,omitempty"`
	Version   string          `json:"version,omitempty"`
}

// Expired reports whether the envelope's deadline has passed.
func (e Envelope) Expired(now time.Time) bool {
	return e.Expires != nil && now.After(*e.Expires)
}

// SetOptions tune a single write.
type SetOptions struct {
	TTL     time.Duration
	Version string
}

// Usage summarises keyspace consumption under the namespace.
type Usage struct {
	Bytes int `json:"bytes"`
	Items int `json:"items"`
}

// Store is a namespaced key-value layer over a Backend. Every payload travels
// inside an Envelope; expired entries are deleted lazily on read and eagerly
// by ClearExpired. A quota failure during Set triggers one cleanup pass and a
// single retry before the error is returned.
type Store struct {
	backend   Backend
	namespace string
	logger    *zap.Logger
}

// New constructs a namespaced store.
func New(backend Backend, namespace string, logger *zap.Logger) *Store {
	if namespace == "" {
		namespace = "eduportal"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, namespace: namespace, logger: logger}
}

func (s *Store) prefix() string {
	return s.namespace + ":"
}

func (s *Store) qualify(key string) string {
	return s.prefix() + key
}

// Set serialises the value into an envelope and writes it under the namespace.
func (s *Store) Set(ctx context.Context, key string, value interface{}, opts SetOptions) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal store value for %s: %w", key, err)
	}

	env := Envelope{
		Value:     raw,
		Timestamp: time.Now().UTC(),
		Version:   opts.Version,
	}
	if opts.TTL > 0 {
		deadline := env.Timestamp.Add(opts.TTL)
		env.Expires = &deadline
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal store envelope for %s: %w", key, err)
	}

	err = s.backend.Set(ctx, s.qualify(key), payload)
	if errors.Is(err, appErrors.ErrQuotaExceeded) {
		removed, cleanupErr := s.ClearExpired(ctx)
		if cleanupErr != nil {
			s.logger.Warn("store cleanup after quota failure", zap.Error(cleanupErr))
		} else {
			s.logger.Info("store quota hit, retried after cleanup", zap.String("key", key), zap.Int("removed", removed))
		}
		err = s.backend.Set(ctx, s.qualify(key), payload)
	}
	if err != nil {
		return err
	}
	return nil
}

// Get reads and deserialises the value into dest. It returns false when the
// key is absent, expired (the entry is deleted) or corrupt.
func (s *Store) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok, err := s.backend.Get(ctx, s.qualify(key))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.logger.Warn("store entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		_ = s.backend.Delete(ctx, s.qualify(key))
		return false, nil
	}
	if env.Expired(time.Now().UTC()) {
		_ = s.backend.Delete(ctx, s.qualify(key))
		return false, nil
	}
	if dest != nil {
		if err := json.Unmarshal(env.Value, dest); err != nil {
			return false, fmt.Errorf("unmarshal store value for %s: %w", key, err)
		}
	}
	return true, nil
}

// Remove deletes the key.
func (s *Store) Remove(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.qualify(key))
}

// Clear deletes every key under the namespace.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx, s.prefix())
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.backend.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

// ClearExpired scans the namespace and deletes every envelope whose expiry has
// passed or whose payload fails to parse. It returns the number of removals.
func (s *Store) ClearExpired(ctx context.Context) (int, error) {
	keys, err := s.backend.Keys(ctx, s.prefix())
	if err != nil {
		return 0, err
	}
	now := time.Now().UTC()
	removed := 0
	for _, key := range keys {
		raw, ok, err := s.backend.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Expired(now) {
			if delErr := s.backend.Delete(ctx, key); delErr == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Keys lists the de-prefixed key names under the namespace.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	qualified, err := s.backend.Keys(ctx, s.prefix())
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(qualified))
	for _, key := range qualified {
		keys = append(keys, strings.TrimPrefix(key, s.prefix()))
	}
	return keys, nil
}

// GetUsage reports total byte count (key plus value lengths) and item count.
func (s *Store) GetUsage(ctx context.Context) (Usage, error) {
	keys, err := s.backend.Keys(ctx, s.prefix())
	if err != nil {
		return Usage{}, err
	}
	usage := Usage{Items: len(keys)}
	for _, key := range keys {
		raw, ok, err := s.backend.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		usage.Bytes += len(key) + len(raw)
	}
	return usage, nil
}

// Backup is the serialised form of an entire namespace. Entries are kept raw
// so documents exported by older clients, which wrote some payloads without
// the envelope, can still be restored.
type Backup struct {
	Namespace  string                     `json:"namespace"`
	ExportedAt time.Time                  `json:"exportedAt"`
	Entries    map[string]json.RawMessage `json:"entries"`
}

// legacyKeyAliases maps unnamespaced keys older clients wrote directly to
// their canonical names.
var legacyKeyAliases = map[string]string{
	"downloadHistory": "download_history",
	"searchHistory":   "recent_searches",
	"user_id":         "analytics_user",
}

// ExportBackup serialises the whole namespaced set.
func (s *Store) ExportBackup(ctx context.Context) (*Backup, error) {
	keys, err := s.backend.Keys(ctx, s.prefix())
	if err != nil {
		return nil, err
	}
	backup := &Backup{
		Namespace:  s.namespace,
		ExportedAt: time.Now().UTC(),
		Entries:    make(map[string]json.RawMessage, len(keys)),
	}
	for _, key := range keys {
		raw, ok, err := s.backend.Get(ctx, key)
		if err != nil || !ok {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			s.logger.Warn("skipping corrupt entry during backup", zap.String("key", key), zap.Error(err))
			continue
		}
		backup.Entries[strings.TrimPrefix(key, s.prefix())] = json.RawMessage(raw)
	}
	return backup, nil
}

// RestoreBackup writes every entry of the backup into the namespace. Entries
// already expired at restore time are skipped. Legacy entries — bare payloads
// written outside the envelope, under their old key names — are migrated: the
// key is renamed to its canonical form and the payload wrapped in a fresh
// envelope.
func (s *Store) RestoreBackup(ctx context.Context, backup *Backup) (int, error) {
	if backup == nil {
		return 0, fmt.Errorf("nil backup")
	}
	now := time.Now().UTC()
	restored := 0
	for key, raw := range backup.Entries {
		if canonical, ok := legacyKeyAliases[key]; ok {
			key = canonical
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Value == nil {
			env = Envelope{Value: raw, Timestamp: now}
		}
		if env.Expired(now) {
			continue
		}

		payload, err := json.Marshal(env)
		if err != nil {
			return restored, fmt.Errorf("marshal backup entry %s: %w", key, err)
		}
		if err := s.backend.Set(ctx, s.qualify(key), payload); err != nil {
			return restored, err
		}
		restored++
	}
	return restored, nil
}
