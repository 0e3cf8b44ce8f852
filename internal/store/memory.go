package store

import (
	"context"
	"strings"
	"sync"

	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
)

// MemoryBackend is a map-backed Backend. It serves tests and acts as a
// degraded fallback when Redis is unreachable at startup. MaxBytes, when
// positive, makes Set fail with ErrQuotaExceeded once the keyspace would
// exceed the budget, mirroring a full persistent store.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     map[string][]byte
	MaxBytes int
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]byte)}
}

func (b *MemoryBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (b *MemoryBackend) Set(ctx context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.MaxBytes > 0 {
		total := len(key) + len(value)
		for k, v := range b.data {
			if k == key {
				continue
			}
			total += len(k) + len(v)
		}
		if total > b.MaxBytes {
			return appErrors.ErrQuotaExceeded
		}
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	b.data[key] = stored
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

func (b *MemoryBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.data))
	for k := range b.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
