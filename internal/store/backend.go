package store

import "context"

// Backend is the raw keyspace underneath the namespaced store. Implementations
// must treat keys as opaque strings and values as opaque byte payloads; all
// envelope handling lives in Store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys returns every key beginning with the given prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
