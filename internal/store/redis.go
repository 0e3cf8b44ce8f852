package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/edu-resource-portal/pkg/errors"
)

// RedisBackend adapts a Redis client to the Backend interface. Expiry is not
// delegated to Redis TTLs: the store's envelope carries its own deadline so
// ClearExpired and backup export see the same metadata the browser-local
// original kept.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend wraps an already-connected client.
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := b.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, key, value, 0).Err(); err != nil {
		if isOOM(err) {
			return appErrors.ErrQuotaExceeded
		}
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", key, err)
	}
	return nil
}

func (b *RedisBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	return keys, nil
}

func isOOM(err error) bool {
	return err != nil && strings.Contains(err.Error(), "OOM")
}
