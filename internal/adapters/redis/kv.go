package redis

// Package redis provides Redis-backed adapters for sessions and carts.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// jsonKV stores JSON-encoded values of one type under a key prefix.
type jsonKV[T any] struct {
	client redis.UniversalClient
	prefix string
}

func (kv jsonKV[T]) key(id string) string { return kv.prefix + id }

// put writes v with the given TTL. A zero ttl keeps the key without expiry.
func (kv jsonKV[T]) put(ctx context.Context, id string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kv.prefix, err)
	}
	if err := kv.client.Set(ctx, kv.key(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// get reads the value for id. found is false when the key does not exist.
func (kv jsonKV[T]) get(ctx context.Context, id string) (v T, found bool, err error) {
	data, err := kv.client.Get(ctx, kv.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return v, false, nil
		}
		return v, false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("unmarshal %s: %w", kv.prefix, err)
	}
	return v, true, nil
}

func (kv jsonKV[T]) del(ctx context.Context, id string) error {
	if err := kv.client.Del(ctx, kv.key(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
