package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/target/coffeehouse/internal/ports"
)

// DefaultCatalogTTL is how long catalog reads are cached when a cache is configured.
const DefaultCatalogTTL = 30 * time.Second

const catalogListKey = "catalog:products"

func catalogProductKey(id string) string { return "catalog:product:" + id }

// cached reads key from cache, falling back to load and storing its result.
// Cache failures are logged and never fail the read.
func cached[T any](
	ctx context.Context,
	cache ports.Cache,
	logger *slog.Logger,
	key string,
	ttl time.Duration,
	load func(context.Context) (T, error),
) (T, error) {
	if cache == nil {
		return load(ctx)
	}

	if raw, err := cache.Get(ctx, key); err != nil {
		logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	} else if raw != nil {
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			return v, nil
		}
		logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key)
	}

	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	if raw, jsonErr := json.Marshal(v); jsonErr == nil {
		if setErr := cache.Set(ctx, key, raw, ttl); setErr != nil {
			logger.WarnContext(ctx, "cache write failed", "key", key, "error", setErr)
		}
	}
	return v, nil
}

// invalidateCatalog drops the cached list and the cached product.
func invalidateCatalog(ctx context.Context, cache ports.Cache, logger *slog.Logger, productID string) {
	if cache == nil {
		return
	}
	for _, key := range []string{catalogListKey, catalogProductKey(productID)} {
		if _, err := cache.Delete(ctx, key); err != nil {
			logger.WarnContext(ctx, "cache invalidation failed", "key", key, "error", err)
		}
	}
}
