package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/coffeehouse/internal/domain/cart"
)

// DefaultCartTTL is how long an untouched cart survives.
const DefaultCartTTL = 7 * 24 * time.Hour

// CartStore keeps one JSON-encoded cart per owner. Every save refreshes the TTL.
type CartStore struct {
	kv  jsonKV[cart.Cart]
	ttl time.Duration
}

// NewCartStore creates a Redis cart store. A non-positive ttl selects DefaultCartTTL.
func NewCartStore(client redis.UniversalClient, ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartStore{kv: jsonKV[cart.Cart]{client: client, prefix: "cart:"}, ttl: ttl}
}

func (s *CartStore) Load(ctx context.Context, ownerID string) (cart.Cart, error) {
	if ownerID == "" {
		return cart.Cart{}, errors.New("cart owner cannot be empty")
	}
	c, _, err := s.kv.get(ctx, ownerID)
	return c, err
}

func (s *CartStore) Save(ctx context.Context, ownerID string, c cart.Cart) error {
	if ownerID == "" {
		return errors.New("cart owner cannot be empty")
	}
	if c.IsEmpty() {
		return s.kv.del(ctx, ownerID)
	}
	return s.kv.put(ctx, ownerID, c, s.ttl)
}

func (s *CartStore) Delete(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	return s.kv.del(ctx, ownerID)
}
