// Package memory provides in-process adapters for development and tests.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/target/coffeehouse/internal/domain/cart"
)

// DefaultCartTTL is how long an untouched cart survives.
const DefaultCartTTL = 7 * 24 * time.Hour

type cartEntry struct {
	cart      cart.Cart
	expiresAt time.Time
}

// CartStore keeps carts in a map. State is lost on restart.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]cartEntry
	ttl   time.Duration
	now   func() time.Time
}

// NewCartStore creates an in-memory cart store. A non-positive ttl selects DefaultCartTTL.
func NewCartStore(ttl time.Duration) *CartStore {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartStore{carts: make(map[string]cartEntry), ttl: ttl, now: time.Now}
}

var errNoOwner = errors.New("cart owner cannot be empty")

func (s *CartStore) Load(_ context.Context, ownerID string) (cart.Cart, error) {
	if ownerID == "" {
		return cart.Cart{}, errNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[ownerID]
	if !ok || !s.now().Before(e.expiresAt) {
		return cart.Cart{}, nil
	}
	items := make([]cart.Item, len(e.cart.Items))
	copy(items, e.cart.Items)
	return cart.Cart{Items: items, UpdatedAt: e.cart.UpdatedAt}, nil
}

func (s *CartStore) Save(_ context.Context, ownerID string, c cart.Cart) error {
	if ownerID == "" {
		return errNoOwner
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.IsEmpty() {
		delete(s.carts, ownerID)
		return nil
	}
	items := make([]cart.Item, len(c.Items))
	copy(items, c.Items)
	s.carts[ownerID] = cartEntry{
		cart:      cart.Cart{Items: items, UpdatedAt: c.UpdatedAt},
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *CartStore) Delete(_ context.Context, ownerID string) error {
	s.mu.Lock()
	delete(s.carts, ownerID)
	s.mu.Unlock()
	return nil
}

// PurgeExpired drops up to batchSize expired carts. A non-positive batchSize removes all of them.
func (s *CartStore) PurgeExpired(_ context.Context, batchSize int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	var n int64
	for owner, e := range s.carts {
		if batchSize > 0 && n >= int64(batchSize) {
			break
		}
		if !now.Before(e.expiresAt) {
			delete(s.carts, owner)
			n++
		}
	}
	return n, nil
}
