package ports

import (
	"context"

	"github.com/target/coffeehouse/internal/domain/cart"
)

// CartStore persists one cart per owner.
// Load returns an empty cart when nothing is stored for the owner.
type CartStore interface {
	Load(ctx context.Context, ownerID string) (cart.Cart, error)
	Save(ctx context.Context, ownerID string, c cart.Cart) error
	Delete(ctx context.Context, ownerID string) error
}
