package data

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/target/coffeehouse/internal/domain/cart"
	apperrors "github.com/target/coffeehouse/internal/errors"
)

// DefaultCartTTL is how long an untouched cart row stays loadable.
const DefaultCartTTL = 7 * 24 * time.Hour

// CartRepo stores carts as JSONB rows keyed by owner.
type CartRepo struct {
	DB  *sql.DB
	TTL time.Duration

	now func() time.Time
}

// NewCartRepo creates a new CartRepo. A non-positive ttl selects DefaultCartTTL.
func NewCartRepo(db *sql.DB, ttl time.Duration) *CartRepo {
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &CartRepo{DB: db, TTL: ttl, now: time.Now}
}

// ErrCartOwnerRequired is returned for an empty owner id.
var ErrCartOwnerRequired = errors.New("cart owner is required")

// Load returns the owner's cart, or an empty cart when none is stored or it has expired.
func (r *CartRepo) Load(ctx context.Context, ownerID string) (cart.Cart, error) {
	if ownerID == "" {
		return cart.Cart{}, ErrCartOwnerRequired
	}

	const q = `
		SELECT items, updated_at
		FROM carts
		WHERE owner_id = $1 AND (expires_at IS NULL OR expires_at > $2)`

	var (
		raw []byte
		c   cart.Cart
	)
	err := r.DB.QueryRowContext(ctx, q, ownerID, r.now().UTC()).Scan(&raw, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cart.Cart{}, nil
	}
	if err != nil {
		return cart.Cart{}, fmt.Errorf("load cart: %w", apperrors.MapDBError(err))
	}
	if err := json.Unmarshal(raw, &c.Items); err != nil {
		return cart.Cart{}, fmt.Errorf("decode cart items: %w", err)
	}
	return c, nil
}

// Save upserts the cart and pushes its expiry out by TTL. An empty cart deletes the row.
func (r *CartRepo) Save(ctx context.Context, ownerID string, c cart.Cart) error {
	if ownerID == "" {
		return ErrCartOwnerRequired
	}
	if c.IsEmpty() {
		return r.Delete(ctx, ownerID)
	}

	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}
	updated := c.UpdatedAt
	if updated.IsZero() {
		updated = r.now()
	}

	const q = `
		INSERT INTO carts (owner_id, items, updated_at, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner_id) DO UPDATE
		SET items = EXCLUDED.items,
		    updated_at = EXCLUDED.updated_at,
		    expires_at = EXCLUDED.expires_at`

	if _, err := r.DB.ExecContext(ctx, q, ownerID, string(items), updated.UTC(), r.now().Add(r.TTL).UTC()); err != nil {
		return fmt.Errorf("save cart: %w", apperrors.MapDBError(err))
	}
	return nil
}

// Delete removes the owner's cart. Deleting a missing cart is not an error.
func (r *CartRepo) Delete(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return nil
	}
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM carts WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("delete cart: %w", apperrors.MapDBError(err))
	}
	return nil
}

// PurgeExpired deletes up to batchSize expired carts and returns how many were removed.
func (r *CartRepo) PurgeExpired(ctx context.Context, batchSize int) (int64, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	const q = `
		DELETE FROM carts
		WHERE owner_id IN (
			SELECT owner_id FROM carts
			WHERE expires_at IS NOT NULL AND expires_at <= $1
			LIMIT $2
		)`
	res, err := r.DB.ExecContext(ctx, q, r.now().UTC(), batchSize)
	if err != nil {
		return 0, fmt.Errorf("purge expired carts: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge expired carts: %w", err)
	}
	return n, nil
}
