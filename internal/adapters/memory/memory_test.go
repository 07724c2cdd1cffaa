package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/coffeehouse/internal/domain/cart"
)

func TestCartStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := NewCartStore(time.Hour)
	store.now = func() time.Time { return now }

	c, err := cart.Cart{}.Apply(cart.AddItem{Item: cart.Item{ProductID: "espresso", Name: "Espresso", UnitPrice: 300, Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "u1", c))

	got, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Count())

	// Mutating the loaded copy must not leak into the store.
	got.Items[0].Quantity = 9
	again, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Count())

	now = now.Add(2 * time.Hour)
	expired, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, expired.IsEmpty())

	n, err := store.PurgeExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = store.Load(ctx, "")
	assert.Error(t, err)
}

func TestCartStore_SaveEmptyDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(0)
	c, err := cart.Cart{}.Apply(cart.AddItem{Item: cart.Item{ProductID: "tea", UnitPrice: 250, Quantity: 2}})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "u1", c))
	require.NoError(t, store.Save(ctx, "u1", cart.Cart{}))

	n, err := store.PurgeExpired(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, store.carts)
}

func TestCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := c.SetIfNotExists(ctx, "k", []byte("w"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	now = now.Add(2 * time.Minute)
	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err = c.SetIfNotExists(ctx, "k", []byte("w"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	existed, err := c.Delete(ctx, "k")
	require.NoError(t, err)
	assert.True(t, existed)

	_, err = c.Get(ctx, "")
	assert.Error(t, err)
}
