package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/coffeehouse/internal/testutil"
)

func TestRedisCacheRepo(t *testing.T) {
	client, mr := testutil.SetupTestRedis(t)
	repo := NewRedisCacheRepo(client, "coffeehouse:")
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "menu", []byte("[]"), time.Minute))
		got, err := repo.Get(ctx, "menu")
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), got)
		assert.True(t, mr.Exists("coffeehouse:menu"))
	})

	t.Run("missing key", func(t *testing.T) {
		got, err := repo.Get(ctx, "absent")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		existed, err := repo.Delete(ctx, "menu")
		require.NoError(t, err)
		assert.True(t, existed)
		existed, err = repo.Delete(ctx, "menu")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("set if not exists", func(t *testing.T) {
		ok, err := repo.SetIfNotExists(ctx, "lock", []byte("1"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.SetIfNotExists(ctx, "lock", []byte("2"), time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		mr.FastForward(2 * time.Minute)
		ok, err = repo.SetIfNotExists(ctx, "lock", []byte("3"), time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty key", func(t *testing.T) {
		_, err := repo.Get(ctx, "")
		assert.Error(t, err)
		assert.Error(t, repo.Set(ctx, "", nil, 0))
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, repo.Health(ctx))
	})
}
