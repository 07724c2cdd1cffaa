package bootstrap

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/coffeehouse/config"
	"github.com/target/coffeehouse/internal/adapters/rolecookie"
	redisadapter "github.com/target/coffeehouse/internal/adapters/redis"
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testSessions(t *testing.T) *redisadapter.SessionStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redisadapter.NewSessionStore(client)
}

func TestBuildAuthService(t *testing.T) {
	t.Run("requires a session store", func(t *testing.T) {
		_, err := BuildAuthService(AuthConfig{Auth: config.AuthConfig{Mode: config.AuthModeMock}})
		require.Error(t, err)
	})

	t.Run("dev auth mode", func(t *testing.T) {
		svc, err := BuildAuthService(AuthConfig{
			Auth: config.AuthConfig{
				Mode: config.AuthModeMock,
				DevAuth: config.DevAuthConfig{
					UserID: "dev",
					Email:  "dev@example.com",
					Role:   "cashier",
				},
			},
			Sessions: testSessions(t),
			Logger:   discardLogger(),
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("dev auth without a user", func(t *testing.T) {
		_, err := BuildAuthService(AuthConfig{
			Auth:     config.AuthConfig{Mode: config.AuthModeMock},
			Sessions: testSessions(t),
		})
		require.Error(t, err)
	})

	t.Run("oauth mode missing settings", func(t *testing.T) {
		_, err := BuildAuthService(AuthConfig{
			Auth: config.AuthConfig{
				Mode:  config.AuthModeOAuth,
				OAuth: config.OAuthConfig{ClientID: "client-id"},
			},
			Sessions: testSessions(t),
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "discovery_url_empty=true")
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := BuildAuthService(AuthConfig{Auth: config.AuthConfig{Mode: "saml"}, Sessions: testSessions(t)})
		require.Error(t, err)
	})
}

func TestBuildRoleCodec(t *testing.T) {
	codec, err := BuildRoleCodec(config.RoleCookieConfig{})
	require.NoError(t, err)
	assert.IsType(t, rolecookie.PlainCodec{}, codec)

	codec, err = BuildRoleCodec(config.RoleCookieConfig{SigningKey: strings.Repeat("k", rolecookie.MinKeyLength)})
	require.NoError(t, err)
	assert.IsType(t, &rolecookie.SignedCodec{}, codec)

	_, err = BuildRoleCodec(config.RoleCookieConfig{SigningKey: "short"})
	require.Error(t, err)
}

func TestBuildRoleService(t *testing.T) {
	svc, codec, err := BuildRoleService(RoleConfig{Sessions: testSessions(t), Logger: discardLogger()})
	require.NoError(t, err)
	assert.NotNil(t, svc)
	assert.IsType(t, rolecookie.PlainCodec{}, codec)

	_, _, err = BuildRoleService(RoleConfig{})
	require.Error(t, err, "a session store is required")
}
