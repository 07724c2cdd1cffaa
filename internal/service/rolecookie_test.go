package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/coffeehouse/internal/adapters/rolecookie"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/mocks"
	mocksauth "github.com/target/coffeehouse/internal/mocks/auth"
	"github.com/target/coffeehouse/internal/testutil"
	"go.uber.org/mock/gomock"
)

func seedSession(t *testing.T, store *mocksauth.MemorySessionStore, sess domainauth.Session) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), sess))
}

func liveSession(id string, role domainauth.Role) domainauth.Session {
	return domainauth.Session{ID: id, UserID: "user-" + id, Role: role, ExpiresAt: time.Now().Add(time.Hour)}
}

func TestNewRoleCookieService_Validation(t *testing.T) {
	_, err := NewRoleCookieService(RoleCookieServiceOptions{Codec: rolecookie.PlainCodec{}})
	require.Error(t, err)
	_, err = NewRoleCookieService(RoleCookieServiceOptions{Sessions: mocksauth.NewMemorySessionStore()})
	require.Error(t, err)
}

func TestRoleCookieService_Grant(t *testing.T) {
	tests := []struct {
		name         string
		sessionRole  domainauth.Role
		resolver     *mocksauth.StaticRoleResolver
		wantRole     domainauth.Role
		wantFallback bool
	}{
		{
			name:        "resolver role wins",
			sessionRole: domainauth.RoleCustomer,
			resolver:    &mocksauth.StaticRoleResolver{Role: domainauth.RoleCashier},
			wantRole:    domainauth.RoleCashier,
		},
		{
			name:         "resolver error falls back to session role",
			sessionRole:  domainauth.RoleAdmin,
			resolver:     &mocksauth.StaticRoleResolver{Err: errors.New("backend down")},
			wantRole:     domainauth.RoleAdmin,
			wantFallback: true,
		},
		{
			name:         "resolver error and unknown session role defaults to customer",
			sessionRole:  domainauth.RoleUnknown,
			resolver:     &mocksauth.StaticRoleResolver{Err: errors.New("backend down")},
			wantRole:     domainauth.RoleCustomer,
			wantFallback: true,
		},
		{
			name:         "resolver without role on record",
			sessionRole:  domainauth.RoleCashier,
			resolver:     &mocksauth.StaticRoleResolver{Role: domainauth.RoleUnknown},
			wantRole:     domainauth.RoleCashier,
			wantFallback: true,
		},
		{
			name:        "no resolver uses session role",
			sessionRole: domainauth.RoleCashier,
			wantRole:    domainauth.RoleCashier,
		},
		{
			name:         "no resolver and no session role",
			wantRole:     domainauth.RoleCustomer,
			wantFallback: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocksauth.NewMemorySessionStore()
			seedSession(t, store, liveSession("s-1", tt.sessionRole))

			opts := RoleCookieServiceOptions{Sessions: store, Codec: rolecookie.PlainCodec{}}
			if tt.resolver != nil {
				opts.Resolver = tt.resolver
			}
			svc, err := NewRoleCookieService(opts)
			require.NoError(t, err)

			grant, err := svc.Grant(context.Background(), "s-1")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, grant.Role)
			assert.Equal(t, string(tt.wantRole), grant.Value)
			assert.Equal(t, tt.wantFallback, grant.Fallback)
			assert.Equal(t, "user-s-1", grant.Session.UserID)
		})
	}
}

func TestRoleCookieService_Grant_Unauthenticated(t *testing.T) {
	store := mocksauth.NewMemorySessionStore()
	expired := liveSession("old", domainauth.RoleAdmin)
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	seedSession(t, store, expired)
	resolver := &mocksauth.StaticRoleResolver{Role: domainauth.RoleAdmin}

	svc, err := NewRoleCookieService(RoleCookieServiceOptions{
		Sessions: store,
		Codec:    rolecookie.PlainCodec{},
		Resolver: resolver,
	})
	require.NoError(t, err)

	for _, id := range []string{"", "missing", "old"} {
		_, err := svc.Grant(context.Background(), id)
		assert.ErrorIs(t, err, ErrUnauthenticated, "session %q", id)
	}
	assert.Zero(t, resolver.Calls, "resolver must not be consulted without a session")
}

func TestRoleCookieService_Grant_IdempotentSigned(t *testing.T) {
	store := mocksauth.NewMemorySessionStore()
	seedSession(t, store, liveSession("s-2", domainauth.RoleCustomer))
	codec, err := rolecookie.NewSignedCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	resolver := mocks.NewMockRoleResolver(ctrl)
	resolver.EXPECT().ResolveRole(gomock.Any(), "user-s-2").Return(domainauth.RoleCustomer, nil).Times(2)

	svc, err := NewRoleCookieService(RoleCookieServiceOptions{Sessions: store, Codec: codec, Resolver: resolver})
	require.NoError(t, err)

	first, err := svc.Grant(context.Background(), "s-2")
	require.NoError(t, err)
	second, err := svc.Grant(context.Background(), "s-2")
	require.NoError(t, err)

	assert.Equal(t, first.Value, second.Value)
	role, err := codec.Decode(first.Value, "s-2")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCustomer, role)
}

func TestRoleCookieService_Role(t *testing.T) {
	svc, err := NewRoleCookieService(RoleCookieServiceOptions{
		Sessions: mocksauth.NewMemorySessionStore(),
		Codec:    rolecookie.PlainCodec{},
		Resolver: &mocksauth.StaticRoleResolver{Role: domainauth.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleAdmin, svc.Role(context.Background(), liveSession("s-3", domainauth.RoleCustomer)))

	noResolver, err := NewRoleCookieService(RoleCookieServiceOptions{
		Sessions: mocksauth.NewMemorySessionStore(),
		Codec:    rolecookie.PlainCodec{},
	})
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCashier, noResolver.Role(context.Background(), liveSession("s-4", domainauth.RoleCashier)))
	assert.Equal(t, domainauth.RoleCustomer, noResolver.Role(context.Background(), liveSession("s-5", domainauth.RoleUnknown)))
}

func TestRoleCookieService_Grant_ExpiryUsesServiceClock(t *testing.T) {
	store := mocksauth.NewMemorySessionStore()
	expiresAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	seedSession(t, store, domainauth.Session{ID: "s-3", UserID: "u-3", Role: domainauth.RoleCashier, ExpiresAt: expiresAt})

	svc, err := NewRoleCookieService(RoleCookieServiceOptions{Sessions: store, Codec: rolecookie.PlainCodec{}})
	require.NoError(t, err)

	svc.now = testutil.FixedTimeFunc(expiresAt.Add(-time.Second))
	grant, err := svc.Grant(context.Background(), "s-3")
	require.NoError(t, err)
	assert.Equal(t, domainauth.RoleCashier, grant.Role)

	svc.now = testutil.FixedTimeFunc(expiresAt.Add(time.Second))
	_, err = svc.Grant(context.Background(), "s-3")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
