package ports_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/target/coffeehouse/internal/adapters/memory"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/mocks"
	mocksauth "github.com/target/coffeehouse/internal/mocks/auth"
	"github.com/target/coffeehouse/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.AuthProvider = (*mocksauth.MockAuthProvider)(nil)
	var _ ports.SessionStore = (*mocksauth.MemorySessionStore)(nil)
	var _ ports.RoleMapper = (*mocksauth.StaticRoleMapper)(nil)
	var _ ports.Catalog = (*mocks.MockCatalog)(nil)
	var _ ports.OrderBook = (*mocks.MockOrderBook)(nil)
	var _ ports.PaymentLedger = (*mocks.MockPaymentLedger)(nil)
	var _ ports.UserDirectory = (*mocks.MockUserDirectory)(nil)
	var _ ports.RoleResolver = (*mocks.MockRoleResolver)(nil)
	var _ ports.CartStore = (*mocks.MockCartStore)(nil)
	var _ ports.CartStore = (*memory.CartStore)(nil)
}

func TestActorContext(t *testing.T) {
	_, ok := ports.ActorFrom(context.Background())
	assert.False(t, ok)

	_, ok = ports.ActorFrom(ports.WithActor(context.Background(), ports.Actor{}))
	assert.False(t, ok, "an actor without a user id is not an actor")

	ctx := ports.WithActor(context.Background(), ports.Actor{UserID: "u1", Role: domainauth.RoleCashier})
	a, ok := ports.ActorFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", a.UserID)
	assert.Equal(t, domainauth.RoleCashier, a.Role)
}
