package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/target/coffeehouse/internal/domain/access"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
)

func TestGetUserSessionFromContext(t *testing.T) {
	if s, ok := GetUserSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}

	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleCustomer}
	ctx := SetSessionInContext(context.Background(), sess)
	s, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)
	assert.Equal(t, sess, GetSessionFromContext(ctx))
}

func TestSetSessionInContext_NilKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, SetSessionInContext(ctx, nil))
	assert.Nil(t, GetSessionFromContext(ctx))
}

func TestDecisionFromContext(t *testing.T) {
	_, ok := DecisionFromContext(context.Background())
	assert.False(t, ok)

	want := access.Decision{Kind: access.Allow, State: access.StateAuthenticatedCustomer}
	got, ok := DecisionFromContext(setDecisionInContext(context.Background(), want))
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
