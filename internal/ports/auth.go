package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/coffeehouse/internal/domain/auth"
)

// BeginInput carries inputs for initiating an auth flow.
type BeginInput struct {
	RedirectURL string
}

// AuthProvider initiates and completes an authentication flow against an IdP.
type AuthProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps an IdP identity to an application role.
type RoleMapper interface {
	Map(id domainauth.Identity) domainauth.Role
}

// RoleResolver looks up the authoritative role for a user.
// Implementations return RoleUnknown with a nil error when the source has no role on record.
type RoleResolver interface {
	ResolveRole(ctx context.Context, userID string) (domainauth.Role, error)
}

// RoleCodec converts a role to and from the role cookie value.
// Encode must be deterministic for equal inputs. Decode reports RoleUnknown
// for values that are well-formed but do not carry a recognized role for the
// given session, and an error for values that cannot be trusted at all.
type RoleCodec interface {
	Encode(role domainauth.Role, sess domainauth.Session) (string, error)
	Decode(value, sessionID string) (domainauth.Role, error)
}
