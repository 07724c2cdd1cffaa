package backend

import (
	"context"
	"net/http"

	"github.com/target/coffeehouse/internal/claims"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/ports"
)

// DefaultRoleClaimPath selects the top-level "role" field of a user record.
const DefaultRoleClaimPath = "role"

// RoleResolver reads the authoritative role from the backend user record.
// The role is located with a JMESPath expression so backends that nest it
// (for example "profile.roles[0]") need no code change.
type RoleResolver struct {
	client *Client
	path   claims.Path
}

var _ ports.RoleResolver = (*RoleResolver)(nil)

// NewRoleResolver compiles claimPath, defaulting to DefaultRoleClaimPath.
func NewRoleResolver(client *Client, claimPath string) (*RoleResolver, error) {
	if claimPath == "" {
		claimPath = DefaultRoleClaimPath
	}
	p, err := claims.Compile(claimPath)
	if err != nil {
		return nil, err
	}
	return &RoleResolver{client: client, path: p}, nil
}

// ResolveRole returns RoleUnknown with a nil error when the record has no recognizable role.
func (r *RoleResolver) ResolveRole(ctx context.Context, userID string) (domainauth.Role, error) {
	doc, err := call[any](ctx, r.client, request{op: "resolve_role", method: http.MethodGet, path: "/users/" + escape(userID)})
	if err != nil {
		return domainauth.RoleUnknown, err
	}
	return domainauth.ParseRole(r.path.Extract(doc)), nil
}
