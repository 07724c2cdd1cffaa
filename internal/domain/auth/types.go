package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"strings"
	"time"
)

// Role represents an application's authorization role.
// The set is closed: anything that does not parse to one of the named
// roles is RoleUnknown, never a fourth privileged value.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCashier  Role = "cashier"
	RoleCustomer Role = "customer"

	// RoleUnknown covers an absent role claim as well as unrecognized values.
	RoleUnknown Role = ""
)

// Dashboard roots for staff roles.
const (
	AdminHome    = "/dashboard/admin"
	CashierHome  = "/dashboard/cashier"
	CustomerHome = "/"
	LoginPath    = "/login"
)

// ParseRole maps a raw claim value onto the closed role set.
func ParseRole(raw string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleCashier:
		return RoleCashier
	case RoleCustomer:
		return RoleCustomer
	default:
		return RoleUnknown
	}
}

// Valid reports whether r is one of the named roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCashier, RoleCustomer:
		return true
	default:
		return false
	}
}

// IsStaff reports whether r is admin or cashier.
func (r Role) IsStaff() bool { return r == RoleAdmin || r == RoleCashier }

// Home returns the landing path for the role.
func (r Role) Home() string {
	switch r {
	case RoleAdmin:
		return AdminHome
	case RoleCashier:
		return CashierHome
	case RoleCustomer:
		return CustomerHome
	default:
		return LoginPath
	}
}

// String returns the wire form; RoleUnknown renders as "unknown".
func (r Role) String() string {
	if r == RoleUnknown {
		return "unknown"
	}
	return string(r)
}

// Identity represents the authenticated principal returned by an IdP.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (sub)
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	// RoleClaim is the raw role claim when the IdP carries one.
	RoleClaim string
	ExpiresAt time.Time // absolute expiry from IdP token
}

// Session is the server-side record we persist for an authenticated user.
// ID is an opaque session identifier (e.g., random URL-safe string).
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DisplayName returns the best available human name for the session.
func (s Session) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name != "" {
		return name
	}
	if s.Email != "" {
		return s.Email
	}
	return s.UserID
}

// Expired reports whether the session is past its expiry at now.
func (s Session) Expired(now time.Time) bool { return now.After(s.ExpiresAt) }
