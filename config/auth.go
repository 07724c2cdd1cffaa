package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock)", v)
	}
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"coffeehouse"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"coffeehouse"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/api/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
	// RoleClaimPath is a JMESPath expression locating a role claim in the ID token.
	RoleClaimPath string `env:"ROLE_CLAIM_PATH"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID    string   `env:"USER_ID"    envDefault:"dev-user"`
	Email     string   `env:"EMAIL"      envDefault:"dev@example.com"`
	FirstName string   `env:"FIRST_NAME" envDefault:"Dev"`
	LastName  string   `env:"LAST_NAME"  envDefault:"User"`
	Groups    []string `env:"GROUPS"     envDefault:"customers"       envSeparator:";"`
	// Role overrides group mapping when set (admin, cashier or customer).
	Role string `env:"ROLE"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup is the IdP group whose members are admins.
	AdminGroup string `env:"ADMIN_GROUP" envDefault:"coffeehouse-admins"`

	// CashierGroup is the IdP group whose members are cashiers.
	CashierGroup string `env:"CASHIER_GROUP" envDefault:"coffeehouse-cashiers"`

	// SessionMaxTTL caps session lifetime regardless of token expiry. Zero disables the cap.
	SessionMaxTTL time.Duration `env:"SESSION_MAX_TTL" envDefault:"12h"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	a.AdminGroup = strings.TrimSpace(a.AdminGroup)
	a.CashierGroup = strings.TrimSpace(a.CashierGroup)
	a.OAuth.RoleClaimPath = strings.TrimSpace(a.OAuth.RoleClaimPath)
	if a.SessionMaxTTL < 0 {
		a.SessionMaxTTL = 0
	}
}

// RoleCookieConfig controls the role side-channel cookie.
type RoleCookieConfig struct {
	Name   string        `env:"ROLE_COOKIE_NAME"    envDefault:"user-role"`
	MaxAge time.Duration `env:"ROLE_COOKIE_MAX_AGE" envDefault:"168h"`
	// SigningKey switches the cookie to a signed, session-bound token when set.
	SigningKey string `env:"ROLE_COOKIE_SIGNING_KEY"`
}

// Sanitize applies guardrails to role cookie configuration values.
func (r *RoleCookieConfig) Sanitize() {
	if r.Name = strings.TrimSpace(r.Name); r.Name == "" {
		r.Name = "user-role"
	}
	if r.MaxAge <= 0 {
		r.MaxAge = 7 * 24 * time.Hour
	}
}

// Signed reports whether a signing key is configured.
func (r *RoleCookieConfig) Signed() bool { return r.SigningKey != "" }
