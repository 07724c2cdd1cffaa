package bootstrap

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/coffeehouse/config"
	"github.com/target/coffeehouse/internal/adapters/authroles"
	"github.com/target/coffeehouse/internal/adapters/devauth"
	"github.com/target/coffeehouse/internal/adapters/oidc"
	"github.com/target/coffeehouse/internal/adapters/rolecookie"
	"github.com/target/coffeehouse/internal/ports"
	"github.com/target/coffeehouse/internal/service"
)

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth     config.AuthConfig
	Sessions ports.SessionStore
	Logger   *slog.Logger
}

// BuildAuthService creates an auth service based on the configured auth mode.
func BuildAuthService(cfg AuthConfig) (*service.AuthService, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("auth service requires a session store")
	}

	roleMapper := authroles.StaticRoleMapper{
		AdminGroup:   cfg.Auth.AdminGroup,
		CashierGroup: cfg.Auth.CashierGroup,
	}

	var (
		prov ports.AuthProvider
		err  error
	)
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		prov, err = buildDevAuthProvider(cfg)
	case config.AuthModeOAuth:
		prov, err = buildOAuthProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return nil, err
	}

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:      prov,
		Sessions:      cfg.Sessions,
		Roles:         roleMapper,
		MaxSessionTTL: cfg.Auth.SessionMaxTTL,
	}), nil
}

//nolint:ireturn // both providers satisfy ports.AuthProvider.
func buildDevAuthProvider(cfg AuthConfig) (ports.AuthProvider, error) {
	dev := cfg.Auth.DevAuth
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:    dev.UserID,
		Email:     dev.Email,
		FirstName: dev.FirstName,
		LastName:  dev.LastName,
		Groups:    dev.Groups,
		Role:      dev.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("create dev auth provider: %w", err)
	}
	if cfg.Logger != nil {
		cfg.Logger.Warn("dev auth enabled; every login signs in as the configured user",
			"user_id", dev.UserID, "role", dev.Role)
	}
	return prov, nil
}

//nolint:ireturn // both providers satisfy ports.AuthProvider.
func buildOAuthProvider(cfg AuthConfig) (ports.AuthProvider, error) {
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		return nil, fmt.Errorf("oauth auth mode requires OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET "+
			"(discovery_url_empty=%t client_id_empty=%t client_secret_empty=%t)",
			oauth.DiscoveryURL == "", oauth.ClientID == "", oauth.ClientSecret == "")
	}

	prov, err := oidc.NewProvider(oidc.ProviderConfig{
		ClientID:      oauth.ClientID,
		ClientSecret:  oauth.ClientSecret,
		RedirectURL:   oauth.RedirectURL,
		Scope:         oauth.Scope,
		DiscoveryURL:  oauth.DiscoveryURL,
		LogoutURL:     oauth.LogoutURL,
		RoleClaimPath: oauth.RoleClaimPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create OIDC provider: %w", err)
	}
	return prov, nil
}

// RoleConfig contains configuration for the role cookie service.
type RoleConfig struct {
	RoleCookie config.RoleCookieConfig
	Sessions   ports.SessionStore
	Resolver   ports.RoleResolver // Optional
	Logger     *slog.Logger
}

// BuildRoleCodec picks the signed codec when a signing key is configured and
// the plain role-name codec otherwise.
//
//nolint:ireturn // callers only need the codec contract.
func BuildRoleCodec(cfg config.RoleCookieConfig) (ports.RoleCodec, error) {
	if !cfg.Signed() {
		return rolecookie.PlainCodec{}, nil
	}
	codec, err := rolecookie.NewSignedCodec([]byte(cfg.SigningKey))
	if err != nil {
		return nil, fmt.Errorf("create signed role codec: %w", err)
	}
	return codec, nil
}

// BuildRoleService creates the role cookie service and returns the codec it
// encodes with, so the gatekeeper can decode the same values.
func BuildRoleService(cfg RoleConfig) (*service.RoleCookieService, ports.RoleCodec, error) {
	codec, err := BuildRoleCodec(cfg.RoleCookie)
	if err != nil {
		return nil, nil, err
	}
	svc, err := service.NewRoleCookieService(service.RoleCookieServiceOptions{
		Sessions: cfg.Sessions,
		Codec:    codec,
		Resolver: cfg.Resolver,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create role cookie service: %w", err)
	}
	return svc, codec, nil
}
