package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/observability/metrics"
	"github.com/target/coffeehouse/internal/ports"
)

// ErrUnauthenticated is returned by RoleCookieService.Grant when there is no live session.
var ErrUnauthenticated = errors.New("no active session")

// RoleCookieServiceOptions groups dependencies for RoleCookieService.
type RoleCookieServiceOptions struct {
	Sessions ports.SessionStore // Required
	Codec    ports.RoleCodec    // Required
	Resolver ports.RoleResolver // Optional: authoritative role source
	Logger   *slog.Logger       // Optional
}

// RoleCookieService decides which role a session carries in the role cookie
// and encodes the cookie value.
type RoleCookieService struct {
	sessions ports.SessionStore
	codec    ports.RoleCodec
	resolver ports.RoleResolver
	logger   *slog.Logger
	now      func() time.Time
}

// RoleGrant is the outcome of a successful Grant.
type RoleGrant struct {
	Role  domainauth.Role
	Value string
	// Fallback is true when a configured resolver could not supply the role,
	// or when neither resolver nor session knew one.
	Fallback bool
	Session  domainauth.Session
}

// NewRoleCookieService constructs a RoleCookieService.
func NewRoleCookieService(opts RoleCookieServiceOptions) (*RoleCookieService, error) {
	if opts.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if opts.Codec == nil {
		return nil, errors.New("role codec is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RoleCookieService{
		sessions: opts.Sessions,
		codec:    opts.Codec,
		resolver: opts.Resolver,
		logger:   logger.With("component", "role_cookie"),
		now:      time.Now,
	}, nil
}

// Grant resolves the role for the session and encodes the cookie value.
// When the resolver fails or knows no role, the session's mapped role is used,
// and customer when that is unknown too. Calling Grant again for the same
// session yields the same value unless the role changed upstream.
func (s *RoleCookieService) Grant(ctx context.Context, sessionID string) (RoleGrant, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		metrics.RoleCookieGrants.WithLabelValues(domainauth.RoleUnknown.String(), metrics.OutcomeRejected).Inc()
		return RoleGrant{}, err
	}

	role, fallback := s.resolve(ctx, sess)
	value, err := s.codec.Encode(role, sess)
	if err != nil {
		metrics.RoleCookieGrants.WithLabelValues(role.String(), metrics.OutcomeError).Inc()
		return RoleGrant{}, fmt.Errorf("encode role cookie: %w", err)
	}

	outcome := metrics.OutcomeSuccess
	if fallback {
		outcome = metrics.OutcomeFallback
	}
	metrics.RoleCookieGrants.WithLabelValues(role.String(), outcome).Inc()

	return RoleGrant{Role: role, Value: value, Fallback: fallback, Session: sess}, nil
}

// Role returns the authoritative role for sess using the same resolution as Grant.
func (s *RoleCookieService) Role(ctx context.Context, sess domainauth.Session) domainauth.Role {
	role, _ := s.resolve(ctx, sess)
	return role
}

func (s *RoleCookieService) session(ctx context.Context, sessionID string) (domainauth.Session, error) {
	if sessionID == "" {
		return domainauth.Session{}, ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logger.DebugContext(ctx, "role cookie requested without a stored session", "error", err)
		return domainauth.Session{}, ErrUnauthenticated
	}
	if sess.UserID == "" || sess.Expired(s.now()) {
		return domainauth.Session{}, ErrUnauthenticated
	}
	return sess, nil
}

func (s *RoleCookieService) resolve(ctx context.Context, sess domainauth.Session) (domainauth.Role, bool) {
	if s.resolver != nil {
		role, err := s.resolver.ResolveRole(ctx, sess.UserID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "role resolution failed, using fallback",
				"user_id", sess.UserID, "error", err)
		case role.Valid():
			return role, false
		default:
			s.logger.DebugContext(ctx, "resolver has no role on record", "user_id", sess.UserID)
		}
	}
	if sess.Role.Valid() {
		return sess.Role, s.resolver != nil
	}
	return domainauth.RoleCustomer, true
}
