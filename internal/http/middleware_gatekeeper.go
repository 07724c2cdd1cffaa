package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/coffeehouse/internal/domain/access"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/observability/metrics"
	"github.com/target/coffeehouse/internal/ports"
)

// GatekeeperConfig configures the Gatekeeper middleware.
type GatekeeperConfig struct {
	Policy  access.Policy
	Codec   ports.RoleCodec // Optional: bare role names are accepted when nil
	Cookies CookieConfig
	Logger  *slog.Logger
}

type gatekeeper struct {
	policy  access.Policy
	codec   ports.RoleCodec
	cookies CookieConfig
	logger  *slog.Logger
}

// Gatekeeper authorizes page navigations from the session and role cookies alone.
// It never reads the session store. Denied requests are redirected with 307,
// either to the login page (carrying the original target) or to the role's home.
func Gatekeeper(cfg GatekeeperConfig) func(http.Handler) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	g := &gatekeeper{
		policy:  cfg.Policy,
		codec:   cfg.Codec,
		cookies: cfg.Cookies.withDefaults(),
		logger:  logger.With("component", "gatekeeper"),
	}
	if len(g.policy.Exempt.Prefixes)+len(g.policy.Exempt.Exact)+len(g.policy.Exempt.Extensions) == 0 {
		g.policy = access.DefaultPolicy()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := g.evaluate(r)
			metrics.GatekeeperDecisions.WithLabelValues(d.State.String(), d.Kind.String()).Inc()

			if d.Kind == access.Allow {
				next.ServeHTTP(w, r.WithContext(setDecisionInContext(r.Context(), d)))
				return
			}

			g.logger.DebugContext(r.Context(), "navigation redirected",
				"path", r.URL.Path,
				"state", d.State.String(),
				"class", d.Class.String(),
				"decision", d.Kind.String(),
				"location", d.Location,
			)
			w.Header().Set("Cache-Control", "no-store")
			http.Redirect(w, r, d.Location, redirectStatus(r.Method))
		})
	}
}

// redirectStatus keeps navigations on 307 and turns redirected submissions
// into a GET of the target with 303.
func redirectStatus(method string) int {
	if method == http.MethodGet || method == http.MethodHead {
		return http.StatusTemporaryRedirect
	}
	return http.StatusSeeOther
}

// evaluate builds the access request from cookies and asks the policy.
// Anything that goes wrong here, including a panic, takes the failure path.
func (g *gatekeeper) evaluate(r *http.Request) (d access.Decision) {
	req := access.Request{Path: r.URL.Path, RawQuery: r.URL.RawQuery}
	defer func() {
		if rec := recover(); rec != nil {
			g.logger.WarnContext(r.Context(), "gatekeeper evaluation panicked",
				"path", r.URL.Path, "panic", rec)
			d = g.policy.EvaluateFailure(req)
		}
	}()

	if g.policy.Classify(req.Path) == access.ClassExempt {
		return g.policy.Evaluate(req)
	}

	sessionID, _ := cookieValue(r, g.cookies.SessionName)
	req.HasSession = sessionID != ""

	raw, ok := cookieValue(r, g.cookies.RoleName)
	req.RoleCookie = ok && raw != ""
	if req.RoleCookie {
		role, err := g.decode(raw, sessionID)
		if err != nil {
			g.logger.WarnContext(r.Context(), "role cookie rejected",
				"path", r.URL.Path, "error", err)
			return g.policy.EvaluateFailure(req)
		}
		req.Role = role
	}
	return g.policy.Evaluate(req)
}

func (g *gatekeeper) decode(raw, sessionID string) (domainauth.Role, error) {
	if g.codec == nil {
		return domainauth.ParseRole(raw), nil
	}
	return g.codec.Decode(raw, sessionID)
}
