package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/target/coffeehouse/internal/domain/access"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/observability/metrics"
	"github.com/target/coffeehouse/internal/ports"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			if strings.HasPrefix(r.URL.Path, "/static/") {
				return
			}
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

// Metrics records request latency by method and status.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			metrics.ObserveHTTP(r.Method, ww.status, time.Since(start))
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *respWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler { //nolint:errorlint // sentinel compared by identity
						panic(err)
					}
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Chain applies middlewares so that the first one listed runs outermost.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for _, mw := range slices.Backward(mws) {
		h = mw(h)
	}
	return h
}

// SessionLoader reads the server-side session behind a session cookie.
type SessionLoader interface {
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
}

// RoleAuthority reports the authoritative role for a session.
type RoleAuthority interface {
	Role(ctx context.Context, sess domainauth.Session) domainauth.Role
}

// RequireSession loads the server-side session for pages that act on the
// user's own data. The gatekeeper only checks that a session cookie exists;
// when the store no longer knows it, both cookies are cleared and the browser
// is sent to the login page with its original target.
func RequireSession(loader SessionLoader, cookies CookieConfig) func(http.Handler) http.Handler {
	cookies = cookies.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := loadSession(r, loader, cookies)
			if sess == nil {
				cookies.clear(w, cookies.SessionName)
				cookies.clear(w, cookies.RoleName)
				redirectToLogin(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
		})
	}
}

// OptionalSession attaches the session when there is one, for pages that
// render differently for signed-in visitors.
func OptionalSession(loader SessionLoader, cookies CookieConfig) func(http.Handler) http.Handler {
	cookies = cookies.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sess := loadSession(r, loader, cookies); sess != nil {
				r = r.WithContext(withSession(r.Context(), sess))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole checks the session's authoritative role before a staff page
// acts. The role cookie is a routing hint; this is the check that guards
// the operations behind it. A mismatch goes to the caller's own home page
// rather than an error page.
func RequireRole(authority RoleAuthority, allowed ...domainauth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSessionFromContext(r.Context())
			if sess == nil {
				redirectToLogin(w, r)
				return
			}
			role := sess.Role
			if authority != nil {
				role = authority.Role(r.Context(), *sess)
			}
			if !role.Valid() {
				redirectToLogin(w, r)
				return
			}
			if !slices.Contains(allowed, role) {
				http.Redirect(w, r, role.Home(), http.StatusSeeOther)
				return
			}
			ctx := ports.WithActor(r.Context(), ports.Actor{UserID: sess.UserID, Role: role})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// withSession attaches the session and makes its user the backend actor.
func withSession(ctx context.Context, sess *domainauth.Session) context.Context {
	ctx = SetSessionInContext(ctx, sess)
	return ports.WithActor(ctx, ports.Actor{UserID: sess.UserID, Role: sess.Role})
}

func loadSession(r *http.Request, loader SessionLoader, cookies CookieConfig) *domainauth.Session {
	if loader == nil {
		return nil
	}
	id, ok := cookieValue(r, cookies.SessionName)
	if !ok || id == "" {
		return nil
	}
	sess, err := loader.GetSession(r.Context(), id)
	if err != nil {
		return nil
	}
	return sess
}

// redirectToLogin sends the browser to /login?redirect=<target>. Safe
// methods keep their own URL as the target; form posts go back to the page
// path, since the body cannot be replayed.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, access.LoginURL(r.URL.Path, loginQuery(r)), http.StatusSeeOther)
}

func loginQuery(r *http.Request) string {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return r.URL.RawQuery
	}
	return ""
}

// IsAPIRequest reports whether r targets the JSON namespace.
func IsAPIRequest(r *http.Request) bool {
	return r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
}

// isContextError reports whether err came from the request going away.
func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
