package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/target/coffeehouse/internal/domain/access"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/service"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthNonceCookie    = "oauth_nonce"
	postLoginCookie     = "post_login_redirect"
	redirectQueryParam  = "redirect"
	defaultPostLoginURL = "/"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, redirectURL string) (*service.BeginLoginResult, error)
	CompleteLogin(ctx context.Context, input service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	GetSession(ctx context.Context, sessionID string) (*domainauth.Session, error)
	Logout(ctx context.Context, sessionID string) error
}

// RoleGranter issues role cookie values for a session.
type RoleGranter interface {
	Grant(ctx context.Context, sessionID string) (service.RoleGrant, error)
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc     AuthServiceInterface
	Roles   RoleGranter
	Cookies CookieConfig
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookies() CookieConfig { return h.Cookies.withDefaults() }

// Login starts the sign-in round trip.
// GET /api/auth/login?redirect=<path>.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	target := safeRedirectPath(r.URL.Query().Get(redirectQueryParam))

	result, err := h.Svc.BeginLogin(r.Context(), target)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "login_failed", Err: err})
		return
	}

	c := h.cookies()
	c.setShortLived(w, oauthStateCookie, result.State)
	c.setShortLived(w, oauthNonceCookie, result.Nonce)
	c.setShortLived(w, postLoginCookie, target)

	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback completes sign-in, sets the session cookie and the role cookie
// together, and returns the browser to where it was headed.
// GET /api/auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code, state := q.Get("code"), q.Get("state")
	switch {
	case code == "":
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_code", Err: errors.New("authorization code is required")})
		return
	case state == "":
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_state", Err: errors.New("state parameter is required")})
		return
	}

	if stored, ok := cookieValue(r, oauthStateCookie); !ok || stored != state {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_state", Err: errors.New("invalid or missing state parameter")})
		return
	}
	nonce, ok := cookieValue(r, oauthNonceCookie)
	if !ok {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_nonce", Err: errors.New("missing nonce parameter")})
		return
	}

	result, err := h.Svc.CompleteLogin(r.Context(), service.CompleteLoginInput{Code: code, State: state, Nonce: nonce})
	if err != nil {
		h.logger().WarnContext(r.Context(), "login completion failed", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "login_completion_failed", Err: err})
		return
	}

	c := h.cookies()
	c.setSession(w, result.Session)
	c.clear(w, oauthStateCookie)
	c.clear(w, oauthNonceCookie)

	role := result.Session.Role
	if h.Roles != nil {
		grant, grantErr := h.Roles.Grant(r.Context(), result.Session.ID)
		if grantErr != nil {
			h.logger().WarnContext(r.Context(), "role cookie not issued at sign-in", "error", grantErr)
		} else {
			c.setRole(w, grant.Value)
			role = grant.Role
		}
	}

	http.Redirect(w, r, h.postLoginRedirect(w, r, role), http.StatusFound)
}

// postLoginRedirect reads and clears the stored target. Without one, staff
// land on their dashboard and everyone else on the home page.
func (h *AuthHandlers) postLoginRedirect(w http.ResponseWriter, r *http.Request, role domainauth.Role) string {
	target := defaultPostLoginURL
	if stored, ok := cookieValue(r, postLoginCookie); ok {
		target = safeRedirectPath(stored)
		h.cookies().clear(w, postLoginCookie)
	}
	if target == defaultPostLoginURL && role.IsStaff() {
		return role.Home()
	}
	return target
}

// Logout ends the session and clears the session and role cookies.
// POST /api/auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	c := h.cookies()
	if id, ok := cookieValue(r, c.SessionName); ok {
		if err := h.Svc.Logout(r.Context(), id); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	c.clear(w, c.SessionName)
	c.clear(w, c.RoleName)

	target := safeRedirectPath(r.FormValue(redirectQueryParam))
	signedOut := domainauth.LoginPath
	if target != defaultPostLoginURL {
		signedOut = access.LoginURL(target, "")
	}

	if wantsJSON(r) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "success", "redirect_to": signedOut})
		return
	}
	http.Redirect(w, r, signedOut, http.StatusSeeOther)
}

// Status returns the current authentication status.
// GET /api/auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	c := h.cookies()
	id, ok := cookieValue(r, c.SessionName)
	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	session, err := h.Svc.GetSession(r.Context(), id)
	if err != nil {
		c.clear(w, c.SessionName)
		c.clear(w, c.RoleName)
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":         session.UserID,
			"first_name": session.FirstName,
			"last_name":  session.LastName,
			"email":      session.Email,
			"role":       session.Role.String(),
		},
		"expires_at": session.ExpiresAt,
	})
}

// roleResponse is the body of the role endpoint.
type roleResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Role resolves the caller's role and writes the role cookie.
// GET /api/auth/role (POST is accepted as well).
func (h *AuthHandlers) Role(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	c := h.cookies()

	id, _ := cookieValue(r, c.SessionName)
	grant, err := h.Roles.Grant(r.Context(), id)
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		WriteJSON(w, http.StatusUnauthorized, roleResponse{
			Error:   "unauthenticated",
			Message: "no active session",
		})
		return
	case err != nil:
		h.logger().ErrorContext(r.Context(), "role cookie grant failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, roleResponse{
			Error:   "role_cookie_failed",
			Message: http.StatusText(http.StatusInternalServerError),
		})
		return
	}

	c.setRole(w, grant.Value)
	msg := "role cookie set"
	if grant.Fallback {
		msg = "role cookie set from fallback role"
	}
	WriteJSON(w, http.StatusOK, roleResponse{Success: true, Role: grant.Role.String(), Message: msg})
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return defaultPostLoginURL
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") ||
		strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return defaultPostLoginURL
	}
	return candidate
}
