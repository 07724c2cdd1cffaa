package httpx

import (
	"net/http"
	"time"

	domainauth "github.com/target/coffeehouse/internal/domain/auth"
)

const (
	// DefaultSessionCookie is the session presence cookie.
	DefaultSessionCookie = "session_id"
	// DefaultRoleCookie is the role side-channel cookie.
	DefaultRoleCookie = "user-role"
	// DefaultRoleCookieMaxAge is how long a role cookie lives.
	DefaultRoleCookieMaxAge = 7 * 24 * time.Hour

	oauthCookieMaxAge = 600
)

// CookieConfig holds the attributes shared by every cookie the app sets.
type CookieConfig struct {
	Domain      string
	SessionName string
	RoleName    string
	RoleMaxAge  time.Duration

	// Secure marks cookies Secure. It is set in production only.
	Secure bool
}

// withDefaults fills unset names and lifetimes.
func (c CookieConfig) withDefaults() CookieConfig {
	if c.SessionName == "" {
		c.SessionName = DefaultSessionCookie
	}
	if c.RoleName == "" {
		c.RoleName = DefaultRoleCookie
	}
	if c.RoleMaxAge <= 0 {
		c.RoleMaxAge = DefaultRoleCookieMaxAge
	}
	return c
}

func (c CookieConfig) cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	}
}

// setSession writes the session cookie for the session's remaining lifetime.
func (c CookieConfig) setSession(w http.ResponseWriter, s domainauth.Session) {
	http.SetCookie(w, c.cookie(c.SessionName, s.ID, int(time.Until(s.ExpiresAt).Seconds())))
}

// setRole writes the role cookie.
func (c CookieConfig) setRole(w http.ResponseWriter, value string) {
	http.SetCookie(w, c.cookie(c.RoleName, value, int(c.RoleMaxAge.Seconds())))
}

// setShortLived writes a cookie used only during the login round trip.
func (c CookieConfig) setShortLived(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, c.cookie(name, value, oauthCookieMaxAge))
}

// clear expires a cookie, mirroring the attributes used to set it.
func (c CookieConfig) clear(w http.ResponseWriter, name string) {
	ck := c.cookie(name, "", -1)
	ck.Expires = time.Unix(0, 0).UTC()
	http.SetCookie(w, ck)
}

// cookieValue returns the named cookie's value, or "" when absent.
func cookieValue(r *http.Request, name string) (string, bool) {
	ck, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}
