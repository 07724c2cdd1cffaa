package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/httprate"
)

const (
	// HeaderUserID carries the signed-in user's id to the backend.
	HeaderUserID = "X-User-ID"
	// HeaderUserRole carries the signed-in user's role to the backend.
	HeaderUserRole = "X-User-Role"

	apiPrefix         = "/api/"
	defaultRateLimit  = 120
	defaultRateWindow = time.Minute
)

// APIProxyConfig configures the backend API proxy.
type APIProxyConfig struct {
	Backend  string        // Required: base URL of the backend service
	Sessions SessionLoader // Optional: identity headers are sent only when set
	Cookies  CookieConfig
	// RateLimit is requests per RateWindow per client IP. Negative disables limiting.
	RateLimit  int
	RateWindow time.Duration
	Logger     *slog.Logger
}

// NewAPIProxy forwards /api/{rest} to {Backend}/{rest}. Caller-supplied
// X-User-* headers are always dropped; the proxy sets them itself from a live
// session. Browser cookies are not forwarded.
func NewAPIProxy(cfg APIProxyConfig) (http.Handler, error) {
	if cfg.Backend == "" {
		return nil, errors.New("backend URL is required")
	}
	target, err := url.Parse(cfg.Backend)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", cfg.Backend)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api_proxy")
	cookies := cfg.Cookies.withDefaults()

	rp := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.Out.URL.Path = joinBackendPath(target.Path, pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			pr.SetXForwarded()

			for name := range pr.Out.Header {
				if strings.HasPrefix(http.CanonicalHeaderKey(name), "X-User-") {
					pr.Out.Header.Del(name)
				}
			}
			pr.Out.Header.Del("Cookie")

			if sess := GetSessionFromContext(pr.In.Context()); sess != nil {
				pr.Out.Header.Set(HeaderUserID, sess.UserID)
				if sess.Role.Valid() {
					pr.Out.Header.Set(HeaderUserRole, sess.Role.String())
				}
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if isContextError(err) {
				return
			}
			logger.WarnContext(r.Context(), "backend unavailable", "path", r.URL.Path, "error", err)
			WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "backend_unavailable", Err: errors.New("backend unavailable")})
		},
	}

	var h http.Handler = rp
	h = OptionalSession(cfg.Sessions, cookies)(h)

	if cfg.RateLimit >= 0 {
		limit, window := cfg.RateLimit, cfg.RateWindow
		if limit == 0 {
			limit = defaultRateLimit
		}
		if window <= 0 {
			window = defaultRateWindow
		}
		h = RateLimitByIP(limit, window)(h)
	}
	return h, nil
}

// RateLimitByIP limits requests per client IP and answers over-limit requests
// with a JSON 429.
func RateLimitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			WriteError(w, ErrorParams{Code: http.StatusTooManyRequests, ErrCode: "rate_limited", Err: errors.New("too many requests")})
		}),
	)
}

// joinBackendPath maps /api/orders/1 onto <base>/orders/1.
func joinBackendPath(base, reqPath string) string {
	rest := strings.TrimPrefix(reqPath, strings.TrimSuffix(apiPrefix, "/"))
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(rest, "/")
}
