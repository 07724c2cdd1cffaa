package httpx

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	coffeehouse "github.com/target/coffeehouse"
	"github.com/target/coffeehouse/internal/domain/access"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/observability/metrics"
	"github.com/target/coffeehouse/internal/ports"
	"github.com/target/coffeehouse/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth     AuthServiceInterface // Required
	Roles    RoleService          // Required: role endpoint and staff checks
	Shop     ShopService          // Required
	Accounts AccountService       // Required
	Staff    StaffOps             // Required
	Codec    ports.RoleCodec      // Optional: plain role names when nil

	Cookies CookieConfig
	Policy  access.Policy // Optional: access.DefaultPolicy when empty

	// BackendURL enables the /api proxy when set.
	BackendURL string
	RateLimit  int
	RateWindow time.Duration

	Compression *CompressionConfig // Optional: responses are not compressed when nil
	MetricsPath string             // Optional: Prometheus metrics are not served when empty

	// TemplateFS and StaticFS override the embedded frontend.
	TemplateFS fs.FS
	StaticFS   fs.FS

	IsDev  bool         // Development mode: frontend read from disk
	Logger *slog.Logger // Logger for template and HTTP errors (optional)
}

// RoleService grants role cookies and answers authoritative role checks.
type RoleService interface {
	RoleGranter
	RoleAuthority
}

var _ RoleService = (*service.RoleCookieService)(nil)

// NewRouter builds the mux and wraps it in the middleware chain:
// Recover, Logging, Metrics, Compression, Gatekeeper, CSRF.
func NewRouter(services RouterServices) (http.Handler, error) {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookies := services.Cookies.withDefaults()

	templateFS, staticFS, err := frontendFS(services)
	if err != nil {
		return nil, err
	}
	tr, err := NewTemplateRenderer(TemplateRendererConfig{TemplateFS: templateFS, Logger: logger})
	if err != nil {
		return nil, err
	}

	ui := &UIHandlers{
		T:        tr,
		Shop:     services.Shop,
		Accounts: services.Accounts,
		Staff:    services.Staff,
		IsDev:    services.IsDev,
		Logger:   logger,
	}
	auth := &AuthHandlers{Svc: services.Auth, Roles: services.Roles, Cookies: cookies, Logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	if services.MetricsPath != "" {
		mux.Handle("GET "+services.MetricsPath, metrics.Handler())
	}
	mux.Handle("GET /static/", staticHandler(staticFS))
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/static/img/favicon.svg", http.StatusMovedPermanently)
	})

	registerAuthRoutes(mux, auth, services)
	if services.BackendURL != "" {
		proxy, proxyErr := NewAPIProxy(APIProxyConfig{
			Backend:    services.BackendURL,
			Sessions:   services.Auth,
			Cookies:    cookies,
			RateLimit:  services.RateLimit,
			RateWindow: services.RateWindow,
			Logger:     logger,
		})
		if proxyErr != nil {
			return nil, proxyErr
		}
		mux.Handle("/api/", proxy)
	} else {
		mux.HandleFunc("/api/", apiNotFound)
	}
	registerUIRoutes(mux, ui, services, cookies)

	mws := []func(http.Handler) http.Handler{
		Recover(logger),
		Logging(logger),
		Metrics(),
	}
	if services.Compression != nil {
		cc := *services.Compression
		cc.Logger = logger
		mws = append(mws, Compression(cc))
	}
	mws = append(mws,
		Gatekeeper(GatekeeperConfig{Policy: services.Policy, Codec: services.Codec, Cookies: cookies, Logger: logger}),
		CSRFProtection(CSRFConfig{CookieDomain: cookies.Domain, Secure: cookies.Secure}),
	)
	return Chain(mux, mws...), nil
}

// frontendFS picks the template and static filesystems: explicit overrides,
// then disk in dev mode, then the embedded copies.
func frontendFS(services RouterServices) (fs.FS, fs.FS, error) {
	templateFS, staticFS := services.TemplateFS, services.StaticFS
	if services.IsDev {
		if templateFS == nil {
			templateFS = os.DirFS(TemplatePathFromRoot)
		}
		if staticFS == nil {
			staticFS = os.DirFS("frontend/static")
		}
	}
	var err error
	if templateFS == nil {
		if templateFS, err = fs.Sub(coffeehouse.TemplateFS, TemplatePathFromRoot); err != nil {
			return nil, nil, err
		}
	}
	if staticFS == nil {
		if staticFS, err = fs.Sub(coffeehouse.StaticFS, "frontend/static"); err != nil {
			return nil, nil, err
		}
	}
	return templateFS, staticFS, nil
}

func staticHandler(staticFS fs.FS) http.Handler {
	files := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, services RouterServices) {
	limit, window := services.RateLimit, services.RateWindow
	if limit <= 0 {
		limit = defaultRateLimit
	}
	if window <= 0 {
		window = defaultRateWindow
	}
	role := RateLimitByIP(limit, window)(http.HandlerFunc(h.Role))

	mux.HandleFunc("GET /api/auth/login", h.Login)
	mux.HandleFunc("GET /api/auth/callback", h.Callback)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/status", h.Status)
	mux.Handle("GET /api/auth/role", role)
	mux.Handle("POST /api/auth/role", role)
	mux.HandleFunc("/api/auth/", apiNotFound)
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: errors.New("no such endpoint: " + r.URL.Path)})
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, services RouterServices, cookies CookieConfig) {
	optional := OptionalSession(services.Auth, cookies)
	session := RequireSession(services.Auth, cookies)
	signedIn := func(fn http.HandlerFunc) http.Handler { return session(fn) }
	staff := func(fn http.HandlerFunc, roles ...domainauth.Role) http.Handler {
		return session(RequireRole(services.Roles, roles...)(fn))
	}
	admin := func(fn http.HandlerFunc) http.Handler { return staff(fn, domainauth.RoleAdmin) }
	cashier := func(fn http.HandlerFunc) http.Handler { return staff(fn, domainauth.RoleCashier) }

	// Storefront
	mux.Handle("GET /{$}", optional(http.HandlerFunc(h.Home)))
	mux.Handle("GET /coffee-list", optional(http.HandlerFunc(h.CoffeeList)))
	mux.Handle("GET /coffee/{id}", optional(http.HandlerFunc(h.CoffeeDetail)))
	mux.Handle("GET /login", optional(http.HandlerFunc(h.Login)))
	mux.Handle("GET /register", optional(http.HandlerFunc(h.Register)))

	// Customer
	mux.Handle("GET /cart", signedIn(h.Cart))
	mux.Handle("POST /cart/add", signedIn(h.CartAdd))
	mux.Handle("POST /cart/update", signedIn(h.CartUpdate))
	mux.Handle("POST /cart/remove", signedIn(h.CartRemove))
	mux.Handle("POST /cart/clear", signedIn(h.CartClear))
	mux.Handle("GET /order", signedIn(h.Checkout))
	mux.Handle("POST /order", signedIn(h.PlaceOrder))
	mux.Handle("GET /payment", signedIn(h.Payment))
	mux.Handle("POST /payment", signedIn(h.Pay))
	mux.Handle("GET /payment-complete", signedIn(h.PaymentComplete))
	mux.Handle("GET /order-history", signedIn(h.OrderHistory))
	mux.Handle("GET /profile", signedIn(h.Profile))
	mux.Handle("POST /profile", signedIn(h.SaveProfile))

	// Staff
	mux.Handle("GET /dashboard", signedIn(h.DashboardRoot))
	mux.Handle("GET /dashboard/admin", admin(h.AdminOverview))
	mux.Handle("GET /dashboard/admin/payments", admin(h.AdminPayments))
	mux.Handle("POST /dashboard/admin/payments/refund", admin(h.RefundPayment))
	mux.Handle("GET /dashboard/admin/products", admin(h.AdminProducts))
	mux.Handle("POST /dashboard/admin/products/availability", admin(h.SetAvailability))
	mux.Handle("GET /dashboard/cashier", cashier(h.CashierQueue))
	mux.Handle("POST /dashboard/cashier/orders/status", cashier(h.AdvanceOrder))
	mux.Handle("GET /dashboard/cashier/payments", cashier(h.CashierPayments))
	mux.Handle("POST /dashboard/cashier/payments/confirm", cashier(h.ConfirmCash))

	mux.Handle("/", optional(http.HandlerFunc(h.NotFound)))
}
