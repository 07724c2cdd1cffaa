package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/coffeehouse/internal/adapters/rolecookie"
	"github.com/target/coffeehouse/internal/domain/access"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
)

const testSigningKey = "0123456789abcdef0123456789abcdef"

func gatekeeperHandler(t *testing.T, cfg GatekeeperConfig) (http.Handler, *int) {
	t.Helper()
	calls := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, ok := DecisionFromContext(r.Context())
		assert.True(t, ok, "allowed requests carry the decision")
		w.WriteHeader(http.StatusOK)
	})
	return Gatekeeper(cfg)(next), &calls
}

func navigate(h http.Handler, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(id string) *http.Cookie { return &http.Cookie{Name: DefaultSessionCookie, Value: id} }
func roleCookie(v string) *http.Cookie     { return &http.Cookie{Name: DefaultRoleCookie, Value: v} }

func TestGatekeeper_PlainRoles(t *testing.T) {
	h, _ := gatekeeperHandler(t, GatekeeperConfig{})

	tests := []struct {
		name     string
		path     string
		cookies  []*http.Cookie
		status   int
		location string
	}{
		{"anonymous storefront", "/coffee-list", nil, http.StatusOK, ""},
		{"anonymous cart", "/cart", nil, http.StatusTemporaryRedirect, "/login?redirect=%2Fcart"},
		{"anonymous payment keeps query", "/payment?order=42", nil, http.StatusTemporaryRedirect, "/login?redirect=%2Fpayment%3Forder%3D42"},
		{"anonymous dashboard", "/dashboard/admin", nil, http.StatusTemporaryRedirect, "/login?redirect=%2Fdashboard%2Fadmin"},
		{"role cookie without session", "/dashboard/admin", []*http.Cookie{roleCookie("admin")}, http.StatusTemporaryRedirect, "/login?redirect=%2Fdashboard%2Fadmin"},
		{"admin on storefront", "/", []*http.Cookie{sessionCookie("s"), roleCookie("admin")}, http.StatusTemporaryRedirect, "/dashboard/admin"},
		{"admin on cashier dashboard", "/dashboard/cashier", []*http.Cookie{sessionCookie("s"), roleCookie("admin")}, http.StatusTemporaryRedirect, "/dashboard/admin"},
		{"admin on own dashboard", "/dashboard/admin/payments", []*http.Cookie{sessionCookie("s"), roleCookie("admin")}, http.StatusOK, ""},
		{"cashier on admin dashboard", "/dashboard/admin", []*http.Cookie{sessionCookie("s"), roleCookie("cashier")}, http.StatusTemporaryRedirect, "/dashboard/cashier"},
		{"cashier on cart", "/cart", []*http.Cookie{sessionCookie("s"), roleCookie("cashier")}, http.StatusTemporaryRedirect, "/dashboard/cashier"},
		{"cashier on own dashboard", "/dashboard/cashier/payments", []*http.Cookie{sessionCookie("s"), roleCookie("cashier")}, http.StatusOK, ""},
		{"customer on dashboard root", "/dashboard", []*http.Cookie{sessionCookie("s"), roleCookie("customer")}, http.StatusTemporaryRedirect, "/"},
		{"customer on cart", "/cart", []*http.Cookie{sessionCookie("s"), roleCookie("customer")}, http.StatusOK, ""},
		{"no role cookie yet on dashboard", "/dashboard/cashier", []*http.Cookie{sessionCookie("s")}, http.StatusTemporaryRedirect, "/login?redirect=%2Fdashboard%2Fcashier"},
		{"no role cookie yet on cart", "/cart", []*http.Cookie{sessionCookie("s")}, http.StatusOK, ""},
		{"unrecognized role", "/dashboard/admin", []*http.Cookie{sessionCookie("s"), roleCookie("root")}, http.StatusTemporaryRedirect, "/login?redirect=%2Fdashboard%2Fadmin"},
		{"api is exempt", "/api/orders", nil, http.StatusOK, ""},
		{"role endpoint is exempt", "/api/auth/role", nil, http.StatusOK, ""},
		{"static is exempt", "/static/css/app.css", nil, http.StatusOK, ""},
		{"login is exempt for admins", "/login", []*http.Cookie{sessionCookie("s"), roleCookie("admin")}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := navigate(h, tt.path, tt.cookies...)
			assert.Equal(t, tt.status, rec.Code)
			if tt.location != "" {
				assert.Equal(t, tt.location, rec.Header().Get("Location"))
				assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestGatekeeper_SignedRoleCookie(t *testing.T) {
	codec, err := rolecookie.NewSignedCodec([]byte(testSigningKey))
	require.NoError(t, err)
	h, calls := gatekeeperHandler(t, GatekeeperConfig{Codec: codec})

	sess := domainauth.Session{ID: "sess-1", ExpiresAt: time.Now().Add(time.Hour)}
	token, err := codec.Encode(domainauth.RoleCashier, sess)
	require.NoError(t, err)

	rec := navigate(h, "/dashboard/cashier", sessionCookie("sess-1"), roleCookie(token))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *calls)

	// A token lifted from another session carries no role.
	rec = navigate(h, "/dashboard/cashier", sessionCookie("sess-2"), roleCookie(token))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, access.LoginURL("/dashboard/cashier", ""), rec.Header().Get("Location"))

	// Hand-edited values are not trusted on protected paths.
	rec = navigate(h, "/dashboard/admin", sessionCookie("sess-1"), roleCookie("admin"))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fadmin", rec.Header().Get("Location"))
}

func TestGatekeeper_FailureFailsOpenOnPublicPages(t *testing.T) {
	codec, err := rolecookie.NewSignedCodec([]byte(testSigningKey))
	require.NoError(t, err)
	h, calls := gatekeeperHandler(t, GatekeeperConfig{Codec: codec})

	rec := navigate(h, "/coffee-list", sessionCookie("s"), roleCookie("garbage"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, *calls)

	rec = navigate(h, "/order-history", sessionCookie("s"), roleCookie("garbage"))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?redirect=%2Forder-history", rec.Header().Get("Location"))
}

type panickingCodec struct{}

func (panickingCodec) Encode(domainauth.Role, domainauth.Session) (string, error) { return "", nil }
func (panickingCodec) Decode(string, string) (domainauth.Role, error)            { panic("boom") }

func TestGatekeeper_PanicTakesFailurePath(t *testing.T) {
	h, _ := gatekeeperHandler(t, GatekeeperConfig{Codec: panickingCodec{}})

	rec := navigate(h, "/dashboard/admin", sessionCookie("s"), roleCookie("x"))
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/login?redirect=%2Fdashboard%2Fadmin", rec.Header().Get("Location"))

	rec = navigate(h, "/", sessionCookie("s"), roleCookie("x"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGatekeeper_RedirectedSubmissionsBecomeGet(t *testing.T) {
	h, calls := gatekeeperHandler(t, GatekeeperConfig{})
	tests := []struct {
		name     string
		method   string
		path     string
		cookies  []*http.Cookie
		status   int
		location string
	}{
		{"expired session posting to cart", http.MethodPost, "/cart/add", nil, http.StatusSeeOther, "/login?redirect=%2Fcart%2Fadd"},
		{"admin posting to customer page", http.MethodPost, "/profile", []*http.Cookie{sessionCookie("s"), roleCookie("admin")}, http.StatusSeeOther, "/dashboard/admin"},
		{"customer deleting on dashboard", http.MethodDelete, "/dashboard/cashier", []*http.Cookie{sessionCookie("s"), roleCookie("customer")}, http.StatusSeeOther, "/"},
		{"head keeps method", http.MethodHead, "/cart", nil, http.StatusTemporaryRedirect, "/login?redirect=%2Fcart"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			for _, c := range tt.cookies {
				req.AddCookie(c)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
		})
	}
	assert.Zero(t, *calls)
}

func TestGatekeeper_Deterministic(t *testing.T) {
	h, _ := gatekeeperHandler(t, GatekeeperConfig{})
	first := navigate(h, "/dashboard", sessionCookie("s"), roleCookie("cashier"))
	for range 5 {
		again := navigate(h, "/dashboard", sessionCookie("s"), roleCookie("cashier"))
		assert.Equal(t, first.Code, again.Code)
		assert.Equal(t, first.Header().Get("Location"), again.Header().Get("Location"))
	}
}
