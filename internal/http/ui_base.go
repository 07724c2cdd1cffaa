package httpx

import (
	"context"
	"html"
	"log/slog"
	"net/http"

	"github.com/target/coffeehouse/internal/domain/cart"
	"github.com/target/coffeehouse/internal/domain/model"
	apperrors "github.com/target/coffeehouse/internal/errors"
	"github.com/target/coffeehouse/internal/http/ui/viewmodel"
	"github.com/target/coffeehouse/internal/service"
	"github.com/target/coffeehouse/internal/validation"
)

const errMsgFixBelow = "Please fix the errors below."

// ShopService is the storefront and cart surface the customer pages use.
type ShopService interface {
	Products(ctx context.Context) ([]model.Product, error)
	Product(ctx context.Context, id string) (model.Product, error)
	Get(ctx context.Context, ownerID string) (cart.Cart, error)
	Dispatch(ctx context.Context, ownerID string, action cart.Action) (cart.Cart, error)
	Checkout(ctx context.Context, in service.CheckoutInput) (service.CheckoutResult, error)
}

// AccountService covers a customer's own orders, payments and profile.
type AccountService interface {
	OrderHistory(ctx context.Context, userID string, limit int) ([]model.Order, error)
	Order(ctx context.Context, userID, orderID string) (model.Order, error)
	Payment(ctx context.Context, userID, paymentID string) (model.Payment, error)
	PaymentForOrder(ctx context.Context, userID, orderID string) (model.Payment, error)
	Pay(ctx context.Context, userID, paymentID string) (model.Payment, error)
	Profile(ctx context.Context, userID string) (model.User, error)
	UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (model.User, error)
}

// StaffOps covers the admin and cashier dashboards.
type StaffOps interface {
	AdminOverview(ctx context.Context) (service.AdminOverview, error)
	Payments(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error)
	Refund(ctx context.Context, paymentID string) (model.Payment, error)
	PendingCashPayments(ctx context.Context) ([]model.Payment, error)
	ConfirmCash(ctx context.Context, paymentID string) (model.Payment, error)
	Products(ctx context.Context) ([]model.Product, error)
	SetAvailability(ctx context.Context, productID string, available bool) (model.Product, error)
	CashierQueue(ctx context.Context) ([]model.Order, error)
	AdvanceOrder(ctx context.Context, orderID string, next model.OrderStatus) (model.Order, error)
}

// Compile-time interface assertions to ensure concrete services satisfy their UI interfaces.
var (
	_ ShopService    = (*service.CartService)(nil)
	_ AccountService = (*service.CustomerService)(nil)
	_ StaffOps       = (*service.StaffService)(nil)
)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T        *TemplateRenderer
	Shop     ShopService
	Accounts AccountService
	Staff    StaffOps
	IsDev    bool // Development mode flag for enhanced error reporting
	Logger   *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

//nolint:gochecknoglobals // static read-only lookup
var notices = map[string]string{
	"added":     "Added to your cart.",
	"updated":   "Cart updated.",
	"removed":   "Item removed.",
	"cleared":   "Cart cleared.",
	"saved":     "Profile saved.",
	"refunded":  "Payment refunded.",
	"confirmed": "Cash payment confirmed.",
	"advanced":  "Order status updated.",
	"toggled":   "Product availability updated.",
}

// buildLayout constructs shared layout metadata from the request/session context.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
		Notice:      notices[r.URL.Query().Get("notice")],
	}
	if layout.PageTitle == "" {
		layout.PageTitle = meta.Title
	}

	if session := GetSessionFromContext(r.Context()); session != nil {
		layout.IsAuthenticated = true
		layout.User = &viewmodel.User{
			Name:  session.DisplayName(),
			Email: session.Email,
			Role:  session.Role.String(),
		}
		layout.IsAdmin = session.Role.String() == "admin"
		layout.IsCashier = session.Role.String() == "cashier"
	}
	return layout
}

// basePageData constructs the common page data map with user context.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	layout := buildLayout(r, meta)
	data := map[string]any{
		"Title":           layout.Title,
		"PageTitle":       layout.PageTitle,
		"CurrentPage":     layout.CurrentPage,
		"CSRFToken":       layout.CSRFToken,
		"IsAuthenticated": layout.IsAuthenticated,
		"IsAdmin":         layout.IsAdmin,
		"IsCashier":       layout.IsCashier,
		"Notice":          layout.Notice,
		"Errors":          map[string]string{},
	}
	if layout.User != nil {
		data["User"] = layout.User
	}
	return data
}

// PageSpec defines metadata and an optional fetch for page-specific data.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page builds base data, optionally fetches content data, and renders.
// A failed fetch is routed through renderFailure.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, ps PageSpec) {
	data := basePageData(r, ps.Meta)
	if ps.Fetch != nil {
		if err := ps.Fetch(r.Context(), data); err != nil {
			h.renderFailure(w, r, ps.Meta, err)
			return
		}
	}
	h.render(w, r, http.StatusOK, data)
}

func (h *UIHandlers) render(w http.ResponseWriter, r *http.Request, status int, data map[string]any) {
	if err := h.T.RenderFull(w, status, data); err != nil {
		h.logAndRenderTemplateError(w, r, err)
	}
}

// renderForm re-renders a page with the error of a rejected submit.
// Validation errors keep the user on the form with per-field messages.
func (h *UIHandlers) renderForm(w http.ResponseWriter, r *http.Request, meta PageMeta, err error, extra map[string]any) {
	b := NewTemplateData(r, meta)
	fields := map[string]string{}
	for _, fe := range validation.Fields(err) {
		fields[fe.Field] = fe.Message
	}
	if f := apperrors.GetField(err); f != "" && fields[f] == "" {
		fields[f] = err.Error()
	}
	b.WithFieldErrors(fields)
	if len(fields) > 0 {
		b.WithError(errMsgFixBelow)
	} else {
		b.WithError(userMessage(err))
	}
	for k, v := range extra {
		b.With(k, v)
	}
	status := http.StatusUnprocessableEntity
	if apperrors.IsConflict(err) {
		status = http.StatusConflict
	}
	h.render(w, r, status, b.Build())
}

// renderFailure turns a service error into a navigation outcome. A lost
// session goes back to login and a forbidden backend answer goes to the
// user's own home; neither renders a 403 page.
func (h *UIHandlers) renderFailure(w http.ResponseWriter, r *http.Request, meta PageMeta, err error) {
	switch {
	case isContextError(err):
		return
	case apperrors.IsUnauthenticated(err):
		redirectToLogin(w, r)
		return
	case apperrors.GetCode(err) == apperrors.ErrCodeForbidden:
		home := "/"
		if sess := GetSessionFromContext(r.Context()); sess != nil {
			home = sess.Role.Home()
		}
		http.Redirect(w, r, home, http.StatusSeeOther)
		return
	}

	status := apperrors.HTTPStatus(err)
	if status < http.StatusInternalServerError {
		h.logger().InfoContext(r.Context(), "page request rejected", "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger().ErrorContext(r.Context(), "page data fetch failed", "path", r.URL.Path, "error", err)
	}

	data := NewTemplateData(r, meta).
		With("StatusCode", status).
		With("StatusText", http.StatusText(status)).
		WithError(userMessage(err)).
		Build()
	if renderErr := h.T.RenderError(w, status, data); renderErr != nil {
		h.logAndRenderTemplateError(w, r, renderErr)
	}
}

// NotFound renders the not found page.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderFailure(w, r, PageMeta{Title: "Not Found"}, apperrors.NotFoundf("page not found"))
}

// userMessage hides internal causes from the page.
func userMessage(err error) string {
	switch status := apperrors.HTTPStatus(err); {
	case status == http.StatusServiceUnavailable, status == http.StatusGatewayTimeout:
		return "The coffee bar is briefly unavailable. Please try again in a moment."
	case status >= http.StatusInternalServerError:
		return "An unexpected error occurred. Please try again."
	default:
		return err.Error()
	}
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().Error("template rendering failed", "error", err, "path", r.URL.Path, "method", r.Method)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<h2>Template Rendering Error</h2><pre>` + html.EscapeString(err.Error()) + `</pre>`))
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// seeOther redirects a completed form post, carrying a notice code.
func seeOther(w http.ResponseWriter, r *http.Request, path, notice string) {
	if notice != "" {
		path += "?notice=" + notice
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// failsPage reports errors that replace the page instead of annotating the form.
func failsPage(err error) bool {
	status := apperrors.HTTPStatus(err)
	return status >= http.StatusInternalServerError || status == http.StatusUnauthorized || status == http.StatusForbidden
}
