package httpx

import (
	"context"
	"net/http"
	"net/url"

	"github.com/target/coffeehouse/internal/domain/model"
)

type paymentActionForm struct {
	PaymentID string `form:"payment_id" validate:"required,identifier"`
}

func parsePaymentAction(form url.Values) paymentActionForm {
	return paymentActionForm{PaymentID: formString(form, "payment_id")}
}

type availabilityForm struct {
	ProductID string `form:"product_id" validate:"required,identifier"`
	Available bool   `form:"available"`
}

func parseAvailability(form url.Values) availabilityForm {
	return availabilityForm{ProductID: formString(form, "product_id"), Available: formBool(form, "available")}
}

type orderStatusForm struct {
	OrderID string `form:"order_id" validate:"required,identifier"`
	Status  string `form:"status"   validate:"required,oneof=pending preparing ready completed cancelled"`
}

func parseOrderStatus(form url.Values) orderStatusForm {
	return orderStatusForm{OrderID: formString(form, "order_id"), Status: formString(form, "status")}
}

var (
	adminOverviewMeta   = PageMeta{Title: "Admin", PageTitle: "Overview", CurrentPage: PageAdminOverview}
	adminPaymentsMeta   = PageMeta{Title: "Payments", PageTitle: "Payment management", CurrentPage: PageAdminPayments}
	adminProductsMeta   = PageMeta{Title: "Products", PageTitle: "Product availability", CurrentPage: PageAdminProducts}
	cashierQueueMeta    = PageMeta{Title: "Cashier", PageTitle: "Order queue", CurrentPage: PageCashierQueue}
	cashierPaymentsMeta = PageMeta{Title: "Cash payments", PageTitle: "Payment confirmation", CurrentPage: PageCashierPayments}
)

// DashboardRoot sends staff to their own dashboard. The gatekeeper already
// redirects /dashboard by role cookie; this covers a session whose
// authoritative role disagrees with the cookie.
func (h *UIHandlers) DashboardRoot(w http.ResponseWriter, r *http.Request) {
	target := "/"
	if sess := GetSessionFromContext(r.Context()); sess != nil {
		target = sess.Role.Home()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// AdminOverview shows open orders, payment totals and unavailable products.
func (h *UIHandlers) AdminOverview(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: adminOverviewMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			ov, err := h.Staff.AdminOverview(ctx)
			if err != nil {
				return err
			}
			data["Overview"] = ov
			return nil
		},
	})
}

// AdminPayments lists payments, optionally filtered by ?status=.
func (h *UIHandlers) AdminPayments(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, h.adminPaymentsSpec(r))
}

func (h *UIHandlers) adminPaymentsSpec(r *http.Request) PageSpec {
	status := model.PaymentStatus(r.URL.Query().Get("status"))
	return PageSpec{
		Meta: adminPaymentsMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			payments, err := h.Staff.Payments(ctx, status)
			if err != nil {
				return err
			}
			data["Payments"] = payments
			data["Status"] = string(status)
			return nil
		},
	}
}

// RefundPayment refunds a paid payment. POST /dashboard/admin/payments/refund.
func (h *UIHandlers) RefundPayment(w http.ResponseWriter, r *http.Request) {
	form, err := parseValidForm(r, parsePaymentAction)
	if err == nil {
		_, err = h.Staff.Refund(r.Context(), form.PaymentID)
	}
	h.finishStaffAction(w, r, err, "/dashboard/admin/payments", "refunded", h.adminPaymentsSpec(r))
}

// AdminProducts lists products with availability toggles.
func (h *UIHandlers) AdminProducts(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, h.adminProductsSpec())
}

func (h *UIHandlers) adminProductsSpec() PageSpec {
	return PageSpec{
		Meta: adminProductsMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			products, err := h.Staff.Products(ctx)
			if err != nil {
				return err
			}
			data["Products"] = products
			return nil
		},
	}
}

// SetAvailability toggles a product. POST /dashboard/admin/products/availability.
func (h *UIHandlers) SetAvailability(w http.ResponseWriter, r *http.Request) {
	form, err := parseValidForm(r, parseAvailability)
	if err == nil {
		_, err = h.Staff.SetAvailability(r.Context(), form.ProductID, form.Available)
	}
	h.finishStaffAction(w, r, err, "/dashboard/admin/products", "toggled", h.adminProductsSpec())
}

// CashierQueue lists open orders with their next legal statuses.
func (h *UIHandlers) CashierQueue(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, h.cashierQueueSpec())
}

func (h *UIHandlers) cashierQueueSpec() PageSpec {
	return PageSpec{
		Meta: cashierQueueMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			orders, err := h.Staff.CashierQueue(ctx)
			if err != nil {
				return err
			}
			data["Orders"] = orders
			return nil
		},
	}
}

// AdvanceOrder moves an order along its lifecycle. POST /dashboard/cashier/orders/status.
func (h *UIHandlers) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	form, err := parseValidForm(r, parseOrderStatus)
	if err == nil {
		_, err = h.Staff.AdvanceOrder(r.Context(), form.OrderID, model.OrderStatus(form.Status))
	}
	h.finishStaffAction(w, r, err, "/dashboard/cashier", "advanced", h.cashierQueueSpec())
}

// CashierPayments lists pending cash payments.
func (h *UIHandlers) CashierPayments(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, h.cashierPaymentsSpec())
}

func (h *UIHandlers) cashierPaymentsSpec() PageSpec {
	return PageSpec{
		Meta: cashierPaymentsMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			payments, err := h.Staff.PendingCashPayments(ctx)
			if err != nil {
				return err
			}
			data["Payments"] = payments
			return nil
		},
	}
}

// ConfirmCash marks a cash payment as paid. POST /dashboard/cashier/payments/confirm.
func (h *UIHandlers) ConfirmCash(w http.ResponseWriter, r *http.Request) {
	form, err := parseValidForm(r, parsePaymentAction)
	if err == nil {
		_, err = h.Staff.ConfirmCash(r.Context(), form.PaymentID)
	}
	h.finishStaffAction(w, r, err, "/dashboard/cashier/payments", "confirmed", h.cashierPaymentsSpec())
}

// finishStaffAction redirects after a successful action, or re-renders the
// list page with the rejection.
func (h *UIHandlers) finishStaffAction(w http.ResponseWriter, r *http.Request, err error, path, notice string, ps PageSpec) {
	if err == nil {
		seeOther(w, r, path, notice)
		return
	}
	if failsPage(err) {
		h.renderFailure(w, r, ps.Meta, err)
		return
	}
	extra := map[string]any{}
	if fetchErr := ps.Fetch(r.Context(), extra); fetchErr != nil {
		h.renderFailure(w, r, ps.Meta, fetchErr)
		return
	}
	h.renderForm(w, r, ps.Meta, err, extra)
}
