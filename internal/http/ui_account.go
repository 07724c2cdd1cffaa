package httpx

import (
	"context"
	"net/http"
	"net/url"

	"github.com/target/coffeehouse/internal/domain/model"
	apperrors "github.com/target/coffeehouse/internal/errors"
	"github.com/target/coffeehouse/internal/service"
)

type payForm struct {
	OrderID   string `form:"order_id"   validate:"required,identifier"`
	PaymentID string `form:"payment_id" validate:"required,identifier"`
}

func parsePay(form url.Values) payForm {
	return payForm{OrderID: formString(form, "order_id"), PaymentID: formString(form, "payment_id")}
}

func parseProfile(form url.Values) model.ProfileUpdate {
	return model.ProfileUpdate{
		FirstName: formString(form, "first_name"),
		LastName:  formString(form, "last_name"),
		Phone:     formString(form, "phone"),
	}
}

var paymentMeta = PageMeta{Title: "Payment", CurrentPage: PagePayment}

// orderWithPayment loads the order named by ?order= and its payment into data.
func (h *UIHandlers) orderWithPayment(r *http.Request) func(context.Context, map[string]any) error {
	sess := GetSessionFromContext(r.Context())
	orderID := r.URL.Query().Get("order")
	return func(ctx context.Context, data map[string]any) error {
		if orderID == "" {
			return apperrors.NotFoundf("no order selected")
		}
		order, err := h.Accounts.Order(ctx, sess.UserID, orderID)
		if err != nil {
			return err
		}
		payment, err := h.Accounts.PaymentForOrder(ctx, sess.UserID, orderID)
		if err != nil {
			return err
		}
		data["Order"] = order
		data["Payment"] = payment
		return nil
	}
}

// Payment shows the amount due for an order. GET /payment?order=<id>.
func (h *UIHandlers) Payment(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{Meta: paymentMeta, Fetch: h.orderWithPayment(r)})
}

// Pay settles a pending card payment. POST /payment.
func (h *UIHandlers) Pay(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	form, err := parseValidForm(r, parsePay)
	if err == nil {
		_, err = h.Accounts.Pay(r.Context(), sess.UserID, form.PaymentID)
	}
	if err != nil {
		if failsPage(err) {
			h.renderFailure(w, r, paymentMeta, err)
			return
		}
		extra := map[string]any{}
		if order, oErr := h.Accounts.Order(r.Context(), sess.UserID, form.OrderID); oErr == nil {
			extra["Order"] = order
		}
		if p, pErr := h.Accounts.Payment(r.Context(), sess.UserID, form.PaymentID); pErr == nil {
			extra["Payment"] = p
		}
		h.renderForm(w, r, paymentMeta, err, extra)
		return
	}
	http.Redirect(w, r, "/payment-complete?order="+url.QueryEscape(form.OrderID), http.StatusSeeOther)
}

// PaymentComplete confirms the order. GET /payment-complete?order=<id>.
func (h *UIHandlers) PaymentComplete(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta:  PageMeta{Title: "Thank you", PageTitle: "Order placed", CurrentPage: PagePaymentComplete},
		Fetch: h.orderWithPayment(r),
	})
}

// OrderHistory lists the customer's orders, newest first.
func (h *UIHandlers) OrderHistory(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Order history", CurrentPage: PageOrderHistory},
		Fetch: func(ctx context.Context, data map[string]any) error {
			orders, err := h.Accounts.OrderHistory(ctx, sess.UserID, service.DefaultHistoryLimit)
			if err != nil {
				return err
			}
			data["Orders"] = orders
			return nil
		},
	})
}

var profileMeta = PageMeta{Title: "Profile", CurrentPage: PageProfile}

// Profile shows the editable profile form.
func (h *UIHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	h.Page(w, r, PageSpec{
		Meta: profileMeta,
		Fetch: func(ctx context.Context, data map[string]any) error {
			u, err := h.Accounts.Profile(ctx, sess.UserID)
			if err != nil {
				return err
			}
			data["Profile"] = u
			data["Form"] = model.ProfileUpdate{FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone}
			return nil
		},
	})
}

// SaveProfile updates the profile. POST /profile.
func (h *UIHandlers) SaveProfile(w http.ResponseWriter, r *http.Request) {
	sess := GetSessionFromContext(r.Context())
	form, err := parseValidForm(r, parseProfile)
	if err == nil {
		_, err = h.Accounts.UpdateProfile(r.Context(), sess.UserID, form)
	}
	if err != nil {
		if failsPage(err) {
			h.renderFailure(w, r, profileMeta, err)
			return
		}
		h.renderForm(w, r, profileMeta, err, map[string]any{"Form": form, "Profile": model.User{Email: sess.Email}})
		return
	}
	seeOther(w, r, "/profile", "saved")
}
