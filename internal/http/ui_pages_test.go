package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/domain/cart"
	"github.com/target/coffeehouse/internal/domain/model"
	apperrors "github.com/target/coffeehouse/internal/errors"
)

func customer() *domainauth.Session { return testSession("c1", domainauth.RoleCustomer) }

func TestHome_AnonymousShowsFeatured(t *testing.T) {
	f := newUIFixture(t)
	rec := serve(f.h.Home, http.MethodGet, "/", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{"Fresh from the bar", "Latte", "Mocha", "$4.50", "Sign in"}), body)
	assert.NotContains(t, body, "Cortado", "unavailable products are not featured")
	assert.NotContains(t, body, "role-sync.js", "anonymous pages do not sync the role cookie")
}

func TestLayout_SignedInLoadsRoleSync(t *testing.T) {
	f := newUIFixture(t)
	rec := serve(f.h.CoffeeList, http.MethodGet, "/coffee-list", nil, customer())

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, ContainsAll(body, []string{
		"/static/js/role-sync.js",
		`data-session="present"`,
		"Ada Lovelace",
		`action="/api/auth/logout"`,
		"Cortado",
		"Sold out",
	}), body)
}

func TestCoffeeDetail(t *testing.T) {
	f := newUIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/coffee/latte", nil)
	req.SetPathValue("id", "latte")
	rec := httptest.NewRecorder()
	f.h.CoffeeDetail(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"<title>Latte", `action="/cart/add"`, `value="latte"`, "$5.20"}))

	req = httptest.NewRequest(http.MethodGet, "/coffee/nope", nil)
	req.SetPathValue("id", "nope")
	rec = httptest.NewRecorder()
	f.h.CoffeeDetail(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "product nope not found")
}

func TestLogin_CarriesRedirect(t *testing.T) {
	f := newUIFixture(t)
	rec := serve(f.h.Login, http.MethodGet, "/login?redirect=/cart", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/auth/login?redirect=")
	assert.Contains(t, rec.Body.String(), "cart")

	rec = serve(f.h.Login, http.MethodGet, "/login?redirect=https://evil.example", nil, nil)
	assert.NotContains(t, rec.Body.String(), "evil.example")
}

func TestCartFlow(t *testing.T) {
	f := newUIFixture(t)
	sess := customer()

	rec := serve(f.h.CartAdd, http.MethodPost, "/cart/add", url.Values{"product_id": {"latte"}, "size": {"l"}, "quantity": {"2"}}, sess)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart?notice=added", rec.Header().Get("Location"))

	rec = serve(f.h.CartAdd, http.MethodPost, "/cart/add", url.Values{"product_id": {"mocha"}}, sess)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	c := f.shop.carts[sess.UserID]
	require.Len(t, c.Items, 2)
	assert.Equal(t, 1, c.Items[1].Quantity, "quantity defaults to one")
	assert.Equal(t, int64(1540), c.Total())

	rec = serve(f.h.Cart, http.MethodGet, "/cart?notice=added", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"Added to your cart.", "Latte", "Mocha", "$15.40", `action="/cart/update"`}))

	rec = serve(f.h.CartUpdate, http.MethodPost, "/cart/update", url.Values{"product_id": {"latte"}, "size": {"l"}, "quantity": {"1"}}, sess)
	assert.Equal(t, "/cart?notice=updated", rec.Header().Get("Location"))
	assert.Equal(t, int64(1020), f.shop.carts[sess.UserID].Total())

	rec = serve(f.h.CartRemove, http.MethodPost, "/cart/remove", url.Values{"product_id": {"mocha"}}, sess)
	assert.Equal(t, "/cart?notice=removed", rec.Header().Get("Location"))
	assert.Len(t, f.shop.carts[sess.UserID].Items, 1)

	rec = serve(f.h.CartClear, http.MethodPost, "/cart/clear", url.Values{}, sess)
	assert.Equal(t, "/cart?notice=cleared", rec.Header().Get("Location"))
	assert.True(t, f.shop.carts[sess.UserID].IsEmpty())
}

func TestCartAdd_Rejections(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing product", url.Values{"quantity": {"1"}}, "product_id is required"},
		{"bad quantity", url.Values{"product_id": {"latte"}, "quantity": {"lots"}}, "quantity must be greater than or equal to 0"},
		{"too many", url.Values{"product_id": {"latte"}, "quantity": {"21"}}, "quantity must be less than or equal to 20"},
		{"unknown size", url.Values{"product_id": {"latte"}, "size": {"xl"}}, "unknown size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newUIFixture(t)
			rec := serve(f.h.CartAdd, http.MethodPost, "/cart/add", tt.form, customer())
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestCartUpdate_MissingLine(t *testing.T) {
	f := newUIFixture(t)
	rec := serve(f.h.CartUpdate, http.MethodPost, "/cart/update", url.Values{"product_id": {"latte"}, "quantity": {"3"}}, customer())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Your cart is empty")
}

func TestCheckout_EmptyCartGoesBack(t *testing.T) {
	f := newUIFixture(t)
	rec := serve(f.h.Checkout, http.MethodGet, "/order", nil, customer())
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cart", rec.Header().Get("Location"))
}

func TestCheckout_ShowsSummaryAndKey(t *testing.T) {
	f := newUIFixture(t)
	sess := customer()
	_, err := f.shop.Dispatch(t.Context(), sess.UserID, cart.AddItem{Item: cart.Item{ProductID: "mocha", Quantity: 2}})
	require.NoError(t, err)

	rec := serve(f.h.Checkout, http.MethodGet, "/order", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"$10.00", `name="idempotency_key"`, `value="card" checked`, `action="/order"`}))
}

func TestPlaceOrder(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{"card", "/payment?order=o1"},
		{"cash", "/payment-complete?order=o1"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			f := newUIFixture(t)
			sess := customer()
			_, err := f.shop.Dispatch(t.Context(), sess.UserID, cart.AddItem{Item: cart.Item{ProductID: "mocha", Quantity: 1}})
			require.NoError(t, err)

			form := url.Values{"method": {tt.method}, "notes": {"no lid"}, "idempotency_key": {"1f0e7c5e-8f5b-4b8e-9d7e-3f1c2a9b6d10"}}
			rec := serve(f.h.PlaceOrder, http.MethodPost, "/order", form, sess)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.want, rec.Header().Get("Location"))
			require.Len(t, f.shop.checkouts, 1)
			assert.Equal(t, model.PaymentMethod(tt.method), f.shop.checkouts[0].Method)
			assert.Equal(t, "no lid", f.shop.checkouts[0].Notes)
			assert.Equal(t, sess.UserID, f.shop.checkouts[0].UserID)
		})
	}
}

func TestPlaceOrder_InvalidMethodKeepsForm(t *testing.T) {
	f := newUIFixture(t)
	rec := serve(f.h.PlaceOrder, http.MethodPost, "/order", url.Values{"method": {"bitcoin"}, "notes": {"extra hot"}}, customer())

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"method must be one of: card cash", "extra hot", errMsgFixBelow}))
	assert.Empty(t, f.shop.checkouts)
}

func TestPlaceOrder_BackendUnavailable(t *testing.T) {
	f := newUIFixture(t)
	f.shop.checkoutErr = apperrors.Wrap(errors.New("dial tcp: refused"), apperrors.ErrCodeUnavailable, "backend unavailable")
	rec := serve(f.h.PlaceOrder, http.MethodPost, "/order", url.Values{"method": {"card"}}, customer())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "briefly unavailable")
	assert.NotContains(t, rec.Body.String(), "dial tcp")
}

func TestPage_FailureNavigation(t *testing.T) {
	t.Run("unauthenticated goes to login", func(t *testing.T) {
		f := newUIFixture(t)
		f.accounts.err = apperrors.Unauthenticated("session expired")
		rec := serve(f.h.OrderHistory, http.MethodGet, "/order-history", nil, customer())
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login?redirect=%2Forder-history", rec.Header().Get("Location"))
	})
	t.Run("forbidden goes home", func(t *testing.T) {
		f := newUIFixture(t)
		f.staff.err = apperrors.Forbiddenf("not staff")
		rec := serve(f.h.AdminOverview, http.MethodGet, "/dashboard/admin", nil, testSession("a", domainauth.RoleCashier))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/dashboard/cashier", rec.Header().Get("Location"))
	})
	t.Run("internal error hides cause", func(t *testing.T) {
		f := newUIFixture(t)
		f.accounts.err = errors.New("pq: relation missing")
		rec := serve(f.h.Profile, http.MethodGet, "/profile", nil, customer())
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "An unexpected error occurred")
		assert.NotContains(t, rec.Body.String(), "relation missing")
	})
}

func TestPaymentPages(t *testing.T) {
	f := newUIFixture(t)
	sess := customer()

	rec := serve(f.h.Payment, http.MethodGet, "/payment?order=o1", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"$9.00", `name="payment_id" value="p1"`, "Pay $9.00"}))

	rec = serve(f.h.Payment, http.MethodGet, "/payment", nil, sess)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(f.h.Pay, http.MethodPost, "/payment", url.Values{"order_id": {"o1"}, "payment_id": {"p1"}}, sess)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/payment-complete?order=o1", rec.Header().Get("Location"))
	assert.Equal(t, []string{"p1"}, f.accounts.paid)

	rec = serve(f.h.Pay, http.MethodPost, "/payment", url.Values{"order_id": {"o1"}, "payment_id": {"p1"}}, sess)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "payment is already paid")

	rec = serve(f.h.PaymentComplete, http.MethodGet, "/payment-complete?order=o1", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"Order placed", "Latte", "Paid"}))
}

func TestOrderHistory(t *testing.T) {
	f := newUIFixture(t)
	rec := serve(f.h.OrderHistory, http.MethodGet, "/order-history", nil, customer())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"$9.00", "Pending", "badge-warning", "Mar 1, 2026"}))
}

func TestProfile(t *testing.T) {
	f := newUIFixture(t)
	sess := customer()

	rec := serve(f.h.Profile, http.MethodGet, "/profile", nil, sess)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"c1@example.com", `value="Ada"`}))

	rec = serve(f.h.SaveProfile, http.MethodPost, "/profile", url.Values{"first_name": {"Grace"}, "phone": {"555"}}, sess)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.True(t, ContainsAll(rec.Body.String(), []string{"phone must be a phone number in international format", `value="Grace"`}))

	rec = serve(f.h.SaveProfile, http.MethodPost, "/profile", url.Values{"first_name": {"Grace"}, "phone": {"+15551234567"}}, sess)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/profile?notice=saved", rec.Header().Get("Location"))
	assert.Equal(t, "Grace", f.accounts.user.FirstName)
}

func TestNotFoundPage(t *testing.T) {
	f := newUIFixture(t)
	rec := serve(f.h.NotFound, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Not Found")
}
