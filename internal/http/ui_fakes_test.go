package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/domain/cart"
	"github.com/target/coffeehouse/internal/domain/model"
	apperrors "github.com/target/coffeehouse/internal/errors"
	"github.com/target/coffeehouse/internal/service"
)

// fakeShop keeps carts in memory and prices lines from a fixed menu.
type fakeShop struct {
	mu          sync.Mutex
	products    []model.Product
	carts       map[string]cart.Cart
	err         error
	checkoutErr error
	checkouts   []service.CheckoutInput
}

func newFakeShop() *fakeShop {
	return &fakeShop{
		products: []model.Product{
			{ID: "latte", Name: "Latte", Description: "Espresso and steamed milk", Price: 450, Available: true,
				Sizes: []model.Size{{Name: "m", Price: 450}, {Name: "l", Price: 520}}},
			{ID: "mocha", Name: "Mocha", Price: 500, Available: true},
			{ID: "cortado", Name: "Cortado", Price: 400, Available: false},
		},
		carts: map[string]cart.Cart{},
	}
}

func (f *fakeShop) Products(context.Context) ([]model.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeShop) Product(_ context.Context, id string) (model.Product, error) {
	if f.err != nil {
		return model.Product{}, f.err
	}
	for _, p := range f.products {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Product{}, apperrors.NotFoundf("product %s not found", id)
}

func (f *fakeShop) Get(_ context.Context, owner string) (cart.Cart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return cart.Cart{}, f.err
	}
	return f.carts[owner], nil
}

func (f *fakeShop) Dispatch(ctx context.Context, owner string, action cart.Action) (cart.Cart, error) {
	if add, ok := action.(cart.AddItem); ok {
		p, err := f.Product(ctx, add.Item.ProductID)
		if err != nil {
			return cart.Cart{}, err
		}
		price, ok := p.PriceFor(add.Item.Size)
		if !ok {
			return cart.Cart{}, apperrors.ValidationField("size", "unknown size")
		}
		add.Item.Name, add.Item.UnitPrice = p.Name, price
		action = add
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return cart.Cart{}, f.err
	}
	next, err := f.carts[owner].Apply(action)
	if err != nil {
		return cart.Cart{}, apperrors.Wrap(err, apperrors.ErrCodeValidation, "cart update rejected")
	}
	f.carts[owner] = next
	return next, nil
}

func (f *fakeShop) Checkout(_ context.Context, in service.CheckoutInput) (service.CheckoutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkouts = append(f.checkouts, in)
	if f.checkoutErr != nil {
		return service.CheckoutResult{}, f.checkoutErr
	}
	c := f.carts[in.UserID]
	delete(f.carts, in.UserID)
	order := model.Order{ID: "o1", UserID: in.UserID, Total: c.Total(), Status: model.OrderStatusPending}
	return service.CheckoutResult{
		Order:   order,
		Payment: model.Payment{ID: "p1", OrderID: order.ID, Amount: order.Total, Method: in.Method, Status: model.PaymentStatusPending},
	}, nil
}

// fakeAccounts serves one customer's orders, payments and profile.
type fakeAccounts struct {
	orders   map[string]model.Order
	payments map[string]model.Payment
	user     model.User
	paid     []string
	err      error
}

func newFakeAccounts() *fakeAccounts {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	return &fakeAccounts{
		orders: map[string]model.Order{
			"o1": {ID: "o1", Total: 900, Status: model.OrderStatusPending, CreatedAt: created,
				Items: []model.OrderItem{{ProductID: "latte", Name: "Latte", Size: "m", UnitPrice: 450, Quantity: 2}}},
		},
		payments: map[string]model.Payment{
			"p1": {ID: "p1", OrderID: "o1", Amount: 900, Method: model.PaymentMethodCard, Status: model.PaymentStatusPending},
		},
		user: model.User{ID: "user-c1", Email: "c1@example.com", FirstName: "Ada"},
	}
}

func (f *fakeAccounts) OrderHistory(context.Context, string, int) ([]model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.Order, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeAccounts) Order(_ context.Context, _ string, id string) (model.Order, error) {
	if f.err != nil {
		return model.Order{}, f.err
	}
	o, ok := f.orders[id]
	if !ok {
		return model.Order{}, apperrors.NotFoundf("order %s not found", id)
	}
	return o, nil
}

func (f *fakeAccounts) Payment(_ context.Context, _ string, id string) (model.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return model.Payment{}, apperrors.NotFoundf("payment %s not found", id)
	}
	return p, nil
}

func (f *fakeAccounts) PaymentForOrder(_ context.Context, _ string, orderID string) (model.Payment, error) {
	for _, p := range f.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return model.Payment{}, apperrors.NotFoundf("no payment for order %s", orderID)
}

func (f *fakeAccounts) Pay(_ context.Context, _ string, id string) (model.Payment, error) {
	if f.err != nil {
		return model.Payment{}, f.err
	}
	p, ok := f.payments[id]
	if !ok {
		return model.Payment{}, apperrors.NotFoundf("payment %s not found", id)
	}
	if p.Status != model.PaymentStatusPending {
		return model.Payment{}, apperrors.Conflictf("payment is already %s", p.Status)
	}
	p.Status = model.PaymentStatusPaid
	f.payments[id] = p
	f.paid = append(f.paid, id)
	return p, nil
}

func (f *fakeAccounts) Profile(context.Context, string) (model.User, error) {
	if f.err != nil {
		return model.User{}, f.err
	}
	return f.user, nil
}

func (f *fakeAccounts) UpdateProfile(_ context.Context, _ string, upd model.ProfileUpdate) (model.User, error) {
	f.user.FirstName, f.user.LastName, f.user.Phone = upd.FirstName, upd.LastName, upd.Phone
	return f.user, nil
}

// fakeStaff records staff actions against fixed fixtures.
type fakeStaff struct {
	orders    []model.Order
	payments  []model.Payment
	products  []model.Product
	refunded  []string
	confirmed []string
	advanced  map[string]model.OrderStatus
	toggled   map[string]bool
	err       error
}

func newFakeStaff() *fakeStaff {
	return &fakeStaff{
		orders: []model.Order{
			{ID: "o1", Status: model.OrderStatusPending, Total: 450, Notes: "oat milk",
				Items: []model.OrderItem{{Name: "Latte", Size: "m", Quantity: 1}}},
			{ID: "o2", Status: model.OrderStatusReady, Total: 500,
				Items: []model.OrderItem{{Name: "Mocha", Quantity: 1}}},
		},
		payments: []model.Payment{
			{ID: "p1", OrderID: "o1", Amount: 450, Method: model.PaymentMethodCash, Status: model.PaymentStatusPending},
			{ID: "p2", OrderID: "o2", Amount: 500, Method: model.PaymentMethodCard, Status: model.PaymentStatusPaid},
		},
		products: newFakeShop().products,
		advanced: map[string]model.OrderStatus{},
		toggled:  map[string]bool{},
	}
}

func (f *fakeStaff) AdminOverview(context.Context) (service.AdminOverview, error) {
	if f.err != nil {
		return service.AdminOverview{}, f.err
	}
	return service.AdminOverview{
		OpenOrders: f.orders, RecentPayments: f.payments, Products: f.products,
		Revenue: 500, PendingPayments: 1, Unavailable: 1,
	}, nil
}

func (f *fakeStaff) Payments(_ context.Context, status model.PaymentStatus) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range f.payments {
		if status == "" || p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStaff) Refund(_ context.Context, id string) (model.Payment, error) {
	if f.err != nil {
		return model.Payment{}, f.err
	}
	f.refunded = append(f.refunded, id)
	return model.Payment{ID: id, Status: model.PaymentStatusRefunded}, nil
}

func (f *fakeStaff) PendingCashPayments(ctx context.Context) ([]model.Payment, error) {
	return f.Payments(ctx, model.PaymentStatusPending)
}

func (f *fakeStaff) ConfirmCash(_ context.Context, id string) (model.Payment, error) {
	f.confirmed = append(f.confirmed, id)
	return model.Payment{ID: id, Status: model.PaymentStatusPaid}, nil
}

func (f *fakeStaff) Products(context.Context) ([]model.Product, error) { return f.products, nil }

func (f *fakeStaff) SetAvailability(_ context.Context, id string, available bool) (model.Product, error) {
	f.toggled[id] = available
	return model.Product{ID: id, Available: available}, nil
}

func (f *fakeStaff) CashierQueue(context.Context) ([]model.Order, error) { return f.orders, nil }

func (f *fakeStaff) AdvanceOrder(_ context.Context, id string, next model.OrderStatus) (model.Order, error) {
	if f.err != nil {
		return model.Order{}, f.err
	}
	f.advanced[id] = next
	return model.Order{ID: id, Status: next}, nil
}

type uiFixture struct {
	h        *UIHandlers
	shop     *fakeShop
	accounts *fakeAccounts
	staff    *fakeStaff
}

func newUIFixture(t *testing.T) *uiFixture {
	t.Helper()
	h := CreateUIHandlersForTest(t)
	f := &uiFixture{h: h, shop: newFakeShop(), accounts: newFakeAccounts(), staff: newFakeStaff()}
	h.Shop, h.Accounts, h.Staff = f.shop, f.accounts, f.staff
	h.Logger = discardLogger()
	return f
}

// serve runs handler for a request made by sess (nil for anonymous).
func serve(handler http.HandlerFunc, method, target string, form url.Values, sess *domainauth.Session) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if sess != nil {
		req = req.WithContext(SetSessionInContext(req.Context(), sess))
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}
