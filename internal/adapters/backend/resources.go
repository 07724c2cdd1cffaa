package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/target/coffeehouse/internal/domain/model"
)

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	return call[[]model.Product](ctx, c, request{op: "list_products", method: http.MethodGet, path: "/products"})
}

func (c *Client) GetProduct(ctx context.Context, id string) (model.Product, error) {
	return call[model.Product](ctx, c, request{op: "get_product", method: http.MethodGet, path: "/products/" + escape(id)})
}

func (c *Client) SetProductAvailability(
	ctx context.Context,
	id string,
	upd model.ProductAvailabilityUpdate,
) (model.Product, error) {
	return call[model.Product](ctx, c, request{
		op:     "set_product_availability",
		method: http.MethodPatch,
		path:   "/products/" + escape(id) + "/availability",
		body:   upd,
	})
}

func (c *Client) CreateOrder(ctx context.Context, in model.NewOrder) (model.Order, error) {
	req := request{op: "create_order", method: http.MethodPost, path: "/orders", body: in}
	if in.IdempotencyKey != "" {
		req.headers = map[string]string{HeaderIdempotencyKey: in.IdempotencyKey}
	}
	return call[model.Order](ctx, c, req)
}

func (c *Client) GetOrder(ctx context.Context, id string) (model.Order, error) {
	return call[model.Order](ctx, c, request{op: "get_order", method: http.MethodGet, path: "/orders/" + escape(id)})
}

func (c *Client) ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error) {
	q := url.Values{}
	if f.UserID != "" {
		q.Set("user_id", f.UserID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q.Set("status", strings.Join(statuses, ","))
	}
	setLimit(q, f.Limit)
	return call[[]model.Order](ctx, c, request{op: "list_orders", method: http.MethodGet, path: "/orders", query: q})
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, upd model.OrderStatusUpdate) (model.Order, error) {
	return call[model.Order](ctx, c, request{
		op:     "update_order_status",
		method: http.MethodPatch,
		path:   "/orders/" + escape(id) + "/status",
		body:   upd,
	})
}

func (c *Client) CreatePayment(ctx context.Context, in model.NewPayment) (model.Payment, error) {
	return call[model.Payment](ctx, c, request{op: "create_payment", method: http.MethodPost, path: "/payments", body: in})
}

func (c *Client) GetPayment(ctx context.Context, id string) (model.Payment, error) {
	return call[model.Payment](ctx, c, request{op: "get_payment", method: http.MethodGet, path: "/payments/" + escape(id)})
}

func (c *Client) ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error) {
	q := url.Values{}
	if f.UserID != "" {
		q.Set("user_id", f.UserID)
	}
	if f.OrderID != "" {
		q.Set("order_id", f.OrderID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	setLimit(q, f.Limit)
	return call[[]model.Payment](ctx, c, request{op: "list_payments", method: http.MethodGet, path: "/payments", query: q})
}

func (c *Client) UpdatePaymentStatus(
	ctx context.Context,
	id string,
	upd model.PaymentStatusUpdate,
) (model.Payment, error) {
	return call[model.Payment](ctx, c, request{
		op:     "update_payment_status",
		method: http.MethodPatch,
		path:   "/payments/" + escape(id) + "/status",
		body:   upd,
	})
}

func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	return call[model.User](ctx, c, request{op: "get_user", method: http.MethodGet, path: "/users/" + escape(id)})
}

func (c *Client) UpdateUser(ctx context.Context, id string, upd model.ProfileUpdate) (model.User, error) {
	return call[model.User](ctx, c, request{
		op:     "update_user",
		method: http.MethodPatch,
		path:   "/users/" + escape(id),
		body:   upd,
	})
}

func setLimit(q url.Values, limit int) {
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
}
