package ports

import (
	"context"

	domainauth "github.com/target/coffeehouse/internal/domain/auth"
	"github.com/target/coffeehouse/internal/domain/model"
)

// Catalog reads and curates the product menu.
type Catalog interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id string) (model.Product, error)
	SetProductAvailability(ctx context.Context, id string, upd model.ProductAvailabilityUpdate) (model.Product, error)
}

// OrderBook creates and tracks orders.
type OrderBook interface {
	CreateOrder(ctx context.Context, in model.NewOrder) (model.Order, error)
	GetOrder(ctx context.Context, id string) (model.Order, error)
	ListOrders(ctx context.Context, f model.OrderFilter) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, upd model.OrderStatusUpdate) (model.Order, error)
}

// PaymentLedger creates and settles payments.
type PaymentLedger interface {
	CreatePayment(ctx context.Context, in model.NewPayment) (model.Payment, error)
	GetPayment(ctx context.Context, id string) (model.Payment, error)
	ListPayments(ctx context.Context, f model.PaymentFilter) ([]model.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, upd model.PaymentStatusUpdate) (model.Payment, error)
}

// UserDirectory reads and edits user profiles.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (model.User, error)
	UpdateUser(ctx context.Context, id string, upd model.ProfileUpdate) (model.User, error)
}

// Backend is the full surface of the external backend service.
type Backend interface {
	Catalog
	OrderBook
	PaymentLedger
	UserDirectory
}

// Actor identifies the signed-in user on whose behalf a backend call is made.
type Actor struct {
	UserID string
	Role   domainauth.Role
}

type actorKey struct{}

// WithActor returns a context carrying a.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the actor stored in ctx, if any.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(Actor)
	return a, ok && a.UserID != ""
}
