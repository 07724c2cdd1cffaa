package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/target/coffeehouse/internal/domain/cart"
	"github.com/target/coffeehouse/internal/domain/model"
	apperrors "github.com/target/coffeehouse/internal/errors"
	"github.com/target/coffeehouse/internal/observability/metrics"
	"github.com/target/coffeehouse/internal/ports"
)

// checkoutGuardTTL bounds how long a checkout idempotency key blocks a duplicate submit.
const checkoutGuardTTL = 10 * time.Minute

// CartServiceOptions groups dependencies for CartService.
type CartServiceOptions struct {
	Store      ports.CartStore     // Required
	Catalog    ports.Catalog       // Required: prices and availability
	Orders     ports.OrderBook     // Required
	Payments   ports.PaymentLedger // Required
	Cache      ports.Cache         // Optional: catalog cache and checkout guard
	CatalogTTL time.Duration       // Optional: defaults to DefaultCatalogTTL
	Logger     *slog.Logger        // Optional
}

// CartService owns the customer's cart and turns it into an order.
type CartService struct {
	store      ports.CartStore
	catalog    ports.Catalog
	orders     ports.OrderBook
	payments   ports.PaymentLedger
	cache      ports.Cache
	catalogTTL time.Duration
	logger     *slog.Logger
}

// NewCartService constructs a CartService.
func NewCartService(opts CartServiceOptions) (*CartService, error) {
	switch {
	case opts.Store == nil:
		return nil, errors.New("cart store is required")
	case opts.Catalog == nil:
		return nil, errors.New("catalog is required")
	case opts.Orders == nil:
		return nil, errors.New("order book is required")
	case opts.Payments == nil:
		return nil, errors.New("payment ledger is required")
	}
	ttl := opts.CatalogTTL
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{
		store:      opts.Store,
		catalog:    opts.Catalog,
		orders:     opts.Orders,
		payments:   opts.Payments,
		cache:      opts.Cache,
		catalogTTL: ttl,
		logger:     logger.With("component", "cart_service"),
	}, nil
}

// Products lists the menu.
func (s *CartService) Products(ctx context.Context) ([]model.Product, error) {
	return cached(ctx, s.cache, s.logger, catalogListKey, s.catalogTTL, s.catalog.ListProducts)
}

// Product returns one menu item.
func (s *CartService) Product(ctx context.Context, id string) (model.Product, error) {
	if strings.TrimSpace(id) == "" {
		return model.Product{}, apperrors.ValidationField("product_id", "product id is required")
	}
	return cached(ctx, s.cache, s.logger, catalogProductKey(id), s.catalogTTL,
		func(ctx context.Context) (model.Product, error) { return s.catalog.GetProduct(ctx, id) })
}

// Get returns the owner's cart; a missing cart is empty.
func (s *CartService) Get(ctx context.Context, ownerID string) (cart.Cart, error) {
	if ownerID == "" {
		return cart.Cart{}, apperrors.Unauthenticated("sign in to use the cart")
	}
	c, err := s.store.Load(ctx, ownerID)
	if err != nil {
		return cart.Cart{}, fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// Dispatch applies action to the owner's cart and persists the result.
// AddItem is repriced from the catalog; the caller's name and price are ignored.
func (s *CartService) Dispatch(ctx context.Context, ownerID string, action cart.Action) (cart.Cart, error) {
	name := "unknown"
	if action != nil {
		name = action.Name()
	}
	next, err := s.dispatch(ctx, ownerID, action)
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeRejected
		if !apperrors.IsValidation(err) && !apperrors.IsNotFound(err) {
			outcome = metrics.OutcomeError
		}
	}
	metrics.CartActions.WithLabelValues(name, outcome).Inc()
	return next, err
}

func (s *CartService) dispatch(ctx context.Context, ownerID string, action cart.Action) (cart.Cart, error) {
	if add, ok := action.(cart.AddItem); ok {
		priced, err := s.priceItem(ctx, add.Item)
		if err != nil {
			return cart.Cart{}, err
		}
		action = cart.AddItem{Item: priced}
	}

	current, err := s.Get(ctx, ownerID)
	if err != nil {
		return cart.Cart{}, err
	}
	next, err := current.Apply(action)
	if err != nil {
		return current, cartError(err)
	}
	if err := s.store.Save(ctx, ownerID, next); err != nil {
		return current, fmt.Errorf("save cart: %w", err)
	}
	return next, nil
}

func (s *CartService) priceItem(ctx context.Context, in cart.Item) (cart.Item, error) {
	p, err := s.Product(ctx, in.ProductID)
	if err != nil {
		return cart.Item{}, err
	}
	if !p.Available {
		return cart.Item{}, apperrors.Validationf("%s is not available right now", p.Name)
	}
	price, ok := p.PriceFor(in.Size)
	if !ok {
		return cart.Item{}, apperrors.ValidationField("size", fmt.Sprintf("%s does not come in size %q", p.Name, in.Size))
	}
	return cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Size:      in.Size,
		UnitPrice: price,
		Quantity:  in.Quantity,
	}, nil
}

func cartError(err error) error {
	switch {
	case errors.Is(err, cart.ErrLineNotFound):
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "cart line not found")
	case errors.Is(err, cart.ErrInvalidQuantity):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid quantity")
	case errors.Is(err, cart.ErrTooManyLines), errors.Is(err, cart.ErrInvalidItem):
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "cart update rejected")
	default:
		return err
	}
}

// CheckoutInput carries the checkout form.
type CheckoutInput struct {
	UserID string
	Method model.PaymentMethod
	Notes  string
	// IdempotencyKey identifies one checkout attempt; a fresh key is generated when empty.
	IdempotencyKey string
}

// CheckoutResult is the order and pending payment created at checkout.
type CheckoutResult struct {
	Order   model.Order
	Payment model.Payment
}

// Checkout places an order for the cart, opens a pending payment for it and
// empties the cart. A repeated submit with the same idempotency key while the
// first is still running is rejected as a conflict.
func (s *CartService) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if in.UserID == "" {
		return CheckoutResult{}, apperrors.Unauthenticated("sign in to check out")
	}
	if in.Method == "" {
		in.Method = model.PaymentMethodCard
	}
	if !in.Method.Valid() {
		return CheckoutResult{}, apperrors.ValidationField("method", "payment method must be card or cash")
	}

	c, err := s.Get(ctx, in.UserID)
	if err != nil {
		return CheckoutResult{}, err
	}
	if c.IsEmpty() {
		return CheckoutResult{}, apperrors.Validationf("cart is empty")
	}

	key := in.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	release, err := s.guard(ctx, in.UserID, key)
	if err != nil {
		return CheckoutResult{}, err
	}

	order, err := s.orders.CreateOrder(ctx, model.NewOrder{
		UserID:         in.UserID,
		Items:          orderItems(c),
		Notes:          strings.TrimSpace(in.Notes),
		IdempotencyKey: key,
	})
	if err != nil {
		release()
		return CheckoutResult{}, fmt.Errorf("create order: %w", err)
	}

	amount := order.Total
	if amount == 0 {
		amount = c.Total()
	}
	payment, err := s.payments.CreatePayment(ctx, model.NewPayment{
		OrderID: order.ID,
		UserID:  in.UserID,
		Amount:  amount,
		Method:  in.Method,
	})
	if err != nil {
		release()
		return CheckoutResult{Order: order}, fmt.Errorf("create payment for order %s: %w", order.ID, err)
	}

	if err := s.store.Delete(ctx, in.UserID); err != nil {
		s.logger.WarnContext(ctx, "order placed but cart not cleared",
			"user_id", in.UserID, "order_id", order.ID, "error", err)
	}
	s.logger.InfoContext(ctx, "order placed",
		"user_id", in.UserID, "order_id", order.ID, "payment_id", payment.ID, "method", in.Method)

	return CheckoutResult{Order: order, Payment: payment}, nil
}

// guard claims the checkout key. The returned release frees it after a failed attempt.
func (s *CartService) guard(ctx context.Context, userID, key string) (func(), error) {
	noop := func() {}
	if s.cache == nil {
		return noop, nil
	}
	cacheKey := "checkout:" + userID + ":" + key
	ok, err := s.cache.SetIfNotExists(ctx, cacheKey, []byte("pending"), checkoutGuardTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "checkout guard unavailable", "error", err)
		return noop, nil
	}
	if !ok {
		return nil, apperrors.Conflictf("this order is already being placed")
	}
	return func() {
		if _, err := s.cache.Delete(context.WithoutCancel(ctx), cacheKey); err != nil {
			s.logger.WarnContext(ctx, "checkout guard release failed", "error", err)
		}
	}, nil
}

func orderItems(c cart.Cart) []model.OrderItem {
	items := make([]model.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, model.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Size:      it.Size,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return items
}
