package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/coffeehouse/internal/domain/model"
	apperrors "github.com/target/coffeehouse/internal/errors"
	"github.com/target/coffeehouse/internal/ports"
	"golang.org/x/sync/errgroup"
)

// DefaultStaffListLimit caps dashboard listings.
const DefaultStaffListLimit = 100

//nolint:gochecknoglobals // read-only status set
var openOrderStatuses = []model.OrderStatus{
	model.OrderStatusPending,
	model.OrderStatusPreparing,
	model.OrderStatusReady,
}

// StaffServiceOptions groups dependencies for StaffService.
type StaffServiceOptions struct {
	Catalog  ports.Catalog       // Required
	Orders   ports.OrderBook     // Required
	Payments ports.PaymentLedger // Required
	Cache    ports.Cache         // Optional: catalog cache to invalidate on availability changes
	Logger   *slog.Logger        // Optional
}

// StaffService backs the admin and cashier dashboards.
type StaffService struct {
	catalog  ports.Catalog
	orders   ports.OrderBook
	payments ports.PaymentLedger
	cache    ports.Cache
	logger   *slog.Logger
}

// NewStaffService constructs a StaffService.
func NewStaffService(opts StaffServiceOptions) (*StaffService, error) {
	switch {
	case opts.Catalog == nil:
		return nil, errors.New("catalog is required")
	case opts.Orders == nil:
		return nil, errors.New("order book is required")
	case opts.Payments == nil:
		return nil, errors.New("payment ledger is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &StaffService{
		catalog:  opts.Catalog,
		orders:   opts.Orders,
		payments: opts.Payments,
		cache:    opts.Cache,
		logger:   logger.With("component", "staff_service"),
	}, nil
}

// AdminOverview is the admin dashboard summary.
type AdminOverview struct {
	OpenOrders     []model.Order
	RecentPayments []model.Payment
	Products       []model.Product
	// Revenue is the sum of paid payments among RecentPayments.
	Revenue         int64
	PendingPayments int
	Unavailable     int
}

// AdminOverview loads orders, payments and products concurrently.
func (s *StaffService) AdminOverview(ctx context.Context) (AdminOverview, error) {
	var out AdminOverview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		orders, err := s.orders.ListOrders(gctx, model.OrderFilter{Statuses: openOrderStatuses, Limit: DefaultStaffListLimit})
		if err != nil {
			return fmt.Errorf("list open orders: %w", err)
		}
		out.OpenOrders = orders
		return nil
	})
	g.Go(func() error {
		payments, err := s.payments.ListPayments(gctx, model.PaymentFilter{Limit: DefaultStaffListLimit})
		if err != nil {
			return fmt.Errorf("list payments: %w", err)
		}
		out.RecentPayments = payments
		return nil
	})
	g.Go(func() error {
		products, err := s.catalog.ListProducts(gctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		out.Products = products
		return nil
	})
	if err := g.Wait(); err != nil {
		return AdminOverview{}, err
	}

	for _, p := range out.RecentPayments {
		switch p.Status {
		case model.PaymentStatusPaid:
			out.Revenue += p.Amount
		case model.PaymentStatusPending:
			out.PendingPayments++
		case model.PaymentStatusRefunded, model.PaymentStatusFailed:
		}
	}
	for _, p := range out.Products {
		if !p.Available {
			out.Unavailable++
		}
	}
	return out, nil
}

// Payments lists payments, optionally narrowed to one status.
func (s *StaffService) Payments(ctx context.Context, status model.PaymentStatus) ([]model.Payment, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("unknown payment status %q", status))
	}
	return s.payments.ListPayments(ctx, model.PaymentFilter{Status: status, Limit: DefaultStaffListLimit})
}

// Refund moves a paid payment to refunded.
func (s *StaffService) Refund(ctx context.Context, paymentID string) (model.Payment, error) {
	return s.movePayment(ctx, paymentID, model.PaymentStatusRefunded, func(model.Payment) error { return nil })
}

// PendingCashPayments lists cash payments waiting for the counter.
func (s *StaffService) PendingCashPayments(ctx context.Context) ([]model.Payment, error) {
	ps, err := s.payments.ListPayments(ctx, model.PaymentFilter{Status: model.PaymentStatusPending, Limit: DefaultStaffListLimit})
	if err != nil {
		return nil, err
	}
	cash := ps[:0]
	for _, p := range ps {
		if p.Method == model.PaymentMethodCash {
			cash = append(cash, p)
		}
	}
	return cash, nil
}

// ConfirmCash marks a pending cash payment as paid.
func (s *StaffService) ConfirmCash(ctx context.Context, paymentID string) (model.Payment, error) {
	return s.movePayment(ctx, paymentID, model.PaymentStatusPaid, func(p model.Payment) error {
		if p.Method != model.PaymentMethodCash {
			return apperrors.Conflictf("only cash payments are confirmed at the counter")
		}
		return nil
	})
}

func (s *StaffService) movePayment(
	ctx context.Context,
	paymentID string,
	next model.PaymentStatus,
	check func(model.Payment) error,
) (model.Payment, error) {
	p, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return model.Payment{}, err
	}
	if err := check(p); err != nil {
		return model.Payment{}, err
	}
	if !p.Status.CanTransitionTo(next) {
		return model.Payment{}, apperrors.Conflictf("payment %s cannot move from %s to %s", p.ID, p.Status, next)
	}
	updated, err := s.payments.UpdatePaymentStatus(ctx, p.ID, model.PaymentStatusUpdate{Status: next})
	if err != nil {
		return model.Payment{}, fmt.Errorf("update payment %s: %w", p.ID, err)
	}
	s.logger.InfoContext(ctx, "payment status changed", "payment_id", p.ID, "from", p.Status, "to", next)
	return updated, nil
}

// Products lists the full catalog, unavailable items included.
func (s *StaffService) Products(ctx context.Context) ([]model.Product, error) {
	return s.catalog.ListProducts(ctx)
}

// SetAvailability toggles whether a product can be ordered and drops cached catalog reads.
func (s *StaffService) SetAvailability(ctx context.Context, productID string, available bool) (model.Product, error) {
	if productID == "" {
		return model.Product{}, apperrors.ValidationField("product_id", "product id is required")
	}
	p, err := s.catalog.SetProductAvailability(ctx, productID, model.ProductAvailabilityUpdate{Available: available})
	if err != nil {
		return model.Product{}, fmt.Errorf("set availability: %w", err)
	}
	invalidateCatalog(ctx, s.cache, s.logger, productID)
	s.logger.InfoContext(ctx, "product availability changed", "product_id", productID, "available", available)
	return p, nil
}

// CashierQueue lists orders still needing work at the counter.
func (s *StaffService) CashierQueue(ctx context.Context) ([]model.Order, error) {
	return s.orders.ListOrders(ctx, model.OrderFilter{Statuses: openOrderStatuses, Limit: DefaultStaffListLimit})
}

// AdvanceOrder moves an order to next. Transitions outside the order lifecycle are validation errors.
func (s *StaffService) AdvanceOrder(ctx context.Context, orderID string, next model.OrderStatus) (model.Order, error) {
	if !next.Valid() {
		return model.Order{}, apperrors.ValidationField("status", fmt.Sprintf("unknown order status %q", next))
	}
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if !o.Status.CanTransitionTo(next) {
		return model.Order{}, apperrors.Validationf("order %s cannot move from %s to %s", o.ID, o.Status, next)
	}
	updated, err := s.orders.UpdateOrderStatus(ctx, o.ID, model.OrderStatusUpdate{Status: next})
	if err != nil {
		return model.Order{}, fmt.Errorf("update order %s: %w", o.ID, err)
	}
	s.logger.InfoContext(ctx, "order status changed", "order_id", o.ID, "from", o.Status, "to", next)
	return updated, nil
}
