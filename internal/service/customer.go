package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/target/coffeehouse/internal/domain/model"
	apperrors "github.com/target/coffeehouse/internal/errors"
	"github.com/target/coffeehouse/internal/ports"
	"github.com/target/coffeehouse/internal/validation"
)

// DefaultHistoryLimit caps the order history page.
const DefaultHistoryLimit = 50

// CustomerServiceOptions groups dependencies for CustomerService.
type CustomerServiceOptions struct {
	Orders   ports.OrderBook     // Required
	Payments ports.PaymentLedger // Required
	Users    ports.UserDirectory // Required
	Logger   *slog.Logger        // Optional
}

// CustomerService serves the customer's own orders, payments and profile.
// Records owned by another user read as not found.
type CustomerService struct {
	orders   ports.OrderBook
	payments ports.PaymentLedger
	users    ports.UserDirectory
	logger   *slog.Logger
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(opts CustomerServiceOptions) (*CustomerService, error) {
	switch {
	case opts.Orders == nil:
		return nil, errors.New("order book is required")
	case opts.Payments == nil:
		return nil, errors.New("payment ledger is required")
	case opts.Users == nil:
		return nil, errors.New("user directory is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CustomerService{
		orders:   opts.Orders,
		payments: opts.Payments,
		users:    opts.Users,
		logger:   logger.With("component", "customer_service"),
	}, nil
}

// OrderHistory lists the user's orders, newest first as returned by the backend.
func (s *CustomerService) OrderHistory(ctx context.Context, userID string, limit int) ([]model.Order, error) {
	if userID == "" {
		return nil, apperrors.Unauthenticated("sign in to see your orders")
	}
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	orders, err := s.orders.ListOrders(ctx, model.OrderFilter{UserID: userID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Order returns one of the user's orders.
func (s *CustomerService) Order(ctx context.Context, userID, orderID string) (model.Order, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return model.Order{}, err
	}
	if o.UserID != userID {
		return model.Order{}, apperrors.NotFoundf("order %s not found", orderID)
	}
	return o, nil
}

// Payment returns one of the user's payments.
func (s *CustomerService) Payment(ctx context.Context, userID, paymentID string) (model.Payment, error) {
	p, err := s.payments.GetPayment(ctx, paymentID)
	if err != nil {
		return model.Payment{}, err
	}
	if p.UserID != userID {
		return model.Payment{}, apperrors.NotFoundf("payment %s not found", paymentID)
	}
	return p, nil
}

// PaymentForOrder returns the payment opened for one of the user's orders.
func (s *CustomerService) PaymentForOrder(ctx context.Context, userID, orderID string) (model.Payment, error) {
	if _, err := s.Order(ctx, userID, orderID); err != nil {
		return model.Payment{}, err
	}
	ps, err := s.payments.ListPayments(ctx, model.PaymentFilter{UserID: userID, OrderID: orderID, Limit: 1})
	if err != nil {
		return model.Payment{}, fmt.Errorf("list payments: %w", err)
	}
	if len(ps) == 0 {
		return model.Payment{}, apperrors.NotFoundf("no payment for order %s", orderID)
	}
	return ps[0], nil
}

// Pay settles one of the user's pending card payments. Cash payments are
// confirmed by a cashier instead.
func (s *CustomerService) Pay(ctx context.Context, userID, paymentID string) (model.Payment, error) {
	p, err := s.Payment(ctx, userID, paymentID)
	if err != nil {
		return model.Payment{}, err
	}
	if p.Method != model.PaymentMethodCard {
		return model.Payment{}, apperrors.Validationf("cash payments are confirmed at the counter")
	}
	if p.Status == model.PaymentStatusPaid {
		return p, nil
	}
	if !p.Status.CanTransitionTo(model.PaymentStatusPaid) {
		return model.Payment{}, apperrors.Conflictf("payment is %s and cannot be paid", p.Status)
	}
	paid, err := s.payments.UpdatePaymentStatus(ctx, p.ID, model.PaymentStatusUpdate{Status: model.PaymentStatusPaid})
	if err != nil {
		return model.Payment{}, fmt.Errorf("settle payment: %w", err)
	}
	s.logger.InfoContext(ctx, "card payment settled", "user_id", userID, "payment_id", p.ID, "order_id", p.OrderID)
	return paid, nil
}

// Profile returns the user's profile.
func (s *CustomerService) Profile(ctx context.Context, userID string) (model.User, error) {
	if userID == "" {
		return model.User{}, apperrors.Unauthenticated("sign in to see your profile")
	}
	return s.users.GetUser(ctx, userID)
}

// UpdateProfile validates and saves the editable profile fields.
func (s *CustomerService) UpdateProfile(ctx context.Context, userID string, upd model.ProfileUpdate) (model.User, error) {
	if userID == "" {
		return model.User{}, apperrors.Unauthenticated("sign in to edit your profile")
	}
	if err := validation.Struct(upd); err != nil {
		return model.User{}, err
	}
	u, err := s.users.UpdateUser(ctx, userID, upd)
	if err != nil {
		return model.User{}, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}
