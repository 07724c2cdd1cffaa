//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"fmt"
	"strings"
	"time"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Valid returns true if the order status is known.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPreparing, OrderStatusReady, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// String returns the string representation of the order status.
func (s OrderStatus) String() string { return string(s) }

//nolint:gochecknoglobals // static read-only transition table
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady, OrderStatusCancelled},
	OrderStatusReady:     {OrderStatusCompleted},
}

// CanTransitionTo reports whether an order may move from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Next lists the statuses an order may move to from s.
func (s OrderStatus) Next() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

// Open reports whether the order still needs work from the counter.
func (s OrderStatus) Open() bool {
	return s == OrderStatusPending || s == OrderStatusPreparing || s == OrderStatusReady
}

// Order is a placed order as stored by the backend.
type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Items     []OrderItem `json:"items"`
	Total     int64       `json:"total"`
	Status    OrderStatus `json:"status"`
	Notes     string      `json:"notes,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at,omitempty"`
}

// OrderItem is one ordered line.
type OrderItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Size      string `json:"size,omitempty"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// NewOrder is the request body for creating an order.
type NewOrder struct {
	UserID         string      `json:"user_id"`
	Items          []OrderItem `json:"items"`
	Notes          string      `json:"notes,omitempty"`
	IdempotencyKey string      `json:"idempotency_key"`
}

// Validate checks the order before it is sent to the backend.
func (o NewOrder) Validate() error {
	if strings.TrimSpace(o.UserID) == "" {
		return fmt.Errorf("user_id is required and cannot be empty")
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("items cannot be empty")
	}
	for i, it := range o.Items {
		if it.ProductID == "" || it.Quantity < 1 {
			return fmt.Errorf("item %d must have a product and a quantity of at least 1", i)
		}
	}
	return nil
}

// OrderFilter narrows order listings.
type OrderFilter struct {
	UserID   string
	Statuses []OrderStatus
	Limit    int
}

// OrderStatusUpdate is the request body for moving an order along.
type OrderStatusUpdate struct {
	Status OrderStatus `json:"status"`
}

func equalFold(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }
