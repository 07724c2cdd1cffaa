//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// PaymentStatus is the settlement state of a payment.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// Valid returns true if the payment status is known.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodCash PaymentMethod = "cash"
)

// Valid returns true if the payment method is known.
func (m PaymentMethod) Valid() bool { return m == PaymentMethodCard || m == PaymentMethodCash }

// Payment is a payment record as stored by the backend.
type Payment struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"order_id"`
	UserID    string        `json:"user_id"`
	Amount    int64         `json:"amount"`
	Method    PaymentMethod `json:"method"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	PaidAt    *time.Time    `json:"paid_at,omitempty"`
}

// NewPayment is the request body for creating a payment.
type NewPayment struct {
	OrderID string        `json:"order_id"`
	UserID  string        `json:"user_id"`
	Amount  int64         `json:"amount"`
	Method  PaymentMethod `json:"method"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	UserID  string
	OrderID string
	Status  PaymentStatus
	Limit   int
}

// PaymentStatusUpdate is the request body for settling or refunding.
type PaymentStatusUpdate struct {
	Status PaymentStatus `json:"status"`
}

// CanTransitionTo reports whether a payment may move from s to next.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusPaid || next == PaymentStatusFailed
	case PaymentStatusPaid:
		return next == PaymentStatusRefunded
	default:
		return false
	}
}
