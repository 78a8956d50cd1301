package order

import (
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an order.
type Status string

const (
	StatusPendingPayment       Status = "Pending payment"
	StatusProcessing           Status = "Processing"
	StatusPreparingForShipment Status = "Preparing for shipment"
	StatusShipped              Status = "Shipped"
	StatusInTransit            Status = "In transit"
	StatusDelivered            Status = "Delivered"
	StatusCancelled            Status = "Cancelled"
	StatusReturned             Status = "Returned"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPendingPayment, StatusProcessing, StatusPreparingForShipment,
		StatusShipped, StatusInTransit, StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// Terminal reports whether the order reached a final state. Only admins may
// move an order out of a terminal state.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusReturned
}

func (s Status) String() string { return string(s) }

// PaymentMethod is how the customer chose to pay.
type PaymentMethod string

const (
	PaymentCreditCard   PaymentMethod = "Credit card"
	PaymentCash         PaymentMethod = "Cash"
	PaymentBankTransfer PaymentMethod = "Bank transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCreditCard, PaymentCash, PaymentBankTransfer:
		return true
	}
	return false
}

// PaymentStatus tracks whether the payment settled.
type PaymentStatus string

const (
	PaymentStatusPaid       PaymentStatus = "Paid"
	PaymentStatusProcessing PaymentStatus = "Processing"
)

func (p PaymentStatus) Valid() bool {
	return p == PaymentStatusPaid || p == PaymentStatusProcessing
}

// Order is a customer's request to purchase one product, tracked through a
// status lifecycle. It is never deleted; cancellation is a status.
type Order struct {
	ID            int64         `json:"id"`
	CustomerID    uuid.UUID     `json:"customer_id"`
	Status        Status        `json:"status"`
	OrderAt       time.Time     `json:"order_at"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

// OrderDetail is the line item of an order: the product, the quantity, and
// the price snapshot (quantity x unit price at creation). Immutable after
// creation.
type OrderDetail struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	Quantity      int    `json:"quantity" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// UpdateStatusRequest is the payload for changing an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
