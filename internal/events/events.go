package events

import (
	"context"
	"errors"
)

// ErrBadUpdate marks a payment update that can never be applied (unknown
// payment status, order gone). The consumer drops such messages instead of
// requeueing them.
var ErrBadUpdate = errors.New("unprocessable payment update")

// Queue names shared with the payment worker.
const (
	QueuePaymentRequests = "payment_requests"
	QueuePaymentUpdates  = "payment_updates"
)

// PaymentRequest is published when an order is created and awaits payment.
type PaymentRequest struct {
	OrderID       int64   `json:"order_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
}

// PaymentUpdate is consumed from the payment worker. EventID makes
// at-least-once delivery safe to deduplicate.
type PaymentUpdate struct {
	EventID       string `json:"event_id"`
	OrderID       int64  `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
}

// Publisher sends payment requests. Order creation treats publishing as
// best-effort; a failed publish never rolls back the order.
type Publisher interface {
	PublishPaymentRequest(ctx context.Context, req PaymentRequest) error
}

// NopPublisher is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPaymentRequest(context.Context, PaymentRequest) error { return nil }

// OrderStore applies payment updates to orders.
type OrderStore interface {
	ApplyPaymentUpdate(ctx context.Context, orderID int64, paymentStatus string) error
}

// Dedup tracks already-applied event IDs. Seen only reads; Mark records the
// ID once the update has been applied, so a requeued delivery is retried
// rather than skipped.
type Dedup interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}
