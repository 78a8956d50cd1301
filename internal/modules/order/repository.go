package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
)

// Repository defines data access for orders.
type Repository interface {
	// CreateOrder persists the order and its detail atomically. Inside the
	// same transaction it locks the product row, re-checks the stock, and
	// decrements it; ErrInsufficientStock is returned (and nothing is
	// written) when a concurrent purchase drained the stock first.
	CreateOrder(ctx context.Context, o *Order, d *OrderDetail) error

	GetOrderByID(ctx context.Context, id int64) (*Order, error)

	// ListByCustomer returns the orders the customer placed.
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error)

	// ListBySeller returns the orders containing a detail whose product is
	// owned by the seller: seller's products -> details -> distinct orders.
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]Order, error)

	// SellerHasProductInOrder reports whether any detail of the order
	// references a product owned by the seller.
	SellerHasProductInOrder(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error)

	UpdateStatus(ctx context.Context, orderID int64, status Status) error

	// SetPaymentStatus records the settled payment state. When an order in
	// Pending payment is marked Paid it also moves to Processing.
	SetPaymentStatus(ctx context.Context, orderID int64, ps PaymentStatus) error
}
