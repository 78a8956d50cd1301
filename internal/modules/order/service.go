package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/witchakorn/marketgo-backend/internal/events"
	"github.com/witchakorn/marketgo-backend/internal/modules/catalog"
	"github.com/witchakorn/marketgo-backend/internal/modules/user"
)

var (
	ErrForbidden            = errors.New("you are not authorized to perform this action")
	ErrInsufficientStock    = errors.New("product stock is not enough")
	ErrSelfPurchase         = errors.New("you can not buy your own product")
	ErrInvalidQuantity      = errors.New("quantity must be a positive integer")
	ErrInvalidPaymentMethod = errors.New("unknown payment method")
	ErrInvalidStatus        = errors.New("unknown order status")
	ErrStatusLocked         = errors.New("order is in a final state")
)

// Service is the order workflow engine: it authorizes the actor before any
// mutation and performs all multi-row writes atomically.
type Service interface {
	// CreateOrder places an order for one product. Checks run in a fixed
	// order: product existence, stock sufficiency, non-self-ownership.
	CreateOrder(ctx context.Context, customer *user.User, req CreateOrderRequest) (*Order, *OrderDetail, error)

	// GetBuyOrders returns the orders u placed as a customer.
	GetBuyOrders(ctx context.Context, u *user.User) ([]Order, error)

	// GetSellOrders returns the orders containing u's products.
	GetSellOrders(ctx context.Context, u *user.User) ([]Order, error)

	// GetOrderByID returns the order when u is allowed to see it.
	GetOrderByID(ctx context.Context, u *user.User, id int64) (*Order, error)

	// UpdateOrderStatus changes the order status. Customers may never change
	// status; terminal states are frozen except for admins.
	UpdateOrderStatus(ctx context.Context, u *user.User, id int64, newStatus string) error

	// CancelOrder sets the status to Cancelled. Idempotent on an already
	// cancelled order.
	CancelOrder(ctx context.Context, u *user.User, id int64) error

	// ApplyPaymentUpdate records a settled payment reported by the payment
	// worker.
	ApplyPaymentUpdate(ctx context.Context, orderID int64, paymentStatus string) error
}

type service struct {
	repo      Repository
	products  catalog.Repository
	publisher events.Publisher
}

// NewService creates a new order service. publisher may be events.NopPublisher
// when no broker is configured.
func NewService(repo Repository, products catalog.Repository, publisher events.Publisher) Service {
	return &service{repo: repo, products: products, publisher: publisher}
}

func (s *service) CreateOrder(ctx context.Context, customer *user.User, req CreateOrderRequest) (*Order, *OrderDetail, error) {
	if req.Quantity <= 0 {
		return nil, nil, ErrInvalidQuantity
	}
	method := PaymentMethod(req.PaymentMethod)
	if !method.Valid() {
		return nil, nil, ErrInvalidPaymentMethod
	}

	p, err := s.products.GetByID(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, nil, ErrProductNotFound
		}
		return nil, nil, fmt.Errorf("load product %d: %w", req.ProductID, err)
	}

	if req.Quantity > p.Stock {
		return nil, nil, ErrInsufficientStock
	}
	if customer.UUID == p.OwnerID {
		return nil, nil, ErrSelfPurchase
	}

	// Price snapshot: unit price at order time, never re-derived later.
	price := float64(req.Quantity) * p.Price

	o := &Order{
		CustomerID:    customer.UUID,
		Status:        StatusPendingPayment,
		OrderAt:       time.Now().UTC(),
		PaymentMethod: method,
		PaymentStatus: PaymentStatusProcessing,
	}
	d := &OrderDetail{
		ProductID: p.ID,
		Quantity:  req.Quantity,
		Price:     price,
	}

	if err := s.repo.CreateOrder(ctx, o, d); err != nil {
		if errors.Is(err, ErrInsufficientStock) || errors.Is(err, ErrProductNotFound) {
			return nil, nil, err
		}
		log.Error().Err(err).Int64("product_id", p.ID).Msg("order: failed to create order")
		return nil, nil, fmt.Errorf("create order: %w", err)
	}

	// Best-effort: the order stands even if the payment request cannot be
	// queued; the worker will pick it up on replay.
	if err := s.publisher.PublishPaymentRequest(ctx, events.PaymentRequest{
		OrderID:       o.ID,
		Amount:        d.Price,
		PaymentMethod: string(o.PaymentMethod),
	}); err != nil {
		log.Warn().Err(err).Int64("order_id", o.ID).Msg("order: failed to publish payment request")
	}

	log.Info().
		Int64("order_id", o.ID).
		Str("customer", customer.UUID.String()).
		Int("quantity", d.Quantity).
		Float64("price", d.Price).
		Msg("order created")

	return o, d, nil
}

func (s *service) GetBuyOrders(ctx context.Context, u *user.User) ([]Order, error) {
	return s.repo.ListByCustomer(ctx, u.UUID)
}

func (s *service) GetSellOrders(ctx context.Context, u *user.User) ([]Order, error) {
	return s.repo.ListBySeller(ctx, u.UUID)
}

func (s *service) GetOrderByID(ctx context.Context, u *user.User, id int64) (*Order, error) {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, u, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) UpdateOrderStatus(ctx context.Context, u *user.User, id int64, newStatus string) error {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, u, o); err != nil {
		return err
	}
	// Status changes are a seller/admin action even on the customer's own order.
	if u.Role == user.RoleCustomer {
		return ErrForbidden
	}

	status := Status(newStatus)
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if o.Status == status {
		return nil
	}
	if o.Status.Terminal() && u.Role != user.RoleAdmin {
		return ErrStatusLocked
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		log.Error().Err(err).Int64("order_id", id).Str("new_status", newStatus).Msg("order: failed to update status")
		return err
	}

	log.Info().Int64("order_id", id).Str("old_status", o.Status.String()).Str("new_status", newStatus).Msg("order status updated")
	return nil
}

func (s *service) CancelOrder(ctx context.Context, u *user.User, id int64) error {
	o, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, u, o); err != nil {
		return err
	}

	// Cancelling twice stays Cancelled and succeeds.
	if o.Status == StatusCancelled {
		return nil
	}
	if o.Status.Terminal() && u.Role != user.RoleAdmin {
		return ErrStatusLocked
	}

	if err := s.repo.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		log.Error().Err(err).Int64("order_id", id).Msg("order: failed to cancel order")
		return err
	}

	log.Info().Int64("order_id", id).Msg("order cancelled")
	return nil
}

// ApplyPaymentUpdate wraps errors that no retry can cure with
// events.ErrBadUpdate so the consumer drops the message instead of
// requeueing it forever.
func (s *service) ApplyPaymentUpdate(ctx context.Context, orderID int64, paymentStatus string) error {
	ps := PaymentStatus(paymentStatus)
	if !ps.Valid() {
		return fmt.Errorf("%w: %w: %q", events.ErrBadUpdate, ErrInvalidStatus, paymentStatus)
	}
	if err := s.repo.SetPaymentStatus(ctx, orderID, ps); err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			return fmt.Errorf("%w: %w", events.ErrBadUpdate, err)
		}
		return err
	}
	return nil
}

// authorize applies CanAccessOrder, resolving the seller-product containment
// bit only when the decision needs it.
func (s *service) authorize(ctx context.Context, u *user.User, o *Order) error {
	sellerHasProduct := false
	if u.Role == user.RoleSeller && o.CustomerID != u.UUID {
		var err error
		sellerHasProduct, err = s.repo.SellerHasProductInOrder(ctx, o.ID, u.UUID)
		if err != nil {
			return fmt.Errorf("resolve seller products for order %d: %w", o.ID, err)
		}
	}
	if !CanAccessOrder(u, o, sellerHasProduct) {
		log.Warn().
			Int64("order_id", o.ID).
			Int64("user_id", u.ID).
			Str("role", u.Role.String()).
			Msg("order access denied")
		return ErrForbidden
	}
	return nil
}
