package order_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/witchakorn/marketgo-backend/internal/events"
	"github.com/witchakorn/marketgo-backend/internal/modules/catalog"
	"github.com/witchakorn/marketgo-backend/internal/modules/order"
	"github.com/witchakorn/marketgo-backend/internal/modules/user"
)

var (
	adminUUID    = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	sellerUUID   = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	customerUUID = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
	strangerUUID = uuid.MustParse("00000000-0000-0000-0000-00000000000d")

	admin    = &user.User{ID: 1, UUID: adminUUID, Role: user.RoleAdmin}
	seller   = &user.User{ID: 2, UUID: sellerUUID, Role: user.RoleSeller}
	customer = &user.User{ID: 3, UUID: customerUUID, Role: user.RoleCustomer}
	stranger = &user.User{ID: 4, UUID: strangerUUID, Role: user.RoleSeller}
)

type mockOrderRepo struct {
	createFunc          func(ctx context.Context, o *order.Order, d *order.OrderDetail) error
	getByIDFunc         func(ctx context.Context, id int64) (*order.Order, error)
	listByCustomerFunc  func(ctx context.Context, customerID uuid.UUID) ([]order.Order, error)
	listBySellerFunc    func(ctx context.Context, sellerID uuid.UUID) ([]order.Order, error)
	sellerHasFunc       func(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error)
	updateStatusFunc    func(ctx context.Context, orderID int64, status order.Status) error
	setPaymentStatus    func(ctx context.Context, orderID int64, ps order.PaymentStatus) error
}

func (m *mockOrderRepo) CreateOrder(ctx context.Context, o *order.Order, d *order.OrderDetail) error {
	return m.createFunc(ctx, o, d)
}

func (m *mockOrderRepo) GetOrderByID(ctx context.Context, id int64) (*order.Order, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockOrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]order.Order, error) {
	return m.listByCustomerFunc(ctx, customerID)
}

func (m *mockOrderRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]order.Order, error) {
	return m.listBySellerFunc(ctx, sellerID)
}

func (m *mockOrderRepo) SellerHasProductInOrder(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error) {
	return m.sellerHasFunc(ctx, orderID, sellerID)
}

func (m *mockOrderRepo) UpdateStatus(ctx context.Context, orderID int64, status order.Status) error {
	return m.updateStatusFunc(ctx, orderID, status)
}

func (m *mockOrderRepo) SetPaymentStatus(ctx context.Context, orderID int64, ps order.PaymentStatus) error {
	return m.setPaymentStatus(ctx, orderID, ps)
}

type mockProductRepo struct {
	catalog.Repository
	getByIDFunc func(ctx context.Context, id int64) (*catalog.Product, error)
}

func (m *mockProductRepo) GetByID(ctx context.Context, id int64) (*catalog.Product, error) {
	return m.getByIDFunc(ctx, id)
}

type recordingPublisher struct {
	published []events.PaymentRequest
	err       error
}

func (p *recordingPublisher) PublishPaymentRequest(_ context.Context, req events.PaymentRequest) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, req)
	return nil
}

func sellerProduct() *catalog.Product {
	return &catalog.Product{ID: 10, OwnerID: sellerUUID, Name: "Widget", Price: 10.0, Stock: 5}
}

func TestCreateOrder(t *testing.T) {
	validReq := order.CreateOrderRequest{ProductID: 10, Quantity: 3, PaymentMethod: "Credit card"}

	t.Run("success", func(t *testing.T) {
		repo := &mockOrderRepo{
			createFunc: func(ctx context.Context, o *order.Order, d *order.OrderDetail) error {
				o.ID = 42
				d.ID = 7
				d.OrderID = 42
				return nil
			},
		}
		products := &mockProductRepo{getByIDFunc: func(ctx context.Context, id int64) (*catalog.Product, error) {
			return sellerProduct(), nil
		}}
		pub := &recordingPublisher{}
		svc := order.NewService(repo, products, pub)

		o, d, err := svc.CreateOrder(context.Background(), customer, validReq)
		require.NoError(t, err)

		assert.Equal(t, int64(42), o.ID)
		assert.Equal(t, customerUUID, o.CustomerID)
		assert.Equal(t, order.StatusPendingPayment, o.Status)
		assert.Equal(t, order.PaymentStatusProcessing, o.PaymentStatus)
		assert.Equal(t, order.PaymentCreditCard, o.PaymentMethod)
		assert.WithinDuration(t, time.Now().UTC(), o.OrderAt, 5*time.Second)

		assert.Equal(t, int64(42), d.OrderID)
		assert.Equal(t, int64(10), d.ProductID)
		assert.Equal(t, 3, d.Quantity)
		assert.Equal(t, 30.0, d.Price)

		require.Len(t, pub.published, 1)
		assert.Equal(t, int64(42), pub.published[0].OrderID)
		assert.Equal(t, 30.0, pub.published[0].Amount)
	})

	t.Run("product_not_found", func(t *testing.T) {
		products := &mockProductRepo{getByIDFunc: func(ctx context.Context, id int64) (*catalog.Product, error) {
			return nil, catalog.ErrNotFound
		}}
		svc := order.NewService(&mockOrderRepo{}, products, events.NopPublisher{})

		_, _, err := svc.CreateOrder(context.Background(), customer, validReq)
		assert.ErrorIs(t, err, order.ErrProductNotFound)
	})

	t.Run("insufficient_stock", func(t *testing.T) {
		products := &mockProductRepo{getByIDFunc: func(ctx context.Context, id int64) (*catalog.Product, error) {
			return sellerProduct(), nil
		}}
		svc := order.NewService(&mockOrderRepo{}, products, events.NopPublisher{})

		req := validReq
		req.Quantity = 6
		_, _, err := svc.CreateOrder(context.Background(), customer, req)
		assert.ErrorIs(t, err, order.ErrInsufficientStock)
	})

	t.Run("self_purchase_forbidden", func(t *testing.T) {
		products := &mockProductRepo{getByIDFunc: func(ctx context.Context, id int64) (*catalog.Product, error) {
			return sellerProduct(), nil
		}}
		svc := order.NewService(&mockOrderRepo{}, products, events.NopPublisher{})

		_, _, err := svc.CreateOrder(context.Background(), seller, validReq)
		assert.ErrorIs(t, err, order.ErrSelfPurchase)
	})

	t.Run("stock_check_runs_before_self_purchase", func(t *testing.T) {
		products := &mockProductRepo{getByIDFunc: func(ctx context.Context, id int64) (*catalog.Product, error) {
			return sellerProduct(), nil
		}}
		svc := order.NewService(&mockOrderRepo{}, products, events.NopPublisher{})

		req := validReq
		req.Quantity = 6
		_, _, err := svc.CreateOrder(context.Background(), seller, req)
		assert.ErrorIs(t, err, order.ErrInsufficientStock)
	})

	t.Run("invalid_payment_method", func(t *testing.T) {
		svc := order.NewService(&mockOrderRepo{}, &mockProductRepo{}, events.NopPublisher{})

		req := validReq
		req.PaymentMethod = "Barter"
		_, _, err := svc.CreateOrder(context.Background(), customer, req)
		assert.ErrorIs(t, err, order.ErrInvalidPaymentMethod)
	})

	t.Run("invalid_quantity", func(t *testing.T) {
		svc := order.NewService(&mockOrderRepo{}, &mockProductRepo{}, events.NopPublisher{})

		req := validReq
		req.Quantity = 0
		_, _, err := svc.CreateOrder(context.Background(), customer, req)
		assert.ErrorIs(t, err, order.ErrInvalidQuantity)
	})

	t.Run("repository_race_surfaces_insufficient_stock", func(t *testing.T) {
		repo := &mockOrderRepo{
			createFunc: func(ctx context.Context, o *order.Order, d *order.OrderDetail) error {
				return order.ErrInsufficientStock
			},
		}
		products := &mockProductRepo{getByIDFunc: func(ctx context.Context, id int64) (*catalog.Product, error) {
			return sellerProduct(), nil
		}}
		svc := order.NewService(repo, products, events.NopPublisher{})

		_, _, err := svc.CreateOrder(context.Background(), customer, validReq)
		assert.ErrorIs(t, err, order.ErrInsufficientStock)
	})

	t.Run("publish_failure_does_not_fail_order", func(t *testing.T) {
		repo := &mockOrderRepo{
			createFunc: func(ctx context.Context, o *order.Order, d *order.OrderDetail) error {
				o.ID = 42
				return nil
			},
		}
		products := &mockProductRepo{getByIDFunc: func(ctx context.Context, id int64) (*catalog.Product, error) {
			return sellerProduct(), nil
		}}
		svc := order.NewService(repo, products, &recordingPublisher{err: errors.New("broker down")})

		_, _, err := svc.CreateOrder(context.Background(), customer, validReq)
		assert.NoError(t, err)
	})
}

func TestGetOrderByID(t *testing.T) {
	existing := func(ctx context.Context, id int64) (*order.Order, error) {
		return &order.Order{ID: id, CustomerID: customerUUID, Status: order.StatusPendingPayment}, nil
	}

	tests := []struct {
		name          string
		actor         *user.User
		getByIDFunc   func(ctx context.Context, id int64) (*order.Order, error)
		sellerHasFunc func(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error)
		wantErr       error
	}{
		{
			name:        "admin_any_order",
			actor:       admin,
			getByIDFunc: existing,
		},
		{
			name:        "customer_own_order",
			actor:       customer,
			getByIDFunc: existing,
		},
		{
			name:  "not_found_short_circuits_before_authorization",
			actor: customer,
			getByIDFunc: func(ctx context.Context, id int64) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			wantErr: order.ErrOrderNotFound,
		},
		{
			name:        "seller_with_product",
			actor:       seller,
			getByIDFunc: existing,
			sellerHasFunc: func(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error) {
				return true, nil
			},
		},
		{
			name:        "unrelated_seller_forbidden",
			actor:       stranger,
			getByIDFunc: existing,
			sellerHasFunc: func(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error) {
				return false, nil
			},
			wantErr: order.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockOrderRepo{
				getByIDFunc:   tt.getByIDFunc,
				sellerHasFunc: tt.sellerHasFunc,
			}
			svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

			o, err := svc.GetOrderByID(context.Background(), tt.actor, 1)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, o)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(1), o.ID)
			}
		})
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	load := func(status order.Status) func(ctx context.Context, id int64) (*order.Order, error) {
		return func(ctx context.Context, id int64) (*order.Order, error) {
			return &order.Order{ID: id, CustomerID: customerUUID, Status: status}, nil
		}
	}

	t.Run("customer_forbidden_even_for_own_order", func(t *testing.T) {
		repo := &mockOrderRepo{getByIDFunc: load(order.StatusPendingPayment)}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		err := svc.UpdateOrderStatus(context.Background(), customer, 1, "Shipped")
		assert.ErrorIs(t, err, order.ErrForbidden)
	})

	t.Run("invalid_status_rejected", func(t *testing.T) {
		repo := &mockOrderRepo{getByIDFunc: load(order.StatusPendingPayment)}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		err := svc.UpdateOrderStatus(context.Background(), admin, 1, "Lost in space")
		assert.ErrorIs(t, err, order.ErrInvalidStatus)
	})

	t.Run("seller_updates_own_product_order", func(t *testing.T) {
		var written order.Status
		repo := &mockOrderRepo{
			getByIDFunc: load(order.StatusProcessing),
			sellerHasFunc: func(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error) {
				return true, nil
			},
			updateStatusFunc: func(ctx context.Context, orderID int64, status order.Status) error {
				written = status
				return nil
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		err := svc.UpdateOrderStatus(context.Background(), seller, 1, "Shipped")
		require.NoError(t, err)
		assert.Equal(t, order.StatusShipped, written)
	})

	t.Run("terminal_state_frozen_for_seller", func(t *testing.T) {
		repo := &mockOrderRepo{
			getByIDFunc: load(order.StatusDelivered),
			sellerHasFunc: func(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error) {
				return true, nil
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		err := svc.UpdateOrderStatus(context.Background(), seller, 1, "Processing")
		assert.ErrorIs(t, err, order.ErrStatusLocked)
	})

	t.Run("admin_may_leave_terminal_state", func(t *testing.T) {
		var written order.Status
		repo := &mockOrderRepo{
			getByIDFunc: load(order.StatusDelivered),
			updateStatusFunc: func(ctx context.Context, orderID int64, status order.Status) error {
				written = status
				return nil
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		err := svc.UpdateOrderStatus(context.Background(), admin, 1, "Returned")
		require.NoError(t, err)
		assert.Equal(t, order.StatusReturned, written)
	})

	t.Run("same_status_is_a_no_op", func(t *testing.T) {
		repo := &mockOrderRepo{getByIDFunc: load(order.StatusShipped)}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		// updateStatusFunc is nil; a write attempt would panic.
		err := svc.UpdateOrderStatus(context.Background(), admin, 1, "Shipped")
		assert.NoError(t, err)
	})
}

func TestCancelOrder(t *testing.T) {
	load := func(status order.Status) func(ctx context.Context, id int64) (*order.Order, error) {
		return func(ctx context.Context, id int64) (*order.Order, error) {
			return &order.Order{ID: id, CustomerID: customerUUID, Status: status}, nil
		}
	}

	t.Run("customer_cancels_own_order", func(t *testing.T) {
		var written order.Status
		repo := &mockOrderRepo{
			getByIDFunc: load(order.StatusPendingPayment),
			updateStatusFunc: func(ctx context.Context, orderID int64, status order.Status) error {
				written = status
				return nil
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		require.NoError(t, svc.CancelOrder(context.Background(), customer, 1))
		assert.Equal(t, order.StatusCancelled, written)
	})

	t.Run("cancel_is_idempotent", func(t *testing.T) {
		repo := &mockOrderRepo{getByIDFunc: load(order.StatusCancelled)}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		assert.NoError(t, svc.CancelOrder(context.Background(), customer, 1))
		assert.NoError(t, svc.CancelOrder(context.Background(), customer, 1))
	})

	t.Run("delivered_order_protected_from_seller_cancel", func(t *testing.T) {
		repo := &mockOrderRepo{
			getByIDFunc: load(order.StatusDelivered),
			sellerHasFunc: func(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error) {
				return true, nil
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		assert.ErrorIs(t, svc.CancelOrder(context.Background(), seller, 1), order.ErrStatusLocked)
	})

	t.Run("stranger_forbidden", func(t *testing.T) {
		repo := &mockOrderRepo{
			getByIDFunc: load(order.StatusPendingPayment),
			sellerHasFunc: func(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error) {
				return false, nil
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		assert.ErrorIs(t, svc.CancelOrder(context.Background(), stranger, 1), order.ErrForbidden)
	})

	t.Run("not_found", func(t *testing.T) {
		repo := &mockOrderRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		assert.ErrorIs(t, svc.CancelOrder(context.Background(), customer, 99), order.ErrOrderNotFound)
	})
}

func TestOrderListings(t *testing.T) {
	buy := []order.Order{{ID: 1, CustomerID: customerUUID}}
	sell := []order.Order{{ID: 1, CustomerID: customerUUID}, {ID: 2, CustomerID: strangerUUID}}

	repo := &mockOrderRepo{
		listByCustomerFunc: func(ctx context.Context, customerID uuid.UUID) ([]order.Order, error) {
			if customerID == customerUUID {
				return buy, nil
			}
			return []order.Order{}, nil
		},
		listBySellerFunc: func(ctx context.Context, sellerID uuid.UUID) ([]order.Order, error) {
			if sellerID == sellerUUID {
				return sell, nil
			}
			return []order.Order{}, nil
		},
	}
	svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

	got, err := svc.GetBuyOrders(context.Background(), customer)
	require.NoError(t, err)
	assert.Equal(t, buy, got)

	got, err = svc.GetSellOrders(context.Background(), seller)
	require.NoError(t, err)
	assert.Equal(t, sell, got)

	// The seller placed no orders of their own.
	got, err = svc.GetBuyOrders(context.Background(), seller)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApplyPaymentUpdate(t *testing.T) {
	t.Run("valid_status_written", func(t *testing.T) {
		var gotStatus order.PaymentStatus
		repo := &mockOrderRepo{
			setPaymentStatus: func(ctx context.Context, orderID int64, ps order.PaymentStatus) error {
				gotStatus = ps
				return nil
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		require.NoError(t, svc.ApplyPaymentUpdate(context.Background(), 1, "Paid"))
		assert.Equal(t, order.PaymentStatusPaid, gotStatus)
	})

	t.Run("unknown_status_rejected_as_unprocessable", func(t *testing.T) {
		svc := order.NewService(&mockOrderRepo{}, &mockProductRepo{}, events.NopPublisher{})

		err := svc.ApplyPaymentUpdate(context.Background(), 1, "Refunded")
		assert.ErrorIs(t, err, order.ErrInvalidStatus)
		assert.ErrorIs(t, err, events.ErrBadUpdate)
	})

	t.Run("missing_order_is_unprocessable", func(t *testing.T) {
		repo := &mockOrderRepo{
			setPaymentStatus: func(ctx context.Context, orderID int64, ps order.PaymentStatus) error {
				return order.ErrOrderNotFound
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		err := svc.ApplyPaymentUpdate(context.Background(), 99, "Paid")
		assert.ErrorIs(t, err, order.ErrOrderNotFound)
		assert.ErrorIs(t, err, events.ErrBadUpdate)
	})

	t.Run("store_fault_left_retryable", func(t *testing.T) {
		repo := &mockOrderRepo{
			setPaymentStatus: func(ctx context.Context, orderID int64, ps order.PaymentStatus) error {
				return errors.New("connection reset")
			},
		}
		svc := order.NewService(repo, &mockProductRepo{}, events.NopPublisher{})

		err := svc.ApplyPaymentUpdate(context.Background(), 1, "Paid")
		require.Error(t, err)
		assert.NotErrorIs(t, err, events.ErrBadUpdate)
	})
}
