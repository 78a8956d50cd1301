package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

// NewPostgresRepository creates a new PostgreSQL order repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const orderColumns = `id, customer_id, status, order_at, payment_method, payment_status`

// CreateOrder inserts the order and its detail inside a single transaction.
// The product row is locked first so the stock check and decrement cannot
// race with a concurrent purchase.
func (r *postgresRepo) CreateOrder(ctx context.Context, o *Order, d *OrderDetail) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var stock int
	err = tx.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = $1 FOR UPDATE`, d.ProductID).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		return fmt.Errorf("lock product: %w", err)
	}
	if stock < d.Quantity {
		return ErrInsufficientStock
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = now() WHERE id = $1`,
		d.ProductID, d.Quantity); err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_id, status, order_at, payment_method, payment_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		o.CustomerID, o.Status, o.OrderAt, o.PaymentMethod, o.PaymentStatus,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	d.OrderID = o.ID
	err = tx.QueryRowContext(ctx, `
		INSERT INTO order_details (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		d.OrderID, d.ProductID, d.Quantity, d.Price,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert order detail: %w", err)
	}

	return tx.Commit()
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id int64) (*Order, error) {
	o := &Order{}
	err := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.CustomerID, &o.Status, &o.OrderAt, &o.PaymentMethod, &o.PaymentStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("select order %d: %w", id, err)
	}
	return o, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]Order, error) {
	return r.queryOrders(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE customer_id = $1
		ORDER BY order_at DESC`, customerID)
}

// ListBySeller resolves seller's products -> order details -> distinct parent
// orders as one query; the composition is explicit, no association traversal.
func (r *postgresRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]Order, error) {
	return r.queryOrders(ctx, `
		SELECT DISTINCT o.id, o.customer_id, o.status, o.order_at, o.payment_method, o.payment_status
		FROM orders o
		JOIN order_details od ON od.order_id = o.id
		JOIN products p ON p.id = od.product_id
		WHERE p.owner_id = $1
		ORDER BY o.order_at DESC`, sellerID)
}

func (r *postgresRepo) SellerHasProductInOrder(ctx context.Context, orderID int64, sellerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM order_details od
			JOIN products p ON p.id = od.product_id
			WHERE od.order_id = $1 AND p.owner_id = $2
		)`, orderID, sellerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check seller products in order %d: %w", orderID, err)
	}
	return exists, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, orderID int64, status Status) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`, status, orderID)
	if err != nil {
		return fmt.Errorf("update order status %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepo) SetPaymentStatus(ctx context.Context, orderID int64, ps PaymentStatus) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET payment_status = $1,
		    status = CASE WHEN $1 = 'Paid' AND status = 'Pending payment'
		                  THEN 'Processing' ELSE status END
		WHERE id = $2`, ps, orderID)
	if err != nil {
		return fmt.Errorf("set payment status %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *postgresRepo) queryOrders(ctx context.Context, query string, args ...interface{}) ([]Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]Order, 0)
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.OrderAt,
			&o.PaymentMethod, &o.PaymentStatus); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
