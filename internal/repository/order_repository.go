package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/efarm/internal/model"
)

const orderDetailSelect = `SELECT o.id, o.product_id, o.user_id, o.quantity, o.total_price, o.status, o.created_at,
       p.name AS product_name, p.price AS product_price, p.image_url AS product_image_url,
       u.full_name AS customer_name, u.email AS customer_email
FROM orders o
JOIN products p ON p.id = o.product_id
JOIN profiles u ON u.id = o.user_id`

// OrderRepo encapsulates order persistence, including the transactional
// placement used when stock must be reserved atomically.
type OrderRepo struct {
	db *sqlx.DB
}

// NewOrderRepo constructs an OrderRepo.
func NewOrderRepo(db *sqlx.DB) *OrderRepo {
	return &OrderRepo{db: db}
}

func stampOrder(o *model.Order) {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = model.OrderPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
}

const insertOrder = `INSERT INTO orders (id, product_id, user_id, quantity, total_price, status, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

// Create inserts an order without touching stock.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	stampOrder(o)
	_, err := r.db.ExecContext(ctx, insertOrder,
		o.ID, o.ProductID, o.UserID, o.Quantity, o.TotalPrice, o.Status, o.CreatedAt)
	return err
}

// PlaceAtomic locks the product row, lets prepare validate it and fill
// in the order, inserts the order and decrements stock, all in a single
// transaction.  A missing product yields ErrNotFound; a stock shortage
// seen by the conditional update yields ErrInsufficientStock.  Any error
// from prepare aborts the transaction and is returned unchanged.
func (r *OrderRepo) PlaceAtomic(ctx context.Context, o *model.Order, prepare func(p *model.Product) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	var p model.Product
	err = tx.GetContext(ctx, &p, "SELECT "+productColumns+" FROM products WHERE id = ? FOR UPDATE", o.ProductID)
	if errors.Is(err, sql.ErrNoRows) {
		err = ErrNotFound
		return err
	}
	if err != nil {
		return err
	}
	if err = prepare(&p); err != nil {
		return err
	}

	stampOrder(o)
	if _, err = tx.ExecContext(ctx, insertOrder,
		o.ID, o.ProductID, o.UserID, o.Quantity, o.TotalPrice, o.Status, o.CreatedAt); err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?",
		o.Quantity, o.ProductID, o.Quantity)
	if err = affectedOne(res, err); errors.Is(err, ErrNotFound) {
		err = ErrInsufficientStock
	}
	return err
}

// UpdateStatus sets an order's status.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	res, err := r.db.ExecContext(ctx, "UPDATE orders SET status=? WHERE id=?", status, id)
	return affectedOne(res, err)
}

// GetByID fetches a bare order.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.db.GetContext(ctx, &o,
		"SELECT id, product_id, user_id, quantity, total_price, status, created_at FROM orders WHERE id=?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser returns a user's orders with product details, newest first.
func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]model.OrderDetail, error) {
	out := []model.OrderDetail{}
	err := r.db.SelectContext(ctx, &out, orderDetailSelect+" WHERE o.user_id = ? ORDER BY o.created_at DESC", userID)
	return out, err
}

// ListAll returns every order with product and customer details.
func (r *OrderRepo) ListAll(ctx context.Context) ([]model.OrderDetail, error) {
	out := []model.OrderDetail{}
	err := r.db.SelectContext(ctx, &out, orderDetailSelect+" ORDER BY o.created_at DESC")
	return out, err
}

// Recent returns the limit most recent orders.
func (r *OrderRepo) Recent(ctx context.Context, limit int) ([]model.OrderDetail, error) {
	out := []model.OrderDetail{}
	err := r.db.SelectContext(ctx, &out, orderDetailSelect+" ORDER BY o.created_at DESC LIMIT ?", limit)
	return out, err
}

// Count returns the number of orders.
func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM orders")
	return n, err
}

// ApprovedRevenue sums total_price over approved orders.
func (r *OrderRepo) ApprovedRevenue(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	if err := r.db.GetContext(ctx, &sum,
		"SELECT SUM(total_price) FROM orders WHERE status = ?", model.OrderApproved); err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal, nil
}
