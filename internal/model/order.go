package model

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.  Orders always start
// as pending; admins may move them to any status.
type OrderStatus string

const (
	OrderPending  OrderStatus = "pending"
	OrderApproved OrderStatus = "approved"
	OrderRejected OrderStatus = "rejected"
)

// ErrUnknownStatus is returned by ParseOrderStatus for unknown values.
var ErrUnknownStatus = errors.New("unknown order status")

// ParseOrderStatus validates a status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderPending, OrderApproved, OrderRejected:
		return st, nil
	}
	return "", ErrUnknownStatus
}

// Order records a user's purchase of a single product.
//
// Fields:
//
//	ID         – uuid primary key.
//	ProductID  – product being bought.
//	UserID     – profile that placed the order.
//	Quantity   – number of units, always positive.
//	TotalPrice – price × quantity computed server-side at placement.
//	Status     – pending, approved or rejected.
//	CreatedAt  – creation timestamp.
type Order struct {
	ID         string          `db:"id" json:"id"`
	ProductID  string          `db:"product_id" json:"product_id"`
	UserID     string          `db:"user_id" json:"user_id"`
	Quantity   int             `db:"quantity" json:"quantity"`
	TotalPrice decimal.Decimal `db:"total_price" json:"total_price"`
	Status     OrderStatus     `db:"status" json:"status"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// OrderDetail is an order joined with its product and customer, used
// by the order list pages.
type OrderDetail struct {
	Order
	ProductName     string          `db:"product_name" json:"product_name"`
	ProductPrice    decimal.Decimal `db:"product_price" json:"product_price"`
	ProductImageURL *string         `db:"product_image_url" json:"product_image_url"`
	CustomerName    *string         `db:"customer_name" json:"customer_name"`
	CustomerEmail   string          `db:"customer_email" json:"customer_email"`
}
