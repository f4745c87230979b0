// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names; the default exchange routes by queue name.
const (
	OrderPlacedQueue        = "order.placed"
	OrderStatusChangedQueue = "order.status_changed"
)

// OrderPlacedEvent is published after an order has been stored and the
// product stock decremented.  It carries enough detail for downstream
// consumers to log or notify without querying the primary database.
type OrderPlacedEvent struct {
	OrderID     string `json:"order_id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UserID      string `json:"user_id"`
	UserEmail   string `json:"user_email"`
	Quantity    int    `json:"quantity"`
	TotalPrice  string `json:"total_price"`
	PlacedAt    string `json:"placed_at"`
}

// OrderStatusChangedEvent is published when an admin moves an order to
// a new status.
type OrderStatusChangedEvent struct {
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	Status    string `json:"status"`
	ChangedBy string `json:"changed_by"`
	ChangedAt string `json:"changed_at"`
}
