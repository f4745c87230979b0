package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/queue"
	"github.com/iliyamo/efarm/internal/repository"
	"github.com/iliyamo/efarm/internal/session"
)

// PlaceOrderInput is the order placement request.  UserID and TotalPrice
// are accepted for compatibility with existing clients: UserID must name
// the session user and TotalPrice is only compared with the server-side
// figure.
type PlaceOrderInput struct {
	ProductID  string           `json:"product_id"`
	UserID     string           `json:"user_id"`
	Quantity   int              `json:"quantity"`
	TotalPrice *decimal.Decimal `json:"total_price"`
}

// OrderService runs order placement and status changes.
type OrderService struct {
	products ProductStore
	orders   OrderStore
	cache    Invalidator
	events   EventPublisher
	atomic   bool
	now      func() time.Time
}

// NewOrderService wires the order workflow.  With atomic set, placement
// runs as one transaction with the product row locked; otherwise the
// check, insert and decrement run as separate statements and a failed
// decrement leaves the order standing.
func NewOrderService(products ProductStore, orders OrderStore, cache Invalidator, events EventPublisher, atomic bool) *OrderService {
	return &OrderService{products: products, orders: orders, cache: cache, events: events, atomic: atomic, now: time.Now}
}

// PlaceOrder stores a pending order for actor and takes the quantity
// from stock.
func (s *OrderService) PlaceOrder(ctx context.Context, actor *session.User, in PlaceOrderInput) (*model.Order, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	in.ProductID = strings.TrimSpace(in.ProductID)
	if in.ProductID == "" {
		return nil, invalid("product_id is required")
	}
	if in.Quantity <= 0 {
		return nil, invalid("quantity must be a positive integer")
	}
	if in.UserID != "" && in.UserID != actor.ID {
		return nil, invalid("user_id does not match the signed-in user")
	}

	o := &model.Order{ProductID: in.ProductID, UserID: actor.ID, Quantity: in.Quantity, Status: model.OrderPending}
	var productName string
	price := func(p *model.Product) error {
		if !p.IsActive || !p.InStock(in.Quantity) {
			return ErrInsufficientStock
		}
		productName = p.Name
		o.TotalPrice = p.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		if in.TotalPrice != nil && !in.TotalPrice.Equal(o.TotalPrice) {
			slog.Warn("order: client total ignored", "product_id", p.ID, "client", in.TotalPrice.String(), "server", o.TotalPrice.String())
		}
		return nil
	}

	var err error
	if s.atomic {
		err = s.placeAtomic(ctx, o, price)
	} else {
		err = s.placeLegacy(ctx, o, price)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("order placed", "order_id", o.ID, "user_id", o.UserID, "product_id", o.ProductID, "quantity", o.Quantity)
	invalidate(ctx, s.cache, append(orderPaths(), productPaths(o.ProductID)...)...)
	if s.events != nil {
		ev := queue.OrderPlacedEvent{
			OrderID:     o.ID,
			ProductID:   o.ProductID,
			ProductName: productName,
			UserID:      o.UserID,
			UserEmail:   actor.Email,
			Quantity:    o.Quantity,
			TotalPrice:  o.TotalPrice.StringFixed(2),
			PlacedAt:    s.now().UTC().Format(time.RFC3339),
		}
		if err := s.events.OrderPlaced(ctx, ev); err != nil {
			slog.Warn("order: publish order.placed", "order_id", o.ID, "err", err)
		}
	}
	return o, nil
}

func (s *OrderService) placeAtomic(ctx context.Context, o *model.Order, price func(*model.Product) error) error {
	err := s.orders.PlaceAtomic(ctx, o, price)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInsufficientStock),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrNotFound):
		return ErrInsufficientStock
	}
	slog.Error("order: atomic placement", "product_id", o.ProductID, "err", err)
	return ErrOrderPersistence
}

func (s *OrderService) placeLegacy(ctx context.Context, o *model.Order, price func(*model.Product) error) error {
	p, err := s.products.GetByID(ctx, o.ProductID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInsufficientStock
	}
	if err != nil {
		slog.Error("order: load product", "product_id", o.ProductID, "err", err)
		return ErrPersistence
	}
	if err := price(p); err != nil {
		return err
	}
	if err := s.orders.Create(ctx, o); err != nil {
		slog.Error("order: insert", "product_id", o.ProductID, "err", err)
		return ErrOrderPersistence
	}
	if err := s.products.DecrementStock(ctx, o.ProductID, o.Quantity); err != nil {
		slog.Error("order: stock decrement failed, order stands", "order_id", o.ID, "product_id", o.ProductID, "err", err)
	}
	return nil
}

// SetOrderStatus moves an order to status.  Any transition is allowed.
func (s *OrderService) SetOrderStatus(ctx context.Context, actor *session.User, orderID, status string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	st, err := model.ParseOrderStatus(status)
	if err != nil {
		return invalid("status must be pending, approved or rejected")
	}
	o, err := s.orders.GetByID(ctx, orderID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		slog.Error("order status: load", "order_id", orderID, "err", err)
		return ErrPersistence
	}
	if err := s.orders.UpdateStatus(ctx, orderID, st); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		slog.Error("order status: update", "order_id", orderID, "err", err)
		return ErrPersistence
	}

	slog.Info("order status changed", "order_id", orderID, "from", o.Status, "to", st, "by", actor.ID)
	invalidate(ctx, s.cache, orderPaths()...)
	if s.events != nil {
		ev := queue.OrderStatusChangedEvent{
			OrderID:   orderID,
			UserID:    o.UserID,
			Status:    string(st),
			ChangedBy: actor.ID,
			ChangedAt: s.now().UTC().Format(time.RFC3339),
		}
		if err := s.events.OrderStatusChanged(ctx, ev); err != nil {
			slog.Warn("order: publish order.status_changed", "order_id", orderID, "err", err)
		}
	}
	return nil
}

// ListMine returns actor's orders, newest first.
func (s *OrderService) ListMine(ctx context.Context, actor *session.User) ([]model.OrderDetail, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	out, err := s.orders.ListByUser(ctx, actor.ID)
	if err != nil {
		slog.Error("orders: list by user", "user_id", actor.ID, "err", err)
		return nil, ErrPersistence
	}
	return out, nil
}

// ListAll returns every order for the back-office.
func (s *OrderService) ListAll(ctx context.Context, actor *session.User) ([]model.OrderDetail, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.orders.ListAll(ctx)
	if err != nil {
		slog.Error("orders: list all", "err", err)
		return nil, ErrPersistence
	}
	return out, nil
}
