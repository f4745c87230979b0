package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/queue"
	"github.com/iliyamo/efarm/internal/session"
)

// UserStore is the profile persistence the workflows need.
type UserStore interface {
	Create(ctx context.Context, p *model.Profile) error
	GetByEmail(ctx context.Context, email string) (*model.Profile, error)
	GetByID(ctx context.Context, id string) (*model.Profile, error)
	List(ctx context.Context) ([]model.Profile, error)
	UpdateRole(ctx context.Context, id string, role model.Role) error
	UpdateDetails(ctx context.Context, id, email string, fullName *string) error
	Delete(ctx context.Context, id string) error
	CountCreatedSince(ctx context.Context, t time.Time) (int, error)
}

// ProductStore is the catalogue persistence.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.Product, error)
	ListActive(ctx context.Context) ([]model.Product, error)
	ListAll(ctx context.Context) ([]model.Product, error)
	Count(ctx context.Context) (int, error)
	DecrementStock(ctx context.Context, id string, qty int) error
}

// OrderStore is the order persistence.
type OrderStore interface {
	Create(ctx context.Context, o *model.Order) error
	PlaceAtomic(ctx context.Context, o *model.Order, prepare func(p *model.Product) error) error
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListByUser(ctx context.Context, userID string) ([]model.OrderDetail, error)
	ListAll(ctx context.Context) ([]model.OrderDetail, error)
	Recent(ctx context.Context, limit int) ([]model.OrderDetail, error)
	Count(ctx context.Context) (int, error)
	ApprovedRevenue(ctx context.Context) (decimal.Decimal, error)
}

// LoginHistoryStore records logins for the dashboard.
type LoginHistoryStore interface {
	Record(ctx context.Context, userID string) error
	CountDistinctUsersSince(ctx context.Context, t time.Time) (int, error)
}

// Invalidator drops cached views of the given request paths.
type Invalidator interface {
	Invalidate(ctx context.Context, paths ...string)
}

// EventPublisher announces order events.  Failures never fail a workflow.
type EventPublisher interface {
	OrderPlaced(ctx context.Context, ev queue.OrderPlacedEvent) error
	OrderStatusChanged(ctx context.Context, ev queue.OrderStatusChangedEvent) error
}

// SessionRevoker invalidates every session issued to a user so far.
type SessionRevoker interface {
	Revoke(ctx context.Context, userID string) error
}

func requireUser(actor *session.User) error {
	if actor == nil || actor.ID == "" {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(actor *session.User) error {
	if err := requireUser(actor); err != nil {
		return err
	}
	if !actor.Role.IsAdmin() {
		return ErrUnauthorized
	}
	return nil
}

func invalidate(ctx context.Context, inv Invalidator, paths ...string) {
	if inv != nil {
		inv.Invalidate(ctx, paths...)
	}
}

// Cached view paths touched by the workflows.
const (
	pathCatalogue       = "/products"
	pathPublicCatalogue = "/api/public/products"
	pathHome            = "/home"
	pathOrders          = "/orders"
	pathOrdersAPI       = "/api/orders"
	pathAdminHome       = "/admin"
	pathAdminStats      = "/api/admin/stats"
	pathAdminOrders     = "/admin/orders"
	pathAdminOrdersAPI  = "/api/admin/orders"
	pathAdminProducts   = "/admin/products"
	pathAdminProductAPI = "/api/admin/products"
	pathAdminUsers      = "/admin/users"
	pathAdminUsersAPI   = "/api/admin/users"
)

func productPaths(id string) []string {
	paths := []string{pathCatalogue, pathPublicCatalogue, pathHome, pathAdminProducts, pathAdminProductAPI, pathAdminHome, pathAdminStats}
	if id != "" {
		paths = append(paths, pathCatalogue+"/"+id, pathPublicCatalogue+"/"+id, pathAdminProducts+"/"+id+"/edit")
	}
	return paths
}

func orderPaths() []string {
	return []string{pathOrders, pathOrdersAPI, pathAdminOrders, pathAdminOrdersAPI, pathAdminHome, pathAdminStats}
}
