package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/repository"
	"github.com/iliyamo/efarm/internal/session"
)

// RecentOrdersLimit is how many orders the dashboard lists.
const RecentOrdersLimit = 5

// ProductInput is the product save payload; an empty ID creates.
type ProductInput struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	Description   *string         `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      *string         `json:"image_url"`
	IsActive      *bool           `json:"is_active"`
}

// SettingsInput is the self-service profile update.
type SettingsInput struct {
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
}

// DashboardStats is the admin landing page summary.
type DashboardStats struct {
	ProductCount     int                 `json:"product_count"`
	OrderCount       int                 `json:"order_count"`
	RecentOrders     []model.OrderDetail `json:"recent_orders"`
	ActiveUsersToday int                 `json:"active_users_today"`
	NewUsersThisWeek int                 `json:"new_users_this_week"`
	EstimatedRevenue decimal.Decimal     `json:"estimated_revenue"`
}

// AdminService holds the back-office operations.  Every method
// re-checks that the actor is an admin.
type AdminService struct {
	users    UserStore
	products ProductStore
	orders   OrderStore
	logins   LoginHistoryStore
	cache    Invalidator
	revoker  SessionRevoker
	now      func() time.Time
}

// NewAdminService wires the back-office workflows.  cache and revoker
// may be nil.
func NewAdminService(users UserStore, products ProductStore, orders OrderStore, logins LoginHistoryStore, cache Invalidator, revoker SessionRevoker) *AdminService {
	return &AdminService{users: users, products: products, orders: orders, logins: logins, cache: cache, revoker: revoker, now: time.Now}
}

func (s *AdminService) revoke(ctx context.Context, userID string) {
	if s.revoker == nil {
		return
	}
	if err := s.revoker.Revoke(ctx, userID); err != nil {
		slog.Warn("admin: revoke sessions", "user_id", userID, "err", err)
	}
}

func notFoundOr(err error, op string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	slog.Error(op, "err", err)
	return ErrPersistence
}

// SetUserRole changes a profile's role.  An admin may not demote
// themselves.  The target's existing sessions are revoked so the new
// role applies on their next request.
func (s *AdminService) SetUserRole(ctx context.Context, actor *session.User, userID, role string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	r, err := model.ParseRole(role)
	if err != nil {
		return invalid("role must be admin or user")
	}
	if userID == actor.ID && !r.IsAdmin() {
		return ErrForbiddenSelfDemotion
	}
	if err := s.users.UpdateRole(ctx, userID, r); err != nil {
		return notFoundOr(err, "admin: update role")
	}
	slog.Info("user role changed", "user_id", userID, "role", r, "by", actor.ID)
	s.revoke(ctx, userID)
	invalidate(ctx, s.cache, pathAdminUsers, pathAdminUsersAPI)
	return nil
}

// DeleteUser removes a profile other than the actor's own.
func (s *AdminService) DeleteUser(ctx context.Context, actor *session.User, userID string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if userID == actor.ID {
		return ErrForbiddenSelfDeletion
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return notFoundOr(err, "admin: delete user")
	}
	slog.Info("user deleted", "user_id", userID, "by", actor.ID)
	s.revoke(ctx, userID)
	invalidate(ctx, s.cache, append(orderPaths(), pathAdminUsers, pathAdminUsersAPI)...)
	return nil
}

// SaveProduct creates a product when in.ID is empty and updates it
// otherwise.
func (s *AdminService) SaveProduct(ctx context.Context, actor *session.User, in ProductInput) (*model.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p := &model.Product{
		ID:            strings.TrimSpace(in.ID),
		Name:          strings.TrimSpace(in.Name),
		Category:      strings.TrimSpace(in.Category),
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		ImageURL:      in.ImageURL,
		IsActive:      in.IsActive == nil || *in.IsActive,
	}
	switch {
	case p.Name == "":
		return nil, invalid("name is required")
	case p.Category == "":
		return nil, invalid("category is required")
	case p.Price.IsNegative():
		return nil, invalid("price must not be negative")
	case p.StockQuantity < 0:
		return nil, invalid("stock quantity must not be negative")
	}

	if p.ID == "" {
		if err := s.products.Create(ctx, p); err != nil {
			slog.Error("admin: create product", "err", err)
			return nil, ErrPersistence
		}
	} else if err := s.products.Update(ctx, p); err != nil {
		return nil, notFoundOr(err, "admin: update product")
	}
	slog.Info("product saved", "product_id", p.ID, "by", actor.ID)
	invalidate(ctx, s.cache, productPaths(p.ID)...)
	return p, nil
}

// DeleteProduct removes a product with no orders.
func (s *AdminService) DeleteProduct(ctx context.Context, actor *session.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return fmt.Errorf("%w: product has orders, deactivate it instead", ErrConflict)
		}
		return notFoundOr(err, "admin: delete product")
	}
	slog.Info("product deleted", "product_id", id, "by", actor.ID)
	invalidate(ctx, s.cache, productPaths(id)...)
	return nil
}

// ListUsers returns every profile without password hashes.
func (s *AdminService) ListUsers(ctx context.Context, actor *session.User) ([]model.PublicProfile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	list, err := s.users.List(ctx)
	if err != nil {
		slog.Error("admin: list users", "err", err)
		return nil, ErrPersistence
	}
	out := make([]model.PublicProfile, 0, len(list))
	for _, p := range list {
		out = append(out, p.Public())
	}
	return out, nil
}

// ListProducts returns the whole catalogue including inactive products.
func (s *AdminService) ListProducts(ctx context.Context, actor *session.User) ([]model.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	out, err := s.products.ListAll(ctx)
	if err != nil {
		slog.Error("admin: list products", "err", err)
		return nil, ErrPersistence
	}
	return out, nil
}

// Product fetches one product for the edit page.
func (s *AdminService) Product(ctx context.Context, actor *session.User, id string) (*model.Product, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "admin: get product")
	}
	return p, nil
}

// Stats assembles the dashboard summary.  "Today" starts at UTC
// midnight; "this week" is the trailing seven days.
func (s *AdminService) Stats(ctx context.Context, actor *session.User) (*DashboardStats, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var (
		st  DashboardStats
		err error
	)
	fail := func(op string, err error) (*DashboardStats, error) {
		slog.Error("admin: stats "+op, "err", err)
		return nil, ErrPersistence
	}
	if st.ProductCount, err = s.products.Count(ctx); err != nil {
		return fail("products", err)
	}
	if st.OrderCount, err = s.orders.Count(ctx); err != nil {
		return fail("orders", err)
	}
	if st.RecentOrders, err = s.orders.Recent(ctx, RecentOrdersLimit); err != nil {
		return fail("recent orders", err)
	}
	if s.logins != nil {
		if st.ActiveUsersToday, err = s.logins.CountDistinctUsersSince(ctx, today); err != nil {
			return fail("active users", err)
		}
	}
	if st.NewUsersThisWeek, err = s.users.CountCreatedSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		return fail("new users", err)
	}
	if st.EstimatedRevenue, err = s.orders.ApprovedRevenue(ctx); err != nil {
		return fail("revenue", err)
	}
	return &st, nil
}

// Profile returns the actor's own stored profile.
func (s *AdminService) Profile(ctx context.Context, actor *session.User) (*model.PublicProfile, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, notFoundOr(err, "admin: load profile")
	}
	pub := p.Public()
	return &pub, nil
}

// UpdateSettings rewrites the actor's own email and full name and
// returns the identity the refreshed session should carry.
func (s *AdminService) UpdateSettings(ctx context.Context, actor *session.User, in SettingsInput) (session.User, error) {
	if err := requireAdmin(actor); err != nil {
		return session.User{}, err
	}
	email := repository.NormalizeEmail(in.Email)
	if email == "" {
		email = actor.Email
	}
	if !strings.Contains(email, "@") {
		return session.User{}, invalid("email address is malformed")
	}
	name := actor.FullName
	if in.FullName != nil {
		trimmed := strings.TrimSpace(*in.FullName)
		name = &trimmed
	}
	if err := s.users.UpdateDetails(ctx, actor.ID, email, name); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return session.User{}, fmt.Errorf("%w: a user with this email already exists", ErrConflict)
		}
		return session.User{}, notFoundOr(err, "admin: update settings")
	}
	invalidate(ctx, s.cache, pathAdminUsers, pathAdminUsersAPI)
	return session.User{ID: actor.ID, Email: email, FullName: name, Role: actor.Role}, nil
}
