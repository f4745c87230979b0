package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/service/servicetest"
	"github.com/iliyamo/efarm/internal/session"
)

func strptr(s string) *string { return &s }

func seedProfiles(t *testing.T, m *servicetest.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, m.Users().Create(ctx, &model.Profile{ID: admin.ID, Email: admin.Email, Role: model.RoleAdmin, PasswordHash: "x"}))
	require.NoError(t, m.Users().Create(ctx, &model.Profile{ID: buyer.ID, Email: buyer.Email, Role: model.RoleUser, PasswordHash: "x"}))
}

func newAdmin(m *servicetest.Store) (*AdminService, *servicetest.Recorder) {
	rec := &servicetest.Recorder{}
	return NewAdminService(m.Users(), m.Products(), m.Orders(), m, rec, rec), rec
}

func roleOf(t *testing.T, m *servicetest.Store, id string) model.Role {
	t.Helper()
	p, err := m.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Role
}

func TestSetUserRoleSelfDemotion(t *testing.T) {
	m := servicetest.NewStore()
	seedProfiles(t, m)
	svc, rec := newAdmin(m)

	err := svc.SetUserRole(context.Background(), admin, admin.ID, "user")
	assert.ErrorIs(t, err, ErrForbiddenSelfDemotion)
	assert.Equal(t, model.RoleAdmin, roleOf(t, m, admin.ID))
	assert.Empty(t, rec.Revoked)

	// Re-asserting one's own admin role is harmless.
	assert.NoError(t, svc.SetUserRole(context.Background(), admin, admin.ID, "admin"))
}

func TestSetUserRole(t *testing.T) {
	m := servicetest.NewStore()
	seedProfiles(t, m)
	svc, rec := newAdmin(m)
	ctx := context.Background()

	assert.ErrorIs(t, svc.SetUserRole(ctx, buyer, buyer.ID, "admin"), ErrUnauthorized)
	assert.ErrorIs(t, svc.SetUserRole(ctx, nil, buyer.ID, "admin"), ErrUnauthenticated)
	assert.ErrorIs(t, svc.SetUserRole(ctx, admin, buyer.ID, "root"), ErrValidation)
	assert.ErrorIs(t, svc.SetUserRole(ctx, admin, "ghost", "admin"), ErrNotFound)

	require.NoError(t, svc.SetUserRole(ctx, admin, buyer.ID, "admin"))
	assert.Equal(t, model.RoleAdmin, roleOf(t, m, buyer.ID))
	assert.Equal(t, []string{buyer.ID}, rec.Revoked)
	assert.Contains(t, rec.Invalidated, "/admin/users")
}

func TestDeleteUser(t *testing.T) {
	m := servicetest.NewStore()
	seedProfiles(t, m)
	svc, rec := newAdmin(m)
	ctx := context.Background()

	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, admin.ID), ErrForbiddenSelfDeletion)
	_, err := m.Users().GetByID(ctx, admin.ID)
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteUser(ctx, buyer, admin.ID), ErrUnauthorized)
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, "ghost"), ErrNotFound)

	require.NoError(t, svc.DeleteUser(ctx, admin, buyer.ID))
	_, err = m.Users().GetByID(ctx, buyer.ID)
	assert.Error(t, err)
	assert.Equal(t, []string{buyer.ID}, rec.Revoked)
}

func TestSaveProduct(t *testing.T) {
	m := servicetest.NewStore()
	svc, rec := newAdmin(m)
	ctx := context.Background()

	in := ProductInput{Name: "Maize seed", Category: "seeds", Price: decimal.RequireFromString("12.50"), StockQuantity: 20}
	_, err := svc.SaveProduct(ctx, buyer, in)
	assert.ErrorIs(t, err, ErrUnauthorized)

	created, err := svc.SaveProduct(ctx, admin, in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.IsActive)
	assert.Contains(t, rec.Invalidated, "/api/public/products")

	off := false
	in.ID, in.StockQuantity, in.IsActive = created.ID, 3, &off
	updated, err := svc.SaveProduct(ctx, admin, in)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 3, m.Stock(created.ID))
	assert.Contains(t, rec.Invalidated, "/products/"+created.ID)

	in.ID = "ghost"
	_, err = svc.SaveProduct(ctx, admin, in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveProductValidation(t *testing.T) {
	m := servicetest.NewStore()
	svc, _ := newAdmin(m)
	ok := ProductInput{Name: "n", Category: "c", Price: decimal.NewFromInt(1), StockQuantity: 1}

	for name, mutate := range map[string]func(*ProductInput){
		"name":     func(in *ProductInput) { in.Name = " " },
		"category": func(in *ProductInput) { in.Category = "" },
		"price":    func(in *ProductInput) { in.Price = decimal.NewFromInt(-1) },
		"stock":    func(in *ProductInput) { in.StockQuantity = -1 },
	} {
		in := ok
		mutate(&in)
		_, err := svc.SaveProduct(context.Background(), admin, in)
		assert.ErrorIs(t, err, ErrValidation, name)
	}
}

func TestDeleteProduct(t *testing.T) {
	m := servicetest.NewStore()
	seedProfiles(t, m)
	sold := m.AddProduct("Sold", "1", 5)
	unsold := m.AddProduct("Unsold", "1", 5)
	orders, _ := newOrders(m, true)
	_, err := orders.PlaceOrder(context.Background(), buyer, PlaceOrderInput{ProductID: sold.ID, Quantity: 1})
	require.NoError(t, err)

	svc, _ := newAdmin(m)
	ctx := context.Background()
	assert.ErrorIs(t, svc.DeleteProduct(ctx, admin, sold.ID), ErrConflict)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, admin, "ghost"), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, buyer, unsold.ID), ErrUnauthorized)
	assert.NoError(t, svc.DeleteProduct(ctx, admin, unsold.ID))
}

func TestStats(t *testing.T) {
	m := servicetest.NewStore()
	seedProfiles(t, m)
	p := m.AddProduct("Seed", "2.50", 100)
	orders, _ := newOrders(m, true)
	ctx := context.Background()
	var ids []string
	for i := 0; i < 6; i++ {
		o, err := orders.PlaceOrder(ctx, buyer, PlaceOrderInput{ProductID: p.ID, Quantity: 2})
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	require.NoError(t, orders.SetOrderStatus(ctx, admin, ids[0], "approved"))
	require.NoError(t, orders.SetOrderStatus(ctx, admin, ids[1], "approved"))
	require.NoError(t, orders.SetOrderStatus(ctx, admin, ids[2], "rejected"))
	require.NoError(t, m.Record(ctx, buyer.ID))
	require.NoError(t, m.Record(ctx, buyer.ID))

	svc, _ := newAdmin(m)

	_, err := svc.Stats(ctx, buyer)
	assert.ErrorIs(t, err, ErrUnauthorized)

	st, err := svc.Stats(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, 1, st.ProductCount)
	assert.Equal(t, 6, st.OrderCount)
	assert.Len(t, st.RecentOrders, RecentOrdersLimit)
	assert.Equal(t, 1, st.ActiveUsersToday)
	assert.Equal(t, 2, st.NewUsersThisWeek)
	assert.Equal(t, "10", st.EstimatedRevenue.String())
}

func TestSettingsAreSelfOnly(t *testing.T) {
	m := servicetest.NewStore()
	seedProfiles(t, m)
	svc, _ := newAdmin(m)
	ctx := context.Background()

	prof, err := svc.Profile(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, admin.Email, prof.Email)

	updated, err := svc.UpdateSettings(ctx, admin, SettingsInput{Email: "Boss@Farm.test", FullName: strptr(" Boss ")})
	require.NoError(t, err)
	assert.Equal(t, session.User{ID: admin.ID, Email: "boss@farm.test", FullName: strptr("Boss"), Role: model.RoleAdmin}, updated)

	_, err = svc.UpdateSettings(ctx, admin, SettingsInput{Email: buyer.Email})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = svc.UpdateSettings(ctx, admin, SettingsInput{Email: "nope"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.UpdateSettings(ctx, buyer, SettingsInput{Email: "x@y.z"})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCatalog(t *testing.T) {
	m := servicetest.NewStore()
	a := m.AddProduct("Beta", "1", 1)
	b := m.AddProduct("Alpha", "1", 1)
	hidden := m.AddProduct("Gamma", "1", 1)
	m.SetActive(hidden.ID, false)
	svc := NewCatalogService(m.Products())
	ctx := context.Background()

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{b.ID, a.ID}, []string{list[0].ID, list[1].ID})

	_, err = svc.Get(ctx, hidden.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	got, err := svc.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Beta", got.Name)
}
