// Package servicetest provides in-memory stores and recorders that stand
// in for MySQL, Redis and RabbitMQ in workflow and HTTP tests.
package servicetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/queue"
	"github.com/iliyamo/efarm/internal/repository"
)

// Store is an in-memory stand-in for the MySQL repositories.  It also
// records logins itself.
type Store struct {
	mu       sync.Mutex
	users    map[string]*model.Profile
	products map[string]*model.Product
	orders   map[string]*model.Order
	logins   []model.LoginRecord

	// FailInsert and FailDecrement, when set, make the matching store
	// call fail.
	FailInsert    error
	FailDecrement error
}

func NewStore() *Store {
	return &Store{
		users:    map[string]*model.Profile{},
		products: map[string]*model.Product{},
		orders:   map[string]*model.Order{},
	}
}

func (m *Store) Users() UserRepo       { return UserRepo{m} }
func (m *Store) Products() ProductRepo { return ProductRepo{m} }
func (m *Store) Orders() OrderRepo     { return OrderRepo{m} }

// SetActive flips a product's active flag.
func (m *Store) SetActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id].IsActive = active
}

// LoginCount returns the number of recorded logins.
func (m *Store) LoginCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logins)
}

func (m *Store) AddProduct(name string, price string, stock int) *model.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &model.Product{ID: uuid.NewString(), Name: name, Category: "inputs", Price: decimal.RequireFromString(price),
		StockQuantity: stock, IsActive: true, CreatedAt: time.Now()}
	m.products[p.ID] = p
	return p
}

func (m *Store) Stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].StockQuantity
}

func (m *Store) OrderCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders)
}

type UserRepo struct{ m *Store }

func (u UserRepo) Create(_ context.Context, p *model.Profile) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	p.Email = repository.NormalizeEmail(p.Email)
	for _, x := range u.m.users {
		if x.Email == p.Email {
			return repository.ErrEmailExists
		}
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now()
	cp := *p
	u.m.users[p.ID] = &cp
	return nil
}

func (u UserRepo) GetByEmail(_ context.Context, email string) (*model.Profile, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	for _, x := range u.m.users {
		if x.Email == repository.NormalizeEmail(email) {
			cp := *x
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (u UserRepo) GetByID(_ context.Context, id string) (*model.Profile, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	x, ok := u.m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (u UserRepo) List(context.Context) ([]model.Profile, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	out := []model.Profile{}
	for _, x := range u.m.users {
		out = append(out, *x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (u UserRepo) UpdateRole(_ context.Context, id string, role model.Role) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	x, ok := u.m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	x.Role = role
	return nil
}

func (u UserRepo) UpdateDetails(_ context.Context, id, email string, fullName *string) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	x, ok := u.m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for _, o := range u.m.users {
		if o.ID != id && o.Email == email {
			return repository.ErrEmailExists
		}
	}
	x.Email, x.FullName = email, fullName
	return nil
}

func (u UserRepo) Delete(_ context.Context, id string) error {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	if _, ok := u.m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(u.m.users, id)
	return nil
}

func (u UserRepo) CountCreatedSince(_ context.Context, t time.Time) (int, error) {
	u.m.mu.Lock()
	defer u.m.mu.Unlock()
	n := 0
	for _, x := range u.m.users {
		if !x.CreatedAt.Before(t) {
			n++
		}
	}
	return n, nil
}

type ProductRepo struct{ m *Store }

func (p ProductRepo) Create(_ context.Context, x *model.Product) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if x.ID == "" {
		x.ID = uuid.NewString()
	}
	cp := *x
	p.m.products[x.ID] = &cp
	return nil
}

func (p ProductRepo) Update(_ context.Context, x *model.Product) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if _, ok := p.m.products[x.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *x
	p.m.products[x.ID] = &cp
	return nil
}

func (p ProductRepo) Delete(_ context.Context, id string) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if _, ok := p.m.products[id]; !ok {
		return repository.ErrNotFound
	}
	for _, o := range p.m.orders {
		if o.ProductID == id {
			return repository.ErrConflict
		}
	}
	delete(p.m.products, id)
	return nil
}

func (p ProductRepo) GetByID(_ context.Context, id string) (*model.Product, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	x, ok := p.m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (p ProductRepo) list(activeOnly bool) []model.Product {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	out := []model.Product{}
	for _, x := range p.m.products {
		if !activeOnly || x.IsActive {
			out = append(out, *x)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (p ProductRepo) ListActive(context.Context) ([]model.Product, error) { return p.list(true), nil }
func (p ProductRepo) ListAll(context.Context) ([]model.Product, error)    { return p.list(false), nil }

func (p ProductRepo) Count(context.Context) (int, error) {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	return len(p.m.products), nil
}

func (p ProductRepo) DecrementStock(_ context.Context, id string, qty int) error {
	p.m.mu.Lock()
	defer p.m.mu.Unlock()
	if p.m.FailDecrement != nil {
		return p.m.FailDecrement
	}
	return p.m.decrementLocked(id, qty)
}

func (m *Store) decrementLocked(id string, qty int) error {
	x, ok := m.products[id]
	if !ok || x.StockQuantity < qty {
		return repository.ErrInsufficientStock
	}
	x.StockQuantity -= qty
	return nil
}

type OrderRepo struct{ m *Store }

func (o OrderRepo) insertLocked(x *model.Order) error {
	if o.m.FailInsert != nil {
		return o.m.FailInsert
	}
	if x.ID == "" {
		x.ID = uuid.NewString()
	}
	if x.CreatedAt.IsZero() {
		x.CreatedAt = time.Now()
	}
	cp := *x
	o.m.orders[x.ID] = &cp
	return nil
}

func (o OrderRepo) Create(_ context.Context, x *model.Order) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	return o.insertLocked(x)
}

func (o OrderRepo) PlaceAtomic(_ context.Context, x *model.Order, prepare func(*model.Product) error) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	p, ok := o.m.products[x.ProductID]
	if !ok {
		return repository.ErrNotFound
	}
	locked := *p
	if err := prepare(&locked); err != nil {
		return err
	}
	if err := o.insertLocked(x); err != nil {
		return err
	}
	if err := o.m.decrementLocked(x.ProductID, x.Quantity); err != nil {
		delete(o.m.orders, x.ID)
		return err
	}
	return nil
}

func (o OrderRepo) UpdateStatus(_ context.Context, id string, status model.OrderStatus) error {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	x, ok := o.m.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	x.Status = status
	return nil
}

func (o OrderRepo) GetByID(_ context.Context, id string) (*model.Order, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	x, ok := o.m.orders[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *x
	return &cp, nil
}

func (o OrderRepo) details(filter func(*model.Order) bool) []model.OrderDetail {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	out := []model.OrderDetail{}
	for _, x := range o.m.orders {
		if !filter(x) {
			continue
		}
		d := model.OrderDetail{Order: *x}
		if p, ok := o.m.products[x.ProductID]; ok {
			d.ProductName, d.ProductPrice = p.Name, p.Price
		}
		if u, ok := o.m.users[x.UserID]; ok {
			d.CustomerName, d.CustomerEmail = u.FullName, u.Email
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (o OrderRepo) ListByUser(_ context.Context, userID string) ([]model.OrderDetail, error) {
	return o.details(func(x *model.Order) bool { return x.UserID == userID }), nil
}

func (o OrderRepo) ListAll(context.Context) ([]model.OrderDetail, error) {
	return o.details(func(*model.Order) bool { return true }), nil
}

func (o OrderRepo) Recent(_ context.Context, limit int) ([]model.OrderDetail, error) {
	all := o.details(func(*model.Order) bool { return true })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (o OrderRepo) Count(context.Context) (int, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	return len(o.m.orders), nil
}

func (o OrderRepo) ApprovedRevenue(context.Context) (decimal.Decimal, error) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()
	sum := decimal.Zero
	for _, x := range o.m.orders {
		if x.Status == model.OrderApproved {
			sum = sum.Add(x.TotalPrice)
		}
	}
	return sum, nil
}

func (m *Store) Record(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins = append(m.logins, model.LoginRecord{ID: uint64(len(m.logins) + 1), UserID: userID, LoginAt: time.Now()})
	return nil
}

func (m *Store) CountDistinctUsersSince(_ context.Context, t time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for _, l := range m.logins {
		if !l.LoginAt.Before(t) {
			seen[l.UserID] = true
		}
	}
	return len(seen), nil
}

// Recorder captures invalidations, events and revocations.
type Recorder struct {
	mu          sync.Mutex
	Invalidated []string
	Placed      []queue.OrderPlacedEvent
	Changed     []queue.OrderStatusChangedEvent
	Revoked     []string
	PublishErr  error
}

func (r *Recorder) Invalidate(_ context.Context, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Invalidated = append(r.Invalidated, paths...)
}

func (r *Recorder) OrderPlaced(_ context.Context, ev queue.OrderPlacedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Placed = append(r.Placed, ev)
	return r.PublishErr
}

func (r *Recorder) OrderStatusChanged(_ context.Context, ev queue.OrderStatusChangedEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Changed = append(r.Changed, ev)
	return r.PublishErr
}

func (r *Recorder) Revoke(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Revoked = append(r.Revoked, userID)
	return nil
}

// ErrBoom is a canned failure for the Fail* hooks.
var ErrBoom = errors.New("boom")
