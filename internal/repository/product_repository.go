package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/efarm/internal/model"
)

const productColumns = "id, name, category, description, price, stock_quantity, image_url, is_active, created_at"

// ProductRepo encapsulates all database queries related to the catalogue.
type ProductRepo struct {
	db *sqlx.DB
}

// NewProductRepo constructs a ProductRepo with the provided DB handle.
func NewProductRepo(db *sqlx.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create inserts a new product, generating its id when empty.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	const q = `INSERT INTO products (id, name, category, description, price, stock_quantity, image_url, is_active, created_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, p.ID, p.Name, p.Category, p.Description, p.Price,
		p.StockQuantity, p.ImageURL, p.IsActive, p.CreatedAt)
	return err
}

// Update rewrites every editable column of an existing product.
func (r *ProductRepo) Update(ctx context.Context, p *model.Product) error {
	const q = `UPDATE products SET name=?, category=?, description=?, price=?, stock_quantity=?, image_url=?, is_active=?
	           WHERE id=?`
	res, err := r.db.ExecContext(ctx, q, p.Name, p.Category, p.Description, p.Price,
		p.StockQuantity, p.ImageURL, p.IsActive, p.ID)
	return affectedOne(res, err)
}

// Delete removes a product.  Products referenced by orders cannot be
// deleted and yield ErrConflict.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil && isReferenced(err) {
		return ErrConflict
	}
	return affectedOne(res, err)
}

// GetByID fetches a product regardless of its active flag.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.db.GetContext(ctx, &p, "SELECT "+productColumns+" FROM products WHERE id=?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListActive returns the public catalogue ordered by name.
func (r *ProductRepo) ListActive(ctx context.Context) ([]model.Product, error) {
	out := []model.Product{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+productColumns+" FROM products WHERE is_active = TRUE ORDER BY name")
	return out, err
}

// ListAll returns every product, newest first, for the back-office.
func (r *ProductRepo) ListAll(ctx context.Context) ([]model.Product, error) {
	out := []model.Product{}
	err := r.db.SelectContext(ctx, &out,
		"SELECT "+productColumns+" FROM products ORDER BY created_at DESC")
	return out, err
}

// Count returns the number of products.
func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM products")
	return n, err
}

// DecrementStock takes qty units from a product in a single conditional
// update; it never drives stock below zero and returns
// ErrInsufficientStock when the product cannot cover qty.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, qty int) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE products SET stock_quantity = stock_quantity - ? WHERE id = ? AND stock_quantity >= ?",
		qty, id, qty)
	if err := affectedOne(res, err); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInsufficientStock
		}
		return err
	}
	return nil
}
