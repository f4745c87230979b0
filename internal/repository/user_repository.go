package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/efarm/internal/model"
)

const profileColumns = "id, email, full_name, role, password_hash, created_at"

// UserRepo persists profiles, the credential store of the storefront.
type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// Create inserts a profile.  The id is generated when empty; the
// email is normalized before insert.
func (r *UserRepo) Create(ctx context.Context, p *model.Profile) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Email = NormalizeEmail(p.Email)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO profiles (id, email, full_name, role, password_hash, created_at) VALUES (?,?,?,?,?,?)",
		p.ID, p.Email, p.FullName, p.Role, p.PasswordHash, p.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a profile by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.GetContext(ctx, &p,
		"SELECT "+profileColumns+" FROM profiles WHERE email=? LIMIT 1", NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID fetches a profile by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	var p model.Profile
	err := r.DB.GetContext(ctx, &p,
		"SELECT "+profileColumns+" FROM profiles WHERE id=? LIMIT 1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every profile, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.Profile, error) {
	out := []model.Profile{}
	if err := r.DB.SelectContext(ctx, &out,
		"SELECT "+profileColumns+" FROM profiles ORDER BY created_at DESC"); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRole sets a profile's role.
func (r *UserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE profiles SET role=? WHERE id=?", role, id)
	return affectedOne(res, err)
}

// UpdateDetails rewrites the self-service fields of a profile.
func (r *UserRepo) UpdateDetails(ctx context.Context, id, email string, fullName *string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE profiles SET email=?, full_name=? WHERE id=?", NormalizeEmail(email), fullName, id)
	if err != nil && isDuplicate(err) {
		return ErrEmailExists
	}
	return affectedOne(res, err)
}

// Delete removes a profile; orders and login history cascade.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM profiles WHERE id=?", id)
	return affectedOne(res, err)
}

// CountCreatedSince counts profiles registered at or after t.
func (r *UserRepo) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM profiles WHERE created_at >= ?", t)
	return n, err
}

// affectedOne turns an UPDATE/DELETE result that touched no row into
// ErrNotFound.
func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
