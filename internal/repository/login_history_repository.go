package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

// LoginHistoryRepo appends successful logins and answers the admin
// dashboard's "active users" question.
type LoginHistoryRepo struct{ DB *sqlx.DB }

func NewLoginHistoryRepo(db *sqlx.DB) *LoginHistoryRepo { return &LoginHistoryRepo{DB: db} }

// Record stores a login for userID at the current time.
func (r *LoginHistoryRepo) Record(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO login_history (user_id, login_at) VALUES (?, ?)", userID, time.Now().UTC())
	return err
}

// CountDistinctUsersSince counts users with at least one login at or after t.
func (r *LoginHistoryRepo) CountDistinctUsersSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n,
		"SELECT COUNT(DISTINCT user_id) FROM login_history WHERE login_at >= ?", t)
	return n, err
}
