package model

import "time"

// Profile represents an application user record as stored in the
// `profiles` table.  The password hash never leaves the repository
// and service layers; handlers render PublicProfile instead.
//
// Fields:
//
//	ID           – uuid primary key.
//	Email        – unique, lower-cased email address.
//	FullName     – display name (nullable).
//	Role         – authorization tier (admin or user).
//	PasswordHash – bcrypt hashed password.
//	CreatedAt    – timestamp of creation.
type Profile struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FullName     *string   `db:"full_name"`
	Role         Role      `db:"role"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// PublicProfile is the JSON shape of a profile.
type PublicProfile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  *string   `json:"full_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Public strips the password hash.
func (p Profile) Public() PublicProfile {
	return PublicProfile{ID: p.ID, Email: p.Email, FullName: p.FullName, Role: p.Role, CreatedAt: p.CreatedAt}
}

// LoginRecord models a row of the `login_history` table, appended on
// every successful login and read by the admin dashboard.
type LoginRecord struct {
	ID      uint64    `db:"id"`
	UserID  string    `db:"user_id"`
	LoginAt time.Time `db:"login_at"`
}
