package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/repository"
	"github.com/iliyamo/efarm/internal/session"
	"github.com/iliyamo/efarm/internal/utils"
)

// AuthService registers and authenticates profiles.  Issuing the cookie
// is left to the HTTP layer; these methods return the session identity.
type AuthService struct {
	users  UserStore
	logins LoginHistoryStore
	cost   int
}

// NewAuthService wires the auth workflow.  logins may be nil.
func NewAuthService(users UserStore, logins LoginHistoryStore, bcryptCost int) *AuthService {
	return &AuthService{users: users, logins: logins, cost: bcryptCost}
}

// SessionUser converts a stored profile into a session identity.
func SessionUser(p *model.Profile) session.User {
	return session.User{ID: p.ID, Email: p.Email, FullName: p.FullName, Role: p.Role}
}

// Register creates a user-role profile.  Every field is required and a
// taken email is reported as ErrConflict.
func (s *AuthService) Register(ctx context.Context, email, password, fullName string) (session.User, error) {
	email = repository.NormalizeEmail(email)
	fullName = strings.TrimSpace(fullName)
	if email == "" || password == "" || fullName == "" {
		return session.User{}, invalid("all fields are required")
	}
	if !strings.Contains(email, "@") {
		return session.User{}, invalid("email address is malformed")
	}
	if len(password) > utils.MaxPasswordBytes {
		return session.User{}, invalid("password must be at most %d bytes", utils.MaxPasswordBytes)
	}
	hash, err := utils.HashPassword(password, s.cost)
	if err != nil {
		slog.Error("register: hash password", "err", err)
		return session.User{}, ErrPersistence
	}
	p := &model.Profile{Email: email, FullName: &fullName, Role: model.RoleUser, PasswordHash: hash}
	if err := s.users.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return session.User{}, fmt.Errorf("%w: a user with this email already exists", ErrConflict)
		}
		slog.Error("register: create profile", "err", err)
		return session.User{}, ErrPersistence
	}
	slog.Info("user registered", "user_id", p.ID)
	return SessionUser(p), nil
}

// Login verifies credentials and records the login.  Unknown emails and
// wrong passwords both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (session.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return session.User{}, invalid("email and password are required")
	}
	p, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return session.User{}, ErrInvalidCredentials
	}
	if err != nil {
		slog.Error("login: load profile", "err", err)
		return session.User{}, ErrPersistence
	}
	if !utils.VerifyPassword(p.PasswordHash, password) {
		return session.User{}, ErrInvalidCredentials
	}
	if s.logins != nil {
		if err := s.logins.Record(ctx, p.ID); err != nil {
			slog.Warn("login: record history", "user_id", p.ID, "err", err)
		}
	}
	return SessionUser(p), nil
}
