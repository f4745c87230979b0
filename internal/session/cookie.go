package session

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// contextKey is where the gate stores the decoded user on echo.Context.
const contextKey = "session.user"

// Revoker records and checks "revoked since" marks per user.
type Revoker interface {
	Revoke(ctx context.Context, userID string) error
	RevokedSince(ctx context.Context, userID string, issuedAt time.Time) bool
}

// Manager owns the cookie lifecycle: issuing at login, clearing at
// logout, decoding on read and sliding renewal on every request.
type Manager struct {
	codec   *Codec
	secure  bool
	revoker Revoker
	now     func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

// WithRevoker enables revocation checks on decode.
func WithRevoker(r Revoker) Option {
	return func(m *Manager) { m.revoker = r }
}

// WithClock replaces time.Now for the manager and its codec.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
		m.codec.now = now
	}
}

// NewManager wires a codec into a cookie manager.  secure marks cookies
// Secure and should be true in production.
func NewManager(codec *Codec, secure bool, opts ...Option) *Manager {
	m := &Manager{codec: codec, secure: secure, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Login issues a fresh session for u and sets the cookie.
func (m *Manager) Login(c echo.Context, u User) error {
	expires := m.now().Add(m.codec.TTL())
	token, err := m.codec.Encrypt(Payload{User: u, Expires: expires})
	if err != nil {
		return err
	}
	m.setCookie(c, token, expires)
	SetUser(c, &u)
	slog.InfoContext(c.Request().Context(), "user logged in", "email", u.Email, "role", u.Role)
	return nil
}

// Logout overwrites the cookie with an already expired one.
func (m *Manager) Logout(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(contextKey, nil)
}

// Decode verifies a raw token and applies revocation marks.
func (m *Manager) Decode(ctx context.Context, raw string) (Payload, error) {
	p, err := m.codec.Decrypt(raw)
	if err != nil {
		return Payload{}, err
	}
	if m.revoker != nil && m.revoker.RevokedSince(ctx, p.User.ID, p.IssuedAt) {
		return Payload{}, ErrInvalidSession
	}
	return p, nil
}

// GetSession reads and decodes the request cookie.  Any failure yields
// nil; the reason is only logged.
func (m *Manager) GetSession(c echo.Context) *Payload {
	ck, err := c.Cookie(CookieName)
	if err != nil || ck.Value == "" {
		return nil
	}
	p, err := m.Decode(c.Request().Context(), ck.Value)
	if err != nil {
		slog.DebugContext(c.Request().Context(), "session rejected", "path", c.Request().URL.Path, "error", err)
		return nil
	}
	return &p
}

// GetUser returns the current actor: the user stored by the gate when
// present, otherwise the user decoded from the cookie.
func (m *Manager) GetUser(c echo.Context) *User {
	if u := CurrentUser(c); u != nil {
		return u
	}
	if p := m.GetSession(c); p != nil {
		return &p.User
	}
	return nil
}

// Refresh re-signs p with a new expiry and attaches the cookie to the
// response, giving active users a sliding two hour window.
func (m *Manager) Refresh(c echo.Context, p Payload) error {
	p.Expires = m.now().Add(m.codec.TTL())
	token, err := m.codec.Encrypt(p)
	if err != nil {
		return err
	}
	m.setCookie(c, token, p.Expires)
	return nil
}

func (m *Manager) setCookie(c echo.Context, token string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetUser stores the authenticated user on the request context.
func SetUser(c echo.Context, u *User) { c.Set(contextKey, u) }

// CurrentUser returns the user stored by SetUser, or nil.
func CurrentUser(c echo.Context) *User {
	u, _ := c.Get(contextKey).(*User)
	return u
}
