package middleware // middleware provides shared request processing for handlers

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/session"
)

// Well-known paths of the route surface.
const (
	PathRoot      = "/"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathUserHome  = "/home"
	PathAdminHome = "/admin"
	PathIdentity  = "/api/auth/me"
	PathHealth    = "/healthz"

	adminPrefix     = "/admin"
	authPrefix      = "/auth"
	publicAPIPrefix = "/api/public"
)

// State is the authentication state of a request as seen by the gate.
type State int

const (
	Guest State = iota
	AuthenticatedUser
	AuthenticatedAdmin
)

// StateOf maps a decoded session user to a gate state.
func StateOf(u *session.User) State {
	if u == nil {
		return Guest
	}
	switch u.Role {
	case model.RoleAdmin:
		return AuthenticatedAdmin
	case model.RoleUser:
		return AuthenticatedUser
	}
	return Guest
}

// Home returns the landing page for a state.
func (s State) Home() string {
	switch s {
	case AuthenticatedAdmin:
		return PathAdminHome
	case AuthenticatedUser:
		return PathUserHome
	}
	return PathLogin
}

// IsPublicPath reports whether guests may reach path.
func IsPublicPath(p string) bool {
	switch p {
	case PathRoot, PathLogin, PathRegister, PathIdentity:
		return true
	}
	return underPrefix(p, publicAPIPrefix)
}

func isAuthPage(p string) bool {
	return p == PathLogin || p == PathRegister || underPrefix(p, authPrefix)
}

// underPrefix matches prefix itself and anything below it, so "/admin"
// and "/admin/users" match "/admin" but "/administrator" does not.
func underPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// Decide evaluates the gate rules for one request and returns the
// redirect target, or "" to let the request through.
func Decide(p string, state State) string {
	if state == Guest && !IsPublicPath(p) {
		return PathLogin
	}
	if p == PathRoot {
		return state.Home()
	}
	if state != Guest && isAuthPage(p) {
		return state.Home()
	}
	if state == AuthenticatedUser && underPrefix(p, adminPrefix) {
		return PathUserHome
	}
	return ""
}

// SkipStatic excludes static assets, images and the health probe from
// the gate.
func SkipStatic(c echo.Context) bool {
	p := c.Request().URL.Path
	if strings.HasPrefix(p, "/static/") || p == "/favicon.ico" || p == PathHealth {
		return true
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".svg", ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return true
	}
	return false
}

// Gate is the single authorization choke point.  It decodes the session
// cookie, redirects according to Decide and, when the request is
// allowed, stores the user on the context and attaches a refreshed
// session cookie.
func Gate(sessions *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if SkipStatic(c) {
				return next(c)
			}
			reqPath := c.Request().URL.Path
			p := sessions.GetSession(c)
			var user *session.User
			if p != nil {
				user = &p.User
			}
			state := StateOf(user)

			if user != nil {
				slog.DebugContext(c.Request().Context(), "gate", "path", reqPath, "user", user.Email, "role", user.Role)
			} else {
				slog.DebugContext(c.Request().Context(), "gate", "path", reqPath, "user", "guest")
			}

			if target := Decide(reqPath, state); target != "" {
				return c.Redirect(http.StatusFound, target)
			}
			if p != nil {
				session.SetUser(c, user)
				if err := sessions.Refresh(c, *p); err != nil {
					slog.WarnContext(c.Request().Context(), "session refresh failed", "error", err)
				}
			}
			return next(c)
		}
	}
}
