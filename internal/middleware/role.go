package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/session"
)

// RequireRole returns a middleware that enforces that the session user
// holds one of the given roles.  It backs up the gate on API groups
// that live outside the /admin page prefix: a missing user yields 401,
// a wrong role 403, both as JSON.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := session.CurrentUser(c)
			if u == nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": "unauthenticated"})
			}
			if !allowed[u.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"success": false, "error": "forbidden"})
			}
			return next(c)
		}
	}
}
