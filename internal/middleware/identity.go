package middleware

// identity.go holds helpers shared across middleware files.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/session"
)

// userID returns the id of the session user stored by the gate, or
// "guest" when the request is anonymous.
func userID(c echo.Context) string {
	if u := session.CurrentUser(c); u != nil && u.ID != "" {
		return u.ID
	}
	return "guest"
}
