package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health is the health-check endpoint used by load balancers and
// monitoring.  With a database attached it also verifies the store is
// reachable and answers 503 when it is not.
func Health(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return c.String(http.StatusServiceUnavailable, "database unavailable")
			}
		}
		return c.String(http.StatusOK, "ok")
	}
}
