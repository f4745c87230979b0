package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/service"
	"github.com/iliyamo/efarm/internal/session"
)

// OrderHandler serves the signed-in user's order actions.
type OrderHandler struct {
	Orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{Orders: orders}
}

// Place handles POST /api/orders.
func (h *OrderHandler) Place(c echo.Context) error {
	var req service.PlaceOrderInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	o, err := h.Orders.PlaceOrder(ctx, session.CurrentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusCreated, echo.Map{"order": o})
}

// Mine handles GET /api/orders.
func (h *OrderHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Orders.ListMine(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"items": items})
}
