package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/service"
	"github.com/iliyamo/efarm/internal/session"
)

// AdminHandler bundles the back-office actions under /api/admin.  The
// acting admin always comes from the session, never from the body.
type AdminHandler struct {
	Admin    *service.AdminService
	Orders   *service.OrderService
	Sessions *session.Manager
}

func NewAdminHandler(admin *service.AdminService, orders *service.OrderService, sessions *session.Manager) *AdminHandler {
	return &AdminHandler{Admin: admin, Orders: orders, Sessions: sessions}
}

type statusReq struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type roleReq struct {
	Role string `json:"role"`
}

// SetOrderStatus handles POST /api/admin/orders/:id/status.
func (h *AdminHandler) SetOrderStatus(c echo.Context) error {
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	id := c.Param("id")
	if id == "" {
		id = req.OrderID
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Orders.SetOrderStatus(ctx, session.CurrentUser(c), id, req.Status); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// SaveProduct handles POST /api/admin/products (create or update).
func (h *AdminHandler) SaveProduct(c echo.Context) error {
	var req service.ProductInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Admin.SaveProduct(ctx, session.CurrentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"product": p})
}

// DeleteProduct handles DELETE /api/admin/products/:id.
func (h *AdminHandler) DeleteProduct(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Admin.DeleteProduct(ctx, session.CurrentUser(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// SetUserRole handles POST /api/admin/users/:id/role.
func (h *AdminHandler) SetUserRole(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Admin.SetUserRole(ctx, session.CurrentUser(c), c.Param("id"), req.Role); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// DeleteUser handles DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Admin.DeleteUser(ctx, session.CurrentUser(c), c.Param("id")); err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, nil)
}

// Profile handles GET /api/admin/settings/profile.
func (h *AdminHandler) Profile(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Admin.Profile(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"profile": p})
}

// UpdateSettings handles POST /api/admin/settings/update and re-issues
// the session so the new name and email show up immediately.
func (h *AdminHandler) UpdateSettings(c echo.Context) error {
	var req service.SettingsInput
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Admin.UpdateSettings(ctx, session.CurrentUser(c), req)
	if err != nil {
		return fail(c, err)
	}
	if err := h.Sessions.Login(c, u); err != nil {
		slog.Warn("settings: re-issue session", "err", err)
	}
	return ok(c, http.StatusOK, echo.Map{"user": u})
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Admin.Stats(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"stats": st})
}

// ListOrders handles GET /api/admin/orders.
func (h *AdminHandler) ListOrders(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Orders.ListAll(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"items": items})
}

// ListProducts handles GET /api/admin/products.
func (h *AdminHandler) ListProducts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Admin.ListProducts(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"items": items})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Admin.ListUsers(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"items": items})
}
