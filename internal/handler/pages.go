package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/service"
	"github.com/iliyamo/efarm/internal/session"
)

// PageHandler renders the navigable pages as JSON view models.  Pages
// do not check authorization themselves; the gate has already decided
// whether the request may reach them.
type PageHandler struct {
	Catalog *service.CatalogService
	Orders  *service.OrderService
	Admin   *service.AdminService
}

func NewPageHandler(catalog *service.CatalogService, orders *service.OrderService, admin *service.AdminService) *PageHandler {
	return &PageHandler{Catalog: catalog, Orders: orders, Admin: admin}
}

// view writes {page, user, ...data}.
func view(c echo.Context, page string, data echo.Map) error {
	body := echo.Map{"page": page, "user": session.CurrentUser(c)}
	for k, v := range data {
		body[k] = v
	}
	return c.JSON(http.StatusOK, body)
}

// Static returns a handler for pages without server data.
func (h *PageHandler) Static(page string) echo.HandlerFunc {
	return func(c echo.Context) error { return view(c, page, nil) }
}

// Catalogue serves /home and /products.
func (h *PageHandler) Catalogue(page string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := reqCtx(c)
		defer cancel()
		items, err := h.Catalog.List(ctx)
		if err != nil {
			return fail(c, err)
		}
		return view(c, page, echo.Map{"products": items})
	}
}

// Product serves /products/:id.
func (h *PageHandler) Product(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Catalog.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return view(c, "product", echo.Map{"product": p})
}

// MyOrders serves /orders.
func (h *PageHandler) MyOrders(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Orders.ListMine(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return view(c, "orders", echo.Map{"orders": items})
}

// Dashboard serves /admin.
func (h *PageHandler) Dashboard(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	st, err := h.Admin.Stats(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return view(c, "admin/dashboard", echo.Map{"stats": st})
}

// AdminOrders serves /admin/orders.
func (h *PageHandler) AdminOrders(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Orders.ListAll(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return view(c, "admin/orders", echo.Map{"orders": items})
}

// AdminProducts serves /admin/products.
func (h *PageHandler) AdminProducts(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Admin.ListProducts(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return view(c, "admin/products", echo.Map{"products": items})
}

// EditProduct serves /admin/products/:id/edit.
func (h *PageHandler) EditProduct(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Admin.Product(ctx, session.CurrentUser(c), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return view(c, "admin/products/edit", echo.Map{"product": p})
}

// AdminUsers serves /admin/users.
func (h *PageHandler) AdminUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Admin.ListUsers(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return view(c, "admin/users", echo.Map{"users": items})
}

// AdminSettings serves /admin/settings.
func (h *PageHandler) AdminSettings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Admin.Profile(ctx, session.CurrentUser(c))
	if err != nil {
		return fail(c, err)
	}
	return view(c, "admin/settings", echo.Map{"profile": p})
}
