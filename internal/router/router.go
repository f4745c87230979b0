// Package router wires handlers and middleware onto the echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/handler"
	"github.com/iliyamo/efarm/internal/middleware"
	"github.com/iliyamo/efarm/internal/model"
	"github.com/iliyamo/efarm/internal/session"
)

// Handlers groups every handler the route surface needs.
type Handlers struct {
	Health  echo.HandlerFunc
	Auth    *handler.AuthHandler
	Catalog *handler.CatalogHandler
	Orders  *handler.OrderHandler
	Admin   *handler.AdminHandler
	Pages   *handler.PageHandler
}

// Register installs the gate on every route and registers the pages and
// actions.  GET views pass through the response cache when one is
// configured; a nil cache disables caching.
func Register(e *echo.Echo, sessions *session.Manager, cache *middleware.ResponseCache, h Handlers) {
	e.Use(middleware.Gate(sessions))
	cached := cache.Middleware()

	e.GET(middleware.PathHealth, h.Health)

	RegisterAuth(e, h.Auth)
	RegisterPublic(e, h.Catalog, cached)
	RegisterUser(e, h.Orders, h.Pages, cached)
	RegisterAdmin(e, h.Admin, h.Pages, cached)
}

// RegisterAuth registers the login, registration and identity routes.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	e.POST(middleware.PathLogin, a.Login)
	e.POST(middleware.PathRegister, a.Register)
	e.POST("/logout", a.Logout)
	e.GET(middleware.PathIdentity, a.Me)
}

// RegisterPublic registers the guest-reachable catalogue API.
func RegisterPublic(e *echo.Echo, c *handler.CatalogHandler, cached echo.MiddlewareFunc) {
	g := e.Group("/api/public", cached)
	g.GET("/products", c.List)
	g.GET("/products/:id", c.Get)
}

// RegisterUser registers the pages and actions of a signed-in user.
// The gate has already turned guests away.
func RegisterUser(e *echo.Echo, o *handler.OrderHandler, p *handler.PageHandler, cached echo.MiddlewareFunc) {
	e.GET(middleware.PathRoot, p.Static("landing"))
	e.GET(middleware.PathLogin, p.Static("login"))
	e.GET(middleware.PathRegister, p.Static("register"))

	e.GET(middleware.PathUserHome, p.Catalogue("home"), cached)
	e.GET("/cart", p.Static("cart"))
	e.GET("/orders", p.MyOrders, cached)
	e.GET("/products", p.Catalogue("products"), cached)
	e.GET("/products/:id", p.Product, cached)

	api := e.Group("/api/orders")
	api.POST("", o.Place)
	api.GET("", o.Mine, cached)
}

// RegisterAdmin registers the back-office pages and the /api/admin
// actions.  The API group sits outside the /admin page prefix, so it
// enforces the admin role itself.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, p *handler.PageHandler, cached echo.MiddlewareFunc) {
	pages := e.Group(middleware.PathAdminHome)
	pages.GET("", p.Dashboard, cached)
	pages.GET("/orders", p.AdminOrders, cached)
	pages.GET("/products", p.AdminProducts, cached)
	pages.GET("/products/create", p.Static("admin/products/create"))
	pages.GET("/products/:id/edit", p.EditProduct, cached)
	pages.GET("/users", p.AdminUsers, cached)
	pages.GET("/settings", p.AdminSettings)

	api := e.Group("/api/admin", middleware.RequireRole(model.RoleAdmin))
	api.GET("/stats", a.Stats, cached)
	api.GET("/orders", a.ListOrders, cached)
	api.POST("/orders/:id/status", a.SetOrderStatus)
	api.GET("/products", a.ListProducts, cached)
	api.POST("/products", a.SaveProduct)
	api.DELETE("/products/:id", a.DeleteProduct)
	api.GET("/users", a.ListUsers, cached)
	api.POST("/users/:id/role", a.SetUserRole)
	api.DELETE("/users/:id", a.DeleteUser)
	api.GET("/settings/profile", a.Profile)
	api.POST("/settings/update", a.UpdateSettings)
}
