package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/efarm/internal/service"
)

// CatalogHandler exposes the public product catalogue.
type CatalogHandler struct {
	Catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{Catalog: catalog}
}

// List handles GET /api/public/products.
func (h *CatalogHandler) List(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	items, err := h.Catalog.List(ctx)
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /api/public/products/:id.
func (h *CatalogHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	p, err := h.Catalog.Get(ctx, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return ok(c, http.StatusOK, echo.Map{"product": p})
}
