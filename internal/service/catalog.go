package service

import (
	"context"
	"log/slog"

	"github.com/iliyamo/efarm/internal/model"
)

// CatalogService serves the storefront's read side.
type CatalogService struct {
	products ProductStore
}

func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{products: products}
}

// List returns the active products ordered by name.
func (s *CatalogService) List(ctx context.Context) ([]model.Product, error) {
	out, err := s.products.ListActive(ctx)
	if err != nil {
		slog.Error("catalog: list", "err", err)
		return nil, ErrPersistence
	}
	return out, nil
}

// Get returns an active product; inactive products read as missing.
func (s *CatalogService) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "catalog: get")
	}
	if !p.IsActive {
		return nil, ErrNotFound
	}
	return p, nil
}
