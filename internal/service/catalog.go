package service

import (
	"context"
	"log/slog"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/pagination"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/catalog"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/domain"
)

// relatedLimit is the number of related products shown with a product.
const relatedLimit = 3

// ProductDetail is a product together with others from its category.
type ProductDetail struct {
	domain.Product
	Related []domain.Product `json:"related"`
}

// CatalogService serves the product catalog.
type CatalogService struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(cat *catalog.Catalog, logger *slog.Logger) *CatalogService {
	return &CatalogService{catalog: cat, logger: logger}
}

// ListProducts returns one page of products, optionally filtered by category.
func (s *CatalogService) ListProducts(_ context.Context, category string, params pagination.Params) pagination.Result[domain.Product] {
	return pagination.Paginate(s.catalog.List(category), params)
}

// GetProduct returns a product and its related products.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*ProductDetail, error) {
	p, err := s.catalog.Get(id)
	if err != nil {
		return nil, err
	}
	related, err := s.catalog.Related(id, relatedLimit)
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "product viewed", slog.String("product_id", id))
	return &ProductDetail{Product: p, Related: related}, nil
}

// Categories returns the category names.
func (s *CatalogService) Categories(_ context.Context) []string {
	return s.catalog.Categories()
}
