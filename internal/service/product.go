package service

import (
	"context"
	"log/slog"

	"github.com/shopfront/reviews/internal/domain"
	"github.com/shopfront/reviews/internal/store"
	apperrors "github.com/shopfront/reviews/pkg/errors"
)

// ProductPage is everything the storefront needs to render a product
// page in one round-trip: the catalog product plus its reviews.
type ProductPage struct {
	Product *domain.Product `json:"product"`
	Reviews []domain.Review `json:"reviews"`
	Summary domain.Summary  `json:"summary"`
}

// ProductService assembles product-page data from the catalog and the
// review store.
type ProductService struct {
	catalog store.Catalog
	reviews store.ReviewStore
	logger  *slog.Logger
}

// NewProductService creates a new product service.
func NewProductService(catalog store.Catalog, reviews store.ReviewStore, logger *slog.Logger) *ProductService {
	return &ProductService{
		catalog: catalog,
		reviews: reviews,
		logger:  logger,
	}
}

// PageByHandle resolves a product by its storefront handle and attaches
// the review collection newest-first. An unresolvable handle returns
// ErrNotFound. A review-store failure degrades to an empty review list
// rather than failing the whole page; the product itself still renders.
func (s *ProductService) PageByHandle(ctx context.Context, handle string) (*ProductPage, error) {
	if handle == "" {
		return nil, apperrors.InvalidInput("handle is required")
	}

	product, err := s.catalog.ProductByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviews.FetchReviews(ctx, product.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "review fetch failed, rendering page without reviews",
			slog.String("handle", handle),
			slog.String("error", err.Error()),
		)
		reviews = []domain.Review{}
	}

	sorted := domain.SortReviews(reviews, domain.SortRecent)

	return &ProductPage{
		Product: product,
		Reviews: sorted,
		Summary: domain.Summarize(sorted),
	}, nil
}
