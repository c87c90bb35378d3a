// Package store defines the persistence ports of the service. Reviews
// live in a single JSON metafield on the product record; the catalog is
// a read-only external collaborator.
package store

import (
	"context"

	"github.com/shopfront/reviews/internal/domain"
)

// ReviewStore reads and writes the per-product review collection.
type ReviewStore interface {
	// FetchReviews returns the stored collection. An absent metafield is
	// an empty collection, not an error.
	FetchReviews(ctx context.Context, productID string) ([]domain.Review, error)

	// AppendReview assigns id, createdAt and helpfulCount to the input,
	// prepends it to the stored collection and writes the collection
	// back. Returns the review as stored.
	AppendReview(ctx context.Context, productID string, input domain.NewReview) (*domain.Review, error)

	// IncrementHelpful bumps helpfulCount by one for the matching review
	// and writes the collection back. A missing reviewId is a silent
	// no-op.
	IncrementHelpful(ctx context.Context, productID, reviewID string) error
}

// Catalog looks up product attributes by storefront handle.
type Catalog interface {
	// ProductByHandle returns the product, or ErrNotFound when the
	// handle does not resolve.
	ProductByHandle(ctx context.Context, handle string) (*domain.Product, error)
}
