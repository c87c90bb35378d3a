// Package metafield persists the per-product review collection as one
// JSON metafield (namespace "custom", key "reviews") on the product
// record, via the Admin GraphQL API.
//
// Every write replaces the entire collection value. Two concurrent
// writers against the same product therefore race: each reads the
// collection independently, and the later write can silently drop the
// earlier writer's change (lost update). The store offers no versioning
// or compare-and-swap, and this adapter adds no locking or retries on
// top, so callers get eventual rather than linear consistency for
// contended products. This is a documented contract of the storage
// choice, not an implementation bug.
package metafield

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopfront/reviews/internal/domain"
	"github.com/shopfront/reviews/internal/shopify"
	apperrors "github.com/shopfront/reviews/pkg/errors"
)

const (
	metafieldNamespace = "custom"
	metafieldKey       = "reviews"
	metafieldType      = "json"
)

const readQuery = `
query GetProductReviews($id: ID!) {
  product(id: $id) {
    metafield(namespace: "custom", key: "reviews") {
      value
    }
  }
}`

const writeMutation = `
mutation SetProductReviews($metafields: [MetafieldsSetInput!]!) {
  metafieldsSet(metafields: $metafields) {
    metafields {
      key
      value
    }
    userErrors {
      field
      message
    }
  }
}`

// Store implements store.ReviewStore over the Admin GraphQL API.
type Store struct {
	admin  *shopify.Client
	logger *slog.Logger

	// injectable for deterministic tests
	now   func() time.Time
	newID func() string
}

// New creates a metafield-backed review store.
func New(admin *shopify.Client, logger *slog.Logger) *Store {
	return &Store{
		admin:  admin,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

type readResponse struct {
	Product *struct {
		Metafield *struct {
			Value string `json:"value"`
		} `json:"metafield"`
	} `json:"product"`
}

type writeResponse struct {
	MetafieldsSet struct {
		UserErrors []struct {
			Field   []string `json:"field"`
			Message string   `json:"message"`
		} `json:"userErrors"`
	} `json:"metafieldsSet"`
}

// FetchReviews reads the stored collection for a product. An absent
// metafield (or absent product) yields an empty collection.
func (s *Store) FetchReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	var resp readResponse
	if err := s.admin.Query(ctx, readQuery, map[string]any{"id": productID}, &resp); err != nil {
		return nil, err
	}

	if resp.Product == nil || resp.Product.Metafield == nil || resp.Product.Metafield.Value == "" {
		return []domain.Review{}, nil
	}

	var reviews []domain.Review
	if err := json.Unmarshal([]byte(resp.Product.Metafield.Value), &reviews); err != nil {
		return nil, apperrors.Remote("decode reviews metafield", err)
	}
	return reviews, nil
}

// AppendReview performs the read-then-write: fetch the current
// collection, prepend the new review, write the full collection back.
// The returned review echoes exactly what was stored.
func (s *Store) AppendReview(ctx context.Context, productID string, input domain.NewReview) (*domain.Review, error) {
	review := domain.Review{
		ID:           s.newID(),
		ProductID:    productID,
		Rating:       input.Rating,
		Text:         input.Text,
		UserName:     input.UserName,
		UserID:       input.UserID,
		HelpfulCount: 0,
		CreatedAt:    s.now().UTC().Format(domain.CreatedAtLayout),
	}

	current, err := s.FetchReviews(ctx, productID)
	if err != nil {
		return nil, err
	}

	updated := append([]domain.Review{review}, current...)
	if err := s.writeCollection(ctx, productID, updated); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "review appended",
		slog.String("product_id", productID),
		slog.String("review_id", review.ID),
		slog.Int("collection_size", len(updated)),
	)
	return &review, nil
}

// IncrementHelpful bumps helpfulCount for the matching review by one and
// writes the collection back. An empty collection or unknown reviewId
// returns silently without a write.
func (s *Store) IncrementHelpful(ctx context.Context, productID, reviewID string) error {
	current, err := s.FetchReviews(ctx, productID)
	if err != nil {
		return err
	}
	if len(current) == 0 {
		return nil
	}

	found := false
	for i := range current {
		if current[i].ID == reviewID {
			current[i].HelpfulCount++
			found = true
			break
		}
	}
	if !found {
		s.logger.WarnContext(ctx, "helpful vote for unknown review",
			slog.String("product_id", productID),
			slog.String("review_id", reviewID),
		)
		return nil
	}

	if err := s.writeCollection(ctx, productID, current); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "helpful count incremented",
		slog.String("product_id", productID),
		slog.String("review_id", reviewID),
	)
	return nil
}

// writeCollection serializes the full collection and replaces the
// metafield value. The single field write is atomic at the store; the
// race lives in the read-modify-write sequence around it.
func (s *Store) writeCollection(ctx context.Context, productID string, reviews []domain.Review) error {
	value, err := json.Marshal(reviews)
	if err != nil {
		return fmt.Errorf("marshal reviews: %w", err)
	}

	variables := map[string]any{
		"metafields": []map[string]any{
			{
				"ownerId":   productID,
				"namespace": metafieldNamespace,
				"key":       metafieldKey,
				"type":      metafieldType,
				"value":     string(value),
			},
		},
	}

	var resp writeResponse
	if err := s.admin.Query(ctx, writeMutation, variables, &resp); err != nil {
		return err
	}
	if errs := resp.MetafieldsSet.UserErrors; len(errs) > 0 {
		return apperrors.Remote("set reviews metafield", fmt.Errorf("%s", errs[0].Message))
	}
	return nil
}
