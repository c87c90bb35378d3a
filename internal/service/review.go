package service

import (
	"context"
	"log/slog"

	"github.com/shopfront/reviews/internal/domain"
	"github.com/shopfront/reviews/internal/store"
	apperrors "github.com/shopfront/reviews/pkg/errors"
)

// EventPublisher publishes review domain events. Publishing is
// best-effort: the review store is the source of truth and a broker
// outage must not fail a submission.
type EventPublisher interface {
	PublishReviewCreated(ctx context.Context, review *domain.Review) error
	PublishReviewHelpfulVoted(ctx context.Context, productID, reviewID string) error
}

// ReviewPage is a sorted, paginated view of a product's reviews.
type ReviewPage struct {
	Reviews []domain.Review `json:"reviews"`
	Summary domain.Summary  `json:"summary"`
	HasMore bool            `json:"hasMore"`
}

// ReviewService implements the review submission and voting flows.
type ReviewService struct {
	reviews store.ReviewStore
	events  EventPublisher
	logger  *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(reviews store.ReviewStore, events EventPublisher, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		reviews: reviews,
		events:  events,
		logger:  logger,
	}
}

// Submit appends a review to the product's stored collection and
// publishes a review.created event. The returned review carries the
// store-assigned id and timestamp.
func (s *ReviewService) Submit(ctx context.Context, productID string, input domain.NewReview) (*domain.Review, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("productId is required")
	}

	review, err := s.reviews.AppendReview(ctx, productID, input)
	if err != nil {
		return nil, err
	}

	if err := s.events.PublishReviewCreated(ctx, review); err != nil {
		s.logger.WarnContext(ctx, "failed to publish review.created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return review, nil
}

// VoteHelpful increments the helpful count of one review. An unknown
// reviewId is a silent no-op by the store contract.
func (s *ReviewService) VoteHelpful(ctx context.Context, productID, reviewID string) error {
	if productID == "" || reviewID == "" {
		return apperrors.InvalidInput("productId and reviewId are required")
	}

	if err := s.reviews.IncrementHelpful(ctx, productID, reviewID); err != nil {
		return err
	}

	if err := s.events.PublishReviewHelpfulVoted(ctx, productID, reviewID); err != nil {
		s.logger.WarnContext(ctx, "failed to publish review.helpful-voted event",
			slog.String("review_id", reviewID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}

// ListForProduct returns the product's reviews sorted by the given mode,
// trimmed to visibleCount, together with the aggregate summary. The
// summary always covers the full collection, not just the visible page.
func (s *ReviewService) ListForProduct(ctx context.Context, productID string, mode domain.SortMode, visibleCount int) (*ReviewPage, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("productId is required")
	}

	reviews, err := s.reviews.FetchReviews(ctx, productID)
	if err != nil {
		return nil, err
	}

	sorted := domain.SortReviews(reviews, mode)
	page, hasMore := domain.Paginate(sorted, visibleCount)

	return &ReviewPage{
		Reviews: page,
		Summary: domain.Summarize(reviews),
		HasMore: hasMore,
	}, nil
}
