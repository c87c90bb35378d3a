package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopfront/reviews/internal/domain"
	pkgkafka "github.com/shopfront/reviews/pkg/kafka"
	"github.com/shopfront/reviews/pkg/logger"
)

// Kafka topics for review domain events.
var (
	TopicReviewCreated      = pkgkafka.Topic("review", "created")
	TopicReviewHelpfulVoted = pkgkafka.Topic("review", "helpful-voted")
)

// Event type identifiers carried in the envelope.
const (
	TypeReviewCreated      = "review.created"
	TypeReviewHelpfulVoted = "review.helpful-voted"
)

// Aggregate type constant.
const AggregateTypeReview = "review"

// Source identifier for events originating from this service.
const SourceReviews = "storefront-reviews"

// ReviewCreatedData is the payload for a review.created event.
type ReviewCreatedData struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	UserName  string `json:"user_name"`
	UserID    string `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ReviewHelpfulVotedData is the payload for a review.helpful-voted event.
type ReviewHelpfulVotedData struct {
	ReviewID  string `json:"review_id"`
	ProductID string `json:"product_id"`
}

// Bus is the publishing side of the event transport.
type Bus interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes review domain events to the bus.
type Producer struct {
	kafka  Bus
	logger *slog.Logger
}

// NewProducer creates a new event producer for the reviews service.
func NewProducer(kafka Bus, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	data := ReviewCreatedData{
		ReviewID:  review.ID,
		ProductID: review.ProductID,
		Rating:    review.Rating,
		UserName:  review.UserName,
		UserID:    review.UserID,
		CreatedAt: review.CreatedAt,
	}

	event, err := pkgkafka.NewEvent(TypeReviewCreated, review.ID, AggregateTypeReview, SourceReviews, data)
	if err != nil {
		return fmt.Errorf("create review.created event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicReviewCreated, event); err != nil {
		return fmt.Errorf("publish review.created event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.created event",
		slog.String("review_id", review.ID),
		slog.String("product_id", review.ProductID),
	)

	return nil
}

// PublishReviewHelpfulVoted publishes a review.helpful-voted event.
func (p *Producer) PublishReviewHelpfulVoted(ctx context.Context, productID, reviewID string) error {
	data := ReviewHelpfulVotedData{
		ReviewID:  reviewID,
		ProductID: productID,
	}

	event, err := pkgkafka.NewEvent(TypeReviewHelpfulVoted, reviewID, AggregateTypeReview, SourceReviews, data)
	if err != nil {
		return fmt.Errorf("create review.helpful-voted event: %w", err)
	}
	event.WithCorrelationID(logger.CorrelationIDFromContext(ctx))

	if err := p.kafka.Publish(ctx, TopicReviewHelpfulVoted, event); err != nil {
		return fmt.Errorf("publish review.helpful-voted event: %w", err)
	}

	p.logger.DebugContext(ctx, "published review.helpful-voted event",
		slog.String("review_id", reviewID),
		slog.String("product_id", productID),
	)

	return nil
}
