package domain

import (
	"fmt"
	"sort"
	"time"
)

// CreatedAtLayout is the timestamp format stored in the metafield blob.
// It matches the millisecond-precision ISO-8601 strings the legacy data
// was written with, so round-tripping existing blobs preserves them.
const CreatedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// Review is one customer review as stored in the per-product metafield blob.
// Field names are part of the stored JSON contract and must not change.
type Review struct {
	ID           string `json:"id"`
	ProductID    string `json:"productId"`
	Rating       int    `json:"rating"`
	Text         string `json:"text"`
	UserName     string `json:"userName"`
	UserID       string `json:"userId,omitempty"`
	HelpfulCount int    `json:"helpfulCount"`
	CreatedAt    string `json:"createdAt"`
	Verified     bool   `json:"verified,omitempty"`
}

// IsVerified reports whether the review should render as a verified
// purchase. The stored Verified flag is reserved and never written by the
// mutation paths; presence of an authenticated user ID is what counts.
func (r Review) IsVerified() bool {
	return r.Verified || r.UserID != ""
}

// NewReview carries the caller-supplied fields of a review before the
// store assigns id, createdAt and helpfulCount.
type NewReview struct {
	Rating   int    `json:"rating"`
	Text     string `json:"text"`
	UserName string `json:"userName"`
	UserID   string `json:"userId,omitempty"`
}

// Summary contains the aggregate statistics rendered next to a review list.
type Summary struct {
	Count         int    `json:"count"`
	AverageRating string `json:"averageRating"`
}

// Summarize computes the review count and mean rating formatted with
// exactly one decimal digit. An empty list yields "0.0", not an error.
func Summarize(reviews []Review) Summary {
	if len(reviews) == 0 {
		return Summary{Count: 0, AverageRating: "0.0"}
	}

	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	avg := float64(total) / float64(len(reviews))

	return Summary{
		Count:         len(reviews),
		AverageRating: fmt.Sprintf("%.1f", avg),
	}
}

// SortMode selects a review ordering.
type SortMode string

const (
	SortRecent  SortMode = "recent"
	SortHelpful SortMode = "helpful"
)

// SortReviews returns a new slice ordered by the given mode. Recent orders
// by createdAt descending; helpful orders by helpfulCount descending with
// a zero-value count sorting last. Both orderings are stable, so entries
// that compare equal keep their original relative order. The input slice
// is never mutated.
func SortReviews(reviews []Review, mode SortMode) []Review {
	out := make([]Review, len(reviews))
	copy(out, reviews)

	switch mode {
	case SortHelpful:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].HelpfulCount > out[j].HelpfulCount
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return parseCreatedAt(out[i].CreatedAt).After(parseCreatedAt(out[j].CreatedAt))
		})
	}

	return out
}

// Paginate returns the first visibleCount reviews and whether more remain.
func Paginate(reviews []Review, visibleCount int) ([]Review, bool) {
	if visibleCount < 0 {
		visibleCount = 0
	}
	if visibleCount >= len(reviews) {
		return reviews, false
	}
	return reviews[:visibleCount], true
}

// parseCreatedAt parses a stored timestamp. Blobs written by earlier
// clients may carry slightly different ISO-8601 variants, so RFC3339 is
// tried as a fallback. Unparseable values sort last.
func parseCreatedAt(s string) time.Time {
	if t, err := time.Parse(CreatedAtLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
