package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopfront/reviews/internal/domain"
	"github.com/shopfront/reviews/internal/identity"
	"github.com/shopfront/reviews/internal/service"
	apperrors "github.com/shopfront/reviews/pkg/errors"
)

// fakeReviewStore is an in-memory store.ReviewStore.
type fakeReviewStore struct {
	reviews    map[string][]domain.Review
	appendErr  error
	votes      int
	failVotes  bool
	lastAppend domain.NewReview
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{reviews: map[string][]domain.Review{}}
}

func (f *fakeReviewStore) FetchReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	return f.reviews[productID], nil
}

func (f *fakeReviewStore) AppendReview(ctx context.Context, productID string, input domain.NewReview) (*domain.Review, error) {
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.lastAppend = input
	review := domain.Review{
		ID:        "rev-new",
		ProductID: productID,
		Rating:    input.Rating,
		Text:      input.Text,
		UserName:  input.UserName,
		UserID:    input.UserID,
		CreatedAt: "2025-06-01T12:00:00.000Z",
	}
	f.reviews[productID] = append([]domain.Review{review}, f.reviews[productID]...)
	return &review, nil
}

func (f *fakeReviewStore) IncrementHelpful(ctx context.Context, productID, reviewID string) error {
	if f.failVotes {
		return apperrors.Remote("set reviews metafield", assert.AnError)
	}
	f.votes++
	return nil
}

type noopPublisher struct{}

func (noopPublisher) PublishReviewCreated(ctx context.Context, review *domain.Review) error {
	return nil
}

func (noopPublisher) PublishReviewHelpfulVoted(ctx context.Context, productID, reviewID string) error {
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newReviewTestHandler(store *fakeReviewStore, idp identity.Provider) *ReviewHandler {
	logger := testLogger()
	svc := service.NewReviewService(store, noopPublisher{}, logger)
	return NewReviewHandler(svc, idp, logger)
}

func anonymous() identity.Provider {
	return identity.NewStatic("", "", "")
}

// --- POST /api/reviews ---

func TestCreate_EmptyBody_Returns400MissingFields(t *testing.T) {
	h := newReviewTestHandler(newFakeReviewStore(), anonymous())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Missing fields"}`, rr.Body.String())
}

func TestCreate_MissingReview_Returns400(t *testing.T) {
	h := newReviewTestHandler(newFakeReviewStore(), anonymous())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{"productId":"p1"}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Missing fields"}`, rr.Body.String())
}

func TestCreate_MalformedJSON_Returns400(t *testing.T) {
	h := newReviewTestHandler(newFakeReviewStore(), anonymous())

	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(`{broken`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreate_Success_ReturnsStoredReview(t *testing.T) {
	store := newFakeReviewStore()
	h := newReviewTestHandler(store, anonymous())

	body := `{"productId":"gid://shopify/Product/1","review":{"rating":5,"text":"love it","userName":"Ann"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Success bool          `json:"success"`
		Review  domain.Review `json:"review"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "rev-new", resp.Review.ID)
	assert.Equal(t, "gid://shopify/Product/1", resp.Review.ProductID)
	assert.Equal(t, 5, resp.Review.Rating)
	assert.Equal(t, "Ann", resp.Review.UserName)
	assert.NotEmpty(t, resp.Review.CreatedAt)
}

func TestCreate_AuthenticatedSession_FillsIdentity(t *testing.T) {
	store := newFakeReviewStore()
	h := newReviewTestHandler(store, identity.NewStatic("user-9", "Ann", "ann@example.com"))

	body := `{"productId":"p1","review":{"rating":4,"text":"nice"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-9", store.lastAppend.UserID)
	assert.Equal(t, "Ann", store.lastAppend.UserName)
}

func TestCreate_PayloadIdentity_NotOverwritten(t *testing.T) {
	store := newFakeReviewStore()
	h := newReviewTestHandler(store, identity.NewStatic("user-9", "Ann", "ann@example.com"))

	body := `{"productId":"p1","review":{"rating":4,"text":"ok","userName":"Bob","userId":"user-3"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "user-3", store.lastAppend.UserID)
	assert.Equal(t, "Bob", store.lastAppend.UserName)
}

func TestCreate_StoreFailure_Returns500LegacyBody(t *testing.T) {
	store := newFakeReviewStore()
	store.appendErr = apperrors.Remote("set reviews metafield", assert.AnError)
	h := newReviewTestHandler(store, anonymous())

	body := `{"productId":"p1","review":{"rating":5,"text":"x","userName":"Ann"}}`
	req := httptest.NewRequest(http.MethodPost, "/api/reviews", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to create review"}`, rr.Body.String())
}

// --- PATCH /api/reviews ---

func TestUpdate_HelpfulCount_IncrementsStore(t *testing.T) {
	store := newFakeReviewStore()
	h := newReviewTestHandler(store, anonymous())

	body := `{"productId":"p1","reviewId":"rev-1","action":"helpfulCount"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/reviews", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
	assert.Equal(t, 1, store.votes)
}

func TestUpdate_UnknownAction_AcceptedAndIgnored(t *testing.T) {
	store := newFakeReviewStore()
	h := newReviewTestHandler(store, anonymous())

	body := `{"productId":"p1","reviewId":"rev-1","action":"unknown"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/reviews", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true}`, rr.Body.String())
	assert.Equal(t, 0, store.votes, "unknown actions must not touch the store")
}

func TestUpdate_MissingIDs_Returns400(t *testing.T) {
	h := newReviewTestHandler(newFakeReviewStore(), anonymous())

	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"missing reviewId", `{"productId":"p1","action":"helpfulCount"}`},
		{"missing productId", `{"reviewId":"rev-1","action":"helpfulCount"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPatch, "/api/reviews", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.Update(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.JSONEq(t, `{"error":"Missing required IDs"}`, rr.Body.String())
		})
	}
}

func TestUpdate_StoreFailure_Returns500LegacyBody(t *testing.T) {
	store := newFakeReviewStore()
	store.failVotes = true
	h := newReviewTestHandler(store, anonymous())

	body := `{"productId":"p1","reviewId":"rev-1","action":"helpfulCount"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/reviews", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Update(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Failed to update review"}`, rr.Body.String())
}

// --- GET /api/reviews ---

func TestList_ReturnsSortedPage(t *testing.T) {
	store := newFakeReviewStore()
	store.reviews["p1"] = []domain.Review{
		{ID: "a", Rating: 5, HelpfulCount: 1, CreatedAt: "2025-01-01T10:00:00.000Z"},
		{ID: "b", Rating: 3, HelpfulCount: 9, CreatedAt: "2025-02-01T10:00:00.000Z"},
	}
	h := newReviewTestHandler(store, anonymous())

	req := httptest.NewRequest(http.MethodGet, "/api/reviews?productId=p1&sort=helpful&visible=1", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data service.ReviewPage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Reviews, 1)
	assert.Equal(t, "b", resp.Data.Reviews[0].ID)
	assert.True(t, resp.Data.HasMore)
	assert.Equal(t, 2, resp.Data.Summary.Count)
	assert.Equal(t, "4.0", resp.Data.Summary.AverageRating)
}

func TestList_MissingProductID_Returns400(t *testing.T) {
	h := newReviewTestHandler(newFakeReviewStore(), anonymous())

	req := httptest.NewRequest(http.MethodGet, "/api/reviews", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "INVALID_INPUT")
}
