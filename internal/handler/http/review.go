package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopfront/reviews/internal/domain"
	"github.com/shopfront/reviews/internal/identity"
	"github.com/shopfront/reviews/internal/service"
	"github.com/shopfront/reviews/pkg/httputil"
)

// ReviewHandler serves the review endpoints. POST and PATCH keep the
// wire contract of the legacy storefront API routes verbatim: flat
// {"error": "..."} bodies, status 500 for any downstream failure, and
// unknown PATCH actions accepted silently. Existing storefront clients
// depend on those exact shapes.
type ReviewHandler struct {
	service  *service.ReviewService
	identity identity.Provider
	logger   *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, idp identity.Provider, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  svc,
		identity: idp,
		logger:   logger,
	}
}

// --- Request DTOs ---

type createReviewRequest struct {
	ProductID string            `json:"productId"`
	Review    *domain.NewReview `json:"review"`
}

type updateReviewRequest struct {
	ProductID string `json:"productId"`
	ReviewID  string `json:"reviewId"`
	Action    string `json:"action"`
}

// legacyError is the flat error body of the legacy review routes.
type legacyError struct {
	Error string `json:"error"`
}

// Create handles POST /api/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, legacyError{Error: "Missing fields"})
		return
	}
	if req.ProductID == "" || req.Review == nil {
		httputil.WriteJSON(w, http.StatusBadRequest, legacyError{Error: "Missing fields"})
		return
	}

	input := *req.Review

	// Anonymous clients send only a typed name. When the session is
	// authenticated, fill in the identity the client omitted so the
	// stored review carries the attribution.
	if id := h.identity.Current(r.Context()); id != nil {
		if input.UserID == "" {
			input.UserID = id.ID
		}
		if input.UserName == "" {
			input.UserName = id.Name
		}
	}

	review, err := h.service.Submit(r.Context(), req.ProductID, input)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "review submission failed",
			slog.String("product_id", req.ProductID),
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, http.StatusInternalServerError, legacyError{Error: "Failed to create review"})
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"review":  review,
	})
}

// Update handles PATCH /api/reviews. The only recognized action is
// "helpfulCount"; any other value is accepted and ignored.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, legacyError{Error: "Missing required IDs"})
		return
	}
	if req.ProductID == "" || req.ReviewID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, legacyError{Error: "Missing required IDs"})
		return
	}

	if req.Action == "helpfulCount" {
		if err := h.service.VoteHelpful(r.Context(), req.ProductID, req.ReviewID); err != nil {
			h.logger.ErrorContext(r.Context(), "helpful vote failed",
				slog.String("product_id", req.ProductID),
				slog.String("review_id", req.ReviewID),
				slog.String("error", err.Error()),
			)
			httputil.WriteJSON(w, http.StatusInternalServerError, legacyError{Error: "Failed to update review"})
			return
		}
	} else {
		h.logger.WarnContext(r.Context(), "ignoring unknown review action",
			slog.String("action", req.Action),
		)
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// List handles GET /api/reviews. It returns the sorted, paginated
// review list with the aggregate summary for one product.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	productID := r.URL.Query().Get("productId")

	mode := domain.SortRecent
	if r.URL.Query().Get("sort") == string(domain.SortHelpful) {
		mode = domain.SortHelpful
	}

	visible := 10
	if raw := r.URL.Query().Get("visible"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			visible = n
		}
	}

	page, err := h.service.ListForProduct(r.Context(), productID, mode, visible)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}
