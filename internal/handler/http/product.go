package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shopfront/reviews/internal/service"
	"github.com/shopfront/reviews/pkg/httputil"
)

// ProductHandler serves product-page data.
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

// Get handles GET /api/products/{handle}. It returns the catalog
// product together with its reviews (newest-first) and summary so the
// storefront renders the page in one round-trip. An unknown handle
// returns 404.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")

	page, err := h.service.PageByHandle(r.Context(), handle)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: page})
}
