package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/httputil"
	"github.com/QDHolding/Uptown-Beauty-EcomStore/pkg/pagination"

	"github.com/QDHolding/Uptown-Beauty-EcomStore/internal/service"
)

// CatalogHandler handles HTTP requests for product endpoints.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{service: svc, logger: logger}
}

// ListProducts handles GET /api/v1/products
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	result := h.service.ListProducts(r.Context(), r.URL.Query().Get("category"), pagination.FromRequest(r))
	httputil.WriteJSON(w, http.StatusOK, result)
}

// Categories handles GET /api/v1/products/categories
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.service.Categories(r.Context()))
}

// GetProduct handles GET /api/v1/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, detail)
}
