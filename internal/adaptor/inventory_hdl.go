package adaptor

import (
	"net/http"

	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	service usecase.InventoryService
	log     *zap.Logger
}

func NewInventoryHandler(service usecase.InventoryService, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{
		service: service,
		log:     log.With(zap.String("handler", "inventory")),
	}
}

// ListCategories handles GET /api/events/{eventID}/categories (public)
func (h *InventoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		handleServiceError(w, h.log, err, "list categories")
		return
	}

	utils.ResponseSuccess(w, "success", categories)
}

// ListSeats handles GET /api/events/{eventID}/seats?category_id= (public)
func (h *InventoryHandler) ListSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.service.ListSeats(r.Context(), chi.URLParam(r, "eventID"), r.URL.Query().Get("category_id"))
	if err != nil {
		handleServiceError(w, h.log, err, "list seats")
		return
	}

	utils.ResponseSuccess(w, "success", seats)
}
