package wire

import (
	"ticket-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireInventory(r chi.Router, inventoryHandler *adaptor.InventoryHandler) {
	// ==================== PUBLIC ROUTES ====================
	r.Route("/api/events/{eventID}", func(r chi.Router) {
		// GET /api/events/{eventID}/categories - Seat categories with prices
		r.Get("/categories", inventoryHandler.ListCategories)

		// GET /api/events/{eventID}/seats?category_id= - Seat map with live status
		r.Get("/seats", inventoryHandler.ListSeats)
	})
}
