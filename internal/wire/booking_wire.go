package wire

import (
	"ticket-booking/internal/adaptor"
	"ticket-booking/pkg/middleware"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(r chi.Router, bookingHandler *adaptor.BookingHandler, config *utils.Config, log *zap.Logger) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT.Secret, log))

		// POST /api/bookings - Lock seats and open a pending booking
		r.Post("/api/bookings", bookingHandler.StartBooking)

		// GET /api/bookings/{id} - Booking with its payments (owner or admin)
		r.Get("/api/bookings/{id}", bookingHandler.GetBooking)

		// DELETE /api/bookings/{id} - Cancel a pending booking (owner or admin)
		r.Delete("/api/bookings/{id}", bookingHandler.CancelBooking)

		// GET /api/user/bookings - Booking history of the caller
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)
	})
}
