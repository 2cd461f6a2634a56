package wire

import (
	"ticket-booking/internal/adaptor"
	"ticket-booking/pkg/middleware"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(r chi.Router, paymentHandler *adaptor.PaymentHandler, config *utils.Config, log *zap.Logger) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT.Secret, log))

		// POST /api/bookings/{id}/payments - Submit a payment reference
		r.Post("/api/bookings/{id}/payments", paymentHandler.SubmitPayment)
	})

	// ==================== ADMIN ROUTES ====================
	r.Route("/api/admin/payments", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(middleware.Auth(config.JWT.Secret, log))
		r.Use(middleware.Admin(log))

		// GET /api/admin/payments?status= - Verification queue
		r.Get("/", paymentHandler.ListPayments)

		// POST /api/admin/payments/{id}/confirm - Book the seats for good
		r.Post("/{id}/confirm", paymentHandler.Confirm)

		// POST /api/admin/payments/{id}/reject - Reject and release the seats
		r.Post("/{id}/reject", paymentHandler.Reject)
	})
}
