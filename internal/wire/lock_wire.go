package wire

import (
	"ticket-booking/internal/adaptor"
	"ticket-booking/pkg/middleware"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireLock(r chi.Router, lockHandler *adaptor.LockHandler, config *utils.Config, log *zap.Logger) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(config.JWT.Secret, log))

		// POST /api/events/{eventID}/locks - Hold seats without starting a booking
		r.Post("/api/events/{eventID}/locks", lockHandler.AcquireLock)

		// DELETE /api/locks/{lockID} - Release a hold (owner or admin)
		r.Delete("/api/locks/{lockID}", lockHandler.ReleaseLock)
	})
}
