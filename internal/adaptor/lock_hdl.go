package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LockHandler struct {
	service usecase.LockService
	log     *zap.Logger
}

func NewLockHandler(service usecase.LockService, log *zap.Logger) *LockHandler {
	return &LockHandler{
		service: service,
		log:     log.With(zap.String("handler", "lock")),
	}
}

// AcquireLock handles POST /api/events/{eventID}/locks (protected)
func (h *LockHandler) AcquireLock(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.AcquireLockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	lock, err := h.service.AcquireLock(r.Context(), userID, chi.URLParam(r, "eventID"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "acquire lock")
		return
	}

	utils.ResponseCreated(w, "Seats held", lock)
}

// ReleaseLock handles DELETE /api/locks/{lockID} (protected, owner or admin)
func (h *LockHandler) ReleaseLock(w http.ResponseWriter, r *http.Request) {
	user, ok := utils.GetCurrentUser(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.ReleaseLock(r.Context(), user, chi.URLParam(r, "lockID")); err != nil {
		handleServiceError(w, h.log, err, "release lock")
		return
	}

	utils.ResponseSuccess(w, "Seats released", nil)
}
