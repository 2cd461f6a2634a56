package adaptor

import (
	"errors"
	"net/http"
	"strings"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/utils"

	"go.uber.org/zap"
)

// Conflict codes let clients tell 409 responses apart.
const (
	CodePaymentRejected = "payment_rejected"
	CodePaymentExists   = "payment_exists"
	CodeInvalidState    = "invalid_state"
)

const (
	msgSeatsUnavailable = "These seats are no longer available"
	msgSessionExpired   = "Your session expired, please select seats again"
)

var notFoundMessages = []struct {
	err error
	msg string
}{
	{entity.ErrBookingNotFound, "Booking not found"},
	{entity.ErrPaymentNotFound, "Payment not found"},
	{entity.ErrLockNotFound, "Seat lock not found"},
	{entity.ErrCategoryNotFound, "Seat category not found"},
}

// handleServiceError maps domain errors to responses. Anything unrecognised
// is logged and hidden behind a 500.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validation *entity.ValidationError
	var unavailable *entity.SeatsUnavailableError

	switch {
	case errors.As(err, &validation):
		log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, "Validation failed", validation.Fields)

	case errors.Is(err, entity.ErrInvalidSelection):
		log.Warn(operation+" rejected selection", zap.Error(err))
		utils.ResponseBadRequest(w, selectionMessage(err), nil)

	case errors.As(err, &unavailable):
		log.Info(operation+" conflicted", zap.Strings("seat_ids", unavailable.Seats))
		utils.ResponseConflict(w, msgSeatsUnavailable, map[string]any{
			"unavailable_seats": unavailable.Seats,
		})

	case errors.Is(err, entity.ErrBookingExpired):
		log.Info(operation+" failed - hold expired", zap.Error(err))
		utils.ResponseGone(w, msgSessionExpired)

	case errors.Is(err, entity.ErrPaymentRejected):
		utils.ResponseConflict(w, "Payment was rejected", conflictCode(CodePaymentRejected))

	case errors.Is(err, entity.ErrPaymentExists):
		utils.ResponseConflict(w, "Another payment is already open for this booking", conflictCode(CodePaymentExists))

	case errors.Is(err, entity.ErrInvalidState):
		log.Warn(operation+" failed - invalid state", zap.Error(err))
		utils.ResponseConflict(w, "This booking can no longer be changed", conflictCode(CodeInvalidState))

	case errors.Is(err, entity.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, "You do not have access to this resource")

	case errors.Is(err, entity.ErrNotFound):
		utils.ResponseNotFound(w, notFoundMessage(err))

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func conflictCode(code string) map[string]string {
	return map[string]string{"code": code}
}

// selectionMessage keeps only the user-facing reason of a selection error.
func selectionMessage(err error) string {
	msg := err.Error()
	prefix := entity.ErrInvalidSelection.Error() + ": "
	if i := strings.LastIndex(msg, prefix); i >= 0 {
		reason := msg[i+len(prefix):]
		return strings.ToUpper(reason[:1]) + reason[1:]
	}
	return "Invalid seat selection"
}

func notFoundMessage(err error) string {
	for _, nf := range notFoundMessages {
		if errors.Is(err, nf.err) {
			return nf.msg
		}
	}
	return "Not found"
}
