package response

import (
	"time"

	"ticket-booking/internal/data/entity"
)

// LockResponse carries what a client needs to drive its countdown.
type LockResponse struct {
	ID               string    `json:"id"`
	EventID          string    `json:"event_id"`
	SeatIDs          []string  `json:"seat_ids"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
}

func LockToResponse(l *entity.SeatLock, now time.Time) LockResponse {
	return LockResponse{
		ID:               l.ID.String(),
		EventID:          l.EventID.String(),
		SeatIDs:          l.SeatIDs,
		ExpiresAt:        l.ExpiresAt,
		RemainingSeconds: int(l.Remaining(now) / time.Second),
	}
}
