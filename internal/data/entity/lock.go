package entity

import (
	"time"

	"github.com/google/uuid"
)

// DefaultLockTTLMinutes is the whole checkout budget when none is configured.
const DefaultLockTTLMinutes = 15

type SeatLock struct {
	BaseSimple
	EventID   uuid.UUID `db:"event_id"`
	UserID    uuid.UUID `db:"user_id"`
	SeatIDs   []string  `db:"seat_ids"`
	ExpiresAt time.Time `db:"expires_at"`
}

// IsExpired has no side effects; expired locks are simply ignored by conflict checks.
func (l *SeatLock) IsExpired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}

// Remaining is the hold time left at now, never negative.
func (l *SeatLock) Remaining(now time.Time) time.Duration {
	if l.IsExpired(now) {
		return 0
	}
	return l.ExpiresAt.Sub(now)
}

// NormalizeSeatIDs trims blanks and drops duplicates while keeping order.
func NormalizeSeatIDs(seatIDs []string) []string {
	seen := make(map[string]struct{}, len(seatIDs))
	out := make([]string, 0, len(seatIDs))
	for _, id := range seatIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
