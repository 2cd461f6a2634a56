package entity

import "time"

type SeatStatus string

const (
	SeatStatusAvailable   SeatStatus = "available"
	SeatStatusPending     SeatStatus = "pending"
	SeatStatusBooked      SeatStatus = "booked"
	SeatStatusUnavailable SeatStatus = "unavailable"
)

// ClaimKind tells whether a seat claim belongs to a live hold or a booking.
type ClaimKind string

const (
	ClaimKindLock   ClaimKind = "lock"
	ClaimKindBooked ClaimKind = "booked"
)

// SeatClaim is the row that makes a seat exclusive. There is at most one per
// (event, seat); a lock claim stops counting once ExpiresAt has passed.
type SeatClaim struct {
	Kind      ClaimKind
	ExpiresAt *time.Time
}

// Active reports whether the claim still excludes other buyers at now.
func (c *SeatClaim) Active(now time.Time) bool {
	if c == nil {
		return false
	}
	if c.Kind == ClaimKindBooked {
		return true
	}
	return c.ExpiresAt != nil && c.ExpiresAt.After(now)
}

// DeriveSeatStatus computes the live status of a seat.
// Precedence is unavailable > booked > pending > available.
func DeriveSeatStatus(unavailable bool, claim *SeatClaim, now time.Time) (SeatStatus, *time.Time) {
	switch {
	case unavailable:
		return SeatStatusUnavailable, nil
	case claim == nil:
		return SeatStatusAvailable, nil
	case claim.Kind == ClaimKindBooked:
		return SeatStatusBooked, nil
	case claim.Active(now):
		until := *claim.ExpiresAt
		return SeatStatusPending, &until
	default:
		return SeatStatusAvailable, nil
	}
}
