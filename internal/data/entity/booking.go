package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// CancelReason is carried on cancellation events only; the row keeps the plain status.
type CancelReason string

const (
	CancelReasonUser     CancelReason = "cancelled"
	CancelReasonRejected CancelReason = "payment_rejected"
	CancelReasonExpired  CancelReason = "expired"
)

type Booking struct {
	Base
	BookingCode string        `db:"booking_code"`
	UserID      uuid.UUID     `db:"user_id"`
	EventID     uuid.UUID     `db:"event_id"`
	CategoryID  uuid.UUID     `db:"category_id"`
	SeatIDs     []string      `db:"seat_ids"`
	TotalAmount float64       `db:"total_amount"`
	Status      BookingStatus `db:"status"`
	SeatLockID  uuid.UUID     `db:"seat_lock_id"`
	// ExpiresAt snapshots the hold deadline for display. The lock row stays authoritative.
	ExpiresAt time.Time `db:"expires_at"`
}

func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

// OwnedBy reports whether userID placed the booking.
func (b *Booking) OwnedBy(userID uuid.UUID) bool {
	return b.UserID == userID
}

// BookingTransition is what an atomic booking state change returns:
// the row after the change and whether anything actually moved.
type BookingTransition struct {
	Booking *Booking
	Changed bool
}
