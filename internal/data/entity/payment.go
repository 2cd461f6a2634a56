package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusRejected  PaymentStatus = "rejected"
)

// PaymentConfirmation is the record of truth for payment. A booking's status
// only moves in the same transaction that moves one of these.
type PaymentConfirmation struct {
	Base
	BookingID uuid.UUID     `db:"booking_id"`
	UserID    uuid.UUID     `db:"user_id"`
	Amount    float64       `db:"amount"`
	Reference string        `db:"reference"` // UTR supplied by the payer
	Status    PaymentStatus `db:"status"`
	DecidedAt *time.Time    `db:"decided_at"`
}

// PaymentDecision is returned by confirm/reject. Changed is false for repeated calls.
type PaymentDecision struct {
	Payment *PaymentConfirmation
	Booking *Booking
	Changed bool
}

// ClosedByExpiry reports whether p was closed because b's hold ran out
// rather than by an explicit reject or cancel.
func (p *PaymentConfirmation) ClosedByExpiry(b *Booking) bool {
	if b.Status != BookingStatusCancelled {
		return false
	}
	switch p.Status {
	case PaymentStatusPending:
		return true
	case PaymentStatusRejected:
		return p.DecidedAt == nil || !p.DecidedAt.Before(b.ExpiresAt)
	}
	return false
}
