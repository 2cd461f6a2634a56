// Package events publishes booking lifecycle events after their transaction
// has committed. Delivery is best effort.
package events

import (
	"context"
	"encoding/json"
	"time"

	"ticket-booking/internal/data/entity"
)

type Type string

const (
	BookingConfirmed Type = "booking.confirmed"
	BookingCancelled Type = "booking.cancelled"
)

type BookingEvent struct {
	Type        Type                `json:"type"`
	BookingID   string              `json:"booking_id"`
	BookingCode string              `json:"booking_code"`
	UserID      string              `json:"user_id"`
	EventID     string              `json:"event_id"`
	SeatIDs     []string            `json:"seat_ids"`
	Amount      float64             `json:"amount"`
	PaymentID   string              `json:"payment_id,omitempty"`
	Reason      entity.CancelReason `json:"reason,omitempty"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

func (e BookingEvent) JSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewConfirmed builds the event emitted once a payment confirmation commits.
func NewConfirmed(d *entity.PaymentDecision, at time.Time) BookingEvent {
	ev := fromBooking(BookingConfirmed, d.Booking, at)
	ev.PaymentID = d.Payment.ID.String()
	return ev
}

func NewCancelled(b *entity.Booking, reason entity.CancelReason, at time.Time) BookingEvent {
	ev := fromBooking(BookingCancelled, b, at)
	ev.Reason = reason
	return ev
}

func fromBooking(t Type, b *entity.Booking, at time.Time) BookingEvent {
	return BookingEvent{
		Type:        t,
		BookingID:   b.ID.String(),
		BookingCode: b.BookingCode,
		UserID:      b.UserID.String(),
		EventID:     b.EventID.String(),
		SeatIDs:     b.SeatIDs,
		Amount:      b.TotalAmount,
		OccurredAt:  at.UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event BookingEvent) error
	Close() error
}

// Noop drops every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, BookingEvent) error { return nil }
func (Noop) Close() error                                { return nil }
