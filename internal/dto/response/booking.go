package response

import (
	"time"

	"ticket-booking/internal/data/entity"
)

type BookingResponse struct {
	ID               string               `json:"id"`
	BookingCode      string               `json:"booking_code"`
	UserID           string               `json:"user_id"`
	EventID          string               `json:"event_id"`
	CategoryID       string               `json:"category_id"`
	SeatIDs          []string             `json:"seat_ids"`
	TotalAmount      float64              `json:"total_amount"`
	Status           entity.BookingStatus `json:"status"`
	SeatLockID       string               `json:"seat_lock_id"`
	ExpiresAt        time.Time            `json:"expires_at"`
	RemainingSeconds int                  `json:"remaining_seconds"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

type PaymentResponse struct {
	ID        string               `json:"id"`
	BookingID string               `json:"booking_id"`
	UserID    string               `json:"user_id"`
	Amount    float64              `json:"amount"`
	Reference string               `json:"reference"`
	Status    entity.PaymentStatus `json:"status"`
	DecidedAt *time.Time           `json:"decided_at,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

type BookingDetailResponse struct {
	BookingResponse
	Payments []PaymentResponse `json:"payments"`
}

type PaymentDecisionResponse struct {
	Payment PaymentResponse `json:"payment"`
	Booking BookingResponse `json:"booking"`
	Changed bool            `json:"changed"`
}

// Helper converters

// BookingToResponse fills RemainingSeconds only while the booking is pending.
func BookingToResponse(b *entity.Booking, now time.Time) BookingResponse {
	resp := BookingResponse{
		ID:          b.ID.String(),
		BookingCode: b.BookingCode,
		UserID:      b.UserID.String(),
		EventID:     b.EventID.String(),
		CategoryID:  b.CategoryID.String(),
		SeatIDs:     b.SeatIDs,
		TotalAmount: b.TotalAmount,
		Status:      b.Status,
		SeatLockID:  b.SeatLockID.String(),
		ExpiresAt:   b.ExpiresAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if b.IsPending() && b.ExpiresAt.After(now) {
		resp.RemainingSeconds = int(b.ExpiresAt.Sub(now) / time.Second)
	}
	return resp
}

func PaymentToResponse(p *entity.PaymentConfirmation) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		BookingID: p.BookingID.String(),
		UserID:    p.UserID.String(),
		Amount:    p.Amount,
		Reference: p.Reference,
		Status:    p.Status,
		DecidedAt: p.DecidedAt,
		CreatedAt: p.CreatedAt,
	}
}

func BookingDetailToResponse(b *entity.Booking, payments []*entity.PaymentConfirmation, now time.Time) BookingDetailResponse {
	resp := BookingDetailResponse{
		BookingResponse: BookingToResponse(b, now),
		Payments:        make([]PaymentResponse, 0, len(payments)),
	}
	for _, p := range payments {
		resp.Payments = append(resp.Payments, PaymentToResponse(p))
	}
	return resp
}

func DecisionToResponse(d *entity.PaymentDecision, now time.Time) PaymentDecisionResponse {
	return PaymentDecisionResponse{
		Payment: PaymentToResponse(d.Payment),
		Booking: BookingToResponse(d.Booking, now),
		Changed: d.Changed,
	}
}
