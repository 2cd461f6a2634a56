package request

type StartBookingRequest struct {
	EventID     string   `json:"event_id" validate:"required,uuid"`
	CategoryID  string   `json:"category_id" validate:"required,uuid"`
	SeatIDs     []string `json:"seat_ids" validate:"required,min=1,max=10,dive,seatcode"`
	TicketCount int      `json:"ticket_count" validate:"required,min=1,max=10"`
}

type SubmitPaymentRequest struct {
	// Reference is the UTR the payer copied from their UPI app.
	Reference string `json:"reference" validate:"required,min=6,max=64"`
}

type ListPaymentsRequest struct {
	PaginatedRequest
	Status string `json:"status" validate:"omitempty,oneof=pending confirmed rejected"`
}
