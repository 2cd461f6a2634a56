package request

type AcquireLockRequest struct {
	SeatIDs    []string `json:"seat_ids" validate:"required,min=1,max=10,dive,seatcode"`
	TTLMinutes int      `json:"ttl_minutes,omitempty" validate:"omitempty,min=1,max=30"`
}
