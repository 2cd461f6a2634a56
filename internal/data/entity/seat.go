package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seat is a static layout row. It never carries live status.
type Seat struct {
	EventID     uuid.UUID `db:"event_id"`
	SeatID      string    `db:"seat_id"`     // A1, A2, B1, etc.
	RowLabel    string    `db:"row_label"`   // A, B, C, etc.
	SeatNumber  int       `db:"seat_number"` // 1, 2, 3, etc.
	CategoryID  uuid.UUID `db:"category_id"`
	Unavailable bool      `db:"unavailable"`
}

// SeatCode builds the "{row}{number}" identifier used across locks and bookings.
func SeatCode(row string, number int) string {
	return fmt.Sprintf("%s%d", row, number)
}

// SeatView is the read-side projection of a seat joined with its category
// and its current claim, if any.
type SeatView struct {
	Seat
	CategoryName string
	Color        string
	Price        float64
	Status       SeatStatus
	LockedUntil  *time.Time
}
