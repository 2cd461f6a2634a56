package response

import (
	"time"

	"ticket-booking/internal/data/entity"
)

type CategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Color       string  `json:"color"`
	IsAvailable bool    `json:"is_available"`
}

type SeatResponse struct {
	SeatID       string            `json:"seat_id"`
	RowLabel     string            `json:"row_label"`
	SeatNumber   int               `json:"seat_number"`
	CategoryID   string            `json:"category_id"`
	CategoryName string            `json:"category_name,omitempty"`
	Color        string            `json:"color,omitempty"`
	Price        float64           `json:"price"`
	Status       entity.SeatStatus `json:"status"`
	LockedUntil  *time.Time        `json:"locked_until,omitempty"`
}

type SeatMapResponse struct {
	EventID string         `json:"event_id"`
	Seats   []SeatResponse `json:"seats"`
	Summary map[string]int `json:"summary"`
}

// Helper converters
func CategoryToResponse(c *entity.SeatCategory) CategoryResponse {
	return CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Price:       c.Price,
		Color:       c.Color,
		IsAvailable: c.IsAvailable,
	}
}

func SeatToResponse(v *entity.SeatView) SeatResponse {
	return SeatResponse{
		SeatID:       v.SeatID,
		RowLabel:     v.RowLabel,
		SeatNumber:   v.SeatNumber,
		CategoryID:   v.CategoryID.String(),
		CategoryName: v.CategoryName,
		Color:        v.Color,
		Price:        v.Price,
		Status:       v.Status,
		LockedUntil:  v.LockedUntil,
	}
}

func NewSeatMapResponse(eventID string, views []*entity.SeatView) SeatMapResponse {
	out := SeatMapResponse{
		EventID: eventID,
		Seats:   make([]SeatResponse, 0, len(views)),
		Summary: make(map[string]int, 4),
	}
	for _, v := range views {
		out.Seats = append(out.Seats, SeatToResponse(v))
		out.Summary[string(v.Status)]++
	}
	return out
}
