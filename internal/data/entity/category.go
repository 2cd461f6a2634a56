package entity

import "github.com/google/uuid"

type SeatCategory struct {
	ID          uuid.UUID `db:"id" json:"id"`
	EventID     uuid.UUID `db:"event_id" json:"event_id"`
	Name        string    `db:"name" json:"name"`
	Price       float64   `db:"price" json:"price"`
	Color       string    `db:"color" json:"color"`
	IsAvailable bool      `db:"is_available" json:"is_available"`
}
