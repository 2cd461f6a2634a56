package repository

import (
	"ticket-booking/pkg/database"

	"go.uber.org/zap"
)

// Repository groups every store the services depend on. Fields are interfaces
// so the Postgres and in-memory implementations are interchangeable.
type Repository struct {
	Category CategoryRepository
	Seat     SeatRepository
	Lock     LockRepository
	Booking  BookingRepository
	Payment  PaymentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Category: NewCategoryRepository(db, log),
		Seat:     NewSeatRepository(db, log),
		Lock:     NewLockRepository(db, log),
		Booking:  NewBookingRepository(db, log),
		Payment:  NewPaymentRepository(db, log),
	}
}
