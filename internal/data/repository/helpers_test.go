package repository

import (
	"testing"
	"time"

	"ticket-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newTestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var bookingCols = []string{
	"id", "booking_code", "user_id", "event_id", "category_id", "seat_ids",
	"total_amount", "status", "seat_lock_id", "expires_at", "created_at", "updated_at",
}

var paymentCols = []string{
	"id", "booking_id", "user_id", "amount", "reference", "status", "decided_at", "created_at", "updated_at",
}

func bookingRows(b *entity.Booking) *pgxmock.Rows {
	return pgxmock.NewRows(bookingCols).AddRow(
		b.ID, b.BookingCode, b.UserID, b.EventID, b.CategoryID, b.SeatIDs,
		b.TotalAmount, b.Status, b.SeatLockID, b.ExpiresAt, b.CreatedAt, b.UpdatedAt,
	)
}

func paymentRows(p *entity.PaymentConfirmation) *pgxmock.Rows {
	return pgxmock.NewRows(paymentCols).AddRow(
		p.ID, p.BookingID, p.UserID, p.Amount, p.Reference, p.Status, p.DecidedAt, p.CreatedAt, p.UpdatedAt,
	)
}

func samplePendingBooking() *entity.Booking {
	now := time.Date(2025, 5, 1, 18, 0, 0, 0, time.UTC)
	return &entity.Booking{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		BookingCode: "BOOK-20250501-180000-0042",
		UserID:      uuid.New(),
		EventID:     uuid.New(),
		CategoryID:  uuid.New(),
		SeatIDs:     []string{"A1", "A2"},
		TotalAmount: 500,
		Status:      entity.BookingStatusPending,
		SeatLockID:  uuid.New(),
		ExpiresAt:   now.Add(15 * time.Minute),
	}
}

func samplePayment(b *entity.Booking, status entity.PaymentStatus) *entity.PaymentConfirmation {
	return &entity.PaymentConfirmation{
		Base:      entity.Base{ID: uuid.New(), CreatedAt: b.CreatedAt, UpdatedAt: b.CreatedAt},
		BookingID: b.ID,
		UserID:    b.UserID,
		Amount:    b.TotalAmount,
		Reference: "UTR123456789012",
		Status:    status,
	}
}
