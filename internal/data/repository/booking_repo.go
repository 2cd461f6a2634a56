package repository

import (
	"context"
	"errors"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const bookingColumns = `id, booking_code, user_id, event_id, category_id, seat_ids, total_amount, status, seat_lock_id, expires_at, created_at, updated_at`

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// Cancel moves a pending booking to cancelled, rejects its open payments
	// and releases its lock in one transaction. Cancelling twice is a no-op.
	Cancel(ctx context.Context, id uuid.UUID) (*entity.BookingTransition, error)
	// FindExpiredPending lists pending bookings whose hold has lapsed or vanished.
	FindExpiredPending(ctx context.Context, limit int) ([]*entity.Booking, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.BookingCode,
		booking.UserID,
		booking.EventID,
		booking.CategoryID,
		booking.SeatIDs,
		booking.TotalAmount,
		booking.Status,
		booking.SeatLockID,
		booking.ExpiresAt,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_code", booking.BookingCode),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.BookingCode, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)

	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return total, nil
}

func (r *bookingRepository) Cancel(ctx context.Context, id uuid.UUID) (*entity.BookingTransition, error) {
	var result entity.BookingTransition

	err := withTx(ctx, r.db, r.log, func(tx pgx.Tx) error {
		booking, err := lockBookingRow(ctx, tx, id)
		if err != nil {
			return err
		}
		if booking == nil {
			return entity.ErrBookingNotFound
		}

		switch booking.Status {
		case entity.BookingStatusCancelled:
			result.Booking = booking
			return nil
		case entity.BookingStatusConfirmed:
			return fmt.Errorf("%w: booking %s is already confirmed", entity.ErrInvalidState, booking.BookingCode)
		}

		_, err = tx.Exec(ctx, `
			UPDATE payment_confirmations
			SET status = 'rejected', decided_at = now(), updated_at = now()
			WHERE booking_id = $1 AND status = 'pending'
		`, id)
		if err != nil {
			return fmt.Errorf("reject open payments: %w", err)
		}

		if err := cancelBookingTx(ctx, tx, booking); err != nil {
			return err
		}

		result.Booking = booking
		result.Changed = true
		return nil
	})

	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		r.log.Error("Failed to cancel booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("cancel booking %s: %w", id.String(), err)
	}

	return &result, nil
}

func (r *bookingRepository) FindExpiredPending(ctx context.Context, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT b.id, b.booking_code, b.user_id, b.event_id, b.category_id, b.seat_ids, b.total_amount,
		       b.status, b.seat_lock_id, b.expires_at, b.created_at, b.updated_at
		FROM bookings b
		LEFT JOIN seat_locks l ON l.id = b.seat_lock_id
		WHERE b.status = 'pending'
		  AND (l.id IS NULL OR l.expires_at <= now())
		ORDER BY b.created_at
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to find expired pending bookings", zap.Error(err))
		return nil, fmt.Errorf("find expired pending bookings: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// lockBookingRow reads a booking and holds its row lock until the tx ends.
func lockBookingRow(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*entity.Booking, error) {
	row := tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
	booking, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock booking %s: %w", id.String(), err)
	}
	return booking, nil
}

// cancelBookingTx flips a pending booking to cancelled and drops its hold.
func cancelBookingTx(ctx context.Context, tx pgx.Tx, booking *entity.Booking) error {
	err := tx.QueryRow(ctx, `
		UPDATE bookings SET status = 'cancelled', updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, booking.ID).Scan(&booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("cancel booking row: %w", err)
	}
	booking.Status = entity.BookingStatusCancelled

	if _, err := tx.Exec(ctx, `DELETE FROM seat_locks WHERE id = $1`, booking.SeatLockID); err != nil {
		return fmt.Errorf("release lock %s: %w", booking.SeatLockID.String(), err)
	}
	return nil
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.BookingCode,
		&b.UserID,
		&b.EventID,
		&b.CategoryID,
		&b.SeatIDs,
		&b.TotalAmount,
		&b.Status,
		&b.SeatLockID,
		&b.ExpiresAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func collectBookings(rows pgx.Rows) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// isDomainError tells business outcomes apart from store failures so the
// former are not logged as errors.
func isDomainError(err error) bool {
	return errors.Is(err, entity.ErrNotFound) ||
		errors.Is(err, entity.ErrInvalidState) ||
		errors.Is(err, entity.ErrBookingExpired) ||
		errors.Is(err, entity.ErrPaymentRejected) ||
		errors.Is(err, entity.ErrPaymentExists) ||
		errors.Is(err, entity.ErrForbidden) ||
		errors.Is(err, entity.ErrSeatsUnavailable) ||
		errors.Is(err, entity.ErrInvalidSelection)
}
