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

const paymentColumns = `id, booking_id, user_id, amount, reference, status, decided_at, created_at, updated_at`

type PaymentRepository interface {
	// Submit records a claimed payment for a pending booking whose hold is
	// still active. Resubmitting the same reference returns the existing
	// record with created=false.
	Submit(ctx context.Context, payment *entity.PaymentConfirmation) (result *entity.PaymentConfirmation, created bool, err error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentConfirmation, error)
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentConfirmation, error)
	ListByStatus(ctx context.Context, status entity.PaymentStatus, limit, offset int) ([]*entity.PaymentConfirmation, error)
	CountByStatus(ctx context.Context, status entity.PaymentStatus) (int64, error)

	// Confirm marks the payment and booking confirmed, turns the held seats
	// into booked seats and retires the lock, all in one transaction.
	Confirm(ctx context.Context, id uuid.UUID) (*entity.PaymentDecision, error)
	// Reject marks the payment rejected, cancels the booking and releases the lock.
	Reject(ctx context.Context, id uuid.UUID) (*entity.PaymentDecision, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

func (r *paymentRepository) Submit(ctx context.Context, payment *entity.PaymentConfirmation) (*entity.PaymentConfirmation, bool, error) {
	var (
		result  *entity.PaymentConfirmation
		created bool
	)

	err := withTx(ctx, r.db, r.log, func(tx pgx.Tx) error {
		booking, err := lockBookingRow(ctx, tx, payment.BookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return entity.ErrBookingNotFound
		}
		if !booking.OwnedBy(payment.UserID) {
			return entity.ErrForbidden
		}

		row := tx.QueryRow(ctx, `
			SELECT `+paymentColumns+`
			FROM payment_confirmations
			WHERE booking_id = $1 AND status IN ('pending', 'confirmed')
		`, payment.BookingID)
		existing, err := scanPayment(row)
		switch {
		case err == nil:
			if existing.Reference == payment.Reference {
				result = existing
				return nil
			}
			if existing.Status == entity.PaymentStatusConfirmed {
				return fmt.Errorf("%w: booking %s is already paid", entity.ErrInvalidState, booking.BookingCode)
			}
			return entity.ErrPaymentExists
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("find open payment: %w", err)
		}

		if !booking.IsPending() {
			return fmt.Errorf("%w: booking %s is %s", entity.ErrBookingExpired, booking.BookingCode, booking.Status)
		}

		var active bool
		err = tx.QueryRow(ctx, `SELECT expires_at > now() FROM seat_locks WHERE id = $1`, booking.SeatLockID).Scan(&active)
		if errors.Is(err, pgx.ErrNoRows) || (err == nil && !active) {
			return fmt.Errorf("%w: hold for booking %s has lapsed", entity.ErrBookingExpired, booking.BookingCode)
		}
		if err != nil {
			return fmt.Errorf("check lock: %w", err)
		}

		payment.Amount = booking.TotalAmount
		payment.Status = entity.PaymentStatusPending
		err = tx.QueryRow(ctx, `
			INSERT INTO payment_confirmations (id, booking_id, user_id, amount, reference, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING created_at, updated_at
		`, payment.ID, payment.BookingID, payment.UserID, payment.Amount, payment.Reference, payment.Status).
			Scan(&payment.CreatedAt, &payment.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}

		result = payment
		created = true
		return nil
	})

	if err != nil {
		if isDomainError(err) {
			return nil, false, err
		}
		r.log.Error("Failed to submit payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return nil, false, fmt.Errorf("submit payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return result, created, nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.PaymentConfirmation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment_confirmations WHERE id = $1`, id)

	payment, err := scanPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.PaymentConfirmation, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_confirmations
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find payments by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payments by booking ID %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

func (r *paymentRepository) ListByStatus(ctx context.Context, status entity.PaymentStatus, limit, offset int) ([]*entity.PaymentConfirmation, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payment_confirmations
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, string(status), limit, offset)
	if err != nil {
		r.log.Error("Failed to list payments",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

func (r *paymentRepository) CountByStatus(ctx context.Context, status entity.PaymentStatus) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM payment_confirmations WHERE ($1::text = '' OR status = $1::text)
	`, string(status)).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count payments", zap.Error(err))
		return 0, fmt.Errorf("count payments: %w", err)
	}

	return total, nil
}

func (r *paymentRepository) Confirm(ctx context.Context, id uuid.UUID) (*entity.PaymentDecision, error) {
	decision := &entity.PaymentDecision{}

	err := withTx(ctx, r.db, r.log, func(tx pgx.Tx) error {
		payment, booking, err := lockPaymentAndBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		decision.Payment, decision.Booking = payment, booking

		switch {
		case payment.Status == entity.PaymentStatusConfirmed:
			return nil
		case payment.ClosedByExpiry(booking):
			return fmt.Errorf("%w: %w", entity.ErrBookingExpired, entity.ErrAlreadyReleased)
		case payment.Status == entity.PaymentStatusRejected:
			return entity.ErrPaymentRejected
		case booking.Status == entity.BookingStatusConfirmed:
			return fmt.Errorf("%w: booking %s confirmed by another payment", entity.ErrInvalidState, booking.BookingCode)
		}

		// Only claims of a still-active hold can become bookings.
		result, err := tx.Exec(ctx, `
			UPDATE seat_claims
			SET kind = 'booked', booking_id = $2, lock_id = NULL, expires_at = NULL
			WHERE lock_id = $1 AND kind = 'lock' AND expires_at > now()
		`, booking.SeatLockID, booking.ID)
		if err != nil {
			return fmt.Errorf("book seats: %w", err)
		}
		if result.RowsAffected() != int64(len(booking.SeatIDs)) {
			return fmt.Errorf("%w: hold for booking %s has lapsed", entity.ErrBookingExpired, booking.BookingCode)
		}

		err = tx.QueryRow(ctx, `
			UPDATE payment_confirmations
			SET status = 'confirmed', decided_at = now(), updated_at = now()
			WHERE id = $1
			RETURNING decided_at, updated_at
		`, payment.ID).Scan(&payment.DecidedAt, &payment.UpdatedAt)
		if err != nil {
			return fmt.Errorf("confirm payment row: %w", err)
		}
		payment.Status = entity.PaymentStatusConfirmed

		err = tx.QueryRow(ctx, `
			UPDATE bookings SET status = 'confirmed', updated_at = now()
			WHERE id = $1
			RETURNING updated_at
		`, booking.ID).Scan(&booking.UpdatedAt)
		if err != nil {
			return fmt.Errorf("confirm booking row: %w", err)
		}
		booking.Status = entity.BookingStatusConfirmed

		if _, err := tx.Exec(ctx, `DELETE FROM seat_locks WHERE id = $1`, booking.SeatLockID); err != nil {
			return fmt.Errorf("retire lock: %w", err)
		}

		decision.Changed = true
		return nil
	})

	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		r.log.Error("Failed to confirm payment",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("confirm payment %s: %w", id.String(), err)
	}

	return decision, nil
}

func (r *paymentRepository) Reject(ctx context.Context, id uuid.UUID) (*entity.PaymentDecision, error) {
	decision := &entity.PaymentDecision{}

	err := withTx(ctx, r.db, r.log, func(tx pgx.Tx) error {
		payment, booking, err := lockPaymentAndBooking(ctx, tx, id)
		if err != nil {
			return err
		}
		decision.Payment, decision.Booking = payment, booking

		switch payment.Status {
		case entity.PaymentStatusRejected:
			return nil
		case entity.PaymentStatusConfirmed:
			return fmt.Errorf("%w: payment %s is already confirmed", entity.ErrInvalidState, payment.ID.String())
		}

		err = tx.QueryRow(ctx, `
			UPDATE payment_confirmations
			SET status = 'rejected', decided_at = now(), updated_at = now()
			WHERE id = $1
			RETURNING decided_at, updated_at
		`, payment.ID).Scan(&payment.DecidedAt, &payment.UpdatedAt)
		if err != nil {
			return fmt.Errorf("reject payment row: %w", err)
		}
		payment.Status = entity.PaymentStatusRejected

		if booking.IsPending() {
			if err := cancelBookingTx(ctx, tx, booking); err != nil {
				return err
			}
		}

		decision.Changed = true
		return nil
	})

	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		r.log.Error("Failed to reject payment",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("reject payment %s: %w", id.String(), err)
	}

	return decision, nil
}

// lockPaymentAndBooking locks the booking row first and the payment row
// second. Cancel and submit take the booking first too, so the lock order is
// the same on every path.
func lockPaymentAndBooking(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*entity.PaymentConfirmation, *entity.Booking, error) {
	var bookingID uuid.UUID
	err := tx.QueryRow(ctx, `SELECT booking_id FROM payment_confirmations WHERE id = $1`, id).Scan(&bookingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, entity.ErrPaymentNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find payment %s: %w", id.String(), err)
	}

	booking, err := lockBookingRow(ctx, tx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if booking == nil {
		return nil, nil, entity.ErrBookingNotFound
	}

	row := tx.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payment_confirmations WHERE id = $1 FOR UPDATE`, id)
	payment, err := scanPayment(row)
	if err != nil {
		return nil, nil, fmt.Errorf("lock payment %s: %w", id.String(), err)
	}

	return payment, booking, nil
}

func scanPayment(row pgx.Row) (*entity.PaymentConfirmation, error) {
	var p entity.PaymentConfirmation
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.UserID,
		&p.Amount,
		&p.Reference,
		&p.Status,
		&p.DecidedAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPayments(rows pgx.Rows) ([]*entity.PaymentConfirmation, error) {
	var payments []*entity.PaymentConfirmation
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
