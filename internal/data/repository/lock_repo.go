package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

type LockRepository interface {
	// Acquire claims every seat of lock or none of them. On conflict it
	// returns *entity.SeatsUnavailableError. ExpiresAt and CreatedAt are
	// filled from the store's clock.
	Acquire(ctx context.Context, lock *entity.SeatLock, ttl time.Duration) error
	// Release is idempotent; it reports whether a lock was actually removed.
	Release(ctx context.Context, lockID uuid.UUID) (bool, error)
	FindByID(ctx context.Context, lockID uuid.UUID) (*entity.SeatLock, error)
	// DeleteExpired drops lapsed locks that no pending booking refers to.
	DeleteExpired(ctx context.Context) (int64, error)
}

type lockRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewLockRepository(db database.PgxIface, log *zap.Logger) LockRepository {
	return &lockRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat_lock")),
	}
}

func (r *lockRepository) Acquire(ctx context.Context, lock *entity.SeatLock, ttl time.Duration) error {
	// Claim rows are always touched in seat order so overlapping requests
	// queue behind each other instead of deadlocking.
	ordered := slices.Clone(lock.SeatIDs)
	slices.Sort(ordered)

	err := withTx(ctx, r.db, r.log, func(tx pgx.Tx) error {
		blocked, err := r.checkLayout(ctx, tx, lock.EventID, lock.SeatIDs)
		if err != nil {
			return err
		}

		// Lapsed holds stop counting as conflicts; clear them so the insert below can take their place.
		_, err = tx.Exec(ctx, `
			DELETE FROM seat_claims
			WHERE (event_id, seat_id) IN (
				SELECT event_id, seat_id FROM seat_claims
				WHERE event_id = $1 AND seat_id = ANY($2) AND kind = 'lock' AND expires_at <= now()
				ORDER BY seat_id
				FOR UPDATE
			)
		`, lock.EventID, ordered)
		if err != nil {
			return fmt.Errorf("clear expired claims: %w", err)
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO seat_locks (id, event_id, user_id, seat_ids, expires_at, created_at)
			VALUES ($1, $2, $3, $4, now() + make_interval(secs => $5), now())
			RETURNING expires_at, created_at
		`, lock.ID, lock.EventID, lock.UserID, lock.SeatIDs, ttl.Seconds()).Scan(&lock.ExpiresAt, &lock.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert seat lock: %w", err)
		}

		claimable := subtract(ordered, blocked)
		rows, err := tx.Query(ctx, `
			INSERT INTO seat_claims (event_id, seat_id, kind, lock_id, expires_at)
			SELECT $1, c.seat_id, 'lock', $2, $3
			FROM unnest($4::text[]) WITH ORDINALITY AS c(seat_id, ord)
			ORDER BY c.ord
			ON CONFLICT (event_id, seat_id) DO NOTHING
			RETURNING seat_id
		`, lock.EventID, lock.ID, lock.ExpiresAt, claimable)
		if err != nil {
			return fmt.Errorf("insert seat claims: %w", err)
		}
		claimed, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("collect seat claims: %w", err)
		}

		if len(claimed) != len(lock.SeatIDs) {
			return &entity.SeatsUnavailableError{Seats: subtract(lock.SeatIDs, claimed)}
		}
		return nil
	})

	if err != nil {
		if isSerializationFailure(err) {
			err = &entity.SeatsUnavailableError{Seats: lock.SeatIDs}
		}
		var conflict *entity.SeatsUnavailableError
		if errors.As(err, &conflict) || errors.Is(err, entity.ErrInvalidSelection) {
			r.log.Info("Seat lock rejected",
				zap.String("event_id", lock.EventID.String()),
				zap.String("user_id", lock.UserID.String()),
				zap.Error(err),
			)
			return err
		}
		r.log.Error("Failed to acquire seat lock",
			zap.Error(err),
			zap.String("event_id", lock.EventID.String()),
			zap.Strings("seat_ids", lock.SeatIDs),
		)
		return fmt.Errorf("acquire lock for event %s: %w", lock.EventID.String(), err)
	}

	return nil
}

// isSerializationFailure reports a deadlock or serialization abort. Either
// means a competing request touched the same seats first.
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40P01" || pgErr.Code == "40001"
}

// checkLayout rejects seats the event does not have and returns the ones
// blocked administratively.
func (r *lockRepository) checkLayout(ctx context.Context, tx pgx.Tx, eventID uuid.UUID, seatIDs []string) ([]string, error) {
	rows, err := tx.Query(ctx, `
		SELECT seat_id, unavailable
		FROM seat_layouts
		WHERE event_id = $1 AND seat_id = ANY($2)
	`, eventID, seatIDs)
	if err != nil {
		return nil, fmt.Errorf("load seat layout: %w", err)
	}
	defer rows.Close()

	known := make(map[string]bool, len(seatIDs))
	for rows.Next() {
		var (
			seatID      string
			unavailable bool
		)
		if err := rows.Scan(&seatID, &unavailable); err != nil {
			return nil, fmt.Errorf("scan seat layout: %w", err)
		}
		known[seatID] = unavailable
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var unknown, blocked []string
	for _, id := range seatIDs {
		unavailable, ok := known[id]
		switch {
		case !ok:
			unknown = append(unknown, id)
		case unavailable:
			blocked = append(blocked, id)
		}
	}
	if len(unknown) > 0 {
		return nil, entity.NewSelectionError("unknown seats %v", unknown)
	}
	return blocked, nil
}

func (r *lockRepository) Release(ctx context.Context, lockID uuid.UUID) (bool, error) {
	// seat_claims rows of kind 'lock' cascade with the header
	result, err := r.db.Exec(ctx, `DELETE FROM seat_locks WHERE id = $1`, lockID)
	if err != nil {
		r.log.Error("Failed to release seat lock",
			zap.Error(err),
			zap.String("lock_id", lockID.String()),
		)
		return false, fmt.Errorf("release lock %s: %w", lockID.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

func (r *lockRepository) FindByID(ctx context.Context, lockID uuid.UUID) (*entity.SeatLock, error) {
	query := `
		SELECT id, event_id, user_id, seat_ids, expires_at, created_at
		FROM seat_locks
		WHERE id = $1
	`

	var l entity.SeatLock
	err := r.db.QueryRow(ctx, query, lockID).Scan(&l.ID, &l.EventID, &l.UserID, &l.SeatIDs, &l.ExpiresAt, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find seat lock",
			zap.Error(err),
			zap.String("lock_id", lockID.String()),
		)
		return nil, fmt.Errorf("find lock %s: %w", lockID.String(), err)
	}

	return &l, nil
}

func (r *lockRepository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM seat_locks l
		WHERE l.expires_at <= now()
		  AND NOT EXISTS (
		      SELECT 1 FROM bookings b
		      WHERE b.seat_lock_id = l.id AND b.status = 'pending'
		  )
	`

	result, err := r.db.Exec(ctx, query)
	if err != nil {
		r.log.Error("Failed to delete expired locks", zap.Error(err))
		return 0, fmt.Errorf("delete expired locks: %w", err)
	}

	return result.RowsAffected(), nil
}

// subtract returns the ids of all that are not in remove, keeping order.
func subtract(all, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	out := make([]string, 0, len(all))
	for _, id := range all {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
