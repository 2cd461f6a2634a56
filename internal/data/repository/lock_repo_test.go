package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"ticket-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLock(seats ...string) *entity.SeatLock {
	return &entity.SeatLock{
		BaseSimple: entity.BaseSimple{ID: uuid.New()},
		EventID:    uuid.New(),
		UserID:     uuid.New(),
		SeatIDs:    seats,
	}
}

func expectLayout(mock pgxmock.PgxPoolIface, lock *entity.SeatLock, rows *pgxmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_id, unavailable FROM seat_layouts")).
		WithArgs(lock.EventID, lock.SeatIDs).
		WillReturnRows(rows)
}

func TestLockRepository_Acquire_Success(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLockRepository(mock, newTestLogger(t))

	lock := newLock("A1", "A2")
	created := time.Now().UTC()
	expires := created.Add(15 * time.Minute)

	mock.ExpectBegin()
	expectLayout(mock, lock, pgxmock.NewRows([]string{"seat_id", "unavailable"}).
		AddRow("A1", false).
		AddRow("A2", false))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_claims")).
		WithArgs(lock.EventID, lock.SeatIDs).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_locks")).
		WithArgs(lock.ID, lock.EventID, lock.UserID, lock.SeatIDs, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"expires_at", "created_at"}).AddRow(expires, created))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_claims")).
		WithArgs(lock.EventID, lock.ID, expires, []string{"A1", "A2"}).
		WillReturnRows(pgxmock.NewRows([]string{"seat_id"}).AddRow("A1").AddRow("A2"))
	mock.ExpectCommit()

	err := repo.Acquire(context.Background(), lock, 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, expires, lock.ExpiresAt)
	assert.Equal(t, created, lock.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_Acquire_ConflictRollsBack(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLockRepository(mock, newTestLogger(t))

	lock := newLock("A2", "A3")
	expires := time.Now().Add(15 * time.Minute)

	mock.ExpectBegin()
	expectLayout(mock, lock, pgxmock.NewRows([]string{"seat_id", "unavailable"}).
		AddRow("A2", false).
		AddRow("A3", false))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_claims")).
		WithArgs(lock.EventID, lock.SeatIDs).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_locks")).
		WithArgs(lock.ID, lock.EventID, lock.UserID, lock.SeatIDs, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"expires_at", "created_at"}).AddRow(expires, time.Now()))
	// A2 is already claimed by someone else, so only A3 comes back
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_claims")).
		WithArgs(lock.EventID, lock.ID, expires, []string{"A2", "A3"}).
		WillReturnRows(pgxmock.NewRows([]string{"seat_id"}).AddRow("A3"))
	mock.ExpectRollback()

	err := repo.Acquire(context.Background(), lock, 15*time.Minute)

	var conflict *entity.SeatsUnavailableError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"A2"}, conflict.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_Acquire_BlockedSeatIsReported(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLockRepository(mock, newTestLogger(t))

	lock := newLock("B1", "B2")
	expires := time.Now().Add(15 * time.Minute)

	mock.ExpectBegin()
	expectLayout(mock, lock, pgxmock.NewRows([]string{"seat_id", "unavailable"}).
		AddRow("B1", true).
		AddRow("B2", false))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_claims")).
		WithArgs(lock.EventID, lock.SeatIDs).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_locks")).
		WithArgs(lock.ID, lock.EventID, lock.UserID, lock.SeatIDs, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"expires_at", "created_at"}).AddRow(expires, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_claims")).
		WithArgs(lock.EventID, lock.ID, expires, []string{"B2"}).
		WillReturnRows(pgxmock.NewRows([]string{"seat_id"}).AddRow("B2"))
	mock.ExpectRollback()

	err := repo.Acquire(context.Background(), lock, 15*time.Minute)

	var conflict *entity.SeatsUnavailableError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, []string{"B1"}, conflict.Seats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_Acquire_ClaimsInSeatOrder(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLockRepository(mock, newTestLogger(t))

	lock := newLock("C3", "A1", "B2")
	created := time.Now().UTC()
	expires := created.Add(15 * time.Minute)
	sorted := []string{"A1", "B2", "C3"}

	mock.ExpectBegin()
	expectLayout(mock, lock, pgxmock.NewRows([]string{"seat_id", "unavailable"}).
		AddRow("A1", false).
		AddRow("B2", false).
		AddRow("C3", false))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_claims")).
		WithArgs(lock.EventID, sorted).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_locks")).
		WithArgs(lock.ID, lock.EventID, lock.UserID, lock.SeatIDs, pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"expires_at", "created_at"}).AddRow(expires, created))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_claims")).
		WithArgs(lock.EventID, lock.ID, expires, sorted).
		WillReturnRows(pgxmock.NewRows([]string{"seat_id"}).AddRow("A1").AddRow("B2").AddRow("C3"))
	mock.ExpectCommit()

	err := repo.Acquire(context.Background(), lock, 15*time.Minute)
	require.NoError(t, err)
	// the caller's order is kept on the lock itself
	assert.Equal(t, []string{"C3", "A1", "B2"}, lock.SeatIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_Acquire_DeadlockIsConflict(t *testing.T) {
	for _, code := range []string{"40P01", "40001"} {
		t.Run(code, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewLockRepository(mock, newTestLogger(t))

			lock := newLock("A2", "A1")
			expires := time.Now().Add(15 * time.Minute)

			mock.ExpectBegin()
			expectLayout(mock, lock, pgxmock.NewRows([]string{"seat_id", "unavailable"}).
				AddRow("A1", false).
				AddRow("A2", false))
			mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_claims")).
				WithArgs(lock.EventID, []string{"A1", "A2"}).
				WillReturnResult(pgxmock.NewResult("DELETE", 0))
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_locks")).
				WithArgs(lock.ID, lock.EventID, lock.UserID, lock.SeatIDs, pgxmock.AnyArg()).
				WillReturnRows(pgxmock.NewRows([]string{"expires_at", "created_at"}).AddRow(expires, time.Now()))
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO seat_claims")).
				WithArgs(lock.EventID, lock.ID, expires, []string{"A1", "A2"}).
				WillReturnError(&pgconn.PgError{Code: code, Message: "deadlock detected"})
			mock.ExpectRollback()

			err := repo.Acquire(context.Background(), lock, 15*time.Minute)

			var conflict *entity.SeatsUnavailableError
			require.True(t, errors.As(err, &conflict))
			assert.ErrorIs(t, err, entity.ErrSeatsUnavailable)
			assert.Equal(t, []string{"A2", "A1"}, conflict.Seats)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestLockRepository_Acquire_UnknownSeat(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLockRepository(mock, newTestLogger(t))

	lock := newLock("A1", "Z99")

	mock.ExpectBegin()
	expectLayout(mock, lock, pgxmock.NewRows([]string{"seat_id", "unavailable"}).AddRow("A1", false))
	mock.ExpectRollback()

	err := repo.Acquire(context.Background(), lock, 15*time.Minute)
	assert.ErrorIs(t, err, entity.ErrInvalidSelection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_Acquire_StoreFailure(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLockRepository(mock, newTestLogger(t))

	lock := newLock("A1")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT seat_id, unavailable FROM seat_layouts")).
		WithArgs(lock.EventID, lock.SeatIDs).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.Acquire(context.Background(), lock, time.Minute)
	require.Error(t, err)
	assert.NotErrorIs(t, err, entity.ErrSeatsUnavailable)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_Release_Idempotent(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLockRepository(mock, newTestLogger(t))
	lockID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_locks WHERE id = $1")).
		WithArgs(lockID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM seat_locks WHERE id = $1")).
		WithArgs(lockID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	released, err := repo.Release(context.Background(), lockID)
	require.NoError(t, err)
	assert.True(t, released)

	released, err = repo.Release(context.Background(), lockID)
	require.NoError(t, err)
	assert.False(t, released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockRepository_FindByID_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewLockRepository(mock, newTestLogger(t))

	lockID := uuid.New()
	mock.ExpectQuery(regexp.QuoteMeta("FROM seat_locks")).
		WithArgs(lockID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "event_id", "user_id", "seat_ids", "expires_at", "created_at"}))

	lock, err := repo.FindByID(context.Background(), lockID)
	require.NoError(t, err)
	assert.Nil(t, lock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubtract(t *testing.T) {
	assert.Equal(t, []string{"A1", "A3"}, subtract([]string{"A1", "A2", "A3"}, []string{"A2"}))
	assert.Empty(t, subtract([]string{"A1"}, []string{"A1"}))
}
