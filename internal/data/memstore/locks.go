package memstore

import (
	"context"
	"time"

	"ticket-booking/internal/data/entity"

	"github.com/google/uuid"
)

type lockStore struct{ *Store }

func (s lockStore) Acquire(_ context.Context, lock *entity.SeatLock, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	var unknown, unavailable []string
	for _, id := range lock.SeatIDs {
		seat := s.seat(lock.EventID, id)
		switch {
		case seat == nil:
			unknown = append(unknown, id)
		case seat.Unavailable:
			unavailable = append(unavailable, id)
		case s.claims[claimKey{lock.EventID, id}].view().Active(now):
			unavailable = append(unavailable, id)
		}
	}
	if len(unknown) > 0 {
		return entity.NewSelectionError("unknown seats %v", unknown)
	}
	if len(unavailable) > 0 {
		return &entity.SeatsUnavailableError{Seats: unavailable}
	}

	lock.CreatedAt = now
	lock.ExpiresAt = now.Add(ttl)
	s.locks[lock.ID] = copyLock(lock)
	for _, id := range lock.SeatIDs {
		s.claims[claimKey{lock.EventID, id}] = &claim{
			kind:      entity.ClaimKindLock,
			lockID:    lock.ID,
			expiresAt: lock.ExpiresAt,
		}
	}
	return nil
}

func (s lockStore) Release(_ context.Context, lockID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(lockID), nil
}

func (s lockStore) FindByID(_ context.Context, lockID uuid.UUID) (*entity.SeatLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[lockID]
	if !ok {
		return nil, nil
	}
	return copyLock(l), nil
}

func (s lockStore) DeleteExpired(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	held := make(map[uuid.UUID]bool)
	for _, b := range s.bookings {
		if b.IsPending() {
			held[b.SeatLockID] = true
		}
	}

	var n int64
	for id, l := range s.locks {
		if l.IsExpired(now) && !held[id] {
			s.releaseLocked(id)
			n++
		}
	}
	return n, nil
}
