// Package memstore is an in-process implementation of the repository
// interfaces. Every operation runs under one mutex, which makes each of them
// serializable. Expiry follows the injected clock.
package memstore

import (
	"sort"
	"sync"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/pkg/clock"

	"github.com/google/uuid"
)

type claimKey struct {
	eventID uuid.UUID
	seatID  string
}

type claim struct {
	kind      entity.ClaimKind
	lockID    uuid.UUID
	bookingID uuid.UUID
	expiresAt time.Time
}

func (c *claim) view() *entity.SeatClaim {
	if c == nil {
		return nil
	}
	sc := &entity.SeatClaim{Kind: c.kind}
	if c.kind == entity.ClaimKindLock {
		exp := c.expiresAt
		sc.ExpiresAt = &exp
	}
	return sc
}

type Store struct {
	mu    sync.Mutex
	clock clock.Clock

	categories map[uuid.UUID]*entity.SeatCategory
	seats      map[uuid.UUID][]*entity.Seat
	claims     map[claimKey]*claim
	locks      map[uuid.UUID]*entity.SeatLock
	bookings   map[uuid.UUID]*entity.Booking
	payments   map[uuid.UUID]*entity.PaymentConfirmation
}

func New(clk clock.Clock) *Store {
	if clk == nil {
		clk = clock.Real()
	}
	return &Store{
		clock:      clk,
		categories: make(map[uuid.UUID]*entity.SeatCategory),
		seats:      make(map[uuid.UUID][]*entity.Seat),
		claims:     make(map[claimKey]*claim),
		locks:      make(map[uuid.UUID]*entity.SeatLock),
		bookings:   make(map[uuid.UUID]*entity.Booking),
		payments:   make(map[uuid.UUID]*entity.PaymentConfirmation),
	}
}

// Repository exposes the store through the same interfaces the Postgres
// implementation satisfies.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Category: categoryStore{s},
		Seat:     seatStore{s},
		Lock:     lockStore{s},
		Booking:  bookingStore{s},
		Payment:  paymentStore{s},
	}
}

// AddCategory registers a seat category.
func (s *Store) AddCategory(c entity.SeatCategory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = &c
}

// AddLayout creates seatsPerRow seats for every row label, all in one category.
func (s *Store) AddLayout(eventID, categoryID uuid.UUID, rows []string, seatsPerRow int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		for n := 1; n <= seatsPerRow; n++ {
			s.seats[eventID] = append(s.seats[eventID], &entity.Seat{
				EventID:    eventID,
				SeatID:     entity.SeatCode(row, n),
				RowLabel:   row,
				SeatNumber: n,
				CategoryID: categoryID,
			})
		}
	}
	sort.SliceStable(s.seats[eventID], func(i, j int) bool {
		a, b := s.seats[eventID][i], s.seats[eventID][j]
		if a.RowLabel != b.RowLabel {
			return a.RowLabel < b.RowLabel
		}
		return a.SeatNumber < b.SeatNumber
	})
}

// BlockSeats flags seats as administratively unavailable.
func (s *Store) BlockSeats(eventID uuid.UUID, seatIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	blocked := make(map[string]bool, len(seatIDs))
	for _, id := range seatIDs {
		blocked[id] = true
	}
	for _, seat := range s.seats[eventID] {
		if blocked[seat.SeatID] {
			seat.Unavailable = true
		}
	}
}

func (s *Store) seat(eventID uuid.UUID, seatID string) *entity.Seat {
	for _, seat := range s.seats[eventID] {
		if seat.SeatID == seatID {
			return seat
		}
	}
	return nil
}

// releaseLocked drops a lock header and its live claims. Caller holds mu.
func (s *Store) releaseLocked(lockID uuid.UUID) bool {
	lock, ok := s.locks[lockID]
	if !ok {
		return false
	}
	for _, seatID := range lock.SeatIDs {
		key := claimKey{lock.EventID, seatID}
		if c, ok := s.claims[key]; ok && c.kind == entity.ClaimKindLock && c.lockID == lockID {
			delete(s.claims, key)
		}
	}
	delete(s.locks, lockID)
	return true
}

func (s *Store) cancelLocked(b *entity.Booking, now time.Time) {
	b.Status = entity.BookingStatusCancelled
	b.UpdatedAt = now
	s.releaseLocked(b.SeatLockID)
}

func copyBooking(b *entity.Booking) *entity.Booking {
	c := *b
	c.SeatIDs = append([]string(nil), b.SeatIDs...)
	return &c
}

func copyPayment(p *entity.PaymentConfirmation) *entity.PaymentConfirmation {
	c := *p
	if p.DecidedAt != nil {
		t := *p.DecidedAt
		c.DecidedAt = &t
	}
	return &c
}

func copyLock(l *entity.SeatLock) *entity.SeatLock {
	c := *l
	c.SeatIDs = append([]string(nil), l.SeatIDs...)
	return &c
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
