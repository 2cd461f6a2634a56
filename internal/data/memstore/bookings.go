package memstore

import (
	"context"
	"fmt"
	"sort"

	"ticket-booking/internal/data/entity"

	"github.com/google/uuid"
)

type bookingStore struct{ *Store }

func (s bookingStore) Create(_ context.Context, booking *entity.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bookings[booking.ID]; exists {
		return fmt.Errorf("create booking %s: duplicate id", booking.BookingCode)
	}
	s.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (s bookingStore) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(b), nil
}

func (s bookingStore) FindByUserID(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var all []*entity.Booking
	for _, b := range s.bookings {
		if b.UserID == userID {
			all = append(all, copyBooking(b))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, limit, offset), nil
}

func (s bookingStore) CountByUserID(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, b := range s.bookings {
		if b.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (s bookingStore) Cancel(_ context.Context, id uuid.UUID) (*entity.BookingTransition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[id]
	if !ok {
		return nil, entity.ErrBookingNotFound
	}

	switch b.Status {
	case entity.BookingStatusCancelled:
		return &entity.BookingTransition{Booking: copyBooking(b)}, nil
	case entity.BookingStatusConfirmed:
		return nil, fmt.Errorf("%w: booking %s is already confirmed", entity.ErrInvalidState, b.BookingCode)
	}

	now := s.clock.Now()
	for _, p := range s.payments {
		if p.BookingID == id && p.Status == entity.PaymentStatusPending {
			p.Status = entity.PaymentStatusRejected
			p.DecidedAt = &now
			p.UpdatedAt = now
		}
	}
	s.cancelLocked(b, now)

	return &entity.BookingTransition{Booking: copyBooking(b), Changed: true}, nil
}

func (s bookingStore) FindExpiredPending(_ context.Context, limit int) ([]*entity.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var out []*entity.Booking
	for _, b := range s.bookings {
		if !b.IsPending() {
			continue
		}
		if l, ok := s.locks[b.SeatLockID]; !ok || l.IsExpired(now) {
			out = append(out, copyBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, 0), nil
}
