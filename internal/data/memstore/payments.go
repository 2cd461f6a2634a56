package memstore

import (
	"context"
	"fmt"
	"sort"

	"ticket-booking/internal/data/entity"

	"github.com/google/uuid"
)

type paymentStore struct{ *Store }

func (s paymentStore) Submit(_ context.Context, payment *entity.PaymentConfirmation) (*entity.PaymentConfirmation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[payment.BookingID]
	if !ok {
		return nil, false, entity.ErrBookingNotFound
	}
	if !b.OwnedBy(payment.UserID) {
		return nil, false, entity.ErrForbidden
	}

	for _, p := range s.payments {
		if p.BookingID != b.ID || p.Status == entity.PaymentStatusRejected {
			continue
		}
		if p.Reference == payment.Reference {
			return copyPayment(p), false, nil
		}
		if p.Status == entity.PaymentStatusConfirmed {
			return nil, false, fmt.Errorf("%w: booking %s is already paid", entity.ErrInvalidState, b.BookingCode)
		}
		return nil, false, entity.ErrPaymentExists
	}

	now := s.clock.Now()
	if !b.IsPending() {
		return nil, false, fmt.Errorf("%w: booking %s is %s", entity.ErrBookingExpired, b.BookingCode, b.Status)
	}
	if l, ok := s.locks[b.SeatLockID]; !ok || l.IsExpired(now) {
		return nil, false, fmt.Errorf("%w: hold for booking %s has lapsed", entity.ErrBookingExpired, b.BookingCode)
	}

	payment.Amount = b.TotalAmount
	payment.Status = entity.PaymentStatusPending
	payment.CreatedAt = now
	payment.UpdatedAt = now
	s.payments[payment.ID] = copyPayment(payment)

	return copyPayment(payment), true, nil
}

func (s paymentStore) FindByID(_ context.Context, id uuid.UUID) (*entity.PaymentConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, nil
	}
	return copyPayment(p), nil
}

func (s paymentStore) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.PaymentConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.PaymentConfirmation
	for _, p := range s.payments {
		if p.BookingID == bookingID {
			out = append(out, copyPayment(p))
		}
	}
	sortPayments(out)
	return out, nil
}

func (s paymentStore) ListByStatus(_ context.Context, status entity.PaymentStatus, limit, offset int) ([]*entity.PaymentConfirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.filterLocked(status)
	sortPayments(out)
	return page(out, limit, offset), nil
}

func (s paymentStore) CountByStatus(_ context.Context, status entity.PaymentStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.filterLocked(status))), nil
}

func (s paymentStore) filterLocked(status entity.PaymentStatus) []*entity.PaymentConfirmation {
	var out []*entity.PaymentConfirmation
	for _, p := range s.payments {
		if status == "" || p.Status == status {
			out = append(out, copyPayment(p))
		}
	}
	return out
}

func (s paymentStore) Confirm(_ context.Context, id uuid.UUID) (*entity.PaymentDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, b, err := s.paymentAndBookingLocked(id)
	if err != nil {
		return nil, err
	}

	switch {
	case p.Status == entity.PaymentStatusConfirmed:
		return &entity.PaymentDecision{Payment: copyPayment(p), Booking: copyBooking(b)}, nil
	case p.ClosedByExpiry(b):
		return nil, fmt.Errorf("%w: %w", entity.ErrBookingExpired, entity.ErrAlreadyReleased)
	case p.Status == entity.PaymentStatusRejected:
		return nil, entity.ErrPaymentRejected
	case b.Status == entity.BookingStatusConfirmed:
		return nil, fmt.Errorf("%w: booking %s confirmed by another payment", entity.ErrInvalidState, b.BookingCode)
	}

	now := s.clock.Now()
	lock, ok := s.locks[b.SeatLockID]
	if !ok || lock.IsExpired(now) {
		return nil, fmt.Errorf("%w: hold for booking %s has lapsed", entity.ErrBookingExpired, b.BookingCode)
	}

	// every check passed; the writes below cannot fail halfway
	for _, seatID := range b.SeatIDs {
		s.claims[claimKey{b.EventID, seatID}] = &claim{kind: entity.ClaimKindBooked, bookingID: b.ID}
	}
	delete(s.locks, lock.ID)

	p.Status = entity.PaymentStatusConfirmed
	p.DecidedAt = &now
	p.UpdatedAt = now
	b.Status = entity.BookingStatusConfirmed
	b.UpdatedAt = now

	return &entity.PaymentDecision{Payment: copyPayment(p), Booking: copyBooking(b), Changed: true}, nil
}

func (s paymentStore) Reject(_ context.Context, id uuid.UUID) (*entity.PaymentDecision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, b, err := s.paymentAndBookingLocked(id)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case entity.PaymentStatusRejected:
		return &entity.PaymentDecision{Payment: copyPayment(p), Booking: copyBooking(b)}, nil
	case entity.PaymentStatusConfirmed:
		return nil, fmt.Errorf("%w: payment %s is already confirmed", entity.ErrInvalidState, p.ID.String())
	}

	now := s.clock.Now()
	p.Status = entity.PaymentStatusRejected
	p.DecidedAt = &now
	p.UpdatedAt = now
	if b.IsPending() {
		s.cancelLocked(b, now)
	}

	return &entity.PaymentDecision{Payment: copyPayment(p), Booking: copyBooking(b), Changed: true}, nil
}

func (s paymentStore) paymentAndBookingLocked(id uuid.UUID) (*entity.PaymentConfirmation, *entity.Booking, error) {
	p, ok := s.payments[id]
	if !ok {
		return nil, nil, entity.ErrPaymentNotFound
	}
	b, ok := s.bookings[p.BookingID]
	if !ok {
		return nil, nil, entity.ErrBookingNotFound
	}
	return p, b, nil
}

func sortPayments(ps []*entity.PaymentConfirmation) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID.String() < ps[j].ID.String()
	})
}
