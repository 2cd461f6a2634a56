package memstore

import (
	"context"
	"sort"

	"ticket-booking/internal/data/entity"

	"github.com/google/uuid"
)

type categoryStore struct{ *Store }

func (s categoryStore) FindByEventID(_ context.Context, eventID uuid.UUID) ([]*entity.SeatCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.SeatCategory
	for _, c := range s.categories {
		if c.EventID == eventID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price > out[j].Price
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (s categoryStore) FindByID(_ context.Context, id uuid.UUID) (*entity.SeatCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

type seatStore struct{ *Store }

func (s seatStore) ListWithStatus(_ context.Context, eventID uuid.UUID, categoryID *uuid.UUID) ([]*entity.SeatView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	var out []*entity.SeatView
	for _, seat := range s.seats[eventID] {
		if categoryID != nil && seat.CategoryID != *categoryID {
			continue
		}
		v := &entity.SeatView{Seat: *seat}
		if c, ok := s.categories[seat.CategoryID]; ok {
			v.CategoryName, v.Color, v.Price = c.Name, c.Color, c.Price
		}
		v.Status, v.LockedUntil = entity.DeriveSeatStatus(seat.Unavailable, s.claims[claimKey{eventID, seat.SeatID}].view(), now)
		out = append(out, v)
	}
	return out, nil
}

func (s seatStore) FindBySeatIDs(_ context.Context, eventID uuid.UUID, seatIDs []string) ([]*entity.Seat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*entity.Seat
	for _, id := range seatIDs {
		if seat := s.seat(eventID, id); seat != nil {
			cp := *seat
			out = append(out, &cp)
		}
	}
	return out, nil
}
