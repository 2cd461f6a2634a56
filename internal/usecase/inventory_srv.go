package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/cache"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	seatReadAttempts = 3
	seatReadBackoff  = 50 * time.Millisecond
)

type InventoryService interface {
	ListCategories(ctx context.Context, eventID string) ([]response.CategoryResponse, error)
	// ListSeats returns the layout with live status. An empty categoryID means all categories.
	ListSeats(ctx context.Context, eventID, categoryID string) (*response.SeatMapResponse, error)
}

type inventoryService struct {
	repo  *repository.Repository
	cache cache.CategoryCache
	log   *zap.Logger
}

func NewInventoryService(repo *repository.Repository, c cache.CategoryCache, log *zap.Logger) InventoryService {
	return &inventoryService{
		repo:  repo,
		cache: c,
		log:   log.With(zap.String("service", "inventory")),
	}
}

func (s *inventoryService) ListCategories(ctx context.Context, eventID string) ([]response.CategoryResponse, error) {
	eventUUID, err := parseID("event_id", eventID)
	if err != nil {
		return nil, err
	}

	categories, err := s.cache.GetCategories(ctx, eventUUID)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("Category cache read failed", zap.Error(err), zap.String("event_id", eventID))
		}

		categories, err = s.repo.Category.FindByEventID(ctx, eventUUID)
		if err != nil {
			return nil, fmt.Errorf("list categories for event %s: %w", eventID, err)
		}

		if err := s.cache.SetCategories(ctx, eventUUID, categories); err != nil {
			s.log.Warn("Category cache write failed", zap.Error(err), zap.String("event_id", eventID))
		}
	}

	out := make([]response.CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, response.CategoryToResponse(c))
	}
	return out, nil
}

func (s *inventoryService) ListSeats(ctx context.Context, eventID, categoryID string) (*response.SeatMapResponse, error) {
	eventUUID, err := parseID("event_id", eventID)
	if err != nil {
		return nil, err
	}

	var category *uuid.UUID
	if categoryID != "" {
		id, err := parseID("category_id", categoryID)
		if err != nil {
			return nil, err
		}
		category = &id
	}

	var views []*entity.SeatView
	for attempt := 1; ; attempt++ {
		views, err = s.repo.Seat.ListWithStatus(ctx, eventUUID, category)
		if err == nil {
			break
		}
		if attempt == seatReadAttempts || ctx.Err() != nil {
			return nil, fmt.Errorf("list seats for event %s: %w", eventID, err)
		}

		s.log.Warn("Seat list read failed, retrying",
			zap.Error(err),
			zap.String("event_id", eventID),
			zap.Int("attempt", attempt),
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("list seats for event %s: %w", eventID, ctx.Err())
		case <-time.After(seatReadBackoff * time.Duration(attempt)):
		}
	}

	resp := response.NewSeatMapResponse(eventID, views)
	return &resp, nil
}
