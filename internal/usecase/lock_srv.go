package usecase

import (
	"context"
	"fmt"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/clock"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type LockService interface {
	// Acquire holds every seat or none. ttlMinutes <= 0 uses the configured default.
	Acquire(ctx context.Context, eventID, userID uuid.UUID, seatIDs []string, ttlMinutes int) (*entity.SeatLock, error)
	// Release is idempotent.
	Release(ctx context.Context, lockID uuid.UUID) error

	AcquireLock(ctx context.Context, userID uuid.UUID, eventID string, req *request.AcquireLockRequest) (*response.LockResponse, error)
	ReleaseLock(ctx context.Context, user utils.CurrentUser, lockID string) error
}

type lockService struct {
	repo       *repository.Repository
	clock      clock.Clock
	defaultTTL int
	log        *zap.Logger
}

func NewLockService(repo *repository.Repository, clk clock.Clock, defaultTTLMinutes int, log *zap.Logger) LockService {
	return &lockService{
		repo:       repo,
		clock:      clk,
		defaultTTL: defaultTTLMinutes,
		log:        log.With(zap.String("service", "lock")),
	}
}

func (s *lockService) Acquire(ctx context.Context, eventID, userID uuid.UUID, seatIDs []string, ttlMinutes int) (*entity.SeatLock, error) {
	seatIDs = entity.NormalizeSeatIDs(seatIDs)
	if len(seatIDs) == 0 {
		return nil, entity.NewSelectionError("please select at least one seat")
	}
	if ttlMinutes <= 0 {
		ttlMinutes = s.defaultTTL
	}

	lock := &entity.SeatLock{
		BaseSimple: entity.BaseSimple{ID: uuid.New()},
		EventID:    eventID,
		UserID:     userID,
		SeatIDs:    seatIDs,
	}

	if err := s.repo.Lock.Acquire(ctx, lock, time.Duration(ttlMinutes)*time.Minute); err != nil {
		return nil, fmt.Errorf("acquire seats for event %s: %w", eventID.String(), err)
	}

	s.log.Info("Seats locked",
		zap.String("lock_id", lock.ID.String()),
		zap.String("event_id", eventID.String()),
		zap.String("user_id", userID.String()),
		zap.Strings("seat_ids", seatIDs),
		zap.Time("expires_at", lock.ExpiresAt),
	)
	return lock, nil
}

func (s *lockService) Release(ctx context.Context, lockID uuid.UUID) error {
	removed, err := s.repo.Lock.Release(ctx, lockID)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", lockID.String(), err)
	}
	if removed {
		s.log.Info("Seat lock released", zap.String("lock_id", lockID.String()))
	}
	return nil
}

func (s *lockService) AcquireLock(ctx context.Context, userID uuid.UUID, eventID string, req *request.AcquireLockRequest) (*response.LockResponse, error) {
	eventUUID, err := parseID("event_id", eventID)
	if err != nil {
		return nil, err
	}
	if len(req.SeatIDs) == 0 {
		return nil, entity.NewSelectionError("please select at least one seat")
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	lock, err := s.Acquire(ctx, eventUUID, userID, req.SeatIDs, req.TTLMinutes)
	if err != nil {
		return nil, err
	}

	resp := response.LockToResponse(lock, s.clock.Now())
	return &resp, nil
}

func (s *lockService) ReleaseLock(ctx context.Context, user utils.CurrentUser, lockID string) error {
	lockUUID, err := parseID("lock_id", lockID)
	if err != nil {
		return err
	}

	lock, err := s.repo.Lock.FindByID(ctx, lockUUID)
	if err != nil {
		return fmt.Errorf("find lock %s: %w", lockID, err)
	}
	if lock == nil {
		// already gone
		return nil
	}
	if lock.UserID != user.ID && !user.IsAdmin() {
		return entity.ErrForbidden
	}

	return s.Release(ctx, lockUUID)
}
