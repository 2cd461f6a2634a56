package usecase

import (
	"context"
	"errors"
	"fmt"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/clock"
	"ticket-booking/pkg/events"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const expireBatchSize = 100

type BookingService interface {
	// StartBooking holds the seats and writes a pending booking referencing the hold.
	StartBooking(ctx context.Context, userID uuid.UUID, req *request.StartBookingRequest) (*response.BookingResponse, error)
	GetBooking(ctx context.Context, user utils.CurrentUser, bookingID string) (*response.BookingDetailResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	CancelBooking(ctx context.Context, user utils.CurrentUser, bookingID string) (*response.BookingResponse, error)

	// ExpireStale cancels pending bookings whose hold lapsed and drops orphaned locks.
	ExpireStale(ctx context.Context) (*SweepResult, error)
}

type SweepResult struct {
	CancelledBookings int
	DeletedLocks      int64
}

type bookingService struct {
	repo      *repository.Repository
	locks     LockService
	publisher events.Publisher
	clock     clock.Clock
	log       *zap.Logger
}

func NewBookingService(repo *repository.Repository, locks LockService, infra Infra, log *zap.Logger) BookingService {
	infra = infra.withDefaults()
	return &bookingService{
		repo:      repo,
		locks:     locks,
		publisher: infra.Publisher,
		clock:     infra.Clock,
		log:       log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) StartBooking(ctx context.Context, userID uuid.UUID, req *request.StartBookingRequest) (*response.BookingResponse, error) {
	// Count check first; a mismatch never reaches the store
	if len(req.SeatIDs) == 0 {
		return nil, entity.NewSelectionError("please select at least one seat")
	}
	if len(req.SeatIDs) != req.TicketCount {
		return nil, entity.NewSelectionError("please select exactly %d seats", req.TicketCount)
	}
	if len(entity.NormalizeSeatIDs(req.SeatIDs)) != len(req.SeatIDs) {
		return nil, entity.NewSelectionError("each seat can only be selected once")
	}

	if err := validate(req); err != nil {
		s.log.Warn("Start booking validation failed", zap.Error(err))
		return nil, err
	}

	eventID, err := parseID("event_id", req.EventID)
	if err != nil {
		return nil, err
	}
	categoryID, err := parseID("category_id", req.CategoryID)
	if err != nil {
		return nil, err
	}

	category, err := s.repo.Category.FindByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("find category %s: %w", req.CategoryID, err)
	}
	if category == nil || category.EventID != eventID {
		return nil, entity.NewSelectionError("category %s does not belong to this event", req.CategoryID)
	}
	if !category.IsAvailable {
		return nil, entity.NewSelectionError("category %s is not on sale", category.Name)
	}

	seats, err := s.repo.Seat.FindBySeatIDs(ctx, eventID, req.SeatIDs)
	if err != nil {
		return nil, fmt.Errorf("find seats for event %s: %w", req.EventID, err)
	}
	if len(seats) != len(req.SeatIDs) {
		return nil, entity.NewSelectionError("some selected seats do not exist for this event")
	}

	// Price comes from the store, never from the client
	var total float64
	for _, seat := range seats {
		if seat.CategoryID != category.ID {
			return nil, entity.NewSelectionError("seat %s is not in category %s", seat.SeatID, category.Name)
		}
		total += category.Price
	}

	lock, err := s.locks.Acquire(ctx, eventID, userID, req.SeatIDs, 0)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	bookingID := uuid.New()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        bookingID,
			CreatedAt: now,
			UpdatedAt: now,
		},
		BookingCode: utils.GenerateBookingCode(now, bookingID),
		UserID:      userID,
		EventID:     eventID,
		CategoryID:  category.ID,
		SeatIDs:     lock.SeatIDs,
		TotalAmount: total,
		Status:      entity.BookingStatusPending,
		SeatLockID:  lock.ID,
		ExpiresAt:   lock.ExpiresAt,
	}

	if err := s.repo.Booking.Create(ctx, booking); err != nil {
		s.releaseOrphan(ctx, lock)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("booking_code", booking.BookingCode),
		zap.String("user_id", userID.String()),
		zap.Int("seat_count", len(booking.SeatIDs)),
		zap.Float64("total_amount", total),
	)

	resp := response.BookingToResponse(booking, now)
	return &resp, nil
}

// releaseOrphan undoes a hold whose booking could not be written. It runs
// even when the request context is already cancelled.
func (s *bookingService) releaseOrphan(ctx context.Context, lock *entity.SeatLock) {
	if err := s.locks.Release(context.WithoutCancel(ctx), lock.ID); err != nil {
		s.log.Error("Failed to release orphaned seat lock",
			zap.Error(err),
			zap.String("lock_id", lock.ID.String()),
			zap.Strings("seat_ids", lock.SeatIDs),
		)
	}
}

func (s *bookingService) GetBooking(ctx context.Context, user utils.CurrentUser, bookingID string) (*response.BookingDetailResponse, error) {
	booking, err := s.findOwned(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}

	payments, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("find payments for booking %s: %w", bookingID, err)
	}

	resp := response.BookingDetailToResponse(booking, payments, s.clock.Now())
	return &resp, nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	limit := req.Limit()
	offset := req.Offset()

	bookings, err := s.repo.Booking.FindByUserID(ctx, userID, limit, offset)
	if err != nil {
		s.log.Error("Failed to get user bookings",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	now := s.clock.Now()
	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, response.BookingToResponse(b, now))
	}

	return response.NewPaginatedResponse(data, req.Page, limit, total), nil
}

func (s *bookingService) CancelBooking(ctx context.Context, user utils.CurrentUser, bookingID string) (*response.BookingResponse, error) {
	booking, err := s.findOwned(ctx, user, bookingID)
	if err != nil {
		return nil, err
	}

	tr, err := s.repo.Booking.Cancel(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("cancel booking %s: %w", booking.BookingCode, err)
	}

	now := s.clock.Now()
	if tr.Changed {
		s.log.Info("Booking cancelled",
			zap.String("booking_id", booking.ID.String()),
			zap.String("user_id", user.ID.String()),
		)
		publish(ctx, s.publisher, events.NewCancelled(tr.Booking, entity.CancelReasonUser, now), s.log)
	}

	resp := response.BookingToResponse(tr.Booking, now)
	return &resp, nil
}

func (s *bookingService) ExpireStale(ctx context.Context) (*SweepResult, error) {
	expired, err := s.repo.Booking.FindExpiredPending(ctx, expireBatchSize)
	if err != nil {
		return nil, fmt.Errorf("find expired bookings: %w", err)
	}

	result := &SweepResult{}
	for _, b := range expired {
		tr, err := s.repo.Booking.Cancel(ctx, b.ID)
		if errors.Is(err, entity.ErrInvalidState) {
			// confirmed while we were looking
			continue
		}
		if err != nil {
			s.log.Error("Failed to expire booking",
				zap.Error(err),
				zap.String("booking_id", b.ID.String()),
			)
			continue
		}
		if tr.Changed {
			result.CancelledBookings++
			publish(ctx, s.publisher, events.NewCancelled(tr.Booking, entity.CancelReasonExpired, s.clock.Now()), s.log)
		}
	}

	result.DeletedLocks, err = s.repo.Lock.DeleteExpired(ctx)
	if err != nil {
		return result, fmt.Errorf("delete expired locks: %w", err)
	}

	if result.CancelledBookings > 0 || result.DeletedLocks > 0 {
		s.log.Info("Expired holds swept",
			zap.Int("cancelled_bookings", result.CancelledBookings),
			zap.Int64("deleted_locks", result.DeletedLocks),
		)
	}
	return result, nil
}

func (s *bookingService) findOwned(ctx context.Context, user utils.CurrentUser, bookingID string) (*entity.Booking, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}

	booking, err := s.repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", bookingID, err)
	}
	if booking == nil {
		return nil, entity.ErrBookingNotFound
	}
	if !booking.OwnedBy(user.ID) && !user.IsAdmin() {
		return nil, entity.ErrForbidden
	}
	return booking, nil
}
