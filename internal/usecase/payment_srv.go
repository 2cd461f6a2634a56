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

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	// SubmitPayment records the payer's reference. created is false when the
	// same reference was already on file.
	SubmitPayment(ctx context.Context, userID uuid.UUID, bookingID string, req *request.SubmitPaymentRequest) (resp *response.PaymentResponse, created bool, err error)
	Confirm(ctx context.Context, paymentID string) (*response.PaymentDecisionResponse, error)
	Reject(ctx context.Context, paymentID string) (*response.PaymentDecisionResponse, error)
	ListPayments(ctx context.Context, req *request.ListPaymentsRequest) (*response.PaginatedResponse[response.PaymentResponse], error)
}

type paymentService struct {
	repo      *repository.Repository
	publisher events.Publisher
	clock     clock.Clock
	log       *zap.Logger
}

func NewPaymentService(repo *repository.Repository, infra Infra, log *zap.Logger) PaymentService {
	infra = infra.withDefaults()
	return &paymentService{
		repo:      repo,
		publisher: infra.Publisher,
		clock:     infra.Clock,
		log:       log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) SubmitPayment(ctx context.Context, userID uuid.UUID, bookingID string, req *request.SubmitPaymentRequest) (*response.PaymentResponse, bool, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, false, err
	}
	if err := validate(req); err != nil {
		return nil, false, err
	}

	payment, created, err := s.repo.Payment.Submit(ctx, &entity.PaymentConfirmation{
		Base:      entity.Base{ID: uuid.New()},
		BookingID: id,
		UserID:    userID,
		Reference: req.Reference,
	})
	if err != nil {
		return nil, false, fmt.Errorf("submit payment for booking %s: %w", bookingID, err)
	}

	if created {
		s.log.Info("Payment submitted",
			zap.String("payment_id", payment.ID.String()),
			zap.String("booking_id", bookingID),
			zap.Float64("amount", payment.Amount),
		)
	}

	resp := response.PaymentToResponse(payment)
	return &resp, created, nil
}

func (s *paymentService) Confirm(ctx context.Context, paymentID string) (*response.PaymentDecisionResponse, error) {
	id, err := parseID("payment_id", paymentID)
	if err != nil {
		return nil, err
	}

	d, err := s.repo.Payment.Confirm(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrBookingExpired) && !errors.Is(err, entity.ErrAlreadyReleased) {
			s.expireAfterFailedConfirm(ctx, id)
		}
		return nil, fmt.Errorf("confirm payment %s: %w", paymentID, err)
	}

	now := s.clock.Now()
	if d.Changed {
		s.log.Info("Payment confirmed",
			zap.String("payment_id", paymentID),
			zap.String("booking_id", d.Booking.ID.String()),
			zap.Strings("seat_ids", d.Booking.SeatIDs),
		)
		publish(ctx, s.publisher, events.NewConfirmed(d, now), s.log)
	}

	resp := response.DecisionToResponse(d, now)
	return &resp, nil
}

// expireAfterFailedConfirm cancels a booking whose hold lapsed before its
// payment could be confirmed. The sweeper would get there too.
func (s *paymentService) expireAfterFailedConfirm(ctx context.Context, paymentID uuid.UUID) {
	ctx = context.WithoutCancel(ctx)

	payment, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil || payment == nil {
		return
	}

	tr, err := s.repo.Booking.Cancel(ctx, payment.BookingID)
	if err != nil {
		s.log.Warn("Failed to cancel expired booking",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return
	}
	if tr.Changed {
		publish(ctx, s.publisher, events.NewCancelled(tr.Booking, entity.CancelReasonExpired, s.clock.Now()), s.log)
	}
}

func (s *paymentService) Reject(ctx context.Context, paymentID string) (*response.PaymentDecisionResponse, error) {
	id, err := parseID("payment_id", paymentID)
	if err != nil {
		return nil, err
	}

	d, err := s.repo.Payment.Reject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reject payment %s: %w", paymentID, err)
	}

	now := s.clock.Now()
	if d.Changed {
		s.log.Info("Payment rejected",
			zap.String("payment_id", paymentID),
			zap.String("booking_id", d.Booking.ID.String()),
		)
		if d.Booking.Status == entity.BookingStatusCancelled {
			publish(ctx, s.publisher, events.NewCancelled(d.Booking, entity.CancelReasonRejected, now), s.log)
		}
	}

	resp := response.DecisionToResponse(d, now)
	return &resp, nil
}

func (s *paymentService) ListPayments(ctx context.Context, req *request.ListPaymentsRequest) (*response.PaginatedResponse[response.PaymentResponse], error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	status := entity.PaymentStatus(req.Status)
	limit := req.Limit()

	payments, err := s.repo.Payment.ListByStatus(ctx, status, limit, req.Offset())
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	total, err := s.repo.Payment.CountByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("count payments: %w", err)
	}

	data := make([]response.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		data = append(data, response.PaymentToResponse(p))
	}
	return response.NewPaginatedResponse(data, req.Page, limit, total), nil
}
