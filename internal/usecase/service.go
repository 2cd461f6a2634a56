package usecase

import (
	"context"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/data/repository"
	"ticket-booking/pkg/cache"
	"ticket-booking/pkg/clock"
	"ticket-booking/pkg/events"
	"ticket-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Infra bundles the optional collaborators. Zero values fall back to a
// disabled cache, a no-op publisher and the system clock.
type Infra struct {
	Cache     cache.CategoryCache
	Publisher events.Publisher
	Clock     clock.Clock
}

func (i Infra) withDefaults() Infra {
	if i.Cache == nil {
		i.Cache = cache.Disabled{}
	}
	if i.Publisher == nil {
		i.Publisher = events.Noop{}
	}
	if i.Clock == nil {
		i.Clock = clock.Real()
	}
	return i
}

type Service struct {
	Inventory InventoryService
	Lock      LockService
	Booking   BookingService
	Payment   PaymentService
}

func NewService(repo *repository.Repository, infra Infra, config *utils.Config, log *zap.Logger) *Service {
	infra = infra.withDefaults()

	ttl := config.Booking.LockTTLMinutes
	if ttl <= 0 {
		ttl = entity.DefaultLockTTLMinutes
	}

	lock := NewLockService(repo, infra.Clock, ttl, log)
	return &Service{
		Inventory: NewInventoryService(repo, infra.Cache, log),
		Lock:      lock,
		Booking:   NewBookingService(repo, lock, infra, log),
		Payment:   NewPaymentService(repo, infra, log),
	}
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, entity.NewValidationError(field, "Must be a valid UUID")
	}
	return id, nil
}

func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return &entity.ValidationError{Fields: errs}
	}
	return nil
}

// publish sends an event after its transaction committed. Failures are logged only.
func publish(ctx context.Context, p events.Publisher, ev events.BookingEvent, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := p.Publish(ctx, ev); err != nil {
		log.Warn("Failed to publish booking event",
			zap.Error(err),
			zap.String("type", string(ev.Type)),
			zap.String("booking_id", ev.BookingID),
		)
	}
}
