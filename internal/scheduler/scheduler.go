package scheduler

import (
	"context"
	"time"

	"ticket-booking/internal/usecase"

	"go.uber.org/zap"
)

const defaultInterval = time.Minute

type expirer interface {
	ExpireStale(ctx context.Context) (*usecase.SweepResult, error)
}

// Sweeper periodically cancels pending bookings whose seat hold lapsed and
// drops expired lock rows. Reads already ignore expired holds, so a missed
// tick only delays cleanup.
type Sweeper struct {
	bookings expirer
	interval time.Duration
	log      *zap.Logger
}

func New(bookings expirer, interval time.Duration, log *zap.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Sweeper{
		bookings: bookings,
		interval: interval,
		log:      log.With(zap.String("component", "sweeper")),
	}
}

// Start blocks until ctx is done.
func (s *Sweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Sweeper started", zap.Duration("interval", s.interval))

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Sweeper stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Sweeper) tick(ctx context.Context) {
	res, err := s.bookings.ExpireStale(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.log.Error("Failed to expire stale bookings", zap.Error(err))
		}
		return
	}

	if res.CancelledBookings > 0 || res.DeletedLocks > 0 {
		s.log.Info("Expired stale holds",
			zap.Int("cancelled_bookings", res.CancelledBookings),
			zap.Int64("deleted_locks", res.DeletedLocks),
		)
	}
}
