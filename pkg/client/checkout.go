package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/dto/response"
	"ticket-booking/pkg/clock"

	"go.uber.org/zap"
)

const releaseTimeout = 10 * time.Second

// Checkout drives one user through select, pay and wait for verification,
// keeping a local seat map and a countdown in step with the server.
type Checkout struct {
	api       *Client
	clock     clock.Clock
	afterFunc afterFunc
	log       *zap.Logger

	eventID    string
	categoryID string
	seats      *SeatMap

	mu        sync.Mutex
	booking   *response.BookingResponse
	countdown *Countdown
	expired   bool
	done      bool
}

type CheckoutOption func(*Checkout)

func WithClock(clk clock.Clock) CheckoutOption {
	return func(c *Checkout) { c.clock = clk }
}

func NewCheckout(api *Client, eventID, categoryID string, log *zap.Logger, opts ...CheckoutOption) *Checkout {
	c := &Checkout{
		api:        api,
		clock:      clock.Real(),
		afterFunc:  realAfterFunc,
		log:        log.With(zap.String("component", "checkout"), zap.String("event_id", eventID)),
		eventID:    eventID,
		categoryID: categoryID,
		seats:      NewSeatMap(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Checkout) Seats() *SeatMap { return c.seats }

// Refresh reconciles the local seat map with the server.
func (c *Checkout) Refresh(ctx context.Context) error {
	resp, err := c.api.Seats(ctx, c.eventID, c.categoryID)
	if err != nil {
		return fmt.Errorf("refresh seats: %w", err)
	}
	c.seats.Reconcile(resp)
	return nil
}

// Select marks seatIDs pending locally, asks the server to hold them and
// starts the countdown. On failure the local change is rolled back; seats
// someone else took are shown as taken.
func (c *Checkout) Select(ctx context.Context, seatIDs []string) (*response.BookingResponse, error) {
	c.mu.Lock()
	if c.booking != nil && !c.expired && !c.done {
		c.mu.Unlock()
		return nil, entity.NewSelectionError("a booking is already in progress")
	}
	c.mu.Unlock()

	rollback := c.seats.Apply(seatIDs, entity.SeatStatusPending)

	booking, err := c.api.StartBooking(ctx, request.StartBookingRequest{
		EventID:     c.eventID,
		CategoryID:  c.categoryID,
		SeatIDs:     seatIDs,
		TicketCount: len(seatIDs),
	})
	if err != nil {
		rollback()

		var unavailable *entity.SeatsUnavailableError
		if errors.As(err, &unavailable) {
			c.seats.Apply(unavailable.Seats, entity.SeatStatusUnavailable)
			if refreshErr := c.Refresh(ctx); refreshErr != nil {
				c.log.Warn("Failed to refresh seats after conflict", zap.Error(refreshErr))
			}
		}
		return nil, err
	}

	c.Start(booking)
	return booking, nil
}

// Start tracks booking and starts its countdown from expires_at. It can also
// resume a booking loaded through GetBooking.
func (c *Checkout) Start(booking *response.BookingResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.countdown != nil {
		c.countdown.Stop()
	}

	c.booking = booking
	c.expired = false
	c.done = false
	c.seats.Apply(booking.SeatIDs, entity.SeatStatusPending)
	c.countdown = startCountdown(c.clock, c.afterFunc, booking.ExpiresAt, func() { c.expire(booking.ID) })

	c.log.Info("Hold started",
		zap.String("booking_id", booking.ID),
		zap.Strings("seat_ids", booking.SeatIDs),
		zap.Time("expires_at", booking.ExpiresAt),
	)
}

// Remaining is the advisory time left on the hold.
func (c *Checkout) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown == nil || c.expired {
		return 0
	}
	return c.countdown.Remaining()
}

// Expired is closed when the countdown fires. It is nil before Start.
func (c *Checkout) Expired() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countdown == nil {
		return nil
	}
	return c.countdown.Expired()
}

// Pay submits the payment reference. It fails fast with ErrBookingExpired once
// the countdown has fired.
func (c *Checkout) Pay(ctx context.Context, reference string) (*response.PaymentResponse, error) {
	booking, err := c.active()
	if err != nil {
		return nil, err
	}

	payment, err := c.api.SubmitPayment(ctx, booking.ID, reference)
	if err != nil {
		if IsExpired(err) {
			c.expire(booking.ID)
		}
		return nil, err
	}
	return payment, nil
}

// Sync asks the server for the booking's state. A confirmed booking stops the
// countdown and its seats show as booked; a cancelled one ends the hold.
func (c *Checkout) Sync(ctx context.Context) (entity.BookingStatus, error) {
	c.mu.Lock()
	booking := c.booking
	c.mu.Unlock()
	if booking == nil {
		return "", entity.ErrBookingNotFound
	}

	detail, err := c.api.GetBooking(ctx, booking.ID)
	if err != nil {
		return "", err
	}

	switch detail.Status {
	case entity.BookingStatusConfirmed:
		c.finish(detail.SeatIDs, entity.SeatStatusBooked)
	case entity.BookingStatusCancelled:
		c.finish(detail.SeatIDs, entity.SeatStatusAvailable)
	}
	return detail.Status, nil
}

// Abandon gives the seats back before the countdown runs out.
func (c *Checkout) Abandon(ctx context.Context) error {
	booking, err := c.active()
	if err != nil {
		return err
	}

	if _, err := c.api.CancelBooking(ctx, booking.ID); err != nil {
		return fmt.Errorf("cancel booking %s: %w", booking.ID, err)
	}
	c.finish(booking.SeatIDs, entity.SeatStatusAvailable)
	return nil
}

func (c *Checkout) active() (*response.BookingResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.booking == nil:
		return nil, entity.ErrBookingNotFound
	case c.expired:
		return nil, entity.ErrBookingExpired
	case c.done:
		return nil, entity.ErrInvalidState
	}
	return c.booking, nil
}

func (c *Checkout) finish(seatIDs []string, status entity.SeatStatus) {
	c.mu.Lock()
	c.done = true
	if c.countdown != nil {
		c.countdown.Stop()
	}
	c.mu.Unlock()

	c.seats.Apply(seatIDs, status)
}

// expire runs when the countdown for bookingID fires: it releases the hold on
// the server and frees the seats locally. A timer left over from an earlier
// booking is ignored.
func (c *Checkout) expire(bookingID string) {
	c.mu.Lock()
	if c.expired || c.done || c.booking == nil || c.booking.ID != bookingID {
		c.mu.Unlock()
		return
	}
	c.expired = true
	booking := c.booking
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	_, err := c.api.CancelBooking(ctx, booking.ID)
	switch {
	case err == nil:
		c.log.Info("Hold expired, booking released", zap.String("booking_id", booking.ID))
	case errors.Is(err, entity.ErrInvalidState):
		// confirmed just before the deadline
		c.mu.Lock()
		c.expired = false
		c.mu.Unlock()
		c.finish(booking.SeatIDs, entity.SeatStatusBooked)
		return
	default:
		c.log.Warn("Failed to release expired booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID),
		)
	}

	c.seats.Apply(booking.SeatIDs, entity.SeatStatusAvailable)
}
