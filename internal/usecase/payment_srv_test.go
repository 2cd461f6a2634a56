package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"ticket-booking/internal/data/entity"
	"ticket-booking/internal/dto/request"
	"ticket-booking/pkg/events"
	"ticket-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) submit(t *testing.T, user utils.CurrentUser, bookingID, ref string) (string, error) {
	t.Helper()
	resp, _, err := h.svc.Payment.SubmitPayment(context.Background(), user.ID, bookingID, &request.SubmitPaymentRequest{Reference: ref})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// End to end: two buyers race for an overlapping seat, the winner pays and
// the seats become permanently booked.
func TestCheckoutScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bookingA, err := h.startBooking(t, h.userA.ID, h.vip, "A1", "A2")
	require.NoError(t, err)

	detail, err := h.svc.Booking.GetBooking(ctx, h.userA, bookingA)
	require.NoError(t, err)
	assert.Equal(t, 2*h.vip.Price, detail.TotalAmount)
	assert.Equal(t, entity.BookingStatusPending, detail.Status)

	_, err = h.startBooking(t, h.userB.ID, h.vip, "A2", "A3")
	var unavailable *entity.SeatsUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"A2"}, unavailable.Seats)

	paymentID, err := h.submit(t, h.userA, bookingA, "UTR123456789012")
	require.NoError(t, err)

	decision, err := h.svc.Payment.Confirm(ctx, paymentID)
	require.NoError(t, err)
	assert.True(t, decision.Changed)
	assert.Equal(t, entity.BookingStatusConfirmed, decision.Booking.Status)

	seats := h.seatStatus(t)
	assert.Equal(t, entity.SeatStatusBooked, seats["A1"])
	assert.Equal(t, entity.SeatStatusBooked, seats["A2"])
	assert.Equal(t, entity.SeatStatusAvailable, seats["A3"])

	_, err = h.startBooking(t, h.userB.ID, h.vip, "A2")
	assert.ErrorIs(t, err, entity.ErrSeatsUnavailable)
	_, err = h.startBooking(t, h.userB.ID, h.vip, "A3")
	assert.NoError(t, err)

	// confirming again changes nothing and emits nothing
	again, err := h.svc.Payment.Confirm(ctx, paymentID)
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Equal(t, []events.Type{events.BookingConfirmed}, h.publisher.types())

	detail, err = h.svc.Booking.GetBooking(ctx, h.userA, bookingA)
	require.NoError(t, err)
	assert.Len(t, detail.Payments, 1)
}

func TestExpiryScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	paid, err := h.startBooking(t, h.userA.ID, h.vip, "A1")
	require.NoError(t, err)
	paymentID, err := h.submit(t, h.userA, paid, "UTR000000000001")
	require.NoError(t, err)

	unpaid, err := h.startBooking(t, h.userA.ID, h.vip, "A2")
	require.NoError(t, err)

	h.clock.Advance(15 * time.Minute)

	seats := h.seatStatus(t)
	assert.Equal(t, entity.SeatStatusAvailable, seats["A1"])
	assert.Equal(t, entity.SeatStatusAvailable, seats["A2"])

	_, err = h.svc.Payment.Confirm(ctx, paymentID)
	assert.ErrorIs(t, err, entity.ErrBookingExpired)

	_, err = h.submit(t, h.userA, unpaid, "UTR000000000002")
	assert.ErrorIs(t, err, entity.ErrBookingExpired)

	// the failed confirm cancelled its booking
	detail, err := h.svc.Booking.GetBooking(ctx, h.userA, paid)
	require.NoError(t, err)
	assert.Equal(t, entity.BookingStatusCancelled, detail.Status)
	require.Len(t, detail.Payments, 1)
	assert.Equal(t, entity.PaymentStatusRejected, detail.Payments[0].Status)

	_, err = h.startBooking(t, h.userB.ID, h.vip, "A1", "A2")
	assert.NoError(t, err)
}

func TestConfirmAfterSweep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bookingID, err := h.startBooking(t, h.userA.ID, h.vip, "A1")
	require.NoError(t, err)
	paymentID, err := h.submit(t, h.userA, bookingID, "UTR000000000011")
	require.NoError(t, err)

	h.clock.Advance(15 * time.Minute)
	res, err := h.svc.Booking.ExpireStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.CancelledBookings)

	_, err = h.svc.Payment.Confirm(ctx, paymentID)
	assert.ErrorIs(t, err, entity.ErrBookingExpired)
	assert.NotErrorIs(t, err, entity.ErrPaymentRejected)
}

func TestConfirmTwiceAfterExpiry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bookingID, err := h.startBooking(t, h.userA.ID, h.vip, "A1")
	require.NoError(t, err)
	paymentID, err := h.submit(t, h.userA, bookingID, "UTR000000000012")
	require.NoError(t, err)

	h.clock.Advance(15 * time.Minute)

	for range 2 {
		_, err = h.svc.Payment.Confirm(ctx, paymentID)
		assert.ErrorIs(t, err, entity.ErrBookingExpired)
		assert.NotErrorIs(t, err, entity.ErrPaymentRejected)
	}
}

func TestSubmitPayment_Rules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bookingID, err := h.startBooking(t, h.userA.ID, h.vip, "A5")
	require.NoError(t, err)

	first, created, err := h.svc.Payment.SubmitPayment(ctx, h.userA.ID, bookingID, &request.SubmitPaymentRequest{Reference: "UTR555555555555"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, h.vip.Price, first.Amount)

	same, created, err := h.svc.Payment.SubmitPayment(ctx, h.userA.ID, bookingID, &request.SubmitPaymentRequest{Reference: "UTR555555555555"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, same.ID)

	_, _, err = h.svc.Payment.SubmitPayment(ctx, h.userA.ID, bookingID, &request.SubmitPaymentRequest{Reference: "UTR666666666666"})
	assert.ErrorIs(t, err, entity.ErrPaymentExists)

	_, _, err = h.svc.Payment.SubmitPayment(ctx, h.userB.ID, bookingID, &request.SubmitPaymentRequest{Reference: "UTR777777777777"})
	assert.ErrorIs(t, err, entity.ErrForbidden)

	_, _, err = h.svc.Payment.SubmitPayment(ctx, h.userA.ID, bookingID, &request.SubmitPaymentRequest{Reference: "x"})
	assert.ErrorIs(t, err, entity.ErrValidation)
}

func TestReject(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bookingID, err := h.startBooking(t, h.userA.ID, h.vip, "A6")
	require.NoError(t, err)
	paymentID, err := h.submit(t, h.userA, bookingID, "UTR888888888888")
	require.NoError(t, err)

	d, err := h.svc.Payment.Reject(ctx, paymentID)
	require.NoError(t, err)
	assert.True(t, d.Changed)
	assert.Equal(t, entity.PaymentStatusRejected, d.Payment.Status)
	assert.Equal(t, entity.BookingStatusCancelled, d.Booking.Status)
	assert.Equal(t, entity.SeatStatusAvailable, h.seatStatus(t)["A6"])

	require.Len(t, h.publisher.events, 1)
	assert.Equal(t, entity.CancelReasonRejected, h.publisher.events[0].Reason)

	_, err = h.svc.Payment.Confirm(ctx, paymentID)
	assert.ErrorIs(t, err, entity.ErrPaymentRejected)
}

func TestListPayments(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i, seat := range []string{"B1", "B2", "B3"} {
		id, err := h.startBooking(t, h.userA.ID, h.regular, seat)
		require.NoError(t, err)
		paymentID, err := h.submit(t, h.userA, id, fmt.Sprintf("UTR9000000000%02d", i))
		require.NoError(t, err)
		if i == 0 {
			_, err = h.svc.Payment.Confirm(ctx, paymentID)
			require.NoError(t, err)
		}
		h.clock.Advance(time.Second)
	}

	pending, err := h.svc.Payment.ListPayments(ctx, &request.ListPaymentsRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		Status:           "pending",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending.Pagination.Total)

	all, err := h.svc.Payment.ListPayments(ctx, &request.ListPaymentsRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
	})
	require.NoError(t, err)
	assert.Len(t, all.Data, 3)

	_, err = h.svc.Payment.ListPayments(ctx, &request.ListPaymentsRequest{
		PaginatedRequest: request.PaginatedRequest{Page: 1, PerPage: 10},
		Status:           "refunded",
	})
	assert.ErrorIs(t, err, entity.ErrValidation)
}
