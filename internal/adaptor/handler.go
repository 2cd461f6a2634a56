package adaptor

import (
	"ticket-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Inventory *InventoryHandler
	Lock      *LockHandler
	Booking   *BookingHandler
	Payment   *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Inventory: NewInventoryHandler(service.Inventory, log),
		Lock:      NewLockHandler(service.Lock, log),
		Booking:   NewBookingHandler(service.Booking, log),
		Payment:   NewPaymentHandler(service.Payment, log),
	}
}
