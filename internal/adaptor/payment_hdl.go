package adaptor

import (
	"encoding/json"
	"net/http"

	"ticket-booking/internal/dto/request"
	"ticket-booking/internal/usecase"
	"ticket-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// SubmitPayment handles POST /api/bookings/{id}/payments (protected)
func (h *PaymentHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.SubmitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, created, err := h.service.SubmitPayment(r.Context(), userID, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "submit payment")
		return
	}

	if !created {
		utils.ResponseSuccess(w, "Payment already submitted", payment)
		return
	}
	utils.ResponseCreated(w, "Payment submitted, awaiting verification", payment)
}

// ==================== ADMIN METHODS ====================

// ListPayments handles GET /api/admin/payments?status= (admin only)
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.ListPaymentsRequest{
		PaginatedRequest: request.PaginatedRequest{
			Page:    utils.ParseInt(query.Get("page"), 1),
			PerPage: utils.ParseInt(query.Get("per_page"), 20),
		},
		Status: query.Get("status"),
	}

	payments, err := h.service.ListPayments(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "list payments")
		return
	}

	utils.ResponseSuccess(w, "success", payments)
}

// Confirm handles POST /api/admin/payments/{id}/confirm (admin only)
func (h *PaymentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	decision, err := h.service.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "confirm payment")
		return
	}

	utils.ResponseSuccess(w, "Payment confirmed", decision)
}

// Reject handles POST /api/admin/payments/{id}/reject (admin only)
func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	decision, err := h.service.Reject(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "reject payment")
		return
	}

	utils.ResponseSuccess(w, "Payment rejected", decision)
}
