package adaptor

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ticket-booking/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type envelope struct {
	Status  bool           `json:"status"`
	Message string         `json:"message"`
	Errors  map[string]any `json:"errors"`
}

func TestHandleServiceError(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.Level(zap.DPanicLevel))

	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{
			name:        "validation",
			err:         entity.NewValidationError("reference", "Must be at least 6 characters"),
			wantCode:    http.StatusBadRequest,
			wantMessage: "Validation failed",
		},
		{
			name:        "selection keeps the reason",
			err:         fmt.Errorf("start booking: %w", entity.NewSelectionError("please select exactly %d seats", 2)),
			wantCode:    http.StatusBadRequest,
			wantMessage: "Please select exactly 2 seats",
		},
		{
			name:        "seats taken",
			err:         fmt.Errorf("acquire: %w", &entity.SeatsUnavailableError{Seats: []string{"A2"}}),
			wantCode:    http.StatusConflict,
			wantMessage: msgSeatsUnavailable,
		},
		{
			name:        "hold lapsed",
			err:         fmt.Errorf("confirm: %w", entity.ErrBookingExpired),
			wantCode:    http.StatusGone,
			wantMessage: msgSessionExpired,
		},
		{
			name:        "hold already released",
			err:         fmt.Errorf("confirm: %w: %w", entity.ErrBookingExpired, entity.ErrAlreadyReleased),
			wantCode:    http.StatusGone,
			wantMessage: msgSessionExpired,
		},
		{
			name:     "payment rejected",
			err:      entity.ErrPaymentRejected,
			wantCode: http.StatusConflict,
		},
		{
			name:     "payment already open",
			err:      entity.ErrPaymentExists,
			wantCode: http.StatusConflict,
		},
		{
			name:     "invalid state",
			err:      entity.ErrInvalidState,
			wantCode: http.StatusConflict,
		},
		{
			name:     "forbidden",
			err:      entity.ErrForbidden,
			wantCode: http.StatusForbidden,
		},
		{
			name:        "booking not found",
			err:         fmt.Errorf("get booking: %w", entity.ErrBookingNotFound),
			wantCode:    http.StatusNotFound,
			wantMessage: "Booking not found",
		},
		{
			name:        "anything else",
			err:         errors.New("connection refused"),
			wantCode:    http.StatusInternalServerError,
			wantMessage: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handleServiceError(rec, log, tt.err, "test")

			assert.Equal(t, tt.wantCode, rec.Code)

			var body envelope
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.False(t, body.Status)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, body.Message)
			}
		})
	}
}

func TestHandleServiceError_UnavailableSeatsListed(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, zap.NewNop(), &entity.SeatsUnavailableError{Seats: []string{"B3", "B4"}}, "start booking")

	var body envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, []any{"B3", "B4"}, body.Errors["unavailable_seats"])
}

func TestHandleServiceError_ValidationFields(t *testing.T) {
	rec := httptest.NewRecorder()
	handleServiceError(rec, zap.NewNop(), entity.NewValidationError("booking_id", "Must be a valid UUID"), "get booking")

	var body envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "Must be a valid UUID", body.Errors["booking_id"])
}

func TestHandleServiceError_ConflictCodes(t *testing.T) {
	tests := map[error]string{
		entity.ErrPaymentRejected: CodePaymentRejected,
		entity.ErrPaymentExists:   CodePaymentExists,
		entity.ErrInvalidState:    CodeInvalidState,
	}

	for err, code := range tests {
		rec := httptest.NewRecorder()
		handleServiceError(rec, zap.NewNop(), fmt.Errorf("wrapped: %w", err), "test")

		var body envelope
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, code, body.Errors["code"], err.Error())
	}
}
