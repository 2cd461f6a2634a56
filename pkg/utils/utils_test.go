package utils

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seatForm struct {
	EventID string   `validate:"required,uuid"`
	SeatIDs []string `validate:"required,min=1,dive,seatcode"`
}

func TestValidateStruct(t *testing.T) {
	ok := seatForm{EventID: uuid.NewString(), SeatIDs: []string{"A1", "AB12"}}
	assert.Empty(t, ValidateStruct(ok))

	bad := seatForm{EventID: "nope", SeatIDs: []string{"a1"}}
	errs := ValidateStruct(bad)
	assert.Equal(t, "Must be a valid UUID", errs["EventID"])
	assert.Equal(t, "Must be a seat code such as A1", errs["SeatIDs[0]"])
	assert.Contains(t, FormatValidationErrors(errs), "EventID: Must be a valid UUID")
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 5, ParseInt("5", 1))
	assert.Equal(t, 1, ParseInt("", 1))
	assert.Equal(t, 1, ParseInt("x", 1))
	assert.Equal(t, 10, ParseInt("-3", 10))
}

func TestGenerateBookingCode(t *testing.T) {
	now := time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)
	id := uuid.MustParse("3f2a9c1e-7b44-4d0a-9e21-5c8b0d6fa713")

	code := GenerateBookingCode(now, id)
	assert.Equal(t, "BOOK-20250607-5C8B0D6FA713", code)
	assert.LessOrEqual(t, len(code), 32)
}

func TestGenerateBookingCode_UniqueWithinOneSecond(t *testing.T) {
	now := time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)

	const n = 20000
	seen := make(map[string]struct{}, n)
	for range n {
		code := GenerateBookingCode(now, uuid.New())
		assert.Regexp(t, regexp.MustCompile(`^BOOK-20250607-[0-9A-F]{12}$`), code)
		_, dup := seen[code]
		require.False(t, dup, "duplicate booking code %s", code)
		seen[code] = struct{}{}
	}
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 3, CalculateTotalPages(21, 10))
	assert.Equal(t, 0, CalculateTotalPages(0, 10))
	assert.Equal(t, 20, CalculateOffset(3, 10))
	assert.Equal(t, 0, CalculateOffset(0, 10))
}

func TestUserContext(t *testing.T) {
	_, ok := GetCurrentUser(context.Background())
	assert.False(t, ok)

	user := CurrentUser{ID: uuid.New(), Email: "a@example.com", Role: RoleAdmin}
	ctx := SetUserContext(context.Background(), user)

	got, ok := GetCurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, user, got)
	assert.True(t, got.IsAdmin())
}

func TestResponseConflict(t *testing.T) {
	rec := httptest.NewRecorder()
	ResponseConflict(rec, "these seats are no longer available", map[string]any{"unavailable_seats": []string{"A2"}})

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Status)
	assert.Equal(t, "these seats are no longer available", body.Message)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9191")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("LOCK_TTL_MINUTES", "7")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.App.Port)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 7, cfg.Booking.LockTTLMinutes)
	assert.Equal(t, time.Minute, cfg.Booking.SweepInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
	assert.Contains(t, cfg.Database.DSN(), "sslmode=disable")
}
