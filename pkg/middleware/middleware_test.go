package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ticket-booking/pkg/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func whoAmI() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := utils.GetCurrentUser(r.Context())
		if !ok {
			utils.ResponseUnauthorized(w, "no user")
			return
		}
		utils.ResponseSuccess(w, "ok", map[string]string{
			"id":    user.ID.String(),
			"email": user.Email,
			"role":  user.Role,
		})
	})
}

func TestAuth(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel))
	userID := uuid.New()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantRole string
	}{
		{name: "missing header", header: "", wantCode: http.StatusUnauthorized},
		{name: "not bearer", header: "Token abc", wantCode: http.StatusUnauthorized},
		{
			name:     "valid customer",
			header:   "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": userID.String(), "email": "a@example.com", "exp": exp}),
			wantCode: http.StatusOK,
		},
		{
			name:     "admin via app metadata",
			header:   "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": userID.String(), "app_metadata": map[string]any{"role": "admin"}, "exp": exp}),
			wantCode: http.StatusOK,
			wantRole: utils.RoleAdmin,
		},
		{
			name:     "wrong secret",
			header:   "Bearer " + signToken(t, "other", jwt.MapClaims{"sub": userID.String(), "exp": exp}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "expired",
			header:   "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": userID.String(), "exp": time.Now().Add(-time.Minute).Unix()}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "no expiry",
			header:   "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": userID.String()}),
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "subject not a uuid",
			header:   "Bearer " + signToken(t, testSecret, jwt.MapClaims{"sub": "42", "exp": exp}),
			wantCode: http.StatusUnauthorized,
		},
	}

	handler := Auth(testSecret, log)(whoAmI())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user/bookings", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				return
			}

			var body struct {
				Data map[string]string `json:"data"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, userID.String(), body.Data["id"])
			assert.Equal(t, tt.wantRole, body.Data["role"])
		})
	}
}

func TestAdmin(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.Level(zap.ErrorLevel))
	handler := Admin(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(user *utils.CurrentUser) int {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/payments/x/confirm", nil)
		if user != nil {
			req = req.WithContext(utils.SetUserContext(req.Context(), *user))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&utils.CurrentUser{ID: uuid.New()}))
	assert.Equal(t, http.StatusNoContent, serve(&utils.CurrentUser{ID: uuid.New(), Role: utils.RoleAdmin}))
}

func TestRecover(t *testing.T) {
	log := zaptest.NewLogger(t, zaptest.Level(zap.FatalLevel))
	handler := Recover(log)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}

func TestCORS_Preflight(t *testing.T) {
	handler := CORS()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/bookings", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
