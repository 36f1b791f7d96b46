package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soundcrew/internal/handlers"
	"soundcrew/utils"
)

func newTestApplication(t *testing.T) *application {
	t.Helper()
	tokens, err := utils.NewManager("test-secret")
	require.NoError(t, err)
	return &application{log: zap.NewNop().Sugar(), tokens: tokens}
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte(handlers.UserID(r)))
}

func TestAuthMiddleware(t *testing.T) {
	app := newTestApplication(t)
	token, err := app.tokens.NewJWT("user-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		required   bool
		wantStatus int
		wantBody   string
	}{
		{"required valid", "Bearer " + token, true, http.StatusOK, "user-1"},
		{"required missing", "", true, http.StatusUnauthorized, ""},
		{"required garbage", "Bearer nope", true, http.StatusUnauthorized, ""},
		{"required wrong scheme", "Basic " + token, true, http.StatusUnauthorized, ""},
		{"optional valid", "Bearer " + token, false, http.StatusOK, "user-1"},
		{"optional missing", "", false, http.StatusOK, ""},
		{"optional garbage", "Bearer nope", false, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := app.optionalAuth
			if tt.required {
				mw = app.requireAuth
			}
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			mw(http.HandlerFunc(echoUser)).ServeHTTP(rec, r)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.JSONEq(t, `{"ok":false,"error":"UNAUTHORIZED"}`, rec.Body.String())
			}
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	app := newTestApplication(t)
	h := app.recoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}

func TestServeWSRejectsBadToken(t *testing.T) {
	app := newTestApplication(t)
	rec := httptest.NewRecorder()
	app.serveWS(rec, httptest.NewRequest(http.MethodGet, "/ws?token=bad", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
