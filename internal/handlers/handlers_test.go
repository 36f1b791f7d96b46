package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bmizerany/pat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"soundcrew/internal/cache"
	"soundcrew/internal/models"
	"soundcrew/internal/repositories"
	"soundcrew/internal/repositories/testdb"
	"soundcrew/internal/services"
	"soundcrew/internal/validation"
	"soundcrew/utils"
)

const testUserHeader = "X-Test-User"

type testApp struct {
	srv     *httptest.Server
	users   *repositories.UserRepository
	userSvc *services.UserService
	uploads *services.UploadService
}

// asUser stands in for the auth middleware.
func asUser(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(testUserHeader); id != "" {
			r = r.WithContext(WithUserID(r.Context(), id))
		}
		next(w, r)
	})
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testdb.New(t)
	log := zap.NewNop().Sugar()
	v := validation.New()

	tokens, err := utils.NewManager("test-secret")
	require.NoError(t, err)

	users := &repositories.UserRepository{DB: db}
	artistRepo := &repositories.ArtistRepository{DB: db}
	requestRepo := &repositories.ArtistRequestRepository{DB: db}
	messageRepo := &repositories.MessageRepository{DB: db}

	metrics := &services.MetricsService{
		RequestRepo: requestRepo,
		MessageRepo: messageRepo,
		Cache:       cache.Noop{},
		TTL:         time.Minute,
		Logger:      log,
	}
	push := &services.PushService{UserRepo: users, DeviceRepo: &repositories.DeviceRepository{DB: db}, Logger: log}
	artistSvc := &services.ArtistService{
		DB:          db,
		ArtistRepo:  artistRepo,
		SaveRepo:    &repositories.ArtistSaveRepository{DB: db},
		ViewRepo:    &repositories.ArtistViewRepository{DB: db},
		ReviewRepo:  &repositories.ArtistReviewRepository{DB: db},
		RequestRepo: requestRepo,
		Metrics:     metrics,
		Cache:       cache.Noop{},
		Logger:      log,
	}
	messageSvc := &services.MessageService{
		DB:          db,
		ThreadRepo:  &repositories.ThreadRepository{DB: db},
		MessageRepo: messageRepo,
		UserRepo:    users,
		ArtistRepo:  artistRepo,
		Metrics:     metrics,
		Push:        push,
		Logger:      log,
	}
	requestSvc := &services.RequestService{
		DB:          db,
		RequestRepo: requestRepo,
		ArtistRepo:  artistRepo,
		Messages:    messageSvc,
		Metrics:     metrics,
		Push:        push,
		Logger:      log,
	}
	userSvc := &services.UserService{
		DB:           db,
		UserRepo:     users,
		OtpRepo:      &repositories.OtpRepository{DB: db},
		TokenManager: tokens,
		Settings:     services.AuthSettings{AccessTokenTTL: time.Hour},
		Logger:       log,
	}

	artists := &ArtistHandler{Service: artistSvc, Validator: v, Logger: log}
	messages := &MessageHandler{Service: messageSvc, Validator: v, Logger: log}
	requests := &RequestHandler{Service: requestSvc, Validator: v, Logger: log}
	accounts := &UserHandler{Service: userSvc, Push: push, Validator: v, Logger: log}
	uploadSvc := &services.UploadService{}
	uploads := &UploadHandler{Service: uploadSvc, Logger: log}
	ai := &AIHandler{Service: &services.AIService{}, Validator: v, Logger: log}

	mux := pat.New()
	mux.Get("/api/artists", asUser(artists.ListArtists))
	mux.Post("/api/artists", asUser(artists.CreateArtist))
	mux.Get("/api/artists/:slug", asUser(artists.GetArtist))
	mux.Post("/api/artists/:slug/save", asUser(artists.ToggleSave))
	mux.Get("/api/me/artist", asUser(artists.GetMyArtist))
	mux.Put("/api/me/artist", asUser(artists.ReplaceMyArtist))
	mux.Get("/api/me/artist/metrics", asUser(artists.Metrics))
	mux.Get("/api/messages/threads", asUser(messages.ListThreads))
	mux.Get("/api/messages/threads/:id", asUser(messages.GetThread))
	mux.Post("/api/messages/threads/:id", asUser(messages.SendInThread))
	mux.Post("/api/messages/send", asUser(messages.SendToArtist))
	mux.Post("/api/requests", asUser(requests.CreateRequest))
	mux.Get("/api/requests", asUser(requests.ListRequests))
	mux.Put("/api/requests/:id/status", asUser(requests.UpdateStatus))
	mux.Get("/api/auth/check-email", asUser(accounts.CheckEmail))
	mux.Post("/api/auth/phone/request-otp", asUser(accounts.RequestOtp))
	mux.Post("/api/auth/signup", asUser(accounts.SignUp))
	mux.Get("/api/profile/providers", asUser(accounts.Providers))
	mux.Put("/api/profile/notifications", asUser(accounts.UpdateNotifications))
	mux.Post("/api/uploads/presign", asUser(uploads.Presign))
	mux.Post("/api/ai/short-intro", asUser(ai.ShortIntro))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testApp{srv: srv, users: users, userSvc: userSvc, uploads: uploadSvc}
}

func (a *testApp) newUser(t *testing.T, name string) models.User {
	t.Helper()
	email := name + "@example.com"
	u := models.User{
		ID:            uuid.NewString(),
		Email:         &email,
		Name:          &name,
		NicknameKey:   &name,
		NotifyMessage: true,
		NotifyRequest: true,
		CreatedAt:     time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, a.users.CreateUser(context.Background(), u))
	return u
}

// do sends body as JSON and decodes the JSON answer.
func (a *testApp) do(t *testing.T, method, path, userID string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, a.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(testUserHeader, userID)
	}

	res, err := a.srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func artistBody() map[string]any {
	return map[string]any{
		"stageName": "Nova",
		"roles":     []string{"SINGER", "PRODUCER"},
		"genres":    []string{"POP", "RNB"},
		"mainGenre": "POP",
		"photos": []map[string]any{
			{"url": "https://cdn.example.com/a.jpg"},
			{"url": "https://cdn.example.com/b.jpg"},
		},
	}
}

func TestWriteServiceError(t *testing.T) {
	log := zap.NewNop().Sugar()
	tests := []struct {
		name   string
		err    error
		status int
		code   any
	}{
		{"not found", models.ErrNoRecord, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped", fmt.Errorf("load: %w", models.ErrArtistExists), http.StatusConflict, "ARTIST_EXISTS"},
		{"review", models.ErrReviewNotAllowed, http.StatusForbidden, "REVIEW_NOT_ALLOWED"},
		{"phone", models.ErrPhoneNotVerified, http.StatusUnauthorized, "PHONE_NOT_VERIFIED"},
		{"attempts", models.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
		{"bucket", models.ErrMissingBucket, http.StatusInternalServerError, "MISSING_S3_BUCKET"},
		{"upstream", &models.UpstreamError{StatusCode: http.StatusBadGateway, Body: "down"}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeServiceError(rec, log, tt.err)
			assert.Equal(t, tt.status, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, false, body["ok"])
			assert.Equal(t, tt.code, body["error"])
		})
	}

	t.Run("cooldown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeServiceError(rec, log, &models.CooldownError{RetryAfter: 42})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.JSONEq(t, `{"ok":false,"error":"COOLDOWN","retryAfter":42}`, rec.Body.String())
	})
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "10.0.0.9:5555"
	assert.Equal(t, "10.0.0.9:5555", clientIP(r))

	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	assert.Equal(t, "203.0.113.7", clientIP(r))
}

func TestArtistEndpoints(t *testing.T) {
	app := newTestApp(t)
	owner := app.newUser(t, "owner")
	fan := app.newUser(t, "fan")

	status, body := app.do(t, http.MethodPost, "/api/artists", owner.ID, artistBody())
	require.Equal(t, http.StatusOK, status, body)
	artist := body["artist"].(map[string]any)
	assert.Equal(t, "artist1", artist["slug"])
	assert.Equal(t, []any{"싱어", "프로듀서"}, artist["roles"])
	assert.Equal(t, "팝", artist["mainGenre"])
	assert.Equal(t, "https://cdn.example.com/a.jpg", artist["avatarUrl"])

	status, body = app.do(t, http.MethodPost, "/api/artists", owner.ID, artistBody())
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "ARTIST_EXISTS", body["error"])

	status, body = app.do(t, http.MethodGet, "/api/artists?genre=POP", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, body["ok"])
	assert.Len(t, body["artists"], 1)

	status, body = app.do(t, http.MethodPost, "/api/artists/artist1/save", fan.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["isSaved"])
	assert.Equal(t, float64(1), body["savedCount"])

	status, body = app.do(t, http.MethodGet, "/api/artists/artist1", fan.ID, nil)
	require.Equal(t, http.StatusOK, status)
	detail := body["artist"].(map[string]any)
	assert.Equal(t, true, detail["isSaved"])
	assert.Equal(t, []any{}, detail["reviews"])
	assert.Contains(t, detail, "stats")

	status, body = app.do(t, http.MethodGet, "/api/artists/nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"])

	status, body = app.do(t, http.MethodGet, "/api/me/artist", fan.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Nil(t, body["artist"])

	status, body = app.do(t, http.MethodGet, "/api/me/artist", owner.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{"SINGER", "PRODUCER"}, body["artist"].(map[string]any)["roles"])

	status, body = app.do(t, http.MethodGet, "/api/me/artist/metrics", owner.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["views"])
	assert.Equal(t, float64(1), body["saves"])
}

func TestArtistValidation(t *testing.T) {
	app := newTestApp(t)
	owner := app.newUser(t, "owner")

	in := artistBody()
	in["genres"] = []string{"POLKA"}
	status, body := app.do(t, http.MethodPost, "/api/artists", owner.ID, in)
	assert.Equal(t, http.StatusBadRequest, status)
	flat := body["error"].(map[string]any)
	assert.Contains(t, flat["fieldErrors"], "genres")

	in = artistBody()
	in["mainGenre"] = "ROCK"
	status, body = app.do(t, http.MethodPost, "/api/artists", owner.ID, in)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "MAIN_GENRE_INVALID", body["error"])

	status, body = app.do(t, http.MethodPost, "/api/artists", owner.ID, "{broken")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []any{"Invalid JSON"}, body["error"].(map[string]any)["formErrors"])

	status, body = app.do(t, http.MethodPut, "/api/me/artist", owner.ID, artistBody())
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"])
}

func TestMessageAndRequestEndpoints(t *testing.T) {
	app := newTestApp(t)
	owner := app.newUser(t, "owner")
	fan := app.newUser(t, "fan")

	_, body := app.do(t, http.MethodPost, "/api/artists", owner.ID, artistBody())
	artistID := body["artist"].(map[string]any)["id"]

	status, body := app.do(t, http.MethodPost, "/api/messages/send", fan.ID, map[string]any{"artistId": artistID, "body": "안녕하세요"})
	require.Equal(t, http.StatusOK, status, body)
	threadID := body["threadId"].(string)
	assert.NotEmpty(t, body["messageId"])

	status, body = app.do(t, http.MethodPost, "/api/messages/send", owner.ID, map[string]any{"artistId": artistID, "body": "me"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "SELF_MESSAGE", body["error"])

	status, body = app.do(t, http.MethodPost, "/api/messages/threads/"+threadID, owner.ID, map[string]any{"body": ""})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body["error"].(map[string]any)["fieldErrors"], "body")

	status, body = app.do(t, http.MethodPost, "/api/messages/threads/"+threadID, owner.ID, map[string]any{"body": "반갑습니다"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "반갑습니다", body["message"].(map[string]any)["body"])

	status, body = app.do(t, http.MethodGet, "/api/messages/threads", fan.ID, nil)
	require.Equal(t, http.StatusOK, status)
	threads := body["threads"].([]any)
	require.Len(t, threads, 1)
	summary := threads[0].(map[string]any)
	assert.Equal(t, float64(1), summary["unreadCount"])
	assert.Equal(t, "반갑습니다", summary["lastMessage"])

	status, body = app.do(t, http.MethodGet, "/api/messages/threads/"+threadID, fan.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["messages"], 2)

	stranger := app.newUser(t, "stranger")
	status, _ = app.do(t, http.MethodGet, "/api/messages/threads/"+threadID, stranger.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = app.do(t, http.MethodPost, "/api/requests", fan.ID, map[string]any{
		"artistId":    artistID,
		"shortHelp":   "보컬 녹음",
		"description": "데모 곡",
	})
	require.Equal(t, http.StatusOK, status, body)
	requestID := body["request"].(map[string]any)["id"].(string)
	assert.Equal(t, threadID, body["request"].(map[string]any)["threadId"])

	status, body = app.do(t, http.MethodGet, "/api/requests?box=received", owner.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["requests"], 1)

	status, body = app.do(t, http.MethodGet, "/api/requests?box=archive", owner.ID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_BOX", body["error"])

	status, body = app.do(t, http.MethodPut, "/api/requests/"+requestID+"/status", fan.ID, map[string]any{"status": "ACCEPTED"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INVALID_TRANSITION", body["error"])

	status, body = app.do(t, http.MethodPut, "/api/requests/"+requestID+"/status", owner.ID, map[string]any{"status": "ACCEPTED"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, models.RequestAccepted, body["request"].(map[string]any)["status"])
}

func TestAccountEndpoints(t *testing.T) {
	app := newTestApp(t)
	user := app.newUser(t, "member")

	status, body := app.do(t, http.MethodGet, "/api/auth/check-email?v=MEMBER@example.com", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["available"])

	status, body = app.do(t, http.MethodGet, "/api/auth/check-email?v=nope", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "INVALID", body["reason"])

	status, body = app.do(t, http.MethodPost, "/api/auth/phone/request-otp", "", map[string]any{"phone": "010"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_PHONE", body["error"])

	status, body = app.do(t, http.MethodPost, "/api/auth/phone/request-otp", "", map[string]any{"phone": "010-1234-5678"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "NOT_CONFIGURED", body["error"])

	status, body = app.do(t, http.MethodPost, "/api/auth/signup", "", map[string]any{
		"email":        "new@example.com",
		"password":     "password1",
		"nickname":     "newbie",
		"legalName":    "홍길동",
		"birthDate":    "1995-04-02",
		"gender":       "FEMALE",
		"agreeTerms":   true,
		"agreePrivacy": true,
		"phoneToken":   "forged",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "PHONE_NOT_VERIFIED", body["error"])

	status, body = app.do(t, http.MethodGet, "/api/profile/providers", user.ID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["isKakao"])
	assert.Equal(t, false, body["hasPassword"])

	status, body = app.do(t, http.MethodPut, "/api/profile/notifications", user.ID, map[string]any{"notifyMessage": false})
	require.Equal(t, http.StatusOK, status)
	settings := body["settings"].(map[string]any)
	assert.Equal(t, false, settings["notifyMessage"])
	assert.Equal(t, true, settings["notifyRequest"])
}

func TestIntegrationEndpointsUnconfigured(t *testing.T) {
	app := newTestApp(t)

	status, body := app.do(t, http.MethodPost, "/api/uploads/presign", "", map[string]any{"fileName": "a.png"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "MISSING_S3_BUCKET", body["error"])

	status, body = app.do(t, http.MethodPost, "/api/ai/short-intro", "", map[string]any{"stageName": "Nova"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "NOT_CONFIGURED", body["error"])
}

// failingSMS rejects every message the way a misconfigured provider does.
type failingSMS struct{}

func (failingSMS) SendSMS(context.Context, string, string) error {
	return &models.UpstreamError{StatusCode: http.StatusUnauthorized, Body: `{"errorCode":"InvalidApiKey"}`}
}

func (failingSMS) SendAlimtalk(context.Context, string, string, map[string]string) error {
	return &models.UpstreamError{StatusCode: http.StatusUnauthorized, Body: `{"errorCode":"InvalidApiKey"}`}
}

func TestRequestOtpHidesProviderFailure(t *testing.T) {
	app := newTestApp(t)
	app.userSvc.SMS = failingSMS{}

	status, body := app.do(t, http.MethodPost, "/api/auth/phone/request-otp", "", map[string]any{"phone": "010-1234-5678"})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "SMS_SEND_FAIL", body["error"])
	assert.NotContains(t, body, "detail")
}

type stubPresigner struct{}

func (stubPresigner) Bucket() string { return "media" }
func (stubPresigner) Region() string { return "ap-northeast-2" }

func (stubPresigner) PresignPut(key, _ string, _ time.Duration) (string, error) {
	return "https://signed.example.com/" + key, nil
}

func (stubPresigner) PresignGet(key string, _ time.Duration) (string, error) {
	return "https://signed.example.com/get/" + key, nil
}

func (stubPresigner) PublicURL(key string) string { return "https://cdn.example.com/" + key }

func TestPresignReturnsFileName(t *testing.T) {
	app := newTestApp(t)
	app.uploads.Presigner = stubPresigner{}

	status, body := app.do(t, http.MethodPost, "/api/uploads/presign", "", map[string]any{"fileName": "데모 곡 (v2).wav", "folder": "tracks"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "legacy", body["mode"])
	assert.Equal(t, "데모 곡 _v2_.wav", body["fileName"])

	status, body = app.do(t, http.MethodPost, "/api/uploads/presign", "", map[string]any{"key": "/tracks/a.wav"})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "direct", body["mode"])
	assert.NotContains(t, body, "fileName")
}

func TestSendInThreadChecksParticipantFirst(t *testing.T) {
	app := newTestApp(t)
	owner := app.newUser(t, "owner")
	fan := app.newUser(t, "fan")
	stranger := app.newUser(t, "stranger")

	_, body := app.do(t, http.MethodPost, "/api/artists", owner.ID, artistBody())
	artistID := body["artist"].(map[string]any)["id"]
	_, body = app.do(t, http.MethodPost, "/api/messages/send", fan.ID, map[string]any{"artistId": artistID, "body": "hi"})
	threadID := body["threadId"].(string)

	status, body := app.do(t, http.MethodPost, "/api/messages/threads/"+threadID, stranger.ID, map[string]any{"body": ""})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["error"])

	status, _ = app.do(t, http.MethodPost, "/api/messages/threads/"+threadID, fan.ID, map[string]any{"body": ""})
	assert.Equal(t, http.StatusBadRequest, status)
}
