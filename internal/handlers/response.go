package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/validation"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// WithUserID stores the authenticated user id on the request context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(userIDKey).(string)
	return id
}

// envelope is the JSON body of every API answer.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeOK(w http.ResponseWriter, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["ok"] = true
	writeJSON(w, http.StatusOK, body)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, envelope{"ok": false, "error": code})
}

func writeValidation(w http.ResponseWriter, fe *validation.FlatError) {
	writeJSON(w, http.StatusBadRequest, envelope{"ok": false, "error": fe})
}

// decode reads a JSON body into dst and runs the struct rules when v is set.
// On failure the response is already written and false is returned.
func decode(w http.ResponseWriter, r *http.Request, v *validation.Validator, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidation(w, &validation.FlatError{FormErrors: []string{"Invalid JSON"}, FieldErrors: map[string][]string{}})
		return false
	}
	if v == nil {
		return true
	}
	return validate(w, v, dst)
}

// validate runs the struct rules on an already decoded body.
func validate(w http.ResponseWriter, v *validation.Validator, dst any) bool {
	if err := v.Struct(dst); err != nil {
		var fe *validation.FlatError
		if errors.As(err, &fe) {
			writeValidation(w, fe)
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_INPUT")
		return false
	}
	return true
}

type errorMapping struct {
	err    error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{models.ErrNoRecord, http.StatusNotFound, "NOT_FOUND"},
	{models.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{models.ErrDuplicate, http.StatusConflict, "DUPLICATE"},

	{models.ErrArtistExists, http.StatusConflict, "ARTIST_EXISTS"},
	{models.ErrArtistUserRequired, http.StatusBadRequest, "ARTIST_USER_REQUIRED"},
	{models.ErrMainGenreRequired, http.StatusBadRequest, "MAIN_GENRE_REQUIRED"},
	{models.ErrMainGenreInvalid, http.StatusBadRequest, "MAIN_GENRE_INVALID"},
	{models.ErrSlugTaken, http.StatusConflict, "SLUG_TAKEN"},
	{models.ErrReviewNotAllowed, http.StatusForbidden, "REVIEW_NOT_ALLOWED"},

	{models.ErrSelfMessage, http.StatusBadRequest, "SELF_MESSAGE"},
	{models.ErrSelfRequest, http.StatusBadRequest, "SELF_REQUEST"},
	{models.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{models.ErrInvalidBox, http.StatusBadRequest, "INVALID_BOX"},

	{models.ErrInvalidPhone, http.StatusBadRequest, "INVALID_PHONE"},
	{models.ErrInvalidOtp, http.StatusBadRequest, "INVALID_OTP"},
	{models.ErrOtpNotFound, http.StatusBadRequest, "OTP_NOT_FOUND"},
	{models.ErrOtpExpired, http.StatusBadRequest, "OTP_EXPIRED"},
	{models.ErrTooManyAttempts, http.StatusTooManyRequests, "TOO_MANY_ATTEMPTS"},
	{models.ErrOtpMismatch, http.StatusBadRequest, "OTP_MISMATCH"},
	{models.ErrPhoneNotVerified, http.StatusUnauthorized, "PHONE_NOT_VERIFIED"},
	{models.ErrInvalidNickname, http.StatusBadRequest, "INVALID_NICKNAME"},
	{models.ErrInvalidEmail, http.StatusBadRequest, "INVALID_EMAIL"},
	{models.ErrWeakPassword, http.StatusBadRequest, "WEAK_PASSWORD"},
	{models.ErrInvalidName, http.StatusBadRequest, "INVALID_NAME"},
	{models.ErrInvalidBirthDate, http.StatusBadRequest, "INVALID_BIRTHDATE"},
	{models.ErrInvalidGender, http.StatusBadRequest, "INVALID_GENDER"},
	{models.ErrRequiredConsent, http.StatusBadRequest, "REQUIRED_CONSENT"},
	{models.ErrNicknameTaken, http.StatusConflict, "NICKNAME_TAKEN"},
	{models.ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{models.ErrPhoneTaken, http.StatusConflict, "PHONE_TAKEN"},
	{models.ErrKakaoUser, http.StatusBadRequest, "KAKAO_USER"},
	{models.ErrCurrentRequired, http.StatusBadRequest, "CURRENT_REQUIRED"},
	{models.ErrCurrentInvalid, http.StatusBadRequest, "CURRENT_INVALID"},

	{models.ErrMissingBucket, http.StatusInternalServerError, "MISSING_S3_BUCKET"},
	{models.ErrMissingRegion, http.StatusInternalServerError, "MISSING_AWS_REGION"},
	{models.ErrMissingFileName, http.StatusBadRequest, "MISSING_FILE_NAME"},
	{models.ErrNotConfigured, http.StatusInternalServerError, "NOT_CONFIGURED"},
	{models.ErrSMSSendFailed, http.StatusInternalServerError, "SMS_SEND_FAIL"},
}

// writeServiceError maps domain errors to their status and code. Anything
// unknown is logged and answered with a bare 500.
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error) {
	var cooldown *models.CooldownError
	if errors.As(err, &cooldown) {
		writeJSON(w, http.StatusTooManyRequests, envelope{"ok": false, "error": "COOLDOWN", "retryAfter": cooldown.RetryAfter})
		return
	}
	var upstream *models.UpstreamError
	if errors.As(err, &upstream) {
		log.Errorf("upstream: %v", err)
		writeJSON(w, upstream.StatusCode, envelope{"ok": false, "error": "UPSTREAM_ERROR", "detail": upstream.Body})
		return
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code)
			return
		}
	}
	log.Errorf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, envelope{"ok": false})
}
