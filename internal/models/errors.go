package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoRecord           = errors.New("models: no matching record found")
	ErrDuplicate          = errors.New("models: duplicate record")
	ErrInvalidCredentials = errors.New("models: invalid credentials")
	ErrUnauthorized       = errors.New("models: unauthorized")
)

// Artist profile rules.
var (
	ErrArtistExists       = errors.New("artist: profile already exists")
	ErrArtistUserRequired = errors.New("artist: profile has no linked user")
	ErrMainGenreRequired  = errors.New("artist: main genre required")
	ErrMainGenreInvalid   = errors.New("artist: main genre not among genres")
	ErrSlugTaken          = errors.New("artist: slug taken")
	ErrReviewNotAllowed   = errors.New("artist: review not allowed")
)

// Messaging and requests.
var (
	ErrSelfMessage       = errors.New("messages: cannot message yourself")
	ErrSelfRequest       = errors.New("requests: cannot request your own profile")
	ErrInvalidTransition = errors.New("requests: invalid status transition")
	ErrInvalidBox        = errors.New("requests: unknown box")
)

// Accounts and phone verification.
var (
	ErrInvalidPhone     = errors.New("auth: invalid phone")
	ErrInvalidOtp       = errors.New("auth: invalid otp")
	ErrOtpNotFound      = errors.New("auth: otp not found")
	ErrOtpExpired       = errors.New("auth: otp expired")
	ErrTooManyAttempts  = errors.New("auth: too many attempts")
	ErrOtpMismatch      = errors.New("auth: otp mismatch")
	ErrPhoneNotVerified = errors.New("auth: phone not verified")
	ErrInvalidNickname  = errors.New("auth: invalid nickname")
	ErrInvalidEmail     = errors.New("auth: invalid email")
	ErrWeakPassword     = errors.New("auth: weak password")
	ErrInvalidName      = errors.New("auth: invalid name")
	ErrInvalidBirthDate = errors.New("auth: invalid birth date")
	ErrInvalidGender    = errors.New("auth: invalid gender")
	ErrRequiredConsent  = errors.New("auth: required consent missing")
	ErrNicknameTaken    = errors.New("auth: nickname taken")
	ErrEmailTaken       = errors.New("auth: email taken")
	ErrPhoneTaken       = errors.New("auth: phone taken")
	ErrKakaoUser        = errors.New("auth: kakao account has no password")
	ErrCurrentRequired  = errors.New("auth: current password required")
	ErrCurrentInvalid   = errors.New("auth: current password invalid")
)

// Uploads and third-party integrations.
var (
	ErrMissingBucket   = errors.New("uploads: s3 bucket not configured")
	ErrMissingRegion   = errors.New("uploads: aws region not configured")
	ErrMissingFileName = errors.New("uploads: file name required")
	ErrNotConfigured   = errors.New("integration not configured")
	ErrSMSSendFailed   = errors.New("auth: otp sms could not be sent")
)

// CooldownError is returned when an OTP is requested again before the resend interval passed.
type CooldownError struct {
	RetryAfter int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("auth: otp cooldown, retry after %ds", e.RetryAfter)
}

// UpstreamError carries the status code of a failed third-party HTTP call.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream error: status %d: %s", e.StatusCode, e.Body)
}
