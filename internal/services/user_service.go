package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"soundcrew/internal/logger"
	"soundcrew/internal/models"
	"soundcrew/internal/repositories"
	"soundcrew/utils"
)

const (
	otpCost           = 10
	marketingConsentV = "v1.0"
	invalidReason     = "INVALID"
)

var (
	otpCodeRe   = regexp.MustCompile(`^\d{6}$`)
	birthDateRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// AuthSettings are the tunables of phone verification and signup.
type AuthSettings struct {
	AccessTokenTTL time.Duration
	PhoneTokenTTL  time.Duration
	OtpTTL         time.Duration
	OtpCooldown    time.Duration
	OtpMaxAttempts int
	ConsentVersion string
	SignupTickets  int
	SignupTemplate string
}

type UserService struct {
	DB           *repositories.DB
	UserRepo     *repositories.UserRepository
	OtpRepo      *repositories.OtpRepository
	TokenManager *utils.Manager
	SMS          SMSSender
	Settings     AuthSettings
	Logger       logger.Logger

	now func() time.Time
}

func (s *UserService) clock() time.Time { return timestamp(s.now) }

func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	return s.UserRepo.GetUserByID(ctx, id)
}

func (s *UserService) CheckEmail(ctx context.Context, v string) (models.Availability, error) {
	email := NormalizeEmail(v)
	if !ValidEmail(email) {
		return models.Availability{Reason: invalidReason}, nil
	}
	exists, err := s.UserRepo.EmailExists(ctx, email)
	return models.Availability{Available: !exists}, err
}

func (s *UserService) CheckNickname(ctx context.Context, v string) (models.Availability, error) {
	if !ValidNickname(v) {
		return models.Availability{Reason: invalidReason}, nil
	}
	exists, err := s.UserRepo.NicknameKeyExists(ctx, NicknameKey(v))
	return models.Availability{Available: !exists}, err
}

func (s *UserService) CheckPhone(ctx context.Context, v string) (models.Availability, error) {
	phone := DigitsOnly(v)
	if len(phone) < 10 || len(phone) > 11 {
		return models.Availability{Reason: invalidReason}, nil
	}
	exists, err := s.UserRepo.PhoneExists(ctx, phone)
	return models.Availability{Available: !exists}, err
}

// RequestOtp issues a 6 digit code for the phone and sends it by SMS.
func (s *UserService) RequestOtp(ctx context.Context, rawPhone string) error {
	phone := DigitsOnly(rawPhone)
	if len(phone) < 10 {
		return models.ErrInvalidPhone
	}
	if s.SMS == nil {
		return models.ErrNotConfigured
	}

	now := s.clock()
	last, err := s.OtpRepo.GetLatestOtp(ctx, phone)
	switch {
	case err == nil:
		if age := now.Sub(last.CreatedAt); age < s.Settings.OtpCooldown {
			retry := int(math.Ceil((s.Settings.OtpCooldown - age).Seconds()))
			return &models.CooldownError{RetryAfter: retry}
		}
	case !errors.Is(err, models.ErrNoRecord):
		return err
	}

	code, err := randomCode()
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), otpCost)
	if err != nil {
		return err
	}
	otp := models.PhoneOtp{
		ID:        uuid.NewString(),
		Phone:     phone,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.Settings.OtpTTL),
		CreatedAt: now,
	}
	if err := s.OtpRepo.CreateOtp(ctx, otp); err != nil {
		return err
	}

	minutes := int(math.Max(1, math.Ceil(s.Settings.OtpTTL.Seconds()/60)))
	text := fmt.Sprintf("[SoundCrew] 인증번호 %s (%d분 내 입력)", code, minutes)
	if err := s.SMS.SendSMS(ctx, phone, text); err != nil {
		s.Logger.Errorf("send otp sms to %s: %v", phone, err)
		return models.ErrSMSSendFailed
	}
	return nil
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// VerifyOtp checks the latest code for the phone and returns a short lived
// phone verification token on success.
func (s *UserService) VerifyOtp(ctx context.Context, rawPhone, code string) (string, error) {
	phone := DigitsOnly(rawPhone)
	if len(phone) < 10 {
		return "", models.ErrInvalidPhone
	}
	code = strings.TrimSpace(code)
	if !otpCodeRe.MatchString(code) {
		return "", models.ErrInvalidOtp
	}

	otp, err := s.OtpRepo.GetLatestOtp(ctx, phone)
	if errors.Is(err, models.ErrNoRecord) {
		return "", models.ErrOtpNotFound
	}
	if err != nil {
		return "", err
	}
	if !s.clock().Before(otp.ExpiresAt) {
		return "", models.ErrOtpExpired
	}
	if otp.Attempts >= s.Settings.OtpMaxAttempts {
		return "", models.ErrTooManyAttempts
	}
	if bcrypt.CompareHashAndPassword([]byte(otp.CodeHash), []byte(code)) != nil {
		if err := s.OtpRepo.IncrementAttempts(ctx, otp.ID); err != nil {
			return "", err
		}
		return "", models.ErrOtpMismatch
	}

	if err := s.OtpRepo.DeleteOtp(ctx, otp.ID); err != nil {
		return "", err
	}
	return s.TokenManager.NewPhoneToken(phone, s.Settings.PhoneTokenTTL)
}

type signupFields struct {
	email, nickname, nicknameKey, legalName, birthYear, birthDay, gender string
}

func validateSignUp(in models.SignUpInput) (signupFields, error) {
	f := signupFields{
		email:     NormalizeEmail(in.Email),
		nickname:  NormalizeNickname(in.Nickname),
		legalName: strings.TrimSpace(in.LegalName),
		gender:    strings.ToUpper(strings.TrimSpace(in.Gender)),
	}
	f.nicknameKey = strings.ToLower(f.nickname)

	switch {
	case !ValidNickname(f.nickname):
		return f, models.ErrInvalidNickname
	case !ValidEmail(f.email):
		return f, models.ErrInvalidEmail
	case len(in.Password) < 8:
		return f, models.ErrWeakPassword
	case f.legalName == "":
		return f, models.ErrInvalidName
	}

	m := birthDateRe.FindStringSubmatch(strings.TrimSpace(in.BirthDate))
	if m == nil {
		return f, models.ErrInvalidBirthDate
	}
	f.birthYear, f.birthDay = m[1], m[2]+m[3]

	switch f.gender {
	case models.GenderMale, models.GenderFemale, models.GenderOther:
	default:
		return f, models.ErrInvalidGender
	}
	if !in.AgreeTerms || !in.AgreePrivacy {
		return f, models.ErrRequiredConsent
	}
	return f, nil
}

// SignUp creates a phone verified account with its consent records.
func (s *UserService) SignUp(ctx context.Context, in models.SignUpInput, meta models.ConsentMeta) (models.User, error) {
	f, err := validateSignUp(in)
	if err != nil {
		return models.User{}, err
	}

	phone, err := s.TokenManager.ParsePhoneToken(in.PhoneToken)
	if err != nil || phone == "" {
		return models.User{}, models.ErrPhoneNotVerified
	}
	phone = DigitsOnly(phone)

	if taken, err := s.UserRepo.NicknameKeyExists(ctx, f.nicknameKey); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, models.ErrNicknameTaken
	}
	if taken, err := s.UserRepo.EmailExists(ctx, f.email); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, models.ErrEmailTaken
	}
	if taken, err := s.UserRepo.PhoneExists(ctx, phone); err != nil {
		return models.User{}, err
	} else if taken {
		return models.User{}, models.ErrPhoneTaken
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	now := s.clock()
	user := models.User{
		ID:              uuid.NewString(),
		Email:           &f.email,
		PasswordHash:    &hash,
		Name:            &f.nickname,
		NicknameKey:     &f.nicknameKey,
		LegalName:       &f.legalName,
		BirthYear:       &f.birthYear,
		BirthDay:        &f.birthDay,
		Gender:          &f.gender,
		Phone:           &phone,
		PhoneVerifiedAt: &now,
		NotifyMessage:   true,
		NotifyRequest:   true,
		UsageTickets:    s.Settings.SignupTickets,
		CreatedAt:       now,
	}

	consents := []string{models.ConsentTerms, models.ConsentPrivacy}
	if in.AgreeMarketing {
		consents = append(consents, models.ConsentMarketing)
	}

	err = s.DB.InTx(ctx, func(ctx context.Context) error {
		if err := s.UserRepo.CreateUser(ctx, user); err != nil {
			if errors.Is(err, models.ErrDuplicate) {
				return models.ErrEmailTaken
			}
			return err
		}
		for _, typ := range consents {
			version := s.Settings.ConsentVersion
			if typ == models.ConsentMarketing {
				version = marketingConsentV
			}
			if err := s.UserRepo.CreateConsent(ctx, models.UserConsent{
				ID:        uuid.NewString(),
				UserID:    user.ID,
				Type:      typ,
				Version:   version,
				UserAgent: optional(meta.UserAgent),
				IP:        optional(meta.IP),
				CreatedAt: now,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	s.sendWelcome(ctx, user)
	return user, nil
}

func (s *UserService) sendWelcome(ctx context.Context, u models.User) {
	if s.SMS == nil || s.Settings.SignupTemplate == "" {
		return
	}
	vars := map[string]string{"#{닉네임}": *u.Name}
	if err := s.SMS.SendAlimtalk(ctx, *u.Phone, s.Settings.SignupTemplate, vars); err != nil {
		s.Logger.Errorf("signup alimtalk for %s: %v", u.ID, err)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Login checks the credentials and issues an access token.
func (s *UserService) Login(ctx context.Context, in models.LoginInput) (string, models.User, error) {
	user, err := s.UserRepo.GetUserByEmail(ctx, NormalizeEmail(in.Email))
	if errors.Is(err, models.ErrNoRecord) {
		return "", models.User{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, err
	}
	if user.PasswordHash == nil || !VerifyPassword(in.Password, *user.PasswordHash) {
		return "", models.User{}, models.ErrInvalidCredentials
	}

	token, err := s.TokenManager.NewJWT(user.ID, s.Settings.AccessTokenTTL)
	if err != nil {
		return "", models.User{}, err
	}
	return token, user, nil
}

func (s *UserService) Providers(ctx context.Context, userID string) (models.Providers, error) {
	user, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.Providers{}, err
	}
	return models.Providers{
		IsKakao:     user.KakaoUserID != nil,
		HasPassword: user.PasswordHash != nil && *user.PasswordHash != "",
	}, nil
}

func (s *UserService) GetNotifications(ctx context.Context, userID string) (models.NotificationSettings, error) {
	user, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.NotificationSettings{}, err
	}
	return models.NotificationSettings{
		NotifyMessage:   user.NotifyMessage,
		NotifyRequest:   user.NotifyRequest,
		NotifyMarketing: user.NotifyMarketing,
	}, nil
}

// UpdateNotifications applies the provided flags and returns the result.
func (s *UserService) UpdateNotifications(ctx context.Context, userID string, in models.NotificationSettingsInput) (models.NotificationSettings, error) {
	settings, err := s.GetNotifications(ctx, userID)
	if err != nil {
		return settings, err
	}
	if in.NotifyMessage != nil {
		settings.NotifyMessage = *in.NotifyMessage
	}
	if in.NotifyRequest != nil {
		settings.NotifyRequest = *in.NotifyRequest
	}
	if in.NotifyMarketing != nil {
		settings.NotifyMarketing = *in.NotifyMarketing
	}
	if err := s.UserRepo.UpdateNotifications(ctx, userID, settings); err != nil {
		return models.NotificationSettings{}, err
	}
	return settings, nil
}

// ChangePassword sets a new password. Accounts that already have one must
// confirm it; Kakao accounts cannot set one.
func (s *UserService) ChangePassword(ctx context.Context, userID string, in models.PasswordChangeInput) error {
	user, err := s.UserRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.KakaoUserID != nil {
		return models.ErrKakaoUser
	}
	if user.PasswordHash != nil && *user.PasswordHash != "" {
		if in.CurrentPassword == nil || *in.CurrentPassword == "" {
			return models.ErrCurrentRequired
		}
		if !VerifyPassword(*in.CurrentPassword, *user.PasswordHash) {
			return models.ErrCurrentInvalid
		}
	}

	hash, err := HashPassword(in.NewPassword)
	if err != nil {
		return err
	}
	return s.UserRepo.UpdatePassword(ctx, userID, hash)
}
