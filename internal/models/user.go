package models

import "time"

const (
	GenderMale   = "MALE"
	GenderFemale = "FEMALE"
	GenderOther  = "OTHER"
)

const (
	ConsentTerms     = "TERMS"
	ConsentPrivacy   = "PRIVACY"
	ConsentMarketing = "MARKETING"
)

type User struct {
	ID              string     `json:"id"`
	Email           *string    `json:"email,omitempty"`
	PasswordHash    *string    `json:"-"`
	Name            *string    `json:"name,omitempty"`
	NicknameKey     *string    `json:"-"`
	LegalName       *string    `json:"legalName,omitempty"`
	BirthYear       *string    `json:"birthYear,omitempty"`
	BirthDay        *string    `json:"birthDay,omitempty"`
	Gender          *string    `json:"gender,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	PhoneVerifiedAt *time.Time `json:"phoneVerifiedAt,omitempty"`
	KakaoUserID     *string    `json:"-"`
	Image           *string    `json:"image,omitempty"`
	NotifyMessage   bool       `json:"notifyMessage"`
	NotifyRequest   bool       `json:"notifyRequest"`
	NotifyMarketing bool       `json:"notifyMarketing"`
	UsageTickets    int        `json:"usageTickets"`
	CreatedAt       time.Time  `json:"createdAt"`
}

type UserConsent struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Version   string    `json:"version"`
	UserAgent *string   `json:"userAgent,omitempty"`
	IP        *string   `json:"ip,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type PhoneOtp struct {
	ID        string
	Phone     string
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
	CreatedAt time.Time
}

type PushDevice struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Token     string    `json:"token"`
	Platform  string    `json:"platform"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NotificationSettings struct {
	NotifyMessage   bool `json:"notifyMessage"`
	NotifyRequest   bool `json:"notifyRequest"`
	NotifyMarketing bool `json:"notifyMarketing"`
}

// NotificationSettingsInput applies only the fields that are present.
type NotificationSettingsInput struct {
	NotifyMessage   *bool `json:"notifyMessage"`
	NotifyRequest   *bool `json:"notifyRequest"`
	NotifyMarketing *bool `json:"notifyMarketing"`
}

type Providers struct {
	IsKakao     bool `json:"isKakao"`
	HasPassword bool `json:"hasPassword"`
}

type Availability struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type SignUpInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Nickname       string `json:"nickname"`
	LegalName      string `json:"legalName"`
	BirthDate      string `json:"birthDate"`
	Gender         string `json:"gender"`
	AgreeTerms     bool   `json:"agreeTerms"`
	AgreePrivacy   bool   `json:"agreePrivacy"`
	AgreeMarketing bool   `json:"agreeMarketing"`
	PhoneToken     string `json:"phoneToken"`
}

// ConsentMeta is captured from the signup request for the consent audit rows.
type ConsentMeta struct {
	UserAgent string
	IP        string
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type OtpRequestInput struct {
	Phone string `json:"phone"`
}

type OtpVerifyInput struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type PasswordChangeInput struct {
	CurrentPassword *string `json:"currentPassword"`
	NewPassword     string  `json:"newPassword" validate:"required,min=6"`
}

type DeviceInput struct {
	Token    string `json:"token" validate:"required,max=255"`
	Platform string `json:"platform" validate:"omitempty,oneof=ios android web"`
}
