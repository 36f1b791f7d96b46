package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const phoneTokenPurpose = "phone_verify"

var ErrInvalidToken = errors.New("invalid token")

type Manager struct {
	signingKey string
}

func NewManager(signingKey string) (*Manager, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}

	return &Manager{signingKey: signingKey}, nil
}

// NewJWT issues an access token whose subject is the user id.
func (m *Manager) NewJWT(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
		Subject:   userID,
	})

	return token.SignedString([]byte(m.signingKey))
}

// Parse validates an access token and returns the user id.
func (m *Manager) Parse(accessToken string) (string, error) {
	claims := &jwt.StandardClaims{}
	if _, err := jwt.ParseWithClaims(accessToken, claims, m.keyFunc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

type phoneClaims struct {
	Phone   string `json:"phone"`
	Purpose string `json:"purpose"`
	jwt.StandardClaims
}

// NewPhoneToken proves that the phone number passed OTP verification.
func (m *Manager) NewPhoneToken(phone string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, phoneClaims{
		Phone:   phone,
		Purpose: phoneTokenPurpose,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	})
	return token.SignedString([]byte(m.signingKey))
}

// ParsePhoneToken returns the verified phone number carried by the token.
func (m *Manager) ParsePhoneToken(tokenString string) (string, error) {
	claims := &phoneClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, m.keyFunc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Purpose != phoneTokenPurpose || claims.Phone == "" {
		return "", ErrInvalidToken
	}
	return claims.Phone, nil
}

func (m *Manager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(m.signingKey), nil
}
