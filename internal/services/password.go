package services

import (
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/scrypt"
)

// Parameters of legacy "scrypt$<salt>$<hash>" rows.
const (
	legacyScryptN      = 16384
	legacyScryptR      = 8
	legacyScryptP      = 1
	legacyScryptKeyLen = 64
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks password against a bcrypt hash or a legacy scrypt hash.
func VerifyPassword(password, stored string) bool {
	if strings.HasPrefix(stored, "scrypt$") {
		return verifyLegacyScrypt(password, stored)
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

func verifyLegacyScrypt(password, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) != legacyScryptKeyLen {
		return false
	}
	// The salt is used as its hex text, not decoded.
	got, err := scrypt.Key([]byte(password), []byte(parts[1]), legacyScryptN, legacyScryptR, legacyScryptP, legacyScryptKeyLen)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}
