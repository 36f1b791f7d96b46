package services

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nicknameRe   = regexp.MustCompile(`^[\p{L}\p{N} _.\-]{2,20}$`)
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRe   = regexp.MustCompile(`\D`)
)

// NormalizeNickname applies NFKC, trims and collapses inner whitespace.
func NormalizeNickname(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(norm.NFKC.String(s)), " ")
}

// NicknameKey is the case-insensitive uniqueness key of a nickname.
func NicknameKey(s string) string {
	return strings.ToLower(NormalizeNickname(s))
}

func ValidNickname(s string) bool {
	return nicknameRe.MatchString(NormalizeNickname(s))
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	return nonDigitRe.ReplaceAllString(s, "")
}

// NormalizeKrPhone turns +82 numbers into the domestic 0-prefixed form.
func NormalizeKrPhone(s string) string {
	digits := DigitsOnly(s)
	if strings.HasPrefix(digits, "82") {
		rest := digits[2:]
		if strings.HasPrefix(rest, "0") {
			return rest
		}
		return "0" + rest
	}
	return digits
}
