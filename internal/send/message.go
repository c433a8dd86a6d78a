package send

import (
	"strings"
	"unicode"
)

// ValidateMessage reports whether text has anything to send.
func ValidateMessage(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	return nil
}

// Sanitize trims surrounding whitespace.
func Sanitize(text string) string {
	return strings.TrimSpace(text)
}

// ApplySuffix appends suffix verbatim. An empty suffix returns text unchanged.
func ApplySuffix(text, suffix string) string {
	if suffix == "" {
		return text
	}
	return text + suffix
}

// Digits strips everything but ASCII digits.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// FormatPhoneNumber normalizes a phone number to country code plus number.
// Ten-digit local numbers get the 91 country code.
func FormatPhoneNumber(phone string) string {
	d := Digits(phone)
	if len(d) == 10 {
		return "91" + d
	}
	return d
}

// ValidatePhoneNumber reports whether phone has at least ten digits.
func ValidatePhoneNumber(phone string) bool {
	return len(Digits(phone)) >= 10
}
