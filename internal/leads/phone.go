package leads

import "strings"

// SanitizeDigits strips everything but digits from a phone value.
func SanitizeDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeE164 ensures the value begins with + and only contains digits
// afterward. Ten-digit US numbers get the +1 country code.
func NormalizeE164(value string) string {
	digits := SanitizeDigits(strings.TrimSpace(value))
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return "+" + digits
}

// LastTen returns the trailing ten digits, or "" when fewer exist.
func LastTen(digits string) string {
	digits = SanitizeDigits(digits)
	if len(digits) < 10 {
		return ""
	}
	return digits[len(digits)-10:]
}
