package dataprocessing

import "strings"

const (
	// CountryCode is the dialing prefix every valid number carries
	CountryCode = "33"
	// NumberLength is the length of a valid normalized number
	NumberLength = 11

	internationalPrefix = "00" + CountryCode
)

// Normalize canonicalizes a called number to a country-coded digit string.
//
// Non-digits are stripped first, so "+33…" and "33…" are already equal.
// The international dial-out "0033…" collapses to "33…" and any other
// leading national "0" is replaced by the country code. The result never
// starts with "0", so Normalize is idempotent. An input without digits
// yields "".
func Normalize(raw string) string {
	digits := stripNonDigits(raw)
	if digits == "" {
		return ""
	}
	switch {
	case strings.HasPrefix(digits, internationalPrefix):
		return digits[2:]
	case digits[0] == '0':
		return CountryCode + digits[1:]
	default:
		return digits
	}
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
