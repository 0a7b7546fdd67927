package phone

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

// ErrInvalidFormat is returned when raw input matches none of the accepted
// phone number formats.
var ErrInvalidFormat = errors.New("phone: invalid phone number format")

var (
	// localPrefixes are the accepted national mobile prefixes (10-digit form).
	localPrefixes = []string{"09", "07"}

	// countryPrefixes are the accepted international digit prefixes after
	// stripping the leading plus.
	countryPrefixes = []string{"2519", "2517"}
)

const (
	localLen         = 10
	internationalLen = 12
	minIntlDigits    = 8
	maxIntlDigits    = 15
)

// Normalize converts raw phone input to the canonical international form
// ("+" followed by country code and subscriber number).
//
// Accepted inputs are local 10-digit mobile forms (09XXXXXXXX, 07XXXXXXXX),
// the matching international forms with or without a leading plus, and any
// other international number with 8-15 significant digits and an explicit
// leading plus. All non-digit characters are stripped before matching.
func Normalize(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	digits := stripNonDigits(trimmed)
	if digits == "" {
		return "", ErrInvalidFormat
	}

	isLocal := lo.SomeBy(localPrefixes, func(p string) bool {
		return strings.HasPrefix(digits, p)
	})
	if isLocal && len(digits) == localLen {
		return "+251" + digits[1:], nil
	}

	isNational := lo.SomeBy(countryPrefixes, func(p string) bool {
		return strings.HasPrefix(digits, p)
	})
	if isNational && len(digits) == internationalLen {
		return "+" + digits, nil
	}

	if strings.HasPrefix(trimmed, "+") &&
		len(digits) >= minIntlDigits && len(digits) <= maxIntlDigits {
		return "+" + digits, nil
	}

	return "", ErrInvalidFormat
}

// Valid reports whether raw input normalizes to a canonical phone number.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}

// Mask hides the middle of a canonical phone number for log output.
func Mask(canonical string) string {
	const visible = 4
	if len(canonical) <= visible+2 {
		return canonical
	}
	return canonical[:len(canonical)-visible-4] + "****" + canonical[len(canonical)-visible:]
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
