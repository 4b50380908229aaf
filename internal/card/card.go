// Package card validates primary account numbers before they reach the ledger.
package card

import (
	"errors"
	"strings"
)

var (
	ErrInvalidLength   = errors.New("card number must have between 12 and 19 digits")
	ErrInvalidChars    = errors.New("card number must contain only digits")
	ErrInvalidChecksum = errors.New("card number failed checksum")
)

const (
	minDigits = 12
	maxDigits = 19
)

type Validator interface {
	Validate(number string) error
}

// LuhnValidator accepts digit-only numbers of plausible length whose Luhn
// checksum holds. Spaces are not accepted; callers send the raw number.
type LuhnValidator struct{}

func NewLuhnValidator() *LuhnValidator {
	return &LuhnValidator{}
}

func (LuhnValidator) Validate(number string) error {
	if len(number) < minDigits || len(number) > maxDigits {
		return ErrInvalidLength
	}

	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		c := number[i]
		if c < '0' || c > '9' {
			return ErrInvalidChars
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	if sum%10 != 0 {
		return ErrInvalidChecksum
	}
	return nil
}

// Mask keeps the last four digits, e.g. "************4242".
func Mask(number string) string {
	if len(number) <= 4 {
		return strings.Repeat("*", len(number))
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
