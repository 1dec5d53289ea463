package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountDigits is the number of decimal digits in math.MaxUint64
var maxAmountDigits = len(strconv.FormatUint(math.MaxUint64, 10))

// ParseAmount parses a bid amount. Amounts are non-negative integers;
// a zero fractional part ("82.0") is accepted, anything else is rejected.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrInvalidAmount)
	}

	// Use decimal arithmetic so large amounts are not rounded through float64
	amountDecimal, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, s, err)
	}

	if amountDecimal.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, s)
	}
	if amountDecimal.IsZero() {
		return 0, nil
	}

	// Bound the magnitude before anything rescales the coefficient by 10^exp
	if exp := int(amountDecimal.Exponent()); exp > 0 && amountDecimal.NumDigits()+exp > maxAmountDigits {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}

	if !amountDecimal.IsInteger() {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidAmount, s)
	}

	amountInt := amountDecimal.BigInt()
	if !amountInt.IsUint64() {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidAmount, s)
	}

	return amountInt.Uint64(), nil
}

// FormatAmount renders an amount the way ParseAmount reads it
func FormatAmount(amount uint64) string {
	return strconv.FormatUint(amount, 10)
}
