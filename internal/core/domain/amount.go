package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// weiPerEther is 10^18.
var weiPerEther = decimal.New(1, 18)

// ErrMalformedAmount is returned for values that are not non-negative integers of wei.
var ErrMalformedAmount = errors.New("malformed amount")

// ParseWei parses an integer amount of wei. Negative and fractional values are
// rejected; zero is allowed here and rejected by the operations that require a
// positive value.
func ParseWei(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrMalformedAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrMalformedAmount
	}
	if d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return decimal.Zero, ErrMalformedAmount
	}
	return d, nil
}

// ParseEther converts an ether-denominated decimal string ("0.005") to wei.
// More than 18 fractional digits cannot be represented and are rejected.
func ParseEther(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero, ErrMalformedAmount
	}
	wei := d.Mul(weiPerEther)
	if !wei.Equal(wei.Truncate(0)) {
		return decimal.Zero, ErrMalformedAmount
	}
	return wei, nil
}

// MustEther is ParseEther for constants and tests.
func MustEther(s string) decimal.Decimal {
	d, err := ParseEther(s)
	if err != nil {
		panic(err)
	}
	return d
}
