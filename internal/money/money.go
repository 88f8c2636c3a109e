// Package money holds currency amounts as integer minor units.
//
// Prices enter the system as display strings such as "1,020.50$". Parse strips the
// currency marker and thousands separators once; everything downstream works on
// Amount and only String renders the display form again.
package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Marker is appended to every rendered amount.
const Marker = "$"

var ErrMalformedPrice = errors.New("malformed price")

var maxCents = decimal.NewFromInt(math.MaxInt64)

// Amount is a currency value in cents.
type Amount int64

// Parse converts a display price into an Amount.
func Parse(s string) (Amount, error) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, Marker)
	cleaned = strings.TrimPrefix(cleaned, Marker)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	if cleaned == "" {
		return 0, fmt.Errorf("%w: %q", ErrMalformedPrice, s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrMalformedPrice, s)
	}

	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %q is negative", ErrMalformedPrice, s)
	}

	cents := d.Shift(2)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("%w: %q has more than two decimal places", ErrMalformedPrice, s)
	}

	if cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %q is out of range", ErrMalformedPrice, s)
	}

	return Amount(cents.IntPart()), nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Mul returns the amount multiplied by a quantity. The product must fit in int64
// cents; catalog prices and cart quantities stay far below that.
func (a Amount) Mul(quantity int) Amount {
	return a * Amount(quantity)
}

// Decimal returns the amount in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -2)
}

// String renders the amount as "55.00$".
func (a Amount) String() string {
	return a.Decimal().StringFixed(2) + Marker
}

// MarshalText renders amounts in JSON payloads the same way they are displayed.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText accepts the display form.
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Sum adds amounts together.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, a := range amounts {
		total += a
	}
	return total
}
