package token

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// MaxDecimals is the largest decimal exponent conversions are guaranteed
// exact for.
const MaxDecimals = 18

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is an immutable token amount held in base units together with
// the token's decimal exponent.
type Amount struct {
	base     decimal.Decimal
	decimals int32
}

// NewAmount builds an Amount from a display-precision value. Fractional
// base units are truncated.
func NewAmount(display decimal.Decimal, decimals int32) (Amount, error) {
	base, err := ToBaseUnits(display, decimals)
	if err != nil {
		return Amount{}, err
	}
	return Amount{base: base, decimals: decimals}, nil
}

// NewAmountFromBase builds an Amount directly from base units.
func NewAmountFromBase(base *big.Int, decimals int32) (Amount, error) {
	if base == nil || base.Sign() < 0 || decimals < 0 || decimals > MaxDecimals {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{base: decimal.NewFromBigInt(base, 0), decimals: decimals}, nil
}

func (a Amount) Base() decimal.Decimal { return a.base }

func (a Amount) BaseInt() *big.Int { return a.base.BigInt() }

func (a Amount) Decimals() int32 { return a.decimals }

func (a Amount) Display() decimal.Decimal { return ToDisplayUnits(a.base, a.decimals) }

func (a Amount) IsZero() bool { return a.base.IsZero() }

// ToBaseUnits converts a display-precision value to base units by an
// exact decimal shift, truncating any sub-base-unit fraction. Binary
// floating point is never involved.
func ToBaseUnits(display decimal.Decimal, decimals int32) (decimal.Decimal, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return decimal.Zero, ErrInvalidAmount
	}
	if display.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return display.Shift(decimals).Truncate(0), nil
}

// ToDisplayUnits is the inverse shift. Exact for any base amount, since
// the shift only moves the decimal exponent.
func ToDisplayUnits(base decimal.Decimal, decimals int32) decimal.Decimal {
	return base.Shift(-decimals)
}

// ParseAmount parses a user-supplied decimal string. Malformed or
// negative input is ErrInvalidAmount.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}
