package vault

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// RateDenominator is the fixed denominator of Config.Rate.
	RateDenominator = 1_000_000
	// MaxFeeBps caps the withdrawal fee at 100%.
	MaxFeeBps = 10_000
)

var ErrConfigOutOfRange = errors.New("vault config out of range")

// Config is an immutable economic snapshot of a vault. Snapshots are
// replaced wholesale on refresh, never mutated in place.
type Config struct {
	// Rate is the LP-to-token exchange rate numerator over RateDenominator.
	Rate int64
	// WithdrawFeeBps is the withdrawal fee in basis points.
	WithdrawFeeBps int64
	// WithdrawMin is the minimum accepted withdrawal in base units.
	WithdrawMin decimal.Decimal
	// LockDuration is the delay between request and claim eligibility,
	// captured per request at creation time.
	LockDuration time.Duration
}

// Validate is the single ingest gate for new snapshots. A snapshot that
// fails here is discarded and the prior one kept.
func (c Config) Validate() error {
	if c.Rate <= 0 {
		return ErrConfigOutOfRange
	}
	if c.WithdrawFeeBps < 0 || c.WithdrawFeeBps > MaxFeeBps {
		return ErrConfigOutOfRange
	}
	if c.WithdrawMin.IsNegative() {
		return ErrConfigOutOfRange
	}
	if c.LockDuration < 0 {
		return ErrConfigOutOfRange
	}
	return nil
}
