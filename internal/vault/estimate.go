package vault

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/stratafi/vault-engine/internal/token"
)

// EstimationResult is the projected economic outcome of a withdrawal,
// all fields in display precision. Derived, never persisted.
type EstimationResult struct {
	RequestedAmount decimal.Decimal
	ReceiveAmount   decimal.Decimal
	FeeAmount       decimal.Decimal
	// EffectiveFeeBps is surfaced separately from the config input so a
	// tiered schedule can diverge from the flat rate without changing
	// the result shape.
	EffectiveFeeBps int64
}

func zeroEstimation() EstimationResult {
	return EstimationResult{
		RequestedAmount: decimal.Zero,
		ReceiveAmount:   decimal.Zero,
		FeeAmount:       decimal.Zero,
	}
}

// Estimate projects the receivable and fee for withdrawing lpAmount
// (display precision) against a config snapshot.
//
// The whole pipeline runs on widened integers with truncating division,
// so receive + fee can never exceed gross and no step touches binary
// floating point. A non-positive lpAmount models an unset UI input and
// yields the zero result rather than an error.
func Estimate(lpAmount decimal.Decimal, cfg Config, lp LpDescriptor) (EstimationResult, error) {
	if !lpAmount.IsPositive() {
		return zeroEstimation(), nil
	}

	base, err := token.ToBaseUnits(lpAmount, lp.LpDecimals)
	if err != nil {
		return zeroEstimation(), err
	}

	gross := new(big.Int).Mul(base.BigInt(), big.NewInt(cfg.Rate))
	gross.Quo(gross, big.NewInt(RateDenominator))

	fee := new(big.Int).Mul(gross, big.NewInt(cfg.WithdrawFeeBps))
	fee.Quo(fee, big.NewInt(MaxFeeBps))

	receive := new(big.Int).Sub(gross, fee)

	return EstimationResult{
		RequestedAmount: lpAmount,
		ReceiveAmount:   token.ToDisplayUnits(decimal.NewFromBigInt(receive, 0), lp.TokenDecimals),
		FeeAmount:       token.ToDisplayUnits(decimal.NewFromBigInt(fee, 0), lp.TokenDecimals),
		EffectiveFeeBps: cfg.WithdrawFeeBps,
	}, nil
}
