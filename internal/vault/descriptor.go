package vault

import (
	"github.com/xssnick/tonutils-go/address"

	"github.com/stratafi/vault-engine/internal/token"
)

// LpDescriptor is the static metadata of an LP/token pair, loaded once
// from configuration.
type LpDescriptor struct {
	VaultID string

	LpCoinType    string
	LpSymbol      string
	LpDecimals    int32
	TokenCoinType string
	TokenSymbol   string
	TokenDecimals int32

	// on-chain addressing
	VaultAddress       string
	VaultConfigAddress string
}

func (d LpDescriptor) Validate() error {
	if d.VaultID == "" {
		return ErrConfigOutOfRange
	}
	if d.LpDecimals < 0 || d.LpDecimals > token.MaxDecimals {
		return ErrConfigOutOfRange
	}
	if d.TokenDecimals < 0 || d.TokenDecimals > token.MaxDecimals {
		return ErrConfigOutOfRange
	}
	if _, err := address.ParseAddr(d.VaultAddress); err != nil {
		return ErrConfigOutOfRange
	}
	if _, err := address.ParseAddr(d.VaultConfigAddress); err != nil {
		return ErrConfigOutOfRange
	}
	return nil
}
