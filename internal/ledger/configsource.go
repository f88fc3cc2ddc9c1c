package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"

	"github.com/stratafi/vault-engine/internal/vault"
)

const vaultConfigMethod = "get_vault_config"

// FetchVaultConfig reads the vault's economic parameters from the
// config contract's get-method: (rate, withdraw_fee_bps, withdraw_min,
// lock_duration_seconds). The snapshot still has to pass Validate
// before it replaces the current one.
func (c *Client) FetchVaultConfig(ctx context.Context, lp vault.LpDescriptor) (vault.Config, error) {
	addr, err := address.ParseAddr(lp.VaultConfigAddress)
	if err != nil {
		return vault.Config{}, fmt.Errorf("bad vault config address: %w", err)
	}

	block, err := c.api.GetMasterchainInfo(ctx)
	if err != nil {
		return vault.Config{}, fmt.Errorf("masterchain info: %w", err)
	}

	res, err := c.api.RunGetMethod(ctx, block, addr, vaultConfigMethod)
	if err != nil {
		return vault.Config{}, fmt.Errorf("run %s: %w", vaultConfigMethod, err)
	}

	rate, err := res.Int(0)
	if err != nil {
		return vault.Config{}, fmt.Errorf("rate: %w", err)
	}
	feeBps, err := res.Int(1)
	if err != nil {
		return vault.Config{}, fmt.Errorf("withdraw_fee_bps: %w", err)
	}
	min, err := res.Int(2)
	if err != nil {
		return vault.Config{}, fmt.Errorf("withdraw_min: %w", err)
	}
	lockSec, err := res.Int(3)
	if err != nil {
		return vault.Config{}, fmt.Errorf("lock_duration: %w", err)
	}

	return vault.Config{
		Rate:           rate.Int64(),
		WithdrawFeeBps: feeBps.Int64(),
		WithdrawMin:    decimal.NewFromBigInt(min, 0),
		LockDuration:   time.Duration(lockSec.Int64()) * time.Second,
	}, nil
}
