package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
	"github.com/xssnick/tonutils-go/ton/wallet"
	"github.com/xssnick/tonutils-go/tvm/cell"

	"github.com/stratafi/vault-engine/internal/lifecycle"
	"github.com/stratafi/vault-engine/internal/structures"
	"github.com/stratafi/vault-engine/internal/vault"
)

// attachedTON covers gas and forwarding for vault messages; the rest
// bounces back to the wallet.
const attachedTON = "0.05"

// WalletSettlement executes withdraw/claim messages against the vault
// contract from a client-held wallet. It implements
// lifecycle.Settlement; every failure is returned as-is and the caller
// treats it as retryable.
type WalletSettlement struct {
	w         *wallet.Wallet
	vaultAddr *address.Address
}

func NewWalletSettlement(c *Client, seed []string, lp vault.LpDescriptor) (*WalletSettlement, error) {
	vaultAddr, err := address.ParseAddr(lp.VaultAddress)
	if err != nil {
		return nil, fmt.Errorf("bad vault address: %w", err)
	}

	w, err := wallet.FromSeed(c.api, seed, wallet.V4R2)
	if err != nil {
		return nil, fmt.Errorf("wallet from seed: %w", err)
	}

	return &WalletSettlement{w: w, vaultAddr: vaultAddr}, nil
}

func (s *WalletSettlement) ExecuteWithdraw(ctx context.Context, lpBaseAmount decimal.Decimal) (*lifecycle.Receipt, error) {
	body, err := tlb.ToCell(structures.VaultWithdrawRequest{
		QueryID:  uint64(time.Now().UnixNano()),
		LpAmount: tlb.FromNanoTON(lpBaseAmount.BigInt()),
	})
	if err != nil {
		return nil, fmt.Errorf("build withdraw body: %w", err)
	}

	return s.send(ctx, body)
}

func (s *WalletSettlement) ExecuteClaim(ctx context.Context, requestID string) (*lifecycle.Receipt, error) {
	key := sha256.Sum256([]byte(requestID))
	body, err := tlb.ToCell(structures.VaultClaim{
		QueryID:    uint64(time.Now().UnixNano()),
		RequestKey: key[:],
	})
	if err != nil {
		return nil, fmt.Errorf("build claim body: %w", err)
	}

	return s.send(ctx, body)
}

func (s *WalletSettlement) send(ctx context.Context, body *cell.Cell) (*lifecycle.Receipt, error) {
	msg := wallet.SimpleMessage(s.vaultAddr, tlb.MustFromTON(attachedTON), body)

	tx, _, err := s.w.SendWaitTransaction(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("send vault message: %w", err)
	}

	return &lifecycle.Receipt{TxHash: hex.EncodeToString(tx.Hash)}, nil
}
