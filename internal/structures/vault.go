package structures

import (
	"github.com/xssnick/tonutils-go/tlb"
)

// Messages accepted by the vault contract. Op-codes follow the vault's
// on-chain ABI.
type (
	// VaultWithdrawRequest burns LP and opens the time-locked pending
	// withdrawal slot for the sender.
	VaultWithdrawRequest struct {
		_        tlb.Magic `tlb:"#5ae72f1c"`
		QueryID  uint64    `tlb:"## 64"`
		LpAmount tlb.Coins `tlb:"."`
	}

	// VaultClaim releases an unlocked withdrawal identified by the
	// request key (sha-256 of the client request id).
	VaultClaim struct {
		_          tlb.Magic `tlb:"#9d3e6b0a"`
		QueryID    uint64    `tlb:"## 64"`
		RequestKey []byte    `tlb:"bits 256"`
	}
)
