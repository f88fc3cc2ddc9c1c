package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// SchemaVersion tags persisted rows so a future layout migration can be
// validated instead of misparsed.
const SchemaVersion = 1

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusUnlockable RequestStatus = "unlockable"
	StatusClaimed    RequestStatus = "claimed"
	StatusCancelled  RequestStatus = "cancelled"
)

// Active reports whether the status still occupies the single active
// slot per (account, vault).
func (s RequestStatus) Active() bool {
	return s == StatusPending || s == StatusUnlockable
}

// ErrActiveExists is returned by CreateActive when the (account, vault)
// slot is already taken.
var ErrActiveExists = errors.New("active withdrawal request exists")

// WithdrawalRequest is the unit of lifecycle state. UnlockAt is fixed at
// creation time and never recomputed from a later config snapshot.
type WithdrawalRequest struct {
	ID       string
	Account  string
	VaultID  string
	LpAmount decimal.Decimal // display precision

	CreatedAt time.Time
	UnlockAt  time.Time
	Status    RequestStatus
}

// Store is durable persistence for withdrawal requests. At most one
// active record per (account, vault) is the lifecycle manager's
// invariant; CreateActive re-checks it inside the store, and the
// postgres store additionally relies on a partial unique index over
// active statuses so concurrent creates from separate processes cannot
// both land.
type Store interface {
	// CreateActive persists a new record, failing with ErrActiveExists
	// when an active one is already present for the same key.
	CreateActive(ctx context.Context, req *WithdrawalRequest) error
	// Put upserts a record by ID.
	Put(ctx context.Context, req *WithdrawalRequest) error
	// FindActive returns the pending/unlockable record for the key, or
	// nil when there is none. Unreadable rows degrade to nil.
	FindActive(ctx context.Context, account, vaultID string) (*WithdrawalRequest, error)
	// Remove deletes a record after an acknowledged terminal transition.
	Remove(ctx context.Context, id string) error
}
