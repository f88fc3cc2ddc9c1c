package lifecycle

import "errors"

var (
	// ErrAlreadyPending rejects a second withdrawal while one is active.
	ErrAlreadyPending = errors.New("withdrawal request already pending")
	// ErrNotYetUnlocked rejects a claim before the lock expires.
	ErrNotYetUnlocked = errors.New("withdrawal not yet unlocked")
	// ErrNoActiveRequest rejects claim/cancel with nothing pending.
	ErrNoActiveRequest = errors.New("no active withdrawal request")
	// ErrBelowMinimum rejects requests under the vault minimum.
	ErrBelowMinimum = errors.New("amount below vault withdrawal minimum")
	// ErrSettlement wraps an external settlement failure. Local state is
	// unchanged and the operation is safe to retry.
	ErrSettlement = errors.New("settlement failed")
	// ErrNoConfig means no valid vault config snapshot has been ingested.
	ErrNoConfig = errors.New("no vault config snapshot available")
)
