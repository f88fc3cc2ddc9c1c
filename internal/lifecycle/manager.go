package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/stratafi/vault-engine/internal/storage"
	"github.com/stratafi/vault-engine/internal/token"
	"github.com/stratafi/vault-engine/internal/vault"
)

// Clock is the injected wall-clock capability. Status derivation reads
// time on demand, never via scheduled callbacks.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Receipt acknowledges an executed settlement.
type Receipt struct {
	TxHash string
}

// Settlement is the external ledger collaborator. Any non-success is
// retryable and must leave stored state untouched.
type Settlement interface {
	ExecuteWithdraw(ctx context.Context, lpBaseAmount decimal.Decimal) (*Receipt, error)
	ExecuteClaim(ctx context.Context, requestID string) (*Receipt, error)
}

// ConfigProvider hands out the current immutable config snapshot.
type ConfigProvider interface {
	Current() (vault.Config, error)
}

// StaticConfig is a fixed-snapshot provider, used in tests and for
// vaults configured entirely from the environment.
type StaticConfig struct {
	Cfg vault.Config
}

func (s StaticConfig) Current() (vault.Config, error) { return s.Cfg, nil }

// ClaimResult reports an acknowledged claim.
type ClaimResult struct {
	Request *storage.WithdrawalRequest
	TxHash  string
}

// Manager orchestrates the withdrawal lifecycle per (account, vault).
// It is the only mutating component; everything it depends on is
// injected.
type Manager struct {
	store  storage.Store
	clock  Clock
	settle Settlement
	cfg    ConfigProvider
	lp     vault.LpDescriptor

	// serializes mutating operations within this process; the store's
	// CreateActive re-checks under its own critical section as well.
	mu sync.Mutex
}

func NewManager(store storage.Store, clock Clock, settle Settlement, cfg ConfigProvider, lp vault.LpDescriptor) *Manager {
	return &Manager{
		store:  store,
		clock:  clock,
		settle: settle,
		cfg:    cfg,
		lp:     lp,
	}
}

// Estimate projects the outcome of withdrawing lpAmount under the
// current config snapshot. Recomputed on every call.
func (m *Manager) Estimate(lpAmount decimal.Decimal) (vault.EstimationResult, error) {
	cfg, err := m.cfg.Current()
	if err != nil {
		return vault.EstimationResult{}, err
	}
	return vault.Estimate(lpAmount, cfg, m.lp)
}

// RequestWithdrawal creates the single active request for the key. The
// lock term is captured now and never recomputed from a later config.
func (m *Manager) RequestWithdrawal(ctx context.Context, account, vaultID string, lpAmount decimal.Decimal) (*storage.WithdrawalRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.cfg.Current()
	if err != nil {
		return nil, err
	}

	if !lpAmount.IsPositive() {
		return nil, token.ErrInvalidAmount
	}
	base, err := token.ToBaseUnits(lpAmount, m.lp.LpDecimals)
	if err != nil {
		return nil, err
	}
	if base.LessThan(cfg.WithdrawMin) {
		return nil, ErrBelowMinimum
	}

	existing, err := m.store.FindActive(ctx, account, vaultID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyPending
	}

	est, err := vault.Estimate(lpAmount, cfg, m.lp)
	if err != nil {
		return nil, err
	}

	receipt, err := m.settle.ExecuteWithdraw(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSettlement, err)
	}

	now := m.clock.Now()
	req := &storage.WithdrawalRequest{
		ID:        uuid.NewString(),
		Account:   account,
		VaultID:   vaultID,
		LpAmount:  lpAmount,
		CreatedAt: now,
		UnlockAt:  now.Add(cfg.LockDuration),
		Status:    storage.StatusPending,
	}
	if err := m.store.CreateActive(ctx, req); err != nil {
		if errors.Is(err, storage.ErrActiveExists) {
			return nil, ErrAlreadyPending
		}
		return nil, err
	}

	logrus.Infof("[LCM] withdrawal requested: account=%s vault=%s lp=%s receive=%s fee=%s unlock=%s tx=%s",
		account, vaultID, lpAmount, est.ReceiveAmount, est.FeeAmount,
		req.UnlockAt.Format(time.RFC3339), receipt.TxHash)

	return req, nil
}

// QueryStatus loads the active request with its effective status. A
// stored pending record past its unlock time reads as unlockable; the
// persisted row is only rewritten by the next mutating call.
func (m *Manager) QueryStatus(ctx context.Context, account, vaultID string) (*storage.WithdrawalRequest, error) {
	req, err := m.store.FindActive(ctx, account, vaultID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, nil
	}

	derived := *req
	derived.Status = deriveStatus(req.Status, req.UnlockAt, m.clock.Now())

	return &derived, nil
}

// Claim settles an unlocked request. Only a success acknowledgment from
// the settlement collaborator transitions the record to claimed and
// frees the slot; on failure the record stays unlockable and the call
// is retryable.
func (m *Manager) Claim(ctx context.Context, account, vaultID string) (*ClaimResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, err := m.store.FindActive(ctx, account, vaultID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNoActiveRequest
	}

	now := m.clock.Now()
	if deriveStatus(req.Status, req.UnlockAt, now) == storage.StatusPending {
		return nil, ErrNotYetUnlocked
	}

	// lazy status write deferred from earlier reads
	if req.Status == storage.StatusPending {
		req.Status = storage.StatusUnlockable
		if err := m.store.Put(ctx, req); err != nil {
			return nil, err
		}
	}

	receipt, err := m.settle.ExecuteClaim(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSettlement, err)
	}

	req.Status = storage.StatusClaimed
	if err := m.store.Remove(ctx, req.ID); err != nil {
		return nil, err
	}

	logrus.Infof("[LCM] withdrawal claimed: account=%s vault=%s lp=%s tx=%s",
		account, vaultID, req.LpAmount, receipt.TxHash)

	return &ClaimResult{Request: req, TxHash: receipt.TxHash}, nil
}

// Cancel discards the active request before settlement has been
// acknowledged. Claimed requests are gone from the store and cannot be
// cancelled.
func (m *Manager) Cancel(ctx context.Context, account, vaultID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, err := m.store.FindActive(ctx, account, vaultID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrNoActiveRequest
	}

	if err := m.store.Remove(ctx, req.ID); err != nil {
		return err
	}

	logrus.Infof("[LCM] withdrawal cancelled: account=%s vault=%s lp=%s", account, vaultID, req.LpAmount)

	return nil
}

// deriveStatus is a pure function of the stored status, the fixed
// unlock time, and the current instant, so concurrent readers always
// observe a status consistent with wall-clock time.
func deriveStatus(stored storage.RequestStatus, unlockAt, now time.Time) storage.RequestStatus {
	if stored == storage.StatusPending && !now.Before(unlockAt) {
		return storage.StatusUnlockable
	}
	return stored
}
