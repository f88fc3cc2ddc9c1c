package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stratafi/vault-engine/internal/storage"
	"github.com/stratafi/vault-engine/internal/token"
	"github.com/stratafi/vault-engine/internal/vault"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

type fakeSettlement struct {
	withdrawCalls int
	claimCalls    int
	failWithdraw  error
	failClaim     error
}

func (s *fakeSettlement) ExecuteWithdraw(_ context.Context, _ decimal.Decimal) (*Receipt, error) {
	s.withdrawCalls++
	if s.failWithdraw != nil {
		return nil, s.failWithdraw
	}
	return &Receipt{TxHash: "withdraw-tx"}, nil
}

func (s *fakeSettlement) ExecuteClaim(_ context.Context, _ string) (*Receipt, error) {
	s.claimCalls++
	if s.failClaim != nil {
		return nil, s.failClaim
	}
	return &Receipt{TxHash: "claim-tx"}, nil
}

const lockDuration = 24 * time.Hour

func newTestManager(t *testing.T) (*Manager, *fakeClock, *fakeSettlement, *storage.MemoryStore) {
	t.Helper()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	settle := &fakeSettlement{}
	store := storage.NewMemoryStore()
	cfg := StaticConfig{Cfg: vault.Config{
		Rate:           1_000_000,
		WithdrawFeeBps: 50,
		WithdrawMin:    decimal.RequireFromString("1000000000"), // 1 LP in base units
		LockDuration:   lockDuration,
	}}
	lp := vault.LpDescriptor{
		VaultID:       "sbuck",
		LpDecimals:    9,
		TokenDecimals: 9,
	}

	return NewManager(store, clock, settle, cfg, lp), clock, settle, store
}

func TestRequestWithdrawal(t *testing.T) {
	ctx := context.Background()
	m, clock, settle, _ := newTestManager(t)

	req, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)
	require.Equal(t, storage.StatusPending, req.Status)
	require.True(t, req.CreatedAt.Equal(clock.now))
	require.True(t, req.UnlockAt.Equal(clock.now.Add(lockDuration)))
	require.Equal(t, 1, settle.withdrawCalls)
}

func TestRequestWithdrawalSingleActive(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newTestManager(t)

	_, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)

	_, err = m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("50"))
	require.ErrorIs(t, err, ErrAlreadyPending)

	// independent account is unaffected
	_, err = m.RequestWithdrawal(ctx, "0:bob", "sbuck", decimal.RequireFromString("50"))
	require.NoError(t, err)
}

func TestRequestWithdrawalValidation(t *testing.T) {
	ctx := context.Background()
	m, _, settle, _ := newTestManager(t)

	_, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.Zero)
	require.ErrorIs(t, err, token.ErrInvalidAmount)

	_, err = m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("-5"))
	require.ErrorIs(t, err, token.ErrInvalidAmount)

	// below the 1 LP vault minimum
	_, err = m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("0.5"))
	require.ErrorIs(t, err, ErrBelowMinimum)

	// nothing reached the ledger
	require.Zero(t, settle.withdrawCalls)
}

func TestRequestWithdrawalSettlementFailure(t *testing.T) {
	ctx := context.Background()
	m, _, settle, store := newTestManager(t)
	settle.failWithdraw = errors.New("ledger unreachable")

	_, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.ErrorIs(t, err, ErrSettlement)

	// no record persisted, retry succeeds once the ledger recovers
	active, err := store.FindActive(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
	require.Nil(t, active)

	settle.failWithdraw = nil
	_, err = m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)
}

func TestQueryStatusMonotonicLock(t *testing.T) {
	ctx := context.Background()
	m, clock, _, _ := newTestManager(t)

	_, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)

	// one instant before unlock
	clock.advance(lockDuration - time.Millisecond)
	got, err := m.QueryStatus(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
	require.Equal(t, storage.StatusPending, got.Status)

	// exactly at unlock
	clock.advance(time.Millisecond)
	got, err = m.QueryStatus(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
	require.Equal(t, storage.StatusUnlockable, got.Status)

	// derivation is read-only: the stored record still says pending
	raw, err := m.store.FindActive(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
	require.Equal(t, storage.StatusPending, raw.Status)
}

func TestQueryStatusNoActive(t *testing.T) {
	m, _, _, _ := newTestManager(t)
	got, err := m.QueryStatus(context.Background(), "0:alice", "sbuck")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestClaimBeforeUnlock(t *testing.T) {
	ctx := context.Background()
	m, _, settle, store := newTestManager(t)

	req, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)

	_, err = m.Claim(ctx, "0:alice", "sbuck")
	require.ErrorIs(t, err, ErrNotYetUnlocked)
	require.Equal(t, 0, settle.claimCalls)

	// stored record unchanged
	raw, err := store.FindActive(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
	require.Equal(t, req.ID, raw.ID)
	require.Equal(t, storage.StatusPending, raw.Status)
}

func TestClaimAfterUnlock(t *testing.T) {
	ctx := context.Background()
	m, clock, settle, store := newTestManager(t)

	_, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)
	clock.advance(lockDuration)

	res, err := m.Claim(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
	require.Equal(t, storage.StatusClaimed, res.Request.Status)
	require.Equal(t, "claim-tx", res.TxHash)
	require.Equal(t, 1, settle.claimCalls)

	// slot is freed
	active, err := store.FindActive(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
	require.Nil(t, active)
}

func TestClaimIdempotentAfterSettled(t *testing.T) {
	ctx := context.Background()
	m, clock, settle, _ := newTestManager(t)

	_, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)
	clock.advance(lockDuration)

	_, err = m.Claim(ctx, "0:alice", "sbuck")
	require.NoError(t, err)

	// repeated claims surface ErrNoActiveRequest, never a second settlement
	for i := 0; i < 2; i++ {
		_, err = m.Claim(ctx, "0:alice", "sbuck")
		require.ErrorIs(t, err, ErrNoActiveRequest)
	}
	require.Equal(t, 1, settle.claimCalls)
}

func TestClaimSettlementFailureRetryable(t *testing.T) {
	ctx := context.Background()
	m, clock, settle, store := newTestManager(t)

	_, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)
	clock.advance(lockDuration)

	settle.failClaim = errors.New("ledger unreachable")
	_, err = m.Claim(ctx, "0:alice", "sbuck")
	require.ErrorIs(t, err, ErrSettlement)

	// record stays claimable, now with the lazily persisted status
	raw, err := store.FindActive(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
	require.Equal(t, storage.StatusUnlockable, raw.Status)

	settle.failClaim = nil
	_, err = m.Claim(ctx, "0:alice", "sbuck")
	require.NoError(t, err)
}

func TestCancel(t *testing.T) {
	ctx := context.Background()
	m, _, _, _ := newTestManager(t)

	require.ErrorIs(t, m.Cancel(ctx, "0:alice", "sbuck"), ErrNoActiveRequest)

	_, err := m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)
	require.NoError(t, m.Cancel(ctx, "0:alice", "sbuck"))

	// slot freed, a new request is accepted
	_, err = m.RequestWithdrawal(ctx, "0:alice", "sbuck", decimal.RequireFromString("100"))
	require.NoError(t, err)
}

func TestManagerEstimate(t *testing.T) {
	m, _, _, _ := newTestManager(t)

	est, err := m.Estimate(decimal.RequireFromString("100"))
	require.NoError(t, err)
	require.True(t, est.FeeAmount.Equal(decimal.RequireFromString("0.5")))
	require.True(t, est.ReceiveAmount.Equal(decimal.RequireFromString("99.5")))
	require.Equal(t, int64(50), est.EffectiveFeeBps)
}
