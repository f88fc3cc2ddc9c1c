package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stratafi/vault-engine/internal/lifecycle"
	"github.com/stratafi/vault-engine/internal/storage"
	"github.com/stratafi/vault-engine/internal/vault"
)

type stubClock struct{ now time.Time }

func (c *stubClock) Now() time.Time { return c.now }

type stubSettlement struct{}

func (stubSettlement) ExecuteWithdraw(context.Context, decimal.Decimal) (*lifecycle.Receipt, error) {
	return &lifecycle.Receipt{TxHash: "tx-w"}, nil
}

func (stubSettlement) ExecuteClaim(context.Context, string) (*lifecycle.Receipt, error) {
	return &lifecycle.Receipt{TxHash: "tx-c"}, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *stubClock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	clock := &stubClock{now: time.Unix(1_700_000_000, 0)}
	lp := vault.LpDescriptor{VaultID: "sbuck", LpSymbol: "sBUCK", TokenSymbol: "BUCK", LpDecimals: 9, TokenDecimals: 9}
	cfg := lifecycle.StaticConfig{Cfg: vault.Config{
		Rate:           1_000_000,
		WithdrawFeeBps: 50,
		WithdrawMin:    decimal.Zero,
		LockDuration:   24 * time.Hour,
	}}
	m := lifecycle.NewManager(storage.NewMemoryStore(), clock, stubSettlement{}, cfg, lp)

	return NewRouter(NewWithdrawalHandler(m, lp)), clock
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestEstimateEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/estimate", gin.H{"amount": "100"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp estimateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "0.5", resp.FeeAmount)
	require.Equal(t, "99.5", resp.ReceiveAmount)
	require.Equal(t, int64(50), resp.EffectiveFeeBps)

	w = doJSON(t, r, http.MethodPost, "/api/v1/estimate", gin.H{"amount": "bogus"})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdrawalFlowEndpoints(t *testing.T) {
	r, clock := newTestRouter(t)

	// create
	w := doJSON(t, r, http.MethodPost, "/api/v1/withdrawals", gin.H{"account": "0:alice", "amount": "100"})
	require.Equal(t, http.StatusCreated, w.Code)

	// duplicate is a conflict with a distinct code
	w = doJSON(t, r, http.MethodPost, "/api/v1/withdrawals", gin.H{"account": "0:alice", "amount": "5"})
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "already_pending")

	// claim too early
	w = doJSON(t, r, http.MethodPost, "/api/v1/withdrawals/0:alice/claim", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "not_yet_unlocked")

	// status flips at unlock
	clock.now = clock.now.Add(24 * time.Hour)
	w = doJSON(t, r, http.MethodGet, "/api/v1/withdrawals/0:alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"claimable":true`)

	// claim settles and frees the slot
	w = doJSON(t, r, http.MethodPost, "/api/v1/withdrawals/0:alice/claim", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "tx-c")

	w = doJSON(t, r, http.MethodGet, "/api/v1/withdrawals/0:alice", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodDelete, "/api/v1/withdrawals/0:alice", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "no_active_request")

	w = doJSON(t, r, http.MethodPost, "/api/v1/withdrawals", gin.H{"account": "0:alice", "amount": "100"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/v1/withdrawals/0:alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
