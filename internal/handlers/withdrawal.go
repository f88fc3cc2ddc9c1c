package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/stratafi/vault-engine/internal/lifecycle"
	"github.com/stratafi/vault-engine/internal/metrics"
	"github.com/stratafi/vault-engine/internal/storage"
	"github.com/stratafi/vault-engine/internal/token"
	"github.com/stratafi/vault-engine/internal/vault"
)

// WithdrawalHandler translates HTTP calls from the UI shell into core
// operations. All economics and lifecycle rules live below it.
type WithdrawalHandler struct {
	manager *lifecycle.Manager
	lp      vault.LpDescriptor
}

func NewWithdrawalHandler(manager *lifecycle.Manager, lp vault.LpDescriptor) *WithdrawalHandler {
	return &WithdrawalHandler{manager: manager, lp: lp}
}

func NewRouter(h *WithdrawalHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	v1.POST("/estimate", h.Estimate)
	v1.POST("/withdrawals", h.Request)
	v1.GET("/withdrawals/:account", h.Status)
	v1.POST("/withdrawals/:account/claim", h.Claim)
	v1.DELETE("/withdrawals/:account", h.Cancel)

	return r
}

type estimateRequest struct {
	Amount string `json:"amount" binding:"required"`
}

type estimateResponse struct {
	RequestedAmount string `json:"requested_amount"`
	ReceiveAmount   string `json:"receive_amount"`
	FeeAmount       string `json:"fee_amount"`
	EffectiveFeeBps int64  `json:"effective_fee_bps"`
	LpSymbol        string `json:"lp_symbol"`
	TokenSymbol     string `json:"token_symbol"`
}

type withdrawRequest struct {
	Account string `json:"account" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

type withdrawalResponse struct {
	ID        string `json:"id"`
	Account   string `json:"account"`
	VaultID   string `json:"vault_id"`
	LpAmount  string `json:"lp_amount"`
	CreatedAt int64  `json:"created_at_ms"`
	UnlockAt  int64  `json:"unlock_at_ms"`
	Status    string `json:"status"`
}

func toWithdrawalResponse(req *storage.WithdrawalRequest) withdrawalResponse {
	return withdrawalResponse{
		ID:        req.ID,
		Account:   req.Account,
		VaultID:   req.VaultID,
		LpAmount:  req.LpAmount.String(),
		CreatedAt: req.CreatedAt.UnixMilli(),
		UnlockAt:  req.UnlockAt.UnixMilli(),
		Status:    string(req.Status),
	}
}

// POST /api/v1/estimate
func (h *WithdrawalHandler) Estimate(c *gin.Context) {
	var body estimateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_amount"})
		return
	}

	amount, err := token.ParseAmount(body.Amount)
	if err != nil {
		abortWithError(c, err)
		return
	}

	est, err := h.manager.Estimate(amount)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, estimateResponse{
		RequestedAmount: est.RequestedAmount.String(),
		ReceiveAmount:   est.ReceiveAmount.String(),
		FeeAmount:       est.FeeAmount.String(),
		EffectiveFeeBps: est.EffectiveFeeBps,
		LpSymbol:        h.lp.LpSymbol,
		TokenSymbol:     h.lp.TokenSymbol,
	})
}

// POST /api/v1/withdrawals
func (h *WithdrawalHandler) Request(c *gin.Context) {
	var body withdrawRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "code": "invalid_amount"})
		return
	}

	amount, err := token.ParseAmount(body.Amount)
	if err != nil {
		metrics.WithdrawRequestsTotal.WithLabelValues("rejected").Inc()
		abortWithError(c, err)
		return
	}

	req, err := h.manager.RequestWithdrawal(c.Request.Context(), body.Account, h.lp.VaultID, amount)
	if err != nil {
		metrics.WithdrawRequestsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		abortWithError(c, err)
		return
	}

	metrics.WithdrawRequestsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusCreated, toWithdrawalResponse(req))
}

// GET /api/v1/withdrawals/:account
func (h *WithdrawalHandler) Status(c *gin.Context) {
	req, err := h.manager.QueryStatus(c.Request.Context(), c.Param("account"), h.lp.VaultID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if req == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active withdrawal request", "code": "no_active_request"})
		return
	}

	resp := toWithdrawalResponse(req)
	c.JSON(http.StatusOK, gin.H{
		"request":   resp,
		"claimable": req.Status == storage.StatusUnlockable,
	})
}

// POST /api/v1/withdrawals/:account/claim
func (h *WithdrawalHandler) Claim(c *gin.Context) {
	res, err := h.manager.Claim(c.Request.Context(), c.Param("account"), h.lp.VaultID)
	if err != nil {
		metrics.ClaimsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		abortWithError(c, err)
		return
	}

	metrics.ClaimsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"request": toWithdrawalResponse(res.Request),
		"tx_hash": res.TxHash,
	})
}

// DELETE /api/v1/withdrawals/:account
func (h *WithdrawalHandler) Cancel(c *gin.Context) {
	if err := h.manager.Cancel(c.Request.Context(), c.Param("account"), h.lp.VaultID); err != nil {
		metrics.CancelsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		abortWithError(c, err)
		return
	}

	metrics.CancelsTotal.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

// abortWithError maps core sentinels to distinct codes so the UI can
// tell "retry now" (settlement_failed) from "action not currently
// valid" (already_pending, not_yet_unlocked) from "input invalid".
func abortWithError(c *gin.Context, err error) {
	var status int
	var code string

	switch {
	case errors.Is(err, token.ErrInvalidAmount):
		status, code = http.StatusBadRequest, "invalid_amount"
	case errors.Is(err, lifecycle.ErrBelowMinimum):
		status, code = http.StatusBadRequest, "below_minimum"
	case errors.Is(err, lifecycle.ErrAlreadyPending):
		status, code = http.StatusConflict, "already_pending"
	case errors.Is(err, lifecycle.ErrNotYetUnlocked):
		status, code = http.StatusConflict, "not_yet_unlocked"
	case errors.Is(err, lifecycle.ErrNoActiveRequest):
		status, code = http.StatusNotFound, "no_active_request"
	case errors.Is(err, lifecycle.ErrSettlement):
		status, code = http.StatusBadGateway, "settlement_failed"
	case errors.Is(err, lifecycle.ErrNoConfig):
		status, code = http.StatusServiceUnavailable, "no_config"
	default:
		logrus.Errorf("[API] internal error: %s", err)
		status, code = http.StatusInternalServerError, "internal"
	}

	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}

func outcomeLabel(err error) string {
	if errors.Is(err, lifecycle.ErrSettlement) {
		return "settlement_failed"
	}
	return "rejected"
}
