package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/engine"
	"github.com/prabhuzz00/ColorWavePrediction/internal/middleware"
	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
	"github.com/prabhuzz00/ColorWavePrediction/internal/repo"
)

type FundingHandler struct {
	funding *repo.FundingRepo
	ledger  engine.Ledger
	log     zerolog.Logger
}

func NewFundingHandler(funding *repo.FundingRepo, ledger engine.Ledger, log zerolog.Logger) *FundingHandler {
	return &FundingHandler{funding: funding, ledger: ledger, log: log}
}

type rechargeRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	UPI    string  `json:"upi" binding:"required"`
	UTR    string  `json:"utr" binding:"required"`
}

// CreateRecharge records a pending recharge request. No balance change
// happens until an admin approves it.
func (h *FundingHandler) CreateRecharge(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Unauthorized"})
		return
	}

	var req rechargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid data"})
		return
	}

	rec := &models.Recharge{
		Username: user.Username,
		Amount:   decimal.NewFromFloat(req.Amount),
		UPI:      req.UPI,
		UTR:      req.UTR,
	}
	if err := h.funding.CreateRecharge(c.Request.Context(), rec); err != nil {
		h.log.Error().Err(err).Str("user", user.Username).Msg("create recharge failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Recharge failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":    false,
		"message":  "Recharge request submitted",
		"recharge": rec,
	})
}

func (h *FundingHandler) RechargeHistory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok || user.Username != c.Param("username") {
		c.JSON(http.StatusForbidden, gin.H{"error": true, "message": "Forbidden"})
		return
	}

	recs, err := h.funding.RechargesByUser(c.Request.Context(), user.Username, queryLimit(c, 50))
	if err != nil {
		h.log.Error().Err(err).Msg("load recharge history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to get recharge history"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

type withdrawRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	AccountNumber string  `json:"accountNumber" binding:"required"`
	IFSCCode      string  `json:"ifscCode" binding:"required"`
	AccountHolder string  `json:"accountHolder" binding:"required"`
}

// CreateWithdrawal debits the requested amount up front and records the
// pending request; an admin marking it rejected does not auto-credit.
func (h *FundingHandler) CreateWithdrawal(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Unauthorized"})
		return
	}

	var req withdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid data"})
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	if err := h.ledger.Debit(c.Request.Context(), user.Username, amount, "Withdrawal request"); err != nil {
		if errors.Is(err, engine.ErrInsufficientFunds) {
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Insufficient balance"})
			return
		}
		h.log.Error().Err(err).Str("user", user.Username).Msg("withdrawal debit failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Withdrawal failed"})
		return
	}

	w := &models.Withdrawal{
		Username:      user.Username,
		Amount:        amount,
		AccountNumber: req.AccountNumber,
		IFSCCode:      req.IFSCCode,
		AccountHolder: req.AccountHolder,
	}
	if err := h.funding.CreateWithdrawal(c.Request.Context(), w); err != nil {
		// the stake is already out of the balance; put it back
		if refundErr := h.ledger.Credit(c.Request.Context(), user.Username, amount,
			fmt.Sprintf("Withdrawal refund - %s", req.AccountNumber)); refundErr != nil {
			h.log.Error().Err(refundErr).Str("user", user.Username).Msg("withdrawal refund failed")
		}
		h.log.Error().Err(err).Str("user", user.Username).Msg("create withdrawal failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Withdrawal failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":      false,
		"message":    "Withdrawal request submitted",
		"withdrawal": w,
	})
}

func (h *FundingHandler) WithdrawalHistory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok || user.Username != c.Param("username") {
		c.JSON(http.StatusForbidden, gin.H{"error": true, "message": "Forbidden"})
		return
	}

	ws, err := h.funding.WithdrawalsByUser(c.Request.Context(), user.Username, queryLimit(c, 50))
	if err != nil {
		h.log.Error().Err(err).Msg("load withdrawal history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to get withdrawal history"})
		return
	}
	c.JSON(http.StatusOK, ws)
}
