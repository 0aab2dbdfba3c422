package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/prabhuzz00/ColorWavePrediction/internal/engine"
	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
	"github.com/prabhuzz00/ColorWavePrediction/internal/repo"
)

type AdminHandler struct {
	clock   *engine.RoundClock
	funding *repo.FundingRepo
	ledger  engine.Ledger
	log     zerolog.Logger
}

func NewAdminHandler(clock *engine.RoundClock, funding *repo.FundingRepo, ledger engine.Ledger, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{clock: clock, funding: funding, ledger: ledger, log: log}
}

func (h *AdminHandler) ListRecharges(c *gin.Context) {
	recs, err := h.funding.AllRecharges(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("load recharges failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to fetch recharges"})
		return
	}
	c.JSON(http.StatusOK, recs)
}

type fundingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=approved rejected paid"`
}

// UpdateRecharge flips a pending recharge. Approval credits the ledger
// exactly once: the status transition is the idempotency guard.
func (h *AdminHandler) UpdateRecharge(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid id"})
		return
	}

	var req fundingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid status"})
		return
	}

	ctx := c.Request.Context()
	rec, err := h.funding.RechargeByID(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": true, "message": "Recharge not found"})
		return
	}

	changed, err := h.funding.UpdateRechargeStatus(ctx, id, models.FundingStatus(req.Status))
	if err != nil {
		h.log.Error().Err(err).Int64("recharge", id).Msg("update recharge failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to update recharge"})
		return
	}
	if !changed {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Recharge already processed"})
		return
	}

	if models.FundingStatus(req.Status) == models.FundingApproved {
		reason := fmt.Sprintf("Recharge approved - %s", rec.UTR)
		if err := h.ledger.Credit(ctx, rec.Username, rec.Amount, reason); err != nil {
			h.log.Error().Err(err).Int64("recharge", id).Str("user", rec.Username).
				Msg("recharge credit failed, needs reconciliation")
		}
	}

	c.JSON(http.StatusOK, gin.H{"error": false, "message": "Recharge status updated"})
}

func (h *AdminHandler) ListWithdrawals(c *gin.Context) {
	ws, err := h.funding.AllWithdrawals(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("load withdrawals failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to fetch withdrawals"})
		return
	}
	c.JSON(http.StatusOK, ws)
}

// UpdateWithdrawal is a status flip only: the amount was debited when
// the request was submitted.
func (h *AdminHandler) UpdateWithdrawal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid id"})
		return
	}

	var req fundingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid status"})
		return
	}

	changed, err := h.funding.UpdateWithdrawalStatus(c.Request.Context(), id, models.FundingStatus(req.Status))
	if err != nil {
		h.log.Error().Err(err).Int64("withdrawal", id).Msg("update withdrawal failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to update withdrawal"})
		return
	}
	if !changed {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Withdrawal already processed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"error": false, "message": "Withdrawal status updated"})
}

// GameMonitor shows the live round: per-side totals and whether a manual
// result can still be set.
func (h *AdminHandler) GameMonitor(c *gin.Context) {
	status := h.clock.Status()
	c.JSON(http.StatusOK, gin.H{
		"period":    status.Period,
		"countdown": status.Countdown,
		"bets": gin.H{
			"green": gin.H{"count": status.UpCount, "amount": status.UpTotal},
			"red":   gin.H{"count": status.DownCount, "amount": status.DownTotal},
			"total": gin.H{
				"count":  status.UpCount + status.DownCount,
				"amount": status.UpTotal.Add(status.DownTotal),
			},
		},
		"canManuallySetResult": status.CanSetResult,
	})
}

type setResultRequest struct {
	Color string `json:"color" binding:"required,oneof=green red"`
}

func (h *AdminHandler) SetResult(c *gin.Context) {
	var req setResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Invalid color"})
		return
	}

	side := models.Color(req.Color).Side()
	if err := h.clock.ForceResult(side); err != nil {
		switch {
		case errors.Is(err, engine.ErrTooLate):
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Cannot set result this late in the round"})
		case errors.Is(err, engine.ErrAlreadyResolved):
			c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Result already set for this round"})
		default:
			h.log.Error().Err(err).Msg("set result failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to set result"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": fmt.Sprintf("Result set to %s for period %d", req.Color, h.clock.CurrentPeriod()),
	})
}
