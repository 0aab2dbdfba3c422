package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/broadcast"
	"github.com/prabhuzz00/ColorWavePrediction/internal/engine"
	"github.com/prabhuzz00/ColorWavePrediction/internal/middleware"
	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
	"github.com/prabhuzz00/ColorWavePrediction/internal/repo"
	"github.com/prabhuzz00/ColorWavePrediction/internal/service"
)

const defaultHistoryLimit = 20

type GameHandler struct {
	clock *engine.RoundClock
	book  *engine.BetBook
	bets  *repo.BetRepo
	txs   *repo.TransactionRepo
	res   *repo.ResultRepo
	cache *service.CacheService
	hub   *broadcast.Hub
	log   zerolog.Logger
}

func NewGameHandler(clock *engine.RoundClock, book *engine.BetBook, bets *repo.BetRepo, txs *repo.TransactionRepo, res *repo.ResultRepo, cache *service.CacheService, hub *broadcast.Hub, log zerolog.Logger) *GameHandler {
	registerBetValidations()
	return &GameHandler{clock: clock, book: book, bets: bets, txs: txs, res: res, cache: cache, hub: hub, log: log}
}

// registerBetValidations adds the custom bet direction rule to gin's
// validator engine.
func registerBetValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("betside", func(fl validator.FieldLevel) bool {
			side := models.Side(fl.Field().String())
			return side == models.SideUp || side == models.SideDown
		})
	}
}

type placeBetRequest struct {
	Period    int64   `json:"period" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
	Direction string  `json:"direction" binding:"required,betside"`
}

func (h *GameHandler) PlaceBet(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Unauthorized"})
		return
	}

	var req placeBetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": true, "message": "Missing required fields"})
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	bet, err := h.book.PlaceBet(c.Request.Context(), user.Username, req.Period, models.Side(req.Direction), amount)
	if err != nil {
		status, msg := betErrorResponse(err)
		if status == http.StatusInternalServerError {
			h.log.Error().Err(err).Str("user", user.Username).Msg("place bet failed")
		}
		c.JSON(status, gin.H{"error": true, "message": msg})
		return
	}

	h.hub.Publish(broadcast.Event{
		Type: broadcast.EventBetPlaced,
		Data: broadcast.BetPlaced{
			Username:  bet.Username,
			Amount:    bet.Amount,
			Direction: string(bet.Side),
			Period:    bet.Period,
		},
	})

	c.JSON(http.StatusOK, gin.H{
		"error":   false,
		"message": "Bet placed successfully",
		"bet":     bet,
	})
}

func betErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, engine.ErrRoundClosed):
		return http.StatusBadRequest, "Betting is closed for this round"
	case errors.Is(err, engine.ErrInsufficientFunds):
		return http.StatusBadRequest, "Insufficient balance"
	case errors.Is(err, engine.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, engine.ErrValidation):
		return http.StatusBadRequest, "Invalid bet"
	default:
		return http.StatusInternalServerError, "Failed to place bet"
	}
}

// Info returns the authenticated user's balance together with the live
// round snapshot.
func (h *GameHandler) Info(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": true, "message": "Unauthorized"})
		return
	}

	status := h.clock.Status()
	c.JSON(http.StatusOK, gin.H{
		"balance":       user.Balance,
		"bonus":         user.Bonus,
		"period":        status.Period,
		"countdown":     status.Countdown,
		"bettingActive": status.BettingActive,
	})
}

// Status returns the current round snapshot. The Redis copy is served
// when fresh; a miss falls back to the clock and repopulates the cache.
func (h *GameHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	if h.cache != nil {
		if view, err := h.cache.GetRoundStatus(ctx); err == nil && view != nil {
			c.JSON(http.StatusOK, view)
			return
		}
	}

	view := h.clock.Status()
	if h.cache != nil {
		if err := h.cache.SetRoundStatus(ctx, view); err != nil {
			h.log.Debug().Err(err).Msg("round status cache write failed")
		}
	}
	c.JSON(http.StatusOK, view)
}

func (h *GameHandler) Results(c *gin.Context) {
	ctx := c.Request.Context()
	limit := queryLimit(c, defaultHistoryLimit)

	if h.cache != nil {
		if cached, err := h.cache.GetResults(ctx, limit); err == nil && cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	results, err := h.res.Results(ctx, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("load results failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to get results"})
		return
	}
	if h.cache != nil {
		_ = h.cache.SetResults(ctx, limit, results, 5*time.Second)
	}
	c.JSON(http.StatusOK, results)
}

func (h *GameHandler) Chart(c *gin.Context) {
	ctx := c.Request.Context()
	limit := queryLimit(c, defaultHistoryLimit)

	if h.cache != nil {
		if cached, err := h.cache.GetChart(ctx, limit); err == nil && cached != nil {
			c.JSON(http.StatusOK, cached)
			return
		}
	}

	candles, err := h.res.Chart(ctx, limit)
	if err != nil {
		h.log.Error().Err(err).Msg("load chart failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to get chart data"})
		return
	}
	if h.cache != nil {
		_ = h.cache.SetChart(ctx, limit, candles, 5*time.Second)
	}
	c.JSON(http.StatusOK, candles)
}

func (h *GameHandler) BetHistory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok || user.Username != c.Param("username") {
		c.JSON(http.StatusForbidden, gin.H{"error": true, "message": "Forbidden"})
		return
	}

	bets, err := h.bets.BetsByUser(c.Request.Context(), user.Username, queryLimit(c, 50))
	if err != nil {
		h.log.Error().Err(err).Msg("load bet history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to get bet history"})
		return
	}
	c.JSON(http.StatusOK, bets)
}

func (h *GameHandler) TransactionHistory(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok || user.Username != c.Param("username") {
		c.JSON(http.StatusForbidden, gin.H{"error": true, "message": "Forbidden"})
		return
	}

	txs, err := h.txs.ByUser(c.Request.Context(), user.Username, queryLimit(c, 50))
	if err != nil {
		h.log.Error().Err(err).Msg("load transactions failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Failed to get transaction history"})
		return
	}
	c.JSON(http.StatusOK, txs)
}

func queryLimit(c *gin.Context, fallback int) int {
	raw := c.Query("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return fallback
	}
	return limit
}
