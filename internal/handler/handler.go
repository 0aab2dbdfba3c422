package handler

import (
	"github.com/rs/zerolog"

	"github.com/prabhuzz00/ColorWavePrediction/internal/broadcast"
	"github.com/prabhuzz00/ColorWavePrediction/internal/engine"
	"github.com/prabhuzz00/ColorWavePrediction/internal/repo"
	"github.com/prabhuzz00/ColorWavePrediction/internal/service"
)

type Handler struct {
	Game    *GameHandler
	Funding *FundingHandler
	Admin   *AdminHandler
	WS      *WSHandler
}

func NewHandler(clock *engine.RoundClock, book *engine.BetBook, ledger engine.Ledger,
	bets *repo.BetRepo, txs *repo.TransactionRepo, res *repo.ResultRepo, funding *repo.FundingRepo,
	cache *service.CacheService, hub *broadcast.Hub, log zerolog.Logger) *Handler {

	return &Handler{
		Game:    NewGameHandler(clock, book, bets, txs, res, cache, hub, log),
		Funding: NewFundingHandler(funding, ledger, log),
		Admin:   NewAdminHandler(clock, funding, ledger, log),
		WS:      NewWSHandler(hub, log),
	}
}
