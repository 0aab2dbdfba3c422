package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

// SettleStore is the persistence surface the settlement pipeline needs.
// MarkSettled must flip a bet PENDING -> final exactly once: it reports
// false when the bet was already settled, which makes re-running the
// pipeline after a partial failure safe.
type SettleStore interface {
	BetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error)
	MarkSettled(ctx context.Context, betID string, status models.BetStatus, payout decimal.Decimal) (bool, error)
}

// WinPayer flips a pending bet to WON and credits its payout atomically:
// either both land or neither does, so a failed winner stays pending and
// the next settlement run pays it. Implemented by SQLLedger.
type WinPayer interface {
	SettleWin(ctx context.Context, bet *models.Bet, payout decimal.Decimal, reason string) (bool, error)
}

// Settler converts a resolved outcome into payouts.
type Settler struct {
	store SettleStore
	payer WinPayer
	log   zerolog.Logger
}

func NewSettler(store SettleStore, payer WinPayer, log zerolog.Logger) *Settler {
	return &Settler{store: store, payer: payer, log: log}
}

// Settle pays every pending bet of the period. Winner-side bets get
// amount x multiplier through the payer's atomic flip-and-credit;
// everything else is marked lost with zero payout. Failures on
// individual bets are logged and do not stop the rest of the round.
func (s *Settler) Settle(ctx context.Context, period int64, out Outcome) error {
	bets, err := s.store.BetsByPeriod(ctx, period)
	if err != nil {
		return fmt.Errorf("load bets for period %d: %w", period, err)
	}

	winSide := out.Color.Side()
	var errs []error
	for _, bet := range bets {
		if bet.Status != models.BetPending {
			continue
		}

		if bet.Side != winSide {
			if _, err := s.store.MarkSettled(ctx, bet.ID, models.BetLost, decimal.Zero); err != nil {
				s.log.Error().Err(err).Str("bet", bet.ID).Int64("period", period).Msg("settle bet failed")
				errs = append(errs, err)
			}
			continue
		}

		payout := bet.Amount.Mul(out.Multiplier)
		reason := fmt.Sprintf("Bet win - Period %d", period)
		if _, err := s.payer.SettleWin(ctx, &bet, payout, reason); err != nil {
			s.log.Error().Err(err).Str("bet", bet.ID).Str("user", bet.Username).
				Int64("period", period).Msg("payout failed, bet stays pending for retry")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
