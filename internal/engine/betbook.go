package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

// BetStore persists bets. Implemented by repo.BetRepo.
type BetStore interface {
	Insert(ctx context.Context, bet *models.Bet) error
}

// StakeTotals is the per-side exposure for one round.
type StakeTotals struct {
	UpTotal   decimal.Decimal
	DownTotal decimal.Decimal
	UpCount   int
	DownCount int
}

// BetBook owns the set of bets for the active round. Placement, the
// close-of-betting snapshot, and the round rollover all serialize on one
// mutex, so the resolver snapshot reflects exactly the bets accepted
// while the round was open.
type BetBook struct {
	mu     sync.Mutex
	ledger Ledger
	store  BetStore

	period int64
	open   bool
	totals StakeTotals
}

func NewBetBook(ledger Ledger, store BetStore) *BetBook {
	return &BetBook{
		ledger: ledger,
		store:  store,
		totals: zeroTotals(),
	}
}

func zeroTotals() StakeTotals {
	return StakeTotals{UpTotal: decimal.Zero, DownTotal: decimal.Zero}
}

// StartRound opens the book for a new period, discarding the previous
// round's totals.
func (b *BetBook) StartRound(period int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.period = period
	b.open = true
	b.totals = zeroTotals()
}

// CloseBetting stops accepting bets and returns the final stake snapshot
// for the resolver.
func (b *BetBook) CloseBetting() StakeTotals {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = false
	return b.totals
}

// Snapshot returns the current stake totals without closing the book.
func (b *BetBook) Snapshot() StakeTotals {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totals
}

// PlaceBet debits the stake and records a pending bet. The book mutex is
// held across the ledger debit and the insert: this is what makes the
// open-state check authoritative rather than the timing of the snapshot.
func (b *BetBook) PlaceBet(ctx context.Context, username string, period int64, side models.Side, amount decimal.Decimal) (*models.Bet, error) {
	if side != models.SideUp && side != models.SideDown {
		return nil, fmt.Errorf("%w: unknown side %q", ErrValidation, side)
	}
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open || period != b.period {
		return nil, ErrRoundClosed
	}

	reason := fmt.Sprintf("FastParity bet - Period %d", period)
	if err := b.ledger.Debit(ctx, username, amount, reason); err != nil {
		return nil, err
	}

	bet := &models.Bet{
		ID:        uuid.NewString(),
		Username:  username,
		Period:    period,
		Amount:    amount,
		Side:      side,
		Color:     side.ToColor(),
		Status:    models.BetPending,
		Payout:    decimal.Zero,
		CreatedAt: time.Now(),
	}
	if err := b.store.Insert(ctx, bet); err != nil {
		// stake already taken: hand it back before failing the placement
		if refundErr := b.ledger.Credit(ctx, username, amount, fmt.Sprintf("Bet refund - Period %d", period)); refundErr != nil {
			return nil, fmt.Errorf("insert bet: %v (refund also failed: %w)", err, refundErr)
		}
		return nil, err
	}

	if side == models.SideUp {
		b.totals.UpTotal = b.totals.UpTotal.Add(amount)
		b.totals.UpCount++
	} else {
		b.totals.DownTotal = b.totals.DownTotal.Add(amount)
		b.totals.DownCount++
	}
	return bet, nil
}
