package engine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prabhuzz00/ColorWavePrediction/internal/broadcast"
	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

type clockFixture struct {
	clock   *RoundClock
	book    *BetBook
	ledger  *fakeLedger
	store   *fakeBetStore
	results *fakeResultStore
	pub     *capturePub
}

// newClockFixture builds a clock over in-memory fakes, parked at the top
// of period 1001 with a short round so tests can tick through it by hand.
func newClockFixture(t *testing.T, seed int64) *clockFixture {
	t.Helper()

	cfg := Config{
		PeriodSeconds:      10,
		BettingCloseOffset: 5,
		OverrideCutoff:     2,
	}

	ledger := newFakeLedger()
	store := &fakeBetStore{}
	results := &fakeResultStore{}
	pub := &capturePub{}
	book := NewBetBook(ledger, store)
	rng := rand.New(rand.NewSource(seed))
	resolver := NewResolver(rng, decimal.NewFromFloat(1.92), decimal.NewFromFloat(1.3))
	settler := NewSettler(store, &fakePayer{store: store, ledger: ledger}, zerolog.Nop())

	c := NewRoundClock(cfg, book, resolver, settler, results, pub, rng, zerolog.Nop())
	c.period = 1001
	c.countdown = cfg.PeriodSeconds
	c.status = models.RoundOpen
	c.candle = newCandle(1001, decimal.NewFromInt(1200), time.Now())
	book.StartRound(1001)

	return &clockFixture{clock: c, book: book, ledger: ledger, store: store, results: results, pub: pub}
}

func (f *clockFixture) tickTo(ctx context.Context, countdown int) {
	// tick a fixed number of times: finalizeRound resets the countdown to
	// the top of the next period, so looping on the live value would never
	// terminate for a target of 0
	for i := f.clock.countdown; i > countdown; i-- {
		f.clock.Tick(ctx)
	}
}

func TestTickClosesBettingAtOffset(t *testing.T) {
	f := newClockFixture(t, 1)
	f.ledger.fund("alice", 1000)
	ctx := context.Background()

	f.clock.Tick(ctx) // countdown 9, still open
	_, err := f.book.PlaceBet(ctx, "alice", 1001, models.SideUp, decimal.NewFromInt(50))
	require.NoError(t, err)

	f.tickTo(ctx, 5)

	_, err = f.book.PlaceBet(ctx, "alice", 1001, models.SideUp, decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrRoundClosed)

	closed := f.pub.ofType(broadcast.EventBettingClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, broadcast.BettingClosed{Period: 1001}, closed[0].Data)

	view := f.clock.Status()
	assert.False(t, view.BettingActive)
	assert.Equal(t, models.RoundBettingClosed, view.Status)
}

func TestTickClosesBettingPastOffset(t *testing.T) {
	// a tick landing below the offset (not exactly on it) must still
	// close the book
	f := newClockFixture(t, 1)
	f.ledger.fund("alice", 1000)
	ctx := context.Background()

	f.clock.mu.Lock()
	f.clock.countdown = 4
	f.clock.mu.Unlock()

	f.clock.Tick(ctx)

	_, err := f.book.PlaceBet(ctx, "alice", 1001, models.SideUp, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrRoundClosed)
	require.Len(t, f.pub.ofType(broadcast.EventBettingClosed), 1)
	assert.Equal(t, models.RoundBettingClosed, f.clock.Status().Status)
}

func TestStartInClosedHalfRejectsBets(t *testing.T) {
	// process started with less than the offset remaining: the round is
	// joined with betting already over, never a truncated open round
	f := newClockFixture(t, 1)
	f.ledger.fund("alice", 1000)
	f.clock.now = func() time.Time { return time.Unix(1007, 0) } // 3s left of a 10s period

	f.clock.Start(context.Background())

	view := f.clock.Status()
	assert.Equal(t, int64(100), view.Period)
	assert.Equal(t, 3, view.Countdown)
	assert.False(t, view.BettingActive)
	assert.Equal(t, models.RoundBettingClosed, view.Status)

	_, err := f.book.PlaceBet(context.Background(), "alice", 100, models.SideUp, decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrRoundClosed)

	// the outcome was decided from the (empty) snapshot, not left for
	// the zero-stake fallback at finalize
	require.Len(t, f.pub.ofType(broadcast.EventBettingClosed), 1)
	f.clock.mu.Lock()
	assert.NotNil(t, f.clock.outcome)
	f.clock.mu.Unlock()
}

func TestStartInOpenHalfAcceptsBets(t *testing.T) {
	f := newClockFixture(t, 1)
	f.ledger.fund("alice", 1000)
	f.clock.now = func() time.Time { return time.Unix(1002, 0) } // 8s left

	f.clock.Start(context.Background())

	view := f.clock.Status()
	assert.Equal(t, 8, view.Countdown)
	assert.True(t, view.BettingActive)

	_, err := f.book.PlaceBet(context.Background(), "alice", 100, models.SideUp, decimal.NewFromInt(10))
	assert.NoError(t, err)
}

func TestTickPublishesPriceUpdates(t *testing.T) {
	f := newClockFixture(t, 1)
	ctx := context.Background()

	f.clock.Tick(ctx)
	f.clock.Tick(ctx)

	updates := f.pub.ofType(broadcast.EventPriceUpdate)
	require.Len(t, updates, 2)
	pu := updates[1].Data.(broadcast.PriceUpdate)
	assert.Equal(t, int64(1001), pu.Period)
	assert.Equal(t, 8, pu.Countdown)
	assert.True(t, pu.BettingActive)
	assert.True(t, pu.High.GreaterThanOrEqual(pu.Low))
}

func TestRoundFinalizeSettlesAndRollsOver(t *testing.T) {
	f := newClockFixture(t, 1)
	f.ledger.fund("alice", 1000)
	f.ledger.fund("bob", 1000)
	ctx := context.Background()

	aliceBet, err := f.book.PlaceBet(ctx, "alice", 1001, models.SideUp, decimal.NewFromInt(500))
	require.NoError(t, err)
	bobBet, err := f.book.PlaceBet(ctx, "bob", 1001, models.SideDown, decimal.NewFromInt(100))
	require.NoError(t, err)

	f.tickTo(ctx, 0)

	// up was the heavier side, so the round resolves red and bob wins
	require.Len(t, f.results.results, 1)
	assert.Equal(t, models.ColorRed, f.results.results[0].Color)
	assert.Equal(t, int64(1001), f.results.results[0].Period)

	won, _ := f.store.byID(bobBet.ID)
	assert.Equal(t, models.BetWon, won.Status)
	assert.True(t, won.Payout.Equal(decimal.NewFromInt(192)))
	assert.True(t, f.ledger.balance("bob").Equal(decimal.NewFromInt(1092)))

	lost, _ := f.store.byID(aliceBet.ID)
	assert.Equal(t, models.BetLost, lost.Status)
	assert.True(t, f.ledger.balance("alice").Equal(decimal.NewFromInt(500)))

	// finished candle archived and the close agrees with the red result
	require.Len(t, f.results.candles, 1)
	candle := f.results.candles[0]
	assert.True(t, candle.Close.LessThan(candle.Open))

	require.Len(t, f.pub.ofType(broadcast.EventCandleComplete), 1)
	results := f.pub.ofType(broadcast.EventGameResult)
	require.Len(t, results, 1)
	assert.Equal(t, "down", results[0].Data.(broadcast.GameResult).WinningSide)

	// rollover: next period open, countdown reset, book accepting again
	newPeriods := f.pub.ofType(broadcast.EventNewPeriod)
	require.Len(t, newPeriods, 1)
	assert.Equal(t, broadcast.NewPeriod{Period: 1002, Countdown: 10, BettingActive: true}, newPeriods[0].Data)
	assert.Equal(t, int64(1002), f.clock.CurrentPeriod())

	_, err = f.book.PlaceBet(ctx, "alice", 1002, models.SideUp, decimal.NewFromInt(10))
	assert.NoError(t, err)
}

func TestEmptyRoundStillResolves(t *testing.T) {
	f := newClockFixture(t, 5)
	ctx := context.Background()

	f.tickTo(ctx, 0)

	require.Len(t, f.results.results, 1)
	color := f.results.results[0].Color
	assert.Contains(t, []models.Color{models.ColorGreen, models.ColorRed}, color)
	assert.Equal(t, int64(1002), f.clock.CurrentPeriod())
}

func TestForceResultOverridesOutcome(t *testing.T) {
	f := newClockFixture(t, 1)
	f.ledger.fund("alice", 1000)
	f.ledger.fund("bob", 1000)
	ctx := context.Background()

	// up carries far more stake, which would normally make it lose
	_, err := f.book.PlaceBet(ctx, "alice", 1001, models.SideUp, decimal.NewFromInt(900))
	require.NoError(t, err)
	_, err = f.book.PlaceBet(ctx, "bob", 1001, models.SideDown, decimal.NewFromInt(10))
	require.NoError(t, err)

	require.NoError(t, f.clock.ForceResult(models.SideUp))

	results := f.pub.ofType(broadcast.EventGameResult)
	require.Len(t, results, 1)
	forced := results[0].Data.(broadcast.GameResult)
	assert.Equal(t, "up", forced.WinningSide)
	assert.Equal(t, 1, forced.DisplayNumber)

	// a second override is refused
	assert.ErrorIs(t, f.clock.ForceResult(models.SideDown), ErrAlreadyResolved)

	f.tickTo(ctx, 0)

	// the forced side is paid regardless of the stake imbalance
	require.Len(t, f.results.results, 1)
	assert.Equal(t, models.ColorGreen, f.results.results[0].Color)
	assert.True(t, f.ledger.balance("alice").Equal(decimal.NewFromInt(1828))) // 100 + 900*1.92
	assert.True(t, f.ledger.balance("bob").Equal(decimal.NewFromInt(990)))

	candle := f.results.candles[0]
	assert.True(t, candle.Close.GreaterThan(candle.Open))
}

func TestForceResultTooLate(t *testing.T) {
	f := newClockFixture(t, 1)
	ctx := context.Background()

	f.tickTo(ctx, 2) // at the cutoff

	assert.ErrorIs(t, f.clock.ForceResult(models.SideUp), ErrTooLate)
	assert.False(t, f.clock.Status().CanSetResult)
}

func TestForceResultValidatesSide(t *testing.T) {
	f := newClockFixture(t, 1)
	assert.ErrorIs(t, f.clock.ForceResult(models.Side("red")), ErrValidation)
}

func TestStartUsesLastArchivedClose(t *testing.T) {
	f := newClockFixture(t, 1)
	f.results.lastClose = decimal.NewFromInt(1575)

	f.clock.Start(context.Background())

	f.clock.mu.Lock()
	open := f.clock.candle.Open
	f.clock.mu.Unlock()
	assert.True(t, open.Equal(decimal.NewFromInt(1575)))
}

func TestStartFallsBackToDefaultPrice(t *testing.T) {
	f := newClockFixture(t, 1)

	f.clock.Start(context.Background())

	f.clock.mu.Lock()
	open := f.clock.candle.Open
	f.clock.mu.Unlock()
	assert.True(t, open.Equal(defaultOpenPrice))
}

func TestStatusReportsStakeTotals(t *testing.T) {
	f := newClockFixture(t, 1)
	f.ledger.fund("alice", 1000)
	ctx := context.Background()

	_, err := f.book.PlaceBet(ctx, "alice", 1001, models.SideDown, decimal.NewFromInt(75))
	require.NoError(t, err)

	view := f.clock.Status()
	assert.Equal(t, int64(1001), view.Period)
	assert.True(t, view.DownTotal.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, 1, view.DownCount)
	assert.True(t, view.BettingActive)
	assert.True(t, view.CanSetResult)
}
