// Package engine implements the round lifecycle for the FastParity colour
// prediction game: a wall-clock driven round state machine, the stake
// weighted outcome resolver, the bet book, the settlement pipeline and
// the balance ledger. HTTP and websocket handlers are thin adapters
// around the types in this package.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/broadcast"
	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

// Config carries the round timing knobs. Payout multipliers live on the
// Resolver, which is the only component that reads them.
type Config struct {
	PeriodSeconds      int
	BettingCloseOffset int
	OverrideCutoff     int
}

// ResultStore archives candles and results and supplies the opening price
// on startup. Implemented by repo.ResultRepo.
type ResultStore interface {
	SaveCandle(ctx context.Context, candle *models.Candle) error
	SaveResult(ctx context.Context, result *models.GameResult) error
	LastClose(ctx context.Context) (decimal.Decimal, error)
}

// Publisher accepts engine events for fan-out. Implemented by
// broadcast.Hub.
type Publisher interface {
	Publish(evt broadcast.Event)
}

var defaultOpenPrice = decimal.NewFromInt(1200)

// RoundClock advances betting rounds on a one second cadence. All round
// state lives behind one mutex and is only mutated by Tick and
// ForceResult, so ticks never interleave.
type RoundClock struct {
	cfg      Config
	book     *BetBook
	resolver *Resolver
	settler  *Settler
	results  ResultStore
	pub      Publisher
	rng      *rand.Rand
	now      func() time.Time
	log      zerolog.Logger

	mu        sync.Mutex
	period    int64
	countdown int
	status    models.RoundStatus
	candle    models.Candle
	outcome   *Outcome
}

func NewRoundClock(cfg Config, book *BetBook, resolver *Resolver, settler *Settler, results ResultStore, pub Publisher, rng *rand.Rand, log zerolog.Logger) *RoundClock {
	return &RoundClock{
		cfg:      cfg,
		book:     book,
		resolver: resolver,
		settler:  settler,
		results:  results,
		pub:      pub,
		rng:      rng,
		now:      time.Now,
		log:      log,
	}
}

// Start aligns the clock to the current wall-clock bucket and opens the
// first round. The opening price is the last archived close, or the
// default when history is empty.
func (c *RoundClock) Start(ctx context.Context) {
	now := c.now()
	p := int64(c.cfg.PeriodSeconds)

	open := defaultOpenPrice
	if last, err := c.results.LastClose(ctx); err != nil {
		c.log.Warn().Err(err).Msg("no chart history, starting from default price")
	} else if last.Sign() > 0 {
		open = last
	}

	c.mu.Lock()
	c.period = now.Unix() / p
	c.countdown = int(p - now.Unix()%p)
	c.status = models.RoundOpen
	c.candle = newCandle(c.period, open, now)
	c.outcome = nil
	c.book.StartRound(c.period)
	// a start inside the closed half of the period joins the round with
	// betting already over, so no stake can bypass the resolver snapshot
	if c.countdown <= c.cfg.BettingCloseOffset {
		c.closeBetting()
	}
	c.mu.Unlock()

	c.log.Info().Int64("period", c.period).Int("countdown", c.countdown).Msg("round clock started")
}

// Run drives the clock until ctx is cancelled. One tick per second; a
// tick runs to completion before the next fires.
func (c *RoundClock) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info().Msg("round clock stopped")
			return
		case <-ticker.C:
			c.Tick(ctx)
		}
	}
}

// Tick advances the round by one second: close betting at the offset,
// animate the price, and at zero finalize, settle and roll over.
func (c *RoundClock) Tick(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.countdown--

	if c.countdown <= 0 {
		c.finalizeRound(ctx)
		return
	}

	if c.countdown <= c.cfg.BettingCloseOffset && c.status == models.RoundOpen {
		c.closeBetting()
	}

	c.stepPrice()
	c.pub.Publish(broadcast.Event{
		Type: broadcast.EventPriceUpdate,
		Data: broadcast.PriceUpdate{
			Period:        c.period,
			Open:          c.candle.Open,
			High:          c.candle.High,
			Low:           c.candle.Low,
			Close:         c.candle.Close,
			Countdown:     c.countdown,
			BettingActive: c.countdown > c.cfg.BettingCloseOffset,
		},
	})
}

// closeBetting is called with the mutex held. The one-shot is the status
// check at the call sites: once the round leaves OPEN the book stays
// closed and an admin override's outcome is never overwritten.
func (c *RoundClock) closeBetting() {
	stakes := c.book.CloseBetting()
	if c.outcome == nil {
		out := c.resolver.Decide(stakes.UpTotal, stakes.DownTotal)
		c.outcome = &out
		c.pub.Publish(broadcast.Event{
			Type: broadcast.EventBettingClosed,
			Data: broadcast.BettingClosed{Period: c.period},
		})
	}
	c.status = models.RoundBettingClosed
}

// stepPrice applies the cosmetic random walk. Volatility triples once an
// outcome exists and the walk drifts toward the decided colour so the
// finished candle agrees with the result.
func (c *RoundClock) stepPrice() {
	volatility := 5.0
	if c.outcome != nil {
		volatility = 15.0
	}
	bias := 0.0
	if c.outcome != nil {
		switch c.outcome.Color.Side() {
		case models.SideUp:
			bias = 0.5
		case models.SideDown:
			bias = -0.5
		}
	}
	change := decimal.NewFromFloat((c.rng.Float64() - 0.5 + bias) * volatility)
	c.candle.Close = c.candle.Close.Add(change)
	clampCandle(&c.candle)
}

// finalizeRound is called with the mutex held when the countdown hits
// zero. Persistence and settlement failures are logged; the rollover
// happens regardless so the game never stalls.
func (c *RoundClock) finalizeRound(ctx context.Context) {
	if c.outcome == nil {
		// betting close never ran (misconfigured offset); fall back to a
		// coin flip so the round still resolves
		out := c.resolver.Decide(decimal.Zero, decimal.Zero)
		c.outcome = &out
	}
	out := *c.outcome

	// final dramatic move toward the winner; dojis barely move
	diff := decimal.NewFromFloat(c.rng.Float64()*100 + 50)
	switch out.Color {
	case models.ColorGreen:
		c.candle.Close = c.candle.Open.Add(diff)
	case models.ColorRed:
		c.candle.Close = c.candle.Open.Sub(diff)
	default:
		wiggle := decimal.NewFromFloat((c.rng.Float64() - 0.5) * 10)
		c.candle.Close = c.candle.Open.Add(wiggle)
	}
	clampCandle(&c.candle)
	c.status = models.RoundResolved

	finished := c.candle
	if err := c.results.SaveCandle(ctx, &finished); err != nil {
		c.log.Error().Err(err).Int64("period", c.period).Msg("persist candle failed")
	}
	c.pub.Publish(broadcast.Event{
		Type: broadcast.EventCandleComplete,
		Data: broadcast.CandleComplete{
			Period: finished.Period,
			Open:   finished.Open,
			High:   finished.High,
			Low:    finished.Low,
			Close:  finished.Close,
		},
	})

	refPrice := finished.Close.Round(0)
	if err := c.results.SaveResult(ctx, &models.GameResult{
		Period: c.period,
		Number: out.Number,
		Price:  refPrice,
		Color:  out.Color,
	}); err != nil {
		c.log.Error().Err(err).Int64("period", c.period).Msg("persist result failed")
	}

	if err := c.settler.Settle(ctx, c.period, out); err != nil {
		c.log.Error().Err(err).Int64("period", c.period).Msg("settlement incomplete")
	}

	c.pub.Publish(broadcast.Event{
		Type: broadcast.EventGameResult,
		Data: broadcast.GameResult{
			Period:         c.period,
			WinningSide:    string(out.Color.Side()),
			DisplayNumber:  out.Number,
			ReferencePrice: refPrice,
		},
	})

	// roll over
	c.period++
	c.countdown = c.cfg.PeriodSeconds
	c.status = models.RoundOpen
	c.outcome = nil
	c.candle = newCandle(c.period, finished.Close, c.now())
	c.book.StartRound(c.period)

	c.pub.Publish(broadcast.Event{
		Type: broadcast.EventNewPeriod,
		Data: broadcast.NewPeriod{
			Period:        c.period,
			Countdown:     c.countdown,
			BettingActive: true,
		},
	})
}

// ForceResult records an admin override for the active round. Only the
// first override counts, and none are accepted once the remaining time
// is at or below the cutoff.
func (c *RoundClock) ForceResult(side models.Side) error {
	if side != models.SideUp && side != models.SideDown {
		return ErrValidation
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.countdown <= c.cfg.OverrideCutoff {
		return ErrTooLate
	}
	if c.outcome != nil && c.outcome.Forced {
		return ErrAlreadyResolved
	}

	out := c.resolver.Forced(side)
	c.outcome = &out

	// nudge the rendered price toward the chosen side so the chart does
	// not contradict the forced result
	move := decimal.NewFromFloat(c.rng.Float64()*100 + 50)
	if side == models.SideUp {
		c.candle.Close = c.candle.Close.Add(move)
	} else {
		c.candle.Close = c.candle.Close.Sub(move)
	}
	clampCandle(&c.candle)

	c.pub.Publish(broadcast.Event{
		Type: broadcast.EventGameResult,
		Data: broadcast.GameResult{
			Period:         c.period,
			WinningSide:    string(side),
			DisplayNumber:  out.Number,
			ReferencePrice: c.candle.Close.Round(0),
		},
	})
	return nil
}

// Status returns the snapshot served to HTTP callers and the admin game
// monitor.
func (c *RoundClock) Status() models.RoundStatusView {
	c.mu.Lock()
	period := c.period
	countdown := c.countdown
	status := c.status
	forced := c.outcome != nil && c.outcome.Forced
	c.mu.Unlock()

	stakes := c.book.Snapshot()
	return models.RoundStatusView{
		Period:        period,
		Countdown:     countdown,
		BettingActive: countdown > c.cfg.BettingCloseOffset,
		Status:        status,
		UpTotal:       stakes.UpTotal,
		UpCount:       stakes.UpCount,
		DownTotal:     stakes.DownTotal,
		DownCount:     stakes.DownCount,
		CanSetResult:  countdown > c.cfg.OverrideCutoff && !forced,
	}
}

// CurrentPeriod returns the id of the round currently accepting state.
func (c *RoundClock) CurrentPeriod() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.period
}

func newCandle(period int64, open decimal.Decimal, ts time.Time) models.Candle {
	return models.Candle{
		Period:    period,
		Open:      open,
		High:      open,
		Low:       open,
		Close:     open,
		Timestamp: ts,
	}
}

func clampCandle(candle *models.Candle) {
	if candle.Close.GreaterThan(candle.High) {
		candle.High = candle.Close
	}
	if candle.Close.LessThan(candle.Low) {
		candle.Low = candle.Close
	}
}
