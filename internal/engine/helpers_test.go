package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/broadcast"
	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

// fakeLedger keeps balances in memory and records every mutation so tests
// can assert on the exact sequence of debits and credits.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	entries  []ledgerEntry

	failCredit error
	failDebit  error
}

type ledgerEntry struct {
	username string
	amount   decimal.Decimal
	reason   string
	credit   bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]decimal.Decimal)}
}

func (l *fakeLedger) fund(username string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[username] = decimal.NewFromInt(amount)
}

func (l *fakeLedger) balance(username string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[username]
}

func (l *fakeLedger) creditsFor(username string) []ledgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []ledgerEntry
	for _, e := range l.entries {
		if e.credit && e.username == username {
			out = append(out, e)
		}
	}
	return out
}

func (l *fakeLedger) Credit(_ context.Context, username string, amount decimal.Decimal, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failCredit != nil {
		return l.failCredit
	}
	if _, ok := l.balances[username]; !ok {
		return ErrNotFound
	}
	l.balances[username] = l.balances[username].Add(amount)
	l.entries = append(l.entries, ledgerEntry{username: username, amount: amount, reason: reason, credit: true})
	return nil
}

func (l *fakeLedger) Debit(_ context.Context, username string, amount decimal.Decimal, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failDebit != nil {
		return l.failDebit
	}
	bal, ok := l.balances[username]
	if !ok {
		return ErrNotFound
	}
	if bal.LessThan(amount) {
		return ErrInsufficientFunds
	}
	l.balances[username] = bal.Sub(amount)
	l.entries = append(l.entries, ledgerEntry{username: username, amount: amount, reason: reason})
	return nil
}

// fakeBetStore implements BetStore and SettleStore over a slice.
type fakeBetStore struct {
	mu   sync.Mutex
	bets []models.Bet

	failInsert error
	failMark   map[string]error
}

func (s *fakeBetStore) Insert(_ context.Context, bet *models.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failInsert != nil {
		return s.failInsert
	}
	s.bets = append(s.bets, *bet)
	return nil
}

func (s *fakeBetStore) BetsByPeriod(_ context.Context, period int64) ([]models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bet
	for _, b := range s.bets {
		if b.Period == period {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *fakeBetStore) MarkSettled(_ context.Context, betID string, status models.BetStatus, payout decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failMark[betID]; err != nil {
		return false, err
	}
	for i := range s.bets {
		if s.bets[i].ID != betID {
			continue
		}
		if s.bets[i].Status != models.BetPending {
			return false, nil
		}
		s.bets[i].Status = status
		s.bets[i].Payout = payout
		return true, nil
	}
	return false, errors.New("bet not found")
}

func (s *fakeBetStore) byID(betID string) (models.Bet, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.bets {
		if b.ID == betID {
			return b, true
		}
	}
	return models.Bet{}, false
}

// fakePayer mirrors SQLLedger.SettleWin over the in-memory fakes: the
// status flip and the credit land together or not at all.
type fakePayer struct {
	store  *fakeBetStore
	ledger *fakeLedger

	fail error
}

func (p *fakePayer) SettleWin(ctx context.Context, bet *models.Bet, payout decimal.Decimal, reason string) (bool, error) {
	if p.fail != nil {
		return false, p.fail
	}
	settled, err := p.store.MarkSettled(ctx, bet.ID, models.BetWon, payout)
	if err != nil || !settled {
		return settled, err
	}
	if err := p.ledger.Credit(ctx, bet.Username, payout, reason); err != nil {
		// roll the flip back, like the real transaction would
		p.store.mu.Lock()
		for i := range p.store.bets {
			if p.store.bets[i].ID == bet.ID {
				p.store.bets[i].Status = models.BetPending
				p.store.bets[i].Payout = decimal.Zero
			}
		}
		p.store.mu.Unlock()
		return false, err
	}
	return true, nil
}

// fakeResultStore records archived candles and results.
type fakeResultStore struct {
	mu        sync.Mutex
	candles   []models.Candle
	results   []models.GameResult
	lastClose decimal.Decimal
}

func (s *fakeResultStore) SaveCandle(_ context.Context, candle *models.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles = append(s.candles, *candle)
	return nil
}

func (s *fakeResultStore) SaveResult(_ context.Context, result *models.GameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *result)
	return nil
}

func (s *fakeResultStore) LastClose(_ context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastClose.IsZero() {
		return decimal.Zero, errors.New("no history")
	}
	return s.lastClose, nil
}

// capturePub collects published events for assertions.
type capturePub struct {
	mu     sync.Mutex
	events []broadcast.Event
}

func (p *capturePub) Publish(evt broadcast.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *capturePub) ofType(t broadcast.EventType) []broadcast.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []broadcast.Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
