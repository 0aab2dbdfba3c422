package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RoundStatus string

const (
	RoundOpen          RoundStatus = "open"
	RoundBettingClosed RoundStatus = "betting_closed"
	RoundResolved      RoundStatus = "resolved"
)

// Candle is one OHLC record per period. Close moves every tick while the
// round is live and is frozen when the round ends.
type Candle struct {
	Period    int64           `json:"period"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Timestamp time.Time       `json:"timestamp"`
}

// RoundStatusView is the snapshot handed to HTTP callers and the admin
// game monitor.
type RoundStatusView struct {
	Period        int64           `json:"period"`
	Countdown     int             `json:"countdown"`
	BettingActive bool            `json:"bettingActive"`
	Status        RoundStatus     `json:"status"`
	UpTotal       decimal.Decimal `json:"upTotal"`
	UpCount       int             `json:"upCount"`
	DownTotal     decimal.Decimal `json:"downTotal"`
	DownCount     int             `json:"downCount"`
	CanSetResult  bool            `json:"canManuallySetResult"`
}
