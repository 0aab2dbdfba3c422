package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Side string

const (
	SideUp   Side = "up"
	SideDown Side = "down"
)

// Color is the on-the-wire colour a side maps to. Bets are stored by
// colour so the result rows and the history screens agree with the chart.
type Color string

const (
	ColorGreen     Color = "green"
	ColorRed       Color = "red"
	ColorGreenDoji Color = "green_doji"
	ColorRedDoji   Color = "red_doji"
)

// ToColor maps the bet direction to its chart colour.
func (s Side) ToColor() Color {
	if s == SideDown {
		return ColorRed
	}
	return ColorGreen
}

// Side maps a result colour back to the winning direction.
func (c Color) Side() Side {
	if c == ColorRed || c == ColorRedDoji {
		return SideDown
	}
	return SideUp
}

// IsDoji reports whether the colour is a reduced-payout doji variant.
func (c Color) IsDoji() bool {
	return c == ColorGreenDoji || c == ColorRedDoji
}

type BetStatus string

const (
	BetPending BetStatus = "pending"
	BetWon     BetStatus = "won"
	BetLost    BetStatus = "lost"
)

type Bet struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Period    int64           `json:"period"`
	Amount    decimal.Decimal `json:"amount"`
	Side      Side            `json:"side"`
	Color     Color           `json:"color"`
	Status    BetStatus       `json:"status"`
	Payout    decimal.Decimal `json:"payout"`
	CreatedAt time.Time       `json:"createdAt"`
}
