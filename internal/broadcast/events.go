package broadcast

import "github.com/shopspring/decimal"

type EventType string

const (
	EventPriceUpdate    EventType = "priceUpdate"
	EventBettingClosed  EventType = "bettingClosed"
	EventGameResult     EventType = "gameResult"
	EventCandleComplete EventType = "candleComplete"
	EventNewPeriod      EventType = "newPeriod"
	EventBetPlaced      EventType = "betPlaced"
)

// Event is the envelope every subscriber receives. Data holds one of the
// payload structs below; field names are part of the wire contract.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type PriceUpdate struct {
	Period        int64           `json:"period"`
	Open          decimal.Decimal `json:"open"`
	High          decimal.Decimal `json:"high"`
	Low           decimal.Decimal `json:"low"`
	Close         decimal.Decimal `json:"close"`
	Countdown     int             `json:"countdown"`
	BettingActive bool            `json:"bettingActive"`
}

type BettingClosed struct {
	Period int64 `json:"period"`
}

type GameResult struct {
	Period         int64           `json:"period"`
	WinningSide    string          `json:"winningSide"`
	DisplayNumber  int             `json:"displayNumber"`
	ReferencePrice decimal.Decimal `json:"referencePrice"`
}

type CandleComplete struct {
	Period int64           `json:"period"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
}

type NewPeriod struct {
	Period        int64 `json:"period"`
	Countdown     int   `json:"countdown"`
	BettingActive bool  `json:"bettingActive"`
}

type BetPlaced struct {
	Username  string          `json:"username"`
	Amount    decimal.Decimal `json:"amount"`
	Direction string          `json:"direction"`
	Period    int64           `json:"period"`
}
