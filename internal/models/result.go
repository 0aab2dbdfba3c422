package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameResult is the immutable archive row written once per resolved round.
type GameResult struct {
	ID        int64           `json:"id"`
	Period    int64           `json:"period"`
	Number    int             `json:"number"`
	Price     decimal.Decimal `json:"price"`
	Color     Color           `json:"color"`
	CreatedAt time.Time       `json:"createdAt"`
}
