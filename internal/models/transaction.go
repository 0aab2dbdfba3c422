package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TxType string

const (
	TxCredit TxType = "credit"
	TxDebit  TxType = "debit"
)

// Transaction is one append-only ledger entry. Every balance mutation
// writes exactly one of these in the same database transaction.
type Transaction struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Reason    string          `json:"reason"`
	Amount    decimal.Decimal `json:"amount"`
	Type      TxType          `json:"type"`
	CreatedAt time.Time       `json:"createdAt"`
}
