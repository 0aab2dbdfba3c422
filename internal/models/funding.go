package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type FundingStatus string

const (
	FundingPending  FundingStatus = "pending"
	FundingApproved FundingStatus = "approved"
	FundingRejected FundingStatus = "rejected"
	FundingPaid     FundingStatus = "paid"
)

type Recharge struct {
	ID        int64           `json:"id"`
	Username  string          `json:"username"`
	Amount    decimal.Decimal `json:"amount"`
	Status    FundingStatus   `json:"status"`
	UPI       string          `json:"upi"`
	UTR       string          `json:"utr"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Withdrawal struct {
	ID            int64           `json:"id"`
	Username      string          `json:"username"`
	Amount        decimal.Decimal `json:"amount"`
	Status        FundingStatus   `json:"status"`
	AccountNumber string          `json:"accountNumber"`
	IFSCCode      string          `json:"ifscCode"`
	AccountHolder string          `json:"accountHolder"`
	CreatedAt     time.Time       `json:"createdAt"`
}
