package engine

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

// Ledger is the only path through which user balances change. Every
// mutation appends exactly one transaction row in the same database
// transaction as the balance update.
type Ledger interface {
	Credit(ctx context.Context, username string, amount decimal.Decimal, reason string) error
	Debit(ctx context.Context, username string, amount decimal.Decimal, reason string) error
}

// SQLLedger implements Ledger over Postgres. The user row is locked FOR
// UPDATE so concurrent debits for the same user serialize and can never
// overdraw the balance.
type SQLLedger struct {
	db *sql.DB
}

func NewSQLLedger(db *sql.DB) *SQLLedger { return &SQLLedger{db: db} }

func (l *SQLLedger) Credit(ctx context.Context, username string, amount decimal.Decimal, reason string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: credit amount must be positive", ErrValidation)
	}
	return l.apply(ctx, username, amount, reason, models.TxCredit)
}

func (l *SQLLedger) Debit(ctx context.Context, username string, amount decimal.Decimal, reason string) error {
	if amount.Sign() <= 0 {
		return fmt.Errorf("%w: debit amount must be positive", ErrValidation)
	}
	return l.apply(ctx, username, amount.Neg(), reason, models.TxDebit)
}

// SettleWin flips a pending bet to WON and credits its payout in one
// transaction. The status guard and the credit commit or roll back
// together, so a failed run leaves the bet pending and a retry pays it,
// never a WON row with no matching credit. Returns false when the bet
// was already settled.
func (l *SQLLedger) SettleWin(ctx context.Context, bet *models.Bet, payout decimal.Decimal, reason string) (bool, error) {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE bets SET status=$2, payout=$3 WHERE id=$1 AND status='pending'`,
		bet.ID, models.BetWon, payout,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE username=$1 FOR UPDATE`, bet.Username,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return false, fmt.Errorf("%w: user %s", ErrNotFound, bet.Username)
	}
	if err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET balance=$2, updated_at=NOW() WHERE username=$1`,
		bet.Username, balance.Add(payout),
	); err != nil {
		return false, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions(username, reason, amount, type) VALUES($1,$2,$3,$4)`,
		bet.Username, reason, payout, models.TxCredit,
	); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (l *SQLLedger) apply(ctx context.Context, username string, delta decimal.Decimal, reason string, txType models.TxType) error {
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var balance decimal.Decimal
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM users WHERE username=$1 FOR UPDATE`, username,
	).Scan(&balance)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	if err != nil {
		return err
	}

	newBalance := balance.Add(delta)
	if newBalance.Sign() < 0 {
		return ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET balance=$2, updated_at=NOW() WHERE username=$1`,
		username, newBalance,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transactions(username, reason, amount, type) VALUES($1,$2,$3,$4)`,
		username, reason, delta, txType,
	); err != nil {
		return err
	}

	return tx.Commit()
}
