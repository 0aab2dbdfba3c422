package repo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

type BetRepo struct{ db *sql.DB }

func NewBetRepo(db *sql.DB) *BetRepo { return &BetRepo{db: db} }

func (r *BetRepo) Insert(ctx context.Context, b *models.Bet) error {
	q := `
INSERT INTO bets(id, username, period, amount, side, color, status, payout)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING created_at`
	return r.db.QueryRowContext(ctx, q,
		b.ID, b.Username, b.Period, b.Amount, b.Side, b.Color, b.Status, b.Payout,
	).Scan(&b.CreatedAt)
}

func (r *BetRepo) BetsByPeriod(ctx context.Context, period int64) ([]models.Bet, error) {
	q := `
SELECT id, username, period, amount, side, color, status, payout, created_at
FROM bets WHERE period=$1 ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, q, period)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBets(rows)
}

func (r *BetRepo) BetsByUser(ctx context.Context, username string, limit int) ([]models.Bet, error) {
	q := `
SELECT id, username, period, amount, side, color, status, payout, created_at
FROM bets WHERE username=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBets(rows)
}

// MarkSettled flips a pending bet to its final status. The status guard
// makes settlement idempotent per bet id: a second run matches no row.
func (r *BetRepo) MarkSettled(ctx context.Context, betID string, status models.BetStatus, payout decimal.Decimal) (bool, error) {
	q := `UPDATE bets SET status=$2, payout=$3 WHERE id=$1 AND status='pending'`
	res, err := r.db.ExecContext(ctx, q, betID, status, payout)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanBets(rows *sql.Rows) ([]models.Bet, error) {
	var bets []models.Bet
	for rows.Next() {
		var b models.Bet
		if err := rows.Scan(&b.ID, &b.Username, &b.Period, &b.Amount, &b.Side, &b.Color,
			&b.Status, &b.Payout, &b.CreatedAt); err != nil {
			return nil, err
		}
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
