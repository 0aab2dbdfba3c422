package repo

import (
	"context"
	"database/sql"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

type FundingRepo struct{ db *sql.DB }

func NewFundingRepo(db *sql.DB) *FundingRepo { return &FundingRepo{db: db} }

// ---------------- RECHARGES ----------------

func (r *FundingRepo) CreateRecharge(ctx context.Context, rec *models.Recharge) error {
	q := `
INSERT INTO recharges(username, amount, status, upi, utr)
VALUES($1,$2,'pending',$3,$4)
RETURNING id, status, created_at`
	return r.db.QueryRowContext(ctx, q,
		rec.Username, rec.Amount, rec.UPI, rec.UTR,
	).Scan(&rec.ID, &rec.Status, &rec.CreatedAt)
}

func (r *FundingRepo) RechargeByID(ctx context.Context, id int64) (*models.Recharge, error) {
	q := `
SELECT id, username, amount, status, upi, utr, created_at
FROM recharges WHERE id=$1`
	var rec models.Recharge
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.Username, &rec.Amount, &rec.Status, &rec.UPI, &rec.UTR, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdateRechargeStatus flips a pending recharge to its final status and
// reports whether the row actually transitioned, so an approval is never
// credited twice.
func (r *FundingRepo) UpdateRechargeStatus(ctx context.Context, id int64, status models.FundingStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE recharges SET status=$2 WHERE id=$1 AND status='pending'`, id, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *FundingRepo) RechargesByUser(ctx context.Context, username string, limit int) ([]models.Recharge, error) {
	q := `
SELECT id, username, amount, status, upi, utr, created_at
FROM recharges WHERE username=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecharges(rows)
}

func (r *FundingRepo) AllRecharges(ctx context.Context) ([]models.Recharge, error) {
	q := `
SELECT id, username, amount, status, upi, utr, created_at
FROM recharges ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecharges(rows)
}

func scanRecharges(rows *sql.Rows) ([]models.Recharge, error) {
	var recs []models.Recharge
	for rows.Next() {
		var rec models.Recharge
		if err := rows.Scan(&rec.ID, &rec.Username, &rec.Amount, &rec.Status,
			&rec.UPI, &rec.UTR, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// ---------------- WITHDRAWALS ----------------

func (r *FundingRepo) CreateWithdrawal(ctx context.Context, w *models.Withdrawal) error {
	q := `
INSERT INTO withdrawals(username, amount, status, account_number, ifsc_code, account_holder)
VALUES($1,$2,'pending',$3,$4,$5)
RETURNING id, status, created_at`
	return r.db.QueryRowContext(ctx, q,
		w.Username, w.Amount, w.AccountNumber, w.IFSCCode, w.AccountHolder,
	).Scan(&w.ID, &w.Status, &w.CreatedAt)
}

func (r *FundingRepo) UpdateWithdrawalStatus(ctx context.Context, id int64, status models.FundingStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE withdrawals SET status=$2 WHERE id=$1 AND status='pending'`, id, status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *FundingRepo) WithdrawalsByUser(ctx context.Context, username string, limit int) ([]models.Withdrawal, error) {
	q := `
SELECT id, username, amount, status, account_number, ifsc_code, account_holder, created_at
FROM withdrawals WHERE username=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithdrawals(rows)
}

func (r *FundingRepo) AllWithdrawals(ctx context.Context) ([]models.Withdrawal, error) {
	q := `
SELECT id, username, amount, status, account_number, ifsc_code, account_holder, created_at
FROM withdrawals ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWithdrawals(rows)
}

func scanWithdrawals(rows *sql.Rows) ([]models.Withdrawal, error) {
	var ws []models.Withdrawal
	for rows.Next() {
		var w models.Withdrawal
		if err := rows.Scan(&w.ID, &w.Username, &w.Amount, &w.Status,
			&w.AccountNumber, &w.IFSCCode, &w.AccountHolder, &w.CreatedAt); err != nil {
			return nil, err
		}
		ws = append(ws, w)
	}
	return ws, rows.Err()
}
