package repo

import (
	"context"
	"database/sql"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

// TransactionRepo reads the append-only ledger log. Writes happen inside
// the ledger's own database transactions, never here.
type TransactionRepo struct{ db *sql.DB }

func NewTransactionRepo(db *sql.DB) *TransactionRepo { return &TransactionRepo{db: db} }

func (r *TransactionRepo) ByUser(ctx context.Context, username string, limit int) ([]models.Transaction, error) {
	q := `
SELECT id, username, reason, amount, type, created_at
FROM transactions WHERE username=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.QueryContext(ctx, q, username, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Username, &t.Reason, &t.Amount, &t.Type, &t.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
