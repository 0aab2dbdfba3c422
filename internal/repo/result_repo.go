package repo

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

type ResultRepo struct{ db *sql.DB }

func NewResultRepo(db *sql.DB) *ResultRepo { return &ResultRepo{db: db} }

func (r *ResultRepo) SaveCandle(ctx context.Context, c *models.Candle) error {
	q := `
INSERT INTO chart_data(period, timestamp, open, high, low, close)
VALUES($1,$2,$3,$4,$5,$6)`
	_, err := r.db.ExecContext(ctx, q, c.Period, c.Timestamp, c.Open, c.High, c.Low, c.Close)
	return err
}

func (r *ResultRepo) SaveResult(ctx context.Context, result *models.GameResult) error {
	q := `
INSERT INTO game_results(period, number, price, color)
VALUES($1,$2,$3,$4)
RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, q,
		result.Period, result.Number, result.Price, result.Color,
	).Scan(&result.ID, &result.CreatedAt)
}

// LastClose returns the close of the most recent archived candle, used to
// seed the opening price on startup.
func (r *ResultRepo) LastClose(ctx context.Context) (decimal.Decimal, error) {
	var close decimal.Decimal
	err := r.db.QueryRowContext(ctx,
		`SELECT close FROM chart_data ORDER BY period DESC LIMIT 1`,
	).Scan(&close)
	if err != nil {
		return decimal.Zero, err
	}
	return close, nil
}

func (r *ResultRepo) Results(ctx context.Context, limit int) ([]models.GameResult, error) {
	q := `
SELECT id, period, number, price, color, created_at
FROM game_results ORDER BY period DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.GameResult
	for rows.Next() {
		var g models.GameResult
		if err := rows.Scan(&g.ID, &g.Period, &g.Number, &g.Price, &g.Color, &g.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, g)
	}
	return results, rows.Err()
}

func (r *ResultRepo) Chart(ctx context.Context, limit int) ([]models.Candle, error) {
	q := `
SELECT period, timestamp, open, high, low, close
FROM chart_data ORDER BY period DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Period, &c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}
