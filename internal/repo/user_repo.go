package repo

import (
	"context"
	"database/sql"

	"github.com/prabhuzz00/ColorWavePrediction/internal/models"
)

type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Create(ctx context.Context, username, passwordHash, usercode string) (*models.User, error) {
	q := `
INSERT INTO users(username, password_hash, usercode, balance, bonus, blocked)
VALUES($1,$2,$3,0,0,false)
RETURNING id, username, balance, bonus, usercode, blocked, created_at, updated_at`
	var u models.User
	err := r.db.QueryRowContext(ctx, q, username, passwordHash, usercode).Scan(
		&u.ID, &u.Username, &u.Balance, &u.Bonus, &u.Usercode, &u.Blocked, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	q := `
SELECT id, username, balance, bonus, usercode, blocked, created_at, updated_at
FROM users WHERE username=$1`
	var u models.User
	err := r.db.QueryRowContext(ctx, q, username).Scan(
		&u.ID, &u.Username, &u.Balance, &u.Bonus, &u.Usercode, &u.Blocked, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetCredentials returns the stored bcrypt hash alongside the profile,
// used only by the login handler.
func (r *UserRepo) GetCredentials(ctx context.Context, username string) (*models.User, string, error) {
	q := `
SELECT id, username, password_hash, balance, bonus, usercode, blocked, created_at, updated_at
FROM users WHERE username=$1`
	var (
		u    models.User
		hash string
	)
	err := r.db.QueryRowContext(ctx, q, username).Scan(
		&u.ID, &u.Username, &hash, &u.Balance, &u.Bonus, &u.Usercode, &u.Blocked, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

func (r *UserRepo) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username=$1)`, username,
	).Scan(&exists)
	return exists, err
}
