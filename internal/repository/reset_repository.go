package repository

import (
	"context"
	"database/sql"
	"time"
)

// ResetRepo persists password-reset tokens (single 'token_hash' column, the
// raw token is never stored).
type ResetRepo struct{ DB *sql.DB }

func NewResetRepo(db *sql.DB) *ResetRepo { return &ResetRepo{DB: db} }

// Store inserts a reset token hash row for a user.
func (r *ResetRepo) Store(ctx context.Context, userID, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO password_resets (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp)
	return err
}

// Consume atomically claims an unused, unexpired token and returns the owning
// user ID. The claim is a single UPDATE guarded on used_at/expires_at, so two
// concurrent resets with the same token cannot both succeed.
func (r *ResetRepo) Consume(ctx context.Context, tokenHash string) (string, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE password_resets SET used_at=NOW() WHERE token_hash=? AND used_at IS NULL AND expires_at > NOW()",
		tokenHash)
	if err != nil {
		return "", err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", ErrNotFound
	}
	var userID string
	err = r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM password_resets WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}
