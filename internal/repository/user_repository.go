package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vlecture/vlecture-api/internal/model"
)

// UserRepo persists user records in the 'users' table. All mutations are
// single UPDATE statements so that concurrent requests touching the same row
// cannot observe partial token writes (last write wins at row level).
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,first_name,middle_name,last_name,password_hash,access_token,refresh_token,refresh_expires_at,is_active,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.MiddleName, &u.LastName,
		&u.PasswordHash, &u.AccessToken, &u.RefreshToken, &u.RefreshExpiresAt, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	return u, err
}

// Create inserts a user with an already-hashed password and returns its ID.
// Emails are normalized to lowercase; uniqueness is enforced by the DB.
func (r *UserRepo) Create(ctx context.Context, email, firstName, middleName, lastName, passwordHash string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, email, first_name, middle_name, last_name, password_hash) VALUES (?,?,?,?,?,?)",
		id, email, firstName, middleName, lastName, passwordHash)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrEmailExists
		}
		return "", err
	}
	return id, nil
}

// GetByEmail fetches a user snapshot by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByAccessToken fetches the user currently holding the given access token.
func (r *UserRepo) GetByAccessToken(ctx context.Context, token string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE access_token=? LIMIT 1", token))
}

// GetByRefreshToken fetches the active user holding the given refresh-token
// hash. Inactive (logged-out) users never match, so a cleared session cannot
// renew, and the expiry guard makes an expired token equivalent to none.
func (r *UserRepo) GetByRefreshToken(ctx context.Context, tokenHash string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE refresh_token=? AND is_active=1 AND refresh_expires_at > NOW() LIMIT 1", tokenHash))
}

// SetTokens stores a fresh token pair and marks the user active. The refresh
// token arrives pre-hashed with its expiry. A single statement keeps the pair
// consistent under concurrent logins.
func (r *UserRepo) SetTokens(ctx context.Context, userID, accessToken, refreshHash string, refreshExp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_token=?, refresh_token=?, refresh_expires_at=?, is_active=1 WHERE id=?",
		accessToken, refreshHash, refreshExp, userID)
	return err
}

// SetAccessToken replaces only the access token, leaving the refresh token
// untouched (used by token renewal).
func (r *UserRepo) SetAccessToken(ctx context.Context, userID, accessToken string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_token=? WHERE id=?", accessToken, userID)
	return err
}

// ClearTokensByAccess logs out whoever holds the given access token. Returns
// ErrNotFound when the token matches no active session, which the service
// maps to Unauthorized.
func (r *UserRepo) ClearTokensByAccess(ctx context.Context, accessToken string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_token=NULL, refresh_token=NULL, refresh_expires_at=NULL, is_active=0 WHERE access_token=?",
		accessToken)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearTokens drops both tokens for a user by ID, forcing re-login. Used
// after a password reset.
func (r *UserRepo) ClearTokens(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET access_token=NULL, refresh_token=NULL, refresh_expires_at=NULL, is_active=0 WHERE id=?", userID)
	return err
}

// SetPassword replaces the stored password hash.
func (r *UserRepo) SetPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE id=?", passwordHash, userID)
	return err
}
