package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/vlecture/vlecture-api/internal/config"
	"github.com/vlecture/vlecture-api/internal/model"
	"github.com/vlecture/vlecture-api/internal/queue"
	"github.com/vlecture/vlecture-api/internal/repository"
	"github.com/vlecture/vlecture-api/internal/utils"
)

// UserStore is the credential store consumed by AuthService. The SQL
// implementation lives in internal/repository; tests supply fakes.
type UserStore interface {
	Create(ctx context.Context, email, firstName, middleName, lastName, passwordHash string) (string, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByAccessToken(ctx context.Context, token string) (model.User, error)
	GetByRefreshToken(ctx context.Context, tokenHash string) (model.User, error)
	SetTokens(ctx context.Context, userID, accessToken, refreshHash string, refreshExp time.Time) error
	SetAccessToken(ctx context.Context, userID, accessToken string) error
	ClearTokensByAccess(ctx context.Context, accessToken string) error
	ClearTokens(ctx context.Context, userID string) error
	SetPassword(ctx context.Context, userID, passwordHash string) error
}

// ResetStore persists password-reset tokens.
type ResetStore interface {
	Store(ctx context.Context, userID, tokenHash string, exp time.Time) error
	Consume(ctx context.Context, tokenHash string) (string, error)
}

// Mailer delivers outbound email. Failures surface as ErrDelivery.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher emits audit events. Publishing is best effort: errors are logged
// and never fail the request.
type Publisher interface {
	Publish(ctx context.Context, ev queue.AuthEvent) error
}

// TokenPair bundles a short-lived access token and a long-lived refresh
// token, each with its expiry.
type TokenPair struct {
	AccessToken  string
	AccessExp    time.Time
	RefreshToken string
	RefreshExp   time.Time
}

// AuthService implements the identity lifecycle: register, login, logout,
// access-token renewal and the forgot/reset password flow.
type AuthService struct {
	cfg    config.Config
	users  UserStore
	resets ResetStore
	mailer Mailer
	events Publisher
}

func NewAuthService(cfg config.Config, users UserStore, resets ResetStore, mailer Mailer, events Publisher) *AuthService {
	return &AuthService{cfg: cfg, users: users, resets: resets, mailer: mailer, events: events}
}

const resetTokenTTL = 30 * time.Minute

// NormalizeEmail lowercases and trims an address. Emails are stored and
// compared in this form, so User@x.com and user@x.com are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" || len(email) > 255 {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

// Register creates a user with a bcrypt-hashed password and returns the
// stored snapshot. The raw password is never persisted or logged.
func (s *AuthService) Register(ctx context.Context, email, firstName, middleName, lastName, password string) (model.User, error) {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return model.User{}, fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if firstName == "" || lastName == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: first name, last name and password are required", ErrValidation)
	}
	if len(firstName) > 255 || len(middleName) > 255 || len(lastName) > 255 {
		return model.User{}, fmt.Errorf("%w: name fields must be at most 255 characters", ErrValidation)
	}

	hash, err := utils.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return model.User{}, err
	}
	id, err := s.users.Create(ctx, email, firstName, middleName, lastName, hash)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return model.User{}, ErrDuplicateUser
		}
		return model.User{}, err
	}

	s.publish(ctx, queue.AuthEvent{Type: queue.EventUserRegistered, UserID: id, Email: email, OccurredAt: time.Now().UTC().Format(time.RFC3339)})

	return s.users.GetByEmail(ctx, email)
}

// Login verifies credentials and mints a fresh token pair, overwriting any
// prior pair on the user row (single active session, last login wins).
func (s *AuthService) Login(ctx context.Context, email, password string) (model.User, TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.User{}, TokenPair{}, ErrNotFound
		}
		return model.User{}, TokenPair{}, err
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, TokenPair{}, ErrUnauthorized
	}

	pair, err := s.issuePair(ctx, u.ID)
	if err != nil {
		return model.User{}, TokenPair{}, err
	}
	// Mirror what issuePair just persisted: the raw refresh token lives only
	// in the returned pair, the row holds its hash.
	hash := utils.HashToken(pair.RefreshToken)
	u.AccessToken = &pair.AccessToken
	u.RefreshToken = &hash
	u.RefreshExpiresAt = &pair.RefreshExp
	u.IsActive = true
	return u, pair, nil
}

// Logout clears both tokens for whoever holds the access token and marks the
// user inactive. An unknown token yields ErrUnauthorized.
func (s *AuthService) Logout(ctx context.Context, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return ErrUnauthorized
	}
	err := s.users.ClearTokensByAccess(ctx, accessToken)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnauthorized
	}
	return err
}

// Renew issues a new access token for the active user holding the refresh
// token. The lookup is by hash and rejects expired tokens, so an unknown,
// revoked or expired refresh token all come back as ErrUnauthorized. The
// refresh token itself is not rotated.
func (s *AuthService) Renew(ctx context.Context, refreshToken string) (utils.AccessToken, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return utils.AccessToken{}, ErrUnauthorized
	}
	u, err := s.users.GetByRefreshToken(ctx, utils.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return utils.AccessToken{}, ErrUnauthorized
		}
		return utils.AccessToken{}, err
	}
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, u.ID, s.cfg.AccessTTLMin)
	if err != nil {
		return utils.AccessToken{}, err
	}
	if err := s.users.SetAccessToken(ctx, u.ID, access.Token); err != nil {
		return utils.AccessToken{}, err
	}
	return access, nil
}

// ForgotPassword issues a single-use reset token and mails it to the user.
// Unknown emails return nil without sending anything, so the endpoint does
// not reveal which addresses have accounts. If delivery fails after the
// token row is written, the row stays valid so a resend can reuse the flow.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	tok, err := utils.NewOpaqueToken(resetTokenTTL)
	if err != nil {
		return err
	}
	if err := s.resets.Store(ctx, u.ID, utils.HashToken(tok.Raw), tok.Exp); err != nil {
		return err
	}

	body := fmt.Sprintf("Use this token to reset your vlecture password: %s\nIt expires in %d minutes.",
		tok.Raw, int(resetTokenTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, "Reset your password", body); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password hash.
// Existing sessions are invalidated so the user must log in again.
func (s *AuthService) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if strings.TrimSpace(rawToken) == "" || newPassword == "" {
		return fmt.Errorf("%w: token and new password are required", ErrValidation)
	}
	userID, err := s.resets.Consume(ctx, utils.HashToken(rawToken))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidToken
		}
		return err
	}
	hash, err := utils.HashPassword(newPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.users.ClearTokens(ctx, userID); err != nil {
		return err
	}
	s.publish(ctx, queue.AuthEvent{Type: queue.EventPasswordReset, UserID: userID, OccurredAt: time.Now().UTC().Format(time.RFC3339)})
	return nil
}

func (s *AuthService) issuePair(ctx context.Context, userID string) (TokenPair, error) {
	access, err := utils.NewAccessToken(s.cfg.JWTSecret, userID, s.cfg.AccessTTLMin)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := utils.NewOpaqueToken(time.Duration(s.cfg.RefreshTTLDays) * 24 * time.Hour)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.users.SetTokens(ctx, userID, access.Token, utils.HashToken(refresh.Raw), refresh.Exp); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access.Token,
		AccessExp:    access.Exp,
		RefreshToken: refresh.Raw,
		RefreshExp:   refresh.Exp,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, ev queue.AuthEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Printf("auth: publish %s event failed: %v", ev.Type, err)
	}
}
