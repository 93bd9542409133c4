package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/vlecture/vlecture-api/internal/config"
	"github.com/vlecture/vlecture-api/internal/repository"
	"github.com/vlecture/vlecture-api/internal/utils"
)

// OTPStore is the verification-code ledger consumed by VerificationService.
// The Redis implementation lives in internal/repository.
type OTPStore interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
	IncrSends(ctx context.Context, email string, window time.Duration) (int64, error)
}

// VerificationService drives the email OTP lifecycle: issue a code, deliver
// it, and check it exactly once. Verification happens before registration,
// so codes are keyed by email rather than by user.
type VerificationService struct {
	cfg    config.Config
	users  UserStore
	ledger OTPStore
	mailer Mailer
}

func NewVerificationService(cfg config.Config, users UserStore, ledger OTPStore, mailer Mailer) *VerificationService {
	return &VerificationService{cfg: cfg, users: users, ledger: ledger, mailer: mailer}
}

const (
	otpLength     = 6
	otpTTL        = 10 * time.Minute
	otpSendWindow = time.Hour
	otpSendLimit  = 5
)

// Issue generates a fresh code for the email, stores it (replacing any
// outstanding code) and mails it. Fails with ErrConflict when the address
// already belongs to a registered user or the send limit is hit, and with
// ErrDelivery when the mail collaborator fails, in which case the stored
// code is rolled back so no half-committed code lingers.
func (s *VerificationService) Issue(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if !validEmail(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	sends, err := s.ledger.IncrSends(ctx, email, otpSendWindow)
	if err != nil {
		return err
	}
	if sends > otpSendLimit {
		return fmt.Errorf("%w: too many verification emails, try again later", ErrConflict)
	}

	code, err := utils.NumericCode(otpLength)
	if err != nil {
		return err
	}
	if err := s.ledger.Put(ctx, email, code, otpTTL); err != nil {
		return err
	}

	body := fmt.Sprintf("Your vlecture verification code is %s. It expires in %d minutes.",
		code, int(otpTTL.Minutes()))
	if err := s.mailer.Send(ctx, email, "Verify your email", body); err != nil {
		if delErr := s.ledger.Delete(ctx, email); delErr != nil {
			log.Printf("verification: rollback code for %s failed: %v", email, delErr)
		}
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}

// Check compares a candidate code against the outstanding one. A mismatch
// keeps the code in place so the user may retry; a match consumes it, so a
// second check with the same code fails with ErrNotFound.
func (s *VerificationService) Check(ctx context.Context, email, candidate string) error {
	email = NormalizeEmail(email)
	stored, err := s.ledger.Get(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !utils.TokensEqual(candidate, stored) {
		return ErrInvalidToken
	}
	return s.ledger.Delete(ctx, email)
}
