package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPRepo stores one-time verification codes in Redis, keyed by email.
// Expiry is delegated to Redis TTLs; a new code for the same email simply
// overwrites the previous one, so at most one code is valid per address.
type OTPRepo struct{ RDB *redis.Client }

func NewOTPRepo(rdb *redis.Client) *OTPRepo { return &OTPRepo{RDB: rdb} }

const (
	otpKeyPrefix  = "otp:code:"
	sendKeyPrefix = "otp:sends:"
)

// Put stores a verification code for an email with the given TTL, replacing
// any outstanding code.
func (r *OTPRepo) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	return r.RDB.Set(ctx, otpKeyPrefix+email, code, ttl).Err()
}

// Get returns the outstanding code for an email, or ErrNotFound when none
// exists (never issued, consumed, or expired).
func (r *OTPRepo) Get(ctx context.Context, email string) (string, error) {
	code, err := r.RDB.Get(ctx, otpKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return code, err
}

// Delete removes the outstanding code for an email. Deleting a missing key
// is not an error.
func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	return r.RDB.Del(ctx, otpKeyPrefix+email).Err()
}

// IncrSends counts issuance attempts per email inside a rolling window and
// returns the new count. The window starts with the first send; callers
// compare the count against their limit.
func (r *OTPRepo) IncrSends(ctx context.Context, email string, window time.Duration) (int64, error) {
	key := sendKeyPrefix + email
	n, err := r.RDB.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := r.RDB.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}
