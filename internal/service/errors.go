// Package service contains the business logic for the identity lifecycle and
// email verification. Handlers translate the sentinel errors defined here
// into HTTP status codes; the services themselves never touch the HTTP layer.
package service

import "errors"

var (
	// ErrDuplicateUser is returned when registering an email that already
	// has an account. Maps to 409.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrNotFound is returned when a user lookup by email matches nothing.
	// Maps to 404.
	ErrNotFound = errors.New("user not found")

	// ErrUnauthorized covers bad credentials and unknown or revoked
	// session tokens. Maps to 401.
	ErrUnauthorized = errors.New("invalid credentials")

	// ErrInvalidToken is returned for OTP or reset-token mismatches and
	// expired/used reset tokens. Maps to 401.
	ErrInvalidToken = errors.New("invalid token")

	// ErrValidation is returned for malformed input such as a bad email
	// address or missing required fields. Maps to 422.
	ErrValidation = errors.New("validation error")

	// ErrDelivery is returned when the mail collaborator fails. Maps to 502.
	ErrDelivery = errors.New("mail delivery failed")

	// ErrConflict is returned when issuing a verification code for an email
	// that already belongs to a registered user, or when the send rate limit
	// is exceeded. Maps to 409.
	ErrConflict = errors.New("conflict")
)
