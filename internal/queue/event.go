// Package queue defines audit events exchanged over the message broker and
// the publisher/consumer pair that moves them.
package queue

// Event types published to the auth.events queue.
const (
	EventUserRegistered = "user.registered"
	EventPasswordReset  = "password.reset"
)

// AuthEvent is published when an identity-lifecycle action completes. It
// carries enough information for downstream consumers to log or notify
// without querying the primary database. No secrets (passwords, tokens,
// codes) are ever included.
type AuthEvent struct {
	Type       string `json:"type"`
	UserID     string `json:"user_id"`
	Email      string `json:"email,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
