package model

import "time"

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. The json tags are omitted here because these structs
// are primarily used internally by the repository layer; handlers
// define separate response types with appropriate JSON tags.
//
// AccessToken and RefreshToken are nullable: a user with a NULL
// access token is considered logged out. Only the SHA-256 hash of
// the refresh token is stored; the raw value exists client-side
// only. Repositories return value snapshots of this struct;
// mutations go through explicit update operations rather than
// writes to a shared instance.
//
// Fields:
//  ID               – UUID primary key of the user.
//  Email            – unique email address, stored lowercase.
//  FirstName        – given name.
//  MiddleName       – middle name (may be empty).
//  LastName         – family name.
//  PasswordHash     – bcrypt hashed password.
//  AccessToken      – current access token (nil when logged out).
//  RefreshToken     – SHA-256 hex digest of the current refresh
//                     token (nil when logged out).
//  RefreshExpiresAt – when the refresh token stops renewing.
//  IsActive         – whether the user has an active session.
//  CreatedAt        – timestamp of creation.
//  UpdatedAt        – timestamp of last update.
type User struct {
	ID               string     // users.id (CHAR(36) UUID)
	Email            string     // users.email
	FirstName        string     // users.first_name
	MiddleName       string     // users.middle_name
	LastName         string     // users.last_name
	PasswordHash     string     // users.password_hash
	AccessToken      *string    // users.access_token (nullable)
	RefreshToken     *string    // users.refresh_token (nullable, sha256 hex)
	RefreshExpiresAt *time.Time // users.refresh_expires_at (nullable)
	IsActive         bool       // users.is_active
	CreatedAt        time.Time  // users.created_at
	UpdatedAt        time.Time  // users.updated_at
}

// PasswordReset models an entry in the `password_resets` table.
// Each reset token belongs to a user; only the SHA-256 hash of the
// raw token is stored.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  UsedAt    – when the token was consumed (null if still unused).
//  CreatedAt – timestamp of creation.
type PasswordReset struct {
	ID        uint64     // password_resets.id
	UserID    string     // password_resets.user_id
	TokenHash string     // password_resets.token_hash
	ExpiresAt time.Time  // password_resets.expires_at
	UsedAt    *time.Time // password_resets.used_at (nullable)
	CreatedAt time.Time  // password_resets.created_at
}
