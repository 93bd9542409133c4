package utils // package utils provides helper functions for token creation and comparison

import (
	"crypto/rand"    // secure random number generation
	"crypto/sha256"  // SHA-256 hashing for refresh and reset tokens
	"crypto/subtle"  // constant-time comparison
	"encoding/base64" // URL-safe encoding of opaque tokens
	"encoding/hex"   // hex encoding for token hashes
	"math/big"       // uniform random digits for OTP codes
	"time"           // expiration handling

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed access tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// Access tokens are short-lived, persisted on the user row, and sent in the
// Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// OpaqueToken is a long-lived random credential (refresh or password-reset
// token). The Raw value goes back to the client; server-side persistence of
// reset tokens keeps only a SHA-256 hash.
type OpaqueToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. It takes the
// signing secret, the user ID and a TTL in minutes, and returns the signed
// token together with its expiration time. Claims: subject (sub), expiration
// (exp) and issued at (iat).
func NewAccessToken(secret, userID string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"iat": time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewOpaqueToken returns a cryptographically random URL-safe token and its
// expiration time. Used for refresh tokens (TTL in days) and password-reset
// tokens.
func NewOpaqueToken(ttl time.Duration) (OpaqueToken, error) {
	raw, err := RandomToken(32) // 32 bytes -> 43 URL-safe chars
	if err != nil {
		return OpaqueToken{}, err
	}
	return OpaqueToken{Raw: raw, Exp: time.Now().UTC().Add(ttl)}, nil
}

// RandomToken returns a URL-safe string generated from n bytes of
// cryptographically secure random data.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NumericCode returns a fixed-length numeric one-time code. Each digit is
// drawn uniformly from crypto/rand so the code is unguessable.
func NumericCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		code[i] = byte(n.Int64()) + '0'
	}
	return string(code), nil
}

// TokensEqual compares a candidate token against the stored value in
// constant time.
func TokensEqual(candidate, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(stored)) == 1
}

// HashToken returns the SHA-256 hash of a raw token as a hex string. Storing
// only the hash prevents attackers from using stolen database entries to
// reset passwords or refresh sessions.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
