package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for parsing and validating tokens
	"github.com/labstack/echo/v4"  // Echo framework used for defining middleware and handlers

	"github.com/vlecture/vlecture-api/internal/model"
)

// UserLookup loads the user currently holding an access token. Satisfied by
// *repository.UserRepo.
type UserLookup interface {
	GetByAccessToken(ctx context.Context, token string) (model.User, error)
}

// Auth returns an Echo middleware that validates a Bearer access token and
// injects the owning user into the request context under "user". Validation
// is two-step: the JWT signature must verify against the issuing secret, and
// the token must still be the one persisted on the user row. A token
// cleared by logout or overwritten by a newer login no longer authenticates,
// even before its JWT expiry.
func Auth(secret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.Trim(strings.TrimPrefix(auth, "Bearer "), `"`)

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				// Reject tokens signed with anything but HMAC.
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByAccessToken(ctx, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session revoked"})
			}

			c.Set("user", u)
			c.Set("user_id", u.ID)
			return next(c)
		}
	}
}
