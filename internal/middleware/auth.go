// Package middleware provides shared request processing for handlers:
// the auth gate, role checks, rate limiting and catalog caching.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/model-marketplace/internal/repository"
	"github.com/iliyamo/model-marketplace/internal/utils"
)

// UserStore resolves the user referenced by a token. Implemented by
// repository.UserRepo; tests substitute a fake.
type UserStore interface {
	GetByID(ctx context.Context, id uint64) (repository.User, error)
}

// AuthGate returns an Echo middleware that validates a Bearer access token
// and resolves the referenced user. Absent, malformed or expired tokens,
// and tokens referencing a user that no longer exists, are all rejected
// with 401 and no side effects. On success the resolved identity is stored
// in the request context under "user_id", "username" and "role"; the role
// comes from the user row, never from the cached token claim.
func AuthGate(secret string, users UserStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "please authenticate"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			uid, _, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "please authenticate"})
			}
			u, err := users.GetByID(c.Request().Context(), uid)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "please authenticate"})
			}

			c.Set("user_id", u.ID)
			c.Set("username", u.Username)
			c.Set("role", u.Role)
			return next(c)
		}
	}
}
