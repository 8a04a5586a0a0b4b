package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

const userKey = "user"

type TokenParser interface {
	Parse(token string) (string, error)
}

type UserLookup interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// Authenticate resolves the bearer token to the full user record and stores
// it on the context. Browsers cannot set headers on websocket upgrades, so a
// token query parameter is accepted as well.
func Authenticate(tokens TokenParser, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return apperr.Unauthenticatedf("Not authorized, no token")
			}
			userID, err := tokens.Parse(raw)
			if err != nil {
				return apperr.Unauthenticatedf("Not authorized, token failed")
			}
			u, err := users.GetUser(c.Request().Context(), userID)
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Unauthenticatedf("Not authorized, user not found")
			}
			if err != nil {
				return apperr.Wrap(err, "Failed to load user")
			}

			c.Set(userKey, u)
			c.Set("user_id", u.ID)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return c.QueryParam("token")
}

// CurrentUser returns the authenticated user, nil on public routes.
func CurrentUser(c echo.Context) *model.User {
	u, _ := c.Get(userKey).(*model.User)
	return u
}
