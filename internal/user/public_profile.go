package user

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

// Store is what the user routes read and write.
type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetProfile(ctx context.Context, userID string) (*model.MerchantProfile, error)
	UpdateUserContact(ctx context.Context, id, name, phone string, at time.Time) (*model.User, error)
}

type Handler struct {
	store Store
	now   func() time.Time
}

func NewHandler(s Store) *Handler {
	return &Handler{store: s, now: func() time.Time { return time.Now().UTC() }}
}

func (h *Handler) Register(g *echo.Group, auth echo.MiddlewareFunc) {
	g.GET("/user/:id/profile", h.GetPublicProfile)
	g.PATCH("/user/profile", h.UpdateProfile, auth)
}

// GET /user/:id/profile
func (h *Handler) GetPublicProfile(c echo.Context) error {
	ctx := c.Request().Context()
	u, err := h.store.GetUser(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFoundf("User not found")
	}
	if err != nil {
		return apperr.Wrap(err, "Failed to fetch user")
	}

	v := NewView(u)
	profile := PublicProfile{ID: v.ID, Name: v.Name, Role: v.Role, Roles: v.Roles, CreatedAt: v.CreatedAt}
	if u.IsMerchant() {
		p, err := h.store.GetProfile(ctx, u.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return apperr.Wrap(err, "Failed to fetch merchant profile")
		}
		profile.Merchant = p
	}
	return c.JSON(http.StatusOK, profile)
}
