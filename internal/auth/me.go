package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/logger"
	"github.com/Sajeel041/FIX-POINT/internal/middleware"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

// Me returns the currently authenticated user, with the merchant profile
// for merchants
func (h *Handler) Me(c echo.Context) error {
	u := middleware.CurrentUser(c)
	if u == nil {
		return apperr.Unauthenticatedf("Not authorized, no token")
	}
	if !u.IsMerchant() {
		return c.JSON(http.StatusOK, echo.Map{"user": user.NewView(u)})
	}
	profile, err := h.store.GetProfile(c.Request().Context(), u.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(err, "Failed to load merchant profile")
	}
	return c.JSON(http.StatusOK, echo.Map{"user": user.NewView(u), "profile": profile})
}

type AddRoleRequest struct {
	Role model.Role `json:"role"`
}

// AddRole grants the caller another role. Becoming a merchant creates a
// default profile the merchant can edit later.
func (h *Handler) AddRole(c echo.Context) error {
	current := middleware.CurrentUser(c)
	if current == nil {
		return apperr.Unauthenticatedf("Not authorized, no token")
	}
	var req AddRoleRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	if !req.Role.Valid() {
		return apperr.Validationf("Invalid role")
	}

	var updated *model.User
	err := h.store.Atomically(c.Request().Context(), func(ctx context.Context, tx store.Store) error {
		u, err := tx.AddUserRole(ctx, current.ID, req.Role, h.now())
		if err != nil {
			return err
		}
		updated = u
		if req.Role != model.RoleMerchant {
			return nil
		}
		return EnsureMerchantProfile(ctx, tx, u.ID, h.newID(), h.now())
	})
	if err != nil {
		return apperr.Wrap(err, "Failed to add role")
	}

	logger.FromEcho(c).Info("role added", zap.String("user_id", updated.ID), zap.String("role", string(req.Role)))
	return c.JSON(http.StatusOK, echo.Map{
		"user":    user.NewView(updated),
		"message": fmt.Sprintf("Role %s added successfully", req.Role),
	})
}

// EnsureMerchantProfile creates the default profile for userID unless one
// exists. The read comes first so a transaction never hits the unique index.
func EnsureMerchantProfile(ctx context.Context, s store.Store, userID, profileID string, now time.Time) error {
	_, err := s.GetProfile(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	err = s.CreateProfile(ctx, model.NewMerchantProfile(profileID, userID, model.SkillElectrician, now))
	if errors.Is(err, store.ErrDuplicate) {
		return nil
	}
	return err
}
