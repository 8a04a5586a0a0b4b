// Package merchant serves the public merchant directory and lets merchants
// maintain their own profile and portfolio.
package merchant

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/middleware"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

type Store interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetProfile(ctx context.Context, userID string) (*model.MerchantProfile, error)
	ListProfiles(ctx context.Context) ([]*model.MerchantProfile, error)
	SaveProfile(ctx context.Context, p *model.MerchantProfile) error
}

type Handler struct {
	store Store
	now   func() time.Time
}

func NewHandler(s Store) *Handler {
	return &Handler{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Register mounts the directory publicly and the profile writes behind auth
// and the merchant role.
func (h *Handler) Register(g *echo.Group, auth echo.MiddlewareFunc) {
	m := g.Group("/merchants")
	merchantOnly := middleware.RequireRoles(model.RoleMerchant)
	m.GET("", h.List)
	m.POST("/update", h.UpdateProfile, auth, merchantOnly)
	m.POST("/portfolio", h.UpdatePortfolio, auth, merchantOnly)
	m.GET("/:id", h.Get)
}

// Entry is a profile with its owner expanded in place of the user id.
type Entry struct {
	*model.MerchantProfile
	User *user.Contact `json:"userId"`
}

func entry(ctx context.Context, contacts *user.Contacts, p *model.MerchantProfile) (Entry, error) {
	ct, err := contacts.Get(ctx, p.UserID)
	if err != nil {
		return Entry{}, err
	}
	return Entry{MerchantProfile: p, User: ct}, nil
}

// GET /merchants
// Optional filters: skillCategory, availability, limit (max 100), offset.
// Ordered by rating, then newest.
func (h *Handler) List(c echo.Context) error {
	ctx := c.Request().Context()
	skill := model.SkillCategory(c.QueryParam("skillCategory"))
	if skill != "" && !skill.Valid() {
		return apperr.Validationf("Invalid skill category")
	}
	availability := model.Availability(c.QueryParam("availability"))
	if availability != "" && !availability.Valid() {
		return apperr.Validationf("availability must be online or offline")
	}
	limit := 0
	if l := c.QueryParam("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	offset := 0
	if o := c.QueryParam("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}

	profiles, err := h.store.ListProfiles(ctx)
	if err != nil {
		return apperr.Wrap(err, "Failed to fetch merchants")
	}
	matched := profiles[:0]
	for _, p := range profiles {
		if skill != "" && p.SkillCategory != skill {
			continue
		}
		if availability != "" && p.Availability != availability {
			continue
		}
		matched = append(matched, p)
	}
	if offset >= len(matched) {
		matched = matched[:0]
	} else {
		matched = matched[offset:]
	}
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	contacts := user.NewContacts(h.store)
	out := make([]Entry, 0, len(matched))
	for _, p := range matched {
		e, err := entry(ctx, contacts, p)
		if err != nil {
			return apperr.Wrap(err, "Failed to fetch merchants")
		}
		out = append(out, e)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /merchants/:id looks the profile up by the owner's user id.
func (h *Handler) Get(c echo.Context) error {
	ctx := c.Request().Context()
	p, err := h.store.GetProfile(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFoundf("Merchant not found")
	}
	if err != nil {
		return apperr.Wrap(err, "Failed to fetch merchant")
	}
	e, err := entry(ctx, user.NewContacts(h.store), p)
	if err != nil {
		return apperr.Wrap(err, "Failed to fetch merchant")
	}
	return c.JSON(http.StatusOK, e)
}

// ownProfile loads the caller's profile for an update.
func (h *Handler) ownProfile(c echo.Context) (*model.MerchantProfile, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, apperr.Unauthenticatedf("Not authorized, no token")
	}
	p, err := h.store.GetProfile(c.Request().Context(), u.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFoundf("Merchant profile not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to fetch merchant profile")
	}
	return p, nil
}
