// Package auth registers and logs in users and manages their roles.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/logger"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// Welcomer is told about new accounts.
type Welcomer interface {
	Welcome(ctx context.Context, u *model.User)
}

type Handler struct {
	store   store.Store
	tokens  TokenIssuer
	welcome Welcomer
	cost    int
	now     func() time.Time
	newID   func() string
}

type Option func(*Handler)

func WithWelcomer(w Welcomer) Option {
	return func(h *Handler) { h.welcome = w }
}

// WithBcryptCost overrides bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(h *Handler) { h.cost = cost }
}

func NewHandler(s store.Store, tokens TokenIssuer, opts ...Option) *Handler {
	h := &Handler{
		store:  s,
		tokens: tokens,
		cost:   bcrypt.DefaultCost,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the public auth routes on public and the authenticated
// ones behind auth. limit throttles the credential endpoints.
func (h *Handler) Register(g *echo.Group, auth, limit echo.MiddlewareFunc) {
	a := g.Group("/auth")
	a.POST("/register", h.Signup, limit)
	a.POST("/login", h.Login, limit)
	a.GET("/me", h.Me, auth)
	a.POST("/add-role", h.AddRole, auth)
}

type MerchantData struct {
	SkillCategory   string `json:"skillCategory" validate:"omitempty,skill"`
	YearsExperience int    `json:"yearsExperience" validate:"gte=0,lte=80"`
	About           string `json:"about" validate:"max=500"`
	CNIC            string `json:"cnic" validate:"max=20"`
	ProfilePicture  string `json:"profilePicture"`
}

type SignupRequest struct {
	Name         string        `json:"name" validate:"required,max=100"`
	Email        string        `json:"email" validate:"required,email"`
	Password     string        `json:"password" validate:"required,min=6"`
	Role         string        `json:"role"`
	Roles        []string      `json:"roles"`
	Phone        string        `json:"phone" validate:"max=20"`
	MerchantData *MerchantData `json:"merchantData"`
}

// AuthResponse is the user view plus a bearer token.
type AuthResponse struct {
	user.View
	Token string `json:"token"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ===== Signup =====
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	if err := c.Validate(req); err != nil {
		return err
	}

	// roles[] wins over the legacy single role field
	raw := req.Roles
	if len(raw) == 0 && req.Role != "" {
		raw = []string{req.Role}
	}
	roles, ok := model.NormalizeRoles(raw)
	if !ok {
		return apperr.Validationf("Invalid role")
	}

	ctx := c.Request().Context()
	if _, err := h.store.GetUserByEmail(ctx, req.Email); err == nil {
		return apperr.Validationf("User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(err, "Failed to register user")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), h.cost)
	if err != nil {
		return apperr.Wrap(err, "Server error")
	}

	now := h.now()
	u := &model.User{
		ID:           h.newID(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Roles:        roles,
		Phone:        strings.TrimSpace(req.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = h.store.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		if !u.IsMerchant() {
			return nil
		}
		return tx.CreateProfile(ctx, h.newProfile(u.ID, req.MerchantData, now))
	})
	if errors.Is(err, store.ErrDuplicate) {
		return apperr.Validationf("User already exists")
	}
	if err != nil {
		return apperr.Wrap(err, "Failed to register user")
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		return apperr.Wrap(err, "Token generation failed")
	}
	logger.FromEcho(c).Info("user registered", zap.String("user_id", u.ID), zap.Strings("roles", roleStrings(u.Roles)))
	if h.welcome != nil {
		h.welcome.Welcome(ctx, u)
	}
	return c.JSON(http.StatusCreated, AuthResponse{View: user.NewView(u), Token: token})
}

// newProfile builds the merchant profile from the signup data, or the
// default one when none was sent.
func (h *Handler) newProfile(userID string, data *MerchantData, now time.Time) *model.MerchantProfile {
	if data == nil {
		return model.NewMerchantProfile(h.newID(), userID, model.SkillElectrician, now)
	}
	p := model.NewMerchantProfile(h.newID(), userID, model.SkillCategory(data.SkillCategory), now)
	p.YearsExperience = data.YearsExperience
	p.About = strings.TrimSpace(data.About)
	p.CNIC = strings.TrimSpace(data.CNIC)
	p.ProfilePicture = data.ProfilePicture
	return p
}

func roleStrings(rs model.Roles) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
