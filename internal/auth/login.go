package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/store"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ===== Login =====
func (h *Handler) Login(c echo.Context) error {
	req := new(LoginRequest)
	if err := c.Bind(req); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return apperr.Validationf("Email and password are required")
	}

	u, err := h.store.GetUserByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.Unauthenticatedf("Invalid credentials")
	}
	if err != nil {
		return apperr.Wrap(err, "Login failed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return apperr.Unauthenticatedf("Invalid credentials")
	}

	token, err := h.tokens.Issue(u.ID)
	if err != nil {
		return apperr.Wrap(err, "Token generation failed")
	}
	return c.JSON(http.StatusOK, AuthResponse{View: user.NewView(u), Token: token})
}
