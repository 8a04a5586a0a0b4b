package user

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/middleware"
)

// Absent fields keep their current value.
type UpdateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,min=1,max=100"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
}

// PATCH /user/profile
func (h *Handler) UpdateProfile(c echo.Context) error {
	current := middleware.CurrentUser(c)
	if current == nil {
		return apperr.Unauthenticatedf("Not authorized, no token")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	name, phone := current.Name, current.Phone
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return apperr.Validationf("name cannot be empty")
		}
	}
	if req.Phone != nil {
		phone = strings.TrimSpace(*req.Phone)
	}

	u, err := h.store.UpdateUserContact(c.Request().Context(), current.ID, name, phone, h.now())
	if err != nil {
		return apperr.Wrap(err, "Failed to update profile")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user":    NewView(u),
		"message": "Profile updated successfully",
	})
}
