package merchant

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/logger"
	"github.com/Sajeel041/FIX-POINT/internal/model"
)

// Absent fields keep their current value.
type UpdateProfileRequest struct {
	SkillCategory   *string  `json:"skillCategory" validate:"omitempty,skill"`
	YearsExperience *int     `json:"yearsExperience" validate:"omitempty,gte=0,lte=80"`
	About           *string  `json:"about" validate:"omitempty,max=500"`
	Price           *float64 `json:"price" validate:"omitempty,gte=0"`
	Availability    *string  `json:"availability" validate:"omitempty,availability"`
	Certifications  []string `json:"certifications" validate:"omitempty,max=20,dive,max=200"`
}

// POST /merchants/update
func (h *Handler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, err := h.ownProfile(c)
	if err != nil {
		return err
	}

	if req.SkillCategory != nil && *req.SkillCategory != "" {
		p.SkillCategory = model.SkillCategory(*req.SkillCategory)
	}
	if req.YearsExperience != nil {
		p.YearsExperience = *req.YearsExperience
	}
	if req.About != nil {
		p.About = strings.TrimSpace(*req.About)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Availability != nil && *req.Availability != "" {
		p.Availability = model.Availability(*req.Availability)
	}
	if req.Certifications != nil {
		p.Certifications = req.Certifications
	}
	p.UpdatedAt = h.now()

	if err := h.store.SaveProfile(c.Request().Context(), p); err != nil {
		return apperr.Wrap(err, "Failed to update merchant profile")
	}
	logger.FromEcho(c).Info("merchant profile updated", zap.String("user_id", p.UserID))
	return c.JSON(http.StatusOK, p)
}

type PortfolioRequest struct {
	ProfilePicture     string   `json:"profilePicture" validate:"omitempty,max=2048"`
	PreviousWorkImages []string `json:"previousWorkImages" validate:"omitempty,max=30,dive,required,max=2048"`
}

// POST /merchants/portfolio replaces the picture and the work images when
// they are sent.
func (h *Handler) UpdatePortfolio(c echo.Context) error {
	var req PortfolioRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validationf("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	p, err := h.ownProfile(c)
	if err != nil {
		return err
	}

	if req.ProfilePicture != "" {
		p.ProfilePicture = req.ProfilePicture
	}
	if req.PreviousWorkImages != nil {
		p.PreviousWorkImages = req.PreviousWorkImages
	}
	p.UpdatedAt = h.now()

	if err := h.store.SaveProfile(c.Request().Context(), p); err != nil {
		return apperr.Wrap(err, "Failed to update portfolio")
	}
	return c.JSON(http.StatusOK, p)
}
