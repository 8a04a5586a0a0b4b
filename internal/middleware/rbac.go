package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/model"
)

// RequireRoles lets the request through when the user holds any of roles.
// Usage: route(..., RequireRoles(model.RoleMerchant))
func RequireRoles(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := CurrentUser(c)
			if u == nil {
				return apperr.Unauthenticatedf("Not authorized, no token")
			}
			if !u.Roles.HasAny(roles...) {
				return apperr.Forbiddenf("User role %s is not authorized to access this route", u.Roles.Primary())
			}
			return next(c)
		}
	}
}
