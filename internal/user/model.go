// Package user shapes user records for API responses and serves the public
// profile and contact update routes.
package user

import (
	"time"

	"github.com/Sajeel041/FIX-POINT/internal/model"
)

// View is the user as returned to clients. Role is the primary role, kept
// for clients that predate multi-role accounts; it is not stored.
type View struct {
	ID        string      `json:"_id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      model.Role  `json:"role"`
	Roles     model.Roles `json:"roles"`
	Phone     string      `json:"phone,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func NewView(u *model.User) View {
	roles := u.Roles
	if len(roles) == 0 {
		roles = model.Roles{model.RoleCustomer}
	}
	return View{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      roles.Primary(),
		Roles:     roles,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}

// PublicProfile omits contact details.
type PublicProfile struct {
	ID        string                 `json:"_id"`
	Name      string                 `json:"name"`
	Role      model.Role             `json:"role"`
	Roles     model.Roles            `json:"roles"`
	CreatedAt time.Time              `json:"createdAt"`
	Merchant  *model.MerchantProfile `json:"merchantProfile,omitempty"`
}
