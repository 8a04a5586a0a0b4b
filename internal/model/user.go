package model

import "time"

type Role string

const (
	RoleCustomer Role = "customer"
	RoleMerchant Role = "merchant"
)

// Valid reports whether r is a role users may hold.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleMerchant
}

// Roles is the set of roles held by a user. Order is preserved so the first
// granted role stays the primary one.
type Roles []Role

func (rs Roles) Has(r Role) bool {
	for _, have := range rs {
		if have == r {
			return true
		}
	}
	return false
}

// HasAny reports whether the set shares at least one role with want.
func (rs Roles) HasAny(want ...Role) bool {
	for _, r := range want {
		if rs.Has(r) {
			return true
		}
	}
	return false
}

// Add returns the set with r appended, unchanged if already present.
func (rs Roles) Add(r Role) Roles {
	if rs.Has(r) {
		return rs
	}
	out := make(Roles, len(rs), len(rs)+1)
	copy(out, rs)
	return append(out, r)
}

// Primary is the role shown to clients that only understand a single role.
func (rs Roles) Primary() Role {
	if len(rs) == 0 {
		return RoleCustomer
	}
	return rs[0]
}

// NormalizeRoles deduplicates raw and rejects unknown roles. An empty input
// yields the customer role.
func NormalizeRoles(raw []string) (Roles, bool) {
	out := Roles{}
	for _, s := range raw {
		r := Role(s)
		if !r.Valid() {
			return nil, false
		}
		out = out.Add(r)
	}
	if len(out) == 0 {
		out = Roles{RoleCustomer}
	}
	return out, true
}

type User struct {
	ID           string    `json:"_id" bson:"_id"`
	Name         string    `json:"name" bson:"name"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"`
	Roles        Roles     `json:"roles" bson:"roles"`
	Phone        string    `json:"phone,omitempty" bson:"phone,omitempty"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) IsCustomer() bool { return u.Roles.Has(RoleCustomer) }
func (u *User) IsMerchant() bool { return u.Roles.Has(RoleMerchant) }

// Clone returns a copy that shares no slices with u.
func (u *User) Clone() *User {
	c := *u
	c.Roles = append(Roles(nil), u.Roles...)
	return &c
}
