package user

import (
	"context"
	"errors"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

// Contact is a user as embedded in another record in place of its id.
type Contact struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func ContactOf(u *model.User) *Contact {
	return &Contact{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone}
}

type Getter interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// Contacts resolves user ids for one response. Each id is looked up once; a
// user that no longer exists resolves to a contact carrying only the id.
type Contacts struct {
	users Getter
	seen  map[string]*Contact
}

func NewContacts(users Getter) *Contacts {
	return &Contacts{users: users, seen: make(map[string]*Contact)}
}

func (c *Contacts) Get(ctx context.Context, id string) (*Contact, error) {
	if id == "" {
		return nil, nil
	}
	if ct, ok := c.seen[id]; ok {
		return ct, nil
	}
	u, err := c.users.GetUser(ctx, id)
	var ct *Contact
	switch {
	case errors.Is(err, store.ErrNotFound):
		ct = &Contact{ID: id}
	case err != nil:
		return nil, err
	default:
		ct = ContactOf(u)
	}
	c.seen[id] = ct
	return ct, nil
}

// Optional resolves id when it is set.
func (c *Contacts) Optional(ctx context.Context, id *string) (*Contact, error) {
	if id == nil {
		return nil, nil
	}
	return c.Get(ctx, *id)
}
