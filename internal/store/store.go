// Package store defines the persistence contract shared by the Mongo,
// Postgres and in-memory backends.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/Sajeel041/FIX-POINT/internal/model"
)

var (
	ErrNotFound        = errors.New("store: not found")
	ErrDuplicate       = errors.New("store: duplicate key")
	ErrConditionFailed = errors.New("store: write condition not met")
)

type Users interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	AddUserRole(ctx context.Context, id string, role model.Role, at time.Time) (*model.User, error)
	UpdateUserContact(ctx context.Context, id, name, phone string, at time.Time) (*model.User, error)
}

type Merchants interface {
	// CreateProfile returns ErrDuplicate when the user already has a profile.
	CreateProfile(ctx context.Context, p *model.MerchantProfile) error
	GetProfile(ctx context.Context, userID string) (*model.MerchantProfile, error)
	// ListProfiles orders by rating, then newest first.
	ListProfiles(ctx context.Context) ([]*model.MerchantProfile, error)
	SaveProfile(ctx context.Context, p *model.MerchantProfile) error
}

type Requests interface {
	CreateRequest(ctx context.Context, r *model.ServiceRequest) error
	GetRequest(ctx context.Context, id string) (*model.ServiceRequest, error)
	ListRequestsByCustomer(ctx context.Context, customerID string) ([]*model.ServiceRequest, error)
	// ListOpenRequests returns unresolved requests of serviceType on which
	// merchantID has not bid yet, newest first.
	ListOpenRequests(ctx context.Context, serviceType, merchantID string) ([]*model.ServiceRequest, error)

	// AppendOffer adds offer when the request is open, unselected, holds no
	// offer by the same merchant and fewer than limit offers. The request moves
	// to offerSubmitted. ErrConditionFailed otherwise.
	AppendOffer(ctx context.Context, requestID string, offer model.Offer, limit int) (*model.ServiceRequest, error)
	// MarkSelected records merchantID as chosen when the request is open,
	// unselected, owned by customerID and holds an offer by merchantID.
	MarkSelected(ctx context.Context, requestID, customerID, merchantID string, at time.Time) (*model.ServiceRequest, error)
	// AttachBooking links bookingID to an accepted request without a booking
	// and moves it to active.
	AttachBooking(ctx context.Context, requestID, bookingID string, at time.Time) (*model.ServiceRequest, error)
	// CompleteRequestForBooking marks the request linked to bookingID completed.
	CompleteRequestForBooking(ctx context.Context, bookingID string, at time.Time) (bool, error)
	// ListOrphanedRequests returns accepted requests without a booking last
	// updated before the cutoff.
	ListOrphanedRequests(ctx context.Context, before time.Time) ([]*model.ServiceRequest, error)
}

// BookingFilter selects bookings by one party. Exactly one field is set.
type BookingFilter struct {
	CustomerID string
	MerchantID string
}

type Bookings interface {
	// CreateBooking returns ErrDuplicate when a booking already exists for the
	// same service request.
	CreateBooking(ctx context.Context, b *model.Booking) error
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	GetBookingForRequest(ctx context.Context, requestID string) (*model.Booking, error)
	// ListOpenBookings excludes completed bookings, newest first.
	ListOpenBookings(ctx context.Context, f BookingFilter) ([]*model.Booking, error)
	// TransitionBooking sets status to when the booking is currently in from.
	TransitionBooking(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) (*model.Booking, error)
}

type Messages interface {
	CreateMessage(ctx context.Context, m *model.Message) error
	// ListMessages returns a thread oldest first.
	ListMessages(ctx context.Context, bookingID string) ([]*model.Message, error)
	MarkThreadRead(ctx context.Context, bookingID, receiverID string) (int64, error)
	CountUnread(ctx context.Context, receiverID string) (int64, error)
	LatestUnread(ctx context.Context, receiverID string) (*model.Message, error)
}

type Store interface {
	Users
	Merchants
	Requests
	Bookings
	Messages

	// Atomically runs fn against a store whose writes commit together when
	// the backend supports it. Backends without transactions run fn directly.
	Atomically(ctx context.Context, fn func(ctx context.Context, s Store) error) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
