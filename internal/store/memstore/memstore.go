// Package memstore keeps every collection in process memory. It backs the
// test suites and STORE_DRIVER=memory for local runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

type Store struct {
	mu        sync.RWMutex
	users     map[string]*model.User
	profiles  map[string]*model.MerchantProfile // keyed by user id
	requests  map[string]*model.ServiceRequest
	bookings  map[string]*model.Booking
	messages  []*model.Message
	sequence  int64
	insertion map[string]int64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:     make(map[string]*model.User),
		profiles:  make(map[string]*model.MerchantProfile),
		requests:  make(map[string]*model.ServiceRequest),
		bookings:  make(map[string]*model.Booking),
		insertion: make(map[string]int64),
	}
}

// seq gives a stable tie breaker for records created within the same instant.
func (s *Store) seq(id string) {
	s.sequence++
	s.insertion[id] = s.sequence
}

func (s *Store) newerFirst(aID string, a time.Time, bID string, b time.Time) bool {
	if !a.Equal(b) {
		return a.After(b)
	}
	return s.insertion[aID] > s.insertion[bID]
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, s store.Store) error) error {
	return fn(ctx, s)
}

func (s *Store) Ping(context.Context) error  { return nil }
func (s *Store) Close(context.Context) error { return nil }

// ---- users ----

func (s *Store) CreateUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return store.ErrDuplicate
	}
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrDuplicate
		}
	}
	s.users[u.ID] = u.Clone()
	s.seq(u.ID)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) AddUserRole(_ context.Context, id string, role model.Role, at time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !u.Roles.Has(role) {
		u.Roles = u.Roles.Add(role)
		u.UpdatedAt = at
	}
	return u.Clone(), nil
}

func (s *Store) UpdateUserContact(_ context.Context, id, name, phone string, at time.Time) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Name = name
	u.Phone = phone
	u.UpdatedAt = at
	return u.Clone(), nil
}

// ---- merchant profiles ----

func (s *Store) CreateProfile(_ context.Context, p *model.MerchantProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; ok {
		return store.ErrDuplicate
	}
	s.profiles[p.UserID] = p.Clone()
	s.seq(p.ID)
	return nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (*model.MerchantProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p.Clone(), nil
}

func (s *Store) ListProfiles(context.Context) ([]*model.MerchantProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.MerchantProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return s.newerFirst(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) SaveProfile(_ context.Context, p *model.MerchantProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[p.UserID]; !ok {
		return store.ErrNotFound
	}
	s.profiles[p.UserID] = p.Clone()
	return nil
}

// ---- service requests ----

func (s *Store) CreateRequest(_ context.Context, r *model.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; ok {
		return store.ErrDuplicate
	}
	s.requests[r.ID] = r.Clone()
	s.seq(r.ID)
	return nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *Store) listRequests(keep func(*model.ServiceRequest) bool) []*model.ServiceRequest {
	out := []*model.ServiceRequest{}
	for _, r := range s.requests {
		if keep(r) {
			out = append(out, r.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.newerFirst(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out
}

func (s *Store) ListRequestsByCustomer(_ context.Context, customerID string) ([]*model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequests(func(r *model.ServiceRequest) bool { return r.CustomerID == customerID }), nil
}

func (s *Store) ListOpenRequests(_ context.Context, serviceType, merchantID string) ([]*model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequests(func(r *model.ServiceRequest) bool {
		if !r.Status.Open() || r.SelectedMerchantID != nil || r.ServiceType != serviceType {
			return false
		}
		_, bid := r.OfferBy(merchantID)
		return !bid
	}), nil
}

func (s *Store) AppendOffer(_ context.Context, requestID string, offer model.Offer, limit int) (*model.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !r.Status.Open() || r.SelectedMerchantID != nil || len(r.Offers) >= limit {
		return nil, store.ErrConditionFailed
	}
	if _, dup := r.OfferBy(offer.MerchantID); dup {
		return nil, store.ErrConditionFailed
	}
	r.Offers = append(r.Offers, offer)
	r.Status = model.RequestOfferSubmitted
	r.UpdatedAt = offer.AcceptedAt
	return r.Clone(), nil
}

func (s *Store) MarkSelected(_ context.Context, requestID, customerID, merchantID string, at time.Time) (*model.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !r.Status.Open() || r.SelectedMerchantID != nil || r.CustomerID != customerID {
		return nil, store.ErrConditionFailed
	}
	if _, bid := r.OfferBy(merchantID); !bid {
		return nil, store.ErrConditionFailed
	}
	m := merchantID
	r.SelectedMerchantID = &m
	r.Status = model.RequestAccepted
	r.UpdatedAt = at
	return r.Clone(), nil
}

func (s *Store) AttachBooking(_ context.Context, requestID, bookingID string, at time.Time) (*model.ServiceRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[requestID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if r.Status != model.RequestAccepted || r.BookingID != nil {
		return nil, store.ErrConditionFailed
	}
	b := bookingID
	r.BookingID = &b
	r.Status = model.RequestActive
	r.UpdatedAt = at
	return r.Clone(), nil
}

func (s *Store) CompleteRequestForBooking(_ context.Context, bookingID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.requests {
		if r.BookingID != nil && *r.BookingID == bookingID {
			r.Status = model.RequestCompleted
			r.UpdatedAt = at
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListOrphanedRequests(_ context.Context, before time.Time) ([]*model.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequests(func(r *model.ServiceRequest) bool {
		return r.Status == model.RequestAccepted && r.BookingID == nil && r.UpdatedAt.Before(before)
	}), nil
}

// ---- bookings ----

func (s *Store) CreateBooking(_ context.Context, b *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bookings[b.ID]; ok {
		return store.ErrDuplicate
	}
	if b.ServiceRequestID != nil {
		for _, existing := range s.bookings {
			if existing.ServiceRequestID != nil && *existing.ServiceRequestID == *b.ServiceRequestID {
				return store.ErrDuplicate
			}
		}
	}
	s.bookings[b.ID] = b.Clone()
	s.seq(b.ID)
	return nil
}

func (s *Store) GetBooking(_ context.Context, id string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return b.Clone(), nil
}

func (s *Store) GetBookingForRequest(_ context.Context, requestID string) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.ServiceRequestID != nil && *b.ServiceRequestID == requestID {
			return b.Clone(), nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *Store) ListOpenBookings(_ context.Context, f store.BookingFilter) ([]*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.Booking{}
	for _, b := range s.bookings {
		if b.Status == model.BookingCompleted {
			continue
		}
		if f.CustomerID != "" && b.CustomerID != f.CustomerID {
			continue
		}
		if f.MerchantID != "" && b.MerchantID != f.MerchantID {
			continue
		}
		out = append(out, b.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return s.newerFirst(out[i].ID, out[i].CreatedAt, out[j].ID, out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) TransitionBooking(_ context.Context, id string, from, to model.BookingStatus, at time.Time) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if b.Status != from {
		return nil, store.ErrConditionFailed
	}
	b.Status = to
	b.UpdatedAt = at
	return b.Clone(), nil
}

// ---- messages ----

func (s *Store) CreateMessage(_ context.Context, m *model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *m
	s.messages = append(s.messages, &c)
	s.seq(m.ID)
	return nil
}

func (s *Store) ListMessages(_ context.Context, bookingID string) ([]*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*model.Message{}
	for _, m := range s.messages {
		if m.BookingID == bookingID {
			c := *m
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) MarkThreadRead(_ context.Context, bookingID, receiverID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, m := range s.messages {
		if m.BookingID == bookingID && m.ReceiverID == receiverID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (s *Store) CountUnread(_ context.Context, receiverID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.messages {
		if m.ReceiverID == receiverID && !m.Read {
			n++
		}
	}
	return n, nil
}

func (s *Store) LatestUnread(_ context.Context, receiverID string) (*model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *model.Message
	for _, m := range s.messages {
		if m.ReceiverID != receiverID || m.Read {
			continue
		}
		if latest == nil || !m.CreatedAt.Before(latest.CreatedAt) {
			latest = m
		}
	}
	if latest == nil {
		return nil, store.ErrNotFound
	}
	c := *latest
	return &c, nil
}
