// Package messaging implements booking-scoped chat between the two parties
// of a booking, with read tracking and an optional websocket push channel.
package messaging

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/metrics"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

// Notifier is told about stored messages. Best effort.
type Notifier interface {
	MessageSent(ctx context.Context, msg *model.Message, booking *model.Booking)
}

type Service struct {
	store  store.Store
	hub    *Hub
	notify Notifier
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

// WithHub enables push events. Without a hub the service only serves polling.
func WithHub(h *Hub) Option {
	return func(s *Service) { s.hub = h }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(s store.Store, opts ...Option) *Service {
	svc := &Service{
		store: s,
		log:   zap.NewNop(),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Authorize returns the booking when caller is one of its parties.
func (s *Service) Authorize(ctx context.Context, caller *model.User, bookingID string, action string) (*model.Booking, error) {
	if caller == nil {
		return nil, apperr.Unauthenticatedf("Not authorized, no token")
	}
	if bookingID == "" {
		return nil, apperr.Validationf("Booking ID is required")
	}
	b, err := s.store.GetBooking(ctx, bookingID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFoundf("Booking not found")
	}
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load booking")
	}
	if !b.IsParty(caller.ID) {
		return nil, apperr.Forbiddenf("Not authorized to %s messages for this booking", action)
	}
	return b, nil
}

// Send stores a message from caller to the other party of the booking.
func (s *Service) Send(ctx context.Context, caller *model.User, bookingID, body string) (*model.Message, error) {
	if caller == nil {
		return nil, apperr.Unauthenticatedf("Not authorized, no token")
	}
	if bookingID == "" {
		return nil, apperr.Validationf("Booking ID is required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperr.Validationf("Message cannot be empty")
	}
	if len([]rune(body)) > model.MaxMessageLength {
		return nil, apperr.Validationf("Message cannot exceed %d characters", model.MaxMessageLength)
	}

	b, err := s.Authorize(ctx, caller, bookingID, "send")
	if err != nil {
		return nil, err
	}
	m := &model.Message{
		ID:         s.newID(),
		BookingID:  b.ID,
		SenderID:   caller.ID,
		ReceiverID: b.Counterparty(caller.ID),
		Body:       body,
		CreatedAt:  s.now(),
	}
	if err := s.store.CreateMessage(ctx, m); err != nil {
		return nil, apperr.Wrap(err, "Failed to send message")
	}

	metrics.MessagesSent.Inc()
	s.log.Debug("message sent", zap.String("booking_id", b.ID), zap.String("sender_id", caller.ID))
	if s.hub != nil {
		s.push(ctx, m)
	}
	if s.notify != nil {
		s.notify.MessageSent(ctx, m, b)
	}
	return m, nil
}

// push broadcasts m to the thread's websocket clients in the same shape the
// chat routes return. Polling stays authoritative, so a failed lookup only
// costs the push.
func (s *Service) push(ctx context.Context, m *model.Message) {
	views, err := s.Populate(ctx, m)
	if err != nil {
		s.log.Warn("message push skipped", zap.String("booking_id", m.BookingID), zap.Error(err))
		return
	}
	s.hub.Broadcast(m.BookingID, Event{Type: EventMessageNew, Data: views[0]})
}

// List returns the thread oldest first after marking the caller's unread
// messages in it as read.
func (s *Service) List(ctx context.Context, caller *model.User, bookingID string) ([]*model.Message, error) {
	b, err := s.Authorize(ctx, caller, bookingID, "view")
	if err != nil {
		return nil, err
	}
	n, err := s.store.MarkThreadRead(ctx, b.ID, caller.ID)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to mark messages read")
	}
	msgs, err := s.store.ListMessages(ctx, b.ID)
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to load messages")
	}
	if n > 0 && s.hub != nil {
		s.hub.Broadcast(b.ID, Event{Type: EventMessagesRead, Data: ReadReceipt{
			BookingID: b.ID,
			ReaderID:  caller.ID,
			Count:     n,
			ReadAt:    s.now(),
		}})
	}
	return msgs, nil
}

func (s *Service) UnreadCount(ctx context.Context, caller *model.User) (int64, error) {
	if caller == nil {
		return 0, apperr.Unauthenticatedf("Not authorized, no token")
	}
	n, err := s.store.CountUnread(ctx, caller.ID)
	if err != nil {
		return 0, apperr.Wrap(err, "Failed to count unread messages")
	}
	return n, nil
}

// LatestUnread returns the newest unread message addressed to caller and its
// booking. Both are nil when there is none.
func (s *Service) LatestUnread(ctx context.Context, caller *model.User) (*model.Message, *model.Booking, error) {
	if caller == nil {
		return nil, nil, apperr.Unauthenticatedf("Not authorized, no token")
	}
	m, err := s.store.LatestUnread(ctx, caller.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, apperr.Wrap(err, "Failed to load messages")
	}
	b, err := s.store.GetBooking(ctx, m.BookingID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.Wrap(err, "Failed to load booking")
	}
	return m, b, nil
}
