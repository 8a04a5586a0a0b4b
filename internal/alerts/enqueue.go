package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/model"
)

// Enqueuer is the part of *asynq.Client the queue uses.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// UserLookup resolves recipients to their e-mail address.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// Queue turns lifecycle events into e-mail tasks. The envelope is rendered at
// enqueue time so the worker only delivers. Failures are logged and never
// reach the caller.
type Queue struct {
	client Enqueuer
	users  UserLookup
	appURL string
	log    *zap.Logger
	now    func() time.Time
}

func NewQueue(client Enqueuer, users UserLookup, appURL string, log *zap.Logger) *Queue {
	if log == nil {
		log = zap.NewNop()
	}
	if appURL == "" {
		appURL = "http://localhost:5173"
	}
	return &Queue{
		client: client,
		users:  users,
		appURL: strings.TrimRight(appURL, "/"),
		log:    log,
		now:    time.Now,
	}
}

// NewClient connects an asynq client to the configured Redis.
func NewClient(cfg config.AlertsConfig) *asynq.Client {
	return asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
}

func (q *Queue) enqueue(ctx context.Context, taskType string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		q.log.Error("encode alert payload", zap.String("task", taskType), zap.Error(err))
		return
	}
	task := asynq.NewTask(taskType, b)
	if _, err := q.client.EnqueueContext(ctx, task, asynq.Queue(QueueEmails), asynq.MaxRetry(5)); err != nil {
		q.log.Warn("enqueue alert failed", zap.String("task", taskType), zap.Error(err))
	}
}

func (q *Queue) recipient(ctx context.Context, id string) (*model.User, bool) {
	u, err := q.users.GetUser(ctx, id)
	if err != nil {
		q.log.Warn("alert recipient lookup failed", zap.String("user_id", id), zap.Error(err))
		return nil, false
	}
	return u, true
}

// Welcome schedules a welcome email to a new user
func (q *Queue) Welcome(ctx context.Context, u *model.User) {
	env := EmailEnvelope{
		To:      u.Email,
		Subject: fmt.Sprintf("Welcome to FixPoint, %s!", u.Name),
		Body: fmt.Sprintf("Hi %s, thanks for joining FixPoint.\n\nOpen FixPoint: %s\n\nIf the link doesn't work, copy and paste the URL above.",
			u.Name, q.appURL),
	}
	q.enqueue(ctx, TaskWelcomeEmail, WelcomeEmailPayload{
		UserID: u.ID, Name: u.Name, Email: u.Email, Envelope: env, SentAt: q.now(),
	})
}

// OfferReceived tells the customer a merchant bid on their request
func (q *Queue) OfferReceived(ctx context.Context, req *model.ServiceRequest, offer model.Offer) {
	customer, ok := q.recipient(ctx, req.CustomerID)
	if !ok {
		return
	}
	negotiable := ""
	if offer.Negotiable {
		negotiable = " (negotiable)"
	}
	env := EmailEnvelope{
		To:      customer.Email,
		Subject: fmt.Sprintf("New offer on your %s request", req.ServiceType),
		Body: fmt.Sprintf("Hi %s,\n\nA merchant offered %.2f%s for: %s\n\nYou have %d of %d offers. Review them: %s/customer",
			customer.Name, offer.Price, negotiable, req.Issue, len(req.Offers), model.MaxOffers, q.appURL),
	}
	q.enqueue(ctx, TaskOfferReceived, OfferReceivedPayload{
		RequestID: req.ID, CustomerID: req.CustomerID, MerchantID: offer.MerchantID, Price: offer.Price,
		Envelope: env, SentAt: q.now(),
	})
}

// MerchantSelected confirms the booking to both parties
func (q *Queue) MerchantSelected(ctx context.Context, req *model.ServiceRequest, b *model.Booking) {
	if merchant, ok := q.recipient(ctx, b.MerchantID); ok {
		q.enqueue(ctx, TaskMerchantSelected, q.bookingPayload(b, req.ID, merchant, EmailEnvelope{
			Subject: "You have been selected for a job",
			Body: fmt.Sprintf("Hi %s,\n\nYour offer of %.2f for %s at %s was accepted.\n\nOpen the booking: %s/booking/%s",
				merchant.Name, b.Price, b.ServiceType, b.Address, q.appURL, b.ID),
		}))
	}
	if customer, ok := q.recipient(ctx, b.CustomerID); ok {
		q.enqueue(ctx, TaskMerchantSelected, q.bookingPayload(b, req.ID, customer, EmailEnvelope{
			Subject: "Your booking is confirmed",
			Body: fmt.Sprintf("Hi %s,\n\nYour %s booking for %.2f is active.\n\nChat with your merchant: %s/booking/%s",
				customer.Name, b.ServiceType, b.Price, q.appURL, b.ID),
		}))
	}
}

// BookingCreated tells the merchant about a direct booking
func (q *Queue) BookingCreated(ctx context.Context, b *model.Booking) {
	merchant, ok := q.recipient(ctx, b.MerchantID)
	if !ok {
		return
	}
	q.enqueue(ctx, TaskBookingCreated, q.bookingPayload(b, "", merchant, EmailEnvelope{
		Subject: fmt.Sprintf("New %s booking", b.ServiceType),
		Body: fmt.Sprintf("Hi %s,\n\nYou have a new booking at %s for %.2f.\n\nAccept or decline it: %s/booking/%s",
			merchant.Name, b.Address, b.Price, q.appURL, b.ID),
	}))
}

// BookingStatusChanged tells the other party about a status change
func (q *Queue) BookingStatusChanged(ctx context.Context, b *model.Booking, from model.BookingStatus, actorID string) {
	other, ok := q.recipient(ctx, b.Counterparty(actorID))
	if !ok {
		return
	}
	requestID := ""
	if b.ServiceRequestID != nil {
		requestID = *b.ServiceRequestID
	}
	q.enqueue(ctx, TaskBookingStatus, q.bookingPayload(b, requestID, other, EmailEnvelope{
		Subject: fmt.Sprintf("Booking %s", b.Status),
		Body: fmt.Sprintf("Hi %s,\n\nYour %s booking moved from %s to %s.\n\nDetails: %s/booking/%s",
			other.Name, b.ServiceType, from, b.Status, q.appURL, b.ID),
	}))
}

// MessageSent tells the receiver about a new chat message
func (q *Queue) MessageSent(ctx context.Context, m *model.Message, b *model.Booking) {
	receiver, ok := q.recipient(ctx, m.ReceiverID)
	if !ok {
		return
	}
	preview := []rune(m.Body)
	if len(preview) > 140 {
		preview = append(preview[:140], '…')
	}
	env := EmailEnvelope{
		To:      receiver.Email,
		Subject: fmt.Sprintf("New message about your %s booking", b.ServiceType),
		Body:    fmt.Sprintf("Hi %s,\n\n%s\n\nReply: %s/booking/%s", receiver.Name, string(preview), q.appURL, b.ID),
	}
	q.enqueue(ctx, TaskMessageNew, MessageNewPayload{
		BookingID: b.ID, SenderID: m.SenderID, ReceiverID: m.ReceiverID, Envelope: env, SentAt: q.now(),
	})
}

func (q *Queue) bookingPayload(b *model.Booking, requestID string, to *model.User, env EmailEnvelope) BookingPayload {
	env.To = to.Email
	return BookingPayload{
		BookingID:   b.ID,
		RequestID:   requestID,
		RecipientID: to.ID,
		Status:      string(b.Status),
		Envelope:    env,
		SentAt:      q.now(),
	}
}
