// Package marketplace holds the lifecycle engine: service requests, competing
// merchant offers, customer selection and the bookings derived from it.
package marketplace

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

// Notifier is told about lifecycle events once they are persisted. Calls are
// best effort and must not fail the request.
type Notifier interface {
	OfferReceived(ctx context.Context, req *model.ServiceRequest, offer model.Offer)
	MerchantSelected(ctx context.Context, req *model.ServiceRequest, booking *model.Booking)
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingStatusChanged(ctx context.Context, booking *model.Booking, from model.BookingStatus, actorID string)
}

type nopNotifier struct{}

func (nopNotifier) OfferReceived(context.Context, *model.ServiceRequest, model.Offer)       {}
func (nopNotifier) MerchantSelected(context.Context, *model.ServiceRequest, *model.Booking) {}
func (nopNotifier) BookingCreated(context.Context, *model.Booking)                          {}
func (nopNotifier) BookingStatusChanged(context.Context, *model.Booking, model.BookingStatus, string) {
}

type Engine struct {
	store  store.Store
	notify Notifier
	log    *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
	newID  func() string
	grace  time.Duration
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		if n != nil {
			e.notify = n
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithReconcileGrace sets how long an accepted request may wait for its
// booking before it is treated as orphaned.
func WithReconcileGrace(d time.Duration) Option {
	return func(e *Engine) { e.grace = d }
}

func NewEngine(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		notify: nopNotifier{},
		log:    zap.NewNop(),
		tracer: otel.Tracer("github.com/Sajeel041/FIX-POINT/internal/marketplace"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
		grace:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) span(ctx context.Context, name string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "Engine."+name)
}

// fail records err on the span and passes it through.
func fail(span trace.Span, err error) error {
	if err != nil && !apperr.Is(err, apperr.Validation) && !apperr.Is(err, apperr.Forbidden) {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func requireCaller(caller *model.User) error {
	if caller == nil {
		return apperr.Unauthenticatedf("Not authorized, no token")
	}
	return nil
}

func notFound(err error, message string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFoundf("%s", message)
	}
	return apperr.Wrap(err, "Server error")
}
