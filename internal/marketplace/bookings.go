package marketplace

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/metrics"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

type CreateBookingInput struct {
	MerchantID  string  `json:"merchantId"`
	ServiceType string  `json:"serviceType"`
	Price       float64 `json:"price"`
	Address     string  `json:"address"`
	Notes       string  `json:"notes"`
}

type StatusInput struct {
	BookingID string              `json:"bookingId"`
	Status    model.BookingStatus `json:"status"`
}

// CreateBooking books a merchant directly, without a service request. The
// booking starts pending until the merchant accepts it.
func (e *Engine) CreateBooking(ctx context.Context, caller *model.User, in CreateBookingInput) (*model.Booking, error) {
	ctx, span := e.span(ctx, "CreateBooking")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !caller.IsCustomer() {
		return nil, apperr.Forbiddenf("Only customers can create bookings")
	}
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	in.Address = strings.TrimSpace(in.Address)
	if in.MerchantID == "" || in.ServiceType == "" || in.Address == "" {
		return nil, apperr.Validationf("Please provide merchantId, serviceType and address")
	}
	if in.Price < 0 {
		return nil, apperr.Validationf("Price must not be negative")
	}
	if in.MerchantID == caller.ID {
		return nil, apperr.Validationf("You cannot book yourself")
	}

	merchant, err := e.store.GetUser(ctx, in.MerchantID)
	if err != nil {
		return nil, fail(span, notFound(err, "Merchant not found"))
	}
	if !merchant.IsMerchant() {
		return nil, apperr.NotFoundf("Merchant not found")
	}

	now := e.now()
	b := &model.Booking{
		ID:          e.newID(),
		CustomerID:  caller.ID,
		MerchantID:  merchant.ID,
		ServiceType: in.ServiceType,
		Price:       in.Price,
		Status:      model.BookingPending,
		Address:     in.Address,
		Notes:       strings.TrimSpace(in.Notes),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateBooking(ctx, b); err != nil {
		return nil, fail(span, apperr.Wrap(err, "Failed to create booking"))
	}

	metrics.BookingsCreated.WithLabelValues("direct").Inc()
	e.log.Info("booking created",
		zap.String("booking_id", b.ID), zap.String("customer_id", b.CustomerID), zap.String("merchant_id", b.MerchantID))
	e.notify.BookingCreated(ctx, b)
	return b, nil
}

// ListCustomerBookings returns the caller's bookings as a customer, without
// completed ones.
func (e *Engine) ListCustomerBookings(ctx context.Context, caller *model.User, customerID string) ([]*model.Booking, error) {
	return e.listBookings(ctx, caller, customerID, store.BookingFilter{CustomerID: customerID})
}

// ListMerchantBookings returns the caller's bookings as a merchant, without
// completed ones.
func (e *Engine) ListMerchantBookings(ctx context.Context, caller *model.User, merchantID string) ([]*model.Booking, error) {
	return e.listBookings(ctx, caller, merchantID, store.BookingFilter{MerchantID: merchantID})
}

func (e *Engine) listBookings(ctx context.Context, caller *model.User, ownerID string, f store.BookingFilter) ([]*model.Booking, error) {
	ctx, span := e.span(ctx, "ListBookings")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if caller.ID != ownerID {
		return nil, apperr.Forbiddenf("Not authorized to view these bookings")
	}
	bookings, err := e.store.ListOpenBookings(ctx, f)
	if err != nil {
		return nil, fail(span, apperr.Wrap(err, "Failed to load bookings"))
	}
	return bookings, nil
}

func (e *Engine) GetBooking(ctx context.Context, caller *model.User, id string) (*model.Booking, error) {
	ctx, span := e.span(ctx, "GetBooking")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	b, err := e.store.GetBooking(ctx, id)
	if err != nil {
		return nil, fail(span, notFound(err, "Booking not found"))
	}
	if !b.IsParty(caller.ID) {
		return nil, apperr.Forbiddenf("Not authorized to view this booking")
	}
	return b, nil
}

// UpdateBookingStatus moves a booking along the transition table. Completing
// a booking also completes the service request it came from.
func (e *Engine) UpdateBookingStatus(ctx context.Context, caller *model.User, in StatusInput) (*model.Booking, error) {
	ctx, span := e.span(ctx, "UpdateBookingStatus")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if in.BookingID == "" {
		return nil, apperr.Validationf("bookingId is required")
	}
	if !in.Status.Valid() {
		return nil, apperr.Validationf("Invalid status %q", in.Status)
	}

	current, err := e.store.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, fail(span, notFound(err, "Booking not found"))
	}
	if !current.IsParty(caller.ID) {
		return nil, apperr.Forbiddenf("Not authorized to update this booking")
	}
	from := current.Status
	if !CanTransition(from, in.Status, current.MerchantID == caller.ID) {
		return nil, apperr.Conflictf("Cannot change booking status from %s to %s", from, in.Status)
	}

	var updated *model.Booking
	err = e.store.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
		now := e.now()
		b, err := tx.TransitionBooking(ctx, current.ID, from, in.Status, now)
		if err != nil {
			return err
		}
		if in.Status == model.BookingCompleted {
			touched, err := tx.CompleteRequestForBooking(ctx, b.ID, now)
			if err != nil {
				return err
			}
			if touched {
				e.log.Info("service request completed", zap.String("booking_id", b.ID))
			}
		}
		updated = b
		return nil
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, apperr.Conflictf("Booking status changed, please reload and try again")
	}
	if err != nil {
		return nil, fail(span, notFound(err, "Booking not found"))
	}

	metrics.BookingTransitions.WithLabelValues(string(from), string(updated.Status)).Inc()
	e.log.Info("booking transitioned",
		zap.String("booking_id", updated.ID),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", caller.ID),
	)
	e.notify.BookingStatusChanged(ctx, updated, from, caller.ID)
	return updated, nil
}
