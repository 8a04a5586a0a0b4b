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

type CreateRequestInput struct {
	ServiceType string `json:"serviceType"`
	Issue       string `json:"issue"`
	Location    string `json:"location"`
}

type OfferInput struct {
	RequestID  string  `json:"requestId"`
	Price      float64 `json:"price"`
	Negotiable bool    `json:"negotiable"`
}

type SelectInput struct {
	RequestID  string `json:"requestId"`
	MerchantID string `json:"merchantId"`
}

// CreateRequest opens a new request in the pending state.
func (e *Engine) CreateRequest(ctx context.Context, caller *model.User, in CreateRequestInput) (*model.ServiceRequest, error) {
	ctx, span := e.span(ctx, "CreateRequest")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !caller.IsCustomer() {
		return nil, apperr.Forbiddenf("Only customers can create service requests")
	}
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	in.Issue = strings.TrimSpace(in.Issue)
	in.Location = strings.TrimSpace(in.Location)
	if in.ServiceType == "" || in.Issue == "" || in.Location == "" {
		return nil, apperr.Validationf("Please provide serviceType, issue and location")
	}
	if !model.SkillCategory(in.ServiceType).Valid() {
		return nil, apperr.Validationf("Unknown service type %q", in.ServiceType)
	}

	now := e.now()
	r := &model.ServiceRequest{
		ID:          e.newID(),
		CustomerID:  caller.ID,
		ServiceType: in.ServiceType,
		Issue:       in.Issue,
		Location:    in.Location,
		Status:      model.RequestPending,
		Offers:      []model.Offer{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateRequest(ctx, r); err != nil {
		return nil, fail(span, apperr.Wrap(err, "Failed to create service request"))
	}
	e.log.Info("service request created",
		zap.String("request_id", r.ID), zap.String("customer_id", caller.ID), zap.String("service_type", r.ServiceType))
	return r, nil
}

// ListCustomerRequests returns the caller's own requests, newest first.
func (e *Engine) ListCustomerRequests(ctx context.Context, caller *model.User, customerID string) ([]*model.ServiceRequest, error) {
	ctx, span := e.span(ctx, "ListCustomerRequests")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if caller.ID != customerID {
		return nil, apperr.Forbiddenf("Not authorized to view these requests")
	}
	reqs, err := e.store.ListRequestsByCustomer(ctx, customerID)
	if err != nil {
		return nil, fail(span, apperr.Wrap(err, "Failed to load service requests"))
	}
	return reqs, nil
}

// ListAvailable returns open requests matching the merchant's trade that the
// merchant has not bid on yet.
func (e *Engine) ListAvailable(ctx context.Context, caller *model.User) ([]*model.ServiceRequest, error) {
	ctx, span := e.span(ctx, "ListAvailable")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !caller.IsMerchant() {
		return nil, apperr.Forbiddenf("Only merchants can view available requests")
	}
	profile, err := e.store.GetProfile(ctx, caller.ID)
	if err != nil {
		return nil, fail(span, notFound(err, "Merchant profile not found"))
	}
	reqs, err := e.store.ListOpenRequests(ctx, string(profile.SkillCategory), caller.ID)
	if err != nil {
		return nil, fail(span, apperr.Wrap(err, "Failed to load available requests"))
	}
	return reqs, nil
}

// GetRequest returns a request to its customer or to any merchant. An
// orphaned selection found on read is repaired before returning.
func (e *Engine) GetRequest(ctx context.Context, caller *model.User, id string) (*model.ServiceRequest, error) {
	ctx, span := e.span(ctx, "GetRequest")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	r, err := e.store.GetRequest(ctx, id)
	if err != nil {
		return nil, fail(span, notFound(err, "Service request not found"))
	}
	if r.CustomerID != caller.ID && !caller.IsMerchant() {
		return nil, apperr.Forbiddenf("Not authorized to view this request")
	}
	if r.Orphaned() && e.now().Sub(r.UpdatedAt) >= e.grace {
		repaired, _, err := e.deriveBooking(ctx, e.store, r)
		if err != nil {
			e.log.Warn("read repair failed", zap.String("request_id", r.ID), zap.Error(err))
			return r, nil
		}
		metrics.ReconciledRequests.Inc()
		r = repaired
	}
	return r, nil
}

// offerRejection explains why r cannot take an offer from merchantID. It
// returns nil when the offer would be accepted.
func offerRejection(r *model.ServiceRequest, merchantID string) (string, error) {
	if !r.Status.Open() || r.SelectedMerchantID != nil {
		return "closed", apperr.Conflictf("Request is no longer available")
	}
	if _, ok := r.OfferBy(merchantID); ok {
		return "duplicate", apperr.Conflictf("You have already submitted an offer for this request")
	}
	if len(r.Offers) >= model.MaxOffers {
		return "full", apperr.Conflictf("Maximum %d merchants can submit offers on this request", model.MaxOffers)
	}
	return "", nil
}

// SubmitOffer appends the caller's bid. The append is conditional on the
// request's state at write time, so concurrent bids cannot exceed the cap or
// duplicate a merchant.
func (e *Engine) SubmitOffer(ctx context.Context, caller *model.User, in OfferInput) (*model.ServiceRequest, error) {
	ctx, span := e.span(ctx, "SubmitOffer")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, err
	}
	if !caller.IsMerchant() {
		return nil, apperr.Forbiddenf("Only merchants can submit offers")
	}
	if in.RequestID == "" {
		return nil, apperr.Validationf("requestId is required")
	}
	if in.Price <= 0 {
		metrics.Offers.WithLabelValues("invalid").Inc()
		return nil, apperr.Validationf("Price is required and must be greater than 0")
	}

	current, err := e.store.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, fail(span, notFound(err, "Service request not found"))
	}
	if current.CustomerID == caller.ID {
		return nil, apperr.Validationf("You cannot submit an offer on your own request")
	}
	if reason, err := offerRejection(current, caller.ID); err != nil {
		metrics.Offers.WithLabelValues(reason).Inc()
		return nil, err
	}

	offer := model.Offer{
		MerchantID: caller.ID,
		Price:      in.Price,
		Negotiable: in.Negotiable,
		AcceptedAt: e.now(),
	}
	updated, err := e.store.AppendOffer(ctx, in.RequestID, offer, model.MaxOffers)
	if errors.Is(err, store.ErrConditionFailed) {
		// lost a race; report against the state that won
		latest, rerr := e.store.GetRequest(ctx, in.RequestID)
		if rerr != nil {
			return nil, fail(span, notFound(rerr, "Service request not found"))
		}
		reason, cerr := offerRejection(latest, caller.ID)
		if cerr == nil {
			reason, cerr = "closed", apperr.Conflictf("Request is no longer available")
		}
		metrics.Offers.WithLabelValues(reason).Inc()
		return nil, cerr
	}
	if err != nil {
		return nil, fail(span, notFound(err, "Service request not found"))
	}

	metrics.Offers.WithLabelValues("accepted").Inc()
	e.log.Info("offer submitted",
		zap.String("request_id", updated.ID),
		zap.String("merchant_id", caller.ID),
		zap.Float64("price", in.Price),
		zap.Int("offers", len(updated.Offers)),
	)
	e.notify.OfferReceived(ctx, updated, offer)
	return updated, nil
}

// SelectMerchant accepts one offer on the caller's request and derives the
// booking from it. The three writes run in one transaction where the store
// supports it; otherwise the reconciliation sweep finishes an interrupted
// selection.
func (e *Engine) SelectMerchant(ctx context.Context, caller *model.User, in SelectInput) (*model.ServiceRequest, *model.Booking, error) {
	ctx, span := e.span(ctx, "SelectMerchant")
	defer span.End()

	if err := requireCaller(caller); err != nil {
		return nil, nil, err
	}
	if !caller.IsCustomer() {
		return nil, nil, apperr.Forbiddenf("Only customers can select a merchant")
	}
	if in.RequestID == "" || in.MerchantID == "" {
		return nil, nil, apperr.Validationf("requestId and merchantId are required")
	}

	r, err := e.store.GetRequest(ctx, in.RequestID)
	if err != nil {
		return nil, nil, fail(span, notFound(err, "Service request not found"))
	}
	if r.CustomerID != caller.ID {
		return nil, nil, apperr.Forbiddenf("Not authorized to select a merchant for this request")
	}
	if _, ok := r.OfferBy(in.MerchantID); !ok {
		return nil, nil, apperr.Validationf("Merchant has not accepted this request")
	}

	// A retried call for the merchant already chosen returns the existing
	// booking, repairing it first if the earlier attempt was interrupted.
	if r.SelectedMerchantID != nil {
		if *r.SelectedMerchantID != in.MerchantID {
			return nil, nil, apperr.Conflictf("Request is no longer available")
		}
		return e.existingSelection(ctx, r)
	}
	if !r.Status.Open() {
		return nil, nil, apperr.Conflictf("Request is no longer available")
	}

	var (
		outReq     *model.ServiceRequest
		outBooking *model.Booking
	)
	err = e.store.Atomically(ctx, func(ctx context.Context, tx store.Store) error {
		selected, err := tx.MarkSelected(ctx, r.ID, caller.ID, in.MerchantID, e.now())
		if err != nil {
			return err
		}
		outReq, outBooking, err = e.deriveBooking(ctx, tx, selected)
		return err
	})
	if errors.Is(err, store.ErrConditionFailed) {
		return nil, nil, apperr.Conflictf("Request is no longer available")
	}
	if err != nil {
		return nil, nil, fail(span, notFound(err, "Service request not found"))
	}

	metrics.BookingsCreated.WithLabelValues("selection").Inc()
	e.log.Info("merchant selected",
		zap.String("request_id", outReq.ID),
		zap.String("merchant_id", in.MerchantID),
		zap.String("booking_id", outBooking.ID),
	)
	e.notify.MerchantSelected(ctx, outReq, outBooking)
	return outReq, outBooking, nil
}

func (e *Engine) existingSelection(ctx context.Context, r *model.ServiceRequest) (*model.ServiceRequest, *model.Booking, error) {
	if r.BookingID == nil {
		req, b, err := e.deriveBooking(ctx, e.store, r)
		if err != nil {
			return nil, nil, apperr.Wrap(err, "Failed to create booking")
		}
		metrics.ReconciledRequests.Inc()
		return req, b, nil
	}
	b, err := e.store.GetBooking(ctx, *r.BookingID)
	if err != nil {
		return nil, nil, notFound(err, "Booking not found")
	}
	return r, b, nil
}

// deriveBooking finds or creates the booking for a request whose merchant is
// selected and attaches it. Every step is conditional, so calling it again
// after a partial failure converges on a single booking.
func (e *Engine) deriveBooking(ctx context.Context, s store.Store, r *model.ServiceRequest) (*model.ServiceRequest, *model.Booking, error) {
	if r.SelectedMerchantID == nil {
		return nil, nil, apperr.Conflictf("No merchant selected for this request")
	}
	offer, ok := r.OfferBy(*r.SelectedMerchantID)
	if !ok {
		return nil, nil, apperr.Conflictf("Selected merchant has no offer on this request")
	}

	b, err := s.GetBookingForRequest(ctx, r.ID)
	if errors.Is(err, store.ErrNotFound) {
		now := e.now()
		requestID := r.ID
		b = &model.Booking{
			ID:               e.newID(),
			CustomerID:       r.CustomerID,
			MerchantID:       offer.MerchantID,
			ServiceRequestID: &requestID,
			ServiceType:      r.ServiceType,
			Price:            offer.Price,
			Status:           model.BookingActive,
			Address:          r.Location,
			Notes:            r.Issue,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		err = s.CreateBooking(ctx, b)
		if errors.Is(err, store.ErrDuplicate) {
			b, err = s.GetBookingForRequest(ctx, r.ID)
		}
	}
	if err != nil {
		return nil, nil, err
	}

	if r.BookingID != nil {
		return r, b, nil
	}
	attached, err := s.AttachBooking(ctx, r.ID, b.ID, e.now())
	if errors.Is(err, store.ErrConditionFailed) {
		attached, err = s.GetRequest(ctx, r.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	return attached, b, nil
}
