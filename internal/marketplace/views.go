package marketplace

import (
	"context"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

// RequestView is a service request with its parties expanded in place of
// their ids.
type RequestView struct {
	*model.ServiceRequest
	Customer *user.Contact `json:"customerId"`
	Offers   []OfferView   `json:"acceptedMerchants"`
	Selected *user.Contact `json:"selectedMerchantId"`
}

type OfferView struct {
	model.Offer
	Merchant *user.Contact `json:"merchantId"`
}

// BookingView is a booking with both parties expanded.
type BookingView struct {
	*model.Booking
	Customer *user.Contact `json:"customerId"`
	Merchant *user.Contact `json:"merchantId"`
}

func PopulateRequest(ctx context.Context, contacts *user.Contacts, r *model.ServiceRequest) (*RequestView, error) {
	customer, err := contacts.Get(ctx, r.CustomerID)
	if err != nil {
		return nil, err
	}
	selected, err := contacts.Optional(ctx, r.SelectedMerchantID)
	if err != nil {
		return nil, err
	}
	offers := make([]OfferView, 0, len(r.Offers))
	for _, o := range r.Offers {
		m, err := contacts.Get(ctx, o.MerchantID)
		if err != nil {
			return nil, err
		}
		offers = append(offers, OfferView{Offer: o, Merchant: m})
	}
	return &RequestView{ServiceRequest: r, Customer: customer, Offers: offers, Selected: selected}, nil
}

func PopulateRequests(ctx context.Context, contacts *user.Contacts, rs []*model.ServiceRequest) ([]*RequestView, error) {
	out := make([]*RequestView, 0, len(rs))
	for _, r := range rs {
		v, err := PopulateRequest(ctx, contacts, r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func PopulateBooking(ctx context.Context, contacts *user.Contacts, b *model.Booking) (*BookingView, error) {
	customer, err := contacts.Get(ctx, b.CustomerID)
	if err != nil {
		return nil, err
	}
	merchant, err := contacts.Get(ctx, b.MerchantID)
	if err != nil {
		return nil, err
	}
	return &BookingView{Booking: b, Customer: customer, Merchant: merchant}, nil
}

func PopulateBookings(ctx context.Context, contacts *user.Contacts, bs []*model.Booking) ([]*BookingView, error) {
	out := make([]*BookingView, 0, len(bs))
	for _, b := range bs {
		v, err := PopulateBooking(ctx, contacts, b)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
