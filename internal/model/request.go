package model

import "time"

type RequestStatus string

const (
	RequestPending        RequestStatus = "pending"
	RequestOfferSubmitted RequestStatus = "offerSubmitted"
	RequestAccepted       RequestStatus = "accepted"
	RequestActive         RequestStatus = "active"
	RequestCompleted      RequestStatus = "completed"
	// RequestCancelled is reserved. No operation moves a request into it.
	RequestCancelled RequestStatus = "cancelled"
)

// OpenRequestStatuses are the statuses in which a request still takes offers
// and can have a merchant selected.
var OpenRequestStatuses = []RequestStatus{RequestPending, RequestOfferSubmitted}

func (s RequestStatus) Open() bool {
	return s == RequestPending || s == RequestOfferSubmitted
}

// MaxOffers caps the number of merchants that may bid on one request.
const MaxOffers = 10

// Offer is a merchant's bid on a ServiceRequest.
type Offer struct {
	MerchantID string    `json:"merchantId" bson:"merchantId"`
	Price      float64   `json:"price" bson:"price"`
	Negotiable bool      `json:"negotiable" bson:"negotiable"`
	AcceptedAt time.Time `json:"acceptedAt" bson:"acceptedAt"`
}

type ServiceRequest struct {
	ID                 string        `json:"_id" bson:"_id"`
	CustomerID         string        `json:"customerId" bson:"customerId"`
	ServiceType        string        `json:"serviceType" bson:"serviceType"`
	Issue              string        `json:"issue" bson:"issue"`
	Location           string        `json:"location" bson:"location"`
	Status             RequestStatus `json:"status" bson:"status"`
	Offers             []Offer       `json:"acceptedMerchants" bson:"acceptedMerchants"`
	SelectedMerchantID *string       `json:"selectedMerchantId" bson:"selectedMerchantId"`
	BookingID          *string       `json:"bookingId" bson:"bookingId"`
	CreatedAt          time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// OfferBy returns the offer submitted by merchantID, if any.
func (r *ServiceRequest) OfferBy(merchantID string) (Offer, bool) {
	for _, o := range r.Offers {
		if o.MerchantID == merchantID {
			return o, true
		}
	}
	return Offer{}, false
}

// AcceptsOffers reports whether a new offer could be appended right now.
func (r *ServiceRequest) AcceptsOffers() bool {
	return r.Status.Open() && r.SelectedMerchantID == nil && len(r.Offers) < MaxOffers
}

// Orphaned reports whether a merchant was selected but no booking got attached.
func (r *ServiceRequest) Orphaned() bool {
	return r.Status == RequestAccepted && r.SelectedMerchantID != nil && r.BookingID == nil
}

func (r *ServiceRequest) Clone() *ServiceRequest {
	c := *r
	c.Offers = make([]Offer, len(r.Offers))
	copy(c.Offers, r.Offers)
	if r.SelectedMerchantID != nil {
		v := *r.SelectedMerchantID
		c.SelectedMerchantID = &v
	}
	if r.BookingID != nil {
		v := *r.BookingID
		c.BookingID = &v
	}
	return &c
}
