package model

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingAccepted  BookingStatus = "accepted"
	BookingActive    BookingStatus = "active"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingAccepted, BookingActive, BookingCompleted, BookingCancelled:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return s == BookingCompleted || s == BookingCancelled
}

type Booking struct {
	ID               string        `json:"_id" bson:"_id"`
	CustomerID       string        `json:"customerId" bson:"customerId"`
	MerchantID       string        `json:"merchantId" bson:"merchantId"`
	ServiceRequestID *string       `json:"serviceRequestId,omitempty" bson:"serviceRequestId,omitempty"`
	ServiceType      string        `json:"serviceType" bson:"serviceType"`
	Price            float64       `json:"price" bson:"price"`
	Status           BookingStatus `json:"status" bson:"status"`
	Address          string        `json:"address" bson:"address"`
	Notes            string        `json:"notes" bson:"notes"`
	CreatedAt        time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// IsParty reports whether userID is the customer or the merchant of the booking.
func (b *Booking) IsParty(userID string) bool {
	return userID != "" && (b.CustomerID == userID || b.MerchantID == userID)
}

// Counterparty returns the other party of the booking. It assumes IsParty(userID).
func (b *Booking) Counterparty(userID string) string {
	if b.CustomerID == userID {
		return b.MerchantID
	}
	return b.CustomerID
}

func (b *Booking) Clone() *Booking {
	c := *b
	if b.ServiceRequestID != nil {
		v := *b.ServiceRequestID
		c.ServiceRequestID = &v
	}
	return &c
}

const MaxMessageLength = 2000

type Message struct {
	ID         string    `json:"_id" bson:"_id"`
	BookingID  string    `json:"bookingId" bson:"bookingId"`
	SenderID   string    `json:"senderId" bson:"senderId"`
	ReceiverID string    `json:"receiverId" bson:"receiverId"`
	Body       string    `json:"message" bson:"message"`
	Read       bool      `json:"read" bson:"read"`
	CreatedAt  time.Time `json:"createdAt" bson:"createdAt"`
}
