package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail     = "email:welcome"
	TaskOfferReceived    = "email:offer_received"
	TaskMerchantSelected = "email:merchant_selected"
	TaskBookingCreated   = "email:booking_created"
	TaskBookingStatus    = "email:booking_status"
	TaskMessageNew       = "email:message_new"
)

// QueueEmails is the asynq queue every e-mail task goes to.
const QueueEmails = "emails"

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Offer received payload (sent to the customer)
type OfferReceivedPayload struct {
	RequestID  string        `json:"request_id"`
	CustomerID string        `json:"customer_id"`
	MerchantID string        `json:"merchant_id"`
	Price      float64       `json:"price"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}

// Booking payload, shared by merchant_selected, booking_created and
// booking_status tasks
type BookingPayload struct {
	BookingID   string        `json:"booking_id"`
	RequestID   string        `json:"request_id,omitempty"`
	RecipientID string        `json:"recipient_id"`
	Status      string        `json:"status"`
	Envelope    EmailEnvelope `json:"envelope"`
	SentAt      time.Time     `json:"sent_at"`
}

// Message new payload (sent to the receiver)
type MessageNewPayload struct {
	BookingID  string        `json:"booking_id"`
	SenderID   string        `json:"sender_id"`
	ReceiverID string        `json:"receiver_id"`
	Envelope   EmailEnvelope `json:"envelope"`
	SentAt     time.Time     `json:"sent_at"`
}
