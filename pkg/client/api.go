package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sajeel041/FIX-POINT/internal/model"
)

type (
	Role            = model.Role
	MerchantProfile = model.MerchantProfile
	RequestStatus   = model.RequestStatus
	BookingStatus   = model.BookingStatus
)

// Offer is a merchant's bid with the merchant expanded.
type Offer struct {
	Merchant   *Contact  `json:"merchantId"`
	Price      float64   `json:"price"`
	Negotiable bool      `json:"negotiable"`
	AcceptedAt time.Time `json:"acceptedAt"`
}

type ServiceRequest struct {
	ID               string        `json:"_id"`
	Customer         *Contact      `json:"customerId"`
	ServiceType      string        `json:"serviceType"`
	Issue            string        `json:"issue"`
	Location         string        `json:"location"`
	Status           RequestStatus `json:"status"`
	Offers           []Offer       `json:"acceptedMerchants"`
	SelectedMerchant *Contact      `json:"selectedMerchantId"`
	BookingID        *string       `json:"bookingId"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

type Booking struct {
	ID               string        `json:"_id"`
	Customer         *Contact      `json:"customerId"`
	Merchant         *Contact      `json:"merchantId"`
	ServiceRequestID *string       `json:"serviceRequestId,omitempty"`
	ServiceType      string        `json:"serviceType"`
	Price            float64       `json:"price"`
	Status           BookingStatus `json:"status"`
	Address          string        `json:"address"`
	Notes            string        `json:"notes"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

type Message struct {
	ID        string    `json:"_id"`
	BookingID string    `json:"bookingId"`
	Sender    *Contact  `json:"senderId"`
	Receiver  *Contact  `json:"receiverId"`
	Body      string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// User is the account as the API returns it. Role is the primary role.
type User struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Roles     []Role    `json:"roles"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type AuthResponse struct {
	User
	Token string `json:"token"`
}

type MerchantData struct {
	SkillCategory   string `json:"skillCategory,omitempty"`
	YearsExperience int    `json:"yearsExperience,omitempty"`
	About           string `json:"about,omitempty"`
	CNIC            string `json:"cnic,omitempty"`
	ProfilePicture  string `json:"profilePicture,omitempty"`
}

type RegisterInput struct {
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	Password     string        `json:"password"`
	Roles        []Role        `json:"roles,omitempty"`
	Phone        string        `json:"phone,omitempty"`
	MerchantData *MerchantData `json:"merchantData,omitempty"`
}

// ===== Auth =====

// Register creates the account and logs the session in.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	c.session.Set(out.Token)
	return &out, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	c.session.Set(out.Token)
	return &out, nil
}

// Me returns the caller and, for merchants, their profile.
func (c *Client) Me(ctx context.Context) (*User, *MerchantProfile, error) {
	var out struct {
		User    User             `json:"user"`
		Profile *MerchantProfile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out); err != nil {
		return nil, nil, err
	}
	return &out.User, out.Profile, nil
}

func (c *Client) AddRole(ctx context.Context, role Role) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/add-role", map[string]Role{"role": role}, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ===== Users =====

type PublicProfile struct {
	ID        string           `json:"_id"`
	Name      string           `json:"name"`
	Role      Role             `json:"role"`
	Roles     []Role           `json:"roles"`
	CreatedAt time.Time        `json:"createdAt"`
	Merchant  *MerchantProfile `json:"merchantProfile,omitempty"`
}

func (c *Client) PublicProfile(ctx context.Context, userID string) (*PublicProfile, error) {
	var out PublicProfile
	if err := c.do(ctx, http.MethodGet, "/user/"+url.PathEscape(userID)+"/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateContact changes the fields that are not nil.
func (c *Client) UpdateContact(ctx context.Context, name, phone *string) (*User, error) {
	in := struct {
		Name  *string `json:"name,omitempty"`
		Phone *string `json:"phone,omitempty"`
	}{name, phone}
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPatch, "/user/profile", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ===== Merchants =====

type Contact struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// MerchantEntry is a directory listing: the profile with its owner expanded.
type MerchantEntry struct {
	*MerchantProfile
	User *Contact `json:"userId"`
}

type MerchantFilter struct {
	SkillCategory string
	Availability  string
	Limit         int
	Offset        int
}

func (f MerchantFilter) query() string {
	q := url.Values{}
	if f.SkillCategory != "" {
		q.Set("skillCategory", f.SkillCategory)
	}
	if f.Availability != "" {
		q.Set("availability", f.Availability)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Offset > 0 {
		q.Set("offset", strconv.Itoa(f.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) ListMerchants(ctx context.Context, f MerchantFilter) ([]MerchantEntry, error) {
	var out []MerchantEntry
	if err := c.do(ctx, http.MethodGet, "/merchants"+f.query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMerchant looks a merchant up by user id.
func (c *Client) GetMerchant(ctx context.Context, userID string) (*MerchantEntry, error) {
	var out MerchantEntry
	if err := c.do(ctx, http.MethodGet, "/merchants/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MerchantUpdate changes the fields that are set.
type MerchantUpdate struct {
	SkillCategory   *string  `json:"skillCategory,omitempty"`
	YearsExperience *int     `json:"yearsExperience,omitempty"`
	About           *string  `json:"about,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	Availability    *string  `json:"availability,omitempty"`
	Certifications  []string `json:"certifications,omitempty"`
}

func (c *Client) UpdateMerchantProfile(ctx context.Context, in MerchantUpdate) (*MerchantProfile, error) {
	var out MerchantProfile
	if err := c.do(ctx, http.MethodPost, "/merchants/update", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type Portfolio struct {
	ProfilePicture     string   `json:"profilePicture,omitempty"`
	PreviousWorkImages []string `json:"previousWorkImages,omitempty"`
}

func (c *Client) UpdatePortfolio(ctx context.Context, in Portfolio) (*MerchantProfile, error) {
	var out MerchantProfile
	if err := c.do(ctx, http.MethodPost, "/merchants/portfolio", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Service requests =====

type CreateRequestInput struct {
	ServiceType string `json:"serviceType"`
	Issue       string `json:"issue"`
	Location    string `json:"location"`
}

func (c *Client) CreateRequest(ctx context.Context, in CreateRequestInput) (*ServiceRequest, error) {
	var out ServiceRequest
	if err := c.do(ctx, http.MethodPost, "/service-requests/create", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailableRequests lists the open requests the calling merchant can bid on.
func (c *Client) AvailableRequests(ctx context.Context) ([]*ServiceRequest, error) {
	var out []*ServiceRequest
	if err := c.do(ctx, http.MethodGet, "/service-requests/available", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CustomerRequests(ctx context.Context, customerID string) ([]*ServiceRequest, error) {
	var out []*ServiceRequest
	if err := c.do(ctx, http.MethodGet, "/service-requests/customer/"+url.PathEscape(customerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRequest(ctx context.Context, id string) (*ServiceRequest, error) {
	var out ServiceRequest
	if err := c.do(ctx, http.MethodGet, "/service-requests/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitOffer(ctx context.Context, requestID string, price float64, negotiable bool) (*ServiceRequest, error) {
	in := struct {
		RequestID  string  `json:"requestId"`
		Price      float64 `json:"price"`
		Negotiable bool    `json:"negotiable"`
	}{requestID, price, negotiable}
	var out ServiceRequest
	if err := c.do(ctx, http.MethodPost, "/service-requests/accept", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SelectMerchant picks an offer and returns the request with the booking
// derived from it.
func (c *Client) SelectMerchant(ctx context.Context, requestID, merchantID string) (*ServiceRequest, *Booking, error) {
	in := map[string]string{"requestId": requestID, "merchantId": merchantID}
	var out struct {
		ServiceRequest *ServiceRequest `json:"serviceRequest"`
		Booking        *Booking        `json:"booking"`
	}
	if err := c.do(ctx, http.MethodPost, "/service-requests/select-merchant", in, &out); err != nil {
		return nil, nil, err
	}
	return out.ServiceRequest, out.Booking, nil
}

// ===== Bookings =====

type CreateBookingInput struct {
	MerchantID  string  `json:"merchantId"`
	ServiceType string  `json:"serviceType"`
	Price       float64 `json:"price"`
	Address     string  `json:"address"`
	Notes       string  `json:"notes,omitempty"`
}

func (c *Client) CreateBooking(ctx context.Context, in CreateBookingInput) (*Booking, error) {
	var out Booking
	if err := c.do(ctx, http.MethodPost, "/bookings/create", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CustomerBookings lists the customer's bookings that are not completed.
func (c *Client) CustomerBookings(ctx context.Context, customerID string) ([]*Booking, error) {
	var out []*Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/user/"+url.PathEscape(customerID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MerchantBookings(ctx context.Context, merchantID string) ([]*Booking, error) {
	var out []*Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/merchant/"+url.PathEscape(merchantID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetBooking(ctx context.Context, id string) (*Booking, error) {
	var out Booking
	if err := c.do(ctx, http.MethodGet, "/bookings/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID string, status BookingStatus) (*Booking, error) {
	in := struct {
		BookingID string        `json:"bookingId"`
		Status    BookingStatus `json:"status"`
	}{bookingID, status}
	var out Booking
	if err := c.do(ctx, http.MethodPatch, "/bookings/status", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ===== Chat =====

func (c *Client) SendMessage(ctx context.Context, bookingID, body string) (*Message, error) {
	in := map[string]string{"bookingId": bookingID, "message": body}
	var out Message
	if err := c.do(ctx, http.MethodPost, "/chat/send", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Thread returns the booking's messages oldest first. Reading it marks the
// messages addressed to the caller read.
func (c *Client) Thread(ctx context.Context, bookingID string) ([]*Message, error) {
	var out []*Message
	if err := c.do(ctx, http.MethodGet, "/chat/booking/"+url.PathEscape(bookingID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UnreadCount(ctx context.Context) (int64, error) {
	var out struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/unread-count", nil, &out); err != nil {
		return 0, err
	}
	return out.UnreadCount, nil
}

// LatestUnread returns nil, nil, nil when nothing is unread.
func (c *Client) LatestUnread(ctx context.Context) (*Message, *Booking, error) {
	var out struct {
		Message *Message `json:"message"`
		Booking *Booking `json:"booking"`
	}
	if err := c.do(ctx, http.MethodGet, "/chat/latest-unread", nil, &out); err != nil {
		return nil, nil, err
	}
	return out.Message, out.Booking, nil
}

// ===== Catalog =====

type CatalogEntry struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

func (c *Client) Services(ctx context.Context) ([]CatalogEntry, error) {
	var out []CatalogEntry
	if err := c.do(ctx, http.MethodGet, "/services", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}
