package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sajeel041/FIX-POINT/internal/apperr"
	"github.com/Sajeel041/FIX-POINT/internal/auth"
	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/marketplace"
	"github.com/Sajeel041/FIX-POINT/internal/messaging"
	"github.com/Sajeel041/FIX-POINT/internal/store/memstore"
	"github.com/Sajeel041/FIX-POINT/internal/utils"
)

func testConfig() *config.Config {
	return &config.Config{
		ServiceName: "fixpoint-test",
		Server: config.ServerConfig{
			APIPrefix:      "/api",
			AllowedOrigins: []string{"*"},
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := memstore.New()
	hub := messaging.NewHub(nil, nil)
	e := New(Deps{
		Config:      testConfig(),
		Store:       s,
		Tokens:      utils.NewTokenManager("test-secret", time.Hour),
		Engine:      marketplace.NewEngine(s),
		Chat:        messaging.NewService(s, messaging.WithHub(hub)),
		Hub:         hub,
		AuthOptions: []auth.Option{auth.WithBcryptCost(bcrypt.MinCost)},
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

type apiResult struct {
	status int
	body   []byte
}

func (r apiResult) decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, v), string(r.body))
}

func (r apiResult) object(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	r.decode(t, &out)
	return out
}

func call(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) apiResult {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return apiResult{status: resp.StatusCode, body: out.Bytes()}
}

func register(t *testing.T, srv *httptest.Server, name, email string, roles []string, skill string) (id, token string) {
	t.Helper()
	body := map[string]interface{}{"name": name, "email": email, "password": "secret1", "roles": roles}
	if skill != "" {
		body["merchantData"] = map[string]interface{}{"skillCategory": skill}
	}
	res := call(t, srv, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	out := res.object(t)
	return out["_id"].(string), out["token"].(string)
}

// party asserts v is an expanded user and returns it.
func party(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	m, ok := v.(map[string]interface{})
	require.True(t, ok, "expected an expanded user, got %#v", v)
	return m
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/health", "/api/health"} {
		res := call(t, srv, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, res.status)
		assert.Equal(t, "OK", res.object(t)["status"])
	}
	res := call(t, srv, http.MethodGet, "/api/ready", "", nil)
	assert.Equal(t, http.StatusOK, res.status)

	res = call(t, srv, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, string(res.body), "http_requests_total")
}

func TestErrorShape(t *testing.T) {
	srv := newTestServer(t)

	res := call(t, srv, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.status)
	var e ErrorResponse
	res.decode(t, &e)
	assert.Equal(t, ErrorResponse{Message: "Not authorized, no token", Code: "unauthenticated"}, e)

	res = call(t, srv, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, res.status)
	res.decode(t, &e)
	assert.Equal(t, "not_found", e.Code)

	_, mToken := register(t, srv, "Mo", "mo@example.com", []string{"merchant"}, "Plumber")
	res = call(t, srv, http.MethodPost, "/api/service-requests/create", mToken,
		map[string]string{"serviceType": "Plumber", "issue": "leak", "location": "X"})
	assert.Equal(t, http.StatusForbidden, res.status)
	res.decode(t, &e)
	assert.Equal(t, "forbidden", e.Code)
}

func TestRender(t *testing.T) {
	status, body := render(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, ErrorResponse{Message: "Server error", Code: "internal"}, body)

	status, body = render(apperr.Conflictf("Booking status changed, please reload and try again"))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "conflict", body.Code)

	status, body = render(echo.ErrTooManyRequests)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "rate_limited", body.Code)
}

func TestLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	customerID, cToken := register(t, srv, "Customer", "c@example.com", []string{"customer"}, "")
	_, m1Token := register(t, srv, "M One", "m1@example.com", []string{"merchant"}, "Plumber")
	m2ID, m2Token := register(t, srv, "M Two", "m2@example.com", []string{"merchant"}, "Plumber")

	res := call(t, srv, http.MethodPost, "/api/service-requests/create", cToken,
		map[string]string{"serviceType": "Plumber", "issue": "leak", "location": "X"})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	request := res.object(t)
	requestID := request["_id"].(string)
	assert.Equal(t, "pending", request["status"])
	assert.Equal(t, customerID, party(t, request["customerId"])["_id"])
	assert.Nil(t, request["selectedMerchantId"])

	res = call(t, srv, http.MethodGet, "/api/service-requests/available", m2Token, nil)
	require.Equal(t, http.StatusOK, res.status)
	var available []map[string]interface{}
	res.decode(t, &available)
	require.Len(t, available, 1)
	assert.Equal(t, "Customer", party(t, available[0]["customerId"])["name"])

	res = call(t, srv, http.MethodPost, "/api/service-requests/accept", m1Token,
		map[string]interface{}{"requestId": requestID, "price": 500})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	assert.Equal(t, "offerSubmitted", res.object(t)["status"])

	res = call(t, srv, http.MethodPost, "/api/service-requests/accept", m2Token,
		map[string]interface{}{"requestId": requestID, "price": 450, "negotiable": true})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	offers := res.object(t)["acceptedMerchants"].([]interface{})
	require.Len(t, offers, 2)
	second := offers[1].(map[string]interface{})
	assert.Equal(t, 450.0, second["price"])
	assert.Equal(t, "M Two", party(t, second["merchantId"])["name"])
	assert.Equal(t, "m2@example.com", party(t, second["merchantId"])["email"])

	res = call(t, srv, http.MethodPost, "/api/service-requests/accept", m2Token,
		map[string]interface{}{"requestId": requestID, "price": 400})
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = call(t, srv, http.MethodPost, "/api/service-requests/select-merchant", cToken,
		map[string]string{"requestId": requestID, "merchantId": m2ID})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	var selected struct {
		ServiceRequest map[string]interface{} `json:"serviceRequest"`
		Booking        map[string]interface{} `json:"booking"`
	}
	res.decode(t, &selected)
	assert.Equal(t, "active", selected.ServiceRequest["status"])
	assert.Equal(t, "active", selected.Booking["status"])
	assert.Equal(t, 450.0, selected.Booking["price"])
	assert.Equal(t, "X", selected.Booking["address"])
	assert.Equal(t, "leak", selected.Booking["notes"])
	bookingID := selected.Booking["_id"].(string)
	assert.Equal(t, bookingID, selected.ServiceRequest["bookingId"])
	assert.Equal(t, m2ID, party(t, selected.ServiceRequest["selectedMerchantId"])["_id"])
	assert.Equal(t, "Customer", party(t, selected.Booking["customerId"])["name"])
	assert.Equal(t, "M Two", party(t, selected.Booking["merchantId"])["name"])
	assert.NotContains(t, selected.Booking, "userId")

	res = call(t, srv, http.MethodGet, "/api/bookings/"+bookingID, cToken, nil)
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	assert.Equal(t, customerID, party(t, res.object(t)["customerId"])["_id"])

	res = call(t, srv, http.MethodGet, "/api/bookings/user/"+customerID, cToken, nil)
	var mine []map[string]interface{}
	res.decode(t, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, customerID, party(t, mine[0]["customerId"])["_id"])
	assert.Equal(t, m2ID, party(t, mine[0]["merchantId"])["_id"])

	// chat between the parties, not with the losing bidder
	res = call(t, srv, http.MethodPost, "/api/chat/send", cToken,
		map[string]string{"bookingId": bookingID, "message": "When can you come?"})
	require.Equal(t, http.StatusCreated, res.status, string(res.body))
	msg := res.object(t)
	assert.Equal(t, m2ID, party(t, msg["receiverId"])["_id"])
	assert.Equal(t, "Customer", party(t, msg["senderId"])["name"])

	res = call(t, srv, http.MethodPost, "/api/chat/send", m1Token,
		map[string]string{"bookingId": bookingID, "message": "me too"})
	assert.Equal(t, http.StatusForbidden, res.status)

	res = call(t, srv, http.MethodGet, "/api/chat/unread-count", m2Token, nil)
	assert.Equal(t, 1.0, res.object(t)["unreadCount"])
	res = call(t, srv, http.MethodGet, "/api/chat/latest-unread", m2Token, nil)
	latest := res.object(t)
	assert.Equal(t, customerID, party(t, party(t, latest["message"])["senderId"])["_id"])
	assert.Equal(t, "M Two", party(t, party(t, latest["booking"])["merchantId"])["name"])
	res = call(t, srv, http.MethodGet, "/api/chat/booking/"+bookingID, m2Token, nil)
	require.Equal(t, http.StatusOK, res.status)
	res = call(t, srv, http.MethodGet, "/api/chat/unread-count", m2Token, nil)
	assert.Equal(t, 0.0, res.object(t)["unreadCount"])

	res = call(t, srv, http.MethodPatch, "/api/bookings/status", m2Token,
		map[string]string{"bookingId": bookingID, "status": "completed"})
	require.Equal(t, http.StatusOK, res.status, string(res.body))
	assert.Equal(t, "completed", res.object(t)["status"])

	res = call(t, srv, http.MethodGet, "/api/service-requests/"+requestID, cToken, nil)
	assert.Equal(t, "completed", res.object(t)["status"])

	res = call(t, srv, http.MethodGet, "/api/bookings/merchant/"+m2ID, m2Token, nil)
	var open []map[string]interface{}
	res.decode(t, &open)
	assert.Empty(t, open)

	res = call(t, srv, http.MethodGet, "/api/bookings/user/"+customerID, m1Token, nil)
	assert.Equal(t, http.StatusForbidden, res.status)
}

func TestCatalogAndDirectory(t *testing.T) {
	srv := newTestServer(t)
	register(t, srv, "Painter", "p@example.com", []string{"merchant"}, "Painter")

	res := call(t, srv, http.MethodGet, "/api/services", "", nil)
	var catalog []map[string]interface{}
	res.decode(t, &catalog)
	assert.Len(t, catalog, 5)

	res = call(t, srv, http.MethodGet, "/api/merchants", "", nil)
	var merchants []map[string]interface{}
	res.decode(t, &merchants)
	require.Len(t, merchants, 1)
	assert.Equal(t, "Painter", merchants[0]["skillCategory"])
}
