package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sajeel041/FIX-POINT/internal/auth"
	"github.com/Sajeel041/FIX-POINT/internal/config"
	"github.com/Sajeel041/FIX-POINT/internal/marketplace"
	"github.com/Sajeel041/FIX-POINT/internal/messaging"
	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/server"
	"github.com/Sajeel041/FIX-POINT/internal/store/memstore"
	"github.com/Sajeel041/FIX-POINT/internal/utils"
)

func apiServer(t *testing.T) string {
	t.Helper()
	s := memstore.New()
	cfg := &config.Config{
		ServiceName: "fixpoint-client-test",
		Server:      config.ServerConfig{APIPrefix: "/api", AllowedOrigins: []string{"*"}},
	}
	e := server.New(server.Deps{
		Config:      cfg,
		Store:       s,
		Tokens:      utils.NewTokenManager("client-secret", time.Hour),
		Engine:      marketplace.NewEngine(s),
		Chat:        messaging.NewService(s),
		AuthOptions: []auth.Option{auth.WithBcryptCost(bcrypt.MinCost)},
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv.URL + "/api"
}

func TestMarketplaceFlow(t *testing.T) {
	ctx := context.Background()
	base := apiServer(t)

	customer := New(base)
	c, err := customer.Register(ctx, RegisterInput{Name: "Hina", Email: "hina@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, c.Role)
	assert.NotEmpty(t, customer.Session().Token())

	merchant := New(base)
	m, err := merchant.Register(ctx, RegisterInput{
		Name: "Faisal", Email: "faisal@example.com", Password: "secret1",
		Roles:        []Role{model.RoleMerchant},
		MerchantData: &MerchantData{SkillCategory: "Electrician", YearsExperience: 4},
	})
	require.NoError(t, err)

	price := 800.0
	profile, err := merchant.UpdateMerchantProfile(ctx, MerchantUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 800.0, profile.Price)

	entries, err := customer.ListMerchants(ctx, MerchantFilter{SkillCategory: "Electrician"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Faisal", entries[0].User.Name)

	req, err := customer.CreateRequest(ctx, CreateRequestInput{ServiceType: "Electrician", Issue: "no power", Location: "Block 7"})
	require.NoError(t, err)

	available, err := merchant.AvailableRequests(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.NotNil(t, available[0].Customer)
	assert.Equal(t, "Hina", available[0].Customer.Name)

	_, err = merchant.SubmitOffer(ctx, req.ID, 700, false)
	require.NoError(t, err)
	_, err = merchant.SubmitOffer(ctx, req.ID, 650, false)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	sr, booking, err := customer.SelectMerchant(ctx, req.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestActive, sr.Status)
	require.NotNil(t, sr.SelectedMerchant)
	assert.Equal(t, m.ID, sr.SelectedMerchant.ID)
	require.Len(t, sr.Offers, 1)
	assert.Equal(t, "faisal@example.com", sr.Offers[0].Merchant.Email)
	assert.Equal(t, 700.0, booking.Price)
	assert.Equal(t, c.ID, booking.Customer.ID)
	assert.Equal(t, "Faisal", booking.Merchant.Name)

	_, err = merchant.SendMessage(ctx, booking.ID, "On my way")
	require.NoError(t, err)
	n, err := customer.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	latest, latestBooking, err := customer.LatestUnread(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "On my way", latest.Body)
	assert.Equal(t, "Faisal", latest.Sender.Name)
	assert.Equal(t, "Hina", latest.Receiver.Name)
	require.NotNil(t, latestBooking)
	assert.Equal(t, booking.ID, latestBooking.ID)
	assert.Equal(t, "Hina", latestBooking.Customer.Name)

	done, err := merchant.UpdateBookingStatus(ctx, booking.ID, model.BookingCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, done.Status)

	got, err := customer.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestCompleted, got.Status)

	open, err := customer.CustomerBookings(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, open)

	catalog, err := customer.Services(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 5)
}

func TestAuthHeaderInjection(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unreadCount":3}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("abc"))
	n, err := c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, "Bearer abc", seen.Load())

	c.Logout()
	_, err = c.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", seen.Load())
}

func TestUnauthorizedTearsDownSessionOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not authorized, token failed","code":"unauthenticated"}`))
	}))
	defer srv.Close()

	var calls int32
	c := New(srv.URL, WithToken("expired"), WithUnauthorizedHandler(func() { atomic.AddInt32(&calls, 1) }))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = c.Me(context.Background())
		}()
	}
	wg.Wait()

	_, _, err := c.Me(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Not authorized, token failed", apiErr.Message)
	assert.Equal(t, "unauthenticated", apiErr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, c.Session().Token())
}

func TestPlainTextError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL).Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "upstream down", apiErr.Message)
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
}

func TestPoll(t *testing.T) {
	assert.Error(t, Poll(context.Background(), 0, func(context.Context) error { return nil }))

	stop := errors.New("stop")
	runs := 0
	err := Poll(context.Background(), time.Millisecond, func(context.Context) error {
		runs++
		if runs == 3 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 3, runs)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Poll(ctx, time.Hour, func(context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatchUnread(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := `{"unreadCount":0}`
		switch n := atomic.AddInt32(&hits, 1); {
		case n == 2:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"Server error","code":"internal"}`))
			return
		case n >= 4:
			body = `{"unreadCount":2}`
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var counts []int64
	err := New(srv.URL, WithToken("t")).WatchUnread(ctx, 5*time.Millisecond, func(n int64) {
		counts = append(counts, n)
		if n == 2 {
			cancel()
		}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int64{0, 2}, counts)
}

func TestWatchThreadStopsWhenForbidden(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&hits, 1) > 2 {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Not authorized to view messages for this booking","code":"forbidden"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	calls := 0
	err := New(srv.URL, WithToken("t")).WatchThread(context.Background(), "b1", time.Millisecond, func(msgs []*Message) {
		calls++
		assert.Empty(t, msgs)
	})
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
	assert.Equal(t, 1, calls)
}
