package memstore

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedRequest(t *testing.T, s *Store, id string, at time.Time) *model.ServiceRequest {
	t.Helper()
	r := &model.ServiceRequest{
		ID: id, CustomerID: "c1", ServiceType: "Plumber", Issue: "leak", Location: "Lahore",
		Status: model.RequestPending, Offers: []model.Offer{}, CreatedAt: at, UpdatedAt: at,
	}
	require.NoError(t, s.CreateRequest(context.Background(), r))
	return r
}

func TestUsersUniqueEmail(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreateUser(ctx, &model.User{ID: "u1", Email: "a@x.io", Roles: model.Roles{model.RoleCustomer}}))
	err := s.CreateUser(ctx, &model.User{ID: "u2", Email: "A@X.io"})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	u, err := s.GetUserByEmail(ctx, "a@x.io")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	u, err = s.AddUserRole(ctx, "u1", model.RoleMerchant, t0)
	require.NoError(t, err)
	assert.Equal(t, model.Roles{model.RoleCustomer, model.RoleMerchant}, u.Roles)

	_, err = s.GetUser(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAppendOfferGuards(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedRequest(t, s, "r1", t0)

	r, err := s.AppendOffer(ctx, "r1", model.Offer{MerchantID: "m1", Price: 50, AcceptedAt: t0}, model.MaxOffers)
	require.NoError(t, err)
	assert.Equal(t, model.RequestOfferSubmitted, r.Status)
	assert.Len(t, r.Offers, 1)

	_, err = s.AppendOffer(ctx, "r1", model.Offer{MerchantID: "m1", Price: 40}, model.MaxOffers)
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	_, err = s.AppendOffer(ctx, "nope", model.Offer{MerchantID: "m1"}, model.MaxOffers)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.MarkSelected(ctx, "r1", "c1", "m1", t0)
	require.NoError(t, err)
	_, err = s.AppendOffer(ctx, "r1", model.Offer{MerchantID: "m2"}, model.MaxOffers)
	assert.ErrorIs(t, err, store.ErrConditionFailed)
}

func TestAppendOfferConcurrentCap(t *testing.T) {
	s := New()
	seedRequest(t, s, "r1", t0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.AppendOffer(context.Background(), "r1",
				model.Offer{MerchantID: fmt.Sprintf("m%d", i), Price: 10}, model.MaxOffers)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	r, err := s.GetRequest(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, model.MaxOffers, accepted)
	assert.Len(t, r.Offers, model.MaxOffers)
}

func TestListOpenRequestsFilters(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedRequest(t, s, "old", t0)
	seedRequest(t, s, "new", t0.Add(time.Minute))
	seedRequest(t, s, "bid", t0.Add(2*time.Minute))
	other := &model.ServiceRequest{ID: "painter", CustomerID: "c1", ServiceType: "Painter", Status: model.RequestPending, CreatedAt: t0}
	require.NoError(t, s.CreateRequest(ctx, other))
	_, err := s.AppendOffer(ctx, "bid", model.Offer{MerchantID: "m1", Price: 5}, model.MaxOffers)
	require.NoError(t, err)

	got, err := s.ListOpenRequests(ctx, "Plumber", "m1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "old", got[1].ID)

	got, err = s.ListOpenRequests(ctx, "Plumber", "m2")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSelectionAndAttach(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedRequest(t, s, "r1", t0)
	_, err := s.AppendOffer(ctx, "r1", model.Offer{MerchantID: "m1", Price: 5}, model.MaxOffers)
	require.NoError(t, err)

	_, err = s.MarkSelected(ctx, "r1", "someone-else", "m1", t0)
	assert.ErrorIs(t, err, store.ErrConditionFailed)
	_, err = s.MarkSelected(ctx, "r1", "c1", "m9", t0)
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	r, err := s.MarkSelected(ctx, "r1", "c1", "m1", t0)
	require.NoError(t, err)
	assert.Equal(t, model.RequestAccepted, r.Status)

	orphans, err := s.ListOrphanedRequests(ctx, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Len(t, orphans, 1)

	r, err = s.AttachBooking(ctx, "r1", "b1", t0)
	require.NoError(t, err)
	assert.Equal(t, model.RequestActive, r.Status)
	_, err = s.AttachBooking(ctx, "r1", "b2", t0)
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	touched, err := s.CompleteRequestForBooking(ctx, "b1", t0)
	require.NoError(t, err)
	assert.True(t, touched)
	r, _ = s.GetRequest(ctx, "r1")
	assert.Equal(t, model.RequestCompleted, r.Status)
}

func TestBookingsPerRequestUnique(t *testing.T) {
	s := New()
	ctx := context.Background()
	rid := "r1"
	require.NoError(t, s.CreateBooking(ctx, &model.Booking{ID: "b1", CustomerID: "c1", MerchantID: "m1", ServiceRequestID: &rid, Status: model.BookingActive, CreatedAt: t0}))
	err := s.CreateBooking(ctx, &model.Booking{ID: "b2", ServiceRequestID: &rid})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	b, err := s.GetBookingForRequest(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	_, err = s.TransitionBooking(ctx, "b1", model.BookingPending, model.BookingCancelled, t0)
	assert.ErrorIs(t, err, store.ErrConditionFailed)
	b, err = s.TransitionBooking(ctx, "b1", model.BookingActive, model.BookingCompleted, t0)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, b.Status)

	open, err := s.ListOpenBookings(ctx, store.BookingFilter{CustomerID: "c1"})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestMessagesReadTracking(t *testing.T) {
	s := New()
	ctx := context.Background()
	for i, body := range []string{"one", "two", "three"} {
		require.NoError(t, s.CreateMessage(ctx, &model.Message{
			ID: body, BookingID: "b1", SenderID: "c1", ReceiverID: "m1", Body: body,
			CreatedAt: t0.Add(time.Duration(i) * time.Second),
		}))
	}

	n, err := s.CountUnread(ctx, "m1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	latest, err := s.LatestUnread(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "three", latest.Body)

	marked, err := s.MarkThreadRead(ctx, "b1", "m1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, marked)

	n, _ = s.CountUnread(ctx, "m1")
	assert.Zero(t, n)
	_, err = s.LatestUnread(ctx, "m1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	thread, err := s.ListMessages(ctx, "b1")
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "one", thread[0].Body)
	assert.True(t, thread[0].Read)
}

func TestListProfilesOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()
	low := model.NewMerchantProfile("p1", "u1", model.SkillPlumber, t0)
	low.Rating = 3
	older := model.NewMerchantProfile("p2", "u2", model.SkillPlumber, t0)
	newer := model.NewMerchantProfile("p3", "u3", model.SkillPlumber, t0.Add(time.Hour))
	for _, p := range []*model.MerchantProfile{low, older, newer} {
		require.NoError(t, s.CreateProfile(ctx, p))
	}
	assert.ErrorIs(t, s.CreateProfile(ctx, model.NewMerchantProfile("p4", "u1", "", t0)), store.ErrDuplicate)

	got, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"u3", "u2", "u1"}, []string{got[0].UserID, got[1].UserID, got[2].UserID})
}
