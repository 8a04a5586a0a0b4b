package marketplace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/user"
)

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestBookingWireShape(t *testing.T) {
	f := newFixture(t)
	c := f.user(t, "C", model.RoleCustomer)
	m := f.merchant(t, "M", model.SkillPlumber)
	r := f.request(t, c)
	_, err := f.engine.SubmitOffer(f.ctx, m, OfferInput{RequestID: r.ID, Price: 300})
	require.NoError(t, err)
	_, b, err := f.engine.SelectMerchant(f.ctx, c, SelectInput{RequestID: r.ID, MerchantID: "M"})
	require.NoError(t, err)

	raw := asMap(t, b)
	assert.Equal(t, "C", raw["customerId"])
	assert.Equal(t, "M", raw["merchantId"])
	assert.NotContains(t, raw, "userId")
}

func TestPopulateExpandsParties(t *testing.T) {
	f := newFixture(t)
	c := f.user(t, "C", model.RoleCustomer)
	m1 := f.merchant(t, "M1", model.SkillPlumber)
	m2 := f.merchant(t, "M2", model.SkillPlumber)
	r := f.request(t, c)
	_, err := f.engine.SubmitOffer(f.ctx, m1, OfferInput{RequestID: r.ID, Price: 500})
	require.NoError(t, err)
	r, err = f.engine.SubmitOffer(f.ctx, m2, OfferInput{RequestID: r.ID, Price: 450, Negotiable: true})
	require.NoError(t, err)

	contacts := user.NewContacts(f.store)
	v, err := PopulateRequest(f.ctx, contacts, r)
	require.NoError(t, err)
	out := asMap(t, v)
	assert.Equal(t, "C", out["customerId"].(map[string]any)["_id"])
	assert.Nil(t, out["selectedMerchantId"])
	assert.Equal(t, r.ServiceType, out["serviceType"])
	offers := out["acceptedMerchants"].([]any)
	require.Len(t, offers, 2)
	second := offers[1].(map[string]any)
	assert.Equal(t, "M2", second["merchantId"].(map[string]any)["_id"])
	assert.Equal(t, 450.0, second["price"])
	assert.Equal(t, true, second["negotiable"])

	r, b, err := f.engine.SelectMerchant(f.ctx, c, SelectInput{RequestID: r.ID, MerchantID: "M2"})
	require.NoError(t, err)
	v, err = PopulateRequest(f.ctx, contacts, r)
	require.NoError(t, err)
	assert.Equal(t, "M2", v.Selected.ID)

	bv, err := PopulateBooking(f.ctx, contacts, b)
	require.NoError(t, err)
	out = asMap(t, bv)
	assert.Equal(t, "C", out["customerId"].(map[string]any)["_id"])
	assert.Equal(t, "M2", out["merchantId"].(map[string]any)["_id"])
	assert.Equal(t, b.ID, out["_id"])
	assert.Equal(t, 450.0, out["price"])
}

func TestPopulateBookingWithDeletedParty(t *testing.T) {
	f := newFixture(t)
	c := f.user(t, "C", model.RoleCustomer)
	b := &model.Booking{ID: "b1", CustomerID: c.ID, MerchantID: "gone", Status: model.BookingPending}

	vs, err := PopulateBookings(f.ctx, user.NewContacts(f.store), []*model.Booking{b})
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, &user.Contact{ID: "gone"}, vs[0].Merchant)
	assert.Equal(t, c.ID, vs[0].Customer.ID)
}
