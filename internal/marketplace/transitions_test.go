package marketplace

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sajeel041/FIX-POINT/internal/model"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to   model.BookingStatus
		asMerchant bool
		want       bool
	}{
		{model.BookingPending, model.BookingAccepted, true, true},
		{model.BookingPending, model.BookingAccepted, false, false},
		{model.BookingPending, model.BookingCancelled, false, true},
		{model.BookingPending, model.BookingCompleted, true, false},
		{model.BookingPending, model.BookingActive, true, false},
		{model.BookingAccepted, model.BookingActive, false, true},
		{model.BookingAccepted, model.BookingCompleted, false, true},
		{model.BookingActive, model.BookingCompleted, true, true},
		{model.BookingActive, model.BookingCancelled, false, true},
		{model.BookingActive, model.BookingPending, true, false},
		{model.BookingActive, model.BookingActive, true, false},
		{model.BookingCompleted, model.BookingCancelled, true, false},
		{model.BookingCancelled, model.BookingActive, true, false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to, tc.asMerchant)
		assert.Equal(t, tc.want, got, "%s -> %s (merchant=%v)", tc.from, tc.to, tc.asMerchant)
	}
}

func TestNextStatuses(t *testing.T) {
	assert.Equal(t, []model.BookingStatus{model.BookingAccepted, model.BookingCancelled},
		NextStatuses(model.BookingPending, true))
	assert.Equal(t, []model.BookingStatus{model.BookingCancelled},
		NextStatuses(model.BookingPending, false))
	assert.Empty(t, NextStatuses(model.BookingCompleted, true))
}

func TestCatalogIsACopy(t *testing.T) {
	c := Catalog()
	assert.Len(t, c, len(model.SkillCategories))
	for i, entry := range c {
		assert.Equal(t, string(model.SkillCategories[i]), entry.Name)
	}
	c[0].Name = "changed"
	assert.Equal(t, "Electrician", Catalog()[0].Name)
}
