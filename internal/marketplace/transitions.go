package marketplace

import "github.com/Sajeel041/FIX-POINT/internal/model"

type transition struct {
	to           model.BookingStatus
	merchantOnly bool
}

// bookingTransitions lists the moves each status allows. Completed and
// cancelled bookings have none.
var bookingTransitions = map[model.BookingStatus][]transition{
	model.BookingPending: {
		{to: model.BookingAccepted, merchantOnly: true},
		{to: model.BookingCancelled},
	},
	model.BookingAccepted: {
		{to: model.BookingActive},
		{to: model.BookingCompleted},
		{to: model.BookingCancelled},
	},
	model.BookingActive: {
		{to: model.BookingCompleted},
		{to: model.BookingCancelled},
	},
}

// CanTransition reports whether a booking party may move a booking from one
// status to another. asMerchant is true when the caller is the booking's
// merchant.
func CanTransition(from, to model.BookingStatus, asMerchant bool) bool {
	for _, t := range bookingTransitions[from] {
		if t.to == to {
			return asMerchant || !t.merchantOnly
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from from for the caller.
func NextStatuses(from model.BookingStatus, asMerchant bool) []model.BookingStatus {
	out := []model.BookingStatus{}
	for _, t := range bookingTransitions[from] {
		if asMerchant || !t.merchantOnly {
			out = append(out, t.to)
		}
	}
	return out
}
