package mongostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments), store.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup), store.ErrDuplicate)

	other := errors.New("socket closed")
	assert.Equal(t, other, translate(other))
}

func TestNewestFirstSortsByCreation(t *testing.T) {
	sort := newestFirst()
	assert.Equal(t, "createdAt", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)
}

func TestOfferGuard(t *testing.T) {
	g := offerGuard("m1", 5)
	assert.Equal(t, bson.M{"$in": model.OpenRequestStatuses}, g["status"])
	assert.Contains(t, g, "selectedMerchantId")
	assert.Nil(t, g["selectedMerchantId"])
	assert.Equal(t, bson.M{"$ne": "m1"}, g["acceptedMerchants.merchantId"])
	assert.Equal(t, bson.M{"$exists": false}, g["acceptedMerchants.4"])
	assert.Len(t, g, 4)

	assert.Equal(t, bson.M{"$exists": false}, offerGuard("m1", 1)["acceptedMerchants.0"])

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	offer := model.Offer{MerchantID: "m1", Price: 500, AcceptedAt: at}
	assert.Equal(t, bson.M{
		"$push": bson.M{"acceptedMerchants": offer},
		"$set":  bson.M{"status": model.RequestOfferSubmitted, "updatedAt": at},
	}, offerUpdate(offer))
}

func TestSelectionAndAttachGuards(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{
		"status":                       bson.M{"$in": model.OpenRequestStatuses},
		"selectedMerchantId":           nil,
		"customerId":                   "c1",
		"acceptedMerchants.merchantId": "m1",
	}, selectionGuard("c1", "m1"))
	assert.Equal(t, bson.M{"$set": bson.M{
		"selectedMerchantId": "m1",
		"status":             model.RequestAccepted,
		"updatedAt":          at,
	}}, selectionUpdate("m1", at))

	assert.Equal(t, bson.M{"status": model.RequestAccepted, "bookingId": nil}, attachGuard())
	assert.Equal(t, bson.M{"$set": bson.M{
		"bookingId": "b1",
		"status":    model.RequestActive,
		"updatedAt": at,
	}}, attachUpdate("b1", at))
}

func TestGuardedUpdate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	ns := "fixpoint." + requestsCollection
	found := func(n int64) bson.D {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: n}})
	}

	mt.Run("applies when the guard holds", func(mt *mtest.T) {
		s := New(mt.Client, "fixpoint", false)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: "r1"},
			{Key: "customerId", Value: "c1"},
			{Key: "status", Value: string(model.RequestOfferSubmitted)},
			{Key: "acceptedMerchants", Value: bson.A{bson.D{{Key: "merchantId", Value: "m1"}, {Key: "price", Value: 500.0}}}},
		}}))

		r, err := s.AppendOffer(ctx, "r1", model.Offer{MerchantID: "m1", Price: 500, AcceptedAt: at}, 5)
		require.NoError(mt, err)
		assert.Equal(mt, model.RequestOfferSubmitted, r.Status)
		require.Len(mt, r.Offers, 1)
		assert.Equal(mt, "m1", r.Offers[0].MerchantID)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "findAndModify", evt.CommandName)
		assert.Equal(mt, "r1", evt.Command.Lookup("query", "_id").StringValue())
		assert.Equal(mt, "m1", evt.Command.Lookup("query", "acceptedMerchants.merchantId", "$ne").StringValue())
		assert.False(mt, evt.Command.Lookup("query", "acceptedMerchants.4", "$exists").Boolean())
	})

	mt.Run("condition failed when the request exists", func(mt *mtest.T) {
		s := New(mt.Client, "fixpoint", false)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			found(1),
		)

		_, err := s.MarkSelected(ctx, "r1", "c1", "m9", at)
		assert.ErrorIs(mt, err, store.ErrConditionFailed)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "c1", evt.Command.Lookup("query", "customerId").StringValue())
		assert.Equal(mt, "m9", evt.Command.Lookup("query", "acceptedMerchants.merchantId").StringValue())
	})

	mt.Run("not found when the request is missing", func(mt *mtest.T) {
		s := New(mt.Client, "fixpoint", false)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		_, err := s.AttachBooking(ctx, "nope", "b1", at)
		assert.ErrorIs(mt, err, store.ErrNotFound)
	})

	mt.Run("second attach is refused", func(mt *mtest.T) {
		s := New(mt.Client, "fixpoint", false)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
				{Key: "_id", Value: "r1"},
				{Key: "status", Value: string(model.RequestActive)},
				{Key: "bookingId", Value: "b1"},
			}}),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			found(1),
		)

		r, err := s.AttachBooking(ctx, "r1", "b1", at)
		require.NoError(mt, err)
		require.NotNil(mt, r.BookingID)
		assert.Equal(mt, "b1", *r.BookingID)

		_, err = s.AttachBooking(ctx, "r1", "b2", at)
		assert.ErrorIs(mt, err, store.ErrConditionFailed)
	})
}
