package mongostore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sajeel041/FIX-POINT/internal/model"
)

func (s *Store) CreateRequest(ctx context.Context, r *model.ServiceRequest) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateRequest")
	defer span.End()

	// $push refuses to append to a null field
	if r.Offers == nil {
		r.Offers = []model.Offer{}
	}
	_, err := s.requests.InsertOne(ctx, r)
	return translate(err)
}

func (s *Store) GetRequest(ctx context.Context, id string) (*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetRequest")
	defer span.End()

	return findOne[model.ServiceRequest](ctx, s.requests, bson.M{"_id": id})
}

func (s *Store) ListRequestsByCustomer(ctx context.Context, customerID string) ([]*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListRequestsByCustomer")
	defer span.End()

	return findAll[model.ServiceRequest](ctx, s.requests,
		bson.M{"customerId": customerID}, options.Find().SetSort(newestFirst()))
}

func (s *Store) ListOpenRequests(ctx context.Context, serviceType, merchantID string) ([]*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListOpenRequests")
	defer span.End()

	filter := bson.M{
		"status":                       bson.M{"$in": model.OpenRequestStatuses},
		"serviceType":                  serviceType,
		"selectedMerchantId":           nil,
		"acceptedMerchants.merchantId": bson.M{"$ne": merchantID},
	}
	return findAll[model.ServiceRequest](ctx, s.requests, filter, options.Find().SetSort(newestFirst()))
}

func (s *Store) AppendOffer(ctx context.Context, requestID string, offer model.Offer, limit int) (*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.AppendOffer")
	defer span.End()

	return updateOne[model.ServiceRequest](ctx, s.requests, requestID, offerGuard(offer.MerchantID, limit), offerUpdate(offer))
}

func (s *Store) MarkSelected(ctx context.Context, requestID, customerID, merchantID string, at time.Time) (*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.MarkSelected")
	defer span.End()

	return updateOne[model.ServiceRequest](ctx, s.requests, requestID,
		selectionGuard(customerID, merchantID), selectionUpdate(merchantID, at))
}

func (s *Store) AttachBooking(ctx context.Context, requestID, bookingID string, at time.Time) (*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.AttachBooking")
	defer span.End()

	return updateOne[model.ServiceRequest](ctx, s.requests, requestID, attachGuard(), attachUpdate(bookingID, at))
}

func (s *Store) CompleteRequestForBooking(ctx context.Context, bookingID string, at time.Time) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "Store.CompleteRequestForBooking")
	defer span.End()

	res, err := s.requests.UpdateOne(ctx,
		bson.M{"bookingId": bookingID},
		bson.M{"$set": bson.M{"status": model.RequestCompleted, "updatedAt": at}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (s *Store) ListOrphanedRequests(ctx context.Context, before time.Time) ([]*model.ServiceRequest, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListOrphanedRequests")
	defer span.End()

	filter := bson.M{
		"status":    model.RequestAccepted,
		"bookingId": nil,
		"updatedAt": bson.M{"$lt": before},
	}
	return findAll[model.ServiceRequest](ctx, s.requests, filter, options.Find().SetSort(newestFirst()))
}

// offerGuard matches an open, unselected request the merchant has not bid on
// whose offer list is still below limit.
func offerGuard(merchantID string, limit int) bson.M {
	return bson.M{
		"status":                       bson.M{"$in": model.OpenRequestStatuses},
		"selectedMerchantId":           nil,
		"acceptedMerchants.merchantId": bson.M{"$ne": merchantID},
		// an element at index limit-1 means the array is already full
		fmt.Sprintf("acceptedMerchants.%d", limit-1): bson.M{"$exists": false},
	}
}

func offerUpdate(offer model.Offer) bson.M {
	return bson.M{
		"$push": bson.M{"acceptedMerchants": offer},
		"$set":  bson.M{"status": model.RequestOfferSubmitted, "updatedAt": offer.AcceptedAt},
	}
}

func selectionGuard(customerID, merchantID string) bson.M {
	return bson.M{
		"status":                       bson.M{"$in": model.OpenRequestStatuses},
		"selectedMerchantId":           nil,
		"customerId":                   customerID,
		"acceptedMerchants.merchantId": merchantID,
	}
}

func selectionUpdate(merchantID string, at time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"selectedMerchantId": merchantID,
		"status":             model.RequestAccepted,
		"updatedAt":          at,
	}}
}

func attachGuard() bson.M {
	return bson.M{"status": model.RequestAccepted, "bookingId": nil}
}

func attachUpdate(bookingID string, at time.Time) bson.M {
	return bson.M{"$set": bson.M{
		"bookingId": bookingID,
		"status":    model.RequestActive,
		"updatedAt": at,
	}}
}
