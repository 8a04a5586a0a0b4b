package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

func (s *Store) CreateBooking(ctx context.Context, b *model.Booking) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateBooking")
	defer span.End()

	_, err := s.bookings.InsertOne(ctx, b)
	return translate(err)
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetBooking")
	defer span.End()

	return findOne[model.Booking](ctx, s.bookings, bson.M{"_id": id})
}

func (s *Store) GetBookingForRequest(ctx context.Context, requestID string) (*model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetBookingForRequest")
	defer span.End()

	return findOne[model.Booking](ctx, s.bookings, bson.M{"serviceRequestId": requestID})
}

func (s *Store) ListOpenBookings(ctx context.Context, f store.BookingFilter) ([]*model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListOpenBookings")
	defer span.End()

	filter := bson.M{"status": bson.M{"$ne": model.BookingCompleted}}
	if f.CustomerID != "" {
		filter["customerId"] = f.CustomerID
	}
	if f.MerchantID != "" {
		filter["merchantId"] = f.MerchantID
	}
	return findAll[model.Booking](ctx, s.bookings, filter, options.Find().SetSort(newestFirst()))
}

func (s *Store) TransitionBooking(ctx context.Context, id string, from, to model.BookingStatus, at time.Time) (*model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "Store.TransitionBooking")
	defer span.End()

	return updateOne[model.Booking](ctx, s.bookings, id,
		bson.M{"status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": at}},
	)
}

func (s *Store) CreateMessage(ctx context.Context, m *model.Message) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateMessage")
	defer span.End()

	_, err := s.messages.InsertOne(ctx, m)
	return translate(err)
}

func (s *Store) ListMessages(ctx context.Context, bookingID string) ([]*model.Message, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListMessages")
	defer span.End()

	sort := bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}
	return findAll[model.Message](ctx, s.messages, bson.M{"bookingId": bookingID}, options.Find().SetSort(sort))
}

func (s *Store) MarkThreadRead(ctx context.Context, bookingID, receiverID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "Store.MarkThreadRead")
	defer span.End()

	res, err := s.messages.UpdateMany(ctx,
		bson.M{"bookingId": bookingID, "receiverId": receiverID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) CountUnread(ctx context.Context, receiverID string) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "Store.CountUnread")
	defer span.End()

	return s.messages.CountDocuments(ctx, bson.M{"receiverId": receiverID, "read": false})
}

func (s *Store) LatestUnread(ctx context.Context, receiverID string) (*model.Message, error) {
	ctx, span := s.tracer.Start(ctx, "Store.LatestUnread")
	defer span.End()

	return findOne[model.Message](ctx, s.messages,
		bson.M{"receiverId": receiverID, "read": false},
		options.FindOne().SetSort(newestFirst()),
	)
}
