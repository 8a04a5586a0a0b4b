// Package mongostore persists the marketplace in MongoDB. Conditional writes
// encode their preconditions in the update filter so a single round trip both
// checks and applies them.
package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sajeel041/FIX-POINT/internal/store"
)

const (
	usersCollection    = "users"
	profilesCollection = "merchantprofiles"
	requestsCollection = "servicerequests"
	bookingsCollection = "bookings"
	messagesCollection = "chatmessages"
)

type Store struct {
	client       *mongo.Client
	users        *mongo.Collection
	profiles     *mongo.Collection
	requests     *mongo.Collection
	bookings     *mongo.Collection
	messages     *mongo.Collection
	transactions bool
	tracer       trace.Tracer
}

var _ store.Store = (*Store)(nil)

// New binds the store to database. With transactions enabled, Atomically runs
// inside a session transaction, which needs a replica set deployment.
func New(client *mongo.Client, database string, transactions bool) *Store {
	db := client.Database(database)
	return &Store{
		client:       client,
		users:        db.Collection(usersCollection),
		profiles:     db.Collection(profilesCollection),
		requests:     db.Collection(requestsCollection),
		bookings:     db.Collection(bookingsCollection),
		messages:     db.Collection(messagesCollection),
		transactions: transactions,
		tracer:       otel.Tracer("github.com/Sajeel041/FIX-POINT/internal/store/mongostore"),
	}
}

// EnsureIndexes creates the indexes the store relies on. Safe to call on every start.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	specs := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.profiles: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}}},
		},
		s.requests: {
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "serviceType", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "bookingId", Value: 1}}},
		},
		s.bookings: {
			{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "merchantId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{
				Keys: bson.D{{Key: "serviceRequestId", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"serviceRequestId": bson.M{"$type": "string"}}),
			},
		},
		s.messages: {
			{Keys: bson.D{{Key: "bookingId", Value: 1}, {Key: "createdAt", Value: 1}}},
			{Keys: bson.D{{Key: "receiverId", Value: 1}, {Key: "read", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for coll, models := range specs {
		if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context, s store.Store) error) error {
	ctx, span := s.tracer.Start(ctx, "Store.Atomically")
	defer span.End()

	if !s.transactions {
		return fn(ctx, s)
	}
	// Nested calls join the transaction already carried by ctx.
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx, s)
	}
	session, err := s.client.StartSession()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	var out T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&out); err != nil {
		return nil, translate(err)
	}
	return &out, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	out := []*T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		out = append(out, &item)
	}
	return out, cursor.Err()
}

// updateOne applies a guarded FindOneAndUpdate and returns the document after
// the update. A miss is reported as ErrConditionFailed when the document
// exists and ErrNotFound otherwise.
func updateOne[T any](ctx context.Context, coll *mongo.Collection, id string, guard bson.M, update bson.M) (*T, error) {
	filter := bson.M{"_id": id}
	for k, v := range guard {
		filter[k] = v
	}
	var out T
	err := coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&out)
	if err == nil {
		return &out, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	n, cerr := coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if cerr != nil {
		return nil, cerr
	}
	if n == 0 {
		return nil, store.ErrNotFound
	}
	return nil, store.ErrConditionFailed
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return store.ErrDuplicate
	default:
		return err
	}
}

func newestFirst() bson.D {
	return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}
}
