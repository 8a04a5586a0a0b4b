package mongostore

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sajeel041/FIX-POINT/internal/model"
	"github.com/Sajeel041/FIX-POINT/internal/store"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateUser")
	defer span.End()

	u.Email = strings.ToLower(u.Email)
	_, err := s.users.InsertOne(ctx, u)
	return translate(err)
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetUser")
	defer span.End()

	return findOne[model.User](ctx, s.users, bson.M{"_id": id})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetUserByEmail")
	defer span.End()

	return findOne[model.User](ctx, s.users, bson.M{"email": strings.ToLower(email)})
}

func (s *Store) AddUserRole(ctx context.Context, id string, role model.Role, at time.Time) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "Store.AddUserRole")
	defer span.End()

	return updateOne[model.User](ctx, s.users, id, nil, bson.M{
		"$addToSet": bson.M{"roles": role},
		"$set":      bson.M{"updatedAt": at},
	})
}

func (s *Store) UpdateUserContact(ctx context.Context, id, name, phone string, at time.Time) (*model.User, error) {
	ctx, span := s.tracer.Start(ctx, "Store.UpdateUserContact")
	defer span.End()

	return updateOne[model.User](ctx, s.users, id, nil, bson.M{
		"$set": bson.M{"name": name, "phone": phone, "updatedAt": at},
	})
}

func (s *Store) CreateProfile(ctx context.Context, p *model.MerchantProfile) error {
	ctx, span := s.tracer.Start(ctx, "Store.CreateProfile")
	defer span.End()

	_, err := s.profiles.InsertOne(ctx, p)
	return translate(err)
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*model.MerchantProfile, error) {
	ctx, span := s.tracer.Start(ctx, "Store.GetProfile")
	defer span.End()

	return findOne[model.MerchantProfile](ctx, s.profiles, bson.M{"userId": userID})
}

func (s *Store) ListProfiles(ctx context.Context) ([]*model.MerchantProfile, error) {
	ctx, span := s.tracer.Start(ctx, "Store.ListProfiles")
	defer span.End()

	sort := bson.D{{Key: "rating", Value: -1}, {Key: "createdAt", Value: -1}}
	return findAll[model.MerchantProfile](ctx, s.profiles, bson.M{}, options.Find().SetSort(sort))
}

func (s *Store) SaveProfile(ctx context.Context, p *model.MerchantProfile) error {
	ctx, span := s.tracer.Start(ctx, "Store.SaveProfile")
	defer span.End()

	res, err := s.profiles.ReplaceOne(ctx, bson.M{"userId": p.UserID}, p)
	if err != nil {
		return translate(err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
