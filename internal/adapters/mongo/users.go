package mongo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/travelgoapp/travelgo/internal/domain"
	"github.com/travelgoapp/travelgo/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserStore struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewUserStore(db *mongo.Database, logger observability.Logger) *UserStore {
	return &UserStore{
		coll:   db.Collection("users"),
		logger: logger,
	}
}

func (s *UserStore) Get(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		s.logger.Error("failed to get user", err)
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) Put(ctx context.Context, user domain.User) error {
	if _, err := s.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrConflict
		}
		s.logger.Error("failed to insert user", err)
		return err
	}
	return nil
}
