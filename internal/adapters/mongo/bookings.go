package mongo

import (
	"context"
	"time"

	"github.com/travelgoapp/travelgo/internal/domain"
	"github.com/travelgoapp/travelgo/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingStore keeps booking records keyed by (user_email, booking_date) with
// a secondary index on (item_id, travel_date). Put is a plain insert with no
// uniqueness enforcement on seats; the seat invariant is guarded upstream.
type BookingStore struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewBookingStore(db *mongo.Database, logger observability.Logger) *BookingStore {
	return &BookingStore{
		coll:   db.Collection("bookings"),
		logger: logger,
	}
}

func (s *BookingStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_email", Value: 1}, {Key: "booking_date", Value: -1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "travel_date", Value: 1}},
		},
	})
	return err
}

// QueryByUser returns the user's bookings, most recent first.
func (s *BookingStore) QueryByUser(ctx context.Context, email string) ([]domain.Booking, error) {
	defer observe("query_by_user")()
	cur, err := s.coll.Find(ctx, bson.M{"user_email": email},
		options.Find().SetSort(bson.D{{Key: "booking_date", Value: -1}}))
	if err != nil {
		s.logger.Error("failed to query bookings by user", err)
		return nil, err
	}
	return s.decodeAll(ctx, cur)
}

// QueryByItemDate is the availability source: all bookings for a trip
// instance on a date, via the secondary index.
func (s *BookingStore) QueryByItemDate(ctx context.Context, itemID, travelDate string) ([]domain.Booking, error) {
	defer observe("query_by_item_date")()
	cur, err := s.coll.Find(ctx, bson.M{"item_id": itemID, "travel_date": travelDate})
	if err != nil {
		s.logger.Error("failed to query bookings by item/date", err)
		return nil, err
	}
	return s.decodeAll(ctx, cur)
}

func (s *BookingStore) Put(ctx context.Context, b domain.Booking) error {
	defer observe("put")()
	if _, err := s.coll.InsertOne(ctx, b); err != nil {
		s.logger.Error("failed to insert booking", err)
		return err
	}
	return nil
}

// DeleteByKey removes exactly the record with the given composite key.
func (s *BookingStore) DeleteByKey(ctx context.Context, email, bookingDate string) error {
	defer observe("delete_by_key")()
	res, err := s.coll.DeleteOne(ctx, bson.M{"user_email": email, "booking_date": bookingDate})
	if err != nil {
		s.logger.Error("failed to delete booking", err)
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// decodeAll is lenient: a record that fails to decode is skipped, so one
// malformed document cannot break availability for the whole item/date.
func (s *BookingStore) decodeAll(ctx context.Context, cur *mongo.Cursor) ([]domain.Booking, error) {
	defer cur.Close(ctx)
	var bookings []domain.Booking
	for cur.Next(ctx) {
		var b domain.Booking
		if err := cur.Decode(&b); err != nil {
			s.logger.Warn("skipping malformed booking record", err)
			continue
		}
		bookings = append(bookings, b)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		observability.StoreOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}
