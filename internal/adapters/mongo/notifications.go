package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/travelgoapp/travelgo/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationLog records delivered notification events so operators can see
// what was sent without digging through broker traffic.
type NotificationLog struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewNotificationLog(db *mongo.Database, logger observability.Logger) *NotificationLog {
	return &NotificationLog{
		coll:   db.Collection("notification_log"),
		logger: logger,
	}
}

type NotificationDoc struct {
	ID         uuid.UUID `bson:"_id"`
	Subject    string    `bson:"subject"`
	Message    string    `bson:"message"`
	RoutingKey string    `bson:"routing_key"`
	ReceivedAt time.Time `bson:"received_at"`
}

func (n *NotificationLog) Record(ctx context.Context, subject, message, routingKey string) error {
	doc := NotificationDoc{
		ID:         uuid.New(),
		Subject:    subject,
		Message:    message,
		RoutingKey: routingKey,
		ReceivedAt: time.Now(),
	}
	_, err := n.coll.InsertOne(ctx, doc)
	if err != nil {
		n.logger.Error("failed to record notification", err)
		return err
	}
	return nil
}
