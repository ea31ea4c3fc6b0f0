package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	mongoadapter "github.com/travelgoapp/travelgo/internal/adapters/mongo"
	"github.com/travelgoapp/travelgo/internal/adapters/rabbit"
	"github.com/travelgoapp/travelgo/internal/config"
	"github.com/travelgoapp/travelgo/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	notificationLog := mongoadapter.NewNotificationLog(mongoClient.Database("travelgo"), logger)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, "notifications.q")
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}

	worker := NewNotifierWorker(consumer, notificationLog, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := worker.Run(ctx); err != nil {
			logger.Error("notifier worker stopped", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown notifier")
}

type NotifierWorker struct {
	consumer *rabbit.Consumer
	log      *mongoadapter.NotificationLog
	logger   observability.Logger
}

func NewNotifierWorker(consumer *rabbit.Consumer, notificationLog *mongoadapter.NotificationLog, logger observability.Logger) *NotifierWorker {
	return &NotifierWorker{consumer: consumer, log: notificationLog, logger: logger}
}

// Run drains booking events and records each delivered notification. A
// failed record is requeued once by the broker; delivery here is best effort
// just like the publish side.
func (w *NotifierWorker) Run(ctx context.Context) error {
	deliveries, err := w.consumer.Consume(ctx)
	if err != nil {
		return err
	}
	w.logger.Info("Notifier started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *NotifierWorker) handle(ctx context.Context, d amqp.Delivery) {
	var event struct {
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(d.Body, &event); err != nil {
		w.logger.Warn("dropping unparseable notification", err)
		d.Nack(false, false)
		return
	}
	if err := w.log.Record(ctx, event.Subject, event.Message, d.RoutingKey); err != nil {
		d.Nack(false, !d.Redelivered)
		return
	}
	w.logger.WithField("subject", event.Subject).Info("notification recorded")
	d.Ack(false)
}
