package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	mongoadapter "github.com/travelgoapp/travelgo/internal/adapters/mongo"
	"github.com/travelgoapp/travelgo/internal/adapters/postgres"
	"github.com/travelgoapp/travelgo/internal/adapters/rabbit"
	redisadapter "github.com/travelgoapp/travelgo/internal/adapters/redis"
	"github.com/travelgoapp/travelgo/internal/auth"
	"github.com/travelgoapp/travelgo/internal/booking"
	"github.com/travelgoapp/travelgo/internal/config"
	httphandler "github.com/travelgoapp/travelgo/internal/http"
	"github.com/travelgoapp/travelgo/internal/idempotency"
	"github.com/travelgoapp/travelgo/internal/observability"
	"github.com/travelgoapp/travelgo/internal/rateLimit"
	"github.com/travelgoapp/travelgo/internal/seats"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
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
	db := mongoClient.Database("travelgo")
	bookingStore := mongoadapter.NewBookingStore(db, logger)
	if err := bookingStore.EnsureIndexes(context.Background()); err != nil {
		log.Fatalf("failed to ensure booking indexes: %v", err)
	}
	userStore := mongoadapter.NewUserStore(db, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	drafts := redisadapter.NewDraftStore(redisClient, cfg.DraftTTL)
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisClient), time.Hour)
	rl := rateLimit.NewRateLimiter(redisCache)

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer rabbitConn.Close()
	notifier, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		log.Fatalf("failed to create publisher: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), cfg.PGDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	catalog := postgres.NewCatalog(pool)

	engineOpts := []seats.Option{}
	if cfg.SeatLocks {
		engineOpts = append(engineOpts, seats.WithLocker(redisadapter.NewSeatLock(redisClient, cfg.DraftTTL)))
	}
	engine := seats.NewEngine(bookingStore, notifier, logger, engineOpts...)

	trains := seats.NewUniverse("S", cfg.TrainSeats)
	buses := seats.NewUniverse("S", cfg.BusSeats)
	bookings := booking.NewService(bookingStore, drafts, engine, notifier, logger, trains, buses)
	authSvc := auth.NewService(userStore, cfg.JWTSecret)

	handlers := httphandler.NewHandlers(cfg, bookings, authSvc, catalog, idemp, logger)
	r := httphandler.SetupRouter(handlers, authSvc, logger, rl)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-quit:
		case <-ctx.Done():
			return ctx.Err()
		}
		logger.Info("Shutdown Server ...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
	logger.Info("Server exiting")
}
