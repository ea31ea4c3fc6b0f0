package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	redisclient "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
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
)

func startContainer(t *testing.T, ctx context.Context, req testcontainers.ContainerRequest) testcontainers.Container {
	t.Helper()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatal(err)
	}
	return container
}

func endpoint(t *testing.T, ctx context.Context, c testcontainers.Container, port string) string {
	t.Helper()
	host, err := c.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	mapped, err := c.MappedPort(ctx, nat.Port(port))
	if err != nil {
		t.Fatal(err)
	}
	return host + ":" + mapped.Port()
}

func TestIntegration_TrainBookingFlow(t *testing.T) {
	ctx := context.Background()

	mongoContainer := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	defer mongoContainer.Terminate(ctx)

	redisContainer := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "redis:7",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForExec([]string{"redis-cli", "ping"}),
	})
	defer redisContainer.Terminate(ctx)

	rabbitContainer := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "rabbitmq:3.13-management",
		ExposedPorts: []string{"5672/tcp", "15672/tcp"},
		WaitingFor:   wait.ForHTTP("/api/health").WithPort("15672"),
	})
	defer rabbitContainer.Terminate(ctx)

	pgContainer := startContainer(t, ctx, testcontainers.ContainerRequest{
		Image:        "postgres:16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "travelgo",
			"POSTGRES_PASSWORD": "travelgo",
			"POSTGRES_DB":       "travelgo",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})
	defer pgContainer.Terminate(ctx)

	cfg := &config.Config{
		MongoURI:   "mongodb://" + endpoint(t, ctx, mongoContainer, "27017"),
		RedisAddr:  endpoint(t, ctx, redisContainer, "6379"),
		RabbitURL:  "amqp://guest:guest@" + endpoint(t, ctx, rabbitContainer, "5672") + "/",
		PGDSN:      "postgresql://travelgo:travelgo@" + endpoint(t, ctx, pgContainer, "5432") + "/travelgo?sslmode=disable",
		JWTSecret:  "integration-secret",
		DraftTTL:   5 * time.Minute,
		TrainSeats: 100,
		BusSeats:   40,
	}

	logger := observability.NewLogger()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		t.Fatal(err)
	}
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database("travelgo")
	bookingStore := mongoadapter.NewBookingStore(db, logger)
	if err := bookingStore.EnsureIndexes(ctx); err != nil {
		t.Fatal(err)
	}
	userStore := mongoadapter.NewUserStore(db, logger)

	redisCli := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	defer redisCli.Close()
	drafts := redisadapter.NewDraftStore(redisCli, cfg.DraftTTL)
	idemp := idempotency.NewIdempotency(redisadapter.NewIdempotency(redisCli), time.Hour)
	rl := rateLimit.NewRateLimiter(redisadapter.NewCache(redisCli))

	rabbitConn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		t.Fatal(err)
	}
	defer rabbitConn.Close()
	publisher, err := rabbit.NewPublisher(rabbitConn)
	if err != nil {
		t.Fatal(err)
	}
	consumer, err := rabbit.NewConsumer(rabbitConn, "notifications.q")
	if err != nil {
		t.Fatal(err)
	}
	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	_, err = pool.Exec(ctx, `
		CREATE TABLE trains (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			train_number TEXT NOT NULL,
			source TEXT NOT NULL,
			destination TEXT NOT NULL,
			departure_time TEXT NOT NULL,
			arrival_time TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL
		);
		INSERT INTO trains VALUES
			('T100', 'Shatabdi Express', '12027', 'Chennai', 'Bangalore', '06:00', '11:00', 750);
	`)
	if err != nil {
		t.Fatal(err)
	}
	catalog := postgres.NewCatalog(pool)

	engine := seats.NewEngine(bookingStore, publisher, logger)
	bookings := booking.NewService(bookingStore, drafts, engine, publisher, logger,
		seats.NewUniverse("S", cfg.TrainSeats), seats.NewUniverse("S", cfg.BusSeats))
	authSvc := auth.NewService(userStore, cfg.JWTSecret)

	handlers := httphandler.NewHandlers(cfg, bookings, authSvc, catalog, idemp, logger)
	srv := httptest.NewServer(httphandler.SetupRouter(handlers, authSvc, logger, rl))
	defer srv.Close()

	post := func(path, token, idempKey string, body interface{}) *http.Response {
		t.Helper()
		data, _ := json.Marshal(body)
		req, _ := http.NewRequest("POST", srv.URL+path, bytes.NewReader(data))
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if idempKey != "" {
			req.Header.Set("Idempotency-Key", idempKey)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		return resp
	}

	// register and log in
	resp := post("/v1/register", "", "", map[string]string{"email": "user@example.com", "password": "hunter2"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: status %d", resp.StatusCode)
	}
	resp = post("/v1/login", "", "", map[string]string{"email": "user@example.com", "password": "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: status %d", resp.StatusCode)
	}
	var loginResp struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&loginResp)
	if loginResp.Token == "" {
		t.Fatal("login returned no token")
	}
	token := loginResp.Token

	// search the catalog
	req, _ := http.NewRequest("GET", srv.URL+"/v1/trains?source=Chennai&destination=Bangalore", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("search trains: %v, status %d", err, resp.StatusCode)
	}
	var searchResp struct {
		Trains []postgres.TrainListing `json:"trains"`
	}
	json.NewDecoder(resp.Body).Decode(&searchResp)
	if len(searchResp.Trains) != 1 || searchResp.Trains[0].ID != "T100" {
		t.Fatalf("search trains: %+v", searchResp.Trains)
	}

	// confirm
	resp = post("/v1/trains/confirm", token, "", map[string]interface{}{
		"train_id":         "T100",
		"name":             "Shatabdi Express",
		"train_number":     "12027",
		"source":           "Chennai",
		"destination":      "Bangalore",
		"travel_date":      "2024-06-10",
		"num_persons":      2,
		"price_per_person": 750,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm: status %d", resp.StatusCode)
	}
	var confirmResp struct {
		DraftID        string   `json:"draft_id"`
		AvailableSeats []string `json:"available_seats"`
	}
	json.NewDecoder(resp.Body).Decode(&confirmResp)
	if confirmResp.DraftID == "" {
		t.Fatal("confirm returned no draft id")
	}
	if len(confirmResp.AvailableSeats) != 2 {
		t.Fatalf("preview = %v", confirmResp.AvailableSeats)
	}

	// finalize
	idempKey := uuid.New().String()
	resp = post("/v1/trains/finalize", token, idempKey, map[string]string{"draft_id": confirmResp.DraftID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("finalize: status %d", resp.StatusCode)
	}
	var finalizeResp struct {
		Booking struct {
			BookingID    string  `json:"booking_id"`
			BookingDate  string  `json:"booking_date"`
			SeatsDisplay string  `json:"seats_display"`
			TotalPrice   float64 `json:"total_price"`
		} `json:"booking"`
	}
	json.NewDecoder(resp.Body).Decode(&finalizeResp)
	if finalizeResp.Booking.BookingID == "" || finalizeResp.Booking.TotalPrice != 1500 {
		t.Fatalf("finalize: %+v", finalizeResp.Booking)
	}

	// retry with the same key replays the original response
	resp = post("/v1/trains/finalize", token, idempKey, map[string]string{"draft_id": confirmResp.DraftID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("finalize replay: status %d", resp.StatusCode)
	}
	var replayResp struct {
		Booking struct {
			BookingID string `json:"booking_id"`
		} `json:"booking"`
	}
	json.NewDecoder(resp.Body).Decode(&replayResp)
	if replayResp.Booking.BookingID != finalizeResp.Booking.BookingID {
		t.Error("idempotent replay returned a different booking")
	}

	// another account reusing the same Idempotency-Key gets its own booking,
	// not a replay of the first user's response
	resp = post("/v1/register", "", "", map[string]string{"email": "second@example.com", "password": "hunter2"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register second: status %d", resp.StatusCode)
	}
	resp = post("/v1/login", "", "", map[string]string{"email": "second@example.com", "password": "hunter2"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login second: status %d", resp.StatusCode)
	}
	var secondLogin struct {
		Token string `json:"token"`
	}
	json.NewDecoder(resp.Body).Decode(&secondLogin)

	resp = post("/v1/trains/confirm", secondLogin.Token, "", map[string]interface{}{
		"train_id":         "T100",
		"name":             "Shatabdi Express",
		"train_number":     "12027",
		"source":           "Chennai",
		"destination":      "Bangalore",
		"travel_date":      "2024-06-10",
		"num_persons":      1,
		"price_per_person": 750,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("confirm second: status %d", resp.StatusCode)
	}
	var secondConfirm struct {
		DraftID string `json:"draft_id"`
	}
	json.NewDecoder(resp.Body).Decode(&secondConfirm)

	resp = post("/v1/trains/finalize", secondLogin.Token, idempKey, map[string]string{"draft_id": secondConfirm.DraftID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("finalize second: status %d", resp.StatusCode)
	}
	var secondFinalize struct {
		Booking struct {
			BookingID string `json:"booking_id"`
		} `json:"booking"`
	}
	json.NewDecoder(resp.Body).Decode(&secondFinalize)
	if secondFinalize.Booking.BookingID == "" || secondFinalize.Booking.BookingID == finalizeResp.Booking.BookingID {
		t.Errorf("second account got booking %q, must be a fresh booking distinct from %q",
			secondFinalize.Booking.BookingID, finalizeResp.Booking.BookingID)
	}

	// the confirmation event reached the broker
	select {
	case d := <-deliveries:
		var event struct {
			Subject string `json:"subject"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(d.Body, &event); err != nil {
			t.Fatal(err)
		}
		if event.Subject != "Train Booking Confirmed" {
			t.Errorf("event subject = %q", event.Subject)
		}
		d.Ack(false)
	case <-time.After(10 * time.Second):
		t.Fatal("no notification event received")
	}

	// dashboard shows the booking
	req, _ = http.NewRequest("GET", srv.URL+"/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list bookings: %v, status %d", err, resp.StatusCode)
	}
	var listResp struct {
		Bookings []struct {
			BookingDate  string `json:"booking_date"`
			SeatsDisplay string `json:"seats_display"`
		} `json:"bookings"`
	}
	json.NewDecoder(resp.Body).Decode(&listResp)
	if len(listResp.Bookings) != 1 {
		t.Fatalf("dashboard has %d bookings, want 1", len(listResp.Bookings))
	}

	// cancel frees the seats
	data, _ := json.Marshal(map[string]string{"booking_date": listResp.Bookings[0].BookingDate})
	req, _ = http.NewRequest("DELETE", srv.URL+"/v1/bookings", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: %v, status %d", err, resp.StatusCode)
	}

	req, _ = http.NewRequest("GET", srv.URL+"/v1/bookings", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list after cancel: %v, status %d", err, resp.StatusCode)
	}
	listResp.Bookings = nil
	json.NewDecoder(resp.Body).Decode(&listResp)
	if len(listResp.Bookings) != 0 {
		t.Errorf("dashboard still has %d bookings after cancel", len(listResp.Bookings))
	}
}
