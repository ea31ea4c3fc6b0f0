package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr     string
	MongoURI     string
	RedisAddr    string
	RabbitURL    string
	PGDSN        string
	JWTSecret    string
	DraftTTL     time.Duration
	SeatLocks    bool
	TrainSeats   int
	BusSeats     int
	OTLPEndpoint string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	draftTTL, _ := time.ParseDuration(os.Getenv("DRAFT_TTL"))
	if draftTTL == 0 {
		draftTTL = 15 * time.Minute
	}

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "travelgo-dev-secret"
	}

	return &Config{
		HTTPAddr:     addr,
		MongoURI:     os.Getenv("MONGO_URI"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RabbitURL:    os.Getenv("RABBIT_URL"),
		PGDSN:        os.Getenv("PG_DSN"),
		JWTSecret:    secret,
		DraftTTL:     draftTTL,
		SeatLocks:    os.Getenv("SEAT_LOCKS") == "true",
		TrainSeats:   100,
		BusSeats:     40,
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
