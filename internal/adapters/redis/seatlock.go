package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SeatLock implements the strengthened commit: a per-seat SETNX marker keyed
// by item, travel date and seat. The TTL bounds how long a crashed finalize
// can keep a seat locked; committed bookings keep the seat taken through the
// store itself.
type SeatLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSeatLock(client *redis.Client, ttl time.Duration) *SeatLock {
	return &SeatLock{client: client, ttl: ttl}
}

func seatKey(itemID, travelDate, seat string) string {
	return "seat:" + itemID + ":" + travelDate + ":" + seat
}

func (l *SeatLock) Acquire(ctx context.Context, itemID, travelDate, seat string) (bool, error) {
	res := l.client.SetNX(ctx, seatKey(itemID, travelDate, seat), "locked", l.ttl)
	return res.Val(), res.Err()
}

func (l *SeatLock) Release(ctx context.Context, itemID, travelDate, seat string) error {
	return l.client.Del(ctx, seatKey(itemID, travelDate, seat)).Err()
}
