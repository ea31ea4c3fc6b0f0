package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/travelgoapp/travelgo/internal/domain"
)

// DraftStore holds pending bookings server-side under a request-scoped key
// with an explicit TTL, so an abandoned flow leaves nothing behind once the
// draft expires.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (d *DraftStore) Put(ctx context.Context, draft domain.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return d.client.Set(ctx, "draft:"+draft.ID, data, d.ttl).Err()
}

// Get returns the draft without consuming it. ErrNoPendingBooking when the
// key is missing or expired.
func (d *DraftStore) Get(ctx context.Context, id string) (domain.Draft, error) {
	return d.decode(d.client.Get(ctx, "draft:"+id))
}

// Take pops the draft: a second Take of the same id reports
// ErrNoPendingBooking, mirroring the one-shot nature of a pending booking.
func (d *DraftStore) Take(ctx context.Context, id string) (domain.Draft, error) {
	return d.decode(d.client.GetDel(ctx, "draft:"+id))
}

func (d *DraftStore) decode(res *redis.StringCmd) (domain.Draft, error) {
	data, err := res.Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Draft{}, domain.ErrNoPendingBooking
	}
	if err != nil {
		return domain.Draft{}, err
	}
	var draft domain.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return domain.Draft{}, errors.Mark(err, domain.ErrNoPendingBooking)
	}
	return draft, nil
}
