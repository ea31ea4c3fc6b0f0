package seats

import (
	"context"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/travelgoapp/travelgo/internal/domain"
	"github.com/travelgoapp/travelgo/internal/observability"
)

// Store is the slice of the booking store the engine needs: the secondary
// index read and the plain insert. Put carries no uniqueness guarantee.
type Store interface {
	QueryByItemDate(ctx context.Context, itemID, travelDate string) ([]domain.Booking, error)
	Put(ctx context.Context, b domain.Booking) error
}

// Locker provides per-seat conditional acquisition for the strengthened
// commit mode. A nil Locker keeps the original re-check-then-write behavior.
type Locker interface {
	Acquire(ctx context.Context, itemID, travelDate, seat string) (bool, error)
	Release(ctx context.Context, itemID, travelDate, seat string) error
}

// Notifier is the best-effort notification side channel. Failures are logged
// by the engine and never surfaced to the caller.
type Notifier interface {
	Publish(ctx context.Context, subject, message string) error
}

type Mode int

const (
	// RandomAuto draws NumPersons distinct seats uniformly at random,
	// without replacement, from the available set.
	RandomAuto Mode = iota
	// UserChosen uses the caller's exact selection; the whole request is
	// rejected if any requested seat is no longer free.
	UserChosen
)

type Engine struct {
	store    Store
	notifier Notifier
	logger   observability.Logger
	locker   Locker
	rnd      *rand.Rand
	now      func() time.Time
}

type Option func(*Engine)

// WithLocker upgrades the commit step to conditional per-seat acquisition.
func WithLocker(l Locker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithRand injects the random source used for automatic seat selection.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rnd = r }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func NewEngine(store Store, notifier Notifier, logger observability.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		notifier: notifier,
		logger:   logger,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Booked returns the set of seats already taken for an item/date, the union
// of parsed seats_display across all records on the secondary index. Records
// without a parseable seats_display contribute nothing.
func (e *Engine) Booked(ctx context.Context, itemID, travelDate string) (map[string]bool, error) {
	records, err := e.store.QueryByItemDate(ctx, itemID, travelDate)
	if err != nil {
		return nil, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	taken := make(map[string]bool)
	for _, rec := range records {
		for _, seat := range rec.Seats() {
			taken[seat] = true
		}
	}
	return taken, nil
}

// Available returns the universe minus the taken seats, in universe order.
// Deterministic for a consistent store read; no side effects.
func (e *Engine) Available(ctx context.Context, itemID, travelDate string, universe Universe) ([]string, error) {
	taken, err := e.Booked(ctx, itemID, travelDate)
	if err != nil {
		return nil, err
	}
	return universe.Minus(taken), nil
}

// Preview picks up to n available seats for display during the confirm step.
// Actual allocation happens on Reserve against a fresh availability read.
func (e *Engine) Preview(available []string, n int) []string {
	if n > len(available) {
		n = len(available)
	}
	return e.sample(available, n)
}

// Reserve finalizes a pending booking: it re-checks availability, selects
// seats per mode, materializes the immutable record and commits it, then
// emits the confirmation notification. The availability re-check narrows but
// does not close the check-to-write race; configure a Locker to close it.
func (e *Engine) Reserve(ctx context.Context, draft domain.Draft, mode Mode, requested []string, universe Universe) (domain.Booking, error) {
	b := draft.Booking

	available, err := e.Available(ctx, b.ItemID, b.TravelDate, universe)
	if err != nil {
		return domain.Booking{}, err
	}

	var selected []string
	switch mode {
	case RandomAuto:
		if len(available) < b.NumPersons {
			return domain.Booking{}, domain.ErrInsufficientSeats
		}
		selected = e.sample(available, b.NumPersons)
	case UserChosen:
		// The seat count follows the caller's selection, not NumPersons,
		// but each seat may appear only once.
		if len(requested) == 0 {
			return domain.Booking{}, domain.ErrInvalidInput
		}
		seen := make(map[string]bool, len(requested))
		for _, seat := range requested {
			if seen[seat] {
				return domain.Booking{}, domain.ErrInvalidInput
			}
			seen[seat] = true
		}
		free := make(map[string]bool, len(available))
		for _, seat := range available {
			free[seat] = true
		}
		for _, seat := range requested {
			if !free[seat] {
				observability.SeatConflictsTotal.Inc()
				return domain.Booking{}, domain.ErrSeatCollision
			}
		}
		selected = requested
	default:
		return domain.Booking{}, domain.ErrInvalidInput
	}

	b.BookingID = uuid.New().String()
	b.BookingDate = e.now().Format(time.RFC3339)
	b.SeatsDisplay = domain.JoinSeats(selected)

	if err := e.commit(ctx, b, selected); err != nil {
		return domain.Booking{}, err
	}
	observability.BookingsTotal.WithLabelValues(string(b.Type)).Inc()

	e.notify(ctx, b)
	return b, nil
}

func (e *Engine) commit(ctx context.Context, b domain.Booking, selected []string) error {
	if e.locker == nil {
		if err := e.store.Put(ctx, b); err != nil {
			return errors.Mark(err, domain.ErrStoreUnavailable)
		}
		return nil
	}

	acquired := make([]string, 0, len(selected))
	release := func() {
		for _, seat := range acquired {
			if err := e.locker.Release(ctx, b.ItemID, b.TravelDate, seat); err != nil {
				e.logger.WithField("seat", seat).Error("failed to release seat lock", err)
			}
		}
	}
	for _, seat := range selected {
		ok, err := e.locker.Acquire(ctx, b.ItemID, b.TravelDate, seat)
		if err != nil {
			release()
			return errors.Mark(err, domain.ErrStoreUnavailable)
		}
		if !ok {
			release()
			observability.SeatConflictsTotal.Inc()
			return domain.ErrSeatCollision
		}
		acquired = append(acquired, seat)
	}
	if err := e.store.Put(ctx, b); err != nil {
		release()
		return errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, b domain.Booking) {
	subject, message := domain.Notification(b)
	if err := e.notifier.Publish(ctx, subject, message); err != nil {
		observability.NotifyFailuresTotal.Inc()
		e.logger.WithField("booking_id", b.BookingID).Error("notification publish failed", err)
	}
}

func (e *Engine) sample(available []string, n int) []string {
	selected := make([]string, n)
	for i, j := range e.rnd.Perm(len(available))[:n] {
		selected[i] = available[j]
	}
	return selected
}
