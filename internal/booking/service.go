package booking

import (
	"context"
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/travelgoapp/travelgo/internal/domain"
	"github.com/travelgoapp/travelgo/internal/observability"
	"github.com/travelgoapp/travelgo/internal/seats"
)

// Store is the full booking store surface the flows need. The seats engine
// only sees the seats.Store slice of it.
type Store interface {
	seats.Store
	QueryByUser(ctx context.Context, email string) ([]domain.Booking, error)
	DeleteByKey(ctx context.Context, email, bookingDate string) error
}

// DraftStore keeps pending bookings between confirm and finalize. Take pops.
type DraftStore interface {
	Put(ctx context.Context, draft domain.Draft) error
	Get(ctx context.Context, id string) (domain.Draft, error)
	Take(ctx context.Context, id string) (domain.Draft, error)
}

type Service struct {
	store    Store
	drafts   DraftStore
	engine   *seats.Engine
	notifier seats.Notifier
	logger   observability.Logger
	trains   seats.Universe
	buses    seats.Universe
	now      func() time.Time
}

func NewService(store Store, drafts DraftStore, engine *seats.Engine, notifier seats.Notifier, logger observability.Logger, trains, buses seats.Universe) *Service {
	return &Service{
		store:    store,
		drafts:   drafts,
		engine:   engine,
		notifier: notifier,
		logger:   logger,
		trains:   trains,
		buses:    buses,
		now:      time.Now,
	}
}

// SetClock overrides the timestamp source. Test hook.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

type TrainDetails struct {
	TrainID        string
	Name           string
	TrainNumber    string
	Source         string
	Destination    string
	DepartureTime  string
	ArrivalTime    string
	TravelDate     string
	NumPersons     int
	PricePerPerson float64
}

// ConfirmTrain checks capacity for the requested party, parks the draft, and
// returns a preview sample of available seats. The preview is display only;
// allocation happens against a fresh read at finalize.
func (s *Service) ConfirmTrain(ctx context.Context, email string, in TrainDetails) (domain.Draft, []string, error) {
	b := domain.Booking{
		Type:           domain.TypeTrain,
		UserEmail:      email,
		ItemID:         in.TrainID,
		Name:           in.Name,
		TrainNumber:    in.TrainNumber,
		Source:         in.Source,
		Destination:    in.Destination,
		DepartureTime:  in.DepartureTime,
		ArrivalTime:    in.ArrivalTime,
		TravelDate:     in.TravelDate,
		NumPersons:     in.NumPersons,
		PricePerPerson: in.PricePerPerson,
		TotalPrice:     in.PricePerPerson * float64(in.NumPersons),
	}
	if err := b.Validate(); err != nil {
		return domain.Draft{}, nil, err
	}

	available, err := s.engine.Available(ctx, b.ItemID, b.TravelDate, s.trains)
	if err != nil {
		return domain.Draft{}, nil, err
	}
	if len(available) < b.NumPersons {
		return domain.Draft{}, nil, domain.ErrInsufficientSeats
	}

	draft := domain.NewDraft(b)
	if err := s.drafts.Put(ctx, draft); err != nil {
		return domain.Draft{}, nil, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return draft, s.engine.Preview(available, b.NumPersons), nil
}

// FinalizeTrain pops the draft and reserves seats automatically.
func (s *Service) FinalizeTrain(ctx context.Context, email, draftID string) (domain.Booking, error) {
	draft, err := s.takeOwned(ctx, email, draftID)
	if err != nil {
		return domain.Booking{}, err
	}
	return s.engine.Reserve(ctx, draft, seats.RandomAuto, nil, s.trains)
}

type BusDetails struct {
	BusID          string
	Name           string
	Source         string
	Destination    string
	Time           string
	BusType        string
	TravelDate     string
	NumPersons     int
	PricePerPerson float64
}

func (s *Service) ConfirmBus(ctx context.Context, email string, in BusDetails) (domain.Draft, error) {
	b := domain.Booking{
		Type:           domain.TypeBus,
		UserEmail:      email,
		ItemID:         in.BusID,
		Name:           in.Name,
		Source:         in.Source,
		Destination:    in.Destination,
		BusTime:        in.Time,
		BusType:        in.BusType,
		TravelDate:     in.TravelDate,
		NumPersons:     in.NumPersons,
		PricePerPerson: in.PricePerPerson,
		TotalPrice:     in.PricePerPerson * float64(in.NumPersons),
	}
	if err := b.Validate(); err != nil {
		return domain.Draft{}, err
	}
	draft := domain.NewDraft(b)
	if err := s.drafts.Put(ctx, draft); err != nil {
		return domain.Draft{}, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return draft, nil
}

// BusSeatMap returns the full bus universe and the seats already booked for
// the draft's bus and date, for the selection page. The draft stays parked.
func (s *Service) BusSeatMap(ctx context.Context, email, draftID string) (universe, booked []string, err error) {
	draft, err := s.drafts.Get(ctx, draftID)
	if err != nil {
		return nil, nil, err
	}
	if draft.Booking.UserEmail != email {
		return nil, nil, domain.ErrNoPendingBooking
	}
	taken, err := s.engine.Booked(ctx, draft.Booking.ItemID, draft.Booking.TravelDate)
	if err != nil {
		return nil, nil, err
	}
	booked = make([]string, 0, len(taken))
	for seat := range taken {
		booked = append(booked, seat)
	}
	sort.Strings(booked)
	return s.buses, booked, nil
}

// FinalizeBus pops the draft and reserves exactly the chosen seats. Any
// collision rejects the whole request; no partial booking is created.
func (s *Service) FinalizeBus(ctx context.Context, email, draftID string, selected []string) (domain.Booking, error) {
	draft, err := s.takeOwned(ctx, email, draftID)
	if err != nil {
		return domain.Booking{}, err
	}
	return s.engine.Reserve(ctx, draft, seats.UserChosen, selected, s.buses)
}

type FlightDetails struct {
	FlightID       string
	Airline        string
	FlightNumber   string
	Source         string
	Destination    string
	DepartureTime  string
	ArrivalTime    string
	TravelDate     string
	NumPersons     int
	PricePerPerson float64
}

func (s *Service) ConfirmFlight(ctx context.Context, email string, in FlightDetails) (domain.Draft, error) {
	b := domain.Booking{
		Type:           domain.TypeFlight,
		UserEmail:      email,
		ItemID:         in.FlightID,
		Airline:        in.Airline,
		FlightNumber:   in.FlightNumber,
		Source:         in.Source,
		Destination:    in.Destination,
		DepartureTime:  in.DepartureTime,
		ArrivalTime:    in.ArrivalTime,
		TravelDate:     in.TravelDate,
		NumPersons:     in.NumPersons,
		PricePerPerson: in.PricePerPerson,
		TotalPrice:     in.PricePerPerson * float64(in.NumPersons),
	}
	if err := b.Validate(); err != nil {
		return domain.Draft{}, err
	}
	draft := domain.NewDraft(b)
	if err := s.drafts.Put(ctx, draft); err != nil {
		return domain.Draft{}, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return draft, nil
}

func (s *Service) FinalizeFlight(ctx context.Context, email, draftID string) (domain.Booking, error) {
	draft, err := s.takeOwned(ctx, email, draftID)
	if err != nil {
		return domain.Booking{}, err
	}
	return s.commitUnseated(ctx, draft.Booking)
}

type HotelDetails struct {
	Name          string
	Location      string
	CheckinDate   string
	CheckoutDate  string
	NumRooms      int
	NumGuests     int
	PricePerNight float64
	Rating        int
}

// ConfirmHotel derives the stay length and total price from the dates.
func (s *Service) ConfirmHotel(ctx context.Context, email string, in HotelDetails) (domain.Draft, error) {
	nights, err := domain.HotelNights(in.CheckinDate, in.CheckoutDate)
	if err != nil {
		return domain.Draft{}, err
	}
	b := domain.Booking{
		Type:          domain.TypeHotel,
		UserEmail:     email,
		Name:          in.Name,
		Location:      in.Location,
		CheckinDate:   in.CheckinDate,
		CheckoutDate:  in.CheckoutDate,
		NumRooms:      in.NumRooms,
		NumGuests:     in.NumGuests,
		Nights:        nights,
		PricePerNight: in.PricePerNight,
		Rating:        in.Rating,
		TotalPrice:    in.PricePerNight * float64(in.NumRooms) * float64(nights),
	}
	if err := b.Validate(); err != nil {
		return domain.Draft{}, err
	}
	draft := domain.NewDraft(b)
	if err := s.drafts.Put(ctx, draft); err != nil {
		return domain.Draft{}, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return draft, nil
}

func (s *Service) FinalizeHotel(ctx context.Context, email, draftID string) (domain.Booking, error) {
	draft, err := s.takeOwned(ctx, email, draftID)
	if err != nil {
		return domain.Booking{}, err
	}
	return s.commitUnseated(ctx, draft.Booking)
}

// ListBookings returns the user's bookings, most recent first.
func (s *Service) ListBookings(ctx context.Context, email string) ([]domain.Booking, error) {
	bookings, err := s.store.QueryByUser(ctx, email)
	if err != nil {
		return nil, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return bookings, nil
}

// Cancel deletes the record under the composite (email, bookingDate) key.
// Other records for the same item/date are untouched, which frees exactly the
// cancelled seats for future availability reads.
func (s *Service) Cancel(ctx context.Context, email, bookingDate string) error {
	err := s.store.DeleteByKey(ctx, email, bookingDate)
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err != nil {
		return errors.Mark(err, domain.ErrStoreUnavailable)
	}
	return nil
}

// commitUnseated persists flight and hotel bookings, which carry no seat
// inventory: capacity is unconstrained and no availability check applies.
func (s *Service) commitUnseated(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	b.BookingID = uuid.New().String()
	b.BookingDate = s.now().Format(time.RFC3339)
	if err := s.store.Put(ctx, b); err != nil {
		return domain.Booking{}, errors.Mark(err, domain.ErrStoreUnavailable)
	}
	observability.BookingsTotal.WithLabelValues(string(b.Type)).Inc()

	subject, message := domain.Notification(b)
	if err := s.notifier.Publish(ctx, subject, message); err != nil {
		observability.NotifyFailuresTotal.Inc()
		s.logger.WithField("booking_id", b.BookingID).Error("notification publish failed", err)
	}
	return b, nil
}

func (s *Service) takeOwned(ctx context.Context, email, draftID string) (domain.Draft, error) {
	draft, err := s.drafts.Take(ctx, draftID)
	if err != nil {
		return domain.Draft{}, err
	}
	if draft.Booking.UserEmail != email {
		return domain.Draft{}, domain.ErrNoPendingBooking
	}
	return draft, nil
}
