package domain

import (
	"strings"
	"time"
)

type BookingType string

const (
	TypeTrain  BookingType = "train"
	TypeBus    BookingType = "bus"
	TypeFlight BookingType = "flight"
	TypeHotel  BookingType = "hotel"
)

// SeatsSeparator is the delimiter used inside SeatsDisplay.
const SeatsSeparator = ", "

// Booking is one confirmed reservation. The composite store key is
// (UserEmail, BookingDate); availability queries group by (ItemID, TravelDate).
// Records are write-once: never mutated after Put.
type Booking struct {
	BookingID   string      `bson:"booking_id" json:"booking_id"`
	UserEmail   string      `bson:"user_email" json:"user_email"`
	BookingDate string      `bson:"booking_date" json:"booking_date"`
	Type        BookingType `bson:"booking_type" json:"booking_type"`

	ItemID         string  `bson:"item_id,omitempty" json:"item_id,omitempty"`
	TravelDate     string  `bson:"travel_date,omitempty" json:"travel_date,omitempty"`
	NumPersons     int     `bson:"num_persons,omitempty" json:"num_persons,omitempty"`
	PricePerPerson float64 `bson:"price_per_person,omitempty" json:"price_per_person,omitempty"`
	TotalPrice     float64 `bson:"total_price" json:"total_price"`
	SeatsDisplay   string  `bson:"seats_display,omitempty" json:"seats_display,omitempty"`

	Name        string `bson:"name,omitempty" json:"name,omitempty"`
	Source      string `bson:"source,omitempty" json:"source,omitempty"`
	Destination string `bson:"destination,omitempty" json:"destination,omitempty"`

	// train / flight
	TrainNumber   string `bson:"train_number,omitempty" json:"train_number,omitempty"`
	Airline       string `bson:"airline,omitempty" json:"airline,omitempty"`
	FlightNumber  string `bson:"flight_number,omitempty" json:"flight_number,omitempty"`
	DepartureTime string `bson:"departure_time,omitempty" json:"departure_time,omitempty"`
	ArrivalTime   string `bson:"arrival_time,omitempty" json:"arrival_time,omitempty"`

	// bus
	BusTime string `bson:"time,omitempty" json:"time,omitempty"`
	BusType string `bson:"type,omitempty" json:"type,omitempty"`

	// hotel
	Location      string  `bson:"location,omitempty" json:"location,omitempty"`
	CheckinDate   string  `bson:"checkin_date,omitempty" json:"checkin_date,omitempty"`
	CheckoutDate  string  `bson:"checkout_date,omitempty" json:"checkout_date,omitempty"`
	NumRooms      int     `bson:"num_rooms,omitempty" json:"num_rooms,omitempty"`
	NumGuests     int     `bson:"num_guests,omitempty" json:"num_guests,omitempty"`
	Nights        int     `bson:"nights,omitempty" json:"nights,omitempty"`
	PricePerNight float64 `bson:"price_per_night,omitempty" json:"price_per_night,omitempty"`
	Rating        int     `bson:"rating,omitempty" json:"rating,omitempty"`
}

// Seats parses SeatsDisplay into individual seat identifiers. A record whose
// SeatsDisplay is empty or unparseable contributes no seats.
func (b Booking) Seats() []string {
	if b.SeatsDisplay == "" {
		return nil
	}
	var seats []string
	for _, s := range strings.Split(b.SeatsDisplay, SeatsSeparator) {
		s = strings.TrimSpace(s)
		if s != "" {
			seats = append(seats, s)
		}
	}
	return seats
}

// JoinSeats renders a seat list into the SeatsDisplay wire form.
func JoinSeats(seats []string) string {
	return strings.Join(seats, SeatsSeparator)
}

func (b Booking) Validate() error {
	if b.UserEmail == "" {
		return ErrInvalidInput
	}
	switch b.Type {
	case TypeTrain:
		if b.ItemID == "" || b.TravelDate == "" || b.TrainNumber == "" || b.Source == "" || b.Destination == "" || b.NumPersons < 1 {
			return ErrInvalidInput
		}
	case TypeBus:
		if b.ItemID == "" || b.TravelDate == "" || b.Source == "" || b.Destination == "" || b.NumPersons < 1 {
			return ErrInvalidInput
		}
	case TypeFlight:
		if b.Airline == "" || b.FlightNumber == "" || b.TravelDate == "" || b.Source == "" || b.Destination == "" || b.NumPersons < 1 {
			return ErrInvalidInput
		}
	case TypeHotel:
		if b.Name == "" || b.Location == "" || b.CheckinDate == "" || b.CheckoutDate == "" || b.NumRooms < 1 {
			return ErrInvalidInput
		}
	default:
		return ErrInvalidInput
	}
	return nil
}

// HotelNights computes the stay length from the checkin/checkout dates
// (ISO calendar dates).
func HotelNights(checkin, checkout string) (int, error) {
	ci, err := time.Parse("2006-01-02", checkin)
	if err != nil {
		return 0, ErrInvalidInput
	}
	co, err := time.Parse("2006-01-02", checkout)
	if err != nil {
		return 0, ErrInvalidInput
	}
	nights := int(co.Sub(ci).Hours() / 24)
	if nights < 1 {
		return 0, ErrInvalidInput
	}
	return nights, nil
}
