package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Catalog serves the search step of each booking flow. It is read-only from
// the service's point of view; listings are seeded out of band.
type Catalog struct {
	pool *pgxpool.Pool
}

func NewCatalog(pool *pgxpool.Pool) *Catalog {
	return &Catalog{pool: pool}
}

type TrainListing struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TrainNumber   string  `json:"train_number"`
	Source        string  `json:"source"`
	Destination   string  `json:"destination"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Price         float64 `json:"price"`
}

type BusListing struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	Destination string  `json:"destination"`
	Time        string  `json:"time"`
	BusType     string  `json:"type"`
	Price       float64 `json:"price"`
}

type FlightListing struct {
	ID            string  `json:"id"`
	Airline       string  `json:"airline"`
	FlightNumber  string  `json:"flight_number"`
	Source        string  `json:"source"`
	Destination   string  `json:"destination"`
	DepartureTime string  `json:"departure_time"`
	ArrivalTime   string  `json:"arrival_time"`
	Price         float64 `json:"price"`
}

type HotelListing struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Location      string  `json:"location"`
	PricePerNight float64 `json:"price_per_night"`
	Rating        int     `json:"rating"`
}

func (c *Catalog) SearchTrains(ctx context.Context, source, destination string) ([]TrainListing, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, name, train_number, source, destination, departure_time, arrival_time, price
		FROM trains
		WHERE ($1 = '' OR source = $1) AND ($2 = '' OR destination = $2)
		ORDER BY departure_time
	`, source, destination)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []TrainListing
	for rows.Next() {
		var t TrainListing
		if err := rows.Scan(&t.ID, &t.Name, &t.TrainNumber, &t.Source, &t.Destination, &t.DepartureTime, &t.ArrivalTime, &t.Price); err != nil {
			return nil, err
		}
		listings = append(listings, t)
	}
	return listings, rows.Err()
}

func (c *Catalog) SearchBuses(ctx context.Context, source, destination string) ([]BusListing, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, name, source, destination, departure_time, bus_type, price
		FROM buses
		WHERE ($1 = '' OR source = $1) AND ($2 = '' OR destination = $2)
		ORDER BY departure_time
	`, source, destination)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []BusListing
	for rows.Next() {
		var b BusListing
		if err := rows.Scan(&b.ID, &b.Name, &b.Source, &b.Destination, &b.Time, &b.BusType, &b.Price); err != nil {
			return nil, err
		}
		listings = append(listings, b)
	}
	return listings, rows.Err()
}

func (c *Catalog) SearchFlights(ctx context.Context, source, destination string) ([]FlightListing, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, airline, flight_number, source, destination, departure_time, arrival_time, price
		FROM flights
		WHERE ($1 = '' OR source = $1) AND ($2 = '' OR destination = $2)
		ORDER BY departure_time
	`, source, destination)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []FlightListing
	for rows.Next() {
		var f FlightListing
		if err := rows.Scan(&f.ID, &f.Airline, &f.FlightNumber, &f.Source, &f.Destination, &f.DepartureTime, &f.ArrivalTime, &f.Price); err != nil {
			return nil, err
		}
		listings = append(listings, f)
	}
	return listings, rows.Err()
}

func (c *Catalog) SearchHotels(ctx context.Context, location string) ([]HotelListing, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, name, location, price_per_night, rating
		FROM hotels
		WHERE ($1 = '' OR location = $1)
		ORDER BY rating DESC
	`, location)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []HotelListing
	for rows.Next() {
		var h HotelListing
		if err := rows.Scan(&h.ID, &h.Name, &h.Location, &h.PricePerNight, &h.Rating); err != nil {
			return nil, err
		}
		listings = append(listings, h)
	}
	return listings, rows.Err()
}
