package domain

import (
	"fmt"
	"strconv"
)

// Notification renders the confirmation subject and message for a committed
// booking. The message carries the route/location summary, seats where
// applicable, and the total price.
func Notification(b Booking) (subject, message string) {
	total := strconv.FormatFloat(b.TotalPrice, 'f', -1, 64)
	switch b.Type {
	case TypeTrain:
		return "Train Booking Confirmed", fmt.Sprintf(
			"Train %s from %s to %s on %s is confirmed.\nSeats: %s\nTotal: ₹%s",
			b.TrainNumber, b.Source, b.Destination, b.TravelDate, b.SeatsDisplay, total)
	case TypeBus:
		return "Bus Booking Confirmed", fmt.Sprintf(
			"Your bus from %s to %s on %s is confirmed.\nSeats: %s\nTotal: ₹%s",
			b.Source, b.Destination, b.TravelDate, b.SeatsDisplay, total)
	case TypeFlight:
		return "Flight Booking Confirmed", fmt.Sprintf(
			"Your flight booking on %s from %s to %s with %s is confirmed.\nTotal: ₹%s",
			b.TravelDate, b.Source, b.Destination, b.Airline, total)
	case TypeHotel:
		return "Hotel Booking Confirmed", fmt.Sprintf(
			"Hotel booking at %s in %s from %s to %s is confirmed.\nTotal: ₹%s",
			b.Name, b.Location, b.CheckinDate, b.CheckoutDate, total)
	}
	return "Booking Confirmed", "Your booking is confirmed.\nTotal: ₹" + total
}
