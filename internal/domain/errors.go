package domain

import "errors"

var (
	ErrNotLoggedIn       = errors.New("not logged in")
	ErrNoPendingBooking  = errors.New("no pending booking")
	ErrInsufficientSeats = errors.New("not enough seats available")
	ErrSeatCollision     = errors.New("seat already booked")
	ErrStoreUnavailable  = errors.New("booking store unavailable")
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInvalidInput      = errors.New("invalid input")
)
