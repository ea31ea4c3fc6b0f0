package domain

import "github.com/google/uuid"

// Draft is a pending booking held between the confirm-details step and the
// finalize step. It has no identity of its own beyond the request-scoped ID
// used as the draft-store key, and it is discarded (popped) on finalize.
type Draft struct {
	ID      string  `json:"id"`
	Booking Booking `json:"booking"`
}

func NewDraft(b Booking) Draft {
	return Draft{ID: uuid.New().String(), Booking: b}
}
