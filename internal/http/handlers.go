package http

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/travelgoapp/travelgo/internal/adapters/postgres"
	"github.com/travelgoapp/travelgo/internal/auth"
	"github.com/travelgoapp/travelgo/internal/booking"
	"github.com/travelgoapp/travelgo/internal/config"
	"github.com/travelgoapp/travelgo/internal/domain"
	"github.com/travelgoapp/travelgo/internal/idempotency"
	"github.com/travelgoapp/travelgo/internal/observability"
)

type Handlers struct {
	cfg      *config.Config
	bookings *booking.Service
	auth     *auth.Service
	catalog  *postgres.Catalog
	idemp    *idempotency.Idempotency
	logger   observability.Logger
}

func NewHandlers(cfg *config.Config, bookings *booking.Service, authSvc *auth.Service, catalog *postgres.Catalog, idemp *idempotency.Idempotency, logger observability.Logger) *Handlers {
	return &Handlers{
		cfg:      cfg,
		bookings: bookings,
		auth:     authSvc,
		catalog:  catalog,
		idemp:    idemp,
		logger:   logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) []byte {
	data, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
	return data
}

// writeErr converts core errors to a user-facing message; nothing here is
// fatal to the process.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotLoggedIn):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not logged in"})
	case errors.Is(err, domain.ErrNoPendingBooking):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no pending booking found"})
	case errors.Is(err, domain.ErrInsufficientSeats):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "not enough seats available, please try again"})
	case errors.Is(err, domain.ErrSeatCollision):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "one or more selected seats are already booked, please select different seats"})
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already exists"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid input"})
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "booking failed, please try again later"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	if err := h.auth.Register(r.Context(), req.Email, req.Password); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
			return
		}
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "registration successful, please log in"})
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrNotLoggedIn) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid email or password"})
			return
		}
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handlers) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.bookings.ListBookings(r.Context(), sessionEmail(r))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

func (h *Handlers) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BookingDate string `json:"booking_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BookingDate == "" {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	if err := h.bookings.Cancel(r.Context(), sessionEmail(r), req.BookingDate); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "booking cancelled"})
}

func (h *Handlers) SearchTrains(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.SearchTrains(r.Context(), r.URL.Query().Get("source"), r.URL.Query().Get("destination"))
	if err != nil {
		writeErr(w, errors.Mark(err, domain.ErrStoreUnavailable))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"trains": listings})
}

func (h *Handlers) SearchBuses(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.SearchBuses(r.Context(), r.URL.Query().Get("source"), r.URL.Query().Get("destination"))
	if err != nil {
		writeErr(w, errors.Mark(err, domain.ErrStoreUnavailable))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"buses": listings})
}

func (h *Handlers) SearchFlights(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.SearchFlights(r.Context(), r.URL.Query().Get("source"), r.URL.Query().Get("destination"))
	if err != nil {
		writeErr(w, errors.Mark(err, domain.ErrStoreUnavailable))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"flights": listings})
}

func (h *Handlers) SearchHotels(w http.ResponseWriter, r *http.Request) {
	listings, err := h.catalog.SearchHotels(r.Context(), r.URL.Query().Get("location"))
	if err != nil {
		writeErr(w, errors.Mark(err, domain.ErrStoreUnavailable))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"hotels": listings})
}

func (h *Handlers) ConfirmTrain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrainID        string  `json:"train_id"`
		Name           string  `json:"name"`
		TrainNumber    string  `json:"train_number"`
		Source         string  `json:"source"`
		Destination    string  `json:"destination"`
		DepartureTime  string  `json:"departure_time"`
		ArrivalTime    string  `json:"arrival_time"`
		TravelDate     string  `json:"travel_date"`
		NumPersons     int     `json:"num_persons"`
		PricePerPerson float64 `json:"price_per_person"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	draft, preview, err := h.bookings.ConfirmTrain(r.Context(), sessionEmail(r), booking.TrainDetails{
		TrainID:        req.TrainID,
		Name:           req.Name,
		TrainNumber:    req.TrainNumber,
		Source:         req.Source,
		Destination:    req.Destination,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    req.ArrivalTime,
		TravelDate:     req.TravelDate,
		NumPersons:     req.NumPersons,
		PricePerPerson: req.PricePerPerson,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"draft_id":        draft.ID,
		"booking":         draft.Booking,
		"available_seats": preview,
	})
}

func (h *Handlers) FinalizeTrain(w http.ResponseWriter, r *http.Request) {
	h.finalize(w, r, func(email, draftID string) (domain.Booking, error) {
		return h.bookings.FinalizeTrain(r.Context(), email, draftID)
	})
}

func (h *Handlers) ConfirmBus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BusID          string  `json:"bus_id"`
		Name           string  `json:"name"`
		Source         string  `json:"source"`
		Destination    string  `json:"destination"`
		Time           string  `json:"time"`
		Type           string  `json:"type"`
		TravelDate     string  `json:"travel_date"`
		NumPersons     int     `json:"num_persons"`
		PricePerPerson float64 `json:"price_per_person"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	draft, err := h.bookings.ConfirmBus(r.Context(), sessionEmail(r), booking.BusDetails{
		BusID:          req.BusID,
		Name:           req.Name,
		Source:         req.Source,
		Destination:    req.Destination,
		Time:           req.Time,
		BusType:        req.Type,
		TravelDate:     req.TravelDate,
		NumPersons:     req.NumPersons,
		PricePerPerson: req.PricePerPerson,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"draft_id": draft.ID,
		"booking":  draft.Booking,
	})
}

func (h *Handlers) BusSeats(w http.ResponseWriter, r *http.Request) {
	draftID := chi.URLParam(r, "draftID")
	universe, booked, err := h.bookings.BusSeatMap(r.Context(), sessionEmail(r), draftID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"all_seats":    universe,
		"booked_seats": booked,
	})
}

func (h *Handlers) FinalizeBus(w http.ResponseWriter, r *http.Request) {
	key := idempCacheKey(r)
	if replayed := h.replay(w, r, key); replayed {
		return
	}
	var req struct {
		DraftID       string   `json:"draft_id"`
		SelectedSeats []string `json:"selected_seats"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.SelectedSeats) == 0 {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	b, err := h.bookings.FinalizeBus(r.Context(), sessionEmail(r), req.DraftID, req.SelectedSeats)
	if err != nil {
		writeErr(w, err)
		return
	}
	data := writeJSON(w, http.StatusCreated, map[string]interface{}{"booking": b})
	h.remember(r, key, http.StatusCreated, data)
}

func (h *Handlers) ConfirmFlight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FlightID       string  `json:"flight_id"`
		Airline        string  `json:"airline"`
		FlightNumber   string  `json:"flight_number"`
		Source         string  `json:"source"`
		Destination    string  `json:"destination"`
		DepartureTime  string  `json:"departure_time"`
		ArrivalTime    string  `json:"arrival_time"`
		TravelDate     string  `json:"travel_date"`
		NumPersons     int     `json:"num_persons"`
		PricePerPerson float64 `json:"price_per_person"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	draft, err := h.bookings.ConfirmFlight(r.Context(), sessionEmail(r), booking.FlightDetails{
		FlightID:       req.FlightID,
		Airline:        req.Airline,
		FlightNumber:   req.FlightNumber,
		Source:         req.Source,
		Destination:    req.Destination,
		DepartureTime:  req.DepartureTime,
		ArrivalTime:    req.ArrivalTime,
		TravelDate:     req.TravelDate,
		NumPersons:     req.NumPersons,
		PricePerPerson: req.PricePerPerson,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"draft_id": draft.ID,
		"booking":  draft.Booking,
	})
}

func (h *Handlers) FinalizeFlight(w http.ResponseWriter, r *http.Request) {
	h.finalize(w, r, func(email, draftID string) (domain.Booking, error) {
		return h.bookings.FinalizeFlight(r.Context(), email, draftID)
	})
}

func (h *Handlers) ConfirmHotel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name          string  `json:"name"`
		Location      string  `json:"location"`
		CheckinDate   string  `json:"checkin_date"`
		CheckoutDate  string  `json:"checkout_date"`
		NumRooms      int     `json:"num_rooms"`
		NumGuests     int     `json:"num_guests"`
		PricePerNight float64 `json:"price_per_night"`
		Rating        int     `json:"rating"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	draft, err := h.bookings.ConfirmHotel(r.Context(), sessionEmail(r), booking.HotelDetails{
		Name:          req.Name,
		Location:      req.Location,
		CheckinDate:   req.CheckinDate,
		CheckoutDate:  req.CheckoutDate,
		NumRooms:      req.NumRooms,
		NumGuests:     req.NumGuests,
		PricePerNight: req.PricePerNight,
		Rating:        req.Rating,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"draft_id": draft.ID,
		"booking":  draft.Booking,
	})
}

func (h *Handlers) FinalizeHotel(w http.ResponseWriter, r *http.Request) {
	h.finalize(w, r, func(email, draftID string) (domain.Booking, error) {
		return h.bookings.FinalizeHotel(r.Context(), email, draftID)
	})
}

// finalize is the shared shape of the draft-consuming endpoints: replay a
// cached idempotent response if one exists, otherwise pop the draft, commit,
// and remember the outcome under the Idempotency-Key.
func (h *Handlers) finalize(w http.ResponseWriter, r *http.Request, commit func(email, draftID string) (domain.Booking, error)) {
	key := idempCacheKey(r)
	if replayed := h.replay(w, r, key); replayed {
		return
	}
	var req struct {
		DraftID string `json:"draft_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DraftID == "" {
		writeErr(w, domain.ErrInvalidInput)
		return
	}
	b, err := commit(sessionEmail(r), req.DraftID)
	if err != nil {
		writeErr(w, err)
		return
	}
	data := writeJSON(w, http.StatusCreated, map[string]interface{}{"booking": b})
	h.remember(r, key, http.StatusCreated, data)
}

// idempCacheKey scopes the replay cache to the authenticated account and
// route: one client's Idempotency-Key can never replay another client's
// booking, and the same key on two endpoints caches two responses.
func idempCacheKey(r *http.Request) string {
	return sessionEmail(r) + ":" + r.URL.Path + ":" + r.Header.Get("Idempotency-Key")
}

func (h *Handlers) replay(w http.ResponseWriter, r *http.Request, key string) bool {
	existing, err := h.idemp.Get(r.Context(), key)
	if err != nil {
		h.logger.Error("idempotency lookup failed", err)
		return false
	}
	if existing == nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(existing.Status)
	w.Write(existing.Result)
	return true
}

func (h *Handlers) remember(r *http.Request, key string, status int, data []byte) {
	if err := h.idemp.Set(r.Context(), key, idempotency.Response{Status: status, Result: data}); err != nil {
		h.logger.Error("idempotency store failed", err)
	}
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *Handlers) Readyz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}
