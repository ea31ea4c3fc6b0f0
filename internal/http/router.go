package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/travelgoapp/travelgo/internal/auth"
	"github.com/travelgoapp/travelgo/internal/observability"
	"github.com/travelgoapp/travelgo/internal/rateLimit"
)

func SetupRouter(h *Handlers, authSvc *auth.Service, logger observability.Logger, rl *rateLimit.RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(MetricsMiddleware)
	r.Use(TracingMiddleware)

	r.Post("/v1/register", h.Register)
	r.Post("/v1/login", h.Login)
	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(authSvc))
		r.Use(RateLimitMiddleware(rl))

		r.Get("/v1/bookings", h.ListBookings)
		r.Delete("/v1/bookings", h.CancelBooking)

		r.Get("/v1/trains", h.SearchTrains)
		r.Get("/v1/buses", h.SearchBuses)
		r.Get("/v1/flights", h.SearchFlights)
		r.Get("/v1/hotels", h.SearchHotels)

		r.Post("/v1/trains/confirm", h.ConfirmTrain)
		r.Post("/v1/buses/confirm", h.ConfirmBus)
		r.Get("/v1/buses/{draftID}/seats", h.BusSeats)
		r.Post("/v1/flights/confirm", h.ConfirmFlight)
		r.Post("/v1/hotels/confirm", h.ConfirmHotel)

		r.Group(func(r chi.Router) {
			r.Use(IdempotencyKeyMiddleware)
			r.Post("/v1/trains/finalize", h.FinalizeTrain)
			r.Post("/v1/buses/finalize", h.FinalizeBus)
			r.Post("/v1/flights/finalize", h.FinalizeFlight)
			r.Post("/v1/hotels/finalize", h.FinalizeHotel)
		})
	})

	return r
}
