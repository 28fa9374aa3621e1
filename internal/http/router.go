package httpserver

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/http/handlers"
	"github.com/iago/trip-planner-back/internal/http/middleware"
)

type RouterDependencies struct {
	API     *handlers.API
	Metrics http.Handler
	Logger  *zap.SugaredLogger

	AuthToken      string
	CORSOrigins    []string
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the HTTP surface. ctx bounds background middleware work.
func NewRouter(ctx context.Context, deps RouterDependencies) http.Handler {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		chimiddleware.RealIP,
		middleware.Trace(deps.Logger),
		chimiddleware.Recoverer,
		middleware.CORS(middleware.CORSConfig{AllowedOrigins: deps.CORSOrigins}),
		middleware.RateLimit(ctx, deps.RateLimitRPS, deps.RateLimitBurst),
		middleware.Auth(deps.AuthToken),
	)
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	api := deps.API
	router.Get("/healthz", api.Health)
	if deps.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	router.Route("/v1", func(r chi.Router) {
		r.Post("/trips", api.CreateTrip)
		r.Get("/trips/{tripID}", api.GetTrip)
		r.Get("/trips/{tripID}/itinerary", api.TripItinerary)
		r.Get("/trips/{tripID}/tasks", api.TripTasks)
		r.Put("/users/{userID}", api.UpsertUser)

		r.Post("/itinerary/generate", api.GenerateItinerary)
		r.Post("/itinerary/modify", api.ModifyItinerary)
		r.Get("/itinerary/status/{jobID}", api.JobStatus)
		r.Post("/tasks/generate", api.GenerateTasks)
		r.Get("/tasks/status/{jobID}", api.JobStatus)
		r.Get("/jobs/{jobID}", api.JobStatus)

		r.Post("/accommodations/recommend", api.RecommendAccommodations)
		r.Post("/agents/trip-name", api.TripName)
		r.Get("/agents/health", api.AgentsHealth)
	})

	return router
}
