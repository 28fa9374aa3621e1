package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/http/middleware"
	"github.com/iago/trip-planner-back/internal/repository"
	"github.com/iago/trip-planner-back/internal/service"
	"github.com/iago/trip-planner-back/internal/worker"
)

var errInvalidPayload = errors.New("invalid payload")

const idempotencyTTL = 24 * time.Hour

// Services is everything the handlers call into.
type Services struct {
	Jobs           *service.JobsService
	Trips          *service.TripsService
	Accommodations *service.AccommodationService
	TripNames      *service.TripNameService
	Capabilities   service.Capabilities
	// Checks are pinged by /healthz, keyed by component name.
	Checks map[string]Pinger
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type API struct {
	Services
	idempotency *idempotencyStore
	logger      *zap.SugaredLogger
}

func NewAPI(services Services, logger *zap.SugaredLogger) *API {
	return &API{
		Services:    services,
		idempotency: newIdempotencyStore(),
		logger:      logger,
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, r *http.Request, statusCode int, code, message string) {
	middleware.WriteError(w, r, statusCode, code, message)
}

// writeServiceError maps service sentinels onto status codes.
func (api *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidJobRequest),
		errors.Is(err, service.ErrInvalidTrip):
		writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, worker.ErrLauncherSaturated):
		w.Header().Set("Retry-After", "5")
		writeError(w, r, http.StatusServiceUnavailable, "launcher_saturated", "too many jobs in flight, retry later")
	default:
		if api.logger != nil {
			api.logger.Errorw("request failed",
				"request_id", middleware.GetRequestID(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
		}
		writeError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(r *http.Request, value any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(value); err != nil {
		return errInvalidPayload
	}
	return nil
}

type idempotencyEntry struct {
	PayloadHash uint64
	JobID       string
	CreatedAt   time.Time
}

// idempotencyStore remembers which job an Idempotency-Key started.
type idempotencyStore struct {
	mu      sync.Mutex
	entries map[string]idempotencyEntry
	now     func() time.Time
}

func newIdempotencyStore() *idempotencyStore {
	return &idempotencyStore{
		entries: make(map[string]idempotencyEntry),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *idempotencyStore) Get(key string) (idempotencyEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if ok && s.now().Sub(entry.CreatedAt) > idempotencyTTL {
		delete(s.entries, key)
		return idempotencyEntry{}, false
	}
	return entry, ok
}

func (s *idempotencyStore) Put(key string, payloadHash uint64, jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for existing, entry := range s.entries {
		if now.Sub(entry.CreatedAt) > idempotencyTTL {
			delete(s.entries, existing)
		}
	}
	s.entries[key] = idempotencyEntry{
		PayloadHash: payloadHash,
		JobID:       jobID,
		CreatedAt:   now,
	}
}

func hashPayload(value any) uint64 {
	payload, _ := json.Marshal(value)
	hasher := fnv.New64a()
	_, _ = hasher.Write(payload)
	return hasher.Sum64()
}
