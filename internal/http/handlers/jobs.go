package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iago/trip-planner-back/internal/domain"
)

type generateRequest struct {
	TripID string `json:"trip_id"`
}

type modifyRequest struct {
	TripID       string `json:"trip_id"`
	Modification string `json:"modification"`
}

type jobResponse struct {
	*domain.Job
	StatusURL string `json:"status_url"`
}

func newJobResponse(job *domain.Job) jobResponse {
	return jobResponse{Job: job, StatusURL: "/v1/jobs/" + job.ID}
}

func (api *API) GenerateItinerary(w http.ResponseWriter, r *http.Request) {
	var request generateRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	api.startJob(w, r, request, func(ctx context.Context) (*domain.Job, error) {
		return api.Jobs.StartItineraryGeneration(ctx, request.TripID)
	})
}

func (api *API) ModifyItinerary(w http.ResponseWriter, r *http.Request) {
	var request modifyRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	api.startJob(w, r, request, func(ctx context.Context) (*domain.Job, error) {
		return api.Jobs.StartItineraryModification(ctx, request.TripID, request.Modification)
	})
}

func (api *API) GenerateTasks(w http.ResponseWriter, r *http.Request) {
	var request generateRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	api.startJob(w, r, request, func(ctx context.Context) (*domain.Job, error) {
		return api.Jobs.StartTaskGeneration(ctx, request.TripID)
	})
}

// startJob answers 202 with the job snapshot. A repeated Idempotency-Key with
// the same payload returns the job it started the first time.
func (api *API) startJob(
	w http.ResponseWriter,
	r *http.Request,
	request any,
	start func(ctx context.Context) (*domain.Job, error),
) {
	idempotencyKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	payloadHash := hashPayload(request)
	if idempotencyKey != "" {
		if entry, exists := api.idempotency.Get(idempotencyKey); exists {
			if entry.PayloadHash != payloadHash {
				writeError(w, r, http.StatusConflict, "idempotency_conflict", "Idempotency-Key already used with different payload")
				return
			}
			job, err := api.Jobs.GetJob(r.Context(), entry.JobID)
			if err != nil {
				api.writeServiceError(w, r, err)
				return
			}
			w.Header().Set("Retry-After", "2")
			writeJSON(w, http.StatusAccepted, newJobResponse(job))
			return
		}
	}

	job, err := start(r.Context())
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	if idempotencyKey != "" {
		api.idempotency.Put(idempotencyKey, payloadHash, job.ID)
	}

	w.Header().Set("Retry-After", "2")
	writeJSON(w, http.StatusAccepted, newJobResponse(job))
}

func (api *API) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
	if jobID == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "job_id is required")
		return
	}

	job, err := api.Jobs.GetJob(r.Context(), jobID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	if !job.Status.Terminal() {
		w.Header().Set("Retry-After", "2")
	}
	writeJSON(w, http.StatusOK, newJobResponse(job))
}
