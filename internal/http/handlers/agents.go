package handlers

import (
	"net/http"
	"strings"

	"github.com/iago/trip-planner-back/internal/service"
)

type accommodationRequest struct {
	Destination string `json:"destination"`
	TripID      string `json:"trip_id"`
	NightsCount int    `json:"nights_count,omitempty"`
	RangeType   string `json:"range_type,omitempty"`
}

func (api *API) RecommendAccommodations(w http.ResponseWriter, r *http.Request) {
	var request accommodationRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	if strings.TrimSpace(request.TripID) == "" {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "trip_id is required")
		return
	}

	response, err := api.Accommodations.Recommend(r.Context(), service.AccommodationRequest{
		TripID:      request.TripID,
		Destination: request.Destination,
		NightsCount: request.NightsCount,
		RangeType:   request.RangeType,
	})
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (api *API) TripName(w http.ResponseWriter, r *http.Request) {
	var request tripRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}
	writeJSON(w, http.StatusOK, api.TripNames.Generate(r.Context(), request.trip()))
}

func (api *API) AgentsHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"capabilities": api.Capabilities,
	})
}
