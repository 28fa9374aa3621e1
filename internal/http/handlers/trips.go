package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/iago/trip-planner-back/internal/domain"
)

// tripRequest is the trip-create payload, shared with the trip-name agent.
type tripRequest struct {
	UserID         string   `json:"user_id,omitempty"`
	Name           string   `json:"name,omitempty"`
	Description    string   `json:"description,omitempty"`
	Destinations   []string `json:"destinations"`
	StartPoint     string   `json:"start_point,omitempty"`
	EndPoint       string   `json:"end_point,omitempty"`
	StartDate      string   `json:"start_date,omitempty"`
	EndDate        string   `json:"end_date,omitempty"`
	FlexibleDates  bool     `json:"flexible_dates,omitempty"`
	AdultsCount    int      `json:"adults_count,omitempty"`
	ChildrenCount  int      `json:"children_count,omitempty"`
	Preferences    []string `json:"preferences,omitempty"`
	Transportation []string `json:"transportation,omitempty"`
	Budget         int      `json:"budget,omitempty"`
	Currency       string   `json:"currency,omitempty"`
}

func (t tripRequest) trip() domain.Trip {
	return domain.Trip{
		UserID:         strings.TrimSpace(t.UserID),
		Name:           strings.TrimSpace(t.Name),
		Description:    strings.TrimSpace(t.Description),
		Destinations:   t.Destinations,
		StartPoint:     strings.TrimSpace(t.StartPoint),
		EndPoint:       strings.TrimSpace(t.EndPoint),
		StartDate:      strings.TrimSpace(t.StartDate),
		EndDate:        strings.TrimSpace(t.EndDate),
		FlexibleDates:  t.FlexibleDates,
		AdultsCount:    t.AdultsCount,
		ChildrenCount:  t.ChildrenCount,
		Preferences:    t.Preferences,
		Transportation: t.Transportation,
		Budget:         t.Budget,
		Currency:       strings.TrimSpace(t.Currency),
	}
}

type userRequest struct {
	Citizenship string `json:"citizenship"`
}

func (api *API) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var request tripRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}

	trip, err := api.Trips.CreateTrip(r.Context(), request.trip())
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/trips/"+trip.ID)
	writeJSON(w, http.StatusCreated, trip)
}

func (api *API) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := api.Trips.GetTrip(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

func (api *API) TripItinerary(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	items, err := api.Trips.Itinerary(r.Context(), tripID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trip_id": tripID, "items": items})
}

func (api *API) TripTasks(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")
	tasks, err := api.Trips.Tasks(r.Context(), tripID)
	if err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trip_id": tripID, "tasks": tasks})
}

func (api *API) UpsertUser(w http.ResponseWriter, r *http.Request) {
	var request userRequest
	if err := decodeJSON(r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}

	user := domain.User{ID: chi.URLParam(r, "userID"), Citizenship: request.Citizenship}
	if err := api.Trips.UpsertUser(r.Context(), user); err != nil {
		api.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
