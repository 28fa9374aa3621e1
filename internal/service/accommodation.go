package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/extract"
)

var ErrInvalidRange = errors.New("range_type must be one of all, budget, mid-range, luxury")

type AccommodationRequest struct {
	TripID      string
	Destination string
	NightsCount int
	RangeType   string
}

type AccommodationResponse struct {
	Recommendations []domain.AccommodationRecommendation `json:"recommendations"`
	Destination     string                               `json:"destination"`
	NightsCount     int                                  `json:"nights_count"`
}

// AccommodationService answers synchronously; nothing it returns is stored.
type AccommodationService struct {
	toolkit
}

func NewAccommodationService(deps Dependencies) *AccommodationService {
	return &AccommodationService{toolkit: newToolkit(deps)}
}

// Recommend returns exactly three options, or none when no research
// capability is configured.
func (s *AccommodationService) Recommend(ctx context.Context, request AccommodationRequest) (AccommodationResponse, error) {
	rangeType, err := normalizeRange(request.RangeType)
	if err != nil {
		return AccommodationResponse{}, err
	}
	trip, err := s.loadTrip(ctx, request.TripID)
	if err != nil {
		return AccommodationResponse{}, err
	}

	destination := strings.TrimSpace(request.Destination)
	if destination == "" {
		destination = trip.FirstDestination()
	}
	nights := request.NightsCount
	if nights < 1 {
		nights = trip.Nights()
	}
	response := AccommodationResponse{
		Recommendations: []domain.AccommodationRecommendation{},
		Destination:     destination,
		NightsCount:     nights,
	}

	if s.Researcher == nil || !s.Researcher.Available() {
		s.warnf("research capability unavailable, returning no accommodations", "trip_id", trip.ID)
		return response, nil
	}

	params := extract.AccommodationParams{
		Destination:    destination,
		Nights:         nights,
		BudgetPerNight: float64(trip.Budget) / float64(trip.Nights()),
		Currency:       trip.CurrencyOrDefault(),
		Range:          rangeType,
	}

	text := ""
	query, err := s.Prompts.Render(promptAccommodation, s.queryData(trip, params))
	if err == nil {
		var answer ai.ResearchResult
		answer, err = s.research(ctx, "accommodation", query)
		text = answer.Text
	}
	if err != nil {
		s.warnf("accommodation research failed, using synthetic options", "trip_id", trip.ID, "error", err)
		s.Metrics.Fallback("accommodation")
	}

	response.Recommendations = extract.Accommodations(text, params)
	return response, nil
}

func (s *AccommodationService) queryData(trip domain.Trip, params extract.AccommodationParams) map[string]any {
	perNight := params.BudgetPerNight
	// the envelope covers only the nights spent at this destination
	stayBudget := perNight * float64(params.Nights)
	return map[string]any{
		"Range":          params.Range,
		"Destination":    params.Destination,
		"BudgetPerNight": roundAmount(perNight),
		"StayBudget":     roundAmount(stayBudget),
		"Currency":       params.Currency,
		"Nights":         params.Nights,
		"Adults":         max(trip.AdultsCount, 1),
		"Children":       max(trip.ChildrenCount, 0),
		"Date":           orDefault(trip.StartDate, "Upcoming"),
		"Preferences":    orDefault(strings.Join(trip.Preferences, ", "), "None specified"),
		"BudgetAnchor":   roundAmount(perNight * 0.5),
		"MidAnchor":      roundAmount(perNight),
		"LuxuryAnchor":   roundAmount(perNight * 1.5),
	}
}

func normalizeRange(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == domain.RangeAll {
		return domain.RangeAll, nil
	}
	if category, ok := domain.ParseRangeCategory(trimmed); ok {
		return string(category), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRange, value)
}

func roundAmount(value float64) int {
	return int(math.Round(value))
}
