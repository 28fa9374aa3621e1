package service

import (
	"context"
	"strings"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/extract"
)

const tripNameSystemPrompt = "You are a creative travel assistant. Respond with a single JSON object and nothing else."

// TripNameService names a trip that may not have been saved yet.
type TripNameService struct {
	toolkit
}

func NewTripNameService(deps Dependencies) *TripNameService {
	return &TripNameService{toolkit: newToolkit(deps)}
}

// Generate never fails; any generation or extraction problem yields the
// deterministic fallback name.
func (s *TripNameService) Generate(ctx context.Context, trip domain.Trip) domain.TripNameDescription {
	view := newTripView(trip)
	prompt, err := s.Prompts.Render(promptTripName, map[string]any{
		"Trip":      view,
		"Dates":     view.Dates,
		"Travelers": formatTravelers(trip.AdultsCount, trip.ChildrenCount),
	})
	if err == nil {
		var text string
		text, err = s.generateText(ctx, ai.TaskTripName, tripNameSystemPrompt, prompt)
		if err == nil {
			if result, ok := extract.NameDescription(text); ok {
				result.Name = strings.TrimSpace(result.Name)
				result.Description = strings.TrimSpace(result.Description)
				return result
			}
			s.warnf("trip name output not usable", "destinations", view.Destinations)
		}
	}
	if err != nil {
		s.warnf("trip name generation failed", "destinations", view.Destinations, "error", err)
	}
	s.Metrics.Fallback("trip_name")
	return extract.FallbackNameDescription(trip)
}
