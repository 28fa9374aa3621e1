package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/extract"
)

// ModificationPipeline rewrites a trip's whole itinerary from one free-text
// request. The stored items are only replaced once a validated replacement
// exists.
type ModificationPipeline struct {
	toolkit
}

func NewModificationPipeline(deps Dependencies) *ModificationPipeline {
	return &ModificationPipeline{toolkit: newToolkit(deps)}
}

func (p *ModificationPipeline) Run(ctx context.Context, message domain.LaunchMessage) error {
	tracker := p.track(message)
	if err := p.run(ctx, tracker, message); err != nil {
		tracker.fail(ctx, "Failed to modify itinerary", err)
		return err
	}
	return nil
}

func (p *ModificationPipeline) run(ctx context.Context, tracker *jobTracker, message domain.LaunchMessage) error {
	var payload domain.ModificationPayload
	if err := json.Unmarshal(message.Payload, &payload); err != nil {
		return fmt.Errorf("decode modification payload: %w", err)
	}
	if strings.TrimSpace(payload.Modification) == "" {
		return errors.New("modification request is empty")
	}

	if err := tracker.step(ctx, 10, "Fetching current itinerary"); err != nil {
		return err
	}
	trip, err := p.loadTrip(ctx, message.TripID)
	if err != nil {
		return err
	}
	existing, err := p.Store.ListItineraryItems(ctx, trip.ID)
	if err != nil {
		return fmt.Errorf("load itinerary: %w", err)
	}

	if err := tracker.step(ctx, 30, "Modifying itinerary with AI"); err != nil {
		return err
	}
	replacement, err := p.replacement(ctx, trip, existing, payload.Modification)
	if err != nil {
		return err
	}

	if err := tracker.step(ctx, 80, "Updating database"); err != nil {
		return err
	}
	if err := p.Store.ReplaceItineraryItems(ctx, trip.ID, replacement); err != nil {
		return fmt.Errorf("replace itinerary: %w", err)
	}

	result, err := json.Marshal(map[string]int{"items_count": len(replacement)})
	if err != nil {
		return fmt.Errorf("encode modification result: %w", err)
	}
	return tracker.complete(ctx, "Itinerary modified successfully", result)
}

func (p *ModificationPipeline) replacement(
	ctx context.Context,
	trip domain.Trip,
	existing []domain.ItineraryItem,
	modification string,
) ([]domain.ItineraryItem, error) {
	current, err := json.MarshalIndent(promptItems(existing), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode current itinerary: %w", err)
	}

	prompt, err := p.Prompts.Render(promptItineraryModify, map[string]any{
		"Trip":         newTripView(trip),
		"ExistingJSON": string(current),
		"Modification": strings.TrimSpace(modification),
	})
	if err != nil {
		return nil, err
	}

	text, err := p.generateText(ctx, ai.TaskItineraryModify, itinerarySystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate modified itinerary: %w", err)
	}

	items, ok := extract.ItineraryItems(text)
	if !ok {
		return nil, errors.New("no itinerary array in model output")
	}
	if len(items) == 0 {
		return nil, errors.New("modified itinerary has no valid items")
	}
	return fillDays(items, trip), nil
}

// fillDays gives items without a day the day of the item before them and
// derives missing dates from the trip start.
func fillDays(items []domain.ItineraryItem, trip domain.Trip) []domain.ItineraryItem {
	start, hasStart := domain.ParseDate(trip.StartDate)
	day := 1
	for index := range items {
		if items[index].DayNumber >= 1 {
			day = items[index].DayNumber
		}
		items[index].DayNumber = day
		if items[index].Date == "" && hasStart {
			items[index].Date = start.AddDate(0, 0, day-1).Format(domain.DateLayout)
		}
		items[index].OrderIndex = index
	}
	return items
}

type promptItem struct {
	DayNumber   int    `json:"day_number"`
	Date        string `json:"date,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	Type        string `json:"type"`
	Cost        int    `json:"cost"`
	OrderIndex  int    `json:"order_index"`
}

func promptItems(items []domain.ItineraryItem) []promptItem {
	result := make([]promptItem, 0, len(items))
	for _, item := range items {
		result = append(result, promptItem{
			DayNumber:   item.DayNumber,
			Date:        item.Date,
			StartTime:   item.StartTime,
			EndTime:     item.EndTime,
			Title:       item.Title,
			Description: item.Description,
			Location:    item.Location,
			Type:        string(item.Type),
			Cost:        item.Cost,
			OrderIndex:  item.OrderIndex,
		})
	}
	return result
}
