package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/extract"
)

const itinerarySystemPrompt = `You are an expert travel planner creating detailed, realistic and enjoyable itineraries.

Your itineraries:
- Balance activities with rest time
- Consider realistic travel times between locations
- Match the traveler's preferences and budget
- Include specific activities, times and locations
- Provide variety (cultural sites, food experiences, nature)
- Account for opening hours and practical constraints

Return ONLY a JSON array of items. Each item has title, start_time, end_time,
description, location, type (activity|transport|accommodation|meal) and cost.`

// defaultItineraryDays is used when a trip has no usable dates.
const defaultItineraryDays = 7

// ItineraryPipeline generates an itinerary one day at a time, persisting each
// day before the next one starts.
type ItineraryPipeline struct {
	toolkit
}

func NewItineraryPipeline(deps Dependencies) *ItineraryPipeline {
	return &ItineraryPipeline{toolkit: newToolkit(deps)}
}

func (p *ItineraryPipeline) Run(ctx context.Context, message domain.LaunchMessage) error {
	tracker := p.track(message)
	if err := p.run(ctx, tracker, message.TripID); err != nil {
		tracker.fail(ctx, "Failed to generate itinerary", err)
		return err
	}
	return nil
}

func (p *ItineraryPipeline) run(ctx context.Context, tracker *jobTracker, tripID string) error {
	if err := tracker.step(ctx, 5, "Fetching trip details"); err != nil {
		return err
	}
	trip, err := p.loadTrip(ctx, tripID)
	if err != nil {
		return err
	}

	start, days := itineraryWindow(trip, p.Now())
	state := dayState{}
	for day := 1; day <= days; day++ {
		if err := tracker.step(ctx, dayProgress(day-1, days), fmt.Sprintf("Generating Day %d of %d", day, days)); err != nil {
			return err
		}

		date := start.AddDate(0, 0, day-1).Format(domain.DateLayout)
		items := p.generateDay(ctx, trip, day, date, state.summary())
		if err := p.Store.AppendItineraryItems(ctx, trip.ID, items); err != nil {
			return fmt.Errorf("save day %d: %w", day, err)
		}

		if err := tracker.step(ctx, dayProgress(day, days), fmt.Sprintf("Day %d of %d complete", day, days)); err != nil {
			return err
		}
		state = state.withDay(day, items)
	}

	result, err := json.Marshal(map[string]int{"num_days": days})
	if err != nil {
		return fmt.Errorf("encode itinerary result: %w", err)
	}
	return tracker.complete(ctx, fmt.Sprintf("Generated %d-day itinerary", days), result)
}

// generateDay never fails: a day that cannot be generated or parsed becomes a
// single whole-day fallback item.
func (p *ItineraryPipeline) generateDay(ctx context.Context, trip domain.Trip, day int, date, previous string) []domain.ItineraryItem {
	items, err := p.dayItems(ctx, trip, day, date, previous)
	if err != nil {
		p.warnf("itinerary day fallback", "trip_id", trip.ID, "day", day, "error", err)
		p.Metrics.Fallback("itinerary_day")
		items = []domain.ItineraryItem{extract.FallbackDay(trip.FirstDestination())}
	}

	for index := range items {
		items[index].DayNumber = day
		items[index].Date = date
		items[index].OrderIndex = index
	}
	return items
}

func (p *ItineraryPipeline) dayItems(ctx context.Context, trip domain.Trip, day int, date, previous string) ([]domain.ItineraryItem, error) {
	prompt, err := p.Prompts.Render(promptItineraryDay, map[string]any{
		"Trip":         newTripView(trip),
		"DayNumber":    day,
		"Date":         date,
		"PreviousDays": previous,
	})
	if err != nil {
		return nil, err
	}

	text, err := p.generateText(ctx, ai.TaskItineraryDay, itinerarySystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	items, ok := extract.ItineraryItems(text)
	if !ok {
		return nil, errors.New("no itinerary array in model output")
	}
	if len(items) == 0 {
		return nil, errors.New("model output had no valid items")
	}
	return items, nil
}

// itineraryWindow returns the first day and the inclusive day count. Trips
// without usable dates get a week starting today.
func itineraryWindow(trip domain.Trip, now time.Time) (time.Time, int) {
	start, ok := domain.ParseDate(trip.StartDate)
	if !ok {
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	days, ok := trip.DayCount()
	if !ok {
		days = defaultItineraryDays
	}
	return start, days
}

// dayProgress is the progress reported once day of days is done; day 0 is
// the state before the first day.
func dayProgress(day, days int) int {
	return 10 + day*80/days
}

// dayState is the rolling summary threaded through the day loop. withDay
// returns a new value; the receiver is never modified.
type dayState struct {
	lines []string
}

func (s dayState) withDay(day int, items []domain.ItineraryItem) dayState {
	titles := make([]string, 0, 3)
	for _, item := range items {
		if len(titles) == 3 {
			break
		}
		titles = append(titles, item.Title)
	}
	lines := make([]string, len(s.lines), len(s.lines)+1)
	copy(lines, s.lines)
	lines = append(lines, fmt.Sprintf("Day %d: %s", day, strings.Join(titles, ", ")))
	return dayState{lines: lines}
}

func (s dayState) summary() string {
	return strings.Join(s.lines, "\n")
}
