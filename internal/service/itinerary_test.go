package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/domain"
)

func TestDayProgressIsMonotonicAndBounded(t *testing.T) {
	for _, days := range []int{1, 2, 3, 7, 13, 30} {
		previous := dayProgress(0, days)
		assert.Equal(t, 10, previous)
		for day := 1; day <= days; day++ {
			current := dayProgress(day, days)
			assert.GreaterOrEqual(t, current, previous, "days=%d day=%d", days, day)
			assert.LessOrEqual(t, current, 90)
			previous = current
		}
		assert.Equal(t, 90, previous)
	}
}

func TestItineraryPipelineFallsBackWhenGenerationFails(t *testing.T) {
	fx := newFixture(t, tokyoTrip())
	pipeline := NewItineraryPipeline(fx.deps)
	message := fx.launch(t, domain.JobKindItineraryGeneration, "trip-tokyo", nil)

	require.NoError(t, pipeline.Run(context.Background(), message))

	job := fx.job(t, message.JobID)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Progress)
	assert.Equal(t, "Generated 3-day itinerary", job.Message)
	assert.JSONEq(t, `{"num_days":3}`, string(job.Result))

	items, err := fx.store.ListItineraryItems(context.Background(), "trip-tokyo")
	require.NoError(t, err)
	require.Len(t, items, 3)
	for index, item := range items {
		assert.Equal(t, index+1, item.DayNumber)
		assert.Equal(t, "Explore Tokyo, Japan", item.Title)
		assert.Equal(t, 0, item.OrderIndex)
	}
	assert.Equal(t, "2024-06-01", items[0].Date)
	assert.Equal(t, "2024-06-03", items[2].Date)
}

func TestItineraryPipelineThreadsPreviousDays(t *testing.T) {
	fx := newFixture(t, tokyoTrip())
	generator := &fakeGenerator{generate: func(request ai.GenerateRequest) (string, error) {
		return "```json\n[" +
			`{"title":"Senso-ji","start_time":"9:00","end_time":"11:00","type":"activity","location":"Asakusa"},` +
			`{"title":"Ramen lunch","type":"meal","cost":15},` +
			`{"description":"no title"}` +
			"]\n```", nil
	}}
	fx.deps.Generator = generator
	message := fx.launch(t, domain.JobKindItineraryGeneration, "trip-tokyo", nil)

	require.NoError(t, NewItineraryPipeline(fx.deps).Run(context.Background(), message))

	items, err := fx.store.ListItineraryItems(context.Background(), "trip-tokyo")
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, "09:00", items[0].StartTime)
	assert.Equal(t, domain.ItemTypeMeal, items[1].Type)
	assert.Equal(t, 1, items[1].OrderIndex)
	assert.Equal(t, 3, items[5].DayNumber)

	require.Len(t, generator.requests, 3)
	assert.NotContains(t, generator.requests[0].Input, "Day 1: Senso-ji")
	assert.Contains(t, generator.requests[2].Input, "Day 2: Senso-ji, Ramen lunch")
}

func TestItineraryPipelineFailsWhenTripIsMissing(t *testing.T) {
	fx := newFixture(t, tokyoTrip())
	message := fx.launch(t, domain.JobKindItineraryGeneration, "missing", nil)

	err := NewItineraryPipeline(fx.deps).Run(context.Background(), message)
	require.ErrorIs(t, err, ErrTripNotFound)

	job := fx.job(t, message.JobID)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, 5, job.Progress)
	assert.Contains(t, job.Error, "trip not found")
}

func TestItineraryWindowDefaultsToAWeek(t *testing.T) {
	now := fixtureNow()

	start, days := itineraryWindow(domain.Trip{}, now)
	assert.Equal(t, 7, days)
	assert.Equal(t, "2024-05-01", start.Format(domain.DateLayout))

	start, days = itineraryWindow(domain.Trip{StartDate: "2024-07-10"}, now)
	assert.Equal(t, 7, days)
	assert.Equal(t, "2024-07-10", start.Format(domain.DateLayout))
}

func TestDayStateDoesNotAlias(t *testing.T) {
	base := dayState{}.withDay(1, []domain.ItineraryItem{{Title: "A"}, {Title: "B"}, {Title: "C"}, {Title: "D"}})
	left := base.withDay(2, []domain.ItineraryItem{{Title: "Left"}})
	right := base.withDay(2, []domain.ItineraryItem{{Title: "Right"}})

	assert.Equal(t, "Day 1: A, B, C", base.summary())
	assert.True(t, strings.HasSuffix(left.summary(), "Day 2: Left"))
	assert.True(t, strings.HasSuffix(right.summary(), "Day 2: Right"))
}

func TestItineraryResultIsJSON(t *testing.T) {
	fx := newFixture(t, domain.Trip{ID: "solo", Destinations: []string{"Lisbon"}, StartDate: "2024-01-01", EndDate: "2024-01-01"})
	message := fx.launch(t, domain.JobKindItineraryGeneration, "solo", nil)

	require.NoError(t, NewItineraryPipeline(fx.deps).Run(context.Background(), message))

	var result map[string]int
	require.NoError(t, json.Unmarshal(fx.job(t, message.JobID).Result, &result))
	assert.Equal(t, 1, result["num_days"])
}
