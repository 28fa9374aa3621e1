package service

import (
	"context"
	"errors"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/extract"
)

const tasksSystemPrompt = `You are an expert travel planning assistant creating task lists for trips.

Categories: general, accommodation, transportation, finance, packing, activities, documentation.
Set priorities: high for critical bookings, medium for bookings, low for nice-to-haves.
Make tasks actionable and specific, and include destination names in destination-specific tasks.

Return ONLY a JSON array of task objects with title, description, category, priority and completed (false).`

// generalTasks falls back to a fixed generic set when generation fails.
func (p *TaskPipeline) generalTasks(ctx context.Context, trip domain.Trip) []domain.Task {
	tasks, err := p.draftGeneralTasks(ctx, trip)
	if err != nil {
		p.warnf("general task generation failed", "trip_id", trip.ID, "error", err)
		p.Metrics.Fallback("general_tasks")
		return extract.FallbackTasks(trip.Destinations)
	}
	return tasks
}

func (p *TaskPipeline) draftGeneralTasks(ctx context.Context, trip domain.Trip) ([]domain.Task, error) {
	prompt, err := p.Prompts.Render(promptGeneralTasks, map[string]any{"Trip": newTripView(trip)})
	if err != nil {
		return nil, err
	}
	text, err := p.generateText(ctx, ai.TaskTripTasks, tasksSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	tasks, ok := extract.Tasks(text)
	if !ok || len(tasks) == 0 {
		return nil, errors.New("no valid tasks in model output")
	}
	return tasks, nil
}
