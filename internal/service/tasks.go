package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/repository"
)

// TaskPipeline builds a trip's preparation checklist from three independent
// specialists: entry requirements, vaccines and general planning.
type TaskPipeline struct {
	toolkit
}

func NewTaskPipeline(deps Dependencies) *TaskPipeline {
	return &TaskPipeline{toolkit: newToolkit(deps)}
}

func (p *TaskPipeline) Run(ctx context.Context, message domain.LaunchMessage) error {
	tracker := p.track(message)
	if err := p.run(ctx, tracker, message.TripID); err != nil {
		tracker.fail(ctx, "Failed to generate tasks", err)
		return err
	}
	return nil
}

func (p *TaskPipeline) run(ctx context.Context, tracker *jobTracker, tripID string) error {
	if err := tracker.step(ctx, 10, "Fetching trip details"); err != nil {
		return err
	}
	trip, err := p.loadTrip(ctx, tripID)
	if err != nil {
		return err
	}
	citizenship := p.citizenship(ctx, trip)

	if err := tracker.step(ctx, 30, "Generating tasks with AI"); err != nil {
		return err
	}

	// Specialists never return an error; each one degrades on its own.
	var (
		group   errgroup.Group
		visas   []domain.Task
		health  []domain.Task
		general []domain.Task
	)
	group.Go(func() error {
		visas = p.visaTasks(ctx, trip, citizenship)
		return nil
	})
	group.Go(func() error {
		health = p.vaccineTasks(ctx, trip, citizenship)
		return nil
	})
	group.Go(func() error {
		general = p.generalTasks(ctx, trip)
		return nil
	})
	if err := group.Wait(); err != nil {
		return err
	}

	if err := tracker.step(ctx, 70, "Saving tasks to database"); err != nil {
		return err
	}
	merged := mergeTasks(visas, health, general)
	if err := p.Store.InsertTasks(ctx, trip.ID, merged); err != nil {
		return fmt.Errorf("save tasks: %w", err)
	}
	p.logf("tasks merged",
		"trip_id", trip.ID,
		"visa", len(visas),
		"health", len(health),
		"general", len(general),
		"total", len(merged),
	)

	result, err := json.Marshal(map[string]int{"tasks_count": len(merged)})
	if err != nil {
		return fmt.Errorf("encode tasks result: %w", err)
	}
	return tracker.complete(ctx, "Tasks generated successfully", result)
}

// citizenship is best effort; an empty result disables the visa specialist.
func (p *TaskPipeline) citizenship(ctx context.Context, trip domain.Trip) string {
	if strings.TrimSpace(trip.UserID) == "" {
		p.warnf("trip has no user, skipping visa checks", "trip_id", trip.ID)
		return ""
	}
	citizenship, err := p.Store.GetUserCitizenship(ctx, trip.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			p.warnf("user not found, skipping visa checks", "trip_id", trip.ID, "user_id", trip.UserID)
		} else {
			p.warnf("load user citizenship failed", "trip_id", trip.ID, "user_id", trip.UserID, "error", err)
		}
		return ""
	}
	return strings.TrimSpace(citizenship)
}

var vaccineTitleWords = []string{"vaccine", "vaccination", "immunization"}

// mergeTasks concatenates visa, health and general tasks in that order. General
// visa tasks are dropped when the visa specialist produced anything, and general
// vaccine tasks when the health specialist did.
func mergeTasks(visas, health, general []domain.Task) []domain.Task {
	merged := make([]domain.Task, 0, len(visas)+len(health)+len(general))
	merged = append(merged, visas...)
	merged = append(merged, health...)
	for _, task := range general {
		if len(visas) > 0 && task.Category == domain.TaskCategoryVisa {
			continue
		}
		if len(health) > 0 && task.Category == domain.TaskCategoryHealth && mentionsVaccine(task.Title) {
			continue
		}
		merged = append(merged, task)
	}
	for index := range merged {
		merged[index].Completed = false
	}
	return merged
}

func mentionsVaccine(title string) bool {
	lower := strings.ToLower(title)
	for _, word := range vaccineTitleWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}
