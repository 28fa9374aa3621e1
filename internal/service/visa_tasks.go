package service

import (
	"context"

	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/visa"
)

// visaTasks checks each destination country once. Destinations in the
// traveler's own country and destinations that cannot be resolved are skipped.
func (p *TaskPipeline) visaTasks(ctx context.Context, trip domain.Trip, citizenship string) []domain.Task {
	if citizenship == "" {
		return nil
	}

	passport, ok := p.resolveCountry(ctx, citizenship)
	if !ok {
		p.warnf("citizenship not resolved, using generic visa tasks", "trip_id", trip.ID, "citizenship", citizenship)
		p.Metrics.Fallback("visa")
		tasks := make([]domain.Task, 0, len(trip.Destinations))
		for _, destination := range trip.Destinations {
			tasks = append(tasks, visa.ResearchTask(destination))
		}
		return tasks
	}

	tasks := make([]domain.Task, 0)
	seen := make(map[string]struct{})
	for _, destination := range trip.Destinations {
		country, ok := p.resolveCountry(ctx, destination)
		if !ok {
			p.warnf("destination country not resolved", "trip_id", trip.ID, "destination", destination)
			continue
		}
		if _, done := seen[country]; done {
			continue
		}
		seen[country] = struct{}{}
		if country == passport {
			continue
		}

		requirement, err := p.checkVisa(ctx, passport, country)
		if err != nil {
			p.warnf("visa check failed", "trip_id", trip.ID, "destination", destination, "error", err)
			p.Metrics.Fallback("visa")
			tasks = append(tasks, visa.ResearchTask(destination))
			continue
		}
		tasks = append(tasks, visa.Tasks(destination, requirement)...)
	}
	return tasks
}

func (p *TaskPipeline) resolveCountry(ctx context.Context, location string) (string, bool) {
	if p.Countries == nil {
		return "", false
	}
	return p.Countries.Resolve(ctx, location)
}

func (p *TaskPipeline) checkVisa(ctx context.Context, passport, destination string) (visa.Requirement, error) {
	if p.Visa == nil || !p.Visa.Available() {
		return visa.Requirement{}, visa.ErrUnavailable
	}
	return p.Visa.Check(ctx, passport, destination)
}
