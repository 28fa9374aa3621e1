package service

import (
	"context"
	"strings"

	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/extract"
)

const maxVaccineNoteLength = 200

// vaccineTasks only produces tasks for vaccines the research text calls required.
func (p *TaskPipeline) vaccineTasks(ctx context.Context, trip domain.Trip, citizenship string) []domain.Task {
	if len(trip.Destinations) == 0 {
		return nil
	}

	query, err := p.Prompts.Render(promptVaccines, map[string]any{
		"Destinations": strings.Join(trip.Destinations, ", "),
		"Departure":    orDefault(trip.StartDate, "soon"),
		"Citizenship":  citizenship,
	})
	if err != nil {
		p.warnf("render vaccine query failed", "trip_id", trip.ID, "error", err)
		return nil
	}

	answer, err := p.research(ctx, "vaccines", query)
	if err != nil {
		p.warnf("vaccine research failed", "trip_id", trip.ID, "error", err)
		return nil
	}

	tasks := make([]domain.Task, 0)
	for _, fact := range extract.FindVaccines(answer.Text, trip.Destinations) {
		if !fact.Required {
			continue
		}
		tasks = append(tasks, vaccineTask(fact))
	}
	return tasks
}

func vaccineTask(fact extract.VaccineFact) domain.Task {
	destinations := extract.HumanList(fact.Destinations)
	if destinations == "" {
		destinations = "your destinations"
	}

	var description strings.Builder
	description.WriteString(fact.Name + " vaccine is required for travel to " + destinations + ". ")
	description.WriteString("Consult your doctor or a travel clinic. ")
	if multiDoseLeadTime(fact.Name) {
		description.WriteString("Recommended: Get vaccinated at least 4-6 weeks before travel.")
	} else {
		description.WriteString("Recommended: Get vaccinated at least 2-4 weeks before travel.")
	}
	if fact.Context != "" && len(fact.Context) < maxVaccineNoteLength {
		description.WriteString("\n\nNote: " + fact.Context)
	}

	return domain.Task{
		Title:       "Get required " + fact.Name + " vaccine",
		Description: description.String(),
		Category:    domain.TaskCategoryHealth,
		Priority:    domain.TaskPriorityHigh,
	}
}

func multiDoseLeadTime(vaccine string) bool {
	lower := strings.ToLower(vaccine)
	return strings.Contains(lower, "yellow fever") || strings.Contains(lower, "japanese encephalitis")
}
