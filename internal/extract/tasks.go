package extract

import (
	"fmt"

	"github.com/iago/trip-planner-back/internal/domain"
)

// Tasks extracts a task list. A task needs both a title and a category; the
// category and priority fall back to general/medium when out of range.
func Tasks(text string) ([]domain.Task, bool) {
	objects, ok := DecodeArray(text)
	if !ok {
		return nil, false
	}

	tasks := make([]domain.Task, 0, len(objects))
	for _, object := range objects {
		if !hasString(object, "title") || !hasString(object, "category") {
			continue
		}
		tasks = append(tasks, domain.Task{
			Title:       stringField(object, "title"),
			Description: stringField(object, "description"),
			Category:    domain.ParseTaskCategory(stringField(object, "category")),
			Priority:    domain.ParseTaskPriority(stringField(object, "priority")),
		})
	}
	return tasks, true
}

// FallbackTasks is the fixed generic task set used when general task
// generation fails outright.
func FallbackTasks(destinations []string) []domain.Task {
	flightTarget := "your destination"
	if len(destinations) > 0 {
		flightTarget = destinations[0]
	}

	tasks := []domain.Task{
		{
			Title:       "Book flights",
			Description: fmt.Sprintf("Book flights to %s. Recommended: 4 weeks before trip", flightTarget),
			Category:    domain.TaskCategoryTransportation,
			Priority:    domain.TaskPriorityHigh,
		},
		{
			Title:       "Get travel insurance",
			Description: "Purchase comprehensive travel insurance covering medical, cancellation, and baggage. Recommended: 3 weeks before trip",
			Category:    domain.TaskCategoryGeneral,
			Priority:    domain.TaskPriorityHigh,
		},
	}
	for _, destination := range destinations {
		tasks = append(tasks, domain.Task{
			Title:       "Book accommodation in " + destination,
			Description: fmt.Sprintf("Find and reserve lodging in %s. Recommended: 3 weeks before trip", destination),
			Category:    domain.TaskCategoryAccommodation,
			Priority:    domain.TaskPriorityHigh,
		})
	}
	return tasks
}
