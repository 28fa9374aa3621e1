package ai

import "strings"

type TaskKind string

const (
	TaskItineraryDay    TaskKind = "itinerary_day"
	TaskItineraryModify TaskKind = "itinerary_modify"
	TaskTripTasks       TaskKind = "trip_tasks"
	TaskTripName        TaskKind = "trip_name"
)

type ModelProfile struct {
	PrimaryModel    string
	FallbackModel   string
	Temperature     float64
	MaxOutputTokens int
}

type ModelRouterConfig struct {
	ItineraryPrimary  string
	ItineraryFallback string

	ModifyPrimary  string
	ModifyFallback string

	TasksPrimary  string
	TasksFallback string

	TripNamePrimary  string
	TripNameFallback string
}

type ModelRouter struct {
	config ModelRouterConfig
}

func NewModelRouter(config ModelRouterConfig) *ModelRouter {
	defaultModel(&config.ItineraryPrimary, "google/gemini-2.5-flash")
	defaultModel(&config.ItineraryFallback, "openai/gpt-4.1-mini")
	defaultModel(&config.ModifyPrimary, "google/gemini-2.5-flash")
	defaultModel(&config.ModifyFallback, "openai/gpt-4.1-mini")
	defaultModel(&config.TasksPrimary, "google/gemini-2.5-flash")
	defaultModel(&config.TasksFallback, "openai/gpt-4.1-mini")
	defaultModel(&config.TripNamePrimary, "google/gemini-2.0-flash-001")
	defaultModel(&config.TripNameFallback, "openai/gpt-4.1-nano")

	return &ModelRouter{config: config}
}

func defaultModel(target *string, value string) {
	if strings.TrimSpace(*target) == "" {
		*target = value
	}
}

func (r *ModelRouter) Select(task TaskKind) ModelProfile {
	switch task {
	case TaskItineraryModify:
		// The whole itinerary comes back in one answer.
		return ModelProfile{
			PrimaryModel:    r.config.ModifyPrimary,
			FallbackModel:   r.config.ModifyFallback,
			Temperature:     0.4,
			MaxOutputTokens: 8000,
		}
	case TaskTripTasks:
		return ModelProfile{
			PrimaryModel:    r.config.TasksPrimary,
			FallbackModel:   r.config.TasksFallback,
			Temperature:     0.3,
			MaxOutputTokens: 2000,
		}
	case TaskTripName:
		return ModelProfile{
			PrimaryModel:    r.config.TripNamePrimary,
			FallbackModel:   r.config.TripNameFallback,
			Temperature:     0.8,
			MaxOutputTokens: 300,
		}
	default:
		return ModelProfile{
			PrimaryModel:    r.config.ItineraryPrimary,
			FallbackModel:   r.config.ItineraryFallback,
			Temperature:     0.6,
			MaxOutputTokens: 2000,
		}
	}
}
