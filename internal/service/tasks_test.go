package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/visa"
)

const japanHealthResearch = `Health guidance for Japan.
Japanese Encephalitis vaccination is required for long rural stays.
Typhoid is recommended for adventurous eaters.`

const generalTasksOutput = `[
	{"title": "Apply for a tourist visa", "category": "visa", "priority": "high"},
	{"title": "Get flu vaccination", "category": "health", "priority": "low"},
	{"title": "Pack travel pharmacy", "category": "health", "priority": "low"},
	{"title": "Buy a JR pass", "category": "transportation", "priority": "medium", "completed": true}
]`

func TestMergeTasksDropsDuplicatedSpecialistCategories(t *testing.T) {
	visas := []domain.Task{{Title: "Apply for Japan visa", Category: domain.TaskCategoryVisa}}
	health := []domain.Task{{Title: "Get required Rabies vaccine", Category: domain.TaskCategoryHealth}}
	general := []domain.Task{
		{Title: "Check visa rules", Category: domain.TaskCategoryVisa},
		{Title: "Book Immunization appointment", Category: domain.TaskCategoryHealth},
		{Title: "Buy sunscreen", Category: domain.TaskCategoryHealth},
		{Title: "Exchange money", Category: domain.TaskCategoryFinance, Completed: true},
	}

	merged := mergeTasks(visas, health, general)

	titles := make([]string, 0, len(merged))
	for _, task := range merged {
		titles = append(titles, task.Title)
		assert.False(t, task.Completed)
	}
	assert.Equal(t, []string{"Apply for Japan visa", "Get required Rabies vaccine", "Buy sunscreen", "Exchange money"}, titles)

	kept := mergeTasks(nil, nil, general)
	assert.Len(t, kept, 4)
}

func TestTaskPipelineMergesSpecialists(t *testing.T) {
	trip := tokyoTrip()
	trip.Destinations = []string{"Tokyo, Japan", "Kyoto, Japan", "Lisbon, Portugal"}
	fx := newFixture(t, trip)
	require.NoError(t, fx.store.UpsertUser(context.Background(), domain.User{ID: "user-1", Citizenship: "Portugal"}))

	checker := &fakeChecker{check: func(passport, destination string) (visa.Requirement, error) {
		return visa.Requirement{PrimaryRule: visa.Rule{Name: "Visa required", Duration: "90 days"}}, nil
	}}
	fx.deps.Visa = checker
	fx.deps.Countries = fakeCountries{
		"Portugal":         "PT",
		"Tokyo, Japan":     "JP",
		"Kyoto, Japan":     "JP",
		"Lisbon, Portugal": "PT",
	}
	fx.deps.Researcher = &fakeResearcher{available: true, research: func(request ai.ResearchRequest) (string, error) {
		assert.Equal(t, "vaccines", request.Purpose)
		assert.Contains(t, request.Query, "Tokyo, Japan, Kyoto, Japan, Lisbon, Portugal")
		return japanHealthResearch, nil
	}}
	fx.deps.Generator = &fakeGenerator{generate: func(ai.GenerateRequest) (string, error) { return generalTasksOutput, nil }}
	message := fx.launch(t, domain.JobKindTaskGeneration, "trip-tokyo", nil)

	require.NoError(t, NewTaskPipeline(fx.deps).Run(context.Background(), message))

	assert.Equal(t, [][2]string{{"PT", "JP"}}, checker.calls)

	job := fx.job(t, message.JobID)
	assert.Equal(t, domain.JobStatusCompleted, job.Status)
	assert.Equal(t, "Tasks generated successfully", job.Message)
	assert.JSONEq(t, `{"tasks_count":4}`, string(job.Result))

	tasks, err := fx.store.ListTasks(context.Background(), "trip-tokyo")
	require.NoError(t, err)
	titles := make(map[string]domain.Task, len(tasks))
	for _, task := range tasks {
		titles[task.Title] = task
		assert.False(t, task.Completed)
	}
	assert.Contains(t, titles, "Apply for Tokyo, Japan visa")
	assert.Contains(t, titles, "Get required Japanese Encephalitis vaccine")
	assert.Contains(t, titles, "Pack travel pharmacy")
	assert.Contains(t, titles, "Buy a JR pass")
	assert.NotContains(t, titles, "Get required Typhoid vaccine")
	assert.NotContains(t, titles, "Apply for a tourist visa")
	assert.NotContains(t, titles, "Get flu vaccination")
	assert.Contains(t, titles["Get required Japanese Encephalitis vaccine"].Description, "4-6 weeks")
}

func TestTaskPipelineDegradesEachSpecialist(t *testing.T) {
	fx := newFixture(t, tokyoTrip())
	require.NoError(t, fx.store.UpsertUser(context.Background(), domain.User{ID: "user-1", Citizenship: "Atlantis"}))
	fx.deps.Countries = fakeCountries{}
	fx.deps.Researcher = &fakeResearcher{available: true, research: func(ai.ResearchRequest) (string, error) {
		return "", errCapability
	}}
	message := fx.launch(t, domain.JobKindTaskGeneration, "trip-tokyo", nil)

	require.NoError(t, NewTaskPipeline(fx.deps).Run(context.Background(), message))

	tasks, err := fx.store.ListTasks(context.Background(), "trip-tokyo")
	require.NoError(t, err)
	require.NotEmpty(t, tasks)

	assert.Equal(t, "Research visa requirements for Tokyo, Japan", tasks[0].Title)
	for _, task := range tasks {
		assert.NotEqual(t, domain.TaskCategoryHealth, task.Category)
	}
	var titles []string
	for _, task := range tasks[1:] {
		titles = append(titles, task.Title)
	}
	assert.Contains(t, strings.Join(titles, "|"), "Book flights")
}

func TestVisaTasksWithoutCitizenship(t *testing.T) {
	fx := newFixture(t, tokyoTrip())
	pipeline := NewTaskPipeline(fx.deps)

	assert.Empty(t, pipeline.visaTasks(context.Background(), tokyoTrip(), ""))
	assert.Equal(t, "", pipeline.citizenship(context.Background(), domain.Trip{ID: "x"}))
	assert.Equal(t, "", pipeline.citizenship(context.Background(), domain.Trip{ID: "x", UserID: "ghost"}))
}

func TestVisaTasksSkipsUnresolvedAndHomeCountry(t *testing.T) {
	fx := newFixture(t, tokyoTrip())
	checker := &fakeChecker{check: func(_, destination string) (visa.Requirement, error) {
		if destination == "TH" {
			return visa.Requirement{}, errCapability
		}
		return visa.Requirement{PrimaryRule: visa.Rule{Name: "Visa-free", Duration: "30 days"}}, nil
	}}
	fx.deps.Visa = checker
	fx.deps.Countries = fakeCountries{"US": "US", "Chicago, USA": "US", "Bangkok, Thailand": "TH", "Seoul": "KR"}
	trip := domain.Trip{ID: "t", Destinations: []string{"Chicago, USA", "Atlantis", "Bangkok, Thailand", "Seoul"}}

	tasks := NewTaskPipeline(fx.deps).visaTasks(context.Background(), trip, "US")

	require.Len(t, tasks, 2)
	assert.Equal(t, "Research visa requirements for Bangkok, Thailand", tasks[0].Title)
	assert.Equal(t, "Check passport validity for Seoul", tasks[1].Title)
	assert.Equal(t, [][2]string{{"US", "TH"}, {"US", "KR"}}, checker.calls)
}

func TestVaccineTasksOnlyRequired(t *testing.T) {
	fx := newFixture(t, tokyoTrip())
	fx.deps.Researcher = &fakeResearcher{available: true, research: func(ai.ResearchRequest) (string, error) {
		return "Cholera vaccination is mandatory on arrival. Typhoid and Hepatitis A vaccines are recommended.", nil
	}}

	tasks := NewTaskPipeline(fx.deps).vaccineTasks(context.Background(), tokyoTrip(), "")

	require.Len(t, tasks, 1)
	assert.Equal(t, "Get required Cholera vaccine", tasks[0].Title)
	assert.Equal(t, domain.TaskCategoryHealth, tasks[0].Category)
	assert.Equal(t, domain.TaskPriorityHigh, tasks[0].Priority)
	assert.Contains(t, tasks[0].Description, "Tokyo, Japan")
	assert.Contains(t, tasks[0].Description, "2-4 weeks")
}

func TestVaccineTasksWithoutResearch(t *testing.T) {
	fx := newFixture(t, tokyoTrip())

	assert.Empty(t, NewTaskPipeline(fx.deps).vaccineTasks(context.Background(), tokyoTrip(), "PT"))
}
