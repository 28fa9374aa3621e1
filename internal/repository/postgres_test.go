package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/trip-planner-back/internal/domain"
)

// openTestPool skips unless TEST_DATABASE_URL points at a disposable database.
func openTestPool(t *testing.T) (*PostgresStore, *PostgresJobsRepository) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	_, err := Migrate(ctx, dsn, "up")
	require.NoError(t, err)

	pool, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return NewPostgresStore(pool), NewPostgresJobsRepository(pool, nil)
}

func TestPostgresStoreReplaceItineraryItems(t *testing.T) {
	store, _ := openTestPool(t)
	ctx := context.Background()

	trip := &domain.Trip{
		ID:           uuid.NewString(),
		Destinations: []string{"Lisbon", "Porto"},
		StartDate:    "2026-05-01",
		EndDate:      "2026-05-03",
		AdultsCount:  2,
		Budget:       1500,
	}
	require.NoError(t, store.CreateTrip(ctx, trip))

	got, err := store.GetTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lisbon", "Porto"}, got.Destinations)
	assert.Equal(t, "USD", got.Currency)

	require.NoError(t, store.AppendItineraryItems(ctx, trip.ID, []domain.ItineraryItem{
		{DayNumber: 1, OrderIndex: 0, Title: "Old", Type: domain.ItemTypeActivity},
	}))
	require.NoError(t, store.ReplaceItineraryItems(ctx, trip.ID, []domain.ItineraryItem{
		{DayNumber: 1, OrderIndex: 1, Title: "Dinner", Type: domain.ItemTypeMeal},
		{DayNumber: 1, OrderIndex: 0, Title: "Tram 28", Type: domain.ItemTypeTransport},
	}))

	items, err := store.ListItineraryItems(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Tram 28", "Dinner"}, titles(items))
}

func TestPostgresJobsRepositoryRefusesTerminalUpdates(t *testing.T) {
	_, jobs := openTestPool(t)
	ctx := context.Background()

	job := newPendingJob(uuid.NewString())
	require.NoError(t, jobs.CreateJob(ctx, job))
	require.NoError(t, jobs.UpdateJob(ctx, job.ID, domain.JobUpdate{
		Status:   domain.JobStatusCompleted,
		Progress: 100,
		Result:   []byte(`{"tasks_count":4}`),
	}))
	require.NoError(t, jobs.UpdateJob(ctx, job.ID, domain.JobUpdate{Status: domain.JobStatusFailed, Error: "late"}))
	require.NoError(t, jobs.UpdateJob(ctx, uuid.NewString(), domain.JobUpdate{Status: domain.JobStatusProcessing}))

	got, err := jobs.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, got.Status)
	assert.JSONEq(t, `{"tasks_count":4}`, string(got.Result))
	assert.WithinDuration(t, time.Now(), got.UpdatedAt, time.Minute)
}

func TestPostgresStoreTasksKeepMergedOrder(t *testing.T) {
	store, _ := openTestPool(t)
	ctx := context.Background()

	trip := &domain.Trip{ID: uuid.NewString(), Destinations: []string{"Tokyo, Japan"}}
	require.NoError(t, store.CreateTrip(ctx, trip))

	merged := []domain.Task{
		{Title: "Apply for Japan visa", Category: domain.TaskCategoryVisa, Priority: domain.TaskPriorityHigh},
		{Title: "Get required Japanese Encephalitis vaccine", Category: domain.TaskCategoryHealth, Priority: domain.TaskPriorityHigh},
		{Title: "Book flights", Category: domain.TaskCategoryTransportation, Priority: domain.TaskPriorityHigh},
		{Title: "Reserve hotels", Category: domain.TaskCategoryAccommodation, Priority: domain.TaskPriorityHigh},
		{Title: "Buy travel insurance", Category: domain.TaskCategoryGeneral, Priority: domain.TaskPriorityMedium},
		{Title: "Order a JR Pass", Category: domain.TaskCategoryTransportation, Priority: domain.TaskPriorityMedium},
		{Title: "Notify your bank", Category: domain.TaskCategoryGeneral, Priority: domain.TaskPriorityLow},
		{Title: "Pack an adapter", Category: domain.TaskCategoryGeneral, Priority: domain.TaskPriorityLow},
	}
	require.NoError(t, store.InsertTasks(ctx, trip.ID, merged))

	tasks, err := store.ListTasks(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, tasks, len(merged))
	for index, task := range tasks {
		assert.Equal(t, merged[index].Title, task.Title)
	}
}

func TestPostgresStoreAppendItineraryItemsIsAtomic(t *testing.T) {
	store, _ := openTestPool(t)
	ctx := context.Background()

	trip := &domain.Trip{ID: uuid.NewString(), Destinations: []string{"Lisbon"}}
	require.NoError(t, store.CreateTrip(ctx, trip))

	duplicate := uuid.NewString()
	err := store.AppendItineraryItems(ctx, trip.ID, []domain.ItineraryItem{
		{ID: duplicate, DayNumber: 1, OrderIndex: 0, Title: "Tram 28", Type: domain.ItemTypeTransport},
		{ID: duplicate, DayNumber: 1, OrderIndex: 1, Title: "Dinner", Type: domain.ItemTypeMeal},
	})
	require.Error(t, err)

	items, err := store.ListItineraryItems(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}
