package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/queue"
	"github.com/iago/trip-planner-back/internal/repository"
)

type launcherFunc func(ctx context.Context, message domain.LaunchMessage) error

func (f launcherFunc) Launch(ctx context.Context, message domain.LaunchMessage) error {
	return f(ctx, message)
}

func TestJobsServiceStartsPendingJob(t *testing.T) {
	repo := repository.NewMemoryJobsRepository(nil)
	var launched []domain.LaunchMessage
	service := NewJobsService(repo, launcherFunc(func(_ context.Context, message domain.LaunchMessage) error {
		launched = append(launched, message)
		return nil
	}), nil)

	job, err := service.StartItineraryModification(context.Background(), "trip-1", "more museums")
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, domain.JobCreatedMessage, job.Message)
	assert.Equal(t, domain.JobKindItineraryModification, job.Kind)

	require.Len(t, launched, 1)
	assert.Equal(t, job.ID, launched[0].JobID)
	var payload domain.ModificationPayload
	require.NoError(t, json.Unmarshal(launched[0].Payload, &payload))
	assert.Equal(t, "more museums", payload.Modification)

	stored, err := service.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "trip-1", stored.TripID)
}

func TestJobsServiceValidates(t *testing.T) {
	service := NewJobsService(repository.NewMemoryJobsRepository(nil), launcherFunc(func(context.Context, domain.LaunchMessage) error {
		t.Fatal("launch must not be called")
		return nil
	}), nil)

	_, err := service.StartItineraryGeneration(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidJobRequest)
	_, err = service.StartItineraryModification(context.Background(), "trip-1", "")
	assert.ErrorIs(t, err, ErrInvalidJobRequest)
}

func TestJobsServiceMarksUnlaunchedJobFailed(t *testing.T) {
	repo := repository.NewMemoryJobsRepository(nil)
	var jobID string
	service := NewJobsService(repo, launcherFunc(func(_ context.Context, message domain.LaunchMessage) error {
		jobID = message.JobID
		return queue.ErrQueueFull
	}), nil)

	_, err := service.StartTaskGeneration(context.Background(), "trip-1")
	require.ErrorIs(t, err, queue.ErrQueueFull)

	job, err := repo.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Equal(t, queue.ErrQueueFull.Error(), job.Error)
}
