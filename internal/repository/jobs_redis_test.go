package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/trip-planner-back/internal/domain"
)

func TestRedisJobsRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(ctx).Err())
	repo := newRedisJobsRepository(client, RedisJobsConfig{Prefix: "test_jobs:" + uuid.NewString() + ":", TTL: time.Minute}, nil)
	t.Cleanup(func() { _ = repo.Close() })

	job := newPendingJob(uuid.NewString())
	require.NoError(t, repo.CreateJob(ctx, job))
	require.NoError(t, repo.UpdateJob(ctx, job.ID, domain.JobUpdate{Status: domain.JobStatusProcessing, Progress: 150}))

	got, err := repo.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)

	require.NoError(t, repo.UpdateJob(ctx, job.ID, domain.JobUpdate{Status: domain.JobStatusFailed, Progress: 30, Error: "boom"}))
	require.NoError(t, repo.UpdateJob(ctx, job.ID, domain.JobUpdate{Status: domain.JobStatusCompleted, Progress: 100}))

	got, err = repo.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, got.Status)
	assert.Equal(t, "boom", got.Error)

	_, err = repo.GetJob(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
