package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iago/trip-planner-back/internal/domain"
)

func TestLocalQueueRejectsWhenFull(t *testing.T) {
	q := NewLocalQueue(1)
	require.NoError(t, q.Enqueue(context.Background(), domain.LaunchMessage{JobID: "a"}))

	err := q.Enqueue(context.Background(), domain.LaunchMessage{JobID: "b"})
	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.Equal(t, 1, q.Len())
}

func TestLocalQueueConsume(t *testing.T) {
	q := NewLocalQueue(4)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(context.Background(), domain.LaunchMessage{JobID: id}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu   sync.Mutex
		seen []string
	)
	done := make(chan error, 1)
	go func() {
		done <- q.Consume(ctx, func(_ context.Context, message domain.LaunchMessage) {
			mu.Lock()
			seen = append(seen, message.JobID)
			mu.Unlock()
		})
	}()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}
