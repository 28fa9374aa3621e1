package queue

import (
	"context"

	"github.com/iago/trip-planner-back/internal/domain"
)

// LocalQueue is an in-process bounded queue. Enqueue never blocks.
type LocalQueue struct {
	ch chan domain.LaunchMessage
}

func NewLocalQueue(capacity int) *LocalQueue {
	if capacity <= 0 {
		capacity = 256
	}
	return &LocalQueue{ch: make(chan domain.LaunchMessage, capacity)}
}

func (q *LocalQueue) Enqueue(ctx context.Context, message domain.LaunchMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case q.ch <- message:
		return nil
	default:
		return ErrQueueFull
	}
}

// Consume runs handler for each message until ctx is cancelled. Several
// goroutines may consume the same queue.
func (q *LocalQueue) Consume(ctx context.Context, handler func(context.Context, domain.LaunchMessage)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message := <-q.ch:
			handler(ctx, message)
		}
	}
}

func (q *LocalQueue) Len() int {
	return len(q.ch)
}
