package queue

import (
	"context"
	"errors"

	"github.com/iago/trip-planner-back/internal/domain"
)

// ErrQueueFull is returned by a bounded producer that has no free slot.
var ErrQueueFull = errors.New("queue is full")

// Producer hands launch messages to the worker pool.
type Producer interface {
	Enqueue(ctx context.Context, message domain.LaunchMessage) error
}

// Consumer receives launch messages and executes handlers.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, domain.LaunchMessage)) error
}
