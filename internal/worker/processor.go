package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/metrics"
	"github.com/iago/trip-planner-back/internal/queue"
	"github.com/iago/trip-planner-back/internal/repository"
)

// ErrLauncherSaturated is returned when every worker slot and queue slot is taken.
var ErrLauncherSaturated = errors.New("launcher saturated")

// Pipeline runs one job kind to a terminal status. A returned error means the
// pipeline has already recorded the failure on the job.
type Pipeline interface {
	Run(ctx context.Context, message domain.LaunchMessage) error
}

type Config struct {
	Workers int
}

// Processor owns the worker goroutines that drain the launch queue.
type Processor struct {
	producer  queue.Producer
	consumer  queue.Consumer
	jobs      repository.JobsRepository
	pipelines map[domain.JobKind]Pipeline
	workers   int
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger

	wg sync.WaitGroup
}

func NewProcessor(
	producer queue.Producer,
	consumer queue.Consumer,
	jobs repository.JobsRepository,
	config Config,
	recorder *metrics.Metrics,
	logger *zap.SugaredLogger,
) *Processor {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	return &Processor{
		producer:  producer,
		consumer:  consumer,
		jobs:      jobs,
		pipelines: make(map[domain.JobKind]Pipeline),
		workers:   config.Workers,
		metrics:   recorder,
		logger:    logger,
	}
}

// Register binds a pipeline to a job kind. Call before Start.
func (p *Processor) Register(kind domain.JobKind, pipeline Pipeline) {
	p.pipelines[kind] = pipeline
}

// Launch queues a job without blocking.
func (p *Processor) Launch(ctx context.Context, message domain.LaunchMessage) error {
	if _, ok := p.pipelines[message.Kind]; !ok {
		return fmt.Errorf("no pipeline registered for kind %q", message.Kind)
	}
	if err := p.producer.Enqueue(ctx, message); err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			p.metrics.LauncherSaturated()
			return ErrLauncherSaturated
		}
		return fmt.Errorf("enqueue job %s: %w", message.JobID, err)
	}
	return nil
}

// Start spawns the workers. They stop taking messages once ctx is done;
// Wait blocks until the job each one is running has returned.
func (p *Processor) Start(ctx context.Context) {
	for index := range p.workers {
		p.wg.Add(1)
		go func(worker int) {
			defer p.wg.Done()
			p.loop(ctx, worker)
		}(index)
	}
}

func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) loop(ctx context.Context, worker int) {
	for {
		err := p.consumer.Consume(ctx, p.process)
		if err == nil || ctx.Err() != nil {
			return
		}
		p.warnf("worker consume loop error", "worker", worker, "error", err)

		timer := time.NewTimer(2 * time.Second)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *Processor) process(ctx context.Context, message domain.LaunchMessage) {
	// A running job outlives shutdown of the consume loop.
	ctx = context.WithoutCancel(ctx)
	kind := string(message.Kind)
	started := time.Now()
	p.metrics.JobStarted(kind)

	status := domain.JobStatusCompleted
	defer func() {
		if recovered := recover(); recovered != nil {
			status = domain.JobStatusFailed
			p.fail(ctx, message, fmt.Errorf("pipeline panic: %v", recovered))
		}
		p.metrics.JobFinished(kind, string(status), time.Since(started))
	}()

	pipeline, ok := p.pipelines[message.Kind]
	if !ok {
		status = domain.JobStatusFailed
		p.fail(ctx, message, fmt.Errorf("unsupported job kind: %s", message.Kind))
		return
	}

	if err := pipeline.Run(ctx, message); err != nil {
		status = domain.JobStatusFailed
		p.warnf("job failed", "job_id", message.JobID, "trip_id", message.TripID, "kind", kind, "error", err)
		return
	}
	if p.logger != nil {
		p.logger.Infow("job processed",
			"job_id", message.JobID,
			"trip_id", message.TripID,
			"kind", kind,
			"duration", time.Since(started),
		)
	}
}

// fail records err on the job, keeping whatever progress it had reached.
func (p *Processor) fail(ctx context.Context, message domain.LaunchMessage, err error) {
	progress := 0
	if job, getErr := p.jobs.GetJob(ctx, message.JobID); getErr == nil {
		progress = job.Progress
	}
	update := domain.JobUpdate{
		Status:   domain.JobStatusFailed,
		Progress: progress,
		Message:  "Job failed",
		Error:    err.Error(),
	}
	if updateErr := p.jobs.UpdateJob(ctx, message.JobID, update); updateErr != nil {
		p.warnf("record job failure", "job_id", message.JobID, "error", updateErr)
	}
	p.warnf("job failed", "job_id", message.JobID, "trip_id", message.TripID, "kind", string(message.Kind), "error", err)
}

func (p *Processor) warnf(msg string, keysAndValues ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Warnw(msg, keysAndValues...)
}
