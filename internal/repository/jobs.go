package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/domain"
)

var ErrNotFound = errors.New("resource not found")

// JobsRepository owns job records. UpdateJob on an unknown or terminal job is
// a logged no-op, never an error.
type JobsRepository interface {
	CreateJob(ctx context.Context, job *domain.Job) error
	UpdateJob(ctx context.Context, jobID string, update domain.JobUpdate) error
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
}

// MemoryJobsRepository keeps jobs in process memory; they die with the process.
type MemoryJobsRepository struct {
	mu     sync.RWMutex
	jobs   map[string]*domain.Job
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewMemoryJobsRepository(logger *zap.SugaredLogger) *MemoryJobsRepository {
	return &MemoryJobsRepository{
		jobs:   make(map[string]*domain.Job),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryJobsRepository) CreateJob(_ context.Context, job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.jobs[job.ID] = cloneJob(job)
	return nil
}

func (r *MemoryJobsRepository) UpdateJob(_ context.Context, jobID string, update domain.JobUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[jobID]
	if !ok {
		warnUnknownJob(r.logger, jobID)
		return nil
	}
	if !job.Apply(update, r.now()) {
		warnTerminalJob(r.logger, job)
	}
	return nil
}

func (r *MemoryJobsRepository) GetJob(_ context.Context, jobID string) (*domain.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[jobID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneJob(job), nil
}

func (r *MemoryJobsRepository) Ping(context.Context) error {
	return nil
}

func cloneJob(job *domain.Job) *domain.Job {
	if job == nil {
		return nil
	}
	clone := *job
	if job.Result != nil {
		clone.Result = append(json.RawMessage(nil), job.Result...)
	}
	return &clone
}

func warnUnknownJob(logger *zap.SugaredLogger, jobID string) {
	if logger == nil {
		return
	}
	logger.Warnw("update ignored for unknown job", "job_id", jobID)
}

func warnTerminalJob(logger *zap.SugaredLogger, job *domain.Job) {
	if logger == nil {
		return
	}
	logger.Warnw("update ignored for terminal job", "job_id", job.ID, "status", job.Status)
}
