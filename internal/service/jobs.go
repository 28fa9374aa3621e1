package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/repository"
)

// ErrInvalidJobRequest is returned before any job is created.
var ErrInvalidJobRequest = errors.New("invalid job request")

// Launcher hands a created job to the background workers without blocking.
type Launcher interface {
	Launch(ctx context.Context, message domain.LaunchMessage) error
}

type JobsService struct {
	repo     repository.JobsRepository
	launcher Launcher
	logger   *zap.SugaredLogger
	now      func() time.Time
}

func NewJobsService(repo repository.JobsRepository, launcher Launcher, logger *zap.SugaredLogger) *JobsService {
	return &JobsService{
		repo:     repo,
		launcher: launcher,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *JobsService) StartItineraryGeneration(ctx context.Context, tripID string) (*domain.Job, error) {
	return s.start(ctx, domain.JobKindItineraryGeneration, tripID, nil)
}

func (s *JobsService) StartItineraryModification(ctx context.Context, tripID, modification string) (*domain.Job, error) {
	if strings.TrimSpace(modification) == "" {
		return nil, fmt.Errorf("%w: modification is required", ErrInvalidJobRequest)
	}
	payload, err := json.Marshal(domain.ModificationPayload{Modification: modification})
	if err != nil {
		return nil, fmt.Errorf("marshal modification payload: %w", err)
	}
	return s.start(ctx, domain.JobKindItineraryModification, tripID, payload)
}

func (s *JobsService) StartTaskGeneration(ctx context.Context, tripID string) (*domain.Job, error) {
	return s.start(ctx, domain.JobKindTaskGeneration, tripID, nil)
}

func (s *JobsService) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	return s.repo.GetJob(ctx, jobID)
}

// start creates the pending job and launches it. The job is returned as it
// was created; the caller polls for progress.
func (s *JobsService) start(
	ctx context.Context,
	kind domain.JobKind,
	tripID string,
	payload json.RawMessage,
) (*domain.Job, error) {
	tripID = strings.TrimSpace(tripID)
	if tripID == "" {
		return nil, fmt.Errorf("%w: trip_id is required", ErrInvalidJobRequest)
	}

	now := s.now()
	job := &domain.Job{
		ID:        uuid.NewString(),
		TripID:    tripID,
		Kind:      kind,
		Status:    domain.JobStatusPending,
		Progress:  0,
		Message:   domain.JobCreatedMessage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	message := domain.LaunchMessage{
		JobID:       job.ID,
		TripID:      tripID,
		Kind:        kind,
		Payload:     payload,
		RequestedAt: now,
	}
	if err := s.launcher.Launch(ctx, message); err != nil {
		update := domain.JobUpdate{
			Status:   domain.JobStatusFailed,
			Progress: 0,
			Message:  "Job could not be started",
			Error:    err.Error(),
		}
		if updateErr := s.repo.UpdateJob(ctx, job.ID, update); updateErr != nil && s.logger != nil {
			s.logger.Warnw("record launch failure", "job_id", job.ID, "error", updateErr)
		}
		return nil, fmt.Errorf("launch job %s: %w", job.ID, err)
	}

	if s.logger != nil {
		s.logger.Infow("job launched", "job_id", job.ID, "trip_id", tripID, "kind", string(kind))
	}
	return job, nil
}
