package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/ai"
	"github.com/iago/trip-planner-back/internal/domain"
	"github.com/iago/trip-planner-back/internal/metrics"
	"github.com/iago/trip-planner-back/internal/repository"
	"github.com/iago/trip-planner-back/internal/visa"
)

// ErrTripNotFound fails a job whose trip does not exist.
var ErrTripNotFound = fmt.Errorf("trip not found: %w", repository.ErrNotFound)

// CountryResolver maps destination text to an ISO alpha-2 code.
type CountryResolver interface {
	Resolve(ctx context.Context, location string) (string, bool)
}

// Dependencies is shared by every pipeline. Only Jobs and Store are required.
type Dependencies struct {
	Jobs       repository.JobsRepository
	Store      repository.Store
	Router     *ai.ModelRouter
	Generator  ai.TextGenerator
	Researcher ai.Researcher
	Visa       visa.Checker
	Countries  CountryResolver
	Prompts    *Prompts
	Metrics    *metrics.Metrics
	Logger     *zap.SugaredLogger
	Now        func() time.Time
}

type toolkit struct {
	Dependencies
}

func newToolkit(deps Dependencies) toolkit {
	if deps.Router == nil {
		deps.Router = ai.NewModelRouter(ai.ModelRouterConfig{})
	}
	if deps.Prompts == nil {
		deps.Prompts = NewPrompts("")
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return time.Now().UTC() }
	}
	return toolkit{Dependencies: deps}
}

func (r toolkit) loadTrip(ctx context.Context, tripID string) (domain.Trip, error) {
	trip, err := r.Store.GetTrip(ctx, tripID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Trip{}, fmt.Errorf("trip %s: %w", tripID, ErrTripNotFound)
		}
		return domain.Trip{}, fmt.Errorf("load trip %s: %w", tripID, err)
	}
	return *trip, nil
}

// generateText tries the primary model and then the fallback model of the task profile.
func (r toolkit) generateText(ctx context.Context, task ai.TaskKind, instructions, prompt string) (string, error) {
	if r.Generator == nil || !r.Generator.Available() {
		return "", ai.ErrProviderUnavailable
	}
	profile := r.Router.Select(task)

	primary, err := r.Generator.Generate(ctx, ai.GenerateRequest{
		Model:           profile.PrimaryModel,
		Instructions:    instructions,
		Input:           prompt,
		Temperature:     profile.Temperature,
		MaxOutputTokens: profile.MaxOutputTokens,
	})
	if err == nil {
		return primary.Text, nil
	}

	if strings.TrimSpace(profile.FallbackModel) == "" || profile.FallbackModel == profile.PrimaryModel {
		return "", err
	}
	r.logf("primary model failed, trying fallback", "task", string(task), "model", profile.PrimaryModel, "error", err)

	fallback, fallbackErr := r.Generator.Generate(ctx, ai.GenerateRequest{
		Model:           profile.FallbackModel,
		Instructions:    instructions,
		Input:           prompt,
		Temperature:     profile.Temperature,
		MaxOutputTokens: profile.MaxOutputTokens,
	})
	if fallbackErr != nil {
		return "", fmt.Errorf("primary model failed: %v; fallback failed: %w", err, fallbackErr)
	}
	return fallback.Text, nil
}

func (r toolkit) research(ctx context.Context, purpose, query string) (ai.ResearchResult, error) {
	if r.Researcher == nil || !r.Researcher.Available() {
		return ai.ResearchResult{}, ai.ErrProviderUnavailable
	}
	return r.Researcher.Research(ctx, ai.ResearchRequest{Purpose: purpose, Query: query})
}

func (r toolkit) logf(msg string, keysAndValues ...any) {
	if r.Logger == nil {
		return
	}
	r.Logger.Infow(msg, keysAndValues...)
}

func (r toolkit) warnf(msg string, keysAndValues ...any) {
	if r.Logger == nil {
		return
	}
	r.Logger.Warnw(msg, keysAndValues...)
}

// jobTracker writes the status transitions of one running job.
type jobTracker struct {
	toolkit
	message  domain.LaunchMessage
	progress int
}

func (r toolkit) track(message domain.LaunchMessage) *jobTracker {
	return &jobTracker{toolkit: r, message: message}
}

func (t *jobTracker) step(ctx context.Context, progress int, message string) error {
	t.progress = progress
	err := t.Jobs.UpdateJob(ctx, t.message.JobID, domain.JobUpdate{
		Status:   domain.JobStatusProcessing,
		Progress: progress,
		Message:  message,
	})
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	t.logf("job progress",
		"job_id", t.message.JobID,
		"trip_id", t.message.TripID,
		"kind", string(t.message.Kind),
		"progress", progress,
		"message", message,
	)
	return nil
}

func (t *jobTracker) complete(ctx context.Context, message string, result []byte) error {
	t.progress = 100
	err := t.Jobs.UpdateJob(ctx, t.message.JobID, domain.JobUpdate{
		Status:   domain.JobStatusCompleted,
		Progress: 100,
		Message:  message,
		Result:   result,
	})
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	t.logf("job completed", "job_id", t.message.JobID, "trip_id", t.message.TripID, "kind", string(t.message.Kind))
	return nil
}

// fail keeps the last progress reached.
func (t *jobTracker) fail(ctx context.Context, message string, cause error) {
	err := t.Jobs.UpdateJob(ctx, t.message.JobID, domain.JobUpdate{
		Status:   domain.JobStatusFailed,
		Progress: t.progress,
		Message:  message,
		Error:    cause.Error(),
	})
	if err != nil {
		t.warnf("record job failure", "job_id", t.message.JobID, "error", err)
	}
	t.warnf("job failed",
		"job_id", t.message.JobID,
		"trip_id", t.message.TripID,
		"kind", string(t.message.Kind),
		"progress", t.progress,
		"error", cause,
	)
}

// Capabilities reports which external capabilities are configured.
type Capabilities struct {
	TextGeneration bool `json:"text_generation"`
	Research       bool `json:"research"`
	Visa           bool `json:"visa"`
}

func (d Dependencies) Capabilities() Capabilities {
	return Capabilities{
		TextGeneration: d.Generator != nil && d.Generator.Available(),
		Research:       d.Researcher != nil && d.Researcher.Available(),
		Visa:           d.Visa != nil && d.Visa.Available(),
	}
}
