package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/domain"
)

// OpenPostgres builds a pool and verifies connectivity.
func OpenPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return pool, nil
}

type PostgresJobsRepository struct {
	pool   *pgxpool.Pool
	logger *zap.SugaredLogger
}

func NewPostgresJobsRepository(pool *pgxpool.Pool, logger *zap.SugaredLogger) *PostgresJobsRepository {
	return &PostgresJobsRepository{pool: pool, logger: logger}
}

func (r *PostgresJobsRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresJobsRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO jobs (id, trip_id, kind, status, progress, message, result, error, created_at, updated_at)
		VALUES (@id, @trip_id, @kind, @status, @progress, @message, @result, @error, @created_at, @updated_at)
	`, pgx.NamedArgs{
		"id":         job.ID,
		"trip_id":    job.TripID,
		"kind":       string(job.Kind),
		"status":     string(job.Status),
		"progress":   job.Progress,
		"message":    job.Message,
		"result":     nullableJSON(job.Result),
		"error":      job.Error,
		"created_at": job.CreatedAt,
		"updated_at": job.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("repository.PostgresJobsRepository.CreateJob: %w", err)
	}
	return nil
}

// UpdateJob locks the row, applies the transition in Go and writes it back,
// so the terminal-state rule lives in one place.
func (r *PostgresJobsRepository) UpdateJob(ctx context.Context, jobID string, update domain.JobUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("repository.PostgresJobsRepository.UpdateJob: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	job, err := scanJob(tx.QueryRow(ctx, selectJobSQL+" FOR UPDATE", jobID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			warnUnknownJob(r.logger, jobID)
			return nil
		}
		return fmt.Errorf("repository.PostgresJobsRepository.UpdateJob: %w", err)
	}
	if !job.Apply(update, time.Now().UTC()) {
		warnTerminalJob(r.logger, job)
		return nil
	}

	_, err = tx.Exec(ctx, `
		UPDATE jobs
		SET status = @status, progress = @progress, message = @message,
			result = @result, error = @error, updated_at = @updated_at
		WHERE id = @id
	`, pgx.NamedArgs{
		"id":         job.ID,
		"status":     string(job.Status),
		"progress":   job.Progress,
		"message":    job.Message,
		"result":     nullableJSON(job.Result),
		"error":      job.Error,
		"updated_at": job.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("repository.PostgresJobsRepository.UpdateJob: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresJobsRepository) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := scanJob(r.pool.QueryRow(ctx, selectJobSQL, jobID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository.PostgresJobsRepository.GetJob: %w", err)
	}
	return job, nil
}

const selectJobSQL = `
	SELECT id, trip_id, kind, status, progress, message, result, error, created_at, updated_at
	FROM jobs
	WHERE id = $1`

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		job    domain.Job
		kind   string
		status string
		result []byte
	)
	err := row.Scan(
		&job.ID,
		&job.TripID,
		&kind,
		&status,
		&job.Progress,
		&job.Message,
		&result,
		&job.Error,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	job.Kind = domain.JobKind(kind)
	job.Status = domain.JobStatus(status)
	if len(result) > 0 {
		job.Result = json.RawMessage(result)
	}
	return &job, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
