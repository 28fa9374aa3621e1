package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iago/trip-planner-back/internal/domain"
)

type RedisJobsConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// RedisJobsRepository stores each job as a JSON value under Prefix+id with a
// TTL, so the registry survives restarts and is shared by replicas.
type RedisJobsRepository struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.SugaredLogger
}

const maxUpdateAttempts = 5

func NewRedisJobsRepository(ctx context.Context, cfg RedisJobsConfig, logger *zap.SugaredLogger) (*RedisJobsRepository, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return newRedisJobsRepository(client, cfg, logger), nil
}

func newRedisJobsRepository(client *redis.Client, cfg RedisJobsConfig, logger *zap.SugaredLogger) *RedisJobsRepository {
	if cfg.Prefix == "" {
		cfg.Prefix = "trip_jobs:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 72 * time.Hour
	}
	return &RedisJobsRepository{client: client, prefix: cfg.Prefix, ttl: cfg.TTL, logger: logger}
}

func (r *RedisJobsRepository) Close() error {
	return r.client.Close()
}

func (r *RedisJobsRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisJobsRepository) key(jobID string) string {
	return r.prefix + jobID
}

func (r *RedisJobsRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	if err := r.client.Set(ctx, r.key(job.ID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("store job: %w", err)
	}
	return nil
}

// UpdateJob runs an optimistic WATCH/MULTI transaction, retrying when another
// writer touched the key in between.
func (r *RedisJobsRepository) UpdateJob(ctx context.Context, jobID string, update domain.JobUpdate) error {
	key := r.key(jobID)
	txf := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			warnUnknownJob(r.logger, jobID)
			return nil
		}
		if err != nil {
			return err
		}
		var job domain.Job
		if err := json.Unmarshal(raw, &job); err != nil {
			return fmt.Errorf("decode job: %w", err)
		}
		if !job.Apply(update, time.Now().UTC()) {
			warnTerminalJob(r.logger, &job)
			return nil
		}
		encoded, err := json.Marshal(&job)
		if err != nil {
			return fmt.Errorf("encode job: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, r.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("update job: %w", err)
		}
		return nil
	}
	return fmt.Errorf("update job %s: too much contention", jobID)
}

func (r *RedisJobsRepository) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	raw, err := r.client.Get(ctx, r.key(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	var job domain.Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &job, nil
}
