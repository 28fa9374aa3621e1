package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iago/trip-planner-back/internal/domain"
)

type StreamsConfig struct {
	Addr      string
	Password  string
	DB        int
	Stream    string
	DLQStream string
	Group     string
	Consumer  string
	// Capacity bounds the number of unacknowledged launches in the stream.
	Capacity int
}

// StreamsQueue implements Producer+Consumer backed by Redis Streams so that
// launches survive a restart of the API process.
type StreamsQueue struct {
	client    *redis.Client
	stream    string
	dlqStream string
	group     string
	consumer  string
	capacity  int64
}

func NewStreamsQueue(ctx context.Context, cfg StreamsConfig) (*StreamsQueue, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	queue := newStreamsQueue(client, cfg)
	if err := queue.ensureGroup(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return queue, nil
}

func newStreamsQueue(client *redis.Client, cfg StreamsConfig) *StreamsQueue {
	if cfg.Stream == "" {
		cfg.Stream = "trip_jobs"
	}
	if cfg.DLQStream == "" {
		cfg.DLQStream = cfg.Stream + "_dlq"
	}
	if cfg.Group == "" {
		cfg.Group = "trip_workers"
	}
	if cfg.Consumer == "" {
		cfg.Consumer = "api-1"
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = 256
	}
	return &StreamsQueue{
		client:    client,
		stream:    cfg.Stream,
		dlqStream: cfg.DLQStream,
		group:     cfg.Group,
		consumer:  cfg.Consumer,
		capacity:  int64(cfg.Capacity),
	}
}

func (q *StreamsQueue) Close() error {
	return q.client.Close()
}

func (q *StreamsQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// Enqueue refuses new launches with ErrQueueFull once the stream holds
// Capacity entries. The check and the append are not atomic, so concurrent
// producers may overshoot by a few entries.
func (q *StreamsQueue) Enqueue(ctx context.Context, message domain.LaunchMessage) error {
	length, err := q.client.XLen(ctx, q.stream).Result()
	if err != nil {
		return fmt.Errorf("stream length: %w", err)
	}
	if length >= q.capacity {
		return ErrQueueFull
	}

	_, err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: streamValues(message),
	}).Result()
	if err != nil {
		return fmt.Errorf("enqueue to stream: %w", err)
	}
	return nil
}

// Consume reads launches for the consumer group until ctx is cancelled.
// Entries are acknowledged and deleted after the handler returns; pipelines
// record their own failures on the job, so nothing is redelivered.
func (q *StreamsQueue) Consume(ctx context.Context, handler func(context.Context, domain.LaunchMessage)) error {
	if err := q.ensureGroup(ctx); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: q.consumer,
			Streams:  []string{q.stream, ">"},
			Count:    1,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return fmt.Errorf("xreadgroup: %w", err)
		}

		for _, stream := range streams {
			for _, item := range stream.Messages {
				message, parseErr := parseStreamMessage(item)
				if parseErr != nil {
					_ = q.sendToDLQ(ctx, item, parseErr.Error())
					_ = q.ackAndDelete(ctx, item.ID)
					continue
				}
				handler(ctx, message)
				_ = q.ackAndDelete(ctx, item.ID)
			}
		}
	}
}

func (q *StreamsQueue) ensureGroup(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
	if err == nil || strings.Contains(err.Error(), "BUSYGROUP") {
		return nil
	}
	return fmt.Errorf("ensure stream group: %w", err)
}

func (q *StreamsQueue) ackAndDelete(ctx context.Context, streamID string) error {
	if err := q.client.XAck(ctx, q.stream, q.group, streamID).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	if err := q.client.XDel(ctx, q.stream, streamID).Err(); err != nil {
		return fmt.Errorf("xdel: %w", err)
	}
	return nil
}

func (q *StreamsQueue) sendToDLQ(ctx context.Context, item redis.XMessage, errorMessage string) error {
	values := map[string]any{
		"stream_id": item.ID,
		"error":     errorMessage,
		"moved_at":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	for key, value := range item.Values {
		values["original_"+key] = value
	}
	if _, err := q.client.XAdd(ctx, &redis.XAddArgs{Stream: q.dlqStream, Values: values}).Result(); err != nil {
		return fmt.Errorf("send to dlq: %w", err)
	}
	return nil
}

func streamValues(message domain.LaunchMessage) map[string]any {
	return map[string]any{
		"job_id":       message.JobID,
		"trip_id":      message.TripID,
		"kind":         string(message.Kind),
		"payload":      string(message.Payload),
		"requested_at": message.RequestedAt.UTC().Format(time.RFC3339Nano),
	}
}

func parseStreamMessage(item redis.XMessage) (domain.LaunchMessage, error) {
	getString := func(key string) (string, error) {
		value, ok := item.Values[key]
		if !ok {
			return "", fmt.Errorf("missing field %s", key)
		}
		switch casted := value.(type) {
		case string:
			return casted, nil
		case []byte:
			return string(casted), nil
		default:
			return fmt.Sprintf("%v", casted), nil
		}
	}

	jobID, err := getString("job_id")
	if err != nil {
		return domain.LaunchMessage{}, err
	}
	if strings.TrimSpace(jobID) == "" {
		return domain.LaunchMessage{}, errors.New("empty job_id")
	}
	tripID, err := getString("trip_id")
	if err != nil {
		return domain.LaunchMessage{}, err
	}
	kind, err := getString("kind")
	if err != nil {
		return domain.LaunchMessage{}, err
	}
	if !domain.JobKind(kind).Valid() {
		return domain.LaunchMessage{}, fmt.Errorf("unknown job kind %q", kind)
	}
	payload, err := getString("payload")
	if err != nil {
		return domain.LaunchMessage{}, err
	}
	requestedAtString, err := getString("requested_at")
	if err != nil {
		return domain.LaunchMessage{}, err
	}
	requestedAt, err := time.Parse(time.RFC3339Nano, requestedAtString)
	if err != nil {
		return domain.LaunchMessage{}, fmt.Errorf("invalid requested_at: %w", err)
	}

	message := domain.LaunchMessage{
		JobID:       jobID,
		TripID:      tripID,
		Kind:        domain.JobKind(kind),
		RequestedAt: requestedAt,
	}
	if payload != "" {
		message.Payload = []byte(payload)
	}
	return message, nil
}
