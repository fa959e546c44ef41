package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YingY4ang/Transcriber/internal/domain/providers"
	redisclient "github.com/YingY4ang/Transcriber/internal/infrastructure/clients/redis"
	"github.com/YingY4ang/Transcriber/pkg/config"
)

// RedisJobQueue implements the JobQueue interface on Redis lists. Receive
// atomically moves the message onto an in-flight list, so a crashed consumer
// leaves its message recoverable rather than lost; Ack removes it from the
// in-flight list.
type RedisJobQueue struct {
	client     *redisclient.Client
	queue      string
	processing string
	pollWindow time.Duration
}

// NewRedisJobQueue creates a Redis-backed job queue
func NewRedisJobQueue(client *redisclient.Client, cfg *config.QueueConfig) providers.JobQueue {
	return &RedisJobQueue{
		client:     client,
		queue:      cfg.Name,
		processing: cfg.ProcessingQueue,
		pollWindow: time.Duration(cfg.PollSeconds) * time.Second,
	}
}

// Enqueue adds a job to the queue
func (q *RedisJobQueue) Enqueue(ctx context.Context, msg *providers.JobMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal job message: %w", err)
	}
	if err := q.client.Client().LPush(ctx, q.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

// Receive long-polls for the next job, returning (nil, nil) when the poll
// window elapses empty. The raw payload becomes the receipt handle.
func (q *RedisJobQueue) Receive(ctx context.Context) (*providers.JobMessage, error) {
	payload, err := q.client.Client().BLMove(ctx, q.queue, q.processing, "RIGHT", "LEFT", q.pollWindow).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to receive job: %w", err)
	}

	var msg providers.JobMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		// malformed payloads are dropped from the in-flight list, they can
		// never succeed
		_ = q.client.Client().LRem(ctx, q.processing, 1, payload).Err()
		return nil, fmt.Errorf("failed to unmarshal job message: %w", err)
	}
	msg.ReceiptHandle = payload
	return &msg, nil
}

// Ack acknowledges a received message so it is never redelivered
func (q *RedisJobQueue) Ack(ctx context.Context, msg *providers.JobMessage) error {
	if msg.ReceiptHandle == "" {
		return fmt.Errorf("job message has no receipt handle")
	}
	if err := q.client.Client().LRem(ctx, q.processing, 1, msg.ReceiptHandle).Err(); err != nil {
		return fmt.Errorf("failed to acknowledge job: %w", err)
	}
	return nil
}
