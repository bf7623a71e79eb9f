package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Job types handled by the worker.
const (
	TypeExportAttemptsCSV = "export_attempts_csv"
	TypeQuizReminder      = "quiz_reminder"
	TypePerformanceReport = "performance_report"
)

// Job is the envelope pushed onto the queue. Delivery is at-least-once:
// handlers must tolerate a repeat of the same job.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Queue decouples job producers from the broker behind them.
type Queue interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) (string, error)
	Dequeue(ctx context.Context, timeout time.Duration) (*Job, error)
}

const redisQueueKey = "jobs:queue"

// RedisQueue is a Redis-list-backed Queue: LPUSH to enqueue, BRPOP to
// consume.
type RedisQueue struct {
	redis *redis.Client
	key   string
}

func NewRedisQueue(redisClient *redis.Client) *RedisQueue {
	return &RedisQueue{redis: redisClient, key: redisQueueKey}
}

func (q *RedisQueue) Enqueue(ctx context.Context, jobType string, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := Job{
		ID:         uuid.NewString(),
		Type:       jobType,
		Payload:    body,
		EnqueuedAt: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.redis.LPush(ctx, q.key, data).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	return job.ID, nil
}

// Dequeue blocks up to timeout for the next job. It returns (nil, nil)
// when the queue stayed empty.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.redis.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue job: %w", err)
	}

	// BRPOP returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(result))
	}

	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to decode job: %w", err)
	}

	return &job, nil
}
