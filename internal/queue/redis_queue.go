package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/rootfleet/waitlist/internal/domain"
)

// RedisQueue stores jobs as JSON strings in a Redis list.
// LPUSH adds at the head and RPOP takes from the tail, which yields FIFO order.
type RedisQueue struct {
	rdb *redis.Client
	key string
}

func NewRedisQueue(rdb *redis.Client, key string) *RedisQueue {
	return &RedisQueue{rdb: rdb, key: key}
}

func (q *RedisQueue) Push(ctx context.Context, job domain.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", q.key, err)
	}
	return nil
}

// Pop returns (nil, nil) when the list is empty. A payload that cannot be
// decoded is dropped and reported as an error so it cannot wedge the queue.
func (q *RedisQueue) Pop(ctx context.Context) (*domain.Job, error) {
	raw, err := q.rdb.RPop(ctx, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("rpop %s: %w", q.key, err)
	}

	var job domain.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJob, err)
	}
	return &job, nil
}

func (q *RedisQueue) Length(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", q.key, err)
	}
	return n, nil
}

// ErrMalformedJob is returned by Pop when the stored payload is not a job.
var ErrMalformedJob = errors.New("malformed job payload")

// compile-time check that RedisQueue implements WorkQueue
var _ WorkQueue = (*RedisQueue)(nil)
