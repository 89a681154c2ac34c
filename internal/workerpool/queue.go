package workerpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"codepad/internal/models"

	"github.com/redis/go-redis/v9"
)

var ErrQueueFull = errors.New("grade queue is full")

// Delivery is one job read from a queue. Err is set when the message could
// not be decoded; such deliveries are acked and dropped.
type Delivery struct {
	ID  string
	Job models.GradeJob
	Err error
}

type Queue interface {
	Setup(ctx context.Context) error
	Publish(ctx context.Context, job models.GradeJob) error
	// Read blocks for at most the queue's block timeout and may return no
	// deliveries.
	Read(ctx context.Context, consumer string) ([]Delivery, error)
	Ack(ctx context.Context, d Delivery) error
}

type RedisStreamQueue struct {
	rdb    *redis.Client
	stream string
	group  string
	block  time.Duration
}

// InstanceStream names the grading stream owned by one process. Sessions are
// process-local, so a grade job can only be served by the process that
// published it.
func InstanceStream(base, instanceID string) string {
	return base + ":" + instanceID
}

func NewRedisStreamQueue(rdb *redis.Client, stream, group string, block time.Duration) *RedisStreamQueue {
	return &RedisStreamQueue{rdb: rdb, stream: stream, group: group, block: block}
}

func (q *RedisStreamQueue) Setup(ctx context.Context) error {
	// Create consumer group if it doesn't exist
	err := q.rdb.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Remove deletes the stream and its consumer group.
func (q *RedisStreamQueue) Remove(ctx context.Context) error {
	return q.rdb.Del(ctx, q.stream).Err()
}

func (q *RedisStreamQueue) Publish(ctx context.Context, job models.GradeJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode grade job: %w", err)
	}
	err = q.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		ID:     "*", // Auto-generate ID
		Values: map[string]interface{}{
			"session_id":    job.SessionID,
			"submission_id": job.SubmissionID,
			"payload":       string(payload),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add grade job to stream: %w", err)
	}
	return nil
}

func (q *RedisStreamQueue) Read(ctx context.Context, consumer string) ([]Delivery, error) {
	entries, err := q.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: consumer,
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var out []Delivery
	for _, stream := range entries {
		for _, msg := range stream.Messages {
			out = append(out, decodeMessage(msg))
		}
	}
	return out, nil
}

func decodeMessage(msg redis.XMessage) Delivery {
	d := Delivery{ID: msg.ID}
	payload, ok := msg.Values["payload"].(string)
	if !ok {
		d.Err = fmt.Errorf("message %s has no payload", msg.ID)
		return d
	}
	if err := json.Unmarshal([]byte(payload), &d.Job); err != nil {
		d.Err = fmt.Errorf("message %s: %w", msg.ID, err)
	}
	return d
}

func (q *RedisStreamQueue) Ack(ctx context.Context, d Delivery) error {
	return q.rdb.XAck(ctx, q.stream, q.group, d.ID).Err()
}

// MemoryQueue is the in-process queue used when Redis is not configured.
type MemoryQueue struct {
	ch    chan Delivery
	block time.Duration
	seq   atomic.Uint64
}

func NewMemoryQueue(size int, block time.Duration) *MemoryQueue {
	return &MemoryQueue{ch: make(chan Delivery, size), block: block}
}

func (q *MemoryQueue) Setup(context.Context) error { return nil }

func (q *MemoryQueue) Publish(ctx context.Context, job models.GradeJob) error {
	d := Delivery{ID: fmt.Sprintf("mem-%d", q.seq.Add(1)), Job: job}
	select {
	case q.ch <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Read(ctx context.Context, _ string) ([]Delivery, error) {
	timer := time.NewTimer(q.block)
	defer timer.Stop()
	select {
	case d := <-q.ch:
		return []Delivery{d}, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Ack(context.Context, Delivery) error { return nil }
