// Package queue delivers generation requests through a Redis list with
// at-least-once semantics: a received payload stays in a per-queue
// processing list until it is acknowledged.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
)

// ErrEmpty is returned by Receive when nothing arrived within the timeout.
var ErrEmpty = errors.New("queue: empty")

// Queue is a reliable list-backed queue.
type Queue struct {
	rdb        redis.UniversalClient
	name       string
	processing string
}

// Delivery is one received payload. It must be acked or nacked exactly once.
type Delivery struct {
	Payload []byte
	raw     string
}

// New binds a Queue to the list name.
func New(rdb redis.UniversalClient, name string) *Queue {
	return &Queue{rdb: rdb, name: name, processing: name + ":processing"}
}

// Name returns the list key.
func (q *Queue) Name() string { return q.name }

// Enqueue appends a request to the tail of the queue.
func (q *Queue) Enqueue(ctx context.Context, req domain.GenerationRequest) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("queue: encode request: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	return nil
}

// Receive blocks up to timeout for the next payload and moves it onto the
// processing list atomically.
func (q *Queue) Receive(ctx context.Context, timeout time.Duration) (*Delivery, error) {
	raw, err := q.rdb.BRPopLPush(ctx, q.name, q.processing, timeout).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("queue: receive: %w", err)
	}
	return &Delivery{Payload: []byte(raw), raw: raw}, nil
}

// Ack drops a delivery from the processing list.
func (q *Queue) Ack(ctx context.Context, d *Delivery) error {
	if err := q.rdb.LRem(ctx, q.processing, 1, d.raw).Err(); err != nil {
		return fmt.Errorf("queue: ack: %w", err)
	}
	return nil
}

// Nack returns a delivery to the back of the queue.
func (q *Queue) Nack(ctx context.Context, d *Delivery) error {
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LRem(ctx, q.processing, 1, d.raw)
		pipe.LPush(ctx, q.name, d.raw)
		return nil
	})
	if err != nil {
		return fmt.Errorf("queue: nack: %w", err)
	}
	return nil
}

// Recover moves every payload left on the processing list back onto the
// queue and reports how many were moved. Call it before any worker starts.
func (q *Queue) Recover(ctx context.Context) (int, error) {
	moved := 0
	for {
		err := q.rdb.RPopLPush(ctx, q.processing, q.name).Err()
		if errors.Is(err, redis.Nil) {
			return moved, nil
		}
		if err != nil {
			return moved, fmt.Errorf("queue: recover: %w", err)
		}
		moved++
	}
}

// Len reports the number of queued and in-flight payloads.
func (q *Queue) Len(ctx context.Context) (queued, inFlight int64, err error) {
	queued, err = q.rdb.LLen(ctx, q.name).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("queue: len: %w", err)
	}
	inFlight, err = q.rdb.LLen(ctx, q.processing).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("queue: len: %w", err)
	}
	return queued, inFlight, nil
}

// Ping checks the connection.
func (q *Queue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}
