package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/queue"
)

type fakeSource struct {
	mu      sync.Mutex
	pending []*queue.Delivery
	acked   []string
	nacked  []string
}

func (f *fakeSource) push(payload []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pending = append(f.pending, &queue.Delivery{Payload: payload})
}

func (f *fakeSource) Receive(ctx context.Context, timeout time.Duration) (*queue.Delivery, error) {
	f.mu.Lock()
	if len(f.pending) > 0 {
		d := f.pending[0]
		f.pending = f.pending[1:]
		f.mu.Unlock()
		return d, nil
	}
	f.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(time.Millisecond):
		return nil, queue.ErrEmpty
	}
}

func (f *fakeSource) Ack(ctx context.Context, d *queue.Delivery) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, string(d.Payload))
	return nil
}

func (f *fakeSource) Nack(ctx context.Context, d *queue.Delivery) error {
	f.mu.Lock()
	f.nacked = append(f.nacked, string(d.Payload))
	f.mu.Unlock()
	f.push(d.Payload)
	return nil
}

func (f *fakeSource) settled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.acked)
}

type scriptedRunner struct {
	mu       sync.Mutex
	failures map[string]int
	calls    map[string]int
}

func (s *scriptedRunner) Run(ctx context.Context, req domain.GenerationRequest) (domain.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[req.GenerationID]++
	switch req.GenerationID {
	case "missing":
		return domain.Outcome{}, fmt.Errorf("load: %w", domain.ErrNotFound)
	}
	if s.failures[req.GenerationID] > 0 {
		s.failures[req.GenerationID]--
		return domain.Outcome{}, errors.New("database unavailable")
	}
	return domain.Outcome{Status: domain.JobStatusCompleted}, nil
}

func payload(t *testing.T, id string) []byte {
	t.Helper()
	b, err := json.Marshal(domain.GenerationRequest{GenerationID: id, UserID: "u", Prompt: "p"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestPoolSettlesEveryDelivery(t *testing.T) {
	src := &fakeSource{}
	src.push(payload(t, "ok-1"))
	src.push(payload(t, "flaky"))
	src.push(payload(t, "missing"))
	src.push([]byte("{not json"))
	src.push(payload(t, "ok-2"))

	runner := &scriptedRunner{failures: map[string]int{"flaky": 1}, calls: map[string]int{}}
	pool := NewPool(src, runner, Options{Concurrency: 2, ReceiveTimeout: time.Millisecond, RetryBackoff: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pool.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for src.settled() < 5 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("timed out with %d settled deliveries", src.settled())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	runner.mu.Lock()
	defer runner.mu.Unlock()
	if runner.calls["flaky"] != 2 {
		t.Fatalf("flaky calls = %d, want 2", runner.calls["flaky"])
	}
	if runner.calls["missing"] != 1 {
		t.Fatalf("missing calls = %d, want 1", runner.calls["missing"])
	}
	if len(src.nacked) != 1 {
		t.Fatalf("nacked = %d, want 1", len(src.nacked))
	}
}

func TestPoolStopsOnCancel(t *testing.T) {
	pool := NewPool(&fakeSource{}, &scriptedRunner{calls: map[string]int{}}, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := pool.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}
}
