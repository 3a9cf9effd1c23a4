// Package worker drains the generation queue with a fixed number of
// concurrent loops, each handing one request at a time to the pipeline.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/domain"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/infra"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/pipeline"
	"github.com/MUSTAQ-AHAMMAD/bulk-photo-generation-ai/internal/queue"
)

// Source is the delivery side of the queue.
type Source interface {
	Receive(ctx context.Context, timeout time.Duration) (*queue.Delivery, error)
	Ack(ctx context.Context, d *queue.Delivery) error
	Nack(ctx context.Context, d *queue.Delivery) error
}

// Runner processes one request to a terminal outcome.
type Runner interface {
	Run(ctx context.Context, req domain.GenerationRequest) (domain.Outcome, error)
}

// Options configures a Pool.
type Options struct {
	Concurrency    int
	ReceiveTimeout time.Duration
	RetryBackoff   time.Duration
	Logger         *infra.Logger
}

// Pool runs Concurrency receive loops.
type Pool struct {
	source         Source
	runner         Runner
	concurrency    int
	receiveTimeout time.Duration
	retryBackoff   time.Duration
	logger         *infra.Logger
}

// NewPool builds a Pool with defaults for unset options.
func NewPool(source Source, runner Runner, opts Options) *Pool {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.ReceiveTimeout <= 0 {
		opts.ReceiveTimeout = 5 * time.Second
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 5 * time.Second
	}
	return &Pool{
		source:         source,
		runner:         runner,
		concurrency:    opts.Concurrency,
		receiveTimeout: opts.ReceiveTimeout,
		retryBackoff:   opts.RetryBackoff,
		logger:         infra.LoggerOrDiscard(opts.Logger),
	}
}

// Run blocks until ctx is cancelled. Deliveries in flight at shutdown stay
// on the processing list for the next start to recover.
func (p *Pool) Run(ctx context.Context) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for i := 0; i < p.concurrency; i++ {
		id := i
		eg.Go(func() error {
			p.loop(egCtx, id)
			return nil
		})
	}
	p.logger.Info().Int("concurrency", p.concurrency).Msg("worker: started")
	err := eg.Wait()
	p.logger.Info().Msg("worker: stopped")
	return err
}

func (p *Pool) loop(ctx context.Context, id int) {
	logger := p.logger.With().Int("worker", id).Logger()
	for ctx.Err() == nil {
		d, err := p.source.Receive(ctx, p.receiveTimeout)
		if err != nil {
			if errors.Is(err, queue.ErrEmpty) || ctx.Err() != nil {
				continue
			}
			logger.Error().Err(err).Msg("worker: receive failed")
			sleep(ctx, p.retryBackoff)
			continue
		}
		p.handle(ctx, &logger, d)
	}
}

// handle settles exactly one delivery.
func (p *Pool) handle(ctx context.Context, logger *infra.Logger, d *queue.Delivery) {
	var req domain.GenerationRequest
	if err := json.Unmarshal(d.Payload, &req); err != nil {
		logger.Error().Err(err).Msg("worker: dropping undecodable payload")
		p.ack(ctx, logger, d)
		return
	}
	jobLogger := logger.With().Str("job_id", req.GenerationID).Logger()
	jobLogger.Info().Str("pose", req.Pose).Str("preset", string(req.EnginePreset)).Msg("worker: picked job")

	out, err := p.runner.Run(ctx, req)
	switch {
	case err == nil:
		jobLogger.Info().Str("status", string(out.Status)).Msg("worker: job settled")
		p.ack(ctx, &jobLogger, d)
	case ctx.Err() != nil:
		jobLogger.Warn().Err(err).Msg("worker: interrupted, leaving delivery for recovery")
	case pipeline.IsRetryable(err):
		jobLogger.Error().Err(err).Dur("backoff", p.retryBackoff).Msg("worker: job will be redelivered")
		sleep(ctx, p.retryBackoff)
		if ctx.Err() != nil {
			return
		}
		if nackErr := p.source.Nack(ctx, d); nackErr != nil {
			jobLogger.Error().Err(nackErr).Msg("worker: nack failed")
		}
	default:
		jobLogger.Warn().Err(err).Msg("worker: dropping job")
		p.ack(ctx, &jobLogger, d)
	}
}

func (p *Pool) ack(ctx context.Context, logger *infra.Logger, d *queue.Delivery) {
	if err := p.source.Ack(ctx, d); err != nil {
		logger.Error().Err(err).Msg("worker: ack failed")
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
