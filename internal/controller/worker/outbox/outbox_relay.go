package outbox

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/murtazox04/kelishamiz-backend/internal/infrastructure"
	"github.com/murtazox04/kelishamiz-backend/internal/usecase"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
)

const (
	_defaultPollInterval       = time.Second
	_defaultCleanupInterval    = time.Hour
	_defaultMarkFailedInterval = time.Minute
	_defaultReleaseInterval    = time.Minute
	_defaultStaleAfter         = 5 * time.Minute
	_defaultBatchTimeout       = 10 * time.Second
	_bookkeepingTimeout        = 5 * time.Second
	_defaultBatchSize          = 100
	_defaultMaxRetries         = 5

	resultPublished = "published"
	resultRetried   = "retried"
)

// OutboxRelay moves image.ingested events from the outbox table to kafka.
// Each periodic job runs in its own goroutine until Shutdown.
type OutboxRelay struct {
	outbox usecase.OutboxUseCase
	sender infrastructure.EventsSender
	logger logger.Interface

	pollInterval       time.Duration
	cleanupInterval    time.Duration
	markFailedInterval time.Duration
	releaseInterval    time.Duration
	staleAfter         time.Duration
	batchTimeout       time.Duration
	batchSize          int
	maxRetries         int

	metrics *metrics.Metrics

	cancel context.CancelFunc
	wg     sync.WaitGroup

	started atomic.Bool
}

type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

func New(outbox usecase.OutboxUseCase, sender infrastructure.EventsSender, l logger.Interface, opts ...Option) *OutboxRelay {
	r := &OutboxRelay{
		outbox:             outbox,
		sender:             sender,
		logger:             l,
		pollInterval:       _defaultPollInterval,
		cleanupInterval:    _defaultCleanupInterval,
		markFailedInterval: _defaultMarkFailedInterval,
		releaseInterval:    _defaultReleaseInterval,
		staleAfter:         _defaultStaleAfter,
		batchTimeout:       _defaultBatchTimeout,
		batchSize:          _defaultBatchSize,
		maxRetries:         _defaultMaxRetries,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *OutboxRelay) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("OutboxRelay - Start: already started")
	}

	ctx, r.cancel = context.WithCancel(ctx)

	jobs := []job{
		{name: "relay", interval: r.pollInterval, run: r.relayBatch},
		{name: "mark failed", interval: r.markFailedInterval, run: func(ctx context.Context) error {
			return r.outbox.MarkMaxRetriesAsFailed(ctx, r.maxRetries)
		}},
		{name: "release stale", interval: r.releaseInterval, run: func(ctx context.Context) error {
			return r.outbox.ReleaseStaleEvents(ctx, r.staleAfter)
		}},
		{name: "cleanup", interval: r.cleanupInterval, run: r.outbox.CleanupOutbox},
	}

	for _, j := range jobs {
		r.wg.Add(1)
		go r.loop(ctx, j)
	}

	return nil
}

func (r *OutboxRelay) loop(ctx context.Context, j job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := j.run(ctx); err != nil {
				r.logger.Error(err, "OutboxRelay - loop - "+j.name)
			}
		}
	}
}

// relayBatch claims up to batchSize pending events and publishes them.
// On a failed publish the events go back to pending with retry_count+1.
// The status update after the send runs on its own deadline: a send that used up
// the batch timeout must still release its claim.
func (r *OutboxRelay) relayBatch(ctx context.Context) error {
	batchCtx, cancel := context.WithTimeout(ctx, r.batchTimeout)
	defer cancel()

	events, err := r.outbox.ClaimPendingEvents(batchCtx, r.maxRetries, r.batchSize)
	if err != nil {
		return fmt.Errorf("OutboxRelay - relayBatch - r.outbox.ClaimPendingEvents: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	sendErr := r.sender.SendEvents(batchCtx, events)

	markCtx, markCancel := context.WithTimeout(context.WithoutCancel(ctx), _bookkeepingTimeout)
	defer markCancel()

	if sendErr != nil {
		r.count(resultRetried, len(events))

		if incErr := r.outbox.IncrementRetryCountBatch(markCtx, events); incErr != nil {
			r.logger.Error(incErr, "OutboxRelay - relayBatch - r.outbox.IncrementRetryCountBatch")
		}

		return fmt.Errorf("OutboxRelay - relayBatch - r.sender.SendEvents: %w", sendErr)
	}

	if err = r.outbox.MarkAsProcessedBatch(markCtx, events); err != nil {
		return fmt.Errorf("OutboxRelay - relayBatch - r.outbox.MarkAsProcessedBatch: %w", err)
	}

	r.count(resultPublished, len(events))
	r.logger.Debug("OutboxRelay - relayBatch: published %d events", len(events))

	return nil
}

func (r *OutboxRelay) count(result string, n int) {
	if r.metrics == nil {
		return
	}
	r.metrics.OutboxEvents.WithLabelValues(result).Add(float64(n))
}

// Shutdown stops the jobs and closes the sender once they have returned.
func (r *OutboxRelay) Shutdown(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	r.cancel()

	done := make(chan error, 1)
	go func() {
		r.wg.Wait()
		done <- r.sender.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("OutboxRelay - Shutdown - r.sender.Close: %w", err)
		}

		return nil
	case <-ctx.Done():
		return fmt.Errorf("OutboxRelay - Shutdown: %w", ctx.Err())
	}
}
