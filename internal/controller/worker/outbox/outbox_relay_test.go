package outbox

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/murtazox04/kelishamiz-backend/internal/entity"
	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOutbox struct{ mock.Mock }

func (m *MockOutbox) ClaimPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	args := m.Called(ctx, maxRetries, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.OutboxEvent), args.Error(1)
}
func (m *MockOutbox) MarkAsProcessedBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
func (m *MockOutbox) IncrementRetryCountBatch(ctx context.Context, events []*entity.OutboxEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
func (m *MockOutbox) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	args := m.Called(ctx, maxRetries)
	return args.Error(0)
}
func (m *MockOutbox) ReleaseStaleEvents(ctx context.Context, olderThan time.Duration) error {
	args := m.Called(ctx, olderThan)
	return args.Error(0)
}
func (m *MockOutbox) CleanupOutbox(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type fakeSender struct {
	mu     sync.Mutex
	sent   [][]*entity.OutboxEvent
	err    error
	hang   bool // block until ctx is done, like a broker that stopped answering
	closed bool
}

func (s *fakeSender) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	if s.hang {
		<-ctx.Done()

		return ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, events)

	return s.err
}

func (s *fakeSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return nil
}

func newRelay(ob *MockOutbox, es *fakeSender, opts ...Option) *OutboxRelay {
	opts = append([]Option{
		PollInterval(time.Hour),
		CleanupInterval(time.Hour),
		MarkFailedInterval(time.Hour),
		ReleaseInterval(time.Hour),
		BatchTimeout(time.Second),
		BatchSize(10),
		MaxRetries(3),
	}, opts...)

	return New(ob, es, logger.Nop(), opts...)
}

func TestRelayBatchPublishes(t *testing.T) {
	ob := &MockOutbox{}
	es := &fakeSender{}
	m := metrics.New("test")
	events := []*entity.OutboxEvent{{ID: uuid.New(), Type: entity.EventImageIngested}}

	ob.On("ClaimPendingEvents", mock.Anything, 3, 10).Return(events, nil)
	ob.On("MarkAsProcessedBatch", mock.Anything, events).Return(nil)

	require.NoError(t, newRelay(ob, es, Metrics(m)).relayBatch(context.Background()))

	require.Len(t, es.sent, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OutboxEvents.WithLabelValues(resultPublished)), 0)
	ob.AssertExpectations(t)
	ob.AssertNotCalled(t, "IncrementRetryCountBatch", mock.Anything, mock.Anything)
}

func TestRelayBatchRetriesOnSendFailure(t *testing.T) {
	ob := &MockOutbox{}
	es := &fakeSender{err: errors.New("leader not available")}
	m := metrics.New("test")
	events := []*entity.OutboxEvent{{ID: uuid.New()}, {ID: uuid.New()}}

	ob.On("ClaimPendingEvents", mock.Anything, 3, 10).Return(events, nil)
	ob.On("IncrementRetryCountBatch", mock.Anything, events).Return(nil)

	err := newRelay(ob, es, Metrics(m)).relayBatch(context.Background())

	require.ErrorIs(t, err, es.err)
	assert.InDelta(t, 2, testutil.ToFloat64(m.OutboxEvents.WithLabelValues(resultRetried)), 0)
	ob.AssertExpectations(t)
	ob.AssertNotCalled(t, "MarkAsProcessedBatch", mock.Anything, mock.Anything)
}

func TestRelayBatchSendTimeoutStillRequeues(t *testing.T) {
	ob := &MockOutbox{}
	es := &fakeSender{hang: true}
	events := []*entity.OutboxEvent{{ID: uuid.New()}}

	alive := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })

	ob.On("ClaimPendingEvents", mock.Anything, 3, 10).Return(events, nil)
	ob.On("IncrementRetryCountBatch", alive, events).Return(nil).Once()

	err := newRelay(ob, es, BatchTimeout(20*time.Millisecond)).relayBatch(context.Background())

	require.ErrorIs(t, err, context.DeadlineExceeded)
	ob.AssertExpectations(t)
}

func TestRelayBatchMarksAfterParentCancelled(t *testing.T) {
	ob := &MockOutbox{}
	es := &fakeSender{}
	events := []*entity.OutboxEvent{{ID: uuid.New()}}

	ctx, cancel := context.WithCancel(context.Background())

	ob.On("ClaimPendingEvents", mock.Anything, 3, 10).Return(events, nil)
	ob.On("MarkAsProcessedBatch", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil }), events).
		Return(nil).Once()

	// the send succeeds, then shutdown arrives before the status update
	wrapped := &cancelAfterSend{fakeSender: es, cancel: cancel}

	require.NoError(t, New(ob, wrapped, logger.Nop(), MaxRetries(3), BatchSize(10)).relayBatch(ctx))
	ob.AssertExpectations(t)
}

type cancelAfterSend struct {
	*fakeSender
	cancel context.CancelFunc
}

func (s *cancelAfterSend) SendEvents(ctx context.Context, events []*entity.OutboxEvent) error {
	err := s.fakeSender.SendEvents(ctx, events)
	s.cancel()

	return err
}

func TestRelayBatchNothingPending(t *testing.T) {
	ob := &MockOutbox{}
	es := &fakeSender{}

	ob.On("ClaimPendingEvents", mock.Anything, 3, 10).Return([]*entity.OutboxEvent{}, nil)

	require.NoError(t, newRelay(ob, es).relayBatch(context.Background()))

	assert.Empty(t, es.sent)
}

func TestRelayBatchClaimFailure(t *testing.T) {
	ob := &MockOutbox{}
	es := &fakeSender{}
	claimErr := errors.New("conn reset")

	ob.On("ClaimPendingEvents", mock.Anything, 3, 10).Return(nil, claimErr)

	err := newRelay(ob, es).relayBatch(context.Background())

	require.ErrorIs(t, err, claimErr)
	assert.Empty(t, es.sent)
}

func TestJobsRunOnTicks(t *testing.T) {
	ob := &MockOutbox{}
	es := &fakeSender{}

	var claimed, marked, released, cleaned atomic.Int32

	ob.On("ClaimPendingEvents", mock.Anything, 3, 10).
		Run(func(mock.Arguments) { claimed.Add(1) }).
		Return([]*entity.OutboxEvent{}, nil)
	ob.On("MarkMaxRetriesAsFailed", mock.Anything, 3).
		Run(func(mock.Arguments) { marked.Add(1) }).
		Return(nil)
	ob.On("ReleaseStaleEvents", mock.Anything, 5*time.Minute).
		Run(func(mock.Arguments) { released.Add(1) }).
		Return(nil)
	ob.On("CleanupOutbox", mock.Anything).
		Run(func(mock.Arguments) { cleaned.Add(1) }).
		Return(nil)

	r := newRelay(ob, es,
		PollInterval(5*time.Millisecond),
		MarkFailedInterval(5*time.Millisecond),
		CleanupInterval(5*time.Millisecond),
		ReleaseInterval(5*time.Millisecond),
		StaleAfter(5*time.Minute),
	)
	require.NoError(t, r.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return claimed.Load() > 0 && marked.Load() > 0 && released.Load() > 0 && cleaned.Load() > 0
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, r.Shutdown(ctx))
}

func TestStartTwiceAndShutdown(t *testing.T) {
	ob := &MockOutbox{}
	es := &fakeSender{}
	r := newRelay(ob, es)

	require.NoError(t, r.Start(context.Background()))
	assert.Error(t, r.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, r.Shutdown(ctx))
	assert.True(t, es.closed)
}
