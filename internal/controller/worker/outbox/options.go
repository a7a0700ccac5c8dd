package outbox

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
)

type Option func(*OutboxRelay)

func PollInterval(d time.Duration) Option {
	return func(r *OutboxRelay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func CleanupInterval(d time.Duration) Option {
	return func(r *OutboxRelay) {
		if d > 0 {
			r.cleanupInterval = d
		}
	}
}

func MarkFailedInterval(d time.Duration) Option {
	return func(r *OutboxRelay) {
		if d > 0 {
			r.markFailedInterval = d
		}
	}
}

func ReleaseInterval(d time.Duration) Option {
	return func(r *OutboxRelay) {
		if d > 0 {
			r.releaseInterval = d
		}
	}
}

// StaleAfter is how long an event may stay claimed before it goes back to pending.
// Keep it well above BatchTimeout.
func StaleAfter(d time.Duration) Option {
	return func(r *OutboxRelay) {
		if d > 0 {
			r.staleAfter = d
		}
	}
}

// BatchTimeout bounds one claim-send-mark round.
func BatchTimeout(d time.Duration) Option {
	return func(r *OutboxRelay) {
		if d > 0 {
			r.batchTimeout = d
		}
	}
}

func BatchSize(n int) Option {
	return func(r *OutboxRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func MaxRetries(n int) Option {
	return func(r *OutboxRelay) {
		if n > 0 {
			r.maxRetries = n
		}
	}
}

func Metrics(m *metrics.Metrics) Option {
	return func(r *OutboxRelay) {
		r.metrics = m
	}
}
