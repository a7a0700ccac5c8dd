package ingest

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
)

type Option func(*Coordinator)

// MaxWorkers caps concurrent normalizations per call.
func MaxWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

func Timeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func Metrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}
