package listingcache

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/metrics"
)

type Option func(*Cache)

func Window(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.window = d
		}
	}
}

// Clock replaces time.Now; tests use it to move time.
func Clock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

func Metrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}
