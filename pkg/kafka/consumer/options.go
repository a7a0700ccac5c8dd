package consumer

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
)

type Option func(*Consumer)

func ConnAttempts(attempts int) Option {
	return func(c *Consumer) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Consumer) {
		c.connTimeout = timeout
	}
}

// StartOffset is kafka.FirstOffset or kafka.LastOffset; used for new consumer groups only.
func StartOffset(offset int64) Option {
	return func(c *Consumer) {
		c.startOffset = offset
	}
}

func MaxBytes(n int) Option {
	return func(c *Consumer) {
		c.maxBytes = n
	}
}

func Logger(l logger.Interface) Option {
	return func(c *Consumer) {
		c.logger = l
	}
}
