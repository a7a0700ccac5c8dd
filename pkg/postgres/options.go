package postgres

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
)

type Option func(*Postgres)

func MaxPoolSize(size int) Option {
	return func(c *Postgres) {
		c.maxPoolSize = size
	}
}

func ConnAttempts(attempts int) Option {
	return func(c *Postgres) {
		c.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(c *Postgres) {
		c.connTimeout = timeout
	}
}

func Logger(l logger.Interface) Option {
	return func(c *Postgres) {
		c.logger = l
	}
}
