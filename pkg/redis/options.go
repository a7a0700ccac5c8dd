package redis

import (
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
)

type Option func(*Redis)

func ConnAttempts(attempts int) Option {
	return func(r *Redis) {
		r.connAttempts = attempts
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(r *Redis) {
		r.connTimeout = timeout
	}
}

func Logger(l logger.Interface) Option {
	return func(r *Redis) {
		r.logger = l
	}
}
