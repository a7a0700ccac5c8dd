package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/murtazox04/kelishamiz-backend/pkg/logger"
	"github.com/murtazox04/kelishamiz-backend/pkg/retry"
	"github.com/redis/go-redis/v9"
)

const (
	_defaultConnAttempts = 10
	_defaultConnTimeout  = time.Second
	_defaultPingTimeout  = 5 * time.Second
)

type Redis struct {
	connAttempts int
	connTimeout  time.Duration
	logger       logger.Interface

	Client *redis.Client
}

func New(ctx context.Context, addr, password string, db int, opts ...Option) (*Redis, error) {
	r := &Redis{
		connAttempts: _defaultConnAttempts,
		connTimeout:  _defaultConnTimeout,
		logger:       logger.Nop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.Client = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	err := retry.Connect(ctx, r.logger, "Redis", r.connAttempts, r.connTimeout, r.ping)
	if err != nil {
		_ = r.Client.Close()

		return nil, fmt.Errorf("Redis - New: %w", err)
	}

	return r, nil
}

func (r *Redis) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, _defaultPingTimeout)
	defer cancel()

	if err := r.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis - r.Client.Ping: %w", err)
	}

	return nil
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}

	return nil
}
